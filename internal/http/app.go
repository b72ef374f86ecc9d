// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"transit_portal_backend/platform/config"
	"transit_portal_backend/platform/events"
	"transit_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterContext carries the route groups modules mount their endpoints on.
type RouterContext struct {
	// Public routes require no authentication.
	Public *gin.RouterGroup
	// Protected routes require a valid access token.
	Protected *gin.RouterGroup
}

// Module is implemented by every HTTP-facing bounded context.
type Module interface {
	// Name returns the module identifier used in logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints.
	RegisterRoutes(ctx *RouterContext)
}

// EventSubscriber is implemented by modules that react to domain events.
type EventSubscriber interface {
	RegisterHandlers(bus events.Bus)
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
