// Package handler exposes authentication and user management over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"transit_portal_backend/internal/auth/service"
	"transit_portal_backend/internal/auth/transport"
	casedomain "transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/platform/httpkit"
	"transit_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request body"
	msgInvalidID        = "invalid id"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the unauthenticated auth endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-in", h.SignIn)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/sign-out", h.SignOut)
}

// RegisterUserRoutes mounts the admin-only user management endpoints.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("", httpkit.RequireRole(casedomain.RoleAdmin), h.ListUsers)
	rg.POST("", httpkit.RequireRole(casedomain.RoleAdmin), h.CreateUser)
	rg.PUT("/:id/roles", httpkit.RequireRole(casedomain.RoleAdmin), h.SetRoles)
	rg.POST("/:id/deactivate", httpkit.RequireRole(casedomain.RoleAdmin), h.Deactivate)
	rg.POST("/:id/activate", httpkit.RequireRole(casedomain.RoleAdmin), h.Activate)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	pair, err := h.svc.SignIn(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pair)
}

func (h *Handler) SignOut(c *gin.Context) {
	var req transport.SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "signed out", nil)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, users)
}

func (h *Handler) SetRoles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetRoles(c.Request.Context(), id, req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "roles updated", nil)
}

func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), id, active); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "user updated", nil)
}
