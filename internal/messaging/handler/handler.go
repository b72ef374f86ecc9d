// Package handler exposes the case message ledger over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"transit_portal_backend/internal/messaging/service"
	"transit_portal_backend/internal/messaging/transport"
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

// RegisterCaseRoutes mounts the case-level message endpoints.
func (h *Handler) RegisterCaseRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/messages", h.ListCaseMessages)
	rg.POST("/:id/messages", h.AddCaseMessage)
}

// RegisterStageRoutes mounts the stage-level comment endpoints.
func (h *Handler) RegisterStageRoutes(rg *gin.RouterGroup) {
	rg.GET("/:stageId/comments", h.ListStageComments)
	rg.POST("/:stageId/comments", h.AddStageComment)
}

func (h *Handler) AddCaseMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	resp, err := h.svc.AddCaseMessage(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) ListCaseMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	messages, err := h.svc.ListCaseMessages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, messages)
}

func (h *Handler) AddStageComment(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	resp, err := h.svc.AddStageComment(c.Request.Context(), stageID, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) ListStageComments(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	comments, err := h.svc.ListStageComments(c.Request.Context(), stageID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, comments)
}
