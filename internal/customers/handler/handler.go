// Package handler exposes customer registration and verification over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	casedomain "transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/customers/service"
	"transit_portal_backend/internal/customers/transport"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/pending-verification", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleAssessor), h.ListPending)
	rg.GET("/:id", h.GetByID)
	rg.POST("", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleDataEncoder), h.Register)
	rg.PUT("/:id", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleDataEncoder), h.Update)
	rg.POST("/:id/verify", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleAssessor), h.Verify)
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterCustomerRequest
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

	resp, err := h.svc.Register(c.Request.Context(), req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	list, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, list)
}

func (h *Handler) ListPending(c *gin.Context) {
	var req transport.ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	list, err := h.svc.ListPendingVerification(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, list)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.VerifyCustomerRequest
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

	resp, err := h.svc.Verify(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
