// Package handler exposes the case lifecycle engine over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/cases/service"
	"transit_portal_backend/internal/cases/transport"
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

// RegisterRoutes mounts the case endpoints. All routes sit behind
// authentication; write access is narrowed per role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/pending-review", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.ListPendingReviews)
	rg.GET("/assigned", h.ListAssigned)
	rg.GET("/customer/:customerId", h.ListForCustomer)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/stages", h.ListStages)

	rg.POST("", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleDataEncoder), h.Create)
	rg.PUT("/:id", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleDataEncoder), h.Update)
	rg.PATCH("/:id/status", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleDataEncoder, domain.RoleCaseExecutor), h.UpdateStatus)
	rg.DELETE("/:id", httpkit.RequireRole(domain.RoleAdmin), h.Delete)

	rg.PUT("/:id/assign", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.Assign)
	rg.POST("/:id/review", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.Review)
	rg.PATCH("/:id/risk", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.SetRiskTier)
}

// RegisterStageRoutes mounts the stage endpoints (addressed by stage id).
func (h *Handler) RegisterStageRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/:stageId/status", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.UpdateStageStatus)
	rg.POST("/:stageId/block", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.BlockStage)
	rg.POST("/:stageId/unblock", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.UnblockStage)

	rg.GET("/:stageId/transports", h.ListTransports)
	rg.POST("/:stageId/transports", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.CreateTransport)
}

// RegisterTransportRoutes mounts transport endpoints addressed by transport id.
func (h *Handler) RegisterTransportRoutes(rg *gin.RouterGroup) {
	rg.GET("/:transportId", h.GetTransport)
	rg.PUT("/:transportId", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.UpdateTransport)
	rg.DELETE("/:transportId", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleCaseExecutor, domain.RoleAssessor), h.DeleteTransport)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateCaseRequest
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

	detail, err := h.svc.Create(c.Request.Context(), req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, detail)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	detail, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, detail)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListCasesRequest
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

// ListAssigned returns cases whose executor slot holds the caller.
func (h *Handler) ListAssigned(c *gin.Context) {
	var req transport.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	list, err := h.svc.ListAssignedTo(c.Request.Context(), ident.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, list)
}

// ListForCustomer returns the cases owned by one customer.
func (h *Handler) ListForCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	list, err := h.svc.ListForCustomer(c.Request.Context(), customerID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, list)
}

func (h *Handler) ListPendingReviews(c *gin.Context) {
	var req transport.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	list, err := h.svc.ListPendingReviews(c.Request.Context(), req)
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

	var req transport.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.UpdateDetails(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.UpdateCaseStatusRequest
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

	resp, err := h.svc.TransitionStatus(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, ident.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "case deleted", nil)
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.AssignCaseRequest
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

	resp, err := h.svc.Assign(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.ReviewCaseRequest
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

	resp, err := h.svc.Review(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) SetRiskTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.SetRiskTierRequest
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

	resp, err := h.svc.SetRiskTier(c.Request.Context(), id, req, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListStages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	stages, err := h.svc.ListStages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stages)
}

func (h *Handler) UpdateStageStatus(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.UpdateStageStatusRequest
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

	resp, err := h.svc.UpdateStageStatus(c.Request.Context(), stageID, req, ident.UserID(), ident.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) BlockStage(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.BlockStageRequest
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

	resp, err := h.svc.BlockStage(c.Request.Context(), stageID, req, ident.UserID(), ident.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UnblockStage(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	resp, err := h.svc.UnblockStage(c.Request.Context(), stageID, ident.UserID(), ident.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CreateTransport(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.CreateTransportRequest
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

	resp, err := h.svc.CreateTransport(c.Request.Context(), stageID, req, ident.UserID(), ident.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) ListTransports(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	items, err := h.svc.ListTransports(c.Request.Context(), stageID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

func (h *Handler) GetTransport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("transportId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	resp, err := h.svc.GetTransport(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateTransport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("transportId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	var req transport.UpdateTransportRequest
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

	resp, err := h.svc.UpdateTransport(c.Request.Context(), id, req, ident.UserID(), ident.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) DeleteTransport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("transportId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	if err := h.svc.DeleteTransport(c.Request.Context(), id, ident.UserID(), ident.Roles()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "transport removed", nil)
}
