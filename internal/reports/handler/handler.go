package handler

import (
	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/reports/repository"
	"transit_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/overview", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.Overview)
	rg.GET("/cases-by-status", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.CasesByStatus)
	rg.GET("/cases-by-type", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.CasesByType)
	rg.GET("/cases-by-risk", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.CasesByRisk)
	rg.GET("/executor-workloads", httpkit.RequireAnyRole(domain.RoleAdmin, domain.RoleAssessor), h.ExecutorWorkloads)
	rg.GET("/my-dashboard", h.MyDashboard)
}

// MyDashboard is available to every authenticated user; the counters are
// scoped to the caller so no role gate is needed.
func (h *Handler) MyDashboard(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	dashboard, err := h.repo.GetPersonalDashboard(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dashboard)
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.repo.GetOverview(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, overview)
}

func (h *Handler) CasesByStatus(c *gin.Context) {
	buckets, err := h.repo.CountByStatus(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"buckets": buckets})
}

func (h *Handler) CasesByType(c *gin.Context) {
	buckets, err := h.repo.CountByServiceType(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"buckets": buckets})
}

func (h *Handler) CasesByRisk(c *gin.Context) {
	buckets, err := h.repo.CountByRiskTier(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"buckets": buckets})
}

func (h *Handler) ExecutorWorkloads(c *gin.Context) {
	workloads, err := h.repo.ExecutorWorkloads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"workloads": workloads})
}
