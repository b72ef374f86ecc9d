// Package handler exposes case document management over HTTP. Uploads are
// multipart form posts; downloads are presigned links into the blob store.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	casedomain "transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/internal/documents/service"
	"transit_portal_backend/platform/httpkit"
)

const (
	msgInvalidID   = "invalid id"
	msgMissingFile = "a file form field is required"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterCaseRoutes mounts case-level document endpoints.
func (h *Handler) RegisterCaseRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/documents", h.ListCaseDocuments)
	rg.POST("/:id/documents", h.UploadCaseDocument)
}

// RegisterStageRoutes mounts stage-level document endpoints.
func (h *Handler) RegisterStageRoutes(rg *gin.RouterGroup) {
	rg.GET("/:stageId/documents", h.ListStageDocuments)
	rg.POST("/:stageId/documents", h.UploadStageDocument)
}

// RegisterDocumentRoutes mounts endpoints addressed by document id.
func (h *Handler) RegisterDocumentRoutes(rg *gin.RouterGroup) {
	rg.GET("/:docId/download", h.Download)
	rg.POST("/:docId/verify", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleAssessor), h.Verify)
	rg.DELETE("/:docId", httpkit.RequireAnyRole(casedomain.RoleAdmin, casedomain.RoleDataEncoder), h.Delete)
}

func (h *Handler) UploadCaseDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgMissingFile)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgMissingFile)
		return
	}
	defer file.Close()

	doc, err := h.svc.UploadCaseDocument(c.Request.Context(), id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file, fileHeader.Size, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, doc)
}

func (h *Handler) UploadStageDocument(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgMissingFile)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgMissingFile)
		return
	}
	defer file.Close()

	doc, err := h.svc.UploadStageDocument(c.Request.Context(), stageID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file, fileHeader.Size, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, doc)
}

func (h *Handler) ListCaseDocuments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	docs, err := h.svc.ListCaseDocuments(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, docs)
}

func (h *Handler) ListStageDocuments(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("stageId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	docs, err := h.svc.ListStageDocuments(c.Request.Context(), stageID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, docs)
}

func (h *Handler) Download(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("docId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	link, err := h.svc.DownloadLink(c.Request.Context(), docID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, link)
}

func (h *Handler) Verify(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("docId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	doc, err := h.svc.Verify(c.Request.Context(), docID, ident.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("docId"))
	if err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), docID, ident.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, "document deleted", nil)
}
