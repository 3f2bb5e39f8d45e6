package prescription

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/blobstore"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Upload(ctx context.Context, p model.Principal, req *model.PrescriptionUploadRequest, file *blobstore.Upload) (*model.PrescriptionUploadResponse, error)
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.PrescriptionUpload, error)
	Open(ctx context.Context, p model.Principal, id uuid.UUID) (*model.PrescriptionUpload, io.ReadCloser, error)
	Delete(ctx context.Context, p model.Principal, id uuid.UUID) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.POST("/upload/", h.Upload)
		prescriptions.GET("/:id/", h.GetPrescription)
		prescriptions.GET("/:id/file", h.Download)
		prescriptions.DELETE("/:id/", h.DeletePrescription)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.PrescriptionUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	file, closeFile, err := handler.FormUpload(c, "file")
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	defer closeFile()

	resp, err := h.svc.Upload(c.Request.Context(), p, &req, file)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "prescription")
	if !ok {
		return
	}

	rx, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, rx)
}

func (h *Handler) Download(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "prescription")
	if !ok {
		return
	}

	rx, r, err := h.svc.Open(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	defer r.Close()

	contentType := mime.TypeByExtension(path.Ext(rx.FilePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, r, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, path.Base(rx.FilePath)),
	})
}

func (h *Handler) DeletePrescription(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "prescription")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
