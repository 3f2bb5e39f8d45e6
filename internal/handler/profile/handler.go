package profile

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Get(ctx context.Context, p model.Principal) (*model.ProfileView, error)
	Upsert(ctx context.Context, p model.Principal, req *model.ProfileUpdateRequest) (*model.ProfileView, error)
	ListPublic(ctx context.Context) ([]*model.DoctorPreview, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*model.DoctorPreview, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated preview endpoints.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	public := r.Group("/public")
	{
		public.GET("/", h.ListPublic)
		public.GET("/:id/", h.GetPublic)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile/", h.Get)
	r.PUT("/profile/", h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	view, err := h.svc.Get(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) Update(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.ProfileUpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.svc.Upsert(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) ListPublic(c *gin.Context) {
	previews, err := h.svc.ListPublic(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, previews)
}

func (h *Handler) GetPublic(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "doctor")
	if !ok {
		return
	}

	preview, err := h.svc.GetPublic(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, preview)
}
