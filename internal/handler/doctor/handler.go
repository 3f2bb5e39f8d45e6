package doctor

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	doctorsvc "github.com/jwalitptl/doctor-api/internal/service/doctor"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Onboard(ctx context.Context, req *model.OnboardRequest, docs doctorsvc.Documents) (*model.OnboardResponse, error)
	Review(ctx context.Context, p model.Principal, id uuid.UUID, req *model.ReviewRequest) (*model.Doctor, error)
	ListPending(ctx context.Context, p model.Principal) ([]*model.Doctor, error)
	GetPending(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Doctor, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated onboarding endpoint.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/onboard/", h.Onboard)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/", h.ListPending)
		admin.GET("/:id/", h.GetPending)
		admin.PATCH("/:id/", h.Review)
	}
}

func (h *Handler) Onboard(c *gin.Context) {
	var req model.OnboardRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	govtID, closeGovtID, err := handler.FormUpload(c, "govt_id")
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	defer closeGovtID()

	certificate, closeCertificate, err := handler.FormUpload(c, "medical_certificate")
	if err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	defer closeCertificate()

	resp, err := h.svc.Onboard(c.Request.Context(), &req, doctorsvc.Documents{
		GovtID:             govtID,
		MedicalCertificate: certificate,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) ListPending(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	doctors, err := h.svc.ListPending(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetPending(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "doctor")
	if !ok {
		return
	}

	doctor, err := h.svc.GetPending(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) Review(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "doctor")
	if !ok {
		return
	}

	var req model.ReviewRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.svc.Review(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctor)
}
