package consent

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Request(ctx context.Context, p model.Principal, patientID string) (*model.Consent, error)
	Resolve(ctx context.Context, p model.Principal, id uuid.UUID, status model.ConsentStatus) (*model.Consent, error)
	List(ctx context.Context, p model.Principal) ([]*model.Consent, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consents := r.Group("/consents")
	{
		consents.GET("/", h.ListConsents)
		consents.POST("/", h.RequestConsent)
		consents.PATCH("/:id/", h.ResolveConsent)
		consents.PUT("/:id/", h.ResolveConsent)
	}
}

func (h *Handler) RequestConsent(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.ConsentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	consent, err := h.svc.Request(c.Request.Context(), p, req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, consent)
}

func (h *Handler) ListConsents(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	consents, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, consents)
}

func (h *Handler) ResolveConsent(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "consent")
	if !ok {
		return
	}

	var req model.ConsentResolveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	consent, err := h.svc.Resolve(c.Request.Context(), p, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, consent)
}
