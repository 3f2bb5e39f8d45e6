package history

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Read(ctx context.Context, p model.Principal, patientID uuid.UUID) (*model.HistoryView, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history/:patient_id/", h.GetHistory)
}

// GetHistory returns the patient's history. Every successful response has
// a matching access log row.
func (h *Handler) GetHistory(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParseID(c, "patient_id", "patient history")
	if !ok {
		return
	}

	view, err := h.svc.Read(c.Request.Context(), p, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, view)
}
