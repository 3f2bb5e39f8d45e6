package appointment

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, p model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Update(ctx context.Context, p model.Principal, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	MarkNoShow(ctx context.Context, p model.Principal, id uuid.UUID, fields map[string]interface{}) (*model.Appointment, error)
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, p model.Principal, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	AddNote(ctx context.Context, p model.Principal, id uuid.UUID, req *model.CreateNoteRequest) (*model.MedicalNote, error)
	ListNotes(ctx context.Context, p model.Principal, id uuid.UUID) ([]*model.MedicalNote, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/", h.ListAppointments)
		appointments.POST("/", h.CreateAppointment)
		appointments.GET("/:id/", h.GetAppointment)
		appointments.PUT("/:id/", h.UpdateAppointment)
		appointments.PATCH("/:id/", h.MarkNoShow)
		appointments.GET("/:id/notes", h.ListNotes)
		appointments.POST("/:id/notes", h.AddNote)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.svc.Create(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointments, err := h.svc.List(c.Request.Context(), p, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.svc.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

// MarkNoShow takes the raw body so the service can reject any field other
// than status.
func (h *Handler) MarkNoShow(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	var fields map[string]interface{}
	if !handler.BindJSON(c, &fields) {
		return
	}

	appointment, err := h.svc.MarkNoShow(c.Request.Context(), p, id, fields)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) AddNote(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	var req model.CreateNoteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	note, err := h.svc.AddNote(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, note)
}

func (h *Handler) ListNotes(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	notes, err := h.svc.ListNotes(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notes)
}
