package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/handler"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, p model.Principal, filter *model.AccessLogFilter) ([]*model.AccessLog, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/admin/access-logs")
	{
		logs.GET("", h.ListLogs)
		logs.GET("/export", h.ExportLogs)
	}
}

// parseFilter reads patient_id, from, to (RFC 3339) and limit.
func parseFilter(c *gin.Context) (*model.AccessLogFilter, error) {
	filter := &model.AccessLogFilter{}

	if v := c.Query("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errors.NewValidation("invalid patient_id", nil)
		}
		filter.PatientID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("%s must be an RFC 3339 timestamp", name), nil)
		}
		*dst = &ts
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.NewValidation("limit must be a number", nil)
		}
		filter.Limit = n
	}
	return filter, nil
}

func (h *Handler) list(c *gin.Context) ([]*model.AccessLog, bool) {
	p, ok := handler.Principal(c)
	if !ok {
		return nil, false
	}
	filter, err := parseFilter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}

	logs, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	return logs, true
}

func (h *Handler) ListLogs(c *gin.Context) {
	logs, ok := h.list(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, logs)
}

func (h *Handler) ExportLogs(c *gin.Context) {
	logs, ok := h.list(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=access_logs.csv")

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "user_id", "patient_id", "action", "accessed_at"})
	for _, l := range logs {
		_ = w.Write([]string{
			l.ID.String(),
			l.UserID.String(),
			l.PatientID.String(),
			l.Action,
			l.AccessedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}
