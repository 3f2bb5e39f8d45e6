package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
)

const defaultAccessLogLimit = 500

type accessLogRepository struct {
	BaseRepository
}

func NewAccessLogRepository(base BaseRepository) repository.AccessLogRepository {
	return &accessLogRepository{base}
}

func (r *accessLogRepository) List(ctx context.Context, filter *model.AccessLogFilter) ([]*model.AccessLog, error) {
	query := `
        SELECT id, user_id, patient_id, action, accessed_at
        FROM access_logs WHERE 1=1
    `
	var args []interface{}

	if filter == nil {
		filter = &model.AccessLogFilter{}
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND accessed_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND accessed_at <= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultAccessLogLimit {
		limit = defaultAccessLogLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY accessed_at LIMIT $%d", len(args))

	logs := []*model.AccessLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	return logs, nil
}
