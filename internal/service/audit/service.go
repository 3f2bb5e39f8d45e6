// Package audit exposes the access log to administrators. Rows are only
// ever appended by the history read; nothing here writes.
package audit

import (
	"context"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

const maxLimit = 1000

type Service struct {
	repo repository.AccessLogRepository
}

func NewService(repo repository.AccessLogRepository) *Service {
	return &Service{repo: repo}
}

// List returns access log rows in the order they were written.
func (s *Service) List(ctx context.Context, p model.Principal, filter *model.AccessLogFilter) ([]*model.AccessLog, error) {
	if err := access.Admin(p); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &model.AccessLogFilter{}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errors.NewValidation("to must not be before from", nil)
	}
	if filter.Limit < 0 || filter.Limit > maxLimit {
		return nil, errors.NewValidation("limit must be between 0 and 1000", nil)
	}
	return s.repo.List(ctx, filter)
}
