// Package history serves consent-gated reads of patient history. Every
// successful read leaves exactly one access log row.
package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type Service struct {
	histories repository.HistoryRepository
	resolver  *access.Resolver
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(histories repository.HistoryRepository, resolver *access.Resolver, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		histories: histories,
		resolver:  resolver,
		metrics:   m,
		logger:    logger.With().Str("service", "history").Logger(),
	}
}

// Read returns the patient's history with its summary. Consent is checked
// inside the same transaction that writes the audit row; if either fails
// nothing is returned.
func (s *Service) Read(ctx context.Context, p model.Principal, patientID uuid.UUID) (*model.HistoryView, error) {
	doctor, err := s.resolver.Doctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(doctor, nil, access.ActionRead).Err(); err != nil {
		s.metrics.HistoryReads.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	entry := &model.AccessLog{UserID: p.UserID, Action: model.AccessActionViewed}
	history, err := s.histories.ReadAudited(ctx, doctor.ID, patientID, entry, func(granted bool) error {
		return access.Authorize(doctor, access.HistoryRead{PatientID: patientID, ConsentGranted: granted}, access.ActionRead).Err()
	})
	if err != nil {
		s.metrics.HistoryReads.WithLabelValues(readResult(err)).Inc()
		return nil, err
	}

	s.metrics.HistoryReads.WithLabelValues("ok").Inc()
	s.metrics.AuditWrites.Inc()
	s.logger.Info().
		Str("doctor_id", doctor.ID.String()).
		Str("patient_id", patientID.String()).
		Str("access_log_id", entry.ID.String()).
		Msg("patient history viewed")

	return &model.HistoryView{PatientHistory: history, Summary: history.Summary()}, nil
}

func readResult(err error) string {
	switch {
	case errors.IsForbidden(err):
		return "forbidden"
	case errors.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
