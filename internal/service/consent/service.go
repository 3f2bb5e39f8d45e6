// Package consent manages a patient's permission for a doctor to read their
// history.
package consent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/internal/service/notification"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
)

type Service struct {
	consents repository.ConsentRepository
	resolver *access.Resolver
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(
	consents repository.ConsentRepository,
	resolver *access.Resolver,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		consents: consents,
		resolver: resolver,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With().Str("service", "consent").Logger(),
	}
}

// Request opens a pending consent between the calling doctor and a patient.
// A pair can be requested once; later requests fail with Conflict.
func (s *Service) Request(ctx context.Context, p model.Principal, patientID string) (*model.Consent, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, errors.NewValidation("patient_id must be a valid UUID", err)
	}

	consent := &model.Consent{DoctorID: doctor.ID, PatientID: pid}
	if err := s.consents.Create(ctx, consent); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("consent_id", consent.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Str("patient_id", pid.String()).
		Msg("consent requested")

	s.notifier.ConsentRequested(ctx, consent)
	return consent, nil
}

// Resolve moves a consent to status. The check runs against the locked,
// committed row: of two racing calls the second sees the first's result.
func (s *Service) Resolve(ctx context.Context, p model.Principal, id uuid.UUID, status model.ConsentStatus) (*model.Consent, error) {
	if !status.Valid() || status == model.ConsentStatusPending {
		return nil, errors.NewValidation("status must be granted or denied", nil)
	}

	var from model.ConsentStatus
	consent, err := s.consents.Transition(ctx, id, func(c *model.Consent) error {
		from = c.Status
		if !c.Status.CanTransition(status) {
			return errors.NewValidation(
				fmt.Sprintf("illegal consent transition from %s to %s", c.Status, status), nil)
		}
		c.Status = status
		return nil
	})
	if err != nil {
		if from != "" {
			s.metrics.ConsentTransitions.WithLabelValues(string(from), string(status), "rejected").Inc()
		}
		return nil, err
	}

	s.metrics.ConsentTransitions.WithLabelValues(string(from), string(status), "applied").Inc()
	s.logger.Info().
		Str("consent_id", consent.ID.String()).
		Str("from", string(from)).
		Str("to", string(status)).
		Str("resolved_by", p.UserID.String()).
		Msg("consent resolved")

	s.notifier.ConsentStatusChanged(ctx, consent)
	return consent, nil
}

// IsGranted reports whether doctorID may currently read patientID's history.
func (s *Service) IsGranted(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return s.consents.IsGranted(ctx, doctorID, patientID)
}

func (s *Service) List(ctx context.Context, p model.Principal) ([]*model.Consent, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.consents.ListByDoctor(ctx, doctor.ID)
}
