// Package doctor runs doctor onboarding and the administrator review that
// moves a registration out of pending.
package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/internal/service/notification"
	"github.com/jwalitptl/doctor-api/pkg/blobstore"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

const (
	govtIDPrefix      = "doctor_documents/govt_id"
	certificatePrefix = "doctor_documents/medical_certificate"
)

// UserFactory builds the login account created alongside a doctor.
type UserFactory interface {
	NewUser(username, email, password string, isAdmin bool) (*model.User, error)
}

// Documents are the two credential files an applicant must attach.
type Documents struct {
	GovtID             *blobstore.Upload
	MedicalCertificate *blobstore.Upload
}

type Service struct {
	doctors   repository.DoctorRepository
	users     UserFactory
	blobs     blobstore.Store
	validator validator.Validator
	notifier  notification.Notifier
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(
	doctors repository.DoctorRepository,
	users UserFactory,
	blobs blobstore.Store,
	v validator.Validator,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		doctors:   doctors,
		users:     users,
		blobs:     blobs,
		validator: v,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With().Str("service", "doctor").Logger(),
	}
}

// Onboard registers a new doctor in pending state. Documents are written
// before the rows and removed again if the rows cannot be inserted.
func (s *Service) Onboard(ctx context.Context, req *model.OnboardRequest, docs Documents) (*model.OnboardResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateDocument("govt_id", docs.GovtID); err != nil {
		return nil, err
	}
	if err := validateDocument("medical_certificate", docs.MedicalCertificate); err != nil {
		return nil, err
	}

	user, err := s.users.NewUser(req.Username, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	govtIDKey, err := s.store(ctx, "govt_id", govtIDPrefix, docs.GovtID)
	if err != nil {
		return nil, err
	}
	certKey, err := s.store(ctx, "medical_certificate", certificatePrefix, docs.MedicalCertificate)
	if err != nil {
		s.removeBlobs(ctx, govtIDKey)
		return nil, err
	}

	doctor := &model.Doctor{
		Name:                   req.Name,
		Email:                  req.Email,
		Mobile:                 req.Mobile,
		Specialty:              req.Specialty,
		RegID:                  req.RegID,
		GovtIDPath:             govtIDKey,
		MedicalCertificatePath: certKey,
	}
	if req.ClinicAddress != "" {
		addr := req.ClinicAddress
		doctor.ClinicAddress = &addr
	}

	if err := s.doctors.CreateWithUser(ctx, user, doctor); err != nil {
		s.removeBlobs(ctx, govtIDKey, certKey)
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", doctor.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("doctor onboarded")

	return &model.OnboardResponse{DoctorID: doctor.ID, Status: doctor.Status}, nil
}

func validateDocument(field string, upload *blobstore.Upload) error {
	if err := upload.Validate(); err != nil {
		return errors.NewValidation(fmt.Sprintf("%s: %s", field, err.Error()), nil)
	}
	return nil
}

func (s *Service) store(ctx context.Context, kind, prefix string, upload *blobstore.Upload) (string, error) {
	key := blobstore.NewKey(prefix, upload.Name)
	if _, err := s.blobs.Save(ctx, key, upload.Content); err != nil {
		s.metrics.Uploads.WithLabelValues(kind, "error").Inc()
		if stderrors.Is(err, blobstore.ErrFileTooLarge) {
			return "", errors.NewValidation(fmt.Sprintf("%s: %s", kind, err.Error()), nil)
		}
		return "", errors.NewInternal(fmt.Errorf("failed to store %s: %w", kind, err))
	}
	s.metrics.Uploads.WithLabelValues(kind, "ok").Inc()
	return key, nil
}

func (s *Service) removeBlobs(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil && !stderrors.Is(err, blobstore.ErrBlobNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove orphaned document")
		}
	}
}

// Review applies an administrator's decision to a pending doctor.
func (s *Service) Review(ctx context.Context, p model.Principal, id uuid.UUID, req *model.ReviewRequest) (*model.Doctor, error) {
	if err := access.Admin(p); err != nil {
		return nil, err
	}
	if !model.DoctorStatusPending.CanTransition(req.Status) {
		return nil, errors.NewValidation("status must be approved or rejected", nil)
	}

	doctor, err := s.doctors.Review(ctx, id, req.Status)
	if err != nil {
		return nil, err
	}

	s.metrics.DoctorReviews.WithLabelValues(string(doctor.Status)).Inc()
	s.logger.Info().
		Str("doctor_id", doctor.ID.String()).
		Str("status", string(doctor.Status)).
		Str("reviewed_by", p.UserID.String()).
		Msg("doctor reviewed")

	s.notifier.DoctorStatusChanged(ctx, doctor)
	return doctor, nil
}

func (s *Service) ListPending(ctx context.Context, p model.Principal) ([]*model.Doctor, error) {
	if err := access.Admin(p); err != nil {
		return nil, err
	}
	return s.doctors.ListByStatus(ctx, model.DoctorStatusPending)
}

// GetPending returns NotFound for doctors that were already reviewed.
func (s *Service) GetPending(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Doctor, error) {
	if err := access.Admin(p); err != nil {
		return nil, err
	}
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundMessage("doctor not found or not pending")
		}
		return nil, err
	}
	if doctor.Status != model.DoctorStatusPending {
		return nil, errors.NewNotFoundMessage("doctor not found or not pending")
	}
	return doctor, nil
}
