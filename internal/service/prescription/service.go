package prescription

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/blobstore"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/metrics"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

const (
	keyPrefix  = "prescriptions"
	uploadKind = "prescription"
)

type Service struct {
	prescriptions repository.PrescriptionRepository
	appointments  repository.AppointmentRepository
	resolver      *access.Resolver
	blobs         blobstore.Store
	validator     validator.Validator
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

func NewService(
	prescriptions repository.PrescriptionRepository,
	appointments repository.AppointmentRepository,
	resolver *access.Resolver,
	blobs blobstore.Store,
	v validator.Validator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		appointments:  appointments,
		resolver:      resolver,
		blobs:         blobs,
		validator:     v,
		metrics:       m,
		logger:        logger.With().Str("service", "prescription").Logger(),
	}
}

// Upload stores a prescription file against one of the caller's
// appointments. The file is written first; if the row cannot be inserted
// the file is removed again.
func (s *Service) Upload(ctx context.Context, p model.Principal, req *model.PrescriptionUploadRequest, file *blobstore.Upload) (*model.PrescriptionUploadResponse, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, errors.NewValidation(err.Error(), nil)
	}

	appointmentID, _ := uuid.Parse(req.AppointmentID)
	patientID, _ := uuid.Parse(req.PatientID)

	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	decision := access.Authorize(doctor, access.PrescriptionCreate{Appointment: appt, PatientID: patientID}, access.ActionCreate)
	if err := decision.Err(); err != nil {
		return nil, err
	}

	key := blobstore.NewKey(path.Join(keyPrefix, doctor.ID.String()), file.Name)
	locator, err := s.blobs.Save(ctx, key, file.Content)
	if err != nil {
		s.metrics.Uploads.WithLabelValues(uploadKind, "error").Inc()
		if stderrors.Is(err, blobstore.ErrFileTooLarge) {
			return nil, errors.NewValidation(err.Error(), nil)
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to store prescription: %w", err))
	}

	rx := &model.PrescriptionUpload{
		DoctorID:      doctor.ID,
		PatientID:     patientID,
		AppointmentID: appt.ID,
		FilePath:      key,
	}
	if err := s.prescriptions.Create(ctx, rx); err != nil {
		s.metrics.Uploads.WithLabelValues(uploadKind, "error").Inc()
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Warn().Err(derr).Str("key", key).Msg("failed to remove orphaned prescription file")
		}
		return nil, err
	}

	s.metrics.Uploads.WithLabelValues(uploadKind, "ok").Inc()
	s.logger.Info().
		Str("prescription_id", rx.ID.String()).
		Str("appointment_id", appt.ID.String()).
		Msg("prescription uploaded")

	return &model.PrescriptionUploadResponse{PrescriptionID: rx.ID, FileURL: locator}, nil
}

func (s *Service) owned(ctx context.Context, p model.Principal, id uuid.UUID, action access.Action) (*model.PrescriptionUpload, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	rx, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(doctor, rx, action).Err(); err != nil {
		return nil, err
	}
	rx.FileURL = s.blobs.URL(rx.FilePath)
	return rx, nil
}

func (s *Service) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.PrescriptionUpload, error) {
	return s.owned(ctx, p, id, access.ActionRead)
}

// Open streams the stored file. The caller closes the reader.
func (s *Service) Open(ctx context.Context, p model.Principal, id uuid.UUID) (*model.PrescriptionUpload, io.ReadCloser, error) {
	rx, err := s.owned(ctx, p, id, access.ActionRead)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.blobs.Open(ctx, rx.FilePath)
	if err != nil {
		if stderrors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, nil, errors.NewNotFound("prescription file", err)
		}
		return nil, nil, errors.NewInternal(err)
	}
	return rx, r, nil
}

// Delete removes the file and then the row. A file that is already gone
// does not stop the row from being deleted.
func (s *Service) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	rx, err := s.owned(ctx, p, id, access.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, rx.FilePath); err != nil && !stderrors.Is(err, blobstore.ErrBlobNotFound) {
		return errors.NewInternal(fmt.Errorf("failed to delete prescription file: %w", err))
	}
	if err := s.prescriptions.Delete(ctx, rx.ID); err != nil {
		return err
	}

	s.logger.Info().Str("prescription_id", rx.ID.String()).Msg("prescription deleted")
	return nil
}
