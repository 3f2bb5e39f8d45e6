package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

const (
	msgNoShowOnly       = "only status update to no-show is allowed"
	msgNoShowDedicated  = "status no-show can only be set through the no-show endpoint"
	msgRejectionReason  = "rejection_reason is required when status is rejected"
	msgInvalidOrdering  = "ordering must be date or -date"
	defaultMode         = model.AppointmentModeOnline
	defaultStatusOnSave = model.AppointmentStatusPending
)

type Service struct {
	appointments repository.AppointmentRepository
	resolver     *access.Resolver
	validator    validator.Validator
	logger       zerolog.Logger
}

func NewService(appointments repository.AppointmentRepository, resolver *access.Resolver, v validator.Validator, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		resolver:     resolver,
		validator:    v,
		logger:       logger.With().Str("service", "appointment").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, p model.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	status := model.AppointmentStatus(req.Status)
	if status == "" {
		status = defaultStatusOnSave
	}
	if err := checkStatus(status, req.RejectionReason); err != nil {
		return nil, err
	}

	patientID := uuid.New()
	if req.PatientID != "" {
		if patientID, err = uuid.Parse(req.PatientID); err != nil {
			return nil, errors.NewValidation("patient_id must be a valid UUID", err)
		}
	}

	mode := model.AppointmentMode(req.Mode)
	if mode == "" {
		mode = defaultMode
	}

	appt := &model.Appointment{
		DoctorID:  doctor.ID,
		PatientID: patientID,
		Date:      req.Date,
		Time:      req.Time,
		Mode:      mode,
		Status:    status,
	}
	if reason := strings.TrimSpace(req.RejectionReason); reason != "" {
		appt.RejectionReason = &reason
	}

	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Msg("appointment created")
	return appt, nil
}

// checkStatus enforces the rules shared by create and update. reason is the
// rejection reason sent in the same request.
func checkStatus(status model.AppointmentStatus, reason string) error {
	switch status {
	case model.AppointmentStatusNoShow:
		return errors.NewValidation(msgNoShowDedicated, nil)
	case model.AppointmentStatusRejected:
		if strings.TrimSpace(reason) == "" {
			return errors.NewValidation(msgRejectionReason, nil)
		}
	}
	return nil
}

// owned loads an appointment and applies the doctor and ownership tiers.
// Someone else's appointment is reported as missing.
func (s *Service) owned(ctx context.Context, p model.Principal, id uuid.UUID, action access.Action) (*model.Doctor, *model.Appointment, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := access.Authorize(doctor, appt, action).Err(); err != nil {
		return nil, nil, err
	}
	return doctor, appt, nil
}

// Update applies a partial update. Status may not become no-show here.
func (s *Service) Update(ctx context.Context, p model.Principal, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	_, appt, err := s.owned(ctx, p, id, access.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Status != nil {
		reason := ""
		if req.RejectionReason != nil {
			reason = *req.RejectionReason
		}
		if err := checkStatus(model.AppointmentStatus(*req.Status), reason); err != nil {
			return nil, err
		}
		appt.Status = model.AppointmentStatus(*req.Status)
	}
	if req.Date != nil {
		appt.Date = *req.Date
	}
	if req.Time != nil {
		appt.Time = *req.Time
	}
	if req.Mode != nil {
		appt.Mode = model.AppointmentMode(*req.Mode)
	}
	if req.RejectionReason != nil {
		if reason := strings.TrimSpace(*req.RejectionReason); reason != "" {
			appt.RejectionReason = &reason
		}
	}

	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// MarkNoShow accepts exactly {"status": "no-show"} and nothing else.
func (s *Service) MarkNoShow(ctx context.Context, p model.Principal, id uuid.UUID, fields map[string]interface{}) (*model.Appointment, error) {
	_, appt, err := s.owned(ctx, p, id, access.ActionUpdate)
	if err != nil {
		return nil, err
	}

	status, ok := fields["status"].(string)
	if len(fields) != 1 || !ok || model.AppointmentStatus(status) != model.AppointmentStatusNoShow {
		return nil, errors.NewValidation(msgNoShowOnly, nil)
	}

	appt.Status = model.AppointmentStatusNoShow
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", appt.ID.String()).Msg("appointment marked no-show")
	return appt, nil
}

func (s *Service) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Appointment, error) {
	_, appt, err := s.owned(ctx, p, id, access.ActionRead)
	return appt, err
}

func (s *Service) List(ctx context.Context, p model.Principal, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	doctor, err := s.resolver.ApprovedDoctor(ctx, p)
	if err != nil {
		return nil, err
	}
	if filters != nil {
		if filters.Date != "" {
			if err := s.validator.ValidateVar("date", filters.Date, "datetime=2006-01-02"); err != nil {
				return nil, err
			}
		}
		if filters.Status != "" {
			if err := s.validator.ValidateVar("status", filters.Status, "oneof=pending accepted rejected no-show"); err != nil {
				return nil, err
			}
		}
		switch filters.Ordering {
		case "", "date", "-date":
		default:
			return nil, errors.NewValidation(msgInvalidOrdering, nil)
		}
	}
	return s.appointments.ListByDoctor(ctx, doctor.ID, filters)
}

func (s *Service) AddNote(ctx context.Context, p model.Principal, id uuid.UUID, req *model.CreateNoteRequest) (*model.MedicalNote, error) {
	_, appt, err := s.owned(ctx, p, id, access.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, errors.NewValidation("notes is required", nil)
	}

	note := &model.MedicalNote{AppointmentID: appt.ID, Notes: req.Notes}
	if err := s.appointments.AddNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListNotes(ctx context.Context, p model.Principal, id uuid.UUID) ([]*model.MedicalNote, error) {
	_, appt, err := s.owned(ctx, p, id, access.ActionRead)
	if err != nil {
		return nil, err
	}
	return s.appointments.ListNotes(ctx, appt.ID)
}
