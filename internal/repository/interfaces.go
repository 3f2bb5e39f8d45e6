package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/model"
)

// All repository interfaces in one file. Lookups of a missing row return a
// NotFound AppError; unique violations return Validation or Conflict errors.
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
	}

	DoctorRepository interface {
		// CreateWithUser inserts the login and the doctor in one transaction.
		CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		ListByStatus(ctx context.Context, status model.DoctorStatus) ([]*model.Doctor, error)
		// Review moves a pending doctor to status. A doctor that is missing or
		// no longer pending yields NotFound.
		Review(ctx context.Context, id uuid.UUID, status model.DoctorStatus) (*model.Doctor, error)
	}

	ProfileRepository interface {
		GetByDoctorID(ctx context.Context, doctorID uuid.UUID) (*model.DoctorProfile, error)
		ListByDoctorIDs(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID]*model.DoctorProfile, error)
		Upsert(ctx context.Context, profile *model.DoctorProfile) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		AddNote(ctx context.Context, note *model.MedicalNote) error
		ListNotes(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalNote, error)
	}

	ConsentRepository interface {
		// Create fails with Conflict when the (doctor, patient) pair exists.
		Create(ctx context.Context, consent *model.Consent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consent, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consent, error)
		IsGranted(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
		// Transition locks the row, hands the committed state to apply and
		// persists the status apply leaves on it.
		Transition(ctx context.Context, id uuid.UUID, apply func(c *model.Consent) error) (*model.Consent, error)
	}

	HistoryRepository interface {
		// ReadAudited checks consent, reads the history and appends the
		// access log row in one transaction. authorize receives whether a
		// granted consent exists; an error from it aborts the read.
		ReadAudited(ctx context.Context, doctorID, patientID uuid.UUID, entry *model.AccessLog, authorize func(granted bool) error) (*model.PatientHistory, error)
	}

	AccessLogRepository interface {
		List(ctx context.Context, filter *model.AccessLogFilter) ([]*model.AccessLog, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, rx *model.PrescriptionUpload) error
		Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionUpload, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}
)
