package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// date and time are rendered by postgres so they round trip as the
// YYYY-MM-DD and HH:MM strings the API speaks.
const appointmentColumns = `
	id, doctor_id, patient_id,
	to_char(date, 'YYYY-MM-DD') AS date,
	to_char(time, 'HH24:MI') AS time,
	mode, status, rejection_reason, created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, date, time, mode, status,
			rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now().UTC()
	appointment.ID = uuid.New()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.Mode,
		appointment.Status,
		appointment.RejectionReason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := "SELECT " + appointmentColumns + " FROM appointments WHERE id = $1"

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, notFoundOr(err, "appointment", "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET date = $1, time = $2, mode = $3, status = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $7
	`
	appointment.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Mode,
		appointment.Status,
		appointment.RejectionReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := "SELECT " + appointmentColumns + " FROM appointments WHERE doctor_id = $1"
	args := []interface{}{doctorID}

	if filters != nil && filters.Date != "" {
		args = append(args, filters.Date)
		query += fmt.Sprintf(" AND date = $%d", len(args))
	}
	if filters != nil && filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if filters != nil && filters.Ordering == "-date" {
		query += " ORDER BY date DESC, time DESC"
	} else {
		query += " ORDER BY date, time"
	}

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) AddNote(ctx context.Context, note *model.MedicalNote) error {
	query := `
		INSERT INTO medical_notes (id, appointment_id, notes, created_at)
		VALUES ($1, $2, $3, $4)
	`
	note.ID = uuid.New()
	note.CreatedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, query, note.ID, note.AppointmentID, note.Notes, note.CreatedAt); err != nil {
		return fmt.Errorf("failed to add medical note: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListNotes(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalNote, error) {
	query := `
		SELECT id, appointment_id, notes, created_at
		FROM medical_notes
		WHERE appointment_id = $1
		ORDER BY created_at
	`
	notes := []*model.MedicalNote{}
	if err := r.db.SelectContext(ctx, &notes, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list medical notes: %w", err)
	}
	return notes, nil
}
