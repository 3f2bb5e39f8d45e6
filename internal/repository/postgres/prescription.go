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

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, rx *model.PrescriptionUpload) error {
	query := `
		INSERT INTO prescription_uploads (
			id, doctor_id, patient_id, appointment_id, file_path, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	if rx.ID == uuid.Nil {
		rx.ID = uuid.New()
	}
	rx.UploadedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		rx.ID,
		rx.DoctorID,
		rx.PatientID,
		rx.AppointmentID,
		rx.FilePath,
		rx.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionUpload, error) {
	query := `
		SELECT id, doctor_id, patient_id, appointment_id, file_path, uploaded_at
		FROM prescription_uploads
		WHERE id = $1
	`
	var rx model.PrescriptionUpload
	if err := r.db.GetContext(ctx, &rx, query, id); err != nil {
		return nil, notFoundOr(err, "prescription", "get prescription")
	}
	return &rx, nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM prescription_uploads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("prescription", nil)
	}
	return nil
}
