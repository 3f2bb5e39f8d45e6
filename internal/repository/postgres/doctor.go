package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

const doctorColumns = `
	id, user_id, name, email, mobile, specialty, clinic_address, reg_id,
	govt_id_path, medical_certificate_path, status, created_at, updated_at
`

func (r *doctorRepository) CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, name, email, mobile, specialty, clinic_address, reg_id,
			govt_id_path, medical_certificate_path, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := execInsertUser(ctx, tx, user); err != nil {
			return err
		}

		now := time.Now().UTC()
		doctor.ID = uuid.New()
		doctor.UserID = user.ID
		doctor.Status = model.DoctorStatusPending
		doctor.CreatedAt = now
		doctor.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			doctor.ID,
			doctor.UserID,
			doctor.Name,
			doctor.Email,
			doctor.Mobile,
			doctor.Specialty,
			doctor.ClinicAddress,
			doctor.RegID,
			doctor.GovtIDPath,
			doctor.MedicalCertificatePath,
			doctor.Status,
			doctor.CreatedAt,
			doctor.UpdatedAt,
		)
		if err != nil {
			if dupErr, ok := duplicateError(err); ok {
				return dupErr
			}
			return fmt.Errorf("failed to create doctor: %w", err)
		}
		return nil
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	query := "SELECT " + doctorColumns + " FROM doctors WHERE id = $1"
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, notFoundOr(err, "doctor", "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	query := "SELECT " + doctorColumns + " FROM doctors WHERE user_id = $1"
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		return nil, notFoundOr(err, "doctor", "get doctor by user")
	}
	return &doctor, nil
}

func (r *doctorRepository) ListByStatus(ctx context.Context, status model.DoctorStatus) ([]*model.Doctor, error) {
	query := "SELECT " + doctorColumns + " FROM doctors WHERE status = $1 ORDER BY created_at"

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, status); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// Review relies on the status predicate so that of two concurrent reviews
// only the first to commit matches a row.
func (r *doctorRepository) Review(ctx context.Context, id uuid.UUID, status model.DoctorStatus) (*model.Doctor, error) {
	query := `
		UPDATE doctors
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'
		RETURNING ` + doctorColumns

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, status, time.Now().UTC(), id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundMessage("doctor not found or not pending")
		}
		return nil, fmt.Errorf("failed to review doctor: %w", err)
	}
	return &doctor, nil
}
