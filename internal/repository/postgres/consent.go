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

type consentRepository struct {
	BaseRepository
}

func NewConsentRepository(base BaseRepository) repository.ConsentRepository {
	return &consentRepository{base}
}

const consentColumns = "id, doctor_id, patient_id, status, created_at, updated_at"

// Create leans on the unique (doctor_id, patient_id) index; a second
// request for the pair fails whatever the first one's status is.
func (r *consentRepository) Create(ctx context.Context, consent *model.Consent) error {
	query := `
		INSERT INTO consents (id, doctor_id, patient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()
	consent.ID = uuid.New()
	consent.Status = model.ConsentStatusPending
	consent.CreatedAt = now
	consent.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		consent.ID,
		consent.DoctorID,
		consent.PatientID,
		consent.Status,
		consent.CreatedAt,
		consent.UpdatedAt,
	)
	if err != nil {
		if _, dup := uniqueConstraint(err); dup {
			return errors.NewConflict("consent request for this patient and doctor already exists", nil)
		}
		return fmt.Errorf("failed to create consent: %w", err)
	}
	return nil
}

func (r *consentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consent, error) {
	var consent model.Consent
	query := "SELECT " + consentColumns + " FROM consents WHERE id = $1"
	if err := r.db.GetContext(ctx, &consent, query, id); err != nil {
		return nil, notFoundOr(err, "consent", "get consent")
	}
	return &consent, nil
}

func (r *consentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consent, error) {
	query := "SELECT " + consentColumns + " FROM consents WHERE doctor_id = $1 ORDER BY created_at DESC"

	consents := []*model.Consent{}
	if err := r.db.SelectContext(ctx, &consents, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	return consents, nil
}

func (r *consentRepository) IsGranted(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consents
			WHERE doctor_id = $1 AND patient_id = $2 AND status = 'granted'
		)
	`
	var granted bool
	if err := r.db.GetContext(ctx, &granted, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check consent: %w", err)
	}
	return granted, nil
}

// Transition serialises resolutions of the same consent on the row lock, so
// apply always sees the status committed by any earlier resolution.
func (r *consentRepository) Transition(ctx context.Context, id uuid.UUID, apply func(c *model.Consent) error) (*model.Consent, error) {
	var consent model.Consent

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := "SELECT " + consentColumns + " FROM consents WHERE id = $1 FOR UPDATE"
		if err := tx.GetContext(ctx, &consent, query, id); err != nil {
			return notFoundOr(err, "consent", "lock consent")
		}

		if err := apply(&consent); err != nil {
			return err
		}

		consent.UpdatedAt = time.Now().UTC()
		_, err := tx.ExecContext(ctx,
			"UPDATE consents SET status = $1, updated_at = $2 WHERE id = $3",
			consent.Status, consent.UpdatedAt, consent.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update consent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &consent, nil
}

// grantedForShare reports whether the pair has a granted consent, holding a
// share lock on the row until the surrounding transaction ends.
func grantedForShare(ctx context.Context, tx *sqlx.Tx, doctorID, patientID uuid.UUID) (bool, error) {
	var status model.ConsentStatus
	query := "SELECT status FROM consents WHERE doctor_id = $1 AND patient_id = $2 FOR SHARE"
	if err := tx.GetContext(ctx, &status, query, doctorID, patientID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check consent: %w", err)
	}
	return status == model.ConsentStatusGranted, nil
}
