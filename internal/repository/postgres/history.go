package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
)

type historyRepository struct {
	BaseRepository
}

func NewHistoryRepository(base BaseRepository) repository.HistoryRepository {
	return &historyRepository{base}
}

// ReadAudited holds a share lock on the consent row while reading, so a
// concurrent revocation commits either before the check or after the audit
// row. Any failure, including the audit insert, rolls back the whole read.
func (r *historyRepository) ReadAudited(
	ctx context.Context,
	doctorID, patientID uuid.UUID,
	entry *model.AccessLog,
	authorize func(granted bool) error,
) (*model.PatientHistory, error) {
	var history model.PatientHistory

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		granted, err := grantedForShare(ctx, tx, doctorID, patientID)
		if err != nil {
			return err
		}
		if err := authorize(granted); err != nil {
			return err
		}

		query := `
			SELECT id, patient_id, reports, vitals, prescriptions, visits, flags,
				   created_at, updated_at
			FROM patient_histories
			WHERE patient_id = $1
		`
		if err := tx.GetContext(ctx, &history, query, patientID); err != nil {
			return notFoundOr(err, "patient history", "get patient history")
		}

		entry.PatientID = patientID
		return insertAccessLog(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// insertAccessLog is the only write path into access_logs.
func insertAccessLog(ctx context.Context, tx *sqlx.Tx, entry *model.AccessLog) error {
	query := `
		INSERT INTO access_logs (id, user_id, patient_id, action, accessed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	entry.ID = uuid.New()
	if entry.Action == "" {
		entry.Action = model.AccessActionViewed
	}
	entry.AccessedAt = time.Now().UTC()

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.PatientID,
		entry.Action,
		entry.AccessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write access log: %w", err)
	}
	return nil
}
