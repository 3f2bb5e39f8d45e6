package postgres

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

var historyCols = []string{"id", "patient_id", "reports", "vitals", "prescriptions", "visits", "flags", "created_at", "updated_at"}

func requireGranted(granted bool) error {
	if !granted {
		return errors.NewForbidden("no granted consent")
	}
	return nil
}

func expectConsentShare(mock sqlmock.Sqlmock, doctorID, patientID uuid.UUID, status string) {
	rows := sqlmock.NewRows([]string{"status"})
	if status != "" {
		rows.AddRow(status)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM consents WHERE doctor_id = $1 AND patient_id = $2 FOR SHARE")).
		WithArgs(doctorID, patientID).
		WillReturnRows(rows)
}

func TestReadAuditedWritesOneLogRow(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewHistoryRepository(base)
	doctorID, patientID, userID := uuid.New(), uuid.New(), uuid.New()
	start := time.Now().UTC()

	mock.ExpectBegin()
	expectConsentShare(mock, doctorID, patientID, "granted")
	mock.ExpectQuery("FROM patient_histories").
		WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows(historyCols).AddRow(
			uuid.NewString(), patientID.String(),
			[]byte(`["r1"]`), []byte(`{"bp":"120/80"}`), []byte(`[]`), []byte(`[]`),
			[]byte(`{"conditions":["cancer"]}`), time.Now(), time.Now(),
		))
	mock.ExpectExec("INSERT INTO access_logs").
		WithArgs(sqlmock.AnyArg(), userID, patientID, model.AccessActionViewed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &model.AccessLog{UserID: userID}
	history, err := repo.ReadAudited(context.Background(), doctorID, patientID, entry, requireGranted)
	require.NoError(t, err)
	assert.Equal(t, patientID, history.PatientID)
	assert.Equal(t, 1, history.Summary().CriticalAlerts)
	assert.Equal(t, patientID, entry.PatientID)
	assert.False(t, entry.AccessedAt.Before(start))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadAuditedWithoutConsentWritesNothing(t *testing.T) {
	for _, status := range []string{"", "pending", "denied"} {
		t.Run(fmt.Sprintf("status=%q", status), func(t *testing.T) {
			base, mock := newMockBase(t)
			repo := NewHistoryRepository(base)
			doctorID, patientID := uuid.New(), uuid.New()

			mock.ExpectBegin()
			expectConsentShare(mock, doctorID, patientID, status)
			mock.ExpectRollback()

			_, err := repo.ReadAudited(context.Background(), doctorID, patientID, &model.AccessLog{UserID: uuid.New()}, requireGranted)
			assert.True(t, errors.IsForbidden(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReadAuditedMissingHistory(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewHistoryRepository(base)
	doctorID, patientID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectConsentShare(mock, doctorID, patientID, "granted")
	mock.ExpectQuery("FROM patient_histories").WillReturnRows(sqlmock.NewRows(historyCols))
	mock.ExpectRollback()

	_, err := repo.ReadAudited(context.Background(), doctorID, patientID, &model.AccessLog{UserID: uuid.New()}, requireGranted)
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadAuditedFailsWhenAuditFails(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewHistoryRepository(base)
	doctorID, patientID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectConsentShare(mock, doctorID, patientID, "granted")
	mock.ExpectQuery("FROM patient_histories").
		WillReturnRows(sqlmock.NewRows(historyCols).AddRow(
			uuid.NewString(), patientID.String(), []byte(`[]`), []byte(`{}`), []byte(`[]`), []byte(`[]`), []byte(`{}`), time.Now(), time.Now(),
		))
	mock.ExpectExec("INSERT INTO access_logs").WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	history, err := repo.ReadAudited(context.Background(), doctorID, patientID, &model.AccessLog{UserID: uuid.New()}, requireGranted)
	assert.Nil(t, history)
	assert.ErrorContains(t, err, "failed to write access log")
	assert.NoError(t, mock.ExpectationsWereMet())
}
