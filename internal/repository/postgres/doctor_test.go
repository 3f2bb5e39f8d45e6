package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

var doctorCols = []string{
	"id", "user_id", "name", "email", "mobile", "specialty", "clinic_address", "reg_id",
	"govt_id_path", "medical_certificate_path", "status", "created_at", "updated_at",
}

func TestDoctorCreateWithUser(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewDoctorRepository(base)

	user := &model.User{Username: "drgrey", Email: "grey@example.com", PasswordHash: "hash"}
	doctor := &model.Doctor{Name: "Meredith Grey", Email: "grey@example.com", Mobile: "555", Specialty: "surgery", RegID: "R-1"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "drgrey", "grey@example.com", "hash", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO doctors").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithUser(context.Background(), user, doctor))
	assert.Equal(t, user.ID, doctor.UserID)
	assert.Equal(t, model.DoctorStatusPending, doctor.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorCreateWithUserDuplicateRollsBack(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewDoctorRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO doctors").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "doctors_reg_id_key"})
	mock.ExpectRollback()

	err := repo.CreateWithUser(context.Background(), &model.User{}, &model.Doctor{})
	assert.True(t, errors.IsValidation(err))
	assert.EqualError(t, err, "a doctor with this registration id already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorReview(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewDoctorRepository(base)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $3 AND status = 'pending'")).
		WithArgs(model.DoctorStatusApproved, sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(doctorCols).AddRow(
			id.String(), uuid.NewString(), "Grey", "grey@example.com", "555", "surgery", nil, "R-1",
			"doctor_documents/govt_id/a.pdf", "doctor_documents/medical_certificate/b.pdf",
			"approved", time.Now(), time.Now(),
		))

	doctor, err := repo.Review(context.Background(), id, model.DoctorStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.DoctorStatusApproved, doctor.Status)
	assert.Nil(t, doctor.ClinicAddress)
}

func TestDoctorReviewNotPending(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewDoctorRepository(base)

	mock.ExpectQuery("UPDATE doctors").WillReturnRows(sqlmock.NewRows(doctorCols))

	_, err := repo.Review(context.Background(), uuid.New(), model.DoctorStatusRejected)
	assert.True(t, errors.IsNotFound(err))
	assert.EqualError(t, err, "doctor not found or not pending")
}

func TestDoctorGetByUserIDMissing(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewDoctorRepository(base)

	mock.ExpectQuery("FROM doctors WHERE user_id").WillReturnRows(sqlmock.NewRows(doctorCols))

	_, err := repo.GetByUserID(context.Background(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}
