// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/doctor-api/internal/model"
)

func errAt(args mock.Arguments, i int) error {
	return args.Error(i)
}

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, errAt(args, 1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, errAt(args, 1)
}

type DoctorRepository struct{ mock.Mock }

func (m *DoctorRepository) CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	return m.Called(ctx, user, doctor).Error(0)
}

func (m *DoctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.Doctor)
	return d, errAt(args, 1)
}

func (m *DoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(*model.Doctor)
	return d, errAt(args, 1)
}

func (m *DoctorRepository) ListByStatus(ctx context.Context, status model.DoctorStatus) ([]*model.Doctor, error) {
	args := m.Called(ctx, status)
	list, _ := args.Get(0).([]*model.Doctor)
	return list, errAt(args, 1)
}

func (m *DoctorRepository) Review(ctx context.Context, id uuid.UUID, status model.DoctorStatus) (*model.Doctor, error) {
	args := m.Called(ctx, id, status)
	d, _ := args.Get(0).(*model.Doctor)
	return d, errAt(args, 1)
}

type ProfileRepository struct{ mock.Mock }

func (m *ProfileRepository) GetByDoctorID(ctx context.Context, doctorID uuid.UUID) (*model.DoctorProfile, error) {
	args := m.Called(ctx, doctorID)
	p, _ := args.Get(0).(*model.DoctorProfile)
	return p, errAt(args, 1)
}

func (m *ProfileRepository) ListByDoctorIDs(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID]*model.DoctorProfile, error) {
	args := m.Called(ctx, doctorIDs)
	p, _ := args.Get(0).(map[uuid.UUID]*model.DoctorProfile)
	return p, errAt(args, 1)
}

func (m *ProfileRepository) Upsert(ctx context.Context, profile *model.DoctorProfile) error {
	return m.Called(ctx, profile).Error(0)
}

type AppointmentRepository struct{ mock.Mock }

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Appointment)
	return a, errAt(args, 1)
}

func (m *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, doctorID, filters)
	list, _ := args.Get(0).([]*model.Appointment)
	return list, errAt(args, 1)
}

func (m *AppointmentRepository) AddNote(ctx context.Context, note *model.MedicalNote) error {
	return m.Called(ctx, note).Error(0)
}

func (m *AppointmentRepository) ListNotes(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalNote, error) {
	args := m.Called(ctx, appointmentID)
	list, _ := args.Get(0).([]*model.MedicalNote)
	return list, errAt(args, 1)
}

type ConsentRepository struct{ mock.Mock }

func (m *ConsentRepository) Create(ctx context.Context, consent *model.Consent) error {
	return m.Called(ctx, consent).Error(0)
}

func (m *ConsentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consent, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.Consent)
	return c, errAt(args, 1)
}

func (m *ConsentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Consent, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]*model.Consent)
	return list, errAt(args, 1)
}

func (m *ConsentRepository) IsGranted(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, doctorID, patientID)
	return args.Bool(0), errAt(args, 1)
}

// Transition passes the configured consent to apply, standing in for the
// locked row.
func (m *ConsentRepository) Transition(ctx context.Context, id uuid.UUID, apply func(c *model.Consent) error) (*model.Consent, error) {
	args := m.Called(ctx, id)
	stored, _ := args.Get(0).(*model.Consent)
	if err := errAt(args, 1); err != nil {
		return nil, err
	}
	if err := apply(stored); err != nil {
		return nil, err
	}
	return stored, nil
}

type HistoryRepository struct{ mock.Mock }

// ReadAudited calls authorize with the configured grant flag before
// returning the configured history.
func (m *HistoryRepository) ReadAudited(ctx context.Context, doctorID, patientID uuid.UUID, entry *model.AccessLog, authorize func(granted bool) error) (*model.PatientHistory, error) {
	args := m.Called(ctx, doctorID, patientID, entry)
	if err := authorize(args.Bool(0)); err != nil {
		return nil, err
	}
	h, _ := args.Get(1).(*model.PatientHistory)
	return h, errAt(args, 2)
}

type AccessLogRepository struct{ mock.Mock }

func (m *AccessLogRepository) List(ctx context.Context, filter *model.AccessLogFilter) ([]*model.AccessLog, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]*model.AccessLog)
	return list, errAt(args, 1)
}

type PrescriptionRepository struct{ mock.Mock }

func (m *PrescriptionRepository) Create(ctx context.Context, rx *model.PrescriptionUpload) error {
	return m.Called(ctx, rx).Error(0)
}

func (m *PrescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionUpload, error) {
	args := m.Called(ctx, id)
	rx, _ := args.Get(0).(*model.PrescriptionUpload)
	return rx, errAt(args, 1)
}

func (m *PrescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
