package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-api/internal/access"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository/mocks"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/validator"
)

type fixture struct {
	svc      *Service
	profiles *mocks.ProfileRepository
	doctors  *mocks.DoctorRepository
	caller   model.Principal
	doctor   *model.Doctor
}

func newFixture(status model.DoctorStatus) *fixture {
	f := &fixture{
		profiles: &mocks.ProfileRepository{},
		doctors:  &mocks.DoctorRepository{},
		caller:   model.Principal{UserID: uuid.New(), Username: "drgrey"},
	}
	f.doctor = &model.Doctor{UserID: f.caller.UserID, Name: "Grey", Specialty: "surgery", Status: status}
	f.doctor.ID = uuid.New()
	f.doctors.On("GetByUserID", mock.Anything, f.caller.UserID).Return(f.doctor, nil).Maybe()

	f.svc = NewService(f.profiles, f.doctors, access.NewResolver(f.doctors), validator.New(),
		CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute}, zerolog.Nop())
	return f
}

func strPtr(s string) *string { return &s }

func TestUpsertCreatesProfileLazily(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	f.profiles.On("GetByDoctorID", mock.Anything, f.doctor.ID).Return(nil, errors.NewNotFound("profile", nil))
	f.profiles.On("Upsert", mock.Anything, mock.AnythingOfType("*model.DoctorProfile")).Return(nil)

	fees := 300.0
	view, err := f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{
		Bio:         strPtr("Trauma surgeon"),
		Specialties: &model.StringList{"surgery"},
		Languages:   &model.StringList{"en"},
		Fees:        &fees,
	})
	require.NoError(t, err)
	assert.Equal(t, 66.67, view.CompletenessPercentage)

	saved := f.profiles.Calls[1].Arguments.Get(1).(*model.DoctorProfile)
	assert.Equal(t, f.doctor.ID, saved.DoctorID)
}

func TestUpsertKeepsUntouchedFields(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	existing := &model.DoctorProfile{DoctorID: f.doctor.ID, Bio: strPtr("old"), Languages: model.StringList{"en", "fr"}}
	f.profiles.On("GetByDoctorID", mock.Anything, f.doctor.ID).Return(existing, nil)
	f.profiles.On("Upsert", mock.Anything, existing).Return(nil)

	view, err := f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{Bio: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", *view.Bio)
	assert.Equal(t, model.StringList{"en", "fr"}, view.Languages)
}

func TestUpsertRequiresCertificationFields(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)

	_, err := f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{
		Certifications: &model.Certifications{{Name: "ACLS"}},
	})
	assert.True(t, errors.IsValidation(err))
	f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUpsertRejectsNegativeFees(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	fees := -1.0

	_, err := f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{Fees: &fees})
	assert.True(t, errors.IsValidation(err))
}

func TestUpsertRequiresApproval(t *testing.T) {
	f := newFixture(model.DoctorStatusPending)

	_, err := f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{})
	assert.True(t, errors.IsForbidden(err))
	assert.EqualError(t, err, "not approved")
}

func TestGetWithoutProfile(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	f.profiles.On("GetByDoctorID", mock.Anything, f.doctor.ID).Return(nil, errors.NewNotFound("profile", nil))

	view, err := f.svc.Get(context.Background(), f.caller)
	require.NoError(t, err)
	assert.Zero(t, view.CompletenessPercentage)
}

func TestGetPublicHidesUnapproved(t *testing.T) {
	f := newFixture(model.DoctorStatusPending)
	f.doctors.On("Get", mock.Anything, f.doctor.ID).Return(f.doctor, nil)

	_, err := f.svc.GetPublic(context.Background(), f.doctor.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetPublicIsCachedUntilProfileUpdate(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	f.doctors.On("Get", mock.Anything, f.doctor.ID).Return(f.doctor, nil)
	f.profiles.On("GetByDoctorID", mock.Anything, f.doctor.ID).Return(nil, errors.NewNotFound("profile", nil))
	f.profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	first, err := f.svc.GetPublic(context.Background(), f.doctor.ID)
	require.NoError(t, err)
	assert.Nil(t, first.Profile)

	_, err = f.svc.GetPublic(context.Background(), f.doctor.ID)
	require.NoError(t, err)
	f.doctors.AssertNumberOfCalls(t, "Get", 1)

	_, err = f.svc.Upsert(context.Background(), f.caller, &model.ProfileUpdateRequest{Bio: strPtr("hello")})
	require.NoError(t, err)

	_, err = f.svc.GetPublic(context.Background(), f.doctor.ID)
	require.NoError(t, err)
	f.doctors.AssertNumberOfCalls(t, "Get", 2)
}

func TestListPublicAttachesProfiles(t *testing.T) {
	f := newFixture(model.DoctorStatusApproved)
	other := &model.Doctor{Name: "Shepherd", Status: model.DoctorStatusApproved}
	other.ID = uuid.New()
	profile := &model.DoctorProfile{DoctorID: f.doctor.ID, Bio: strPtr("bio")}

	f.doctors.On("ListByStatus", mock.Anything, model.DoctorStatusApproved).Return([]*model.Doctor{f.doctor, other}, nil)
	f.profiles.On("ListByDoctorIDs", mock.Anything, []uuid.UUID{f.doctor.ID, other.ID}).
		Return(map[uuid.UUID]*model.DoctorProfile{f.doctor.ID: profile}, nil)

	list, err := f.svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bio", *list[0].Profile.Bio)
	assert.Nil(t, list[1].Profile)
}
