package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository/mocks"
	"github.com/jwalitptl/doctor-api/pkg/auth"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/security"
)

func newService(users *mocks.UserRepository) *Service {
	return NewService(
		users,
		auth.NewJWTService("test-secret", "doctor-api", time.Hour),
		security.NewBcryptHasher(bcrypt.MinCost),
		time.Hour,
	)
}

func TestRegisterHashesPassword(t *testing.T) {
	users := &mocks.UserRepository{}
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	svc := newService(users)

	user, err := svc.Register(context.Background(), " admin ", "Admin@Example.com", "supersecret", true)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.IsAdmin)
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	users.AssertExpectations(t)
}

func TestNewUserRejectsShortPassword(t *testing.T) {
	_, err := newService(&mocks.UserRepository{}).NewUser("drgrey", "g@example.com", "short", false)
	assert.True(t, errors.IsValidation(err))
}

func TestLoginIssuesToken(t *testing.T) {
	users := &mocks.UserRepository{}
	svc := newService(users)

	user, err := svc.NewUser("drgrey", "g@example.com", "supersecret", false)
	require.NoError(t, err)
	user.ID = uuid.New()
	users.On("GetByUsername", mock.Anything, "drgrey").Return(user, nil)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{Username: "drgrey", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	principal, err := svc.Authenticate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.False(t, principal.IsAdmin)
}

func TestLoginWrongPassword(t *testing.T) {
	users := &mocks.UserRepository{}
	svc := newService(users)

	user, err := svc.NewUser("drgrey", "g@example.com", "supersecret", false)
	require.NoError(t, err)
	users.On("GetByUsername", mock.Anything, "drgrey").Return(user, nil)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Username: "drgrey", Password: "wrong-password"})
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
}

func TestLoginUnknownUser(t *testing.T) {
	users := &mocks.UserRepository{}
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, errors.NewNotFound("user", nil))

	_, err := newService(users).Login(context.Background(), &model.LoginRequest{Username: "ghost", Password: "whatever1"})
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	_, err := newService(&mocks.UserRepository{}).Authenticate("not-a-token")
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
}
