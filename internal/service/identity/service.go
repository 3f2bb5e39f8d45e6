// Package identity registers login accounts and exchanges credentials for
// bearer tokens.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/auth"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/security"
)

const tokenType = "Bearer"

var errInvalidCredentials = errors.NewUnauthorized("invalid credentials", nil)

type Service struct {
	users    repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	tokenTTL time.Duration
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		tokenTTL: tokenTTL,
	}
}

// NewUser builds an unsaved account with a hashed password. Onboarding
// persists it together with the doctor row.
func (s *Service) NewUser(username, email, password string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidation("username is required", nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if err == security.ErrPasswordTooShort {
			return nil, errors.NewValidation(err.Error(), nil)
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to hash password: %w", err))
	}

	return &model.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}, nil
}

// Register creates and stores a standalone account, used for administrators.
func (s *Service) Register(ctx context.Context, username, email, password string, isAdmin bool) (*model.User, error) {
	user, err := s.NewUser(username, email, password, isAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errInvalidCredentials
	}

	return s.IssueToken(user)
}

// IssueToken signs an access token for user.
func (s *Service) IssueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.LoginResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// Authenticate turns a bearer token into the calling principal.
func (s *Service) Authenticate(token string) (model.Principal, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Principal{}, errors.NewUnauthorized("invalid or expired token", err)
	}
	return model.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}
