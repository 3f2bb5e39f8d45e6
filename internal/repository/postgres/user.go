package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/internal/repository"
	"github.com/jwalitptl/doctor-api/pkg/errors"
)

// duplicateMessages maps unique constraints onto client facing messages.
var duplicateMessages = map[string]string{
	"users_username_key":  "a user with this username already exists",
	"users_email_key":     "a user with this email already exists",
	"doctors_email_key":   "a doctor with this email already exists",
	"doctors_mobile_key":  "a doctor with this mobile number already exists",
	"doctors_reg_id_key":  "a doctor with this registration id already exists",
	"doctors_user_id_key": "this user is already registered as a doctor",
}

func duplicateError(err error) (error, bool) {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return nil, false
	}
	msg, known := duplicateMessages[constraint]
	if !known {
		msg = "record already exists"
	}
	return errors.NewValidation(msg, nil), true
}

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const insertUser = `
	INSERT INTO users (id, username, email, password_hash, is_admin, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func execInsertUser(ctx context.Context, ext sqlx.ExecerContext, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := ext.ExecContext(ctx, insertUser,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
	)
	if err != nil {
		if dupErr, ok := duplicateError(err); ok {
			return dupErr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return execInsertUser(ctx, r.db, user)
}

const selectUser = `
	SELECT id, username, email, password_hash, is_admin, created_at
	FROM users
`

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, selectUser+" WHERE id = $1", id); err != nil {
		return nil, notFoundOr(err, "user", "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, selectUser+" WHERE username = $1", username); err != nil {
		return nil, notFoundOr(err, "user", "get user by username")
	}
	return &user, nil
}
