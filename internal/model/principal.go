package model

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request. It is passed into
// every service call explicitly.
type Principal struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
