// Package auth provides user registration, credential checks and opaque
// bearer tokens stored server-side.
package auth

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Token is an opaque bearer credential. Revocation is deletion.
type Token struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}
