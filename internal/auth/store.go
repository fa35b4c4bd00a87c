package auth

import (
	"context"

	"github.com/google/uuid"
)

// Store is an interface for user and token storage operations.
type Store interface {
	// CreateUser inserts a new user.
	// Returns ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// FindUserByEmail retrieves a user by email, password hash included.
	// Returns ErrUserNotFound if no such user exists.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// FindUserByID retrieves a user by ID.
	// Returns ErrUserNotFound if no such user exists.
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CreateToken persists a newly issued token.
	CreateToken(ctx context.Context, token Token) error

	// FindToken retrieves a token by its value.
	// Returns ErrInvalidToken if no such token exists.
	FindToken(ctx context.Context, token string) (*Token, error)

	// DeleteToken revokes a single token. Deleting an absent token is not an error.
	DeleteToken(ctx context.Context, token string) error

	// DeleteTokensByUser revokes every token issued to the user.
	DeleteTokensByUser(ctx context.Context, userID uuid.UUID) error
}
