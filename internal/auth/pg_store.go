package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (s *PgStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	const q = `
INSERT INTO users (name, email, password_hash)
VALUES ($1, $2, $3)
RETURNING id, name, email, password_hash, created_at
`
	var u User
	err := s.db.QueryRow(ctx, q, name, email, passwordHash).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, ErrCreateUser
	}
	return &u, nil
}

func (s *PgStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, name, email, password_hash, created_at
FROM users
WHERE email = $1
`
	var u User
	err := s.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, ErrFailedToFindUser
	}
	return &u, nil
}

func (s *PgStore) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const q = `
SELECT id, name, email, password_hash, created_at
FROM users
WHERE id = $1
`
	var u User
	err := s.db.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, ErrFailedToFindUser
	}
	return &u, nil
}

func (s *PgStore) CreateToken(ctx context.Context, token Token) error {
	const q = `
INSERT INTO tokens (token, user_id, expires_at)
VALUES ($1, $2, $3)
`
	if _, err := s.db.Exec(ctx, q, token.Token, token.UserID, token.ExpiresAt); err != nil {
		return ErrCreateToken
	}
	return nil
}

func (s *PgStore) FindToken(ctx context.Context, token string) (*Token, error) {
	const q = `
SELECT token, user_id, expires_at, created_at
FROM tokens
WHERE token = $1
`
	var t Token
	err := s.db.QueryRow(ctx, q, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, ErrFailedToFindToken
	}
	return &t, nil
}

func (s *PgStore) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM tokens WHERE token = $1`, token); err != nil {
		return ErrDeleteToken
	}
	return nil
}

func (s *PgStore) DeleteTokensByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID); err != nil {
		return ErrDeleteToken
	}
	return nil
}
