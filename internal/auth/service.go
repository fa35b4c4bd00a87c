package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService defines authentication operations. Identity is always passed in
// explicitly; there is no process-wide current user.
type AuthService interface {
	// Register creates a new user and issues a token for it.
	Register(ctx context.Context, name, email, password string) (*Session, error)

	// Login verifies credentials and issues a token.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Logout revokes every token issued to the presented token's user,
	// ending all of their sessions at once.
	Logout(ctx context.Context, token string) error

	// UserByToken resolves a bearer token to its user.
	// Returns ErrInvalidToken for unknown or expired tokens.
	UserByToken(ctx context.Context, token string) (*UserDto, error)
}

// Service implements AuthService.
type Service struct {
	store      Store
	tokenTTL   time.Duration
	bcryptCost int
	logger     *slog.Logger
}

// NewService creates a new auth Service. A bcryptCost of 0 falls back to the
// bcrypt default.
func NewService(store Store, tokenTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      store,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
		logger:     logger.With("component", "auth_service"),
	}
}

type UserDto struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
}

// Session is the result of a successful registration or login.
type Session struct {
	Token string  `json:"token"`
	User  UserDto `json:"user"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hashed))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.issueSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the caller.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	t, err := s.store.FindToken(ctx, token)
	if err != nil {
		return err
	}
	return s.store.DeleteTokensByUser(ctx, t.UserID)
}

func (s *Service) UserByToken(ctx context.Context, token string) (*UserDto, error) {
	t, err := s.store.FindToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if time.Now().After(t.ExpiresAt) {
		// Expired tokens are deleted lazily on first use.
		_ = s.store.DeleteToken(ctx, token)
		return nil, ErrInvalidToken
	}

	user, err := s.store.FindUserByID(ctx, t.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	dto := toUserDto(user)
	return &dto, nil
}

func (s *Service) issueSession(ctx context.Context, user *User) (*Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	err = s.store.CreateToken(ctx, Token{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: toUserDto(user)}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func toUserDto(u *User) UserDto {
	return UserDto{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
