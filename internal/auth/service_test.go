package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockAuthStore is a mock implementation of the Store interface.
type mockAuthStore struct {
	user           *User
	createUserErr  error
	findEmailErr   error
	findIDErr      error
	createTokenErr error
	findTokenErr   error
	deleteErr      error

	tokens  map[string]Token
	deleted []string
}

func (m *mockAuthStore) CreateUser(_ context.Context, name, email, passwordHash string) (*User, error) {
	if m.createUserErr != nil {
		return nil, m.createUserErr
	}
	m.user = &User{ID: uuid.New(), Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	return m.user, nil
}

func (m *mockAuthStore) FindUserByEmail(_ context.Context, _ string) (*User, error) {
	if m.findEmailErr != nil {
		return nil, m.findEmailErr
	}
	return m.user, nil
}

func (m *mockAuthStore) FindUserByID(_ context.Context, _ uuid.UUID) (*User, error) {
	if m.findIDErr != nil {
		return nil, m.findIDErr
	}
	return m.user, nil
}

func (m *mockAuthStore) CreateToken(_ context.Context, token Token) error {
	if m.createTokenErr != nil {
		return m.createTokenErr
	}
	if m.tokens == nil {
		m.tokens = make(map[string]Token)
	}
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthStore) FindToken(_ context.Context, token string) (*Token, error) {
	if m.findTokenErr != nil {
		return nil, m.findTokenErr
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &t, nil
}

func (m *mockAuthStore) DeleteToken(_ context.Context, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, token)
	delete(m.tokens, token)
	return nil
}

func (m *mockAuthStore) DeleteTokensByUser(_ context.Context, userID uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for value, t := range m.tokens {
		if t.UserID == userID {
			m.deleted = append(m.deleted, value)
			delete(m.tokens, value)
		}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *mockAuthStore) *Service {
	return NewService(store, time.Hour, bcrypt.MinCost, testLogger())
}

func Test_AuthService_Register(t *testing.T) {
	// given
	store := &mockAuthStore{}
	service := newTestService(store)

	// when
	session, err := service.Register(context.Background(), "Alice", "alice@example.com", "hunter2hunter2")

	// then
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.NotEqual(t, uuid.Nil, session.User.ID)

	// the password hash is stored, never the password
	assert.NotEqual(t, "hunter2hunter2", store.user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.user.PasswordHash), []byte("hunter2hunter2")))

	// the issued token is persisted with an expiry
	issued, ok := store.tokens[session.Token]
	require.True(t, ok)
	assert.Equal(t, store.user.ID, issued.UserID)
	assert.True(t, issued.ExpiresAt.After(time.Now()))
}

func Test_AuthService_Register_EmailTaken(t *testing.T) {
	// given
	store := &mockAuthStore{createUserErr: ErrEmailTaken}
	service := newTestService(store)

	// when
	session, err := service.Register(context.Background(), "Alice", "alice@example.com", "hunter2hunter2")

	// then
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, session)
}

func Test_AuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", PasswordHash: string(hashed), CreatedAt: time.Now()}

	testCases := []struct {
		name        string
		mockStore   *mockAuthStore
		password    string
		expectError error
	}{
		{
			name:      "Success - valid credentials",
			mockStore: &mockAuthStore{user: user},
			password:  "correct horse",
		},
		{
			name:        "Error - wrong password",
			mockStore:   &mockAuthStore{user: user},
			password:    "battery staple",
			expectError: ErrInvalidCredentials,
		},
		{
			name:        "Error - unknown email",
			mockStore:   &mockAuthStore{findEmailErr: ErrUserNotFound},
			password:    "correct horse",
			expectError: ErrInvalidCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := newTestService(tc.mockStore)
			// when
			session, err := service.Login(context.Background(), "alice@example.com", tc.password)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, session.Token)
			assert.Equal(t, user.ID, session.User.ID)
		})
	}
}

func Test_AuthService_UserByToken(t *testing.T) {
	// given
	store := &mockAuthStore{}
	service := newTestService(store)
	session, err := service.Register(context.Background(), "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// when
	user, err := service.UserByToken(context.Background(), session.Token)

	// then
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)
}

func Test_AuthService_UserByToken_Expired(t *testing.T) {
	// given: a token that expired an hour ago
	store := &mockAuthStore{
		tokens: map[string]Token{
			"stale": {Token: "stale", UserID: uuid.New(), ExpiresAt: time.Now().Add(-time.Hour)},
		},
	}
	service := newTestService(store)

	// when
	user, err := service.UserByToken(context.Background(), "stale")

	// then: rejected and deleted lazily
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, user)
	assert.Contains(t, store.deleted, "stale")
}

func Test_AuthService_UserByToken_Unknown(t *testing.T) {
	// given
	service := newTestService(&mockAuthStore{})

	// when
	user, err := service.UserByToken(context.Background(), "no-such-token")

	// then
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, user)
}

func Test_AuthService_Logout(t *testing.T) {
	// given: two live sessions for the same user
	store := &mockAuthStore{}
	service := newTestService(store)
	first, err := service.Register(context.Background(), "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	second, err := service.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// when: logging out with one of them
	require.NoError(t, service.Logout(context.Background(), first.Token))

	// then: every session of the user is revoked
	for _, token := range []string{first.Token, second.Token} {
		user, err := service.UserByToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, user)
	}
}

func Test_AuthService_Logout_UnknownToken(t *testing.T) {
	// given
	store := &mockAuthStore{}
	service := newTestService(store)
	session, err := service.Register(context.Background(), "Alice", "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// when
	err = service.Logout(context.Background(), "no-such-token")

	// then: nothing is revoked
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = service.UserByToken(context.Background(), session.Token)
	assert.NoError(t, err)
}

func Test_randomToken(t *testing.T) {
	// when
	first, err := randomToken()
	require.NoError(t, err)
	second, err := randomToken()
	require.NoError(t, err)

	// then: 32 random bytes, URL-safe, unique per call
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}
