package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

type fakeQueries struct {
	users    map[string]store.User
	sessions map[string]store.Session
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		users:    map[string]store.User{},
		sessions: map[string]store.Session{},
	}
}

func (f *fakeQueries) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	if _, exists := f.users[arg.Email]; exists {
		return store.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := store.User{
		ID:           store.NewUUID(),
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		Phone:        arg.Phone,
		Role:         arg.Role,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.users[arg.Email] = u
	return u, nil
}

func (f *fakeQueries) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	for _, u := range f.users {
		if store.UUIDEqual(u.ID, id) {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func (f *fakeQueries) CreateSession(_ context.Context, arg store.CreateSessionParams) (store.Session, error) {
	s := store.Session{
		ID:               store.NewUUID(),
		UserID:           arg.UserID,
		RefreshTokenHash: arg.RefreshTokenHash,
		ExpiresAt:        arg.ExpiresAt,
		CreatedAt:        pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.sessions[arg.RefreshTokenHash] = s
	return s, nil
}

func (f *fakeQueries) GetSessionByTokenHash(_ context.Context, hash string) (store.Session, error) {
	s, ok := f.sessions[hash]
	if !ok {
		return store.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeQueries) RotateSessionToken(_ context.Context, id pgtype.UUID, hash string, expiresAt pgtype.Timestamptz) (store.Session, error) {
	for old, s := range f.sessions {
		if store.UUIDEqual(s.ID, id) {
			delete(f.sessions, old)
			s.RefreshTokenHash = hash
			s.ExpiresAt = expiresAt
			f.sessions[hash] = s
			return s, nil
		}
	}
	return store.Session{}, pgx.ErrNoRows
}

func (f *fakeQueries) DeleteSessionByTokenHash(_ context.Context, hash string) error {
	delete(f.sessions, hash)
	return nil
}

func (f *fakeQueries) DeleteSessionsByUser(_ context.Context, userID pgtype.UUID) error {
	for hash, s := range f.sessions {
		if store.UUIDEqual(s.UserID, userID) {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func newTestService(t *testing.T, q Queries) *Service {
	t.Helper()
	svc, err := NewService(Config{Queries: q, Secret: "test-secret"})
	require.NoError(t, err)
	return svc
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Asha Rao", "Asha@Example.com ", "9876500000", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", user.Email)
	require.Equal(t, RoleCustomer, user.Role)

	_, err = svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)

	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)

	subject, role, err := svc.ParseAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)
	require.Equal(t, RoleCustomer, role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha@example.com", "wrongpassword")
	require.Error(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, result.Tokens.RefreshToken, rotated.RefreshToken)

	// The old token is gone after rotation.
	_, err = svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.Error(t, err)

	// The rotated token still works.
	again, err := svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, again.AccessToken)
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Tokens.RefreshToken))
	_, err = svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.Error(t, err)

	require.NoError(t, svc.Logout(ctx, ""))
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, _, err = svc.ParseAccessToken(result.Tokens.AccessToken)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsTampered(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha Rao", "asha@example.com", "", "supersecret")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)

	other, err := NewService(Config{Queries: q, Secret: "different-secret"})
	require.NoError(t, err)
	_, _, err = other.ParseAccessToken(result.Tokens.AccessToken)
	require.Error(t, err)

	_, _, err = svc.ParseAccessToken("")
	require.Error(t, err)
	_, _, err = svc.ParseAccessToken("not.a.jwt")
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	ctx := context.Background()

	cases := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "a@example.com", "supersecret"},
		{"missing email", "Asha", "", "supersecret"},
		{"bad email", "Asha", "not-an-email", "supersecret"},
		{"short password", "Asha", "a@example.com", "short"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Register(ctx, tc.userName, tc.email, "", tc.password)
			require.Error(t, err)
		})
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := NewService(Config{Secret: "x"})
	require.Error(t, err)
	_, err = NewService(Config{Queries: newFakeQueries()})
	require.Error(t, err)
}
