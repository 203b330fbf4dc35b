package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/store"
)

func seedUser(t *testing.T, q *fakeQueries, email, password, role string) {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	_, err = q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
	})
	require.NoError(t, err)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	seedUser(t, q, "asha@example.com", "supersecret", RoleCustomer)
	result, err := svc.Login(context.Background(), "asha@example.com", "supersecret")
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+result.Tokens.AccessToken)
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	svc := newTestService(t, q)
	seedUser(t, q, "asha@example.com", "supersecret", RoleCustomer)
	seedUser(t, q, "admin@example.com", "supersecret", RoleAdmin)

	customer, err := svc.Login(context.Background(), "asha@example.com", "supersecret")
	require.NoError(t, err)
	admin, err := svc.Login(context.Background(), "admin@example.com", "supersecret")
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := mw.RequireRole(RoleAdmin)(next)

	req := httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+customer.Tokens.AccessToken)
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+admin.Tokens.AccessToken)
	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
