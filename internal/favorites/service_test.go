package favorites

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/store"
)

type fakeQueries struct {
	saved map[string]bool
}

func key(userID, productID pgtype.UUID) string {
	return store.UUIDString(userID) + "/" + store.UUIDString(productID)
}

func (f *fakeQueries) AddFavorite(_ context.Context, userID, productID pgtype.UUID) error {
	f.saved[key(userID, productID)] = true
	return nil
}

func (f *fakeQueries) RemoveFavorite(_ context.Context, userID, productID pgtype.UUID) error {
	delete(f.saved, key(userID, productID))
	return nil
}

func (f *fakeQueries) CheckFavorite(_ context.Context, userID, productID pgtype.UUID) (bool, error) {
	if f.saved[key(userID, productID)] {
		return true, nil
	}
	return false, pgx.ErrNoRows
}

func (f *fakeQueries) ListFavorites(context.Context, pgtype.UUID) ([]store.Product, error) {
	return nil, nil
}

func TestToggle(t *testing.T) {
	t.Parallel()
	svc := &Service{Q: &fakeQueries{saved: map[string]bool{}}}
	ctx := context.Background()
	userID := store.NewUUID()
	productID := store.NewUUID()

	saved, err := svc.Check(ctx, userID, productID)
	require.NoError(t, err)
	require.False(t, saved)

	saved, err = svc.Toggle(ctx, userID, productID)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = svc.Check(ctx, userID, productID)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = svc.Toggle(ctx, userID, productID)
	require.NoError(t, err)
	require.False(t, saved)

	saved, err = svc.Check(ctx, userID, productID)
	require.NoError(t, err)
	require.False(t, saved)
}
