package reviews

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/store"
)

type fakeQueries struct {
	reviews map[string]store.Review
}

func rkey(productID, userID pgtype.UUID) string {
	return store.UUIDString(productID) + "/" + store.UUIDString(userID)
}

func (f *fakeQueries) UpsertReview(_ context.Context, productID, userID pgtype.UUID, rating int32, comment pgtype.Text) (store.Review, error) {
	r := store.Review{
		ID:        store.NewUUID(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if existing, ok := f.reviews[rkey(productID, userID)]; ok {
		r.ID = existing.ID
	}
	f.reviews[rkey(productID, userID)] = r
	return r, nil
}

func (f *fakeQueries) ListReviewsByProduct(_ context.Context, productID pgtype.UUID, _, _ int32) ([]store.Review, error) {
	var out []store.Review
	for _, r := range f.reviews {
		if store.UUIDEqual(r.ProductID, productID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeQueries) GetReviewStats(_ context.Context, productID pgtype.UUID) (store.ReviewStats, error) {
	var stats store.ReviewStats
	var sum int64
	for _, r := range f.reviews {
		if store.UUIDEqual(r.ProductID, productID) {
			stats.Count++
			sum += int64(r.Rating)
		}
	}
	if stats.Count > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

func (f *fakeQueries) DeleteReview(_ context.Context, id, userID pgtype.UUID) error {
	for k, r := range f.reviews {
		if store.UUIDEqual(r.ID, id) && store.UUIDEqual(r.UserID, userID) {
			delete(f.reviews, k)
		}
	}
	return nil
}

func TestSubmitValidatesRating(t *testing.T) {
	t.Parallel()
	svc := &Service{Q: &fakeQueries{reviews: map[string]store.Review{}}}
	ctx := context.Background()

	_, err := svc.Submit(ctx, store.NewUUID(), store.NewUUID(), 0, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Submit(ctx, store.NewUUID(), store.NewUUID(), 6, "")
	require.ErrorIs(t, err, ErrInvalidRating)

	long := make([]byte, maxCommentLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Submit(ctx, store.NewUUID(), store.NewUUID(), 4, string(long))
	require.ErrorIs(t, err, ErrCommentTooLong)
}

func TestSubmitReplacesPreviousReview(t *testing.T) {
	t.Parallel()
	q := &fakeQueries{reviews: map[string]store.Review{}}
	svc := &Service{Q: q}
	ctx := context.Background()
	productID := store.NewUUID()
	userID := store.NewUUID()

	first, err := svc.Submit(ctx, productID, userID, 3, "fine")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, productID, userID, 5, "actually great")
	require.NoError(t, err)
	require.True(t, store.UUIDEqual(first.ID, second.ID))

	stats, err := svc.Stats(ctx, productID)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Count)
	require.EqualValues(t, 5, stats.AverageRating)
}
