package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/store"
)

var (
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	// ErrCommentTooLong bounds review comments.
	ErrCommentTooLong = errors.New("reviews: comment too long")
)

const maxCommentLen = 1000

// Queries is the subset of the store the reviews feature needs.
type Queries interface {
	UpsertReview(ctx context.Context, productID, userID pgtype.UUID, rating int32, comment pgtype.Text) (store.Review, error)
	ListReviewsByProduct(ctx context.Context, productID pgtype.UUID, limit, offset int32) ([]store.Review, error)
	GetReviewStats(ctx context.Context, productID pgtype.UUID) (store.ReviewStats, error)
	DeleteReview(ctx context.Context, id, userID pgtype.UUID) error
}

// Service manages product ratings. A user keeps at most one review per
// product; re-reviewing replaces the old one.
type Service struct {
	Q Queries
}

// Submit creates or replaces the user's review.
func (s *Service) Submit(ctx context.Context, productID, userID pgtype.UUID, rating int32, comment string) (store.Review, error) {
	if s == nil || s.Q == nil {
		return store.Review{}, errors.New("reviews service not configured")
	}
	if rating < 1 || rating > 5 {
		return store.Review{}, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLen {
		return store.Review{}, ErrCommentTooLong
	}
	return s.Q.UpsertReview(ctx, productID, userID, rating, store.TextOrNull(comment))
}

// List returns reviews for a product, newest first.
func (s *Service) List(ctx context.Context, productID pgtype.UUID, limit, offset int32) ([]store.Review, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("reviews service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListReviewsByProduct(ctx, productID, limit, offset)
}

// Stats returns the review count and average rating for a product.
func (s *Service) Stats(ctx context.Context, productID pgtype.UUID) (store.ReviewStats, error) {
	if s == nil || s.Q == nil {
		return store.ReviewStats{}, errors.New("reviews service not configured")
	}
	return s.Q.GetReviewStats(ctx, productID)
}

// Delete removes the user's own review.
func (s *Service) Delete(ctx context.Context, reviewID, userID pgtype.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("reviews service not configured")
	}
	return s.Q.DeleteReview(ctx, reviewID, userID)
}
