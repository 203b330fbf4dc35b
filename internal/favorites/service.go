package favorites

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/store"
)

// Queries is the subset of the store the favourites feature needs.
type Queries interface {
	AddFavorite(ctx context.Context, userID, productID pgtype.UUID) error
	RemoveFavorite(ctx context.Context, userID, productID pgtype.UUID) error
	CheckFavorite(ctx context.Context, userID, productID pgtype.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID pgtype.UUID) ([]store.Product, error)
}

// Service manages a user's saved products.
type Service struct {
	Q Queries
}

// List returns the user's saved products, newest first.
func (s *Service) List(ctx context.Context, userID pgtype.UUID) ([]store.Product, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("favorites service not configured")
	}
	return s.Q.ListFavorites(ctx, userID)
}

// Toggle flips the saved state for a product and reports the new state.
func (s *Service) Toggle(ctx context.Context, userID, productID pgtype.UUID) (bool, error) {
	if s == nil || s.Q == nil {
		return false, errors.New("favorites service not configured")
	}
	saved, err := s.Check(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.Q.RemoveFavorite(ctx, userID, productID)
	}
	return true, s.Q.AddFavorite(ctx, userID, productID)
}

// Check reports whether the product is saved.
func (s *Service) Check(ctx context.Context, userID, productID pgtype.UUID) (bool, error) {
	if s == nil || s.Q == nil {
		return false, errors.New("favorites service not configured")
	}
	saved, err := s.Q.CheckFavorite(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return saved, nil
}
