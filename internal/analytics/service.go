package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Querier defines the database access required for analytics.
type Querier interface {
	GetSalesDailyRange(ctx context.Context, from, to pgtype.Timestamptz) ([]store.SalesDay, error)
	GetTopProducts(ctx context.Context, limit, offset int32) ([]store.TopProduct, error)
}

// Service provides cached access to admin sales analytics.
type Service struct {
	Q            Querier
	Cache        *cache.Cache
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) defaultRange() int {
	if s == nil || s.DefaultRange <= 0 {
		return 30
	}
	return s.DefaultRange
}

// SalesRange returns daily sales between from (inclusive) and to (exclusive).
// Zero bounds default to the configured trailing window ending today.
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]store.SalesDay, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if to.IsZero() {
		to = s.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.defaultRange())
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("analytics: from must precede to")
	}

	key := fmt.Sprintf("an:sales:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []store.SalesDay
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.GetSalesDailyRange(ctx,
		pgtype.Timestamptz{Time: from, Valid: true},
		pgtype.Timestamptz{Time: to, Valid: true})
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, key, rows)
	return rows, nil
}

// TopProducts returns best sellers by quantity sold.
func (s *Service) TopProducts(ctx context.Context, limit, offset int32) ([]store.TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := fmt.Sprintf("an:top:%d:%d", limit, offset)
	var cached []store.TopProduct
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.GetTopProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, key, rows)
	return rows, nil
}
