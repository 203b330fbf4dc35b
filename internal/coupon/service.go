package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Queries is the subset of store operations the coupon service needs.
type Queries interface {
	GetCouponByCode(ctx context.Context, code string) (store.Coupon, error)
	CountRedemptionsByUser(ctx context.Context, couponID, userID pgtype.UUID) (int64, error)
	ListCoupons(ctx context.Context) ([]store.Coupon, error)
	CreateCoupon(ctx context.Context, arg store.CreateCouponParams) (store.Coupon, error)
	UpdateCoupon(ctx context.Context, arg store.UpdateCouponParams) (store.Coupon, error)
}

// Service validates coupon codes against the catalogue of stored rules.
type Service struct {
	Q   Queries
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve looks up a code, validates it for the user and subtotal, and returns
// the pricing-engine view of the coupon alongside the stored record.
func (s *Service) Resolve(ctx context.Context, code string, userID pgtype.UUID, subtotal int64) (pricing.Coupon, store.Coupon, error) {
	if s == nil || s.Q == nil {
		return pricing.Coupon{}, store.Coupon{}, errors.New("coupon service not configured")
	}
	normalized := Normalize(code)
	if normalized == "" {
		return pricing.Coupon{}, store.Coupon{}, ErrNotFound
	}
	record, err := s.Q.GetCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Coupon{}, store.Coupon{}, ErrNotFound
		}
		return pricing.Coupon{}, store.Coupon{}, fmt.Errorf("load coupon: %w", err)
	}

	rule := RuleFromRecord(record)
	if rule.PerUserLimit != nil && *rule.PerUserLimit > 0 && userID.Valid {
		used, err := s.Q.CountRedemptionsByUser(ctx, record.ID, userID)
		if err != nil {
			return pricing.Coupon{}, store.Coupon{}, fmt.Errorf("count redemptions: %w", err)
		}
		rule.PerUserUsed = int32(used)
	}
	if err := rule.Validate(s.now(), subtotal); err != nil {
		return pricing.Coupon{}, store.Coupon{}, err
	}
	return pricing.Coupon{
		Code:         record.Code,
		Discount:     record.Discount,
		FreeDelivery: record.FreeDelivery,
	}, record, nil
}

// RuleFromRecord maps a stored coupon row onto the validation rule.
func RuleFromRecord(c store.Coupon) Rule {
	rule := Rule{
		Code:         c.Code,
		Discount:     c.Discount,
		FreeDelivery: c.FreeDelivery,
		MinSpend:     c.MinSpend,
		UsedCount:    c.UsedCount,
		Active:       c.Active,
	}
	if c.UsageLimit.Valid {
		limit := c.UsageLimit.Int32
		rule.UsageLimit = &limit
	}
	if c.PerUserLimit.Valid {
		limit := c.PerUserLimit.Int32
		rule.PerUserLimit = &limit
	}
	if c.ValidFrom.Valid {
		from := c.ValidFrom.Time
		rule.ValidFrom = &from
	}
	if c.ValidTo.Valid {
		to := c.ValidTo.Time
		rule.ValidTo = &to
	}
	return rule
}
