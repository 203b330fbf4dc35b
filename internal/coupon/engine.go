package coupon

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no coupon matches the provided code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon is disabled or outside its window.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon validity window has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached indicates the coupon has exhausted the global quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrPerUserLimitReached indicates the caller exceeded the per-user allowance.
	ErrPerUserLimitReached = errors.New("coupon per-user usage limit reached")
	// ErrMinimumSpendUnmet indicates the cart subtotal did not meet the requirement.
	ErrMinimumSpendUnmet = errors.New("coupon minimum spend not met")
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code         string
	Discount     int64
	FreeDelivery bool
	MinSpend     int64
	UsageLimit   *int32
	UsedCount    int32
	PerUserLimit *int32
	PerUserUsed  int32
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool
}

// Normalize canonicalises a user-supplied coupon code for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate ensures the rule can be applied at the provided instant and cart subtotal.
func (r Rule) Validate(now time.Time, subtotal int64) error {
	if !r.Active {
		return ErrInactive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if subtotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.PerUserLimit != nil && *r.PerUserLimit > 0 && r.PerUserUsed >= *r.PerUserLimit {
		return ErrPerUserLimitReached
	}
	return nil
}
