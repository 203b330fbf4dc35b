package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/store"
)

type mockQueries struct {
	coupons     map[string]store.Coupon
	redemptions map[string]int64
}

func (m *mockQueries) GetCouponByCode(_ context.Context, code string) (store.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return store.Coupon{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockQueries) CountRedemptionsByUser(_ context.Context, couponID, userID pgtype.UUID) (int64, error) {
	return m.redemptions[store.UUIDString(couponID)+":"+store.UUIDString(userID)], nil
}

func (m *mockQueries) ListCoupons(context.Context) ([]store.Coupon, error) { return nil, nil }
func (m *mockQueries) CreateCoupon(_ context.Context, _ store.CreateCouponParams) (store.Coupon, error) {
	return store.Coupon{}, nil
}
func (m *mockQueries) UpdateCoupon(_ context.Context, _ store.UpdateCouponParams) (store.Coupon, error) {
	return store.Coupon{}, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func activeCoupon(code string) store.Coupon {
	return store.Coupon{
		ID:       store.NewUUID(),
		Code:     code,
		Discount: 2000,
		MinSpend: 10000,
		Active:   true,
	}
}

func TestResolveNormalisesCode(t *testing.T) {
	t.Parallel()
	q := &mockQueries{coupons: map[string]store.Coupon{"SAVE20": activeCoupon("SAVE20")}}
	svc := &coupon.Service{Q: q, Now: fixedNow}

	applied, record, err := svc.Resolve(context.Background(), "  save20 ", store.NewUUID(), 15000)
	require.NoError(t, err)
	require.Equal(t, "SAVE20", applied.Code)
	require.Equal(t, int64(2000), applied.Discount)
	require.False(t, applied.FreeDelivery)
	require.Equal(t, "SAVE20", record.Code)
}

func TestResolveUnknownCode(t *testing.T) {
	t.Parallel()
	svc := &coupon.Service{Q: &mockQueries{coupons: map[string]store.Coupon{}}, Now: fixedNow}
	_, _, err := svc.Resolve(context.Background(), "NOPE", store.NewUUID(), 15000)
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestResolveFreeDeliveryCoupon(t *testing.T) {
	t.Parallel()
	c := activeCoupon("FREEDEL")
	c.Discount = 0
	c.FreeDelivery = true
	c.MinSpend = 0
	q := &mockQueries{coupons: map[string]store.Coupon{"FREEDEL": c}}
	svc := &coupon.Service{Q: q, Now: fixedNow}

	applied, _, err := svc.Resolve(context.Background(), "freedel", store.NewUUID(), 5000)
	require.NoError(t, err)
	require.True(t, applied.FreeDelivery)
	require.Zero(t, applied.Discount)
}

func TestResolveEnforcesPerUserLimit(t *testing.T) {
	t.Parallel()
	c := activeCoupon("ONCE")
	perUser := int32(1)
	c.PerUserLimit = pgtype.Int4{Int32: perUser, Valid: true}
	userID := store.NewUUID()
	q := &mockQueries{
		coupons: map[string]store.Coupon{"ONCE": c},
		redemptions: map[string]int64{
			store.UUIDString(c.ID) + ":" + store.UUIDString(userID): 1,
		},
	}
	svc := &coupon.Service{Q: q, Now: fixedNow}

	_, _, err := svc.Resolve(context.Background(), "ONCE", userID, 15000)
	require.ErrorIs(t, err, coupon.ErrPerUserLimitReached)
}

func TestResolveBelowMinimumSpend(t *testing.T) {
	t.Parallel()
	q := &mockQueries{coupons: map[string]store.Coupon{"SAVE20": activeCoupon("SAVE20")}}
	svc := &coupon.Service{Q: q, Now: fixedNow}
	_, _, err := svc.Resolve(context.Background(), "SAVE20", store.NewUUID(), 9999)
	require.ErrorIs(t, err, coupon.ErrMinimumSpendUnmet)
}
