package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/cart"
	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

type mockStore struct {
	products map[string]store.Product
	items    map[string]store.CartItem
	coupons  map[string]store.Coupon
	state    map[string]pgtype.Text
}

func newMockStore() *mockStore {
	return &mockStore{
		products: map[string]store.Product{},
		items:    map[string]store.CartItem{},
		coupons:  map[string]store.Coupon{},
		state:    map[string]pgtype.Text{},
	}
}

func (m *mockStore) ListCartItemsByUser(_ context.Context, userID pgtype.UUID) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, it := range m.items {
		if store.UUIDEqual(it.UserID, userID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockStore) FindCartItemByProduct(_ context.Context, userID, productID pgtype.UUID) (store.CartItem, error) {
	for _, it := range m.items {
		if store.UUIDEqual(it.UserID, userID) && store.UUIDEqual(it.ProductID, productID) {
			return it, nil
		}
	}
	return store.CartItem{}, pgx.ErrNoRows
}

func (m *mockStore) GetCartItemByID(_ context.Context, id, userID pgtype.UUID) (store.CartItem, error) {
	it, ok := m.items[store.UUIDString(id)]
	if !ok || !store.UUIDEqual(it.UserID, userID) {
		return store.CartItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockStore) CreateCartItem(_ context.Context, arg store.CreateCartItemParams) (store.CartItem, error) {
	it := store.CartItem{
		ID:        store.NewUUID(),
		UserID:    arg.UserID,
		ProductID: arg.ProductID,
		Name:      arg.Name,
		Unit:      arg.Unit,
		Qty:       arg.Qty,
		UnitPrice: arg.UnitPrice,
		Subtotal:  arg.Subtotal,
	}
	m.items[store.UUIDString(it.ID)] = it
	return it, nil
}

func (m *mockStore) UpdateCartItemQty(_ context.Context, arg store.UpdateCartItemQtyParams) (store.CartItem, error) {
	it, ok := m.items[store.UUIDString(arg.ID)]
	if !ok {
		return store.CartItem{}, pgx.ErrNoRows
	}
	it.Qty = arg.Qty
	it.Subtotal = arg.Subtotal
	m.items[store.UUIDString(arg.ID)] = it
	return it, nil
}

func (m *mockStore) DeleteCartItem(_ context.Context, id, _ pgtype.UUID) error {
	delete(m.items, store.UUIDString(id))
	return nil
}

func (m *mockStore) ClearCartByUser(_ context.Context, userID pgtype.UUID) error {
	for key, it := range m.items {
		if store.UUIDEqual(it.UserID, userID) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *mockStore) GetCartState(_ context.Context, userID pgtype.UUID) (store.CartState, error) {
	code, ok := m.state[store.UUIDString(userID)]
	if !ok {
		return store.CartState{}, pgx.ErrNoRows
	}
	return store.CartState{UserID: userID, CouponCode: code}, nil
}

func (m *mockStore) SetCartCoupon(_ context.Context, userID pgtype.UUID, code pgtype.Text) error {
	m.state[store.UUIDString(userID)] = code
	return nil
}

func (m *mockStore) GetProductByID(_ context.Context, id pgtype.UUID) (store.Product, error) {
	p, ok := m.products[store.UUIDString(id)]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockStore) GetCouponByCode(_ context.Context, code string) (store.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return store.Coupon{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) CountRedemptionsByUser(context.Context, pgtype.UUID, pgtype.UUID) (int64, error) {
	return 0, nil
}

func (m *mockStore) ListCoupons(context.Context) ([]store.Coupon, error) { return nil, nil }
func (m *mockStore) CreateCoupon(_ context.Context, _ store.CreateCouponParams) (store.Coupon, error) {
	return store.Coupon{}, nil
}
func (m *mockStore) UpdateCoupon(_ context.Context, _ store.UpdateCouponParams) (store.Coupon, error) {
	return store.Coupon{}, nil
}

func testSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{
		BaseFee: 2500,
		Tiers: []pricing.FeeTier{
			{MinSubtotal: 20000, Fee: 2000},
			{MinSubtotal: 35000, Fee: 1500},
			{MinSubtotal: 50000, Fee: 0},
		},
		BadWeatherFee:     3000,
		BadWeatherMessage: "Delivery fee increased due to bad weather in your area",
	}
}

func newService(m *mockStore) *cart.Service {
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return &cart.Service{
		Q:        m,
		Coupons:  &coupon.Service{Q: m, Now: now},
		Schedule: testSchedule(),
		TaxBps:   200,
		Now:      now,
	}
}

func seedProduct(m *mockStore, price int64, stock int32) store.Product {
	p := store.Product{
		ID:     store.NewUUID(),
		Name:   "Basmati Rice",
		Slug:   "basmati-rice",
		Unit:   "1kg",
		Price:  price,
		Stock:  stock,
		Active: true,
	}
	m.products[store.UUIDString(p.ID)] = p
	return p
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 9900, 10)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 2)
	require.NoError(t, err)
	require.Equal(t, int32(2), item.Qty)
	require.Equal(t, int64(19800), item.Subtotal)

	item, err = svc.AddItem(ctx, userID, store.UUIDString(product.ID), 3)
	require.NoError(t, err)
	require.Equal(t, int32(5), item.Qty)
	require.Equal(t, int64(49500), item.Subtotal)
}

func TestAddItemEnforcesStock(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 9900, 3)

	_, err := svc.AddItem(context.Background(), userID, store.UUIDString(product.ID), 4)
	require.ErrorIs(t, err, cart.ErrOutOfStock)
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	product := seedProduct(m, 9900, 10)
	product.Active = false
	m.products[store.UUIDString(product.ID)] = product

	_, err := svc.AddItem(context.Background(), store.NewUUID(), store.UUIDString(product.ID), 1)
	require.ErrorIs(t, err, cart.ErrProductUnavailable)
}

func TestUpdateQtyRejectsNonPositive(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	_, err := svc.UpdateQty(context.Background(), store.NewUUID(), store.UUIDString(store.NewUUID()), 0)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestApplyCouponRequiresItems(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	_, err := svc.ApplyCoupon(context.Background(), store.NewUUID(), "SAVE20")
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}

func TestApplyCouponStoresNormalisedCode(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 15000, 10)
	m.coupons["SAVE20"] = store.Coupon{ID: store.NewUUID(), Code: "SAVE20", Discount: 2000, MinSpend: 10000, Active: true}

	ctx := context.Background()
	_, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	require.NoError(t, err)

	applied, err := svc.ApplyCoupon(ctx, userID, " save20 ")
	require.NoError(t, err)
	require.Equal(t, "SAVE20", applied.Code)
	require.Equal(t, "SAVE20", m.state[store.UUIDString(userID)].String)
}

func TestTotalsAppliesStoredCoupon(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 15000, 10)
	m.coupons["SAVE20"] = store.Coupon{ID: store.NewUUID(), Code: "SAVE20", Discount: 2000, MinSpend: 10000, Active: true}

	ctx := context.Background()
	_, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, userID, "SAVE20")
	require.NoError(t, err)

	quote, err := svc.Totals(ctx, userID, false)
	require.NoError(t, err)
	require.Equal(t, "SAVE20", quote.CouponCode)
	require.Equal(t, int64(15000), quote.Summary.Subtotal)
	require.Equal(t, int64(300), quote.Summary.Tax)
	require.Equal(t, int64(2500), quote.Summary.Delivery.Fee)
	require.Equal(t, int64(2000), quote.Summary.Discount)
	// 15000 + 300 + 2500 - 2000 = 15800
	require.Equal(t, int64(15800), quote.Summary.Total)
}

func TestTotalsBadWeatherSurcharge(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	// subtotal 60000 would normally be free delivery
	product := seedProduct(m, 60000, 10)

	ctx := context.Background()
	_, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	require.NoError(t, err)

	quote, err := svc.Totals(ctx, userID, true)
	require.NoError(t, err)
	require.True(t, quote.Summary.Delivery.WeatherImpact)
	require.False(t, quote.Summary.Delivery.Free)
	require.Equal(t, int64(3000), quote.Summary.Delivery.Fee)
	require.NotEmpty(t, quote.Summary.Delivery.WeatherMessage)
}

func TestTotalsDropsInvalidStoredCoupon(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 15000, 10)
	// stored coupon that no longer exists
	m.state[store.UUIDString(userID)] = pgtype.Text{String: "GONE", Valid: true}

	ctx := context.Background()
	_, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	require.NoError(t, err)

	quote, err := svc.Totals(ctx, userID, false)
	require.NoError(t, err)
	require.Empty(t, quote.CouponCode)
	require.ErrorIs(t, quote.CouponErr, coupon.ErrNotFound)
	require.Zero(t, quote.Summary.Discount)
}

func TestTotalsClampsOversizedDiscount(t *testing.T) {
	m := newMockStore()
	svc := newService(m)
	userID := store.NewUUID()
	product := seedProduct(m, 5000, 10)
	m.coupons["MEGA"] = store.Coupon{ID: store.NewUUID(), Code: "MEGA", Discount: 100000, Active: true}

	ctx := context.Background()
	_, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, userID, "MEGA")
	require.NoError(t, err)

	quote, err := svc.Totals(ctx, userID, false)
	require.NoError(t, err)
	require.True(t, quote.Summary.DiscountCapped)
	// discount is clamped to subtotal + tax + fee = 5000 + 100 + 2500
	require.Equal(t, int64(7600), quote.Summary.Discount)
	require.Zero(t, quote.Summary.Total)
}
