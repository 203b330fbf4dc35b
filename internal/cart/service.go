package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/obs"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

// ErrNotFound indicates the requested cart item could not be located.
var ErrNotFound = errors.New("cart item not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrOutOfStock is returned when the product cannot satisfy the requested quantity.
var ErrOutOfStock = errors.New("product out of stock")

// ErrProductUnavailable is returned for inactive or unknown products.
var ErrProductUnavailable = errors.New("product unavailable")

// Queries is the subset of store operations the cart service needs.
type Queries interface {
	ListCartItemsByUser(ctx context.Context, userID pgtype.UUID) ([]store.CartItem, error)
	FindCartItemByProduct(ctx context.Context, userID, productID pgtype.UUID) (store.CartItem, error)
	GetCartItemByID(ctx context.Context, id, userID pgtype.UUID) (store.CartItem, error)
	CreateCartItem(ctx context.Context, arg store.CreateCartItemParams) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, arg store.UpdateCartItemQtyParams) (store.CartItem, error)
	DeleteCartItem(ctx context.Context, id, userID pgtype.UUID) error
	ClearCartByUser(ctx context.Context, userID pgtype.UUID) error
	GetCartState(ctx context.Context, userID pgtype.UUID) (store.CartState, error)
	SetCartCoupon(ctx context.Context, userID pgtype.UUID, code pgtype.Text) error
	GetProductByID(ctx context.Context, id pgtype.UUID) (store.Product, error)
}

// Service encapsulates cart domain operations. Carts are keyed by user; every
// authenticated user has exactly one implicit cart.
type Service struct {
	Q        Queries
	Coupons  *coupon.Service
	Schedule pricing.FeeSchedule
	TaxBps   int
	Now      func() time.Time
}

// Quote is the cart contents priced by the engine. CouponCode reflects the
// applied coupon after validation; CouponErr explains a stored coupon that no
// longer validates (the quote is computed without it).
type Quote struct {
	Items      []store.CartItem
	Summary    pricing.Summary
	CouponCode string
	CouponErr  error
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Items lists the user's cart contents.
func (s *Service) Items(ctx context.Context, userID pgtype.UUID) ([]store.CartItem, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("cart service not configured")
	}
	return s.Q.ListCartItemsByUser(ctx, userID)
}

// AddItem inserts or increments a cart line for the product.
func (s *Service) AddItem(ctx context.Context, userID pgtype.UUID, productID string, qty int) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	pID, err := store.ToUUID(productID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse product id: %w", ErrInvalidInput)
	}
	product, err := s.Q.GetProductByID(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrProductUnavailable
		}
		return store.CartItem{}, err
	}
	if !product.Active {
		return store.CartItem{}, ErrProductUnavailable
	}

	existing, err := s.Q.FindCartItemByProduct(ctx, userID, pID)
	if err == nil {
		newQty := existing.Qty + int32(qty)
		if product.Stock < newQty {
			return store.CartItem{}, ErrOutOfStock
		}
		return s.Q.UpdateCartItemQty(ctx, store.UpdateCartItemQtyParams{
			ID:       existing.ID,
			UserID:   userID,
			Qty:      newQty,
			Subtotal: int64(newQty) * existing.UnitPrice,
		})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return store.CartItem{}, err
	}

	if product.Stock < int32(qty) {
		return store.CartItem{}, ErrOutOfStock
	}
	return s.Q.CreateCartItem(ctx, store.CreateCartItemParams{
		UserID:    userID,
		ProductID: pID,
		Name:      product.Name,
		Unit:      product.Unit,
		Qty:       int32(qty),
		UnitPrice: product.Price,
		Subtotal:  int64(qty) * product.Price,
	})
}

// UpdateQty sets an absolute quantity for a cart line.
func (s *Service) UpdateQty(ctx context.Context, userID pgtype.UUID, itemID string, qty int) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	id, err := store.ToUUID(itemID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse item id: %w", ErrInvalidInput)
	}
	item, err := s.Q.GetCartItemByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrNotFound
		}
		return store.CartItem{}, err
	}
	product, err := s.Q.GetProductByID(ctx, item.ProductID)
	if err == nil && product.Stock < int32(qty) {
		return store.CartItem{}, ErrOutOfStock
	}
	return s.Q.UpdateCartItemQty(ctx, store.UpdateCartItemQtyParams{
		ID:       item.ID,
		UserID:   userID,
		Qty:      int32(qty),
		Subtotal: int64(qty) * item.UnitPrice,
	})
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, userID pgtype.UUID, itemID string) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	id, err := store.ToUUID(itemID)
	if err != nil {
		return fmt.Errorf("parse item id: %w", ErrInvalidInput)
	}
	return s.Q.DeleteCartItem(ctx, id, userID)
}

// Clear empties the cart and drops any applied coupon.
func (s *Service) Clear(ctx context.Context, userID pgtype.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Q.ClearCartByUser(ctx, userID); err != nil {
		return err
	}
	return s.Q.SetCartCoupon(ctx, userID, pgtype.Text{})
}

// ApplyCoupon validates a code against the current cart and stores it.
func (s *Service) ApplyCoupon(ctx context.Context, userID pgtype.UUID, code string) (pricing.Coupon, error) {
	if s == nil || s.Q == nil {
		return pricing.Coupon{}, errors.New("cart service not configured")
	}
	if s.Coupons == nil {
		return pricing.Coupon{}, errors.New("coupon service not configured")
	}
	subtotal, err := s.subtotal(ctx, userID)
	if err != nil {
		return pricing.Coupon{}, err
	}
	applied, _, err := s.Coupons.Resolve(ctx, code, userID, subtotal)
	if err != nil {
		countCouponApply("rejected")
		return pricing.Coupon{}, err
	}
	if err := s.Q.SetCartCoupon(ctx, userID, pgtype.Text{String: applied.Code, Valid: true}); err != nil {
		return pricing.Coupon{}, err
	}
	countCouponApply("applied")
	return applied, nil
}

// RemoveCoupon clears the applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, userID pgtype.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return s.Q.SetCartCoupon(ctx, userID, pgtype.Text{})
}

// Totals prices the cart via the pricing engine. The caller resolves the
// weather verdict for the delivery location and passes it in so pricing stays
// pure.
func (s *Service) Totals(ctx context.Context, userID pgtype.UUID, badWeather bool) (Quote, error) {
	if s == nil || s.Q == nil {
		return Quote{}, errors.New("cart service not configured")
	}
	items, err := s.Q.ListCartItemsByUser(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Qty: int(it.Qty), UnitPrice: it.UnitPrice})
	}

	quote := Quote{Items: items}
	var applied *pricing.Coupon
	if state, err := s.Q.GetCartState(ctx, userID); err == nil && state.CouponCode.Valid && state.CouponCode.String != "" {
		subtotal, err := pricing.Subtotal(lines)
		if err != nil {
			return Quote{}, err
		}
		resolved, _, resolveErr := s.Coupons.Resolve(ctx, state.CouponCode.String, userID, subtotal)
		if resolveErr != nil {
			quote.CouponErr = resolveErr
		} else {
			applied = &resolved
			quote.CouponCode = resolved.Code
		}
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, err
	}

	summary, err := pricing.Compute(lines, badWeather, applied, s.Schedule, s.TaxBps)
	if err != nil {
		return Quote{}, err
	}
	quote.Summary = summary
	if summary.Delivery.WeatherImpact && obs.WeatherSurchargeTotal != nil {
		obs.WeatherSurchargeTotal.Inc()
	}
	if summary.DiscountCapped && obs.CouponClampTotal != nil {
		obs.CouponClampTotal.Inc()
	}
	return quote, nil
}

func (s *Service) subtotal(ctx context.Context, userID pgtype.UUID) (int64, error) {
	items, err := s.Q.ListCartItemsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("cart empty: %w", ErrInvalidInput)
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.Subtotal
	}
	return subtotal, nil
}

func countCouponApply(result string) {
	if obs.CouponApplyTotal == nil {
		return
	}
	obs.CouponApplyTotal.WithLabelValues(result).Inc()
}
