package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/events"
	"github.com/quickkart/backend-grocer/internal/lock"
	"github.com/quickkart/backend-grocer/internal/obs"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no items.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrAddressNotFound is returned when the delivery address does not belong to the user.
	ErrAddressNotFound = errors.New("checkout: address not found")
	// ErrInvalidPaymentMethod is returned for unsupported payment methods.
	ErrInvalidPaymentMethod = errors.New("checkout: invalid payment method")
	// ErrInsufficientStock is returned when a cart line exceeds available stock.
	ErrInsufficientStock = errors.New("checkout: insufficient stock")
)

// Order statuses.
const (
	StatusPlaced         = "PLACED"
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusConfirmed      = "CONFIRMED"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
)

// PaymentMethods supported at checkout. COD skips the payment intent flow.
var PaymentMethods = map[string]bool{
	"cod":    true,
	"upi":    true,
	"card":   true,
	"wallet": true,
}

// Input is the checkout request.
type Input struct {
	AddressID     string `json:"addressId"`
	PaymentMethod string `json:"paymentMethod"`
}

// Output is the placed order with its priced lines.
type Output struct {
	Order   store.Order
	Items   []store.OrderItem
	Summary pricing.Summary
}

// Service turns a cart into an order inside a single transaction. A Redis
// lock serialises checkouts per user so coupon redemption and stock decrements
// cannot race between concurrent requests.
type Service struct {
	Q        *store.Queries
	Pool     *pgxpool.Pool
	Locker   lock.Locker
	Bus      *events.Bus
	Schedule pricing.FeeSchedule
	TaxBps   int
	LockTTL  time.Duration
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) lockTTL() time.Duration {
	if s == nil || s.LockTTL <= 0 {
		return 10 * time.Second
	}
	return s.LockTTL
}

// Create places an order from the user's cart. The caller resolves the
// weather verdict for the delivery address and passes it in.
func (s *Service) Create(ctx context.Context, userID pgtype.UUID, badWeather bool, weatherNotice string, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if !PaymentMethods[in.PaymentMethod] {
		return Output{}, ErrInvalidPaymentMethod
	}
	addressID, err := store.ToUUID(in.AddressID)
	if err != nil {
		return Output{}, ErrAddressNotFound
	}

	var out Output
	lockKey := "checkout:" + store.UUIDString(userID)
	err = s.Locker.WithLock(ctx, lockKey, s.lockTTL(), func(ctx context.Context) error {
		out, err = s.createLocked(ctx, userID, addressID, badWeather, weatherNotice, in)
		return err
	})
	if err != nil {
		countCheckout("error")
		return Output{}, err
	}
	countCheckout("placed")

	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderCreated, map[string]any{
			"orderId": store.UUIDString(out.Order.ID),
			"userId":  store.UUIDString(userID),
			"total":   out.Order.Total,
			"status":  out.Order.Status,
		})
		if out.Order.CouponCode.Valid {
			_, _ = s.Bus.Emit(ctx, events.TopicCouponRedeemed, map[string]any{
				"orderId": store.UUIDString(out.Order.ID),
				"userId":  store.UUIDString(userID),
				"code":    out.Order.CouponCode.String,
			})
		}
	}
	return out, nil
}

func (s *Service) createLocked(ctx context.Context, userID, addressID pgtype.UUID, badWeather bool, weatherNotice string, in Input) (Output, error) {
	var out Output
	err := store.InTx(ctx, s.Pool, func(q *store.Queries) error {
		if _, err := q.GetAddressByID(ctx, addressID, userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAddressNotFound
			}
			return err
		}

		items, err := q.ListCartItemsByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		lines := make([]pricing.Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, pricing.Line{Qty: int(it.Qty), UnitPrice: it.UnitPrice})
		}
		subtotal, err := pricing.Subtotal(lines)
		if err != nil {
			return err
		}

		// Re-validate the stored coupon inside the transaction so a stale code
		// cannot slip into the order.
		var applied *pricing.Coupon
		var couponRecord store.Coupon
		coupons := &coupon.Service{Q: q, Now: s.Now}
		if state, err := q.GetCartState(ctx, userID); err == nil && state.CouponCode.Valid && state.CouponCode.String != "" {
			resolved, record, resolveErr := coupons.Resolve(ctx, state.CouponCode.String, userID, subtotal)
			if resolveErr != nil {
				return fmt.Errorf("coupon no longer valid: %w", resolveErr)
			}
			applied = &resolved
			couponRecord = record
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		summary, err := pricing.Compute(lines, badWeather, applied, s.Schedule, s.TaxBps)
		if err != nil {
			return err
		}

		for _, it := range items {
			if _, err := q.DecrementProductStock(ctx, it.ProductID, it.Qty); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, it.Name)
				}
				return err
			}
		}

		status := StatusPendingPayment
		if in.PaymentMethod == "cod" {
			status = StatusPlaced
		}
		couponCode := pgtype.Text{}
		if applied != nil {
			couponCode = pgtype.Text{String: applied.Code, Valid: true}
		}
		order, err := q.CreateOrder(ctx, store.CreateOrderParams{
			UserID:         userID,
			AddressID:      addressID,
			Status:         status,
			Subtotal:       summary.Subtotal,
			Tax:            summary.Tax,
			DeliveryFee:    summary.Delivery.Fee,
			DeliveryFree:   summary.Delivery.Free,
			Discount:       summary.Discount,
			DiscountCapped: summary.DiscountCapped,
			Total:          summary.Total,
			CouponCode:     couponCode,
			WeatherImpact:  summary.Delivery.WeatherImpact,
			WeatherNotice:  store.TextOrNull(weatherNoticeFor(summary, weatherNotice)),
			PaymentMethod:  in.PaymentMethod,
		})
		if err != nil {
			return err
		}

		orderItems := make([]store.OrderItem, 0, len(items))
		for _, it := range items {
			created, err := q.CreateOrderItem(ctx, store.CreateOrderItemParams{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Name:      it.Name,
				Unit:      it.Unit,
				Qty:       it.Qty,
				UnitPrice: it.UnitPrice,
				Subtotal:  it.Subtotal,
			})
			if err != nil {
				return err
			}
			orderItems = append(orderItems, created)
		}

		if applied != nil {
			if _, err := q.IncrementCouponUsage(ctx, couponRecord.ID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return coupon.ErrUsageLimitReached
				}
				return err
			}
			if _, err := q.CreateRedemption(ctx, couponRecord.ID, userID, order.ID); err != nil {
				return err
			}
		}

		if err := q.ClearCartByUser(ctx, userID); err != nil {
			return err
		}
		if err := q.SetCartCoupon(ctx, userID, pgtype.Text{}); err != nil {
			return err
		}

		out = Output{Order: order, Items: orderItems, Summary: summary}
		return nil
	})
	return out, err
}

func weatherNoticeFor(summary pricing.Summary, fallback string) string {
	if summary.Delivery.WeatherMessage != "" {
		return summary.Delivery.WeatherMessage
	}
	if summary.Delivery.WeatherImpact {
		return fallback
	}
	return ""
}

func countCheckout(result string) {
	if obs.CheckoutTotal == nil {
		return
	}
	obs.CheckoutTotal.WithLabelValues(result).Inc()
}
