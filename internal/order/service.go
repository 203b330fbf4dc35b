package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/events"
	"github.com/quickkart/backend-grocer/internal/store"
)

var (
	// ErrNotFound indicates the order does not exist or belongs to another user.
	ErrNotFound = errors.New("order not found")
	// ErrNotCancellable is returned when the order has progressed past cancellation.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	// ErrInvalidStatus is returned for unknown or disallowed status transitions.
	ErrInvalidStatus = errors.New("invalid order status transition")
)

// statusFlow maps each status to the set of allowed successors.
var statusFlow = map[string][]string{
	checkout.StatusPendingPayment: {checkout.StatusPlaced, checkout.StatusCancelled},
	checkout.StatusPlaced:         {checkout.StatusConfirmed, checkout.StatusCancelled},
	checkout.StatusConfirmed:      {checkout.StatusOutForDelivery, checkout.StatusCancelled},
	checkout.StatusOutForDelivery: {checkout.StatusDelivered},
	checkout.StatusDelivered:      {},
	checkout.StatusCancelled:      {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range statusFlow[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func cancellable(status string) bool {
	return CanTransition(status, checkout.StatusCancelled)
}

// Service exposes order history and lifecycle operations.
type Service struct {
	Q    *store.Queries
	Pool *pgxpool.Pool
	Bus  *events.Bus
	Now  func() time.Time
}

// Detail is an order with its lines.
type Detail struct {
	Order store.Order
	Items []store.OrderItem
}

// List returns the user's order history, newest first.
func (s *Service) List(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]store.Order, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("order service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListOrdersByUser(ctx, userID, limit, offset)
}

// Get loads a single order owned by the user.
func (s *Service) Get(ctx context.Context, orderID, userID pgtype.UUID) (Detail, error) {
	if s == nil || s.Q == nil {
		return Detail{}, errors.New("order service not configured")
	}
	o, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}
	if !store.UUIDEqual(o.UserID, userID) {
		return Detail{}, ErrNotFound
	}
	items, err := s.Q.ListOrderItems(ctx, orderID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Order: o, Items: items}, nil
}

// Cancel cancels an order that has not yet gone out for delivery, restoring
// reserved stock.
func (s *Service) Cancel(ctx context.Context, orderID, userID pgtype.UUID) (store.Order, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return store.Order{}, errors.New("order service not configured")
	}
	var cancelled store.Order
	err := store.InTx(ctx, s.Pool, func(q *store.Queries) error {
		o, err := q.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if !store.UUIDEqual(o.UserID, userID) {
			return ErrNotFound
		}
		if !cancellable(o.Status) {
			return ErrNotCancellable
		}
		items, err := q.ListOrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := q.RestoreProductStock(ctx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		cancelled, err = q.UpdateOrderStatus(ctx, orderID, checkout.StatusCancelled)
		return err
	})
	if err != nil {
		return store.Order{}, err
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderCancelled, map[string]any{
			"orderId": store.UUIDString(orderID),
			"userId":  store.UUIDString(userID),
		})
	}
	return cancelled, nil
}

// UpdateStatus moves an order along the fulfilment flow. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, orderID pgtype.UUID, status string) (store.Order, error) {
	if s == nil || s.Q == nil {
		return store.Order{}, errors.New("order service not configured")
	}
	if _, known := statusFlow[status]; !known {
		return store.Order{}, ErrInvalidStatus
	}
	o, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, ErrNotFound
		}
		return store.Order{}, err
	}
	if !CanTransition(o.Status, status) {
		return store.Order{}, ErrInvalidStatus
	}
	updated, err := s.Q.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return store.Order{}, err
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderStatusChanged, map[string]any{
			"orderId": store.UUIDString(orderID),
			"from":    o.Status,
			"to":      status,
		})
	}
	return updated, nil
}
