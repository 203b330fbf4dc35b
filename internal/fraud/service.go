package fraud

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/store"
)

const failedPaymentWindow = 7 * 24 * time.Hour

// Queries is the subset of the store the risk service reads.
type Queries interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	CountFailedPaymentIntentsSince(ctx context.Context, userID pgtype.UUID, since pgtype.Timestamptz) (int64, error)
	LastPaymentIntentAt(ctx context.Context, userID pgtype.UUID) (pgtype.Timestamptz, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
}

// Service gathers risk signals for a payment attempt and scores them. When a
// signal cannot be gathered the attempt is treated as critical, matching the
// fail-safe behaviour of the payment screening it replaces.
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

// AssessIntent scores a payment attempt for the given order and user.
func (s *Service) AssessIntent(ctx context.Context, userID, orderID pgtype.UUID, amount int64, channel string) (Assessment, error) {
	if s == nil || s.Q == nil {
		return Assessment{}, errors.New("fraud service not configured")
	}
	now := s.now()

	sig := Signals{
		Amount:        amount,
		PaymentMethod: channel,
		At:            now,
	}

	user, err := s.Q.GetUserByID(ctx, userID)
	if err != nil {
		return failSafe(), nil
	}
	if user.CreatedAt.Valid {
		sig.AccountAge = now.Sub(user.CreatedAt.Time)
	}

	orders, err := s.Q.CountOrdersByUser(ctx, userID)
	if err != nil {
		return failSafe(), nil
	}
	sig.OrderCount = orders

	since := pgtype.Timestamptz{Time: now.Add(-failedPaymentWindow), Valid: true}
	failed, err := s.Q.CountFailedPaymentIntentsSince(ctx, userID, since)
	if err != nil {
		return failSafe(), nil
	}
	sig.FailedPayments = failed

	last, err := s.Q.LastPaymentIntentAt(ctx, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return failSafe(), nil
	}
	if last.Valid {
		sig.LastIntentAt = last.Time
	}

	items, err := s.Q.ListOrderItems(ctx, orderID)
	if err != nil {
		return failSafe(), nil
	}
	for _, it := range items {
		sig.TotalQty += it.Qty
		if it.Qty > sig.MaxLineQty {
			sig.MaxLineQty = it.Qty
		}
	}

	return Score(sig), nil
}

func failSafe() Assessment {
	return Assessment{
		Score:   90,
		Level:   LevelCritical,
		Reasons: []string{"risk signals unavailable"},
	}
}
