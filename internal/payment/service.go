package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/events"
	"github.com/quickkart/backend-grocer/internal/fraud"
	"github.com/quickkart/backend-grocer/internal/obs"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Payment intent statuses.
const (
	StatusCreated   = "CREATED"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusExpired   = "EXPIRED"
)

var (
	// ErrOrderNotFound indicates the order does not exist or belongs to another user.
	ErrOrderNotFound = errors.New("payment: order not found")
	// ErrOrderNotPayable is returned when the order is not awaiting payment.
	ErrOrderNotPayable = errors.New("payment: order is not awaiting payment")
	// ErrIntentNotFound indicates no payment intent matches the reference.
	ErrIntentNotFound = errors.New("payment: intent not found")
	// ErrIntentSettled is returned when a webhook targets an already settled intent.
	ErrIntentSettled = errors.New("payment: intent already settled")
	// ErrIntentExpired is returned when settlement arrives after the intent expired.
	ErrIntentExpired = errors.New("payment: intent expired")
	// ErrBadSignature indicates the webhook signature did not verify.
	ErrBadSignature = errors.New("payment: invalid webhook signature")
	// ErrHighRisk is returned when risk screening refuses the payment attempt.
	ErrHighRisk = errors.New("payment: blocked pending manual review")
)

// RiskAssessor screens a payment attempt before an intent is opened.
type RiskAssessor interface {
	AssessIntent(ctx context.Context, userID, orderID pgtype.UUID, amount int64, channel string) (fraud.Assessment, error)
}

// Service creates payment intents for pending orders and settles them from
// provider webhooks.
type Service struct {
	Q             *store.Queries
	Pool          *pgxpool.Pool
	Provider      Provider
	Bus           *events.Bus
	Risk          RiskAssessor
	WebhookSecret string
	IntentTTL     time.Duration
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) intentTTL() time.Duration {
	if s == nil || s.IntentTTL <= 0 {
		return 30 * time.Minute
	}
	return s.IntentTTL
}

// Intent pairs a stored intent with the provider redirect URL, when one exists.
type Intent struct {
	Record      store.PaymentIntent
	RedirectURL string
}

// CreateIntent prepares payment for an order awaiting it. Re-requesting while
// a live intent exists returns that intent instead of opening a second one.
func (s *Service) CreateIntent(ctx context.Context, orderID, userID pgtype.UUID) (Intent, error) {
	if s == nil || s.Q == nil || s.Provider == nil {
		return Intent{}, errors.New("payment service not configured")
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Intent{}, ErrOrderNotFound
		}
		return Intent{}, err
	}
	if !store.UUIDEqual(order.UserID, userID) {
		return Intent{}, ErrOrderNotFound
	}
	if order.Status != checkout.StatusPendingPayment || order.PaymentMethod == "cod" {
		return Intent{}, ErrOrderNotPayable
	}

	if existing, err := s.Q.GetPaymentIntentByOrder(ctx, orderID); err == nil {
		if existing.Status == StatusCreated && s.now().Before(existing.ExpiresAt.Time) {
			return Intent{Record: existing}, nil
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return Intent{}, err
	}

	if s.Risk != nil {
		assessment, err := s.Risk.AssessIntent(ctx, userID, orderID, order.Total, order.PaymentMethod)
		if err != nil {
			return Intent{}, err
		}
		countRisk(assessment.Level)
		if assessment.Blocked() {
			countIntent(s.Provider.Name(), order.PaymentMethod, "blocked")
			return Intent{}, ErrHighRisk
		}
	}

	resp, err := s.Provider.CreateIntent(ctx, IntentRequest{
		OrderID: store.UUIDString(orderID),
		Channel: order.PaymentMethod,
		Amount:  order.Total,
	})
	if err != nil {
		countIntent(s.Provider.Name(), order.PaymentMethod, "provider_error")
		return Intent{}, err
	}

	record, err := s.Q.CreatePaymentIntent(ctx, store.CreatePaymentIntentParams{
		OrderID:     orderID,
		Provider:    s.Provider.Name(),
		Channel:     order.PaymentMethod,
		Status:      StatusCreated,
		Amount:      order.Total,
		ProviderRef: pgtype.Text{String: resp.ProviderRef, Valid: resp.ProviderRef != ""},
		ExpiresAt:   pgtype.Timestamptz{Time: s.now().Add(s.intentTTL()), Valid: true},
	})
	if err != nil {
		return Intent{}, err
	}
	countIntent(s.Provider.Name(), order.PaymentMethod, "created")
	return Intent{Record: record, RedirectURL: resp.RedirectURL}, nil
}

// GetForOrder returns the latest intent for the user's order.
func (s *Service) GetForOrder(ctx context.Context, orderID, userID pgtype.UUID) (store.PaymentIntent, error) {
	if s == nil || s.Q == nil {
		return store.PaymentIntent{}, errors.New("payment service not configured")
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.PaymentIntent{}, ErrOrderNotFound
		}
		return store.PaymentIntent{}, err
	}
	if !store.UUIDEqual(order.UserID, userID) {
		return store.PaymentIntent{}, ErrOrderNotFound
	}
	intent, err := s.Q.GetPaymentIntentByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.PaymentIntent{}, ErrIntentNotFound
		}
		return store.PaymentIntent{}, err
	}
	return intent, nil
}

// WebhookEvent is the provider's settlement notification.
type WebhookEvent struct {
	ProviderRef string `json:"providerRef"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// Settle applies a verified webhook event: the intent is marked settled and a
// successful payment confirms the order. Settlement is transactional so the
// intent and order can never disagree.
func (s *Service) Settle(ctx context.Context, evt WebhookEvent) error {
	if s == nil || s.Q == nil || s.Pool == nil {
		return errors.New("payment service not configured")
	}
	if evt.ProviderRef == "" {
		return ErrIntentNotFound
	}
	succeeded := evt.Status == "succeeded"
	if !succeeded && evt.Status != "failed" {
		return errors.New("payment: unknown settlement status " + evt.Status)
	}

	var provider, channel string
	err := store.InTx(ctx, s.Pool, func(q *store.Queries) error {
		intent, err := q.GetPaymentIntentByRef(ctx, evt.ProviderRef)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntentNotFound
			}
			return err
		}
		provider, channel = intent.Provider, intent.Channel
		if intent.Status != StatusCreated {
			return ErrIntentSettled
		}
		if intent.ExpiresAt.Valid && s.now().After(intent.ExpiresAt.Time) {
			if _, err := q.UpdatePaymentIntentStatus(ctx, intent.ID, StatusExpired); err != nil {
				return err
			}
			return ErrIntentExpired
		}

		next := StatusFailed
		if succeeded {
			next = StatusSucceeded
		}
		if _, err := q.UpdatePaymentIntentStatus(ctx, intent.ID, next); err != nil {
			return err
		}
		if succeeded {
			order, err := q.GetOrderByID(ctx, intent.OrderID)
			if err != nil {
				return err
			}
			if order.Status == checkout.StatusPendingPayment {
				if _, err := q.UpdateOrderStatus(ctx, intent.OrderID, checkout.StatusConfirmed); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if provider != "" {
			countIntent(provider, channel, "settle_error")
		}
		return err
	}

	result := "failed"
	topic := events.TopicPaymentFailed
	if succeeded {
		result = "succeeded"
		topic = events.TopicPaymentSucceeded
	}
	countIntent(provider, channel, result)
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, topic, map[string]any{
			"providerRef": evt.ProviderRef,
			"status":      evt.Status,
			"reason":      evt.Reason,
		})
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of a webhook body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func countIntent(provider, channel, result string) {
	if obs.PaymentIntentTotal == nil {
		return
	}
	obs.PaymentIntentTotal.WithLabelValues(provider, channel, result).Inc()
}

func countRisk(level string) {
	if obs.FraudAssessmentTotal == nil {
		return
	}
	obs.FraudAssessmentTotal.WithLabelValues(level).Inc()
}
