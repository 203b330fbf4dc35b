package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/resilience"
	"github.com/quickkart/backend-grocer/internal/store"
)

func testEvent(topic string) store.Event {
	return store.Event{
		ID:        store.NewUUID(),
		Topic:     topic,
		Payload:   []byte(`{"orderId":"o-1"}`),
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := &WebhookNotifier{
		URL:    srv.URL,
		Secret: "hooksecret",
		HTTP:   resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 2},
		Logger: zerolog.Nop(),
	}
	require.NoError(t, n.Notify(context.Background(), testEvent("order.created")))
	sig, _ := got.Load().(string)
	require.NotEmpty(t, sig)
}

func TestWebhookNotifierFiltersTopics(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := &WebhookNotifier{
		URL:    srv.URL,
		Topics: map[string]bool{"order.created": true},
		HTTP:   resilience.HTTPClient{Client: srv.Client()},
		Logger: zerolog.Nop(),
	}
	require.NoError(t, n.Notify(context.Background(), testEvent("coupon.redeemed")))
	require.EqualValues(t, 0, calls.Load())

	require.NoError(t, n.Notify(context.Background(), testEvent("order.created")))
	require.EqualValues(t, 1, calls.Load())
}

func TestWebhookNotifierReportsRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	n := &WebhookNotifier{
		URL:    srv.URL,
		HTTP:   resilience.HTTPClient{Client: srv.Client()},
		Logger: zerolog.Nop(),
	}
	require.Error(t, n.Notify(context.Background(), testEvent("order.created")))

	// Unconfigured notifier is a no-op.
	var nop *WebhookNotifier
	require.NoError(t, nop.Notify(context.Background(), testEvent("order.created")))
}
