package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quickkart/backend-grocer/internal/resilience"
	"github.com/quickkart/backend-grocer/internal/store"
)

// SignatureHeader carries the HMAC of the delivered body.
const SignatureHeader = "X-Grocer-Signature"

// WebhookNotifier delivers domain events to an external endpoint. Deliveries
// ride the resilient HTTP client, so a flapping consumer trips the breaker
// instead of stalling emits.
type WebhookNotifier struct {
	URL    string
	Secret string
	Topics map[string]bool
	HTTP   resilience.HTTPClient
	Logger zerolog.Logger
}

type webhookBody struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"createdAt"`
}

// Notify implements events.Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event store.Event) error {
	if n == nil || n.URL == "" {
		return nil
	}
	if len(n.Topics) > 0 && !n.Topics[event.Topic] {
		return nil
	}

	body := webhookBody{
		ID:      store.UUIDString(event.ID),
		Topic:   event.Topic,
		Payload: json.RawMessage(event.Payload),
	}
	if event.CreatedAt.Valid {
		body.CreatedAt = event.CreatedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.Secret, encoded))
	}

	resp, err := n.HTTP.Do(ctx, req)
	if err != nil {
		n.Logger.Warn().Err(err).Str("topic", event.Topic).Msg("webhook delivery failed")
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		err := errors.New("webhook delivery rejected: " + resp.Status)
		n.Logger.Warn().Err(err).Str("topic", event.Topic).Msg("webhook delivery failed")
		return err
	}
	n.Logger.Debug().Str("topic", event.Topic).Msg("webhook delivered")
	return nil
}

// Sign computes the hex HMAC-SHA256 of a delivery body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
