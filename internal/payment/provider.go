package payment

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IntentRequest asks the provider to prepare a payment for an order.
type IntentRequest struct {
	OrderID string
	Channel string
	Amount  int64
}

// IntentResponse carries the provider-side reference and, for redirect-based
// channels, the URL the client should open.
type IntentResponse struct {
	ProviderRef string
	RedirectURL string
}

// Provider is a payment gateway. The mock provider stands in until a real
// gateway integration lands.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
}

// MockProvider simulates a gateway: every intent gets a unique reference and a
// hosted-page URL. Settlement arrives through the webhook like it would from a
// real gateway.
type MockProvider struct {
	BaseURL string
	calls   atomic.Int64
}

func (m *MockProvider) Name() string { return "mock" }

// Calls reports how many intents the provider has created.
func (m *MockProvider) Calls() int64 { return m.calls.Load() }

func (m *MockProvider) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	m.calls.Add(1)
	ref := "mockpay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	base := strings.TrimSuffix(m.BaseURL, "/")
	if base == "" {
		base = "https://pay.mock.local"
	}
	return IntentResponse{
		ProviderRef: ref,
		RedirectURL: base + "/pay/" + ref,
	}, nil
}
