package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/store"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	body := []byte(`{"providerRef":"mockpay_abc","status":"succeeded"}`)
	sig := Sign("topsecret", body)
	require.NotEmpty(t, sig)
	require.True(t, VerifySignature("topsecret", body, sig))
	require.False(t, VerifySignature("topsecret", body, sig+"00"))
	require.False(t, VerifySignature("othersecret", body, sig))
	require.False(t, VerifySignature("", body, sig))
	require.False(t, VerifySignature("topsecret", body, ""))
}

func TestMockProviderIssuesUniqueRefs(t *testing.T) {
	t.Parallel()

	p := &MockProvider{BaseURL: "https://pay.example.com/"}
	first, err := p.CreateIntent(context.Background(), IntentRequest{OrderID: "o1", Channel: "upi", Amount: 9900})
	require.NoError(t, err)
	second, err := p.CreateIntent(context.Background(), IntentRequest{OrderID: "o1", Channel: "upi", Amount: 9900})
	require.NoError(t, err)

	require.NotEqual(t, first.ProviderRef, second.ProviderRef)
	require.True(t, strings.HasPrefix(first.ProviderRef, "mockpay_"))
	require.Equal(t, "https://pay.example.com/pay/"+first.ProviderRef, first.RedirectURL)
	require.EqualValues(t, 2, p.Calls())
}

func TestSettleRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := &Service{Q: store.New(nil), Pool: &pgxpool.Pool{}, WebhookSecret: "s"}
	err := svc.Settle(context.Background(), WebhookEvent{ProviderRef: "mockpay_x", Status: "refunded"})
	require.Error(t, err)

	err = svc.Settle(context.Background(), WebhookEvent{Status: "succeeded"})
	require.ErrorIs(t, err, ErrIntentNotFound)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	h := &Handler{Svc: &Service{Q: store.New(nil), WebhookSecret: "topsecret"}}
	body := []byte(`{"providerRef":"mockpay_abc","status":"succeeded"}`)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "deadbeef")
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.Webhook(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServiceRequiresConfiguration(t *testing.T) {
	t.Parallel()

	var svc *Service
	_, err := svc.CreateIntent(context.Background(), store.NewUUID(), store.NewUUID())
	require.Error(t, err)
	_, err = svc.GetForOrder(context.Background(), store.NewUUID(), store.NewUUID())
	require.Error(t, err)
	require.Error(t, svc.Settle(context.Background(), WebhookEvent{}))
}

func TestWriteErrorMapsRiskBlock(t *testing.T) {
	t.Parallel()

	h := &Handler{}
	rec := httptest.NewRecorder()
	h.writeError(rec, ErrHighRisk)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYMENT_BLOCKED")
}
