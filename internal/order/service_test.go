package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/store"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	require.True(t, CanTransition(checkout.StatusPendingPayment, checkout.StatusPlaced))
	require.True(t, CanTransition(checkout.StatusPlaced, checkout.StatusConfirmed))
	require.True(t, CanTransition(checkout.StatusConfirmed, checkout.StatusOutForDelivery))
	require.True(t, CanTransition(checkout.StatusOutForDelivery, checkout.StatusDelivered))

	require.True(t, CanTransition(checkout.StatusPlaced, checkout.StatusCancelled))
	require.True(t, CanTransition(checkout.StatusPendingPayment, checkout.StatusCancelled))
	require.True(t, CanTransition(checkout.StatusConfirmed, checkout.StatusCancelled))

	require.False(t, CanTransition(checkout.StatusOutForDelivery, checkout.StatusCancelled))
	require.False(t, CanTransition(checkout.StatusDelivered, checkout.StatusCancelled))
	require.False(t, CanTransition(checkout.StatusCancelled, checkout.StatusPlaced))
	require.False(t, CanTransition(checkout.StatusDelivered, checkout.StatusPlaced))
	require.False(t, CanTransition("UNKNOWN", checkout.StatusPlaced))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := &Service{Q: store.New(nil)}
	_, err := svc.UpdateStatus(context.Background(), store.NewUUID(), "TELEPORTED")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestServiceRequiresConfiguration(t *testing.T) {
	t.Parallel()

	var svc *Service
	_, err := svc.List(context.Background(), store.NewUUID(), 10, 0)
	require.Error(t, err)
	_, err = svc.Get(context.Background(), store.NewUUID(), store.NewUUID())
	require.Error(t, err)
	_, err = svc.Cancel(context.Background(), store.NewUUID(), store.NewUUID())
	require.Error(t, err)
}
