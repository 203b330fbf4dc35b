package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A seasoned customer paying a modest amount mid-afternoon.
func cleanSignals() Signals {
	return Signals{
		Amount:        45_000, // ₹450
		PaymentMethod: "upi",
		AccountAge:    90 * 24 * time.Hour,
		OrderCount:    12,
		At:            time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC),
	}
}

func TestScoreCleanTransaction(t *testing.T) {
	t.Parallel()

	a := Score(cleanSignals())
	require.Equal(t, 0, a.Score)
	require.Equal(t, LevelLow, a.Level)
	require.Empty(t, a.Reasons)
	require.False(t, a.Blocked())
}

func TestScoreAmountPatterns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		amount int64
		min    int
	}{
		{"just below limit", 9_999_00, 25},
		{"large round", 25_000_00, 10},
		{"high", 60_000_00, 8},
		{"very high", 150_000_00, 15},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sig := cleanSignals()
			sig.Amount = tc.amount
			a := Score(sig)
			require.GreaterOrEqual(t, a.Score, tc.min)
			require.NotEmpty(t, a.Reasons)
		})
	}
}

func TestScoreNewAccountFirstOrder(t *testing.T) {
	t.Parallel()

	sig := cleanSignals()
	sig.AccountAge = 2 * time.Hour
	sig.OrderCount = 0
	a := Score(sig)
	require.Equal(t, 45, a.Score)
	require.Equal(t, LevelMedium, a.Level)
}

func TestScoreVelocityEscalatesToCritical(t *testing.T) {
	t.Parallel()

	sig := cleanSignals()
	sig.AccountAge = 2 * time.Hour
	sig.OrderCount = 0
	sig.FailedPayments = 5
	sig.LastIntentAt = sig.At.Add(-30 * time.Second)
	a := Score(sig)
	require.GreaterOrEqual(t, a.Score, criticalThreshold)
	require.Equal(t, LevelCritical, a.Level)
	require.True(t, a.Blocked())
}

func TestScoreCapsAtHundred(t *testing.T) {
	t.Parallel()

	sig := Signals{
		Amount:         9_999_00,
		AccountAge:     time.Hour,
		OrderCount:     0,
		FailedPayments: 10,
		LastIntentAt:   time.Date(2026, 8, 28, 2, 59, 40, 0, time.UTC),
		TotalQty:       80,
		MaxLineQty:     20,
		At:             time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC),
	}
	a := Score(sig)
	require.Equal(t, 100, a.Score)
	require.Equal(t, LevelCritical, a.Level)
}

func TestScoreUnusualHourAndQuantities(t *testing.T) {
	t.Parallel()

	sig := cleanSignals()
	sig.At = time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	sig.TotalQty = 60
	sig.MaxLineQty = 15
	a := Score(sig)
	require.Equal(t, 33, a.Score)
	require.Equal(t, LevelMedium, a.Level)
	require.Len(t, a.Reasons, 3)
}
