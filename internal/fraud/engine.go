// Package fraud scores payment attempts for risk before an intent is opened.
// The scorer itself is pure; the service gathers its signals from the store.
package fraud

import "time"

// Risk levels, ordered by severity.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Score thresholds between risk levels.
const (
	mediumThreshold   = 30
	highThreshold     = 60
	criticalThreshold = 80
)

// Velocity and amount limits, in paise.
const (
	veryHighAmount  = 100_000_00 // ₹1 lakh
	highAmount      = 50_000_00  // ₹50,000
	roundAmountMin  = 10_000_00  // ₹10,000
	roundAmountStep = 1_000_00   // whole thousands of rupees
)

// Amounts just below common instrument limits draw attention.
var suspiciousAmounts = map[int64]bool{
	9_999_00:  true,
	19_999_00: true,
	49_999_00: true,
}

// Signals are the facts about a payment attempt the scorer weighs.
type Signals struct {
	Amount         int64 // paise
	PaymentMethod  string
	AccountAge     time.Duration
	OrderCount     int64
	FailedPayments int64 // within the recent window
	LastIntentAt   time.Time
	TotalQty       int32
	MaxLineQty     int32
	At             time.Time
}

// Assessment is the scored outcome for a payment attempt.
type Assessment struct {
	Score   int
	Level   string
	Reasons []string
}

// Blocked reports whether the attempt should be refused outright.
func (a Assessment) Blocked() bool {
	return a.Level == LevelCritical
}

// Score rates a payment attempt from 0 (clean) to 100 (block).
func Score(sig Signals) Assessment {
	score := 0
	var reasons []string
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if suspiciousAmounts[sig.Amount] {
		add(25, "amount just below a common limit")
	}
	if sig.Amount >= roundAmountMin && sig.Amount%roundAmountStep == 0 {
		add(10, "large round amount")
	}
	switch {
	case sig.Amount > veryHighAmount:
		add(15, "very high amount")
	case sig.Amount > highAmount:
		add(8, "high amount")
	}

	switch {
	case sig.AccountAge < 24*time.Hour:
		add(25, "account younger than a day")
	case sig.AccountAge < 7*24*time.Hour:
		add(15, "account younger than a week")
	case sig.AccountAge < 30*24*time.Hour:
		add(5, "account younger than a month")
	}

	switch {
	case sig.OrderCount == 0:
		add(20, "first order")
	case sig.OrderCount < 3:
		add(10, "limited order history")
	}

	switch {
	case sig.FailedPayments > 3:
		add(20, "multiple recent failed payments")
	case sig.FailedPayments > 1:
		add(10, "recent failed payments")
	}

	if !sig.LastIntentAt.IsZero() && !sig.At.IsZero() {
		gap := sig.At.Sub(sig.LastIntentAt)
		switch {
		case gap < time.Minute:
			add(20, "payment attempted within a minute of the last")
		case gap < 5*time.Minute:
			add(10, "rapid successive payment attempts")
		}
	}

	if !sig.At.IsZero() {
		hour := sig.At.Hour()
		if hour < 6 || hour > 23 {
			add(10, "unusual hour")
		}
	}

	if sig.TotalQty > 50 {
		add(15, "unusually large basket quantity")
	}
	if sig.MaxLineQty > 10 {
		add(8, "large quantity of a single item")
	}

	if score > 100 {
		score = 100
	}
	return Assessment{Score: score, Level: level(score), Reasons: reasons}
}

func level(score int) string {
	switch {
	case score < mediumThreshold:
		return LevelLow
	case score < highThreshold:
		return LevelMedium
	case score < criticalThreshold:
		return LevelHigh
	default:
		return LevelCritical
	}
}
