package pricing

import "errors"

// Money represents a monetary value stored in minor units (paise).
type Money = int64

// RupeeMinorUnits is the number of minor units in one display unit.
const RupeeMinorUnits Money = 100

// ErrInvalidInput is returned when a line or coupon carries values the engine
// refuses to compute with (negative quantity, price or discount).
var ErrInvalidInput = errors.New("pricing: invalid input")

// Line describes a cart line item used for pricing calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// FeeTier maps a minimum cart subtotal to the delivery fee charged at or above it.
type FeeTier struct {
	MinSubtotal Money
	Fee         Money
}

// FeeSchedule captures the delivery fee rules: a flat bad-weather surcharge and
// good-weather tiers keyed by cart subtotal. Tiers must be sorted by ascending
// MinSubtotal; the last qualifying tier wins, so the top tier can carry a zero
// fee to model free delivery.
type FeeSchedule struct {
	BaseFee           Money
	Tiers             []FeeTier
	BadWeatherFee     Money
	BadWeatherMessage string
}

// DeliveryQuote is the outcome of the fee tiering rule for a single computation.
type DeliveryQuote struct {
	Fee            Money
	Free           bool
	WeatherImpact  bool
	WeatherMessage string
	Display        string
}

// Coupon is an already-validated discount descriptor. Validation of whether a
// code is currently active belongs to the coupon service, not the engine.
type Coupon struct {
	Code         string
	Discount     Money
	FreeDelivery bool
}

// Summary aggregates the computed pricing components for one cart state.
// Total is rounded to a whole rupee (a multiple of RupeeMinorUnits); every
// other field keeps full minor-unit precision.
type Summary struct {
	Subtotal       Money
	Tax            Money
	Delivery       DeliveryQuote
	Discount       Money
	DiscountCapped bool
	Total          Money
}

// Subtotal sums unit price times quantity over all lines. Lines with a
// negative price or a quantity below one are rejected outright.
func Subtotal(lines []Line) (Money, error) {
	var total Money
	for _, ln := range lines {
		if ln.Qty < 1 || ln.UnitPrice < 0 {
			return 0, ErrInvalidInput
		}
		total += Money(ln.Qty) * ln.UnitPrice
	}
	return total, nil
}

// Quote resolves the delivery fee for the given subtotal and weather flag.
// Bad weather takes precedence over every subtotal tier and is never free.
// Tier thresholds are inclusive: a subtotal equal to MinSubtotal qualifies.
func (s FeeSchedule) Quote(subtotal Money, badWeather bool) DeliveryQuote {
	if badWeather {
		return DeliveryQuote{
			Fee:            s.BadWeatherFee,
			WeatherImpact:  true,
			WeatherMessage: s.BadWeatherMessage,
			Display:        FormatMoney(s.BadWeatherFee),
		}
	}
	fee := s.BaseFee
	for _, tier := range s.Tiers {
		if subtotal >= tier.MinSubtotal {
			fee = tier.Fee
		}
	}
	q := DeliveryQuote{Fee: fee, Free: fee == 0}
	if q.Free {
		q.Display = "FREE"
	} else {
		q.Display = FormatMoney(fee)
	}
	return q
}

// Tax applies the configured rate (basis points) to the item subtotal. The
// delivery fee and discounts are excluded from the tax base, and no rounding
// happens here; precision is only dropped at the grand-total stage.
func Tax(subtotal Money, rateBps int) Money {
	if subtotal <= 0 || rateBps <= 0 {
		return 0
	}
	return subtotal * Money(rateBps) / 10000
}

// ApplyCoupon folds a validated coupon into the running totals. A free-delivery
// coupon zeroes the fee regardless of weather or tiering. The discount is
// clamped to the payable amount (subtotal + tax + fee after any override) so the
// grand total can never go negative; the returned capped flag tells the caller
// the clamp fired so the UI can surface it.
func ApplyCoupon(subtotal, tax Money, quote DeliveryQuote, c *Coupon) (DeliveryQuote, Money, bool, error) {
	if c == nil {
		return quote, 0, false, nil
	}
	if c.Discount < 0 {
		return quote, 0, false, ErrInvalidInput
	}
	if c.FreeDelivery {
		quote.Fee = 0
		quote.Free = true
		quote.Display = "FREE"
	}
	discount := c.Discount
	payable := subtotal + tax + quote.Fee
	capped := false
	if discount > payable {
		discount = payable
		capped = true
	}
	return quote, discount, capped, nil
}

// GrandTotal combines the components and rounds half-up to a whole rupee.
// A negative raw amount is unreachable when the coupon clamp ran, but the
// result is floored at zero as a last line of defence.
func GrandTotal(subtotal, fee, tax, discount Money) Money {
	raw := subtotal + fee + tax - discount
	if raw < 0 {
		return 0
	}
	return roundHalfUpRupee(raw)
}

func roundHalfUpRupee(v Money) Money {
	return (v + RupeeMinorUnits/2) / RupeeMinorUnits * RupeeMinorUnits
}

// Compute runs the full pipeline: subtotal, delivery tiering, tax, coupon
// application and the rounded grand total. It is pure and safe for concurrent
// use; all inputs arrive as already-resolved values.
func Compute(lines []Line, badWeather bool, c *Coupon, schedule FeeSchedule, taxBps int) (Summary, error) {
	subtotal, err := Subtotal(lines)
	if err != nil {
		return Summary{}, err
	}
	quote := schedule.Quote(subtotal, badWeather)
	tax := Tax(subtotal, taxBps)
	quote, discount, capped, err := ApplyCoupon(subtotal, tax, quote, c)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Subtotal:       subtotal,
		Tax:            tax,
		Delivery:       quote,
		Discount:       discount,
		DiscountCapped: capped,
		Total:          GrandTotal(subtotal, quote.Fee, tax, discount),
	}, nil
}
