package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/pricing"
)

const badWeatherMsg = "Delivery fee increased due to bad weather in your area"

func testSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{
		BaseFee: 2500,
		Tiers: []pricing.FeeTier{
			{MinSubtotal: 20000, Fee: 2000},
			{MinSubtotal: 35000, Fee: 1500},
			{MinSubtotal: 50000, Fee: 0},
		},
		BadWeatherFee:     3000,
		BadWeatherMessage: badWeatherMsg,
	}
}

func TestSubtotal(t *testing.T) {
	t.Parallel()

	got, err := pricing.Subtotal([]pricing.Line{
		{Qty: 2, UnitPrice: 4550},
		{Qty: 1, UnitPrice: 900},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(10000), got)

	got, err = pricing.Subtotal(nil)
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestSubtotalRejectsInvalidLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		line pricing.Line
	}{
		{"zero qty", pricing.Line{Qty: 0, UnitPrice: 100}},
		{"negative qty", pricing.Line{Qty: -2, UnitPrice: 100}},
		{"negative price", pricing.Line{Qty: 1, UnitPrice: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pricing.Subtotal([]pricing.Line{tc.line})
			require.ErrorIs(t, err, pricing.ErrInvalidInput)
		})
	}
}

func TestQuoteTiers(t *testing.T) {
	t.Parallel()

	schedule := testSchedule()
	cases := []struct {
		name     string
		subtotal pricing.Money
		fee      pricing.Money
		free     bool
		display  string
	}{
		{"empty cart gets baseline", 0, 2500, false, "₹25"},
		{"below first threshold", 10000, 2500, false, "₹25"},
		{"first threshold inclusive", 20000, 2000, false, "₹20"},
		{"between tiers", 34999, 2000, false, "₹20"},
		{"second threshold inclusive", 35000, 1500, false, "₹15"},
		{"free threshold inclusive", 50000, 0, true, "FREE"},
		{"far above free threshold", 250000, 0, true, "FREE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := schedule.Quote(tc.subtotal, false)
			require.Equal(t, tc.fee, q.Fee)
			require.Equal(t, tc.free, q.Free)
			require.Equal(t, tc.display, q.Display)
			require.False(t, q.WeatherImpact)
			require.Empty(t, q.WeatherMessage)
		})
	}
}

func TestQuoteBadWeatherOverridesTiers(t *testing.T) {
	t.Parallel()

	schedule := testSchedule()
	for _, subtotal := range []pricing.Money{0, 50000, 500000} {
		q := schedule.Quote(subtotal, true)
		require.Equal(t, pricing.Money(3000), q.Fee)
		require.True(t, q.WeatherImpact)
		require.False(t, q.Free, "weather surcharge is never free")
		require.Equal(t, badWeatherMsg, q.WeatherMessage)
		require.Equal(t, "₹30", q.Display)
	}
}

func TestQuoteMonotonicInSubtotal(t *testing.T) {
	t.Parallel()

	schedule := testSchedule()
	prev := schedule.Quote(0, false).Fee
	for subtotal := pricing.Money(0); subtotal <= 60000; subtotal += 500 {
		fee := schedule.Quote(subtotal, false).Fee
		require.LessOrEqual(t, fee, prev, "fee must never increase with subtotal (at %d)", subtotal)
		prev = fee
	}
}

func TestTax(t *testing.T) {
	t.Parallel()

	require.Equal(t, pricing.Money(200), pricing.Tax(10000, 200))
	require.Equal(t, pricing.Money(0), pricing.Tax(0, 200))
	require.Equal(t, pricing.Money(0), pricing.Tax(10000, 0))
	// tax base excludes fee and discount; sub-paise precision truncates
	require.Equal(t, pricing.Money(2), pricing.Tax(105, 200))
}

func TestApplyCoupon(t *testing.T) {
	t.Parallel()

	schedule := testSchedule()
	quote := schedule.Quote(10000, false)

	t.Run("nil coupon is a no-op", func(t *testing.T) {
		q, discount, capped, err := pricing.ApplyCoupon(10000, 200, quote, nil)
		require.NoError(t, err)
		require.Equal(t, quote, q)
		require.Zero(t, discount)
		require.False(t, capped)
	})

	t.Run("negative discount rejected", func(t *testing.T) {
		_, _, _, err := pricing.ApplyCoupon(10000, 200, quote, &pricing.Coupon{Code: "BAD", Discount: -1})
		require.ErrorIs(t, err, pricing.ErrInvalidInput)
	})

	t.Run("free delivery overrides weather surcharge", func(t *testing.T) {
		stormy := schedule.Quote(10000, true)
		q, discount, capped, err := pricing.ApplyCoupon(10000, 200, stormy, &pricing.Coupon{Code: "FREESHIP", FreeDelivery: true})
		require.NoError(t, err)
		require.Zero(t, q.Fee)
		require.True(t, q.Free)
		require.Equal(t, "FREE", q.Display)
		require.Zero(t, discount)
		require.False(t, capped)
	})

	t.Run("discount clamped to payable amount", func(t *testing.T) {
		// subtotal ₹50, tax ₹1, fee ₹25, raw discount ₹1000 → clamp at ₹76
		q := pricing.DeliveryQuote{Fee: 2500, Display: "₹25"}
		q, discount, capped, err := pricing.ApplyCoupon(5000, 100, q, &pricing.Coupon{Code: "MEGA", Discount: 100000})
		require.NoError(t, err)
		require.Equal(t, pricing.Money(7600), discount)
		require.True(t, capped)
		require.Equal(t, pricing.Money(0), pricing.GrandTotal(5000, q.Fee, 100, discount))
	})
}

func TestGrandTotalRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  pricing.Money
		want pricing.Money
	}{
		{"exact rupee", 10000, 10000},
		{"half rounds up", 10050, 10100},
		{"below half rounds down", 10049, 10000},
		{"just above half rounds up", 10051, 10100},
		{"zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pricing.GrandTotal(tc.raw, 0, 0, 0))
		})
	}
	// defensive floor: never a negative total
	require.Equal(t, pricing.Money(0), pricing.GrandTotal(100, 0, 0, 500))
}

func TestComputeBaselineScenario(t *testing.T) {
	t.Parallel()

	// subtotal ₹100, good weather, no coupon
	summary, err := pricing.Compute([]pricing.Line{{Qty: 1, UnitPrice: 10000}}, false, nil, testSchedule(), 200)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(10000), summary.Subtotal)
	require.Equal(t, pricing.Money(200), summary.Tax)
	require.Equal(t, pricing.Money(2500), summary.Delivery.Fee)
	require.Zero(t, summary.Discount)
	require.Equal(t, pricing.Money(12700), summary.Total)
}

func TestComputeWeatherScenario(t *testing.T) {
	t.Parallel()

	// subtotal ₹500 would normally be free delivery; bad weather wins
	summary, err := pricing.Compute([]pricing.Line{{Qty: 5, UnitPrice: 10000}}, true, nil, testSchedule(), 200)
	require.NoError(t, err)
	require.True(t, summary.Delivery.WeatherImpact)
	require.False(t, summary.Delivery.Free)
	require.Equal(t, pricing.Money(3000), summary.Delivery.Fee)
}

func TestComputeFreeDeliveryThresholdScenario(t *testing.T) {
	t.Parallel()

	summary, err := pricing.Compute([]pricing.Line{{Qty: 1, UnitPrice: 50000}}, false, nil, testSchedule(), 200)
	require.NoError(t, err)
	require.True(t, summary.Delivery.Free)
	require.Zero(t, summary.Delivery.Fee)
	require.Equal(t, "FREE", summary.Delivery.Display)
}

func TestComputeCouponClampScenario(t *testing.T) {
	t.Parallel()

	summary, err := pricing.Compute(
		[]pricing.Line{{Qty: 1, UnitPrice: 5000}},
		false,
		&pricing.Coupon{Code: "MEGA", Discount: 100000},
		testSchedule(),
		200,
	)
	require.NoError(t, err)
	require.True(t, summary.DiscountCapped)
	require.Equal(t, summary.Subtotal+summary.Tax+summary.Delivery.Fee, summary.Discount)
	require.Zero(t, summary.Total)
}

func TestComputeIsDeterministic(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{{Qty: 3, UnitPrice: 4599}, {Qty: 1, UnitPrice: 12050}}
	coupon := &pricing.Coupon{Code: "SAVE20", Discount: 2000}
	first, err := pricing.Compute(lines, true, coupon, testSchedule(), 200)
	require.NoError(t, err)
	second, err := pricing.Compute(lines, true, coupon, testSchedule(), 200)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeNonNegativeTotal(t *testing.T) {
	t.Parallel()

	schedule := testSchedule()
	for _, qty := range []int{1, 2, 7} {
		for _, price := range []pricing.Money{0, 99, 4550, 100000} {
			for _, discount := range []pricing.Money{0, 500, 1000000} {
				summary, err := pricing.Compute(
					[]pricing.Line{{Qty: qty, UnitPrice: price}},
					false,
					&pricing.Coupon{Code: "X", Discount: discount},
					schedule,
					200,
				)
				require.NoError(t, err)
				require.GreaterOrEqual(t, summary.Total, pricing.Money(0))
			}
		}
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	require.Equal(t, "₹25", pricing.FormatMoney(2500))
	require.Equal(t, "₹25.50", pricing.FormatMoney(2550))
	require.Equal(t, "₹0", pricing.FormatMoney(0))
	require.Equal(t, "-₹1.05", pricing.FormatMoney(-105))
}
