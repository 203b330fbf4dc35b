package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by result.
	CheckoutTotal *prometheus.CounterVec
	// CouponApplyTotal counts coupon application outcomes.
	CouponApplyTotal *prometheus.CounterVec
	// CouponClampTotal counts discounts that had to be clamped to the payable amount.
	CouponClampTotal prometheus.Counter
	// WeatherSurchargeTotal counts delivery quotes issued with the bad-weather surcharge.
	WeatherSurchargeTotal prometheus.Counter
	// WeatherLookupTotal counts weather status lookups by source and result.
	WeatherLookupTotal *prometheus.CounterVec
	// PaymentIntentTotal counts payment intent creation outcomes.
	PaymentIntentTotal *prometheus.CounterVec
	// FraudAssessmentTotal counts payment risk assessments by level.
	FraudAssessmentTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon application outcomes.",
		}, []string{"result"})
		CouponClampTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_clamp_total",
			Help:      "Number of coupon discounts clamped to the payable amount.",
		})
		WeatherSurchargeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_surcharge_total",
			Help:      "Number of delivery quotes issued with the bad-weather surcharge.",
		})
		WeatherLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookup_total",
			Help:      "Count of weather status lookups by source and result.",
		}, []string{"source", "result"})
		PaymentIntentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent processing outcomes.",
		}, []string{"provider", "channel", "result"})
		FraudAssessmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fraud_assessment_total",
			Help:      "Count of payment risk assessments by level.",
		}, []string{"level"})

		registerDomainCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		registerDomainCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
		registerDomainCollector(reg, CouponClampTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CouponClampTotal = v
			}
		})
		registerDomainCollector(reg, WeatherSurchargeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				WeatherSurchargeTotal = v
			}
		})
		registerDomainCollector(reg, WeatherLookupTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WeatherLookupTotal = v
			}
		})
		registerDomainCollector(reg, PaymentIntentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentIntentTotal = v
			}
		})
		registerDomainCollector(reg, FraudAssessmentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FraudAssessmentTotal = v
			}
		})
	})
}

func registerDomainCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
