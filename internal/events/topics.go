package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentSucceeded   = "payment.succeeded"
	TopicPaymentFailed      = "payment.failed"
	TopicCouponRedeemed     = "coupon.redeemed"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderCancelled,
		TopicOrderStatusChanged,
		TopicPaymentSucceeded,
		TopicPaymentFailed,
		TopicCouponRedeemed,
	}
}
