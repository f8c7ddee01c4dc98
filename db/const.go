package db

// Provider identifies the payment provider a record belongs to.
type Provider string

const (
	ProviderSquare Provider = "square"
	ProviderStripe Provider = "stripe"
)

// SubscriptionStatus is the local, provider-agnostic billing state of an
// organization. Provider webhook payloads are mapped into these values.
type SubscriptionStatus string

const (
	// StatusActive means the subscription is paid up and entitled.
	StatusActive SubscriptionStatus = "active"
	// StatusTrialing means the subscription is inside a free trial window.
	StatusTrialing SubscriptionStatus = "trialing"
	// StatusPendingCancellation means the provider object is still active but
	// a cancellation has been scheduled; entitlements remain until CancelAt.
	StatusPendingCancellation SubscriptionStatus = "pending_cancellation"
	// StatusPastDue means the latest invoice failed and the provider is retrying.
	StatusPastDue SubscriptionStatus = "past_due"
	// StatusPaused means charging is suspended at the provider.
	StatusPaused SubscriptionStatus = "paused"
	// StatusCanceled means the subscription has terminated.
	StatusCanceled SubscriptionStatus = "canceled"
	// StatusIncomplete means the subscription was created but has not become
	// active yet (first charge pending or failed).
	StatusIncomplete SubscriptionStatus = "incomplete"
)

// Entitled reports whether a status grants access to the paid features.
func (s SubscriptionStatus) Entitled() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPendingCancellation:
		return true
	default:
		return false
	}
}

// BillingPeriod is the charge cadence of a subscription plan.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodAnnual  BillingPeriod = "annual"
)
