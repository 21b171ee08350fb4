/**
 * @description
 * This file defines the internal event payloads the billing-service publishes
 * to RabbitMQ after reconciling a subscription against PayPal.
 */
package domain

import "time"

// Routing keys used on the billing events exchange.
const (
	EventSubscriptionActivated = "billing.subscription.activated"
	EventSubscriptionLapsed    = "billing.subscription.lapsed"
)

// SubscriptionEvent is published after a reconciliation settles a workspace's
// billing state. Consumers use WorkspaceID to update their own records.
type SubscriptionEvent struct {
	EventID         string     `json:"event_id"`
	WorkspaceID     string     `json:"workspace_id"`
	SubscriptionID  string     `json:"subscription_id"`
	Status          string     `json:"status"`
	PaymentAmount   float64    `json:"payment_amount"`
	PaymentCurrency string     `json:"payment_currency"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}
