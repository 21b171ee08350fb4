/**
 * @description
 * This file defines the core domain models for the billing-service.
 * It includes the request/result shapes for subscription creation and
 * verification, plus the workspace billing record persisted in the database.
 */
package domain

import (
	"errors"
	"time"
)

// ErrUnknownPlan is returned when a plan name has no configured PayPal plan ID.
// The lookup happens before any network call is made.
var ErrUnknownPlan = errors.New("no paypal plan id mapped for plan")

// SubscriptionRequest carries the intent to start billing a workspace.
type SubscriptionRequest struct {
	PlanName    string `json:"plan_name"`
	WorkspaceID string `json:"workspace_id"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

// SubscriptionLink is a single HATEOAS link returned by PayPal on creation.
type SubscriptionLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// SubscriptionCreation is the outcome of creating a subscription with the provider.
type SubscriptionCreation struct {
	ID     string             `json:"id"`
	Status string             `json:"status"`
	Links  []SubscriptionLink `json:"links"`
}

// ApprovalURL returns the link the payer must visit to authorize the subscription.
// An empty return value means the provider sent no approve link, which is a
// caller-visible condition rather than an error.
func (c SubscriptionCreation) ApprovalURL() string {
	for _, link := range c.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

// Payment describes the most recent completed charge on a subscription.
type Payment struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	TransactionID string  `json:"transaction_id"`
}

// VerificationResult merges provider-reported subscription status with the most
// recent completed transaction found inside the lookback window.
// LastPayment is nil when no COMPLETED transaction was found; that is a valid
// outcome (e.g. a subscription that has not billed yet), not a failure.
type VerificationResult struct {
	Status          string     `json:"status"`
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
	LastPayment     *Payment   `json:"last_payment,omitempty"`
}

// WorkspaceBilling represents the billing record for a workspace in the database.
type WorkspaceBilling struct {
	WorkspaceID     string     `json:"workspace_id"`
	SubscriptionID  string     `json:"subscription_id"`
	PlanName        string     `json:"plan_name"`
	Status          string     `json:"status"`
	LastPaymentAmt  *float64   `json:"last_payment_amount,omitempty"`
	LastPaymentCcy  *string    `json:"last_payment_currency,omitempty"`
	LastTxnID       *string    `json:"last_transaction_id,omitempty"`
	NextBillingTime *time.Time `json:"next_billing_time,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
