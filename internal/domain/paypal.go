/**
 * @description
 * This file defines the Go structs that map to the PayPal REST API payloads
 * consumed by the billing-service. These models are used to construct request
 * bodies and parse responses when communicating with PayPal.
 *
 * @notes
 * - The `json:"..."` tags are crucial for correct serialization and deserialization
 *   of JSON data.
 * - Only the fields the service actually reads are modeled; PayPal responses
 *   carry many more fields that are intentionally ignored.
 */
package domain

// --- OAuth2 token exchange ---

// PayPalAccessTokenResponse is the response from POST /v1/oauth2/token.
type PayPalAccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// --- Create subscription ---

// PayPalApplicationContext carries the fixed checkout context sent on creation.
type PayPalApplicationContext struct {
	BrandName          string `json:"brand_name"`
	Locale             string `json:"locale"`
	ShippingPreference string `json:"shipping_preference"`
	UserAction         string `json:"user_action"`
	ReturnURL          string `json:"return_url"`
	CancelURL          string `json:"cancel_url"`
}

// PayPalCreateSubscriptionRequest is the body for POST /v1/billing/subscriptions.
// CustomID carries the workspace id so the activation webhook can be linked back.
type PayPalCreateSubscriptionRequest struct {
	PlanID             string                   `json:"plan_id"`
	CustomID           string                   `json:"custom_id"`
	ApplicationContext PayPalApplicationContext `json:"application_context"`
}

// PayPalSubscriptionResponse is the response after creating a subscription.
type PayPalSubscriptionResponse struct {
	ID     string             `json:"id"`
	Status string             `json:"status"`
	Links  []SubscriptionLink `json:"links"`
}

// --- Subscription detail ---

// PayPalBillingInfo is the nested billing_info object on a subscription resource.
type PayPalBillingInfo struct {
	NextBillingTime string `json:"next_billing_time"`
}

// PayPalSubscriptionDetail is the response from GET /v1/billing/subscriptions/{id}.
type PayPalSubscriptionDetail struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	BillingInfo *PayPalBillingInfo `json:"billing_info,omitempty"`
}

// --- Transaction list ---

// PayPalMoney is a decimal amount paired with its ISO currency code.
// PayPal serializes the value as a decimal string.
type PayPalMoney struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

// PayPalAmountBreakdown wraps the gross amount of a transaction.
type PayPalAmountBreakdown struct {
	GrossAmount PayPalMoney `json:"gross_amount"`
}

// PayPalTransaction is a single entry in a subscription's transaction history.
type PayPalTransaction struct {
	ID                  string                `json:"id"`
	Status              string                `json:"status"`
	AmountWithBreakdown PayPalAmountBreakdown `json:"amount_with_breakdown"`
}

// PayPalTransactionList is the response from
// GET /v1/billing/subscriptions/{id}/transactions.
type PayPalTransactionList struct {
	Transactions []PayPalTransaction `json:"transactions"`
}

// --- Webhooks ---

// PayPalWebhookResource is the resource object embedded in a webhook event.
// For subscription events the resource id is the subscription id and custom_id
// is the workspace id we attached at creation time.
type PayPalWebhookResource struct {
	ID       string `json:"id"`
	CustomID string `json:"custom_id"`
	Status   string `json:"status"`
}

// PayPalWebhookEvent is the envelope PayPal posts to our webhook endpoint.
type PayPalWebhookEvent struct {
	ID        string                `json:"id"`
	EventType string                `json:"event_type"`
	Resource  PayPalWebhookResource `json:"resource"`
}
