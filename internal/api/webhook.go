/**
 * @description
 * This file contains the HTTP handler for processing incoming PayPal webhooks.
 * Subscription lifecycle events (activation, payment, cancellation) trigger the
 * same reconciliation path as an on-demand verify, so the workspace billing
 * record converges on PayPal's view regardless of which signal arrives first.
 *
 * Key features:
 * - Security: validates the HMAC-SHA256 signature of incoming webhooks.
 * - Routing: only subscription and sale events trigger reconciliation; all
 *   other event types are acknowledged and ignored.
 */
package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/langeval/billing-service/internal/domain"
)

// SignatureHeader carries the base64 HMAC-SHA256 digest of the webhook body.
const SignatureHeader = "X-Paypal-Transmission-Sig"

// SubscriptionVerifier triggers a reconciliation for one subscription.
type SubscriptionVerifier interface {
	VerifySubscription(ctx context.Context, subscriptionID string) (*domain.VerificationResult, error)
}

// WebhookHandler processes incoming webhooks from PayPal.
type WebhookHandler struct {
	verifier SubscriptionVerifier
	secret   string
	logger   *slog.Logger
}

// NewWebhookHandler creates a new handler for the webhook endpoint.
func NewWebhookHandler(verifier SubscriptionVerifier, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, secret: secret, logger: logger}
}

// ServeHTTP implements the http.Handler interface.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	if !h.isValidSignature(r.Header.Get(SignatureHeader), body) {
		h.logger.Warn("rejected webhook with invalid signature", "remote_addr", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event domain.PayPalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if !isBillingEvent(event.EventType) || event.Resource.ID == "" {
		// Acknowledge so PayPal does not retry events we never act on.
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("processing paypal webhook",
		"event_id", event.ID,
		"event_type", event.EventType,
		"subscription_id", event.Resource.ID,
	)

	if _, err := h.verifier.VerifySubscription(r.Context(), event.Resource.ID); err != nil {
		h.logger.Error("webhook reconciliation failed",
			"event_id", event.ID,
			"subscription_id", event.Resource.ID,
			"error", err,
		)
		// Non-2xx makes PayPal redeliver, which retries the reconciliation.
		http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// isBillingEvent reports whether the event type can change a subscription's
// billing state.
func isBillingEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "BILLING.SUBSCRIPTION.") ||
		eventType == "PAYMENT.SALE.COMPLETED"
}

func (h *WebhookHandler) isValidSignature(signature string, body []byte) bool {
	if h.secret == "" {
		// No secret configured (mock mode / local dev): accept everything.
		return true
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
