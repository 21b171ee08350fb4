/**
 * @description
 * This package provides a client for interacting with the PayPal Subscriptions API.
 * It encapsulates the OAuth2 client-credentials token exchange, subscription
 * creation, and the reconciliation of a subscription's status against its recent
 * transaction history.
 *
 * Key features:
 * - A Provider interface with two implementations: the real HTTP client in this
 *   file and a deterministic mock in mock.go, selected once at construction.
 * - Typed errors (AuthError, APIError) carrying the HTTP status code and raw
 *   response body for easier debugging against PayPal's dashboard.
 * - No internal retries or token caching; callers own any resilience policy.
 *
 * @dependencies
 * - github.com/langeval/billing-service/internal/domain: PayPal request/response structs.
 */
package paypalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/langeval/billing-service/internal/domain"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"

	// MockClientID is the well-known placeholder client id that switches the
	// whole service into mock mode. See New.
	MockClientID = "mock_client_id"

	// lookbackWindow bounds the transaction-history query. Billing cycles are
	// monthly or longer, so a charge that just posted is virtually always
	// within 3 days of "now".
	lookbackWindow = 72 * time.Hour
)

// AuthError surfaces a rejected token exchange.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("paypal auth failed: status=%d body=%s", e.StatusCode, e.Body)
}

// APIError surfaces a non-successful HTTP response from a PayPal billing endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Provider is the capability the rest of the service programs against.
// It is implemented by Client (real HTTP) and MockClient (deterministic fake).
type Provider interface {
	// AccessToken performs the OAuth2 client-credentials exchange and returns
	// a bearer token. No caching; each call may re-authenticate.
	AccessToken(ctx context.Context) (string, error)

	// CreateSubscription creates a subscription on the resolved PayPal plan and
	// returns the provider's id, status, and links (including the approve link).
	CreateSubscription(ctx context.Context, planID string, req domain.SubscriptionRequest) (*domain.SubscriptionCreation, error)

	// VerifySubscription fetches the subscription's current status and scans the
	// last 3 days of its transaction history for the most recent completed charge.
	VerifySubscription(ctx context.Context, subscriptionID string) (*domain.VerificationResult, error)
}

// Config carries the credentials and environment selection for the client.
type Config struct {
	ClientID     string
	ClientSecret string
	// Mode selects the API host: "live" targets production, anything else sandbox.
	Mode string
	// BaseURL overrides the mode-derived host when set. Used by tests.
	BaseURL string
}

// New selects the Provider implementation once, at construction: the
// deterministic mock when the configured client id is the well-known
// placeholder, the real HTTP client otherwise.
func New(cfg Config, logger *slog.Logger) Provider {
	if cfg.ClientID == MockClientID {
		return NewMockClient()
	}
	return NewClient(cfg, logger)
}

// Client is the real HTTP implementation of Provider.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a PayPal API client for the environment named in cfg.Mode.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if cfg.Mode == "live" {
			baseURL = liveBaseURL
		}
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// AccessToken exchanges the configured client credentials for a bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send token request to paypal: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("paypal token exchange rejected", "status", resp.StatusCode, "body", string(body))
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp domain.PayPalAccessTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}

// CreateSubscription creates a new subscription on the given PayPal plan.
// The workspace id travels as custom_id so the activation webhook can be
// linked back to the workspace when it fires.
func (c *Client) CreateSubscription(ctx context.Context, planID string, req domain.SubscriptionRequest) (*domain.SubscriptionCreation, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := domain.PayPalCreateSubscriptionRequest{
		PlanID:   planID,
		CustomID: req.WorkspaceID,
		ApplicationContext: domain.PayPalApplicationContext{
			BrandName:          "Langeval Platform",
			Locale:             "en-US",
			ShippingPreference: "NO_SHIPPING",
			UserAction:         "SUBSCRIBE_NOW",
			ReturnURL:          req.ReturnURL,
			CancelURL:          req.CancelURL,
		},
	}

	status, body, err := c.doJSON(ctx, http.MethodPost, "/v1/billing/subscriptions", token, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		c.logger.Error("paypal subscription create failed", "status", status, "body", string(body))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var subResp domain.PayPalSubscriptionResponse
	if err := json.Unmarshal(body, &subResp); err != nil {
		return nil, fmt.Errorf("failed to decode subscription create response: %w", err)
	}
	if subResp.ID == "" {
		return nil, errors.New("subscription create response missing id")
	}

	return &domain.SubscriptionCreation{
		ID:     subResp.ID,
		Status: subResp.Status,
		Links:  subResp.Links,
	}, nil
}

// VerifySubscription reconciles a subscription's lifecycle status with its
// recent transaction history. Both provider calls reuse one acquired token and
// either call failing is fatal to the whole operation; there is no partial
// status-only result, so the payment fields are always trustworthy.
func (c *Client) VerifySubscription(ctx context.Context, subscriptionID string) (*domain.VerificationResult, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.doJSON(ctx, http.MethodGet, "/v1/billing/subscriptions/"+url.PathEscape(subscriptionID), token, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Error("paypal subscription lookup failed", "subscription_id", subscriptionID, "status", status, "body", string(body))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var detail domain.PayPalSubscriptionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode subscription detail: %w", err)
	}
	if detail.Status == "" {
		return nil, errors.New("subscription detail missing status")
	}

	result := &domain.VerificationResult{
		Status:          detail.Status,
		NextBillingTime: parseNextBillingTime(detail.BillingInfo),
	}

	// Query the last 3 days of transactions to catch the most recent charge.
	end := time.Now().UTC()
	start := end.Add(-lookbackWindow)

	query := url.Values{}
	query.Set("start_time", start.Format(time.RFC3339))
	query.Set("end_time", end.Format(time.RFC3339))
	txnPath := "/v1/billing/subscriptions/" + url.PathEscape(subscriptionID) + "/transactions?" + query.Encode()

	status, body, err = c.doJSON(ctx, http.MethodGet, txnPath, token, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Error("paypal transaction lookup failed", "subscription_id", subscriptionID, "status", status, "body", string(body))
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var txnList domain.PayPalTransactionList
	if err := json.Unmarshal(body, &txnList); err != nil {
		return nil, fmt.Errorf("failed to decode transaction list: %w", err)
	}

	// First COMPLETED entry in provider order. PayPal returns transactions
	// most-recent-first within the queried window.
	for _, txn := range txnList.Transactions {
		if txn.Status != "COMPLETED" {
			continue
		}
		payment, err := paymentFromTransaction(txn)
		if err != nil {
			return nil, err
		}
		result.LastPayment = payment
		break
	}

	return result, nil
}

// doJSON performs an authenticated request and returns the status and raw body.
// Transport-level failures (including context cancellation) come back as errors;
// HTTP-level failures are left to the caller so it can attach operation context.
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request to paypal: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// parseNextBillingTime extracts the optional next billing timestamp. A missing
// billing_info object or an unparseable timestamp is treated as absent.
func parseNextBillingTime(info *domain.PayPalBillingInfo) *time.Time {
	if info == nil || info.NextBillingTime == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, info.NextBillingTime)
	if err != nil {
		return nil
	}
	return &t
}

func paymentFromTransaction(txn domain.PayPalTransaction) (*domain.Payment, error) {
	gross := txn.AmountWithBreakdown.GrossAmount

	amount := 0.0
	if gross.Value != "" {
		parsed, err := strconv.ParseFloat(gross.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction amount %q: %w", gross.Value, err)
		}
		amount = parsed
	}

	currency := gross.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	return &domain.Payment{
		Amount:        amount,
		Currency:      currency,
		TransactionID: txn.ID,
	}, nil
}
