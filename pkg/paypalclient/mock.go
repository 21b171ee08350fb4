/**
 * @description
 * This file implements the deterministic mock variant of the Provider interface.
 * It is selected at construction when the configured client id is the
 * well-known placeholder, and lets the whole service run and demo without
 * live PayPal credentials. The mock never touches the network and never fails.
 */
package paypalclient

import (
	"context"

	"github.com/langeval/billing-service/internal/domain"
)

const mockAccessToken = "mock_access_token"

// MockClient is a deterministic, network-free Provider implementation.
type MockClient struct{}

// NewMockClient creates the mock provider.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AccessToken always returns the fixed sentinel token.
func (m *MockClient) AccessToken(_ context.Context) (string, error) {
	return mockAccessToken, nil
}

// CreateSubscription synthesizes a subscription id and an approve link derived
// from the workspace id.
func (m *MockClient) CreateSubscription(_ context.Context, _ string, req domain.SubscriptionRequest) (*domain.SubscriptionCreation, error) {
	return &domain.SubscriptionCreation{
		ID:     "I-MOCKSUB" + prefix(req.WorkspaceID, 8),
		Status: "APPROVAL_PENDING",
		Links: []domain.SubscriptionLink{
			{
				Href: "https://www.sandbox.paypal.com/webapps/billing/subscriptions?ba_token=TEST-" + req.WorkspaceID,
				Rel:  "approve",
			},
		},
	}, nil
}

// VerifySubscription synthesizes an ACTIVE result with a payment whose
// transaction id is derived from the subscription id.
func (m *MockClient) VerifySubscription(_ context.Context, subscriptionID string) (*domain.VerificationResult, error) {
	return &domain.VerificationResult{
		Status: "ACTIVE",
		LastPayment: &domain.Payment{
			Amount:        90.0,
			Currency:      "USD",
			TransactionID: "MOCK-TXN-" + suffix(subscriptionID, 8),
		},
	}, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
