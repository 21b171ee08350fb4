package paypalclient

import (
	"context"
	"testing"

	"github.com/langeval/billing-service/internal/domain"
)

func TestNew_SelectsMockForPlaceholderClientID(t *testing.T) {
	provider := New(Config{ClientID: MockClientID}, testLogger())
	if _, ok := provider.(*MockClient); !ok {
		t.Fatalf("expected *MockClient for placeholder client id, got %T", provider)
	}

	provider = New(Config{ClientID: "real-client-id"}, testLogger())
	if _, ok := provider.(*Client); !ok {
		t.Fatalf("expected *Client for real credentials, got %T", provider)
	}
}

func TestMockClient_AccessTokenIsFixedSentinel(t *testing.T) {
	mock := NewMockClient()
	for i := 0; i < 3; i++ {
		token, err := mock.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("AccessToken returned error: %v", err)
		}
		if token != "mock_access_token" {
			t.Fatalf("expected sentinel token, got %q", token)
		}
	}
}

func TestMockClient_CreateDerivesFromWorkspaceID(t *testing.T) {
	mock := NewMockClient()
	creation, err := mock.CreateSubscription(context.Background(), "P-IGNORED", domain.SubscriptionRequest{
		WorkspaceID: "workspace-1234",
	})
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}

	if creation.ID != "I-MOCKSUBworkspac" {
		t.Fatalf("expected id derived from workspace id, got %q", creation.ID)
	}
	if creation.Status != "APPROVAL_PENDING" {
		t.Fatalf("expected APPROVAL_PENDING, got %q", creation.Status)
	}
	if len(creation.Links) != 1 || creation.Links[0].Rel != "approve" {
		t.Fatalf("expected exactly one approve link, got %+v", creation.Links)
	}
	if got := creation.ApprovalURL(); got == "" {
		t.Fatal("expected a non-empty approval url")
	}
}

func TestMockClient_VerifyIsDeterministic(t *testing.T) {
	mock := NewMockClient()

	first, err := mock.VerifySubscription(context.Background(), "I-SUBSCRIPTION42")
	if err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	second, err := mock.VerifySubscription(context.Background(), "I-SUBSCRIPTION42")
	if err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}

	if first.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE, got %q", first.Status)
	}
	if first.LastPayment == nil || first.LastPayment.Amount != 90.0 || first.LastPayment.Currency != "USD" {
		t.Fatalf("unexpected payment %+v", first.LastPayment)
	}
	if first.LastPayment.TransactionID != "MOCK-TXN-IPTION42" {
		t.Fatalf("expected transaction id derived from subscription id, got %q", first.LastPayment.TransactionID)
	}
	if *first.LastPayment != *second.LastPayment || first.Status != second.Status {
		t.Fatal("expected identical results across calls")
	}
}

func TestMockClient_ShortIdentifiers(t *testing.T) {
	mock := NewMockClient()

	creation, err := mock.CreateSubscription(context.Background(), "", domain.SubscriptionRequest{WorkspaceID: "ws1"})
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	if creation.ID != "I-MOCKSUBws1" {
		t.Fatalf("expected short workspace id to be used whole, got %q", creation.ID)
	}

	result, err := mock.VerifySubscription(context.Background(), "I-1")
	if err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	if result.LastPayment.TransactionID != "MOCK-TXN-I-1" {
		t.Fatalf("expected short subscription id to be used whole, got %q", result.LastPayment.TransactionID)
	}
}
