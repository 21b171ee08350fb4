package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/langeval/billing-service/internal/domain"
	"github.com/langeval/billing-service/internal/store"
)

type providerStub struct {
	createCalls int
	verifyCalls int

	creation  *domain.SubscriptionCreation
	createErr error
	result    *domain.VerificationResult
	verifyErr error
}

func (p *providerStub) AccessToken(context.Context) (string, error) {
	return "stub-token", nil
}

func (p *providerStub) CreateSubscription(_ context.Context, planID string, req domain.SubscriptionRequest) (*domain.SubscriptionCreation, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.creation, nil
}

func (p *providerStub) VerifySubscription(_ context.Context, subscriptionID string) (*domain.VerificationResult, error) {
	p.verifyCalls++
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.result, nil
}

type repoStub struct {
	record    *domain.WorkspaceBilling
	getErr    error
	upserts   []domain.WorkspaceBilling
	upsertErr error
	pending   []domain.WorkspaceBilling
}

func (r *repoStub) GetByWorkspaceID(_ context.Context, workspaceID string) (*domain.WorkspaceBilling, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.record, nil
}

func (r *repoStub) GetBySubscriptionID(_ context.Context, subscriptionID string) (*domain.WorkspaceBilling, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.record, nil
}

func (r *repoStub) UpsertBilling(_ context.Context, rec *domain.WorkspaceBilling) (*domain.WorkspaceBilling, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.upserts = append(r.upserts, *rec)
	return rec, nil
}

func (r *repoStub) ListPendingReconciliation(_ context.Context, limit int) ([]domain.WorkspaceBilling, error) {
	return r.pending, nil
}

type publisherStub struct {
	keys   []string
	events []domain.SubscriptionEvent
	err    error
}

func (p *publisherStub) Publish(_ context.Context, routingKey string, body any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	if event, ok := body.(domain.SubscriptionEvent); ok {
		p.events = append(p.events, event)
	}
	return nil
}

func newTestService(provider *providerStub, repo *repoStub, publisher *publisherStub) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	plans := map[string]string{"Pro": "P-PRO", "Enterprise": "P-ENT"}
	return NewService(provider, repo, publisher, plans, logger)
}

func TestCreateSubscription_UnknownPlanIssuesNoProviderCall(t *testing.T) {
	provider := &providerStub{}
	service := newTestService(provider, &repoStub{}, &publisherStub{})

	_, err := service.CreateSubscription(context.Background(), domain.SubscriptionRequest{
		PlanName:    "Free",
		WorkspaceID: "ws-1",
	})

	if !errors.Is(err, domain.ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	if provider.createCalls != 0 {
		t.Fatalf("expected no provider call for unknown plan, got %d", provider.createCalls)
	}
}

func TestCreateSubscription_StoresBillingRecord(t *testing.T) {
	provider := &providerStub{
		creation: &domain.SubscriptionCreation{
			ID:     "I-NEW1",
			Status: "APPROVAL_PENDING",
			Links:  []domain.SubscriptionLink{{Href: "https://paypal.test/approve", Rel: "approve"}},
		},
	}
	repo := &repoStub{}
	service := newTestService(provider, repo, &publisherStub{})

	creation, err := service.CreateSubscription(context.Background(), domain.SubscriptionRequest{
		PlanName:    "Pro",
		WorkspaceID: "ws-1",
		ReturnURL:   "https://app.test/r",
		CancelURL:   "https://app.test/c",
	})
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	if creation.ID != "I-NEW1" {
		t.Fatalf("expected creation passthrough, got %+v", creation)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("expected one billing upsert, got %d", len(repo.upserts))
	}
	stored := repo.upserts[0]
	if stored.WorkspaceID != "ws-1" || stored.SubscriptionID != "I-NEW1" || stored.PlanName != "Pro" || stored.Status != "APPROVAL_PENDING" {
		t.Fatalf("unexpected stored record %+v", stored)
	}
}

func TestVerifySubscription_UpdatesRecordAndPublishesActivation(t *testing.T) {
	next := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	provider := &providerStub{
		result: &domain.VerificationResult{
			Status:          "ACTIVE",
			NextBillingTime: &next,
			LastPayment: &domain.Payment{
				Amount:        90.0,
				Currency:      "USD",
				TransactionID: "TXN-1",
			},
		},
	}
	repo := &repoStub{
		record: &domain.WorkspaceBilling{
			WorkspaceID:    "ws-1",
			SubscriptionID: "I-SUB1",
			PlanName:       "Pro",
			Status:         "APPROVAL_PENDING",
		},
	}
	publisher := &publisherStub{}
	service := newTestService(provider, repo, publisher)

	result, err := service.VerifySubscription(context.Background(), "I-SUB1")
	if err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	if result.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE, got %q", result.Status)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("expected one billing upsert, got %d", len(repo.upserts))
	}
	stored := repo.upserts[0]
	if stored.Status != "ACTIVE" || stored.LastPaymentAmt == nil || *stored.LastPaymentAmt != 90.0 || stored.LastTxnID == nil || *stored.LastTxnID != "TXN-1" {
		t.Fatalf("unexpected stored record %+v", stored)
	}

	if len(publisher.keys) != 1 || publisher.keys[0] != domain.EventSubscriptionActivated {
		t.Fatalf("expected one activation event, got %v", publisher.keys)
	}
	event := publisher.events[0]
	if event.WorkspaceID != "ws-1" || event.PaymentAmount != 90.0 || event.TransactionID != "TXN-1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.EventID == "" {
		t.Fatal("expected a generated event id")
	}
}

func TestVerifySubscription_ActiveWithoutPaymentPublishesNothing(t *testing.T) {
	provider := &providerStub{
		result: &domain.VerificationResult{Status: "ACTIVE"},
	}
	repo := &repoStub{
		record: &domain.WorkspaceBilling{WorkspaceID: "ws-1", SubscriptionID: "I-SUB1"},
	}
	publisher := &publisherStub{}
	service := newTestService(provider, repo, publisher)

	if _, err := service.VerifySubscription(context.Background(), "I-SUB1"); err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	if len(publisher.keys) != 0 {
		t.Fatalf("expected no events for an active-but-unbilled subscription, got %v", publisher.keys)
	}
}

func TestVerifySubscription_LapsedStatusPublishesLapsedEvent(t *testing.T) {
	provider := &providerStub{
		result: &domain.VerificationResult{Status: "CANCELLED"},
	}
	repo := &repoStub{
		record: &domain.WorkspaceBilling{WorkspaceID: "ws-1", SubscriptionID: "I-SUB1"},
	}
	publisher := &publisherStub{}
	service := newTestService(provider, repo, publisher)

	if _, err := service.VerifySubscription(context.Background(), "I-SUB1"); err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != domain.EventSubscriptionLapsed {
		t.Fatalf("expected one lapsed event, got %v", publisher.keys)
	}
}

func TestVerifySubscription_UntrackedSubscriptionIsReadOnly(t *testing.T) {
	provider := &providerStub{
		result: &domain.VerificationResult{Status: "ACTIVE", LastPayment: &domain.Payment{Amount: 90.0, Currency: "USD"}},
	}
	repo := &repoStub{getErr: store.ErrBillingRecordNotFound}
	publisher := &publisherStub{}
	service := newTestService(provider, repo, publisher)

	result, err := service.VerifySubscription(context.Background(), "I-ELSEWHERE")
	if err != nil {
		t.Fatalf("VerifySubscription returned error: %v", err)
	}
	if result.Status != "ACTIVE" {
		t.Fatalf("expected result passthrough, got %+v", result)
	}
	if len(repo.upserts) != 0 || len(publisher.keys) != 0 {
		t.Fatal("expected no persistence or events for an untracked subscription")
	}
}

func TestVerifySubscription_PublishFailureDoesNotFailVerify(t *testing.T) {
	provider := &providerStub{
		result: &domain.VerificationResult{Status: "ACTIVE", LastPayment: &domain.Payment{Amount: 90.0, Currency: "USD", TransactionID: "TXN-1"}},
	}
	repo := &repoStub{
		record: &domain.WorkspaceBilling{WorkspaceID: "ws-1", SubscriptionID: "I-SUB1"},
	}
	publisher := &publisherStub{err: errors.New("broker down")}
	service := newTestService(provider, repo, publisher)

	if _, err := service.VerifySubscription(context.Background(), "I-SUB1"); err != nil {
		t.Fatalf("expected verify to succeed despite publish failure, got %v", err)
	}
}

func TestVerifySubscription_ProviderFailurePropagates(t *testing.T) {
	providerErr := errors.New("provider unavailable")
	provider := &providerStub{verifyErr: providerErr}
	repo := &repoStub{}
	service := newTestService(provider, repo, &publisherStub{})

	_, err := service.VerifySubscription(context.Background(), "I-SUB1")
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("expected no persistence after provider failure")
	}
}
