package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/langeval/billing-service/internal/domain"
)

type verifierStub struct {
	calls  []string
	failOn map[string]error
}

func (v *verifierStub) VerifySubscription(_ context.Context, subscriptionID string) (*domain.VerificationResult, error) {
	v.calls = append(v.calls, subscriptionID)
	if err, ok := v.failOn[subscriptionID]; ok {
		return nil, err
	}
	return &domain.VerificationResult{Status: "ACTIVE"}, nil
}

func newTestJobs(repo Repository, verifier SubscriptionVerifier) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(repo, verifier, logger)
}

func TestReconcilePendingSubscriptions_NoPendingRecords(t *testing.T) {
	verifier := &verifierStub{}
	jobs := newTestJobs(&repoStub{}, verifier)

	jobs.ReconcilePendingSubscriptions()

	if len(verifier.calls) != 0 {
		t.Fatalf("expected no verifications, got %v", verifier.calls)
	}
}

func TestReconcilePendingSubscriptions_VerifiesEachRecord(t *testing.T) {
	repo := &repoStub{
		pending: []domain.WorkspaceBilling{
			{WorkspaceID: "ws-1", SubscriptionID: "I-A"},
			{WorkspaceID: "ws-2", SubscriptionID: "I-B"},
		},
	}
	verifier := &verifierStub{}
	jobs := newTestJobs(repo, verifier)

	jobs.ReconcilePendingSubscriptions()

	if len(verifier.calls) != 2 || verifier.calls[0] != "I-A" || verifier.calls[1] != "I-B" {
		t.Fatalf("expected both subscriptions verified in order, got %v", verifier.calls)
	}
}

func TestReconcilePendingSubscriptions_ContinuesAfterFailure(t *testing.T) {
	repo := &repoStub{
		pending: []domain.WorkspaceBilling{
			{WorkspaceID: "ws-1", SubscriptionID: "I-A"},
			{WorkspaceID: "ws-2", SubscriptionID: "I-B"},
		},
	}
	verifier := &verifierStub{
		failOn: map[string]error{"I-A": errors.New("provider error")},
	}
	jobs := newTestJobs(repo, verifier)

	jobs.ReconcilePendingSubscriptions()

	if len(verifier.calls) != 2 {
		t.Fatalf("expected the batch to continue past a failure, got %v", verifier.calls)
	}
}
