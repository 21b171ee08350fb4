/**
 * @description
 * Scheduled job implementations for the billing-service. The reconciliation
 * job is the safety net for missed webhooks: any workspace whose billing
 * record is still waiting for payer approval is re-verified against PayPal.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/langeval/billing-service/internal/domain"
)

const (
	// reconcileBatchLimit bounds how many pending records one cron pass touches.
	reconcileBatchLimit = 50

	reconcileJobTimeout = 2 * time.Minute
)

// SubscriptionVerifier re-checks one subscription against the provider.
// Satisfied by *Service.
type SubscriptionVerifier interface {
	VerifySubscription(ctx context.Context, subscriptionID string) (*domain.VerificationResult, error)
}

// Jobs holds the dependencies for scheduled work.
type Jobs struct {
	repo     Repository
	verifier SubscriptionVerifier
	logger   *slog.Logger
}

// NewJobs creates the job runner.
func NewJobs(repo Repository, verifier SubscriptionVerifier, logger *slog.Logger) *Jobs {
	return &Jobs{repo: repo, verifier: verifier, logger: logger}
}

// ReconcilePendingSubscriptions re-verifies workspaces whose subscriptions are
// still pending approval or activation. One record failing does not stop the
// rest of the batch.
func (j *Jobs) ReconcilePendingSubscriptions() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileJobTimeout)
	defer cancel()

	records, err := j.repo.ListPendingReconciliation(ctx, reconcileBatchLimit)
	if err != nil {
		j.logger.Error("failed to list pending billing records", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	j.logger.Info("reconciling pending subscriptions", "count", len(records))
	for _, rec := range records {
		if _, err := j.verifier.VerifySubscription(ctx, rec.SubscriptionID); err != nil {
			j.logger.Error("failed to reconcile subscription",
				"workspace_id", rec.WorkspaceID,
				"subscription_id", rec.SubscriptionID,
				"error", err,
			)
		}
	}
}
