/**
 * @description
 * This file contains the core business logic for the billing-service.
 * The Service layer resolves plan names, drives the PayPal provider client,
 * persists reconciliation outcomes on the workspace billing record, and
 * publishes internal events when a subscription's state settles.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/langeval/billing-service/internal/domain"
	"github.com/langeval/billing-service/internal/store"
	"github.com/langeval/billing-service/pkg/paypalclient"
)

// Repository defines the interface for database operations that the service needs.
type Repository interface {
	GetByWorkspaceID(ctx context.Context, workspaceID string) (*domain.WorkspaceBilling, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.WorkspaceBilling, error)
	UpsertBilling(ctx context.Context, rec *domain.WorkspaceBilling) (*domain.WorkspaceBilling, error)
	ListPendingReconciliation(ctx context.Context, limit int) ([]domain.WorkspaceBilling, error)
}

// EventPublisher publishes internal billing events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// Service provides the business logic for subscription billing.
type Service struct {
	provider  paypalclient.Provider
	repo      Repository
	publisher EventPublisher
	plans     map[string]string
	logger    *slog.Logger
}

// NewService creates a new billing service.
func NewService(provider paypalclient.Provider, repo Repository, publisher EventPublisher, plans map[string]string, logger *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		repo:      repo,
		publisher: publisher,
		plans:     plans,
		logger:    logger,
	}
}

// CreateSubscription resolves the plan name and creates a PayPal subscription
// for the workspace. The plan lookup happens before any network call, so an
// unknown plan never reaches the provider.
func (s *Service) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionCreation, error) {
	planID, ok := s.plans[req.PlanName]
	if !ok || planID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlan, req.PlanName)
	}

	creation, err := s.provider.CreateSubscription(ctx, planID, req)
	if err != nil {
		return nil, err
	}

	record := &domain.WorkspaceBilling{
		WorkspaceID:    req.WorkspaceID,
		SubscriptionID: creation.ID,
		PlanName:       req.PlanName,
		Status:         creation.Status,
	}
	if _, err := s.repo.UpsertBilling(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store billing record for workspace %s: %w", req.WorkspaceID, err)
	}

	s.logger.Info("subscription created",
		"workspace_id", req.WorkspaceID,
		"subscription_id", creation.ID,
		"plan", req.PlanName,
		"status", creation.Status,
	)
	return creation, nil
}

// VerifySubscription reconciles the subscription with PayPal, updates the
// owning workspace's billing record when one exists, and publishes an internal
// event when the subscription has settled into an active or lapsed state.
func (s *Service) VerifySubscription(ctx context.Context, subscriptionID string) (*domain.VerificationResult, error) {
	result, err := s.provider.VerifySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrBillingRecordNotFound) {
			// Verification of a subscription we never recorded is still a
			// valid read-only operation.
			return result, nil
		}
		return nil, err
	}

	record.Status = result.Status
	record.NextBillingTime = result.NextBillingTime
	if result.LastPayment != nil {
		record.LastPaymentAmt = &result.LastPayment.Amount
		record.LastPaymentCcy = &result.LastPayment.Currency
		record.LastTxnID = &result.LastPayment.TransactionID
	}
	if _, err := s.repo.UpsertBilling(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update billing record for workspace %s: %w", record.WorkspaceID, err)
	}

	s.publishOutcome(ctx, record.WorkspaceID, subscriptionID, result)
	return result, nil
}

// GetWorkspaceBilling returns the stored billing record for a workspace.
func (s *Service) GetWorkspaceBilling(ctx context.Context, workspaceID string) (*domain.WorkspaceBilling, error) {
	return s.repo.GetByWorkspaceID(ctx, workspaceID)
}

// publishOutcome emits an internal event for settled states. Publish failures
// are logged, not surfaced: the reconciliation itself succeeded and the cron
// pass will re-verify pending workspaces anyway.
func (s *Service) publishOutcome(ctx context.Context, workspaceID, subscriptionID string, result *domain.VerificationResult) {
	var routingKey string
	switch result.Status {
	case "ACTIVE":
		if result.LastPayment == nil {
			return
		}
		routingKey = domain.EventSubscriptionActivated
	case "CANCELLED", "SUSPENDED", "EXPIRED":
		routingKey = domain.EventSubscriptionLapsed
	default:
		return
	}

	event := domain.SubscriptionEvent{
		EventID:         uuid.NewString(),
		WorkspaceID:     workspaceID,
		SubscriptionID:  subscriptionID,
		Status:          result.Status,
		NextBillingTime: result.NextBillingTime,
		OccurredAt:      time.Now().UTC(),
	}
	if result.LastPayment != nil {
		event.PaymentAmount = result.LastPayment.Amount
		event.PaymentCurrency = result.LastPayment.Currency
		event.TransactionID = result.LastPayment.TransactionID
	}

	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.logger.Error("failed to publish billing event",
			"routing_key", routingKey,
			"workspace_id", workspaceID,
			"error", err,
		)
	}
}
