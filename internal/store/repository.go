/**
 * @description
 * This file implements the data access layer for the billing-service.
 * It contains all the SQL queries and logic for interacting with the
 * workspace_billing table, which records each workspace's PayPal
 * subscription and the outcome of its latest reconciliation.
 */
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/langeval/billing-service/internal/domain"
)

// ErrBillingRecordNotFound is returned when a workspace has no billing record.
var ErrBillingRecordNotFound = errors.New("billing record not found")

// Repository handles database operations for workspace billing records.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByWorkspaceID retrieves the billing record for a workspace.
func (r *Repository) GetByWorkspaceID(ctx context.Context, workspaceID string) (*domain.WorkspaceBilling, error) {
	query := `
        SELECT workspace_id, subscription_id, plan_name, status,
               last_payment_amount, last_payment_currency, last_transaction_id,
               next_billing_time, updated_at
        FROM workspace_billing
        WHERE workspace_id = $1
    `
	return r.scanRecord(r.db.QueryRow(ctx, query, workspaceID))
}

// GetBySubscriptionID retrieves the billing record that owns a PayPal subscription id.
// Webhook processing uses this to link provider events back to a workspace.
func (r *Repository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.WorkspaceBilling, error) {
	query := `
        SELECT workspace_id, subscription_id, plan_name, status,
               last_payment_amount, last_payment_currency, last_transaction_id,
               next_billing_time, updated_at
        FROM workspace_billing
        WHERE subscription_id = $1
    `
	return r.scanRecord(r.db.QueryRow(ctx, query, subscriptionID))
}

// UpsertBilling creates or replaces the billing record for a workspace.
func (r *Repository) UpsertBilling(ctx context.Context, rec *domain.WorkspaceBilling) (*domain.WorkspaceBilling, error) {
	query := `
        INSERT INTO workspace_billing (
            workspace_id, subscription_id, plan_name, status,
            last_payment_amount, last_payment_currency, last_transaction_id, next_billing_time
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (workspace_id) DO UPDATE SET
            subscription_id = EXCLUDED.subscription_id,
            plan_name = EXCLUDED.plan_name,
            status = EXCLUDED.status,
            last_payment_amount = EXCLUDED.last_payment_amount,
            last_payment_currency = EXCLUDED.last_payment_currency,
            last_transaction_id = EXCLUDED.last_transaction_id,
            next_billing_time = EXCLUDED.next_billing_time,
            updated_at = NOW()
        RETURNING workspace_id, subscription_id, plan_name, status,
                  last_payment_amount, last_payment_currency, last_transaction_id,
                  next_billing_time, updated_at
    `
	return r.scanRecord(r.db.QueryRow(ctx, query,
		rec.WorkspaceID,
		rec.SubscriptionID,
		rec.PlanName,
		rec.Status,
		rec.LastPaymentAmt,
		rec.LastPaymentCcy,
		rec.LastTxnID,
		rec.NextBillingTime,
	))
}

// ListPendingReconciliation returns billing records still waiting for payer
// approval or activation. The reconciliation cron re-verifies these against
// PayPal in case an activation webhook was missed.
func (r *Repository) ListPendingReconciliation(ctx context.Context, limit int) ([]domain.WorkspaceBilling, error) {
	query := `
        SELECT workspace_id, subscription_id, plan_name, status,
               last_payment_amount, last_payment_currency, last_transaction_id,
               next_billing_time, updated_at
        FROM workspace_billing
        WHERE status IN ('APPROVAL_PENDING', 'PENDING')
        ORDER BY updated_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.WorkspaceBilling
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *Repository) scanRecord(row pgx.Row) (*domain.WorkspaceBilling, error) {
	var rec domain.WorkspaceBilling
	err := row.Scan(
		&rec.WorkspaceID,
		&rec.SubscriptionID,
		&rec.PlanName,
		&rec.Status,
		&rec.LastPaymentAmt,
		&rec.LastPaymentCcy,
		&rec.LastTxnID,
		&rec.NextBillingTime,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBillingRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}
