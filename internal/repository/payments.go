package repository

import (
	"context"
	"fmt"
	"log/slog"

	"renderbot/internal/model"
)

// ApplyPayment records the event id and grants its credits in one Postgres
// transaction. The primary key on event_id gates the upsert, so webhook
// retries apply nothing, and a failure before commit leaves the event
// unrecorded so the provider's retry can still land the credits. Returns
// the new durable balance and whether this delivery was the first.
func (r *LedgerRepo) ApplyPayment(ctx context.Context, ev model.PaymentEvent) (int64, bool, error) {
	tx, err := r.dbPool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO payment_events (event_id, user_id, credits, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.UserID, ev.CreditsToGrant, ev.CreatedAt,
	)
	if err != nil {
		return 0, false, fmt.Errorf("record payment event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, false, nil
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (user_id, credits)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET credits = accounts.credits + EXCLUDED.credits
		RETURNING credits`,
		ev.UserID, ev.CreditsToGrant,
	).Scan(&newBalance)
	if err != nil {
		return 0, false, fmt.Errorf("credit account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("commit payment: %w", err)
	}

	if err := r.creditCache(ctx, ev.UserID, ev.CreditsToGrant); err != nil {
		// The cache undercounts until the next warm-up; never overcounts.
		slog.Warn("failed to apply credit to balance cache", "user_id", ev.UserID, "error", err)
	}
	return newBalance, true, nil
}
