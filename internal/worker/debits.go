package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"renderbot/internal/model"
	"renderbot/internal/repository"
)

// DebitSyncer mirrors a cache-side debit into the durable store.
type DebitSyncer interface {
	SyncDebit(ctx context.Context, event model.DebitEvent) error
}

// DebitSyncWorker listens for successful render debits and syncs them to
// the Postgres balances, idempotently per key.
type DebitSyncWorker struct {
	syncer DebitSyncer
	bus    repository.MessageBus
}

func NewDebitSyncWorker(syncer DebitSyncer, bus repository.MessageBus) *DebitSyncWorker {
	return &DebitSyncWorker{syncer: syncer, bus: bus}
}

func (w *DebitSyncWorker) Run(ctx context.Context) error {
	sub, err := w.bus.Subscribe(repository.TopicRendersDebited, "debit_sync_group", func(data []byte) {
		var event model.DebitEvent
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Error("debit sync: failed to unmarshal event", "error", err)
			return
		}

		if err := w.syncer.SyncDebit(ctx, event); err != nil {
			slog.Error("debit sync: failed to sync debit to postgres",
				"user_id", event.UserID,
				"key", event.IdempotencyKey,
				"error", err,
			)
			return
		}

		slog.Info("debit sync: transaction synced",
			"user_id", event.UserID,
			"key", event.IdempotencyKey,
		)
	})
	if err != nil {
		return fmt.Errorf("debit sync: failed to subscribe: %w", err)
	}

	slog.Info("Debit sync worker is running")

	<-ctx.Done()

	slog.Info("Debit sync worker shutting down, draining subscription...")
	return sub.Drain()
}

// Start implements the infrastructure.Server interface.
func (w *DebitSyncWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (w *DebitSyncWorker) Stop(ctx context.Context) error {
	return nil
}
