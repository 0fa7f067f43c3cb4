package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"renderbot/internal/model"
	"renderbot/internal/repository"
)

// PaymentApplier applies one verified payment event, exactly once.
type PaymentApplier interface {
	Apply(ctx context.Context, ev model.PaymentEvent) error
}

// FulfillmentWorker consumes verified payment-completion events from the
// bus and turns them into ledger credits. The webhook handler only
// verifies and publishes; everything slow or retryable lives here.
type FulfillmentWorker struct {
	svc PaymentApplier
	bus repository.MessageBus
}

func NewFulfillmentWorker(svc PaymentApplier, bus repository.MessageBus) *FulfillmentWorker {
	return &FulfillmentWorker{svc: svc, bus: bus}
}

// Run subscribes and blocks until ctx is cancelled.
func (w *FulfillmentWorker) Run(ctx context.Context) error {
	sub, err := w.bus.Subscribe(repository.TopicPaymentsCompleted, "fulfillment_group", func(data []byte) {
		var ev model.PaymentEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Error("fulfillment: failed to unmarshal payment event", "error", err)
			return
		}

		if err := w.svc.Apply(ctx, ev); err != nil {
			slog.Error("fulfillment: failed to apply payment event",
				"event_id", ev.EventID,
				"user_id", ev.UserID,
				"error", err,
			)
			return
		}
	})
	if err != nil {
		return fmt.Errorf("fulfillment: failed to subscribe: %w", err)
	}

	slog.Info("Fulfillment worker is running")

	<-ctx.Done()

	slog.Info("Fulfillment worker shutting down, draining subscription...")
	return sub.Drain()
}

// Start implements the infrastructure.Server interface.
func (w *FulfillmentWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (w *FulfillmentWorker) Stop(ctx context.Context) error {
	return nil
}
