package service

import (
	"context"
	"fmt"
	"log/slog"

	"renderbot/internal/model"
)

// FulfillmentService converts a verified payment-completion event into a
// ledger credit, exactly once per event id.
type FulfillmentService struct {
	store PaymentStore
	msgr  Messenger
}

func NewFulfillmentService(store PaymentStore, msgr Messenger) *FulfillmentService {
	return &FulfillmentService{store: store, msgr: msgr}
}

// Apply grants the event's credits. Re-deliveries of the same event id are
// no-ops, and a store failure applies nothing, so the provider's retry can
// still land the credits. The user notification is a separate, best-effort
// step: once the credit is committed it stands regardless of whether the
// message went out.
func (s *FulfillmentService) Apply(ctx context.Context, ev model.PaymentEvent) error {
	if ev.UserID == "" || ev.EventID == "" || ev.CreditsToGrant <= 0 {
		return fmt.Errorf("%w: user=%q event=%q credits=%d", ErrMalformedEvent, ev.UserID, ev.EventID, ev.CreditsToGrant)
	}

	balance, first, err := s.store.ApplyPayment(ctx, ev)
	if err != nil {
		return fmt.Errorf("apply payment %s: %w", ev.EventID, err)
	}
	if !first {
		slog.Info("payment event already applied, skipping", "event_id", ev.EventID, "user_id", ev.UserID)
		return nil
	}

	slog.Info("payment fulfilled", "event_id", ev.EventID, "user_id", ev.UserID, "credits", ev.CreditsToGrant, "balance", balance)

	if s.msgr != nil {
		if err := s.msgr.SendText(ev.UserID, fmt.Sprintf(MsgPaymentSuccess, balance)); err != nil {
			slog.Warn("payment notification failed, credit stands", "user_id", ev.UserID, "error", err)
		}
	}
	return nil
}
