package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"renderbot/internal/model"
	"renderbot/internal/repository"
)

// RenderService runs the per-photo state machine: check balance, announce,
// delegate to the vendor, and only then commit the debit. A failed
// generation must never cost a credit.
type RenderService struct {
	ledger Ledger
	gen    Generator
	msgr   Messenger
}

func NewRenderService(ledger Ledger, gen Generator, msgr Messenger) *RenderService {
	return &RenderService{ledger: ledger, gen: gen, msgr: msgr}
}

// HandlePhoto processes one inbound image. imageURL must already point at
// the highest-resolution variant. Send failures on terminal messages are
// logged by the caller via the returned error.
func (s *RenderService) HandlePhoto(ctx context.Context, userID, imageURL string) error {
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return fmt.Errorf("get balance for %s: %w", userID, err)
	}
	if balance < 1 {
		return s.msgr.SendButtons(userID, MsgInsufficient, PurchaseButtons())
	}

	if s.gen == nil {
		// Vendor credentials are missing; the subsystem is degraded but the
		// user still gets an answer and keeps the credit.
		slog.Warn("image vendor not configured, rejecting render", "user_id", userID)
		return s.msgr.SendText(userID, MsgVendorError)
	}

	// Best-effort acknowledgment, no retry.
	if err := s.msgr.SendText(userID, MsgGenerating); err != nil {
		slog.Warn("generating ack failed", "user_id", userID, "error", err)
	}

	out, err := s.gen.Render(ctx, imageURL)
	if err != nil {
		if errors.Is(err, model.ErrNoImage) {
			slog.Warn("vendor response had no image", "user_id", userID)
			return s.msgr.SendText(userID, MsgNoImage)
		}
		slog.Error("vendor call failed", "user_id", userID, "error", err)
		return s.msgr.SendText(userID, MsgVendorError)
	}

	// One inbound photo, one debit: a fresh idempotency key per request.
	newBalance, err := s.ledger.Debit(ctx, userID, 1, uuid.NewString())
	if err != nil {
		if errors.Is(err, repository.ErrInsufficient) {
			// A concurrent spend drained the balance between check and commit.
			return s.msgr.SendButtons(userID, MsgInsufficient, PurchaseButtons())
		}
		return fmt.Errorf("debit %s: %w", userID, err)
	}

	caption := out.Caption
	if caption == "" {
		caption = fmt.Sprintf(FallbackCaption, newBalance)
	}
	if err := s.msgr.SendPhoto(userID, out.ImageURL, caption); err != nil {
		return fmt.Errorf("deliver rendering to %s: %w", userID, err)
	}
	return nil
}
