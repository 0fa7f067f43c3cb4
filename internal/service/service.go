package service

import (
	"context"
	"errors"

	"renderbot/internal/catalog"
	"renderbot/internal/model"
)

var ErrMalformedEvent = errors.New("malformed payment event")

// Ledger is the authoritative per-user credit balance. Implementations must
// serialize concurrent debits per user: Debit is a conditional
// read-modify-write, not a plain decrement. Credits arrive only through
// PaymentStore.
type Ledger interface {
	// GetBalance returns the current balance, 0 for unknown users.
	GetBalance(ctx context.Context, userID string) (int64, error)
	// Debit decreases the balance by amount (> 0) and returns the new balance.
	// Fails with repository.ErrInsufficient when balance < amount and with
	// repository.ErrAlreadyProcessed when idempotencyKey was seen before.
	Debit(ctx context.Context, userID string, amount int64, idempotencyKey string) (int64, error)
}

// PaymentStore turns a verified payment event into a credit grant.
// ApplyPayment records the event id and credits the balance in one atomic
// step: a failure leaves the event unrecorded so the provider's retry can
// still land it, and a re-delivered event id applies nothing. Returns the
// new balance and whether this delivery was the first.
type PaymentStore interface {
	ApplyPayment(ctx context.Context, ev model.PaymentEvent) (int64, bool, error)
}

// Button is one inline-keyboard entry: either a callback Action or a URL.
type Button struct {
	Label  string
	Action string
	URL    string
}

// Messenger is the outbound half of the bot gateway. Sends are best-effort
// from the caller's point of view; an error never rolls anything back.
type Messenger interface {
	SendText(userID, text string) error
	SendButtons(userID, text string, rows [][]Button) error
	SendPhoto(userID, imageURL, caption string) error
}

// Generator turns a source image into a rendering.
type Generator interface {
	Render(ctx context.Context, imageURL string) (*model.RenderOutput, error)
}

// Checkout creates a hosted payment session for one price entry and returns
// the payment link.
type Checkout interface {
	CreateSession(ctx context.Context, userID string, entry catalog.PriceEntry) (string, error)
}
