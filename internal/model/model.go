package model

import (
	"errors"
	"time"
)

// ErrNoImage means the vendor answered but its response contained no
// recognizable output-image reference.
var ErrNoImage = errors.New("vendor response contains no image")

// PaymentEvent is a verified "checkout completed" event from the payment
// provider. EventID is the provider's event id and is the idempotence key:
// the same event may be delivered more than once but is applied only once.
type PaymentEvent struct {
	UserID         string    `json:"user_id"`
	CreditsToGrant int64     `json:"credits_to_grant"`
	EventID        string    `json:"event_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// DebitEvent records a successful render debit that still has to be synced
// from the Redis cache to the durable balances table.
type DebitEvent struct {
	UserID         string    `json:"user_id"`
	Amount         int64     `json:"amount"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// RenderOutput is what the image vendor produced for one request.
type RenderOutput struct {
	ImageURL string
	Caption  string
}
