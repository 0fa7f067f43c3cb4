package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"renderbot/internal/catalog"
	"renderbot/internal/model"
)

var (
	ErrBadSignature = errors.New("webhook signature verification failed")
	// ErrIgnoredEvent marks event types this service does not consume;
	// callers acknowledge them and move on.
	ErrIgnoredEvent   = errors.New("ignored event type")
	ErrMalformedEvent = errors.New("event is missing user or credit linkage")
)

// Gateway wraps Stripe hosted Checkout: session creation on the way out,
// signature-verified completion events on the way in.
type Gateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewGateway(secretKey, webhookSecret, successURL, cancelURL string) *Gateway {
	stripe.Key = secretKey
	return &Gateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// CreateSession creates a hosted checkout session for one price entry and
// returns the payment link. The user id and credit grant ride along as
// client_reference_id and metadata so the completion webhook can fulfill
// without any local pending-payment state.
func (g *Gateway) CreateSession(ctx context.Context, userID string, entry catalog.PriceEntry) (string, error) {
	params := g.checkoutParams(userID, entry)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *Gateway) checkoutParams(userID string, entry catalog.PriceEntry) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(entry.DisplayName),
					},
					UnitAmount: stripe.Int64(entry.AmountMinorUnit),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(userID),
		Metadata: map[string]string{
			"credits": strconv.FormatInt(entry.Credits, 10),
		},
	}
}

// VerifyEvent checks the webhook signature and extracts a PaymentEvent
// from a checkout.session.completed payload. Verification failures and
// malformed linkage come back as errors, never as zero-credit grants.
func (g *Gateway) VerifyEvent(payload []byte, sigHeader string) (model.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return paymentEventFrom(event)
}

// paymentEventFrom pulls the user and credit linkage out of a verified
// Stripe event.
func paymentEventFrom(event stripe.Event) (model.PaymentEvent, error) {
	if event.Type != "checkout.session.completed" {
		return model.PaymentEvent{}, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var sess struct {
		ClientReferenceID string            `json:"client_reference_id"`
		Metadata          map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: decode checkout.session: %v", ErrMalformedEvent, err)
	}

	if sess.ClientReferenceID == "" {
		return model.PaymentEvent{}, fmt.Errorf("%w: no client_reference_id", ErrMalformedEvent)
	}

	credits, err := strconv.ParseInt(sess.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		return model.PaymentEvent{}, fmt.Errorf("%w: credits metadata %q", ErrMalformedEvent, sess.Metadata["credits"])
	}

	return model.PaymentEvent{
		UserID:         sess.ClientReferenceID,
		CreditsToGrant: credits,
		EventID:        event.ID,
		CreatedAt:      time.Now(),
	}, nil
}
