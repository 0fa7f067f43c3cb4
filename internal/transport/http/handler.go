package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"renderbot/internal/model"
	"renderbot/internal/payment"
	"renderbot/internal/repository"
)

const webhookBodyLimit = 1 << 20 // Stripe events are small; cap the body.

// Verifier authenticates a raw webhook body against its signature header.
type Verifier interface {
	VerifyEvent(payload []byte, sigHeader string) (model.PaymentEvent, error)
}

// Status is what the diagnostic page reports about each subsystem.
type Status struct {
	Store    string
	Bot      bool
	Payments bool
	Vendor   bool
}

// Handler owns the webhook endpoint and the diagnostic pages. Signature
// verification is the only authentication on /stripe-webhook; verified
// events are handed to the bus, fulfillment happens in the worker.
type Handler struct {
	verifier Verifier
	bus      repository.MessageBus
	status   Status
}

func NewHandler(verifier Verifier, bus repository.MessageBus, status Status) *Handler {
	return &Handler{verifier: verifier, bus: bus, status: status}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /stripe-webhook", h.StripeWebhook)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Index is the liveness/status page. Diagnostic only.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "RenderBot Pro is running")
	fmt.Fprintf(w, "ledger store: %s\n", h.status.Store)
	fmt.Fprintf(w, "telegram bot: %s\n", onOff(h.status.Bot))
	fmt.Fprintf(w, "payments:     %s\n", onOff(h.status.Payments))
	fmt.Fprintf(w, "image vendor: %s\n", onOff(h.status.Vendor))
}

func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		h.respondError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	ev, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrIgnoredEvent):
		// Not ours; acknowledge so the provider stops retrying.
		h.respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	case errors.Is(err, payment.ErrBadSignature):
		slog.Warn("webhook signature verification failed", "error", err)
		h.respondError(w, http.StatusBadRequest, "signature verification failed")
		return
	default:
		slog.Warn("rejecting malformed payment event", "error", err)
		h.respondError(w, http.StatusBadRequest, "malformed event")
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "encode event")
		return
	}
	if err := h.bus.Publish(repository.TopicPaymentsCompleted, data); err != nil {
		slog.Error("failed to publish payment event", "event_id", ev.EventID, "error", err)
		// 5xx so the provider redelivers; fulfillment is idempotent.
		h.respondError(w, http.StatusInternalServerError, "event not accepted")
		return
	}

	slog.Info("payment event accepted", "event_id", ev.EventID, "user_id", ev.UserID, "credits", ev.CreditsToGrant)
	h.respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
