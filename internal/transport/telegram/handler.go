package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"renderbot/internal/catalog"
	"renderbot/internal/service"
)

// Action is the closed set of inline-button callbacks. Anything the
// dispatch table does not recognize collapses to ActionIgnore.
type Action string

const (
	ActionBuySingle    Action = "buy_single"
	ActionBuyPack5     Action = "buy_pack5"
	ActionBuyMarketing Action = "buy_marketing"
	ActionIgnore       Action = "ignore"
)

// actionSKUs is the dispatch table from buy actions to catalog SKUs.
var actionSKUs = map[Action]catalog.SKU{
	ActionBuySingle:    catalog.SKUSingle,
	ActionBuyPack5:     catalog.SKUPack5,
	ActionBuyMarketing: catalog.SKUMarketing,
}

func parseAction(data string) Action {
	if _, ok := actionSKUs[Action(data)]; ok {
		return Action(data)
	}
	return ActionIgnore
}

const (
	welcomeTemplate = "Welcome to *RenderBot Pro* – Instant $5,000-quality architectural renderings in seconds.\n\n" +
		"You have %d rendering credit(s).\n\n" +
		"Just send me a 2D elevation, plan, or sketch and I'll instantly turn it into photorealistic 3D."
	payPrompt          = "Click below to pay securely with Stripe:"
	documentGuidance   = "Please send your elevation/plan as a photo (not PDF/file) for best results."
	purchasesDisabled  = "Purchases are temporarily unavailable. Please try again later."
	checkoutFailedText = "Could not start the checkout. Please try again."
)

// Handler consumes the long-polling update stream and dispatches each
// update in its own goroutine so one slow render never blocks other users.
type Handler struct {
	gw       *Gateway
	ledger   service.Ledger
	cat      *catalog.Catalog
	checkout service.Checkout
	render   *service.RenderService
}

func NewHandler(gw *Gateway, ledger service.Ledger, cat *catalog.Catalog, checkout service.Checkout, render *service.RenderService) *Handler {
	return &Handler{gw: gw, ledger: ledger, cat: cat, checkout: checkout, render: render}
}

// Start blocks on the update stream until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.gw.api.GetUpdatesChan(u)

	slog.Info("Telegram handler is running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) Stop(ctx context.Context) error {
	h.gw.api.StopReceivingUpdates()
	return nil
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		switch {
		case msg.IsCommand() && msg.Command() == "start":
			h.handleStart(ctx, msg)
		case len(msg.Photo) > 0:
			h.handlePhoto(ctx, msg)
		case msg.Document != nil:
			h.handleDocument(msg)
		}
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)

	balance, err := h.ledger.GetBalance(ctx, userID)
	if err != nil {
		slog.Error("failed to read balance for /start", "user_id", userID, "error", err)
	}

	rows := [][]service.Button{
		{{Label: "Buy 1 Rendering – $29", Action: string(ActionBuySingle)}},
		{{Label: "Buy 5-Pack – $99", Action: string(ActionBuyPack5)}},
		{{Label: "Full Marketing Kit – $299", Action: string(ActionBuyMarketing)}},
		{{Label: fmt.Sprintf("Credits: %d", balance), Action: string(ActionIgnore)}},
	}
	if err := h.gw.sendMarkdown(userID, fmt.Sprintf(welcomeTemplate, balance), rows); err != nil {
		slog.Error("failed to send welcome", "user_id", userID, "error", err)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack first so the button stops spinning whatever happens next.
	if _, err := h.gw.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		slog.Warn("failed to answer callback query", "error", err)
	}
	if cb.Message == nil {
		return
	}
	userID := strconv.FormatInt(cb.Message.Chat.ID, 10)

	action := parseAction(cb.Data)
	if action == ActionIgnore {
		return
	}

	entry, ok := h.cat.Lookup(actionSKUs[action])
	if !ok {
		slog.Error("buy action without catalog entry", "action", string(action))
		return
	}

	if h.checkout == nil {
		if err := h.gw.SendText(userID, purchasesDisabled); err != nil {
			slog.Error("failed to send purchases-disabled notice", "user_id", userID, "error", err)
		}
		return
	}

	url, err := h.checkout.CreateSession(ctx, userID, entry)
	if err != nil {
		slog.Error("failed to create checkout session", "user_id", userID, "sku", string(entry.SKU), "error", err)
		if err := h.gw.SendText(userID, checkoutFailedText); err != nil {
			slog.Error("failed to send checkout failure notice", "user_id", userID, "error", err)
		}
		return
	}

	payRow := [][]service.Button{{{Label: "Pay Now", URL: url}}}
	if err := h.gw.SendButtons(userID, payPrompt, payRow); err != nil {
		slog.Error("failed to send payment link", "user_id", userID, "error", err)
	}
}

func (h *Handler) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)

	// Telegram orders photo variants by size; take the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	imageURL, err := h.gw.FileURL(fileID)
	if err != nil {
		slog.Error("failed to resolve photo file", "user_id", userID, "error", err)
		if err := h.gw.SendText(userID, service.MsgVendorError); err != nil {
			slog.Error("failed to send error notice", "user_id", userID, "error", err)
		}
		return
	}

	if err := h.render.HandlePhoto(ctx, userID, imageURL); err != nil {
		slog.Error("render request failed", "user_id", userID, "error", err)
	}
}

func (h *Handler) handleDocument(msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := h.gw.SendText(userID, documentGuidance); err != nil {
		slog.Error("failed to send document guidance", "user_id", userID, "error", err)
	}
}
