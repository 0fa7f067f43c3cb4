package telegram

import (
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"renderbot/internal/service"
)

// Gateway is the Telegram session. It implements service.Messenger for the
// core services and exposes the inbound update channel to the Handler.
type Gateway struct {
	api *tgbotapi.BotAPI
}

func NewGateway(token string) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	slog.Info("authorized on telegram account", "username", api.Self.UserName)
	return &Gateway{api: api}, nil
}

func chatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram user id %q: %w", userID, err)
	}
	return id, nil
}

func (g *Gateway) SendText(userID, text string) error {
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	_, err = g.api.Send(tgbotapi.NewMessage(id, text))
	return err
}

func (g *Gateway) SendButtons(userID, text string, rows [][]service.Button) error {
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = buildKeyboard(rows)
	_, err = g.api.Send(msg)
	return err
}

// sendMarkdown is SendButtons with Markdown parse mode, for the welcome
// message's formatting.
func (g *Gateway) sendMarkdown(userID, text string, rows [][]service.Button) error {
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = buildKeyboard(rows)
	_, err = g.api.Send(msg)
	return err
}

func (g *Gateway) SendPhoto(userID, imageURL, caption string) error {
	id, err := chatID(userID)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	_, err = g.api.Send(photo)
	return err
}

// FileURL resolves a Telegram file id to a downloadable URL.
func (g *Gateway) FileURL(fileID string) (string, error) {
	file, err := g.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get telegram file: %w", err)
	}
	return file.Link(g.api.Token), nil
}

func buildKeyboard(rows [][]service.Button) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
			} else {
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
			}
		}
		kb = append(kb, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}
