// Package telegram is the chat front end: it turns bot updates into
// profile and meal service calls and renders the answers in Russian.
package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/calorigram/internal/service"
)

// maxMessageRunes keeps replies under Telegram's 4096 character limit.
const maxMessageRunes = 3900

// Bot is the subset of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Router struct {
	bot      Bot
	profiles *service.ProfileService
	meals    *service.MealService
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time

	// pending holds estimates waiting for a meal type, keyed by estimate ID.
	pending sync.Map
}

func NewRouter(bot Bot, profiles *service.ProfileService, meals *service.MealService, logger *slog.Logger) *Router {
	return &Router{
		bot:      bot,
		profiles: profiles,
		meals:    meals,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
}

// HandleUpdate dispatches one update. It never returns an error: failures
// are logged and reported to the user in the chat.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	switch {
	case msg.IsCommand():
		r.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		r.handlePhoto(ctx, msg)
	case msg.Text != "":
		r.handleText(ctx, msg)
	default:
		r.send(msg.Chat.ID, "Пришлите фото блюда или опишите его текстом.")
	}
}

func (r *Router) send(chatID int64, text string) {
	r.sendWithMarkup(chatID, text, nil)
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// edit replaces the text of a bot message. A nil markup removes the keyboard.
func (r *Router) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var cfg tgbotapi.EditMessageTextConfig
	if markup != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, truncate(text), *markup)
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, truncate(text))
	}
	if _, err := r.bot.Send(cfg); err != nil {
		r.logger.Error("failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (r *Router) typing(chatID int64) {
	if _, err := r.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		r.logger.Debug("failed to send chat action", "chat_id", chatID, "error", err)
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes]) + "…"
}
