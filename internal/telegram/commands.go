package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/calorigram/internal/report"
)

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	uid := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "register":
		r.register(ctx, msg, args)
	case "profile":
		u, err := r.profiles.Get(ctx, uid)
		if err != nil {
			r.reportError(cid, err, "profile", uid)
			return
		}
		r.send(cid, profileText(u))
	case "today":
		r.sendToday(ctx, cid, uid)
	case "week":
		wk, err := r.meals.WeekSummary(ctx, uid)
		if err != nil {
			r.reportError(cid, err, "week summary", uid)
			return
		}
		r.send(cid, report.Week(*wk))
	case "clear":
		n, err := r.meals.ClearToday(ctx, uid)
		if err != nil {
			r.reportError(cid, err, "clear today", uid)
			return
		}
		r.send(cid, fmt.Sprintf("🧹 Удалено записей за сегодня: %d", n))
	case "tz":
		if args == "" {
			r.send(cid, "Укажите часовой пояс, например /tz Europe/Moscow")
			return
		}
		if err := r.profiles.SetTimezone(ctx, uid, args); err != nil {
			r.reportError(cid, err, "set timezone", uid)
			return
		}
		r.send(cid, "🕒 Часовой пояс обновлён: "+args)
	default:
		r.send(cid, "Неизвестная команда. /help — список команд.")
	}
}

func (r *Router) register(ctx context.Context, msg *tgbotapi.Message, args string) {
	cid := msg.Chat.ID
	reg, err := parseRegistration(args)
	if err != nil {
		r.reportError(cid, err, "register", msg.From.ID)
		return
	}
	reg.TelegramID = msg.From.ID
	reg.Name = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	u, err := r.profiles.Register(ctx, reg)
	if err != nil {
		r.reportError(cid, err, "register", msg.From.ID)
		return
	}
	r.send(cid, profileText(u))
}

func (r *Router) sendToday(ctx context.Context, chatID, userID int64) {
	day, err := r.meals.Today(ctx, userID)
	if err != nil {
		r.reportError(chatID, err, "today summary", userID)
		return
	}
	r.sendWithMarkup(chatID, report.Day(*day), deleteKeyboard(day.Meals))
}

// reportError tells the user what went wrong and logs errors that are not
// part of normal use.
func (r *Router) reportError(chatID int64, err error, op string, userID int64) {
	text, ok := userMessage(err)
	if !ok {
		r.logger.Error(op+" failed", "user_id", userID, "error", err)
	}
	r.send(chatID, text)
}
