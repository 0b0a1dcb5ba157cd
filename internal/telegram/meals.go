package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/calorigram/internal/domain"
	"github.com/vbonduro/calorigram/internal/report"
	"github.com/vbonduro/calorigram/internal/service"
)

// pendingTTL is how long an estimate waits for the user to pick a meal type.
const pendingTTL = 30 * time.Minute

const expiredText = "⌛ Оценка устарела. Пришлите блюдо ещё раз."

type pendingEstimate struct {
	est       *service.Estimate
	createdAt time.Time
}

func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) {
	cid, uid := msg.Chat.ID, msg.From.ID
	r.typing(cid)
	est, err := r.meals.EstimateText(ctx, uid, msg.Text)
	if err != nil {
		r.reportError(cid, err, "text estimate", uid)
		return
	}
	r.offerEstimate(cid, est)
}

func (r *Router) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid, uid := msg.Chat.ID, msg.From.ID
	photo := largestPhoto(msg.Photo)
	if photo.FileSize > service.MaxImageSize {
		r.reportError(cid, service.ErrInputTooLarge, "photo estimate", uid)
		return
	}

	r.typing(cid)
	data, err := r.download(ctx, photo.FileID)
	if err != nil {
		r.logger.Error("failed to download photo", "user_id", uid, "file_id", photo.FileID, "error", err)
		r.send(cid, "Не удалось загрузить фото. Попробуйте ещё раз.")
		return
	}

	est, err := r.meals.EstimatePhoto(ctx, uid, data, http.DetectContentType(data), msg.Caption)
	if err != nil {
		r.reportError(cid, err, "photo estimate", uid)
		return
	}
	r.offerEstimate(cid, est)
}

// offerEstimate shows the estimate and keeps it until the user picks a meal
// type or it expires.
func (r *Router) offerEstimate(chatID int64, est *service.Estimate) {
	r.storePending(est)
	kb := mealTypeKeyboard(est.ID)
	r.sendWithMarkup(chatID, report.Estimate(est.Analysis.Result)+"\n\nК какому приёму пищи отнести?", &kb)
}

func (r *Router) storePending(est *service.Estimate) {
	now := r.now()
	r.pending.Range(func(k, v any) bool {
		if now.Sub(v.(*pendingEstimate).createdAt) > pendingTTL {
			r.pending.Delete(k)
		}
		return true
	})
	r.pending.Store(est.ID, &pendingEstimate{est: est, createdAt: now})
}

// takePending removes and returns a live estimate owned by userID.
func (r *Router) takePending(estimateID string, userID int64) (*pendingEstimate, bool) {
	v, ok := r.pending.LoadAndDelete(estimateID)
	if !ok {
		return nil, false
	}
	p := v.(*pendingEstimate)
	if p.est.TelegramID != userID {
		r.pending.Store(estimateID, p)
		return nil, false
	}
	if r.now().Sub(p.createdAt) > pendingTTL {
		return nil, false
	}
	return p, true
}

func (r *Router) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		r.logger.Debug("failed to answer callback", "error", cleanError(err))
	}
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	cid, mid, uid := cq.Message.Chat.ID, cq.Message.MessageID, cq.From.ID

	kind, rest, _ := strings.Cut(cq.Data, ":")
	switch kind {
	case cbMeal:
		mealType, estimateID, ok := strings.Cut(rest, ":")
		if !ok {
			return
		}
		r.logPending(ctx, cid, mid, uid, domain.MealType(mealType), estimateID)
	case cbCancel:
		if _, ok := r.takePending(rest, uid); !ok {
			r.edit(cid, mid, expiredText, nil)
			return
		}
		r.edit(cid, mid, "❌ Не записано.", nil)
	case cbDelete:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return
		}
		if err := r.meals.DeleteMeal(ctx, uid, id); err != nil {
			r.reportError(cid, err, "delete meal", uid)
			return
		}
		day, err := r.meals.Today(ctx, uid)
		if err != nil {
			r.reportError(cid, err, "today summary", uid)
			return
		}
		r.edit(cid, mid, report.Day(*day), deleteKeyboard(day.Meals))
	default:
		r.logger.Warn("unknown callback", "user_id", uid, "data", cq.Data)
	}
}

func (r *Router) logPending(ctx context.Context, chatID int64, messageID int, userID int64, mealType domain.MealType, estimateID string) {
	p, ok := r.takePending(estimateID, userID)
	if !ok {
		r.edit(chatID, messageID, expiredText, nil)
		return
	}

	meal, err := r.meals.LogMeal(ctx, p.est, mealType)
	if err != nil {
		// Keep the estimate so the user can retry, e.g. after /register.
		r.pending.Store(estimateID, p)
		r.reportError(chatID, err, "log meal", userID)
		return
	}

	text := report.Estimate(p.est.Analysis.Result) + "\n\n✅ Записано: " + meal.MealType.Title()
	if day, err := r.meals.Today(ctx, userID); err == nil {
		text += "\n" + report.CalorieLine(day.Totals.Calories, day.Targets.Calories)
	}
	r.edit(chatID, messageID, text, nil)
}

// largestPhoto picks the highest resolution variant Telegram offers.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height >= best.Width*best.Height {
			best = s
		}
	}
	return best
}

// download fetches a file from Telegram. Reads stop one byte past the image
// limit so the meal service can reject oversized files.
func (r *Router) download(ctx context.Context, fileID string) ([]byte, error) {
	link, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", cleanError(err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", cleanError(err))
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", cleanError(err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Error("failed to close resource", "label", "telegram file", "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, service.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// cleanError drops the request URL from transport errors. Telegram URLs
// carry the bot token.
func cleanError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
