package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	pollTimeoutSeconds   = 30
	baseRetryDelay       = 1 * time.Second
	maxRetryDelay        = 15 * time.Second
	idleDelay            = 200 * time.Millisecond
	handlerTimeout       = 2 * time.Minute
	maxConcurrentUpdates = 8
)

var reRetryAfter = regexp.MustCompile(`retry after (\d+)`)

// Run long-polls Telegram until ctx is cancelled, then waits for in-flight
// updates to finish.
func (r *Router) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)

	r.logger.Info("telegram polling started")
	offset := 0
	for ctx.Err() == nil {
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeoutSeconds

		updates, err := r.bot.GetUpdates(u)
		if err != nil {
			d := pollDelay(err)
			r.logger.Warn("polling failed", "error", cleanError(err), "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			g.Go(func() error {
				r.handleSafely(ctx, upd)
				return nil
			})
		}

		if len(updates) == 0 {
			sleep(ctx, idleDelay)
		}
	}

	r.logger.Info("telegram polling stopped, waiting for handlers")
	return g.Wait()
}

// handleSafely runs one update with its own deadline. Handlers outlive
// shutdown of the poll loop so a reply in progress is not cut off.
func (r *Router) handleSafely(ctx context.Context, upd tgbotapi.Update) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("update handler panicked", "update_id", upd.UpdateID, "panic", p)
		}
	}()
	r.HandleUpdate(hctx, upd)
}

// pollDelay is how long to wait before the next getUpdates call. A
// retry_after sent by Telegram is obeyed as is; guessed delays are clamped.
func pollDelay(err error) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return min(max(retryDelayFromError(err), baseRetryDelay), maxRetryDelay)
}

// retryDelayFromError picks a backoff for a failed getUpdates call.
func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
