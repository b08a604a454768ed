package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// chatLimiter applies a token bucket per chat and periodically evicts idle
// entries.
type chatLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu     sync.Mutex
	byChat map[int64]*limiterEntry
	hits   uint64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newChatLimiter(rps float64, burst int, idleTTL time.Duration) *chatLimiter {
	return &chatLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byChat:  make(map[int64]*limiterEntry),
	}
}

func (l *chatLimiter) allow(chatID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byChat[chatID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byChat[chatID] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for id, v := range l.byChat {
			if v.lastSeen.Before(cutoff) {
				delete(l.byChat, id)
			}
		}
	}

	return allowed
}

// RateLimit returns middleware that drops messages exceeding the per-chat
// token bucket. Callback queries are not limited.
func RateLimit(rps float64, burst int, idleTTL time.Duration) bot.Middleware {
	limiter := newChatLimiter(rps, burst, idleTTL)
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiter.allow(chatID, time.Now()) {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Слишком много запросов. Подождите немного.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
