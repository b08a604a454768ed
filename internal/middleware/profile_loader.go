package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/domain"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	profileKey  ctxKey = "profile"
)

// GetIdentity extracts the Telegram identity from context. The zero value
// means the update carried no sender.
func GetIdentity(ctx context.Context) domain.Identity {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}
	}
	return id
}

// GetProfile extracts the resolved access profile from context. Updates
// without a sender, or senders the resolver rejects, get Anonymous.
func GetProfile(ctx context.Context) domain.Profile {
	p, ok := ctx.Value(profileKey).(domain.Profile)
	if !ok {
		return domain.Anonymous
	}
	return p
}

// ProfileResolver maps a Telegram ID to an access profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, telegramID int64) domain.Profile
}

// ProfileLoader returns middleware that resolves the sender's access profile
// on every update. Profiles are never cached across updates, so revoking an
// operator takes effect on their next message.
func ProfileLoader(resolver ProfileResolver) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			identity := domain.Identity{
				TelegramID: from.ID,
				Username:   from.Username,
				FirstName:  from.FirstName,
			}
			ctx = context.WithValue(ctx, identityKey, identity)
			ctx = context.WithValue(ctx, profileKey, resolver.Resolve(ctx, from.ID))

			next(ctx, b, update)
		}
	}
}
