package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/domain"
	"github.com/crmline/intakebot/internal/middleware"
	"github.com/crmline/intakebot/internal/telegram"
)

const timeLayout = "02.01.2006 15:04"

// handleListStatuses shows the status listing: all intakes for operators with
// read access, the caller's own intakes for everyone else.
func (h *Handler) handleListStatuses(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(ctx)
	profile := middleware.GetProfile(ctx)

	summaries, err := h.queryService.ListStatuses(ctx, identity.TelegramID, profile)
	if err != nil {
		slog.Error("list statuses failed", "error", err, "telegram_id", identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}
	if len(summaries) == 0 {
		h.send(ctx, b, chatID, "📭 Заявок пока нет.")
		return
	}

	if err := telegram.SendLongMessage(ctx, b, chatID, formatSummaries(summaries)); err != nil {
		slog.Error("send status listing failed", "error", err, "chat_id", chatID)
	}
}

func formatSummaries(summaries []domain.IntakeSummary) string {
	var sb strings.Builder
	sb.WriteString("📋 Заявки:\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("\n№%d | %s", s.ID, s.ClientName))
		if s.OrganizationName != "" {
			sb.WriteString(" (" + s.OrganizationName + ")")
		}
		sb.WriteString(fmt.Sprintf("\n%s | %s\n", s.CreatedAt.Format(timeLayout), s.Status))
	}
	return sb.String()
}
