package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/domain"
	"github.com/crmline/intakebot/internal/middleware"
)

// handleStart cancels any in-flight conversation and shows the start menu.
// Files already saved for the abandoned session are removed.
func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	identity := middleware.GetIdentity(ctx)
	if identity.TelegramID == 0 {
		return
	}

	unlock := h.sessions.Lock(identity.TelegramID)
	sess, err := h.sessions.Get(ctx, identity)
	if err == nil && len(sess.Attachments) > 0 {
		paths := make([]string, len(sess.Attachments))
		for i, att := range sess.Attachments {
			paths[i] = att.Path
		}
		if err := h.fileStore.Remove(paths); err != nil {
			slog.Warn("abandoned attachments cleanup failed", "error", err)
		}
	}
	if err := h.sessions.Clear(ctx, identity.TelegramID); err != nil {
		slog.Error("session clear failed", "error", err, "telegram_id", identity.TelegramID)
	}
	unlock()

	h.sendMenu(ctx, b, chatID)
}

// handleGetMyID echoes the caller's identity; operators additionally see
// their access level and flags.
func (h *Handler) handleGetMyID(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	identity := middleware.GetIdentity(ctx)
	if identity.TelegramID == 0 {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, formatMyID(identity, middleware.GetProfile(ctx)))
}

func formatMyID(identity domain.Identity, profile domain.Profile) string {
	var sb strings.Builder
	if profile.Elevated {
		fmt.Fprintf(&sb, "Добро пожаловать %s! Вы являетесь системным пользователем!\n\n", profile.FullName)
		sb.WriteString("Ваши уровни доступа:\n\n")
		fmt.Fprintf(&sb, "Уровень: %s\n", profile.Level)
		fmt.Fprintf(&sb, "Чтение: %s\n", yesNo(profile.CanRead))
		fmt.Fprintf(&sb, "Запись: %s\n", yesNo(profile.CanWrite))
		fmt.Fprintf(&sb, "Удаление: %s\n\n", yesNo(profile.CanDelete))
	}
	fmt.Fprintf(&sb, "ID пользователя: %d\n", identity.TelegramID)
	fmt.Fprintf(&sb, "Пользователь: %s", identity.FirstName)
	if identity.Username != "" {
		fmt.Fprintf(&sb, " (Username: @%s)", identity.Username)
	}
	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// handleStatus reports uptime and database reachability. Operators only.
func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	profile := middleware.GetProfile(ctx)
	if !profile.Elevated {
		h.send(ctx, b, chatID, "⛔ Команда доступна только операторам.")
		return
	}

	dbState := "✅ доступна"
	if err := h.queries.Ping(ctx); err != nil {
		slog.Error("status db ping failed", "error", err)
		dbState = "❌ недоступна"
	}

	uptime := time.Since(h.startedAt).Round(time.Second)
	h.send(ctx, b, chatID, fmt.Sprintf(
		"🤖 Бот работает.\nВремя работы: %s\nБаза данных: %s",
		uptime, dbState,
	))
}

func (h *Handler) handleBackMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	h.sendMenu(ctx, b, chatID)
}
