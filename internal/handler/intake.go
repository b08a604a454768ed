package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/config"
	"github.com/crmline/intakebot/internal/domain"
	"github.com/crmline/intakebot/internal/middleware"
	"github.com/crmline/intakebot/internal/telegram"
	"github.com/crmline/intakebot/internal/workflow"
)

const (
	errText          = "⚠️ Произошла ошибка. Пожалуйста, попробуйте ещё раз чуть позже."
	fileUnexpected   = "🤖 Сейчас документы не ожидаются. Отправьте /start, чтобы начать заново."
	fileTooLargeText = "⚠️ Файл слишком большой. Максимальный размер — 20 МБ."
)

func (h *Handler) handleIntakeStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	h.processEvent(ctx, b, chatID, workflow.ChoiceEvent(workflow.DataStartIntake))
}

func (h *Handler) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	identity := middleware.GetIdentity(ctx)
	if identity.TelegramID == 0 {
		return
	}
	// Unknown commands are not conversation input.
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	// Management input is handled outside the engine.
	unlock := h.sessions.Lock(identity.TelegramID)
	sess, err := h.sessions.Get(ctx, identity)
	if err != nil {
		unlock()
		slog.Error("session load failed", "error", err, "telegram_id", identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}
	if sess.Step == domain.StepManageAwaitID {
		h.manageRecordByID(ctx, b, chatID, sess, update.Message.Text, unlock)
		return
	}
	unlock()

	h.processEvent(ctx, b, chatID, workflow.TextEvent(update.Message.Text))
}

func (h *Handler) handleDocument(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	identity := middleware.GetIdentity(ctx)
	if identity.TelegramID == 0 {
		return
	}
	doc := update.Message.Document

	unlock := h.sessions.Lock(identity.TelegramID)
	defer unlock()

	sess, err := h.sessions.Get(ctx, identity)
	if err != nil {
		slog.Error("session load failed", "error", err, "telegram_id", identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}
	if sess.Step != domain.StepAttachFiles {
		h.send(ctx, b, chatID, fileUnexpected)
		return
	}
	if doc.FileSize > config.MaxAttachmentSize {
		h.send(ctx, b, chatID, fileTooLargeText)
		return
	}

	data, err := telegram.DownloadFile(ctx, b, doc.FileID, config.MaxAttachmentSize)
	if err != nil {
		slog.Error("attachment download failed", "error", err, "file_id", doc.FileID)
		h.send(ctx, b, chatID, errText)
		return
	}

	name := doc.FileName
	if name == "" {
		name = doc.FileID
	}
	path, err := h.fileStore.Save(
		sess.Fields.KindCode,
		sess.Fields.OrganizationName,
		sess.Fields.ClientName,
		sess.Fields.RunID,
		name,
		data,
	)
	if err != nil {
		slog.Error("attachment save failed", "error", err, "name", name)
		h.send(ctx, b, chatID, errText)
		return
	}

	ev := workflow.FileEvent(domain.SessionAttachment{
		Path:         path,
		OriginalName: name,
		UploadedAt:   time.Now().UTC(),
	})
	h.advanceLocked(ctx, b, chatID, sess, ev)
}

// processEvent runs one engine transition under the identity's session lock.
func (h *Handler) processEvent(ctx context.Context, b *bot.Bot, chatID int64, ev workflow.Event) {
	identity := middleware.GetIdentity(ctx)
	if identity.TelegramID == 0 {
		return
	}

	unlock := h.sessions.Lock(identity.TelegramID)
	defer unlock()

	sess, err := h.sessions.Get(ctx, identity)
	if err != nil {
		slog.Error("session load failed", "error", err, "telegram_id", identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}
	h.advanceLocked(ctx, b, chatID, sess, ev)
}

// advanceLocked applies one event to an already loaded session. The caller
// holds the session lock. On engine error the stored session is left
// untouched so a retry replays the same step.
func (h *Handler) advanceLocked(ctx context.Context, b *bot.Bot, chatID int64, sess domain.Session, ev workflow.Event) {
	next, cmd, err := h.engine.Advance(ctx, sess, ev)
	if err != nil {
		slog.Error("engine advance failed", "error", err, "step", sess.Step)
		h.send(ctx, b, chatID, errText)
		return
	}

	if err := h.sessions.Put(ctx, next); err != nil {
		slog.Error("session save failed", "error", err, "telegram_id", sess.Identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}

	h.deliver(ctx, b, chatID, cmd)
}

// deliver renders one engine command into Telegram messages.
func (h *Handler) deliver(ctx context.Context, b *bot.Bot, chatID int64, cmd workflow.Command) {
	switch cmd.Kind {
	case workflow.CmdPrompt, workflow.CmdRequestFile:
		params := &bot.SendMessageParams{ChatID: chatID, Text: cmd.Text}
		if len(cmd.Choices) > 0 {
			params.ReplyMarkup = choiceKeyboard(cmd.Choices)
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			slog.Error("send prompt failed", "error", err, "chat_id", chatID)
		}

	case workflow.CmdSubmitted:
		h.send(ctx, b, chatID, fmt.Sprintf(
			"✅ Спасибо! Ваша заявка №%d принята.\nМы свяжемся с вами в указанное время.",
			cmd.Record.ID,
		))
		h.notifyOperators(ctx, b, cmd.Record.ID)
		h.sendMenu(ctx, b, chatID)

	case workflow.CmdMenu:
		h.sendMenu(ctx, b, chatID)
	}
}

func (h *Handler) sendMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	menu := h.engine.MenuFor(middleware.GetProfile(ctx))
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        menu.Text,
		ReplyMarkup: choiceKeyboard(menu.Choices),
	})
	if err != nil {
		slog.Error("send menu failed", "error", err, "chat_id", chatID)
	}
}

// notifyOperators posts a summary of the committed intake to the operator
// chat, if one is configured.
func (h *Handler) notifyOperators(ctx context.Context, b *bot.Bot, recordID int64) {
	if h.cfg.OperatorChatID == 0 {
		return
	}

	details, err := h.queries.GetIntakeDetails(ctx, recordID)
	if err != nil {
		slog.Error("load committed intake for notification failed", "error", err, "record_id", recordID)
		return
	}

	text := formatDetails(details, nil)
	if err := telegram.SendLongMessage(ctx, b, h.cfg.OperatorChatID, "🆕 Новая заявка!\n\n"+text); err != nil {
		slog.Error("operator notification failed", "error", err, "record_id", recordID)
	}
}

func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		slog.Error("send message failed", "error", err, "chat_id", chatID)
	}
}

func choiceKeyboard(choices []workflow.Choice) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, len(choices))
	for i, c := range choices {
		buttons[i] = telegram.InlineButton(c.Label, c.Data)
	}
	return telegram.ButtonColumn(buttons...)
}
