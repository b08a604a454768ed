package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/domain"
	"github.com/crmline/intakebot/internal/middleware"
	"github.com/crmline/intakebot/internal/telegram"
)

const noAccessText = "⛔ Недостаточно прав."

// handleManageMenu shows the management menu. Read access required.
func (h *Handler) handleManageMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}

	profile := middleware.GetProfile(ctx)
	if !profile.Elevated || !profile.CanRead {
		h.send(ctx, b, chatID, noAccessText)
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🛠 Управление заявками:",
		ReplyMarkup: telegram.ButtonColumn(
			telegram.InlineButton("Список заявок", dataManageList),
			telegram.InlineButton("Вся информация о заявке по ID", dataManageGet),
			telegram.InlineButton("Назад", dataBackMenu),
		),
	})
	if err != nil {
		slog.Error("send manage menu failed", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) handleManageList(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(ctx)
	profile := middleware.GetProfile(ctx)
	if !profile.Elevated || !profile.CanRead {
		h.send(ctx, b, chatID, noAccessText)
		return
	}

	summaries, err := h.queryService.ListStatuses(ctx, identity.TelegramID, profile)
	if err != nil {
		slog.Error("manage list failed", "error", err)
		h.send(ctx, b, chatID, errText)
		return
	}
	if len(summaries) == 0 {
		h.send(ctx, b, chatID, "📭 Заявок пока нет.")
		return
	}
	if err := telegram.SendLongMessage(ctx, b, chatID, formatSummaries(summaries)); err != nil {
		slog.Error("send manage listing failed", "error", err, "chat_id", chatID)
	}
}

// handleManageGet asks for a record ID; the next text message is parsed as
// the ID.
func (h *Handler) handleManageGet(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(ctx)
	profile := middleware.GetProfile(ctx)
	if !profile.Elevated || !profile.CanRead {
		h.send(ctx, b, chatID, noAccessText)
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
	sess.Step = domain.StepManageAwaitID
	if err := h.sessions.Put(ctx, sess); err != nil {
		slog.Error("session save failed", "error", err, "telegram_id", identity.TelegramID)
		h.send(ctx, b, chatID, errText)
		return
	}

	h.send(ctx, b, chatID, "🤖 Введите ID заявки:")
}

// manageRecordByID handles the text turn after "info by ID". The caller
// holds the session lock; unlock releases it.
func (h *Handler) manageRecordByID(ctx context.Context, b *bot.Bot, chatID int64, sess domain.Session, text string, unlock func()) {
	profile := middleware.GetProfile(ctx)

	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		unlock()
		h.send(ctx, b, chatID, "⚠️ ID заявки должен быть числом. Попробуйте ещё раз:")
		return
	}

	details, atts, err := h.queryService.GetFullRecord(ctx, profile, id)
	if err != nil {
		unlock()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.send(ctx, b, chatID, fmt.Sprintf("🔍 Заявка №%d не найдена.", id))
		case errors.Is(err, domain.ErrForbidden):
			h.send(ctx, b, chatID, noAccessText)
		default:
			slog.Error("get full record failed", "error", err, "record_id", id)
			h.send(ctx, b, chatID, errText)
		}
		return
	}

	sess.Step = domain.StepMenu
	if err := h.sessions.Put(ctx, sess); err != nil {
		slog.Error("session save failed", "error", err, "telegram_id", sess.Identity.TelegramID)
	}
	unlock()

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   formatDetails(details, atts),
	}
	buttons := []models.InlineKeyboardButton{
		telegram.InlineButton("Назад", dataBackMenu),
	}
	if len(atts) > 0 {
		buttons = append([]models.InlineKeyboardButton{
			telegram.InlineButton("Скачать документы", fmt.Sprintf("%s%d", dataDownloadPref, id)),
		}, buttons...)
	}
	params.ReplyMarkup = telegram.ButtonColumn(buttons...)
	if _, err := b.SendMessage(ctx, params); err != nil {
		slog.Error("send record details failed", "error", err, "chat_id", chatID)
	}
}

// handleDownload sends every attachment of a record back as documents.
func (h *Handler) handleDownload(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	chatID, ok := callbackChatID(update)
	if !ok {
		return
	}
	profile := middleware.GetProfile(ctx)
	if !profile.Elevated || !profile.CanRead {
		h.send(ctx, b, chatID, noAccessText)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, dataDownloadPref), 10, 64)
	if err != nil {
		return
	}

	_, atts, err := h.queryService.GetFullRecord(ctx, profile, id)
	if err != nil {
		slog.Error("load attachments failed", "error", err, "record_id", id)
		h.send(ctx, b, chatID, errText)
		return
	}
	if len(atts) == 0 {
		h.send(ctx, b, chatID, "📭 У заявки нет документов.")
		return
	}

	for _, att := range atts {
		data, err := h.fileStore.Read(att.FilePath)
		if err != nil {
			slog.Error("attachment read failed", "error", err, "path", att.FilePath)
			h.send(ctx, b, chatID, fmt.Sprintf("⚠️ Не удалось прочитать файл %s.", att.OriginalName))
			continue
		}
		_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID: chatID,
			Document: &models.InputFileUpload{
				Filename: att.OriginalName,
				Data:     bytes.NewReader(data),
			},
		})
		if err != nil {
			slog.Error("send attachment failed", "error", err, "path", att.FilePath)
		}
	}
}

func formatDetails(d *domain.IntakeDetails, atts []domain.Attachment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📄 Заявка №%d\n\n", d.ID)
	fmt.Fprintf(&sb, "Тип обращения: %s\n", d.RequesterKind)
	fmt.Fprintf(&sb, "Имя клиента: %s\n", d.ClientName)
	if d.OrganizationName != "" {
		fmt.Fprintf(&sb, "Организация: %s\n", d.OrganizationName)
	}
	if d.Category != "" {
		fmt.Fprintf(&sb, "Категория: %s\n", d.Category)
	}
	if d.Subcategory != "" {
		fmt.Fprintf(&sb, "Подкатегория: %s\n", d.Subcategory)
	}
	fmt.Fprintf(&sb, "Telegram: %d", d.TelegramID)
	if d.Username != "" {
		fmt.Fprintf(&sb, " (@%s)", d.Username)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Способ связи: %s\n", d.ContactChannel)
	fmt.Fprintf(&sb, "Телефон: %s\n", d.Phone)
	fmt.Fprintf(&sb, "Почта: %s\n", d.Email)
	fmt.Fprintf(&sb, "Удобное время: %s\n", d.ConvenientTime)
	fmt.Fprintf(&sb, "Статус: %s\n", d.Status)
	fmt.Fprintf(&sb, "Создана: %s\n", d.CreatedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "\nОписание:\n%s\n", d.Description)

	if len(atts) > 0 {
		fmt.Fprintf(&sb, "\nДокументы (%d):\n", len(atts))
		for _, att := range atts {
			fmt.Fprintf(&sb, "• %s\n", att.OriginalName)
		}
	}
	return sb.String()
}
