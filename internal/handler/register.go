package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crmline/intakebot/internal/workflow"
)

// Callback payloads owned by the handler layer. Bare numeric payloads belong
// to the engine and reach it through the default handler.
const (
	dataManageList   = "manage_list"
	dataManageGet    = "manage_get"
	dataBackMenu     = "back_menu"
	dataDownloadPref = "dl_"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/get_my_id", bot.MatchTypePrefix, h.handleGetMyID)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, h.handleStatus)

	// Menu callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, workflow.DataStartIntake, bot.MatchTypeExact, h.handleIntakeStart)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, workflow.DataListStatuses, bot.MatchTypeExact, h.handleListStatuses)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, dataBackMenu, bot.MatchTypeExact, h.handleBackMenu)

	// Management callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, workflow.DataManage, bot.MatchTypeExact, h.handleManageMenu)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, dataManageList, bot.MatchTypeExact, h.handleManageList)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, dataManageGet, bot.MatchTypeExact, h.handleManageGet)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, dataDownloadPref, bot.MatchTypePrefix, h.handleDownload)

	// Note: free text, documents and engine choice callbacks are routed
	// through Default, wired as the bot's default handler in main.go.
}

// Default routes updates that no registered handler matched: free text and
// documents feed the conversation, unmatched callback payloads are choice
// selections.
func (h *Handler) Default(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.answerCallback(ctx, b, update)
		chatID, ok := callbackChatID(update)
		if !ok {
			return
		}
		h.processEvent(ctx, b, chatID, workflow.ChoiceEvent(update.CallbackQuery.Data))

	case update.Message != nil && update.Message.Document != nil:
		h.handleDocument(ctx, b, update)

	case update.Message != nil && update.Message.Text != "":
		h.handleText(ctx, b, update)
	}
}

func (h *Handler) answerCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
}

func callbackChatID(update *models.Update) (int64, bool) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return 0, false
	}
	return update.CallbackQuery.Message.Message.Chat.ID, true
}
