package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	if state, ok := b.getState(userID); ok {
		if state.Step == -1 || message.IsCommand() {
			// Any command interrupts an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	args := strings.Fields(message.CommandArguments())
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "add":
		b.handleAddStart(message)
	case "books":
		b.handleBooks(chatID)
	case "status":
		b.handleStatus(chatID, args)
	case "begin":
		b.handleBegin(ctx, chatID, args)
	case "page":
		b.handlePage(ctx, chatID, args)
	case "yesterday":
		b.handleYesterday(ctx, chatID, args)
	case "title":
		b.handleTitle(ctx, chatID, message.CommandArguments())
	case "delete":
		b.handleDelete(ctx, chatID, args)
	case "session_start":
		b.handleSessionStart(ctx, chatID, args)
	case "session_end":
		b.handleSessionEnd(ctx, chatID, args)
	case "session_delete":
		b.handleSessionDelete(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /start to see available commands.")
	}
}
