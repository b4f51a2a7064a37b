package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readingtracker/internal/tracker"
)

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}
	ctx := context.Background()
	chatID := query.Message.Chat.ID

	action, bookID, ok := strings.Cut(query.Data, ":")
	if !ok {
		return
	}

	switch action {
	case "book":
		b.sendStatus(chatID, bookID)
	case "begin":
		b.handleBeginCallback(ctx, chatID, bookID)
	case "session_start":
		b.handleSessionStartCallback(ctx, chatID, bookID)
	default:
		b.logger.Debug("Unknown callback action", zap.String("callback_data", query.Data))
	}
}

// handleBeginCallback starts reading the book with the given id
func (b *Bot) handleBeginCallback(ctx context.Context, chatID int64, bookID string) {
	book, outcome, err := b.tracker.StartReading(ctx, bookID)
	if outcome == tracker.Unchanged && err == nil {
		b.reply(chatID, fmt.Sprintf("%q is already %s.", book.Title, statusLabel(book.Status)))
		return
	}
	b.replyOutcome(chatID, book, outcome, err, fmt.Sprintf("📖 Started %q", book.Title))
}

// handleSessionStartCallback opens a session on the book with the given id
func (b *Bot) handleSessionStartCallback(ctx context.Context, chatID int64, bookID string) {
	book, outcome, err := b.tracker.StartSession(ctx, bookID)
	if outcome == tracker.Unchanged && err == nil {
		b.reply(chatID, fmt.Sprintf("A session for %q is already running. End it with /session_end.", book.Title))
		return
	}
	b.replyOutcome(chatID, book, outcome, err, fmt.Sprintf("⏱ Session started for %q at page %d", book.Title, book.CurrentPage))
}
