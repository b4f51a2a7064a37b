package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readingtracker/internal/tracker"
)

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case "add":
		b.handleAddConversation(ctx, message, state)
	}

	// Clean up completed conversations, store the rest
	if state.Step == -1 {
		b.clearState(message.From.ID)
		return
	}
	b.setState(message.From.ID, state)
}

// handleAddConversation collects title, page count and day count, then
// adds the book
func (b *Bot) handleAddConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for title
		if text == "" {
			b.reply(chatID, "The title cannot be empty. Please enter the book title:")
			return
		}
		state.Data["title"] = text
		state.Step = 2
		b.reply(chatID, "How many pages does it have?")

	case 2: // Waiting for total pages
		state.Data["total_pages"] = text
		state.Step = 3
		b.reply(chatID, "In how many days do you want to finish it?")

	case 3: // Waiting for target days
		book, err := b.tracker.AddBook(ctx, state.Data["title"], state.Data["total_pages"], text)
		var verr *tracker.ValidationError
		switch {
		case errors.As(err, &verr):
			b.reply(chatID, "❌ "+formatProblems(verr)+"\n\nStart again with /add")
		case err != nil:
			b.logger.Error("Failed to add book", zap.Error(err), zap.Int64("user_id", message.From.ID))
			b.reply(chatID, fmt.Sprintf("Error adding book: %v", err))
		default:
			b.reply(chatID, fmt.Sprintf("✅ Added %q\n📄 %d pages, %d days\n\nStart it with /begin %d",
				book.Title, book.TotalPages, book.TargetDays, len(b.tracker.Books())))
		}

		state.Step = -1 // Mark conversation as complete
	}
}
