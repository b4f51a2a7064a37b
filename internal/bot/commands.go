package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/tracker"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to the Reading Tracker! 📚

Available commands:
/add - Add a book
/books - List your books (N below is the number in this list)
/status N - Show progress and today's target
/begin N - Start reading a book
/page N P - Set the current page
/yesterday N P - Record the page reached yesterday
/title N T - Rename a book
/delete N - Delete a book
/session_start N - Start a timed reading session
/session_end N [P] - End the session at page P
/session_delete N S - Delete session S (number or id from /status)`

	b.reply(message.Chat.ID, text)
}

// handleAddStart initiates the add book conversation
func (b *Bot) handleAddStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: "add",
		Step:    1,
		Data:    make(map[string]string),
	})

	b.reply(message.Chat.ID, "Please enter the book title:")
}

// handleBooks lists the collection in insertion order with a button per book
func (b *Bot) handleBooks(chatID int64) {
	books := b.tracker.Books()
	if len(books) == 0 {
		b.reply(chatID, "No books yet. Add one with /add")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatBookList(books))

	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, book := range books {
		button := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d. %s", i+1, book.Title),
			"book:"+book.ID,
		)
		currentRow = append(currentRow, button)

		// Add row when we have 2 buttons or it's the last book
		if len(currentRow) == 2 || i == len(books)-1 {
			rows = append(rows, currentRow)
			currentRow = []tgbotapi.InlineKeyboardButton{}
		}
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(msg)
}

// handleStatus shows one book's progress card
func (b *Bot) handleStatus(chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/status N")
	if !ok {
		return
	}
	b.sendStatus(chatID, book.ID)
}

func (b *Bot) handleBegin(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/begin N")
	if !ok {
		return
	}
	b.handleBeginCallback(ctx, chatID, book.ID)
}

func (b *Bot) handlePage(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/page N P")
	if !ok {
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /page N P")
		return
	}

	updated, outcome, err := b.tracker.UpdateCurrentPage(ctx, book.ID, args[1])
	b.replyOutcome(chatID, updated, outcome, err, fmt.Sprintf("✅ %q is now on page %d", updated.Title, updated.CurrentPage))
}

func (b *Bot) handleYesterday(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/yesterday N P")
	if !ok {
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /yesterday N P")
		return
	}

	updated, outcome, err := b.tracker.UpdateYesterdayPage(ctx, book.ID, args[1])
	b.replyOutcome(chatID, updated, outcome, err, fmt.Sprintf("✅ Recorded yesterday's page for %q", updated.Title))
}

// handleTitle takes the raw argument string so titles keep their spaces
func (b *Bot) handleTitle(ctx context.Context, chatID int64, rawArgs string) {
	index, title, _ := strings.Cut(strings.TrimSpace(rawArgs), " ")
	book, ok := b.resolveBook(chatID, []string{index}, "/title N T")
	if !ok {
		return
	}

	updated, outcome, err := b.tracker.UpdateTitle(ctx, book.ID, title)
	b.replyOutcome(chatID, updated, outcome, err, fmt.Sprintf("✅ Renamed to %q", updated.Title))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/delete N")
	if !ok {
		return
	}

	outcome, err := b.tracker.DeleteBook(ctx, book.ID)
	if err != nil {
		b.logger.Error("Failed to delete book", zap.Error(err), zap.String("book_id", book.ID))
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if outcome == tracker.NotFound {
		b.reply(chatID, bookNotFoundText)
		return
	}
	b.reply(chatID, fmt.Sprintf("🗑 Deleted %q", book.Title))
}

func (b *Bot) handleSessionStart(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/session_start N")
	if !ok {
		return
	}
	b.handleSessionStartCallback(ctx, chatID, book.ID)
}

func (b *Bot) handleSessionEnd(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/session_end N [P]")
	if !ok {
		return
	}

	// Without a page the session ends on the current page
	rawPage := ""
	if len(args) > 1 {
		rawPage = args[1]
	}

	updated, outcome, err := b.tracker.EndSession(ctx, book.ID, rawPage)
	if outcome == tracker.Unchanged && err == nil {
		b.reply(chatID, fmt.Sprintf("No session is running for %q.", updated.Title))
		return
	}
	b.replyOutcome(chatID, updated, outcome, err, fmt.Sprintf("⏹ Session ended at page %d", updated.CurrentPage))
}

func (b *Bot) handleSessionDelete(ctx context.Context, chatID int64, args []string) {
	book, ok := b.resolveBook(chatID, args, "/session_delete N S")
	if !ok {
		return
	}
	if len(args) < 2 {
		b.reply(chatID, "Usage: /session_delete N S")
		return
	}

	sessionID := args[1]
	if row, err := strconv.Atoi(sessionID); err == nil && row >= 1 && row <= len(book.ReadingSessions) {
		sessionID = book.ReadingSessions[row-1].ID
	}

	updated, outcome, err := b.tracker.DeleteSession(ctx, book.ID, sessionID)
	if outcome == tracker.NotFound && err == nil {
		b.reply(chatID, "Session not found. Use /status to see the sessions.")
		return
	}
	b.replyOutcome(chatID, updated, outcome, err, "🗑 Session deleted")
}

// sendStatus sends a book's progress card with the actions that apply to it
func (b *Bot) sendStatus(chatID int64, bookID string) {
	book, ok := b.tracker.Book(bookID)
	if !ok {
		b.reply(chatID, bookNotFoundText)
		return
	}
	summary, _ := b.tracker.Summary(bookID)
	rows, _ := b.tracker.SessionTable(bookID)

	msg := tgbotapi.NewMessage(chatID, formatStatus(book, summary, rows))
	switch {
	case book.Status == models.StatusWantToRead:
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Start reading", "begin:"+book.ID),
		))
	case book.Status == models.StatusReading && !summary.SessionOpen:
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Start session", "session_start:"+book.ID),
		))
	}
	b.sendMessage(msg)
}

const bookNotFoundText = "Book not found. Use /books to see the list."

// resolveBook maps the first argument, a 1-based position in /books, to a
// book. It replies with the usage or an error when that fails.
func (b *Bot) resolveBook(chatID int64, args []string, usage string) (models.Book, bool) {
	if len(args) == 0 || args[0] == "" {
		b.reply(chatID, "Usage: "+usage)
		return models.Book{}, false
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(chatID, "Invalid book number. Usage: "+usage)
		return models.Book{}, false
	}

	books := b.tracker.Books()
	if idx < 1 || idx > len(books) {
		b.reply(chatID, bookNotFoundText)
		return models.Book{}, false
	}
	return books[idx-1], true
}

// replyOutcome reports the result of a mutation
func (b *Bot) replyOutcome(chatID int64, book models.Book, outcome tracker.Outcome, err error, applied string) {
	switch {
	case errors.Is(err, tracker.ErrValidation), errors.Is(err, tracker.ErrPageRegression):
		b.reply(chatID, "❌ "+err.Error())
	case err != nil:
		b.logger.Error("Mutation failed", zap.Error(err), zap.String("book_id", book.ID))
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
	case outcome == tracker.NotFound:
		b.reply(chatID, bookNotFoundText)
	case outcome == tracker.Unchanged:
		b.reply(chatID, "Nothing changed.")
	default:
		b.sendStatusAfter(chatID, book, applied)
	}
}

// sendStatusAfter prefixes the progress card with a confirmation line
func (b *Bot) sendStatusAfter(chatID int64, book models.Book, headline string) {
	summary, ok := b.tracker.Summary(book.ID)
	if !ok {
		b.reply(chatID, headline)
		return
	}
	b.reply(chatID, headline+"\n\n"+formatTargets(book, summary))
}
