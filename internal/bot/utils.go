package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/pacing"
	"readingtracker/internal/sessions"
	"readingtracker/internal/tracker"
)

// sendMessage sends a prepared message
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		return // For testing
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}

// reply sends plain text to a chat
func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func statusLabel(s models.Status) string {
	switch s {
	case models.StatusWantToRead:
		return "on the want-to-read shelf"
	case models.StatusReading:
		return "being read"
	case models.StatusRead:
		return "finished"
	default:
		return string(s)
	}
}

func statusEmoji(s models.Status) string {
	switch s {
	case models.StatusReading:
		return "📖"
	case models.StatusRead:
		return "✅"
	default:
		return "📚"
	}
}

func formatBookList(books []models.Book) string {
	var text strings.Builder
	text.WriteString("Your books:\n\n")
	for i, book := range books {
		text.WriteString(fmt.Sprintf("%d. %s %s (%d/%d)\n",
			i+1, statusEmoji(book.Status), book.Title, book.CurrentPage, book.TotalPages))
	}
	return text.String()
}

// formatTargets renders the pacing lines of a progress card
func formatTargets(book models.Book, s pacing.Summary) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("📄 Page %d of %d (%.0f%%)\n", book.CurrentPage, book.TotalPages, s.OverallPercent))

	switch book.Status {
	case models.StatusReading:
		text.WriteString(fmt.Sprintf("🎯 Today's target: page %d (%d pages/day)\n", s.TodaysTarget, s.DailyGoal))
		text.WriteString(fmt.Sprintf("📈 Read today: %d pages (%.0f%% of goal)\n", s.PagesReadToday, s.TodayPercent))
		if s.RemainingToday > 0 {
			text.WriteString(fmt.Sprintf("⏳ %d pages left for today\n", s.RemainingToday))
		} else {
			text.WriteString("🎉 Today's target reached\n")
		}
		if s.HasTargetDate {
			text.WriteString(fmt.Sprintf("📅 Target date: %s", book.TargetDate.String()))
			if s.DaysRemaining >= 0 {
				text.WriteString(fmt.Sprintf(" (%d days left)\n", s.DaysRemaining))
			} else {
				text.WriteString(fmt.Sprintf(" (%d days overdue)\n", -s.DaysRemaining))
			}
		}
	case models.StatusRead:
		text.WriteString("✅ Finished\n")
	default:
		text.WriteString(fmt.Sprintf("📚 Not started. Goal: %d days\n", book.TargetDays))
	}

	if s.HasPace {
		text.WriteString(fmt.Sprintf("⏱ Average pace: %.1f min/page", s.AveragePace))
		if s.EstimatedMinutes > 0 {
			text.WriteString(fmt.Sprintf(", about %s to finish", formatDuration(time.Duration(s.EstimatedMinutes)*time.Minute)))
		}
		text.WriteString("\n")
	}
	if s.SessionOpen {
		text.WriteString(fmt.Sprintf("🔴 Session running for %s\n", formatDuration(s.SessionElapsed)))
	}
	return text.String()
}

// formatStatus renders the full progress card with the session table
func formatStatus(book models.Book, s pacing.Summary, rows []sessions.Stats) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("%s %s\n\n", statusEmoji(book.Status), book.Title))
	text.WriteString(formatTargets(book, s))

	if len(rows) > 0 {
		text.WriteString("\nSessions:\n")
		for i, r := range rows {
			line := fmt.Sprintf("%d. %s, %s", i+1, r.StartTime.Format("2006-01-02 15:04"), formatDuration(r.Duration))
			switch {
			case r.Open:
				line += ", running"
			case r.HasPace:
				line += fmt.Sprintf(", %d pages, %.1f min/page", r.Pages, r.Pace)
			default:
				line += fmt.Sprintf(", %d pages", r.Pages)
			}
			text.WriteString(line + "\n")
		}
	}
	return text.String()
}

// formatDuration renders durations as "1h 5m" or "12m"
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatProblems lists validation problems in field order
func formatProblems(verr *tracker.ValidationError) string {
	labels := map[string]string{
		"title":      "Title",
		"totalPages": "Pages",
		"targetDays": "Days",
	}

	fields := make([]string, 0, len(verr.Problems))
	for f := range verr.Problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		label, ok := labels[f]
		if !ok {
			label = f
		}
		lines = append(lines, fmt.Sprintf("%s %s", label, verr.Problems[f]))
	}
	return strings.Join(lines, "\n")
}
