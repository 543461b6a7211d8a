package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
)

// follower turns a session's snapshots into chat messages. Each fact is
// posted once; snapshots dropped by the broadcaster are simply skipped.
type follower struct {
	bot    *Bot
	chatID int64

	phase     app.Phase
	loadErr   string
	index     int
	answered  bool
	factSent  bool
	hintSent  bool
	finished  bool
	highShown bool
}

func (f *follower) render(s app.Snapshot) {
	switch s.Phase {
	case app.PhaseLoading:
		f.renderLoading(s)
	case app.PhaseInProgress:
		f.renderQuestion(s)
	case app.PhaseResults:
		f.renderResults(s)
	}
	f.phase = s.Phase
}

func (f *follower) renderLoading(s app.Snapshot) {
	if f.phase != app.PhaseLoading {
		f.finished, f.highShown, f.index, f.loadErr = false, false, -1, ""
		if s.Error == "" {
			f.bot.sendText(f.chatID, "Preparing your questions...\n"+s.Tip)
		}
	}
	if s.Error != "" && s.Error != f.loadErr {
		f.loadErr = s.Error
		msg := tgbotapi.NewMessage(f.chatID, s.Error)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Try again", "retry"),
			tgbotapi.NewInlineKeyboardButtonData("Menu", "quit"),
		))
		f.bot.send(msg)
	}
}

func (f *follower) renderQuestion(s app.Snapshot) {
	if s.Question == nil {
		return
	}
	if f.phase != app.PhaseInProgress || s.Index != f.index {
		if f.phase != app.PhaseInProgress {
			f.finished, f.highShown = false, false
		}
		f.index, f.answered, f.factSent, f.hintSent = s.Index, false, false, false
		f.bot.send(questionMessage(f.chatID, s))
	}
	if s.Hint != nil && !s.Hint.Loading && !f.hintSent {
		f.hintSent = true
		f.bot.sendText(f.chatID, "Hint: "+s.Hint.Text+sourceLines(s.Hint.Sources))
	}
	if s.Answered && !f.answered {
		f.answered = true
		f.bot.send(verdictMessage(f.chatID, s))
	}
	if s.Answered && s.FactCheck != nil && !s.FactCheck.Loading && !f.factSent {
		f.factSent = true
		f.bot.sendText(f.chatID, "Fact check: "+s.FactCheck.Text+sourceLines(s.FactCheck.Sources))
	}
}

func (f *follower) renderResults(s app.Snapshot) {
	if !f.finished {
		f.finished = true
		f.highShown = s.NewHighScore
		text := fmt.Sprintf("Journey complete!\n\nScore: %d\nRank: %s\nBest: %d", s.Score, s.Rank, s.HighScore)
		if s.NewHighScore {
			text += "\nNew high score!"
		}
		if s.ShareText != "" {
			text += "\n\n" + s.ShareText
		}
		msg := tgbotapi.NewMessage(f.chatID, text)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Play again", "restart"),
			tgbotapi.NewInlineKeyboardButtonData("Menu", "quit"),
		))
		f.bot.send(msg)
		return
	}
	if s.NewHighScore && !f.highShown {
		f.highShown = true
		f.bot.sendText(f.chatID, fmt.Sprintf("New high score: %d!", s.HighScore))
	}
}

func questionMessage(chatID int64, s app.Snapshot) tgbotapi.MessageConfig {
	text := fmt.Sprintf("Question %d/%d  (%d s)\n\n%s", s.Index+1, s.Total, s.TimeBudget, s.Question.Prompt)
	msg := tgbotapi.NewMessage(chatID, text)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range s.Question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Text, "answer:"+opt.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Hint (no time bonus)", "hint"),
		tgbotapi.NewInlineKeyboardButtonData("Quit", "quit"),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}

func verdictMessage(chatID int64, s app.Snapshot) tgbotapi.MessageConfig {
	var sb strings.Builder
	switch {
	case s.Correct:
		fmt.Fprintf(&sb, "Correct! +%d points", s.Awarded)
	case s.TimeLeft == 0:
		sb.WriteString("Time's up!")
	default:
		sb.WriteString("Not quite.")
	}
	if q := s.Question; q != nil {
		for _, opt := range q.Options {
			if opt.ID == q.CorrectID && !s.Correct {
				sb.WriteString("\nAnswer: " + opt.Text)
			}
		}
		if q.Explanation != "" {
			sb.WriteString("\n\n" + q.Explanation)
		}
		if q.BibleVerse != "" {
			sb.WriteString("\n" + q.BibleVerse)
		}
	}
	label := "Next question"
	if s.Index+1 >= s.Total {
		label = "See results"
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label, "next"),
	))
	return msg
}

func sourceLines(sources []domain.GroundingSource) string {
	var sb strings.Builder
	for _, src := range sources {
		sb.WriteString("\n- " + src.Title + " " + src.URI)
	}
	return sb.String()
}
