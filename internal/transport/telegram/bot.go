// Package telegram plays the Genna quiz in Telegram chats. Each chat gets its
// own local storage and at most one running quiz session.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
)

// Sender is the part of the Bot API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the use cases the bot exposes.
type Services struct {
	KV          storage.KV
	Quiz        *app.QuizService
	Leaderboard *app.LeaderboardService
	Content     *app.ContentService
}

type Bot struct {
	api  *tgbotapi.BotAPI
	out  Sender
	svc  Services
	ctx  context.Context
	quit context.CancelFunc

	mu    sync.Mutex
	games map[int64]string
}

// NewBot authorizes against the Bot API with token.
func NewBot(token string, svc Services) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	b := newBot(api, svc)
	b.api = api
	return b, nil
}

func newBot(out Sender, svc Services) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{out: out, svc: svc, ctx: ctx, quit: cancel, games: make(map[int64]string)}
}

// Run polls for updates until ctx is done, then ends every running game.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("telegram bot authorized as %s", b.api.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.Close()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(update)
		}
	}
}

// Close ends every game the bot started.
func (b *Bot) Close() {
	b.quit()
	b.mu.Lock()
	games := b.games
	b.games = make(map[int64]string)
	b.mu.Unlock()
	for _, id := range games {
		b.svc.Quiz.End(id)
	}
}

func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "menu":
		b.sendMenu(chatID)
	case "play":
		d := domain.Medium
		if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
			parsed, err := domain.ParseDifficulty(arg)
			if err != nil {
				b.sendText(chatID, "Pick a difficulty: Easy, Medium or Hard.")
				return
			}
			d = parsed
		}
		b.startGame(chatID, d)
	case "leaderboard":
		b.sendLeaderboard(chatID)
	case "facts":
		b.sendFacts(chatID)
	case "quit":
		b.endGame(chatID)
		b.sendText(chatID, "Quiz ended.")
	default:
		b.sendText(chatID, "Unknown command. Try /play, /leaderboard or /facts.")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("warn: answering callback: %v", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	action, arg, _ := strings.Cut(cb.Data, ":")

	switch action {
	case "play":
		d, err := domain.ParseDifficulty(arg)
		if err != nil {
			d = domain.Medium
		}
		b.startGame(chatID, d)
		return
	case "menu":
		b.sendMenu(chatID)
		return
	case "leaderboard":
		b.sendLeaderboard(chatID)
		return
	case "facts":
		b.sendFacts(chatID)
		return
	}

	session, ok := b.game(chatID)
	if !ok {
		b.sendText(chatID, "No quiz is running. Send /play to begin.")
		return
	}
	var err error
	switch action {
	case "answer":
		if err = session.Select(arg); err == nil {
			err = session.Submit()
		}
	case "hint":
		err = session.Hint()
	case "next":
		err = session.Next()
	case "retry":
		err = session.Retry()
	case "restart":
		err = session.Restart()
	case "quit":
		b.endGame(chatID)
		b.sendMenu(chatID)
		return
	default:
		log.Printf("warn: unknown telegram callback %q", cb.Data)
		return
	}
	if err != nil {
		b.sendText(chatID, capitalize(err.Error())+".")
	}
}

func (b *Bot) game(chatID int64) (*app.QuizSession, bool) {
	b.mu.Lock()
	id, ok := b.games[chatID]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}
	session, err := b.svc.Quiz.Get(id)
	return session, err == nil
}

func (b *Bot) startGame(chatID int64, d domain.Difficulty) {
	b.endGame(chatID)
	session, err := b.svc.Quiz.Start(b.ctx, clientID(chatID), d)
	if err != nil {
		log.Printf("telegram quiz start failed: %v", err)
		b.sendText(chatID, "Could not start the quiz. Please try again.")
		return
	}
	updates, cancel, err := session.Subscribe()
	if err != nil {
		b.sendText(chatID, "Could not start the quiz. Please try again.")
		return
	}
	b.mu.Lock()
	b.games[chatID] = session.ID()
	b.mu.Unlock()

	go func() {
		defer cancel()
		f := &follower{bot: b, chatID: chatID, index: -1}
		f.render(session.Snapshot())
		for u := range updates {
			f.render(u.Snapshot)
		}
	}()
}

func (b *Bot) endGame(chatID int64) {
	b.mu.Lock()
	id, ok := b.games[chatID]
	delete(b.games, chatID)
	b.mu.Unlock()
	if ok {
		b.svc.Quiz.End(id)
	}
}

func (b *Bot) sendMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Melkam Genna! Test your knowledge of the Ethiopian Christmas.")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	var play []tgbotapi.InlineKeyboardButton
	for _, d := range domain.Difficulties() {
		play = append(play, tgbotapi.NewInlineKeyboardButtonData(string(d), "play:"+string(d)))
	}
	rows = append(rows, play, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Leaderboard", "leaderboard"),
		tgbotapi.NewInlineKeyboardButtonData("Live facts", "facts"),
	))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) sendLeaderboard(chatID int64) {
	entries, err := b.svc.Leaderboard.Board(b.ctx, storage.ForClient(b.svc.KV, clientID(chatID)))
	if err != nil {
		log.Printf("telegram leaderboard failed: %v", err)
		b.sendText(chatID, "The leaderboard is unavailable right now.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Leaderboard\n\n")
	for _, e := range entries {
		marker := ""
		if e.IsUser {
			marker = "  <- you"
		}
		fmt.Fprintf(&sb, "%d. %s  %d%s\n", e.Rank, e.Name, e.Score, marker)
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) sendFacts(chatID int64) {
	facts, err := b.svc.Content.LiveFacts(b.ctx)
	if err != nil || len(facts) == 0 {
		b.sendText(chatID, "Live facts are unavailable right now.")
		return
	}
	var sb strings.Builder
	for _, f := range facts {
		sb.WriteString("• " + f.Fact)
		if f.Source != nil {
			sb.WriteString("\n  " + f.Source.URI)
		}
		sb.WriteString("\n\n")
	}
	b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.out.Send(c); err != nil {
		log.Printf("warn: telegram send: %v", err)
	}
}

func clientID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
