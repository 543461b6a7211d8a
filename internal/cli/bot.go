package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"genna-quiz-service/internal/config"
	"genna-quiz-service/internal/music"
	"genna-quiz-service/internal/transport/telegram"
)

// NewBotCmd runs only the Telegram bot.
func NewBotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token not configured (set TELEGRAM_BOT_TOKEN)")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(ctx, cfg, func() music.Output { return music.NopOutput{} })
	if err != nil {
		return err
	}
	defer st.Close()

	bot, err := telegram.NewBot(cfg.Telegram.Token, telegram.Services{
		KV:          st.kv,
		Quiz:        st.quiz,
		Leaderboard: st.leaderboard,
		Content:     st.content,
	})
	if err != nil {
		return err
	}
	go st.runReaper(ctx, time.Minute)
	return bot.Run(ctx)
}
