package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"genna-quiz-service/internal/config"
	"genna-quiz-service/internal/music"
	transport "genna-quiz-service/internal/transport/http"
	"genna-quiz-service/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath *string) *cobra.Command {
	var (
		port    string
		withBot bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, port, withBot)
		},
	}
	cmd.Flags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on (overrides server.port)")
	cmd.Flags().BoolVar(&withBot, "bot", false, "also run the Telegram bot when a token is configured")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string, withBot bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
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

	router := transport.NewRouter(transport.Services{
		KV:          st.kv,
		Quiz:        st.quiz,
		Auth:        st.auth,
		Leaderboard: st.leaderboard,
		Content:     st.content,
		Music:       st.music,
	}, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// streamed WebSocket responses outlive a write deadline
		WriteTimeout: 0,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st.runReaper(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		log.Printf("starting genna quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if withBot {
		if cfg.Telegram.Token == "" {
			log.Printf("warn: --bot given but no telegram token configured")
		} else {
			bot, err := telegram.NewBot(cfg.Telegram.Token, telegram.Services{
				KV:          st.kv,
				Quiz:        st.quiz,
				Leaderboard: st.leaderboard,
				Content:     st.content,
			})
			if err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			g.Go(func() error { return bot.Run(gctx) })
		}
	}
	return g.Wait()
}
