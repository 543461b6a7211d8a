package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/config"
	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/infra/memory"
	pgstore "genna-quiz-service/internal/infra/postgres"
	redisstore "genna-quiz-service/internal/infra/redis"
	"genna-quiz-service/internal/infra/sqlite"
	"genna-quiz-service/internal/infra/supabase"
	"genna-quiz-service/internal/music"
	"genna-quiz-service/internal/storage"
)

// stack is every service a surface (HTTP, bot, terminal) needs, built from config.
type stack struct {
	kv          storage.KV
	quiz        *app.QuizService
	auth        *app.AuthService
	leaderboard *app.LeaderboardService
	content     *app.ContentService
	music       *app.MusicService

	idle    time.Duration
	closers []func()
}

// runReaper ends idle quiz sessions and releases idle music players every
// interval until ctx is done.
func (s *stack) runReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.quiz.Reap(s.idle); n > 0 {
				log.Printf("reaped %d idle quiz sessions", n)
			}
			if n := s.music.Reap(s.idle); n > 0 {
				log.Printf("released %d idle music players", n)
			}
		}
	}
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStack wires storage, caches and the content client. newOutput picks
// how music is rendered: the HTTP server leaves audio to the browser, the
// terminal client spawns a player process.
func buildStack(ctx context.Context, cfg config.Config, newOutput func() music.Output) (*stack, error) {
	s := &stack{idle: config.TTLDuration(cfg.Server.IdleTTL, 30*time.Minute)}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	kv, err := openKV(ctx, cfg, redisClient, s)
	if err != nil {
		return nil, err
	}
	s.kv = kv

	client := content.NewClient(cfg.Gemini.APIKey, content.Options{Model: cfg.Gemini.Model})
	s.closers = append(s.closers, func() { _ = client.Close() })
	if cfg.Gemini.APIKey == "" {
		log.Printf("warn: no Gemini API key configured; content requests will fail")
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 15*time.Minute)
	var archive app.ArchiveSource
	var sessions app.SessionRepository
	if redisClient != nil {
		archive = redisstore.NewContentCache(redisClient, client, contentTTL)
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		archive = memory.NewContentCache(client, contentTTL)
		sessions = memory.NewSessionStore()
	}

	s.auth = app.NewAuthService(
		config.TTLDuration(cfg.Auth.LoginDelay, app.DefaultLoginDelay),
		config.TTLDuration(cfg.Auth.LogoutDelay, app.DefaultLogoutDelay),
	)
	s.quiz = app.NewQuizService(sessions, client, kv, app.QuizServiceOptions{ShareURL: cfg.Server.PublicURL})
	s.leaderboard = app.NewLeaderboardService(client, s.auth)
	s.content = app.NewContentService(archive, client)

	objects := music.NewObjects("")
	s.music = app.NewMusicService(func() *music.Player {
		return music.NewPlayer(newOutput(), objects)
	})
	s.closers = append(s.closers, s.music.Close)

	ok = true
	return s, nil
}

func openKV(ctx context.Context, cfg config.Config, redisClient *redis.Client, s *stack) (storage.KV, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.NewKVStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("storage driver redis: redis.addr not configured")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisstore.NewKVStore(redisClient), nil
	case "sqlite":
		path := cfg.SQLite.Path
		if path == "" {
			path = "data/genna.db"
		}
		store, err := sqlite.NewKVStore(path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = store.Close() })
		return store, nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		return pgstore.NewKVStore(pool), nil
	case "supabase":
		return supabase.NewKVStore(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Table)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
