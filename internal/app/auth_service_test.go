package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/storage"
)

func TestLoginStoresMockProfile(t *testing.T) {
	ctx := context.Background()
	local := storage.ForClient(memory.NewKVStore(), "c1")
	auth := app.NewAuthService(0, 0)

	profile, err := auth.LoginWithGoogle(ctx, local)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if profile != app.MockProfile {
		t.Fatalf("unexpected profile %+v", profile)
	}
	current, err := auth.CurrentUser(ctx, local)
	if err != nil || current == nil || current.ID != "user_12345" || current.Name != "Genna Pilgrim" {
		t.Fatalf("unexpected current user %+v, %v", current, err)
	}
}

func TestLoginHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	auth := app.NewAuthService(time.Hour, 0)

	_, err := auth.LoginWithGoogle(ctx, storage.ForClient(memory.NewKVStore(), "c1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled login, got %v", err)
	}
}

func TestCorruptProfileIsRemoved(t *testing.T) {
	ctx := context.Background()
	local := storage.ForClient(memory.NewKVStore(), "c1")
	_ = local.SetItem(ctx, storage.UserKey, "{not json")

	current, err := app.NewAuthService(0, 0).CurrentUser(ctx, local)
	if err != nil || current != nil {
		t.Fatalf("expected signed out, got %+v, %v", current, err)
	}
	if _, ok, _ := local.GetItem(ctx, storage.UserKey); ok {
		t.Fatalf("corrupt profile should be removed")
	}
}

func TestLogoutClearsProfileAndScore(t *testing.T) {
	ctx := context.Background()
	local := storage.ForClient(memory.NewKVStore(), "c1")
	auth := app.NewAuthService(0, 0)
	_, _ = auth.LoginWithGoogle(ctx, local)
	if _, _, err := app.NewScoreBook(local).Record(ctx, 3200); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := auth.Logout(ctx, local); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if current, _ := auth.CurrentUser(ctx, local); current != nil {
		t.Fatalf("expected no current user after logout, got %+v", current)
	}

	bots := &fakeBots{bots: []content.LeaderboardBot{{Name: "Abebe", Score: 100}}, asked: -1}
	board, err := app.NewLeaderboardService(bots, auth).Board(ctx, local)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if bots.asked != 0 {
		t.Fatalf("expected leaderboard baseline 0, got %d", bots.asked)
	}
	for _, e := range board {
		if e.IsUser && (e.Score != 0 || e.Name != "You") {
			t.Fatalf("unexpected user entry %+v", e)
		}
	}
}

func TestScoreBook(t *testing.T) {
	ctx := context.Background()
	local := storage.ForClient(memory.NewKVStore(), "c1")
	book := app.NewScoreBook(local)

	if got, _ := book.HighScore(ctx); got != 0 {
		t.Fatalf("expected 0 for missing score, got %d", got)
	}
	_ = local.SetItem(ctx, storage.ScoreKey, "abc")
	if got, _ := book.HighScore(ctx); got != 0 {
		t.Fatalf("expected 0 for invalid score, got %d", got)
	}
	if high, improved, _ := book.Record(ctx, 1500); high != 1500 || !improved {
		t.Fatalf("expected 1500 recorded, got %d %v", high, improved)
	}
	if high, improved, _ := book.Record(ctx, 900); high != 1500 || improved {
		t.Fatalf("expected high score kept, got %d %v", high, improved)
	}
}
