package app_test

import (
	"context"
	"errors"
	"testing"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/storage"
)

type fakeBots struct {
	bots  []content.LeaderboardBot
	err   error
	asked int
}

func (f *fakeBots) Leaderboard(_ context.Context, userScore int) ([]content.LeaderboardBot, error) {
	f.asked = userScore
	return f.bots, f.err
}

func TestBoardRanksPlayerAmongBots(t *testing.T) {
	ctx := context.Background()
	local := storage.ForClient(memory.NewKVStore(), "c1")
	auth := app.NewAuthService(0, 0)
	_, _ = auth.LoginWithGoogle(ctx, local)
	_ = local.SetItem(ctx, storage.ScoreKey, "2500")

	bots := &fakeBots{bots: []content.LeaderboardBot{
		{Name: "Abebe", Score: 2000},
		{Name: "Tigist", Score: 3100},
		{Name: "Selam", Score: 2500},
	}}
	board, err := app.NewLeaderboardService(bots, auth).Board(ctx, local)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if bots.asked != 2500 {
		t.Fatalf("expected bots around 2500, got %d", bots.asked)
	}
	want := []string{"Tigist", "Selam", "Genna Pilgrim", "Abebe"}
	for i, name := range want {
		if board[i].Name != name || board[i].Rank != i+1 {
			t.Fatalf("rank %d: expected %s, got %+v", i+1, name, board[i])
		}
	}
	if !board[2].IsUser || board[2].Avatar != "https://picsum.photos/seed/me/100" {
		t.Fatalf("unexpected user entry %+v", board[2])
	}
	if board[0].Avatar != "https://picsum.photos/seed/Tigist/100" {
		t.Fatalf("unexpected bot avatar %q", board[0].Avatar)
	}
}

func TestBoardPropagatesFailure(t *testing.T) {
	local := storage.ForClient(memory.NewKVStore(), "c1")
	bots := &fakeBots{err: domain.ErrMissingAPIKey}
	_, err := app.NewLeaderboardService(bots, app.NewAuthService(0, 0)).Board(context.Background(), local)
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
