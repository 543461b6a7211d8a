package app

import (
	"context"
	"net/url"
	"sort"

	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
)

// BotSource fabricates leaderboard competitors.
type BotSource interface {
	Leaderboard(ctx context.Context, userScore int) ([]content.LeaderboardBot, error)
}

// LeaderboardService builds the ranked board around the player's saved score.
type LeaderboardService struct {
	bots BotSource
	auth *AuthService
}

func NewLeaderboardService(bots BotSource, auth *AuthService) *LeaderboardService {
	return &LeaderboardService{bots: bots, auth: auth}
}

// Board returns the generated competitors plus the player, ranked by score.
func (s *LeaderboardService) Board(ctx context.Context, local *storage.Local) ([]domain.LeaderboardEntry, error) {
	score, err := NewScoreBook(local).HighScore(ctx)
	if err != nil {
		return nil, err
	}
	name := "You"
	if profile, err := s.auth.CurrentUser(ctx, local); err == nil && profile != nil && profile.Name != "" {
		name = profile.Name
	}

	bots, err := s.bots.Leaderboard(ctx, score)
	if err != nil {
		return nil, err
	}
	return RankEntries(name, score, bots), nil
}

// RankEntries merges the player into bots, sorts by score (stable, so earlier
// entries win ties) and numbers the ranks from 1.
func RankEntries(userName string, userScore int, bots []content.LeaderboardBot) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(bots)+1)
	for _, b := range bots {
		entries = append(entries, domain.LeaderboardEntry{
			Name:   b.Name,
			Score:  b.Score,
			Avatar: "https://picsum.photos/seed/" + url.PathEscape(b.Name) + "/100",
		})
	}
	entries = append(entries, domain.LeaderboardEntry{
		Name:   userName,
		Score:  userScore,
		Avatar: "https://picsum.photos/seed/me/100",
		IsUser: true,
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
