package app

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"genna-quiz-service/internal/storage"
)

// ScoreBook keeps the saved high score of one client.
type ScoreBook struct {
	local *storage.Local
	lock  sync.Locker
}

func NewScoreBook(local *storage.Local) *ScoreBook {
	return &ScoreBook{local: local}
}

// NewLockedScoreBook is NewScoreBook whose Record holds lock across its read
// and write. Books for the same client must share the lock.
func NewLockedScoreBook(local *storage.Local, lock sync.Locker) *ScoreBook {
	return &ScoreBook{local: local, lock: lock}
}

// HighScore returns the saved score; a missing or unparsable value reads as 0.
func (b *ScoreBook) HighScore(ctx context.Context) (int, error) {
	raw, ok, err := b.local.GetItem(ctx, storage.ScoreKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || score < 0 {
		return 0, nil
	}
	return score, nil
}

// Record saves score when it beats the stored one and returns the resulting
// high score and whether it improved.
func (b *ScoreBook) Record(ctx context.Context, score int) (int, bool, error) {
	if b.lock != nil {
		b.lock.Lock()
		defer b.lock.Unlock()
	}
	current, err := b.HighScore(ctx)
	if err != nil {
		return 0, false, err
	}
	if score <= current {
		return current, false, nil
	}
	if err := b.local.SetItem(ctx, storage.ScoreKey, strconv.Itoa(score)); err != nil {
		return current, false, err
	}
	return score, true, nil
}
