package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/storage"
)

// racingKV holds every Get until a second reader arrives (or a short timeout)
// and delays the write of slowValue, so unserialized read-then-write pairs
// interleave with the lower score landing last.
type racingKV struct {
	storage.KV
	slowValue string

	mu      sync.Mutex
	readers int
	both    chan struct{}
}

func newRacingKV(slowValue string) *racingKV {
	return &racingKV{KV: memory.NewKVStore(), slowValue: slowValue, both: make(chan struct{})}
}

func (k *racingKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := k.KV.Get(ctx, key)
	k.mu.Lock()
	k.readers++
	if k.readers == 2 {
		close(k.both)
	}
	k.mu.Unlock()
	select {
	case <-k.both:
	case <-time.After(100 * time.Millisecond):
	}
	return v, ok, err
}

func (k *racingKV) Set(ctx context.Context, key, value string) error {
	if value == k.slowValue {
		time.Sleep(20 * time.Millisecond)
	}
	return k.KV.Set(ctx, key, value)
}

func TestRecordIsSerializedPerClient(t *testing.T) {
	ctx := context.Background()
	kv := newRacingKV("2000")
	locks := app.NewClientLocks()

	var wg sync.WaitGroup
	for _, score := range []int{3000, 2000} {
		score := score
		wg.Add(1)
		go func() {
			defer wg.Done()
			book := app.NewLockedScoreBook(storage.ForClient(kv, "c"), locks.For("c"))
			if _, _, err := book.Record(ctx, score); err != nil {
				t.Errorf("record %d: %v", score, err)
			}
		}()
	}
	wg.Wait()

	v, _, _ := storage.ForClient(kv, "c").GetItem(ctx, storage.ScoreKey)
	if v != "3000" {
		t.Fatalf("stored %q, want 3000", v)
	}
	if n := locks.Len(); n != 0 {
		t.Fatalf("expected released locks to be dropped, %d left", n)
	}
}

func TestClientLocksAreIndependent(t *testing.T) {
	locks := app.NewClientLocks()
	a := locks.For("a")
	a.Lock()
	defer a.Unlock()

	done := make(chan struct{})
	go func() {
		b := locks.For("b")
		b.Lock()
		b.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock for b waited on a")
	}
}
