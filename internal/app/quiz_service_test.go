package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/storage"
)

func TestStartGetAndEnd(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	store := memory.NewSessionStore()
	service := newTestService(store, kv)

	session, err := service.Start(ctx, "client-1", domain.Hard)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.Difficulty() != domain.Hard {
		t.Fatalf("unexpected difficulty %s", session.Difficulty())
	}
	got, err := service.Get(session.ID())
	if err != nil || got != session {
		t.Fatalf("expected session lookup, got %v", err)
	}

	// play to the end so the score lands in the client's storage
	for i := 0; i < 2; i++ {
		snap := session.Snapshot()
		_ = session.Select(sampleQuestions()[snap.Index].CorrectID)
		_ = session.Submit()
		_ = session.Next()
	}
	if v, _, _ := storage.ForClient(kv, "client-1").GetItem(ctx, storage.ScoreKey); v != "3000" {
		t.Fatalf("expected 3000 recorded for client-1, got %q", v)
	}

	service.End(session.ID())
	if _, err := service.Get(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected registry to be empty")
	}
	if !session.Closed() {
		t.Fatalf("expected session closed on end")
	}
}

func TestGetUnknownSession(t *testing.T) {
	service := newTestService(memory.NewSessionStore(), memory.NewKVStore())
	if _, err := service.Get("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
	service.End("missing")
}

func newTestService(store app.SessionRepository, kv storage.KV) *app.QuizService {
	return app.NewQuizService(store, &fakeContent{questions: sampleQuestions()}, kv, app.QuizServiceOptions{
		Scheduler: &manualScheduler{},
		Spawn:     func(fn func()) { fn() },
		ShareURL:  "https://genna.example",
	})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestReapEndsAbandonedFailedSession(t *testing.T) {
	clock := newFakeClock()
	sched := &manualScheduler{}
	store := memory.NewSessionStore()
	service := app.NewQuizService(store, &fakeContent{genErr: errors.New("quota")}, memory.NewKVStore(), app.QuizServiceOptions{
		Scheduler: sched,
		Spawn:     func(fn func()) { fn() },
		Now:       clock.Now,
	})

	session, err := service.Start(context.Background(), "client-1", domain.Easy)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.Snapshot().Error == "" {
		t.Fatalf("expected failed load")
	}
	if sched.active() == 0 {
		t.Fatalf("expected the tip timer to be running")
	}

	clock.Advance(29 * time.Minute)
	if n := service.Reap(30 * time.Minute); n != 0 {
		t.Fatalf("reaped %d sessions before the idle period", n)
	}
	clock.Advance(time.Minute)
	if n := service.Reap(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if store.Len() != 0 {
		t.Fatalf("expected store to be empty, got %d", store.Len())
	}
	if !session.Closed() || sched.active() != 0 {
		t.Fatalf("expected session closed and timers stopped")
	}
	if _, err := service.Get(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestReapKeepsWatchedAndActiveSessions(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewSessionStore()
	service := app.NewQuizService(store, &fakeContent{questions: sampleQuestions()}, memory.NewKVStore(), app.QuizServiceOptions{
		Scheduler: &manualScheduler{},
		Spawn:     func(fn func()) { fn() },
		Now:       clock.Now,
	})
	ctx := context.Background()

	watched, err := service.Start(ctx, "client-1", domain.Easy)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	_, unsubscribe, err := watched.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	played, err := service.Start(ctx, "client-2", domain.Easy)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.Advance(20 * time.Minute)
	if err := played.Select(sampleQuestions()[0].Options[0].ID); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	clock.Advance(20 * time.Minute)
	if n := service.Reap(30 * time.Minute); n != 0 {
		t.Fatalf("expected nothing reaped, got %d", n)
	}

	// idleness counts from the moment the last watcher left
	unsubscribe()
	clock.Advance(29 * time.Minute)
	if n := service.Reap(30 * time.Minute); n != 1 {
		t.Fatalf("expected only the played session reaped, got %d", n)
	}
	if _, err := service.Get(watched.ID()); err != nil {
		t.Fatalf("expected watched session kept, got %v", err)
	}
	clock.Advance(time.Minute)
	if n := service.Reap(30 * time.Minute); n != 1 || store.Len() != 0 {
		t.Fatalf("expected the unwatched session reaped, got %d left %d", n, store.Len())
	}
}
