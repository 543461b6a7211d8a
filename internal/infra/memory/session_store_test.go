package memory

import (
	"testing"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewQuizSession("session-1", domain.Easy, app.SessionOptions{})
	store.Put(session)
	if got, ok := store.Get("session-1"); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
	if list := store.List(); len(list) != 1 || list[0] != session {
		t.Fatalf("expected list to hold the session, got %v", list)
	}

	store.Delete("session-1")
	if _, ok := store.Get("session-1"); ok {
		t.Fatalf("expected session removed")
	}
	if len(store.List()) != 0 {
		t.Fatalf("expected empty list")
	}
}
