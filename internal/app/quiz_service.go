package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
)

// SessionRepository abstracts where live quiz sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *QuizSession)
	Get(id string) (*QuizSession, bool)
	Delete(id string)
	List() []*QuizSession
}

// QuizServiceOptions tunes the sessions a QuizService creates.
type QuizServiceOptions struct {
	Scheduler Scheduler
	Spawn     func(func())
	ShareURL  string
	Now       func() time.Time
}

// QuizService starts, looks up and ends quiz sessions.
type QuizService struct {
	sessions SessionRepository
	content  QuizContent
	kv       storage.KV
	opts     QuizServiceOptions
	scores   *clientLocks
}

func NewQuizService(store SessionRepository, content QuizContent, kv storage.KV, opts QuizServiceOptions) *QuizService {
	return &QuizService{sessions: store, content: content, kv: kv, opts: opts, scores: newClientLocks()}
}

// Start creates a session for clientID and begins loading its questions.
// The final score is recorded in that client's local storage; sessions of
// the same client record one at a time.
func (s *QuizService) Start(_ context.Context, clientID string, d domain.Difficulty) (*QuizSession, error) {
	var scores *ScoreBook
	if s.kv != nil && clientID != "" {
		scores = NewLockedScoreBook(storage.ForClient(s.kv, clientID), s.scores.For(clientID))
	}
	session := NewQuizSession(uuid.NewString(), d, SessionOptions{
		Content:   s.content,
		Scores:    scores,
		Scheduler: s.opts.Scheduler,
		Spawn:     s.opts.Spawn,
		ShareURL:  s.opts.ShareURL,
		Now:       s.opts.Now,
	})
	s.sessions.Put(session)
	if err := session.Start(); err != nil {
		s.End(session.ID())
		return nil, err
	}
	return session, nil
}

// Get returns a live session.
func (s *QuizService) Get(id string) (*QuizSession, error) {
	session, ok := s.sessions.Get(id)
	if !ok || session.Closed() {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End closes the session and forgets it. Unknown ids are ignored.
func (s *QuizService) End(id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
}

// Reap ends every session that has been idle for at least idle, along with
// any closed session still registered, and returns how many it removed.
func (s *QuizService) Reap(idle time.Duration) int {
	n := 0
	for _, session := range s.sessions.List() {
		if !session.Closed() && session.Idle() < idle {
			continue
		}
		session.Close()
		s.sessions.Delete(session.ID())
		n++
	}
	return n
}
