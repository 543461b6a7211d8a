package app

import (
	"context"
	"log"
	"sync"
	"time"

	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
)

const (
	// FactCheckUnavailable replaces a failed fact check.
	FactCheckUnavailable = "Search grounding unavailable for this check."
	// HintUnavailable replaces a failed hint.
	HintUnavailable = "Hint context unavailable."

	tipInterval  = 3500 * time.Millisecond
	tickInterval = time.Second
	maxHintLinks = 4
)

// QuizContent is the slice of the content client a quiz session needs.
type QuizContent interface {
	GenerateQuestions(ctx context.Context, d domain.Difficulty) ([]domain.Question, error)
	FactCheck(ctx context.Context, answer, question string) (content.Verification, error)
	Hint(ctx context.Context, question string) (content.Verification, error)
}

// Phase names the state a quiz session is in.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseResults    Phase = "results"
)

type sessionState interface {
	phase() Phase
}

type loadingQuestions struct {
	tip int
	err error
}

type inProgress struct {
	index         int
	timeLeft      int
	selected      string
	answered      bool
	correct       bool
	awarded       int
	bonusDisabled bool
	factCheck     *domain.FactCheckResult
	hint          *domain.HintResult
}

type results struct {
	rank         string
	highScore    int
	newHighScore bool
	finishedAt   time.Time
}

func (*loadingQuestions) phase() Phase { return PhaseLoading }
func (*inProgress) phase() Phase       { return PhaseInProgress }
func (*results) phase() Phase          { return PhaseResults }

// Update is one broadcast to session subscribers.
type Update struct {
	Snapshot Snapshot        `json:"snapshot"`
	Cue      domain.SoundCue `json:"cue,omitempty"`
}

// SessionOptions carries a session's collaborators. Scores may be nil, in
// which case the high score is not persisted.
type SessionOptions struct {
	Content   QuizContent
	Scores    *ScoreBook
	Scheduler Scheduler
	// Spawn runs side effects (requests, storage writes) off the caller's goroutine.
	Spawn    func(func())
	ShareURL string
	Now      func() time.Time
}

// QuizSession is one play-through: loading, answering questions, results.
// All methods are safe for concurrent use.
type QuizSession struct {
	id         string
	difficulty domain.Difficulty
	content    QuizContent
	scores     *ScoreBook
	scheduler  Scheduler
	spawn      func(func())
	shareURL   string
	now        func() time.Time

	mu          sync.Mutex
	state       sessionState
	questions   []domain.Question
	score       int
	epoch       uint64
	ctx         context.Context
	cancel      context.CancelFunc
	stopTimer   func()
	closed      bool
	subscribers map[chan Update]struct{}
	lastActive  time.Time
}

func NewQuizSession(id string, d domain.Difficulty, opts SessionOptions) *QuizSession {
	s := &QuizSession{
		id:          id,
		difficulty:  d,
		content:     opts.Content,
		scores:      opts.Scores,
		scheduler:   opts.Scheduler,
		spawn:       opts.Spawn,
		shareURL:    opts.ShareURL,
		now:         opts.Now,
		subscribers: make(map[chan Update]struct{}),
	}
	if s.scheduler == nil {
		s.scheduler = TickerScheduler{}
	}
	if s.spawn == nil {
		s.spawn = func(fn func()) { go fn() }
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.lastActive = s.now()
	return s
}

func (s *QuizSession) ID() string { return s.id }

func (s *QuizSession) Difficulty() domain.Difficulty { return s.difficulty }

// Start requests the question set. It may only be called once.
func (s *QuizSession) Start() error {
	return s.transact(func() ([]func(), error) {
		if s.state != nil {
			return nil, domain.ErrWrongPhase
		}
		return s.loadLocked(), nil
	})
}

// Retry re-requests questions after a failed load.
func (s *QuizSession) Retry() error {
	return s.transact(func() ([]func(), error) {
		st, ok := s.state.(*loadingQuestions)
		if !ok || st.err == nil {
			return nil, domain.ErrWrongPhase
		}
		return s.loadLocked(), nil
	})
}

// Restart discards the current run and loads a fresh question set.
func (s *QuizSession) Restart() error {
	return s.transact(func() ([]func(), error) {
		return s.loadLocked(), nil
	})
}

// Select marks optionID as the pending answer.
func (s *QuizSession) Select(optionID string) error {
	return s.transact(func() ([]func(), error) {
		st, err := s.unansweredLocked()
		if err != nil {
			return nil, err
		}
		if _, ok := s.questions[st.index].Option(optionID); !ok {
			return nil, domain.ErrOptionNotFound
		}
		st.selected = optionID
		s.broadcastLocked(domain.CueClick)
		return nil, nil
	})
}

// Submit answers the current question with the selected option.
func (s *QuizSession) Submit() error {
	return s.transact(func() ([]func(), error) {
		st, err := s.unansweredLocked()
		if err != nil {
			return nil, err
		}
		if st.selected == "" {
			return nil, domain.ErrNoSelection
		}
		return s.answerLocked(st, st.selected == s.questions[st.index].CorrectID), nil
	})
}

// Hint requests a clue for the current question and forfeits its time bonus.
// The countdown keeps running.
func (s *QuizSession) Hint() error {
	return s.transact(func() ([]func(), error) {
		st, err := s.unansweredLocked()
		if err != nil {
			return nil, err
		}
		if st.hint != nil && st.hint.Loading {
			return nil, domain.ErrHintPending
		}
		st.bonusDisabled = true
		st.hint = &domain.HintResult{Loading: true, Sources: []domain.GroundingSource{}}
		s.broadcastLocked(domain.CueClick)
		return []func(){s.fetchHint(s.ctx, s.epoch, s.questions[st.index])}, nil
	})
}

// Next moves past an answered question, finishing the run after the last one.
func (s *QuizSession) Next() error {
	return s.transact(func() ([]func(), error) {
		st, ok := s.state.(*inProgress)
		if !ok {
			return nil, domain.ErrWrongPhase
		}
		if !st.answered {
			return nil, domain.ErrNotAnswered
		}
		if st.index+1 < len(s.questions) {
			s.beginQuestionLocked(st.index+1, domain.CueClick)
			return nil, nil
		}
		return s.finishLocked(), nil
	})
}

// Close stops timers, cancels in-flight requests and disconnects subscribers.
// Responses that arrive afterwards are dropped.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.epoch++
	s.stopTimerLocked()
	if s.cancel != nil {
		s.cancel()
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (s *QuizSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns the current state for rendering.
func (s *QuizSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ShareText is the share message for a finished run.
func (s *QuizSession) ShareText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.(*results); !ok {
		return "", domain.ErrWrongPhase
	}
	return ShareText(s.score, s.shareURL), nil
}

// Subscribe returns a channel of updates, primed with the current snapshot.
// The caller must invoke cancel to release it.
func (s *QuizSession) Subscribe() (<-chan Update, func(), error) {
	ch := make(chan Update, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	s.subscribers[ch] = struct{}{}
	s.lastActive = s.now()
	ch <- Update{Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
			s.lastActive = s.now()
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Idle reports how long the session has gone without a player action while
// nobody watched it. A subscribed session is never idle. Timer ticks do not
// count as activity.
func (s *QuizSession) Idle() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) > 0 {
		return 0
	}
	return s.now().Sub(s.lastActive)
}

func (s *QuizSession) transact(fn func() ([]func(), error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	effects, err := fn()
	s.lastActive = s.now()
	s.mu.Unlock()
	s.run(effects)
	return err
}

func (s *QuizSession) run(effects []func()) {
	for _, fn := range effects {
		s.spawn(fn)
	}
}

// callback wraps fn so it only runs while the session is still in the phase
// that scheduled it.
func (s *QuizSession) callback(epoch uint64, fn func() []func()) func() {
	return func() {
		s.mu.Lock()
		if s.closed || s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		effects := fn()
		s.mu.Unlock()
		s.run(effects)
	}
}

// enterPhaseLocked invalidates everything scheduled by the previous phase.
func (s *QuizSession) enterPhaseLocked() uint64 {
	s.epoch++
	s.stopTimerLocked()
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s.epoch
}

func (s *QuizSession) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *QuizSession) unansweredLocked() (*inProgress, error) {
	st, ok := s.state.(*inProgress)
	if !ok {
		return nil, domain.ErrWrongPhase
	}
	if st.answered {
		return nil, domain.ErrAlreadyAnswered
	}
	return st, nil
}

func (s *QuizSession) loadLocked() []func() {
	epoch := s.enterPhaseLocked()
	s.score = 0
	s.questions = nil
	s.state = &loadingQuestions{}
	s.stopTimer = s.scheduler.Every(tipInterval, s.callback(epoch, s.rotateTipLocked))
	s.broadcastLocked(domain.CueNone)
	return []func(){s.fetchQuestions(s.ctx, epoch)}
}

func (s *QuizSession) rotateTipLocked() []func() {
	st, ok := s.state.(*loadingQuestions)
	if !ok {
		return nil
	}
	st.tip = (st.tip + 1) % len(LoadingTips)
	s.broadcastLocked(domain.CueNone)
	return nil
}

func (s *QuizSession) fetchQuestions(ctx context.Context, epoch uint64) func() {
	return func() {
		questions, err := s.content.GenerateQuestions(ctx, s.difficulty)
		if err == nil && len(questions) == 0 {
			err = domain.ErrNoQuestions
		}
		s.callback(epoch, func() []func() {
			st, ok := s.state.(*loadingQuestions)
			if !ok {
				return nil
			}
			if err != nil {
				log.Printf("warn: quiz generation failed for session %s: %v", s.id, err)
				st.err = err
				s.broadcastLocked(domain.CueNone)
				return nil
			}
			s.questions = questions
			s.beginQuestionLocked(0, domain.CueNone)
			return nil
		})()
	}
}

func (s *QuizSession) beginQuestionLocked(index int, cue domain.SoundCue) {
	epoch := s.enterPhaseLocked()
	s.state = &inProgress{index: index, timeLeft: s.difficulty.TimeBudget()}
	s.stopTimer = s.scheduler.Every(tickInterval, s.callback(epoch, s.tickLocked))
	s.broadcastLocked(cue)
}

func (s *QuizSession) tickLocked() []func() {
	st, ok := s.state.(*inProgress)
	if !ok || st.answered {
		return nil
	}
	if st.timeLeft <= 1 {
		st.timeLeft = 0
		return s.answerLocked(st, false)
	}
	cue := domain.CueNone
	if st.timeLeft <= 4 {
		cue = domain.CueTick
	}
	st.timeLeft--
	s.broadcastLocked(cue)
	return nil
}

// answerLocked closes the current question. A timeout arrives here as an
// incorrect answer.
func (s *QuizSession) answerLocked(st *inProgress, correct bool) []func() {
	s.stopTimerLocked()
	st.answered = true
	st.correct = correct
	st.awarded = AwardPoints(correct, st.bonusDisabled, st.timeLeft)
	s.score += st.awarded
	st.factCheck = &domain.FactCheckResult{Loading: true, Sources: []domain.GroundingSource{}}

	cue := domain.CueWrong
	if correct {
		cue = domain.CueCorrect
	}
	s.broadcastLocked(cue)
	return []func(){s.fetchFactCheck(s.ctx, s.epoch, s.questions[st.index])}
}

func (s *QuizSession) fetchFactCheck(ctx context.Context, epoch uint64, q domain.Question) func() {
	return func() {
		v, err := s.content.FactCheck(ctx, q.CorrectText(), q.Prompt)
		s.callback(epoch, func() []func() {
			st, ok := s.state.(*inProgress)
			if !ok {
				return nil
			}
			if err != nil {
				log.Printf("fact check failed for session %s: %v", s.id, err)
				v = content.Verification{Text: FactCheckUnavailable}
			}
			st.factCheck = &domain.FactCheckResult{Text: v.Text, Sources: content.MergeSources(0, v.Sources)}
			s.broadcastLocked(domain.CueNone)
			return nil
		})()
	}
}

func (s *QuizSession) fetchHint(ctx context.Context, epoch uint64, q domain.Question) func() {
	return func() {
		v, err := s.content.Hint(ctx, q.Prompt)
		s.callback(epoch, func() []func() {
			st, ok := s.state.(*inProgress)
			if !ok {
				return nil
			}
			if err != nil {
				log.Printf("hint failed for session %s: %v", s.id, err)
				v = content.Verification{Text: HintUnavailable}
			}
			st.hint = &domain.HintResult{Text: v.Text, Sources: content.MergeSources(maxHintLinks, q.Sources, v.Sources)}
			s.broadcastLocked(domain.CueNone)
			return nil
		})()
	}
}

func (s *QuizSession) finishLocked() []func() {
	epoch := s.enterPhaseLocked()
	res := &results{rank: RankFor(s.score), highScore: s.score, finishedAt: s.now()}
	s.state = res
	s.broadcastLocked(domain.CueWin)
	if s.scores == nil {
		return nil
	}

	ctx, score := s.ctx, s.score
	return []func(){func() {
		high, improved, err := s.scores.Record(ctx, score)
		s.callback(epoch, func() []func() {
			if err != nil {
				log.Printf("warn: saving high score for session %s: %v", s.id, err)
				return nil
			}
			res.highScore = high
			res.newHighScore = improved
			s.broadcastLocked(domain.CueNone)
			return nil
		})()
	}}
}

func (s *QuizSession) broadcastLocked(cue domain.SoundCue) {
	update := Update{Snapshot: s.snapshotLocked(), Cue: cue}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// slow subscriber: replace its oldest pending update
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
