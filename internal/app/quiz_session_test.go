package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/storage"
)

type manualScheduler struct {
	mu   sync.Mutex
	jobs []*job
}

type job struct {
	every   time.Duration
	fn      func()
	stopped bool
}

func (m *manualScheduler) Every(d time.Duration, fn func()) func() {
	j := &job{every: d, fn: fn}
	m.mu.Lock()
	m.jobs = append(m.jobs, j)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		j.stopped = true
		m.mu.Unlock()
	}
}

// fire runs every active job scheduled at interval d, n times.
func (m *manualScheduler) fire(d time.Duration, n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		var active []*job
		for _, j := range m.jobs {
			if !j.stopped && j.every == d {
				active = append(active, j)
			}
		}
		m.mu.Unlock()
		for _, j := range active {
			j.fn()
		}
	}
}

func (m *manualScheduler) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if !j.stopped {
			n++
		}
	}
	return n
}

type fakeContent struct {
	mu         sync.Mutex
	questions  []domain.Question
	genErr     error
	factErr    error
	hintErr    error
	hintSource []domain.GroundingSource
	genCalls   int
	factChecks []string
	hints      int
}

func (f *fakeContent) GenerateQuestions(context.Context, domain.Difficulty) ([]domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.questions, nil
}

func (f *fakeContent) FactCheck(_ context.Context, answer, _ string) (content.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factChecks = append(f.factChecks, answer)
	if f.factErr != nil {
		return content.Verification{}, f.factErr
	}
	return content.Verification{Text: "Verified: " + answer}, nil
}

func (f *fakeContent) Hint(context.Context, string) (content.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hints++
	if f.hintErr != nil {
		return content.Verification{}, f.hintErr
	}
	return content.Verification{Text: "Think of the shepherds.", Sources: f.hintSource}, nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     1,
			Prompt: "On which Ethiopian date is Genna celebrated?",
			Options: []domain.Option{
				{ID: "a", Text: "Tahsas 29"},
				{ID: "b", Text: "Meskerem 1"},
				{ID: "c", Text: "Tir 11"},
				{ID: "d", Text: "Yekatit 12"},
			},
			CorrectID:   "a",
			Explanation: "Genna falls on Tahsas 29.",
			BibleVerse:  "Luke 2:11",
			Sources: []domain.GroundingSource{
				{Title: "Calendar", URI: "https://cal.example/genna"},
				{Title: "Church", URI: "https://church.example/genna"},
			},
		},
		{
			ID:     2,
			Prompt: "What is the fast before Genna called?",
			Options: []domain.Option{
				{ID: "a", Text: "Hudade"},
				{ID: "b", Text: "Tsome Nebiyat"},
			},
			CorrectID:   "b",
			Explanation: "The fast of the prophets.",
		},
	}
}

type harness struct {
	session *app.QuizSession
	sched   *manualScheduler
	content *fakeContent
	local   *storage.Local
	updates <-chan app.Update
}

func newHarness(t *testing.T, d domain.Difficulty) *harness {
	t.Helper()
	h := &harness{
		sched:   &manualScheduler{},
		content: &fakeContent{questions: sampleQuestions()},
		local:   storage.ForClient(memory.NewKVStore(), "client-1"),
	}
	h.session = app.NewQuizSession("session-1", d, app.SessionOptions{
		Content:   h.content,
		Scores:    app.NewScoreBook(h.local),
		Scheduler: h.sched,
		Spawn:     func(fn func()) { fn() },
		ShareURL:  "https://genna.example",
		Now:       func() time.Time { return time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap := h.session.Snapshot(); snap.Phase != app.PhaseInProgress {
		t.Fatalf("expected in progress, got %s (%s)", snap.Phase, snap.Error)
	}
}

func TestCorrectAnswerOnHardWithSixSecondsLeft(t *testing.T) {
	h := newHarness(t, domain.Hard)
	h.start(t)

	if got := h.session.Snapshot().TimeLeft; got != 10 {
		t.Fatalf("expected hard budget 10, got %d", got)
	}
	h.sched.fire(time.Second, 4)

	if err := h.session.Select("a"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := h.session.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := h.session.Snapshot()
	if snap.Score != 1100 || snap.Awarded != 1100 || !snap.Correct {
		t.Fatalf("expected 1100 points, got score=%d awarded=%d", snap.Score, snap.Awarded)
	}
}

func TestHintForfeitsTimeBonus(t *testing.T) {
	h := newHarness(t, domain.Hard)
	h.start(t)
	h.sched.fire(time.Second, 4)

	if err := h.session.Hint(); err != nil {
		t.Fatalf("hint: %v", err)
	}
	_ = h.session.Select("a")
	if err := h.session.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := h.session.Snapshot().Score; got != 500 {
		t.Fatalf("expected 500 without bonus, got %d", got)
	}
}

func TestHintKeepsTimerRunningAndMergesSources(t *testing.T) {
	h := newHarness(t, domain.Easy)
	h.content.hintSource = []domain.GroundingSource{
		{Title: "Dup", URI: "https://church.example/genna"},
		{Title: "Lalibela", URI: "https://l.example"},
		{Title: "Shamma", URI: "https://s.example"},
		{Title: "Overflow", URI: "https://o.example"},
	}
	h.start(t)

	if err := h.session.Hint(); err != nil {
		t.Fatalf("hint: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Hint == nil || snap.Hint.Loading || snap.Hint.Text != "Think of the shepherds." {
		t.Fatalf("unexpected hint %+v", snap.Hint)
	}
	if len(snap.Hint.Sources) != 4 || snap.Hint.Sources[1].Title != "Church" || snap.Hint.Sources[3].URI != "https://s.example" {
		t.Fatalf("unexpected merged sources %+v", snap.Hint.Sources)
	}
	if !snap.BonusDisabled {
		t.Fatalf("expected bonus disabled")
	}

	h.sched.fire(time.Second, 1)
	if got := h.session.Snapshot().TimeLeft; got != 24 {
		t.Fatalf("timer should keep running after a hint, got %d", got)
	}
}

func TestHintFailureUsesPlaceholder(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.content.hintErr = errors.New("quota")
	h.start(t)

	if err := h.session.Hint(); err != nil {
		t.Fatalf("hint: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Hint.Text != app.HintUnavailable {
		t.Fatalf("expected placeholder, got %q", snap.Hint.Text)
	}
	if len(snap.Hint.Sources) != 2 {
		t.Fatalf("question sources should still be listed, got %+v", snap.Hint.Sources)
	}
}

func TestWrongAnswerScoresZeroAndFactChecksCorrectOption(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.start(t)

	if len(h.content.factChecks) != 0 {
		t.Fatalf("fact check must not be issued before answering")
	}
	_ = h.session.Select("b")
	if err := h.session.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := h.session.Snapshot()
	if snap.Score != 0 || snap.Correct {
		t.Fatalf("expected 0 for wrong answer, got %d", snap.Score)
	}
	if len(h.content.factChecks) != 1 || h.content.factChecks[0] != "Tahsas 29" {
		t.Fatalf("expected fact check of correct option, got %v", h.content.factChecks)
	}
	if snap.FactCheck == nil || snap.FactCheck.Text != "Verified: Tahsas 29" {
		t.Fatalf("unexpected fact check %+v", snap.FactCheck)
	}
	if snap.Question.CorrectID != "a" || snap.Question.Explanation == "" {
		t.Fatalf("answer should be revealed after submit: %+v", snap.Question)
	}
}

func TestFactCheckFailureUsesPlaceholder(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.content.factErr = domain.ErrMissingAPIKey
	h.start(t)

	_ = h.session.Select("a")
	_ = h.session.Submit()
	if got := h.session.Snapshot().FactCheck.Text; got != app.FactCheckUnavailable {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestTimeoutCountsAsWrong(t *testing.T) {
	h := newHarness(t, domain.Hard)
	h.start(t)
	updates, cancel, err := h.session.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-updates

	_ = h.session.Select("a")
	<-updates

	ticks := 0
	for i := 0; i < 10; i++ {
		h.sched.fire(time.Second, 1)
		for drained := false; !drained; {
			select {
			case u := <-updates:
				if u.Cue == domain.CueTick {
					ticks++
				}
			default:
				drained = true
			}
		}
	}

	snap := h.session.Snapshot()
	if !snap.Answered || snap.TimeLeft != 0 || snap.Score != 0 {
		t.Fatalf("expected timed out question, got %+v", snap)
	}
	if ticks != 3 {
		t.Fatalf("expected tick cues at 4, 3 and 2 seconds, got %d", ticks)
	}
	if len(h.content.factChecks) != 1 {
		t.Fatalf("timeout should issue a fact check")
	}
	if err := h.session.Submit(); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if h.sched.active() != 0 {
		t.Fatalf("countdown should be stopped after timeout")
	}
}

func TestBudgetRestoredOnEveryQuestion(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.start(t)
	h.sched.fire(time.Second, 5)

	_ = h.session.Select("a")
	_ = h.session.Hint()
	_ = h.session.Submit()
	if err := h.session.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap := h.session.Snapshot()
	if snap.Index != 1 || snap.TimeLeft != 15 || snap.Answered || snap.Selected != "" || snap.BonusDisabled || snap.Hint != nil || snap.FactCheck != nil {
		t.Fatalf("per-question state not reset: %+v", snap)
	}
	if snap.Question.CorrectID != "" || snap.Question.Explanation != "" {
		t.Fatalf("answer leaked before submit: %+v", snap.Question)
	}
	if h.sched.active() != 1 {
		t.Fatalf("expected exactly one running countdown, got %d", h.sched.active())
	}
}

func TestActionGuards(t *testing.T) {
	h := newHarness(t, domain.Easy)
	if err := h.session.Select("a"); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase before start, got %v", err)
	}
	h.start(t)

	if err := h.session.Submit(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := h.session.Select("z"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if err := h.session.Next(); !errors.Is(err, domain.ErrNotAnswered) {
		t.Fatalf("expected ErrNotAnswered, got %v", err)
	}
	if err := h.session.Retry(); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase for retry, got %v", err)
	}
	_ = h.session.Select("a")
	_ = h.session.Submit()
	if err := h.session.Select("b"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if err := h.session.Hint(); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected hint refused after answer, got %v", err)
	}
}

func TestFetchFailureStaysLoadingUntilRetry(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.content.genErr = errors.New("503 unavailable")

	if err := h.session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Phase != app.PhaseLoading || snap.Error == "" {
		t.Fatalf("expected loading with error, got %+v", snap)
	}

	h.content.genErr = nil
	if err := h.session.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap := h.session.Snapshot(); snap.Phase != app.PhaseInProgress || snap.Total != 2 {
		t.Fatalf("expected questions after retry, got %+v", snap)
	}
	if h.content.genCalls != 2 {
		t.Fatalf("expected two generation calls, got %d", h.content.genCalls)
	}
}

func TestEmptyQuestionSetIsAFailure(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.content.questions = nil

	_ = h.session.Start()
	if snap := h.session.Snapshot(); snap.Error != domain.ErrNoQuestions.Error() {
		t.Fatalf("expected ErrNoQuestions, got %q", snap.Error)
	}
}

func TestLoadingTipRotates(t *testing.T) {
	h := newHarness(t, domain.Medium)
	h.content.genErr = errors.New("slow")
	_ = h.session.Start()

	if got := h.session.Snapshot().Tip; got != app.LoadingTips[0] {
		t.Fatalf("unexpected first tip %q", got)
	}
	h.sched.fire(3500*time.Millisecond, len(app.LoadingTips)+1)
	if got := h.session.Snapshot().Tip; got != app.LoadingTips[1] {
		t.Fatalf("expected tips to wrap around, got %q", got)
	}
}

func playThrough(t *testing.T, h *harness, answers ...string) {
	t.Helper()
	for i, a := range answers {
		if err := h.session.Select(a); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if err := h.session.Submit(); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if err := h.session.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
}

func TestResultsPersistHighScore(t *testing.T) {
	h := newHarness(t, domain.Easy)
	h.start(t)
	playThrough(t, h, "a", "b")

	snap := h.session.Snapshot()
	if snap.Phase != app.PhaseResults {
		t.Fatalf("expected results, got %s", snap.Phase)
	}
	// 500+25*100 twice
	if snap.Score != 6000 || snap.Rank != "Scholar" || snap.HighScore != 6000 || !snap.NewHighScore {
		t.Fatalf("unexpected results %+v", snap)
	}
	if !strings.Contains(snap.ShareText, "I just scored 6000 points") || !strings.HasSuffix(snap.ShareText, "https://genna.example") {
		t.Fatalf("unexpected share text %q", snap.ShareText)
	}
	if v, _, _ := h.local.GetItem(context.Background(), storage.ScoreKey); v != "6000" {
		t.Fatalf("expected stored score 6000, got %q", v)
	}
}

func TestHighScoreIsMonotonic(t *testing.T) {
	h := newHarness(t, domain.Easy)
	_ = h.local.SetItem(context.Background(), storage.ScoreKey, "9000")
	h.start(t)
	playThrough(t, h, "b", "a")

	snap := h.session.Snapshot()
	if snap.Score != 0 || snap.HighScore != 9000 || snap.NewHighScore || snap.Rank != "Pilgrim" {
		t.Fatalf("unexpected results %+v", snap)
	}
	if v, _, _ := h.local.GetItem(context.Background(), storage.ScoreKey); v != "9000" {
		t.Fatalf("stored score lowered to %q", v)
	}
}

func TestRestartResetsScoreAndIndex(t *testing.T) {
	h := newHarness(t, domain.Easy)
	h.start(t)
	_ = h.session.Select("a")
	_ = h.session.Submit()

	if err := h.session.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Phase != app.PhaseInProgress || snap.Score != 0 || snap.Index != 0 || snap.Answered {
		t.Fatalf("unexpected state after restart %+v", snap)
	}
	if h.content.genCalls != 2 {
		t.Fatalf("restart should request a new question set")
	}
}

func TestLateResponsesAreDropped(t *testing.T) {
	var queued []func()
	sched := &manualScheduler{}
	fake := &fakeContent{questions: sampleQuestions()}
	session := app.NewQuizSession("s", domain.Medium, app.SessionOptions{
		Content:   fake,
		Scheduler: sched,
		Spawn:     func(fn func()) { queued = append(queued, fn) },
	})
	drain := func() {
		for len(queued) > 0 {
			fn := queued[0]
			queued = queued[1:]
			fn()
		}
	}

	_ = session.Start()
	drain()
	_ = session.Select("a")
	_ = session.Submit()
	if err := session.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	drain() // fact check for question 1 arrives after moving on

	snap := session.Snapshot()
	if snap.Index != 1 || snap.FactCheck != nil {
		t.Fatalf("stale fact check applied to next question: %+v", snap.FactCheck)
	}

	_ = session.Hint()
	session.Close()
	drain()
	if err := session.Submit(); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if sched.active() != 0 {
		t.Fatalf("close should stop the countdown")
	}
}

func TestSubscribersReceiveCues(t *testing.T) {
	h := newHarness(t, domain.Easy)
	h.start(t)
	updates, cancel, err := h.session.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if u := <-updates; u.Snapshot.Phase != app.PhaseInProgress {
		t.Fatalf("expected initial snapshot, got %+v", u)
	}
	_ = h.session.Select("a")
	if u := <-updates; u.Cue != domain.CueClick {
		t.Fatalf("expected click cue, got %q", u.Cue)
	}
	_ = h.session.Submit()
	if u := <-updates; u.Cue != domain.CueCorrect {
		t.Fatalf("expected correct cue, got %q", u.Cue)
	}
}

func TestScoringRules(t *testing.T) {
	cases := []struct {
		correct, noBonus bool
		left, want       int
	}{
		{true, false, 6, 1100},
		{true, true, 6, 500},
		{false, false, 6, 0},
		{true, false, 0, 500},
	}
	for _, c := range cases {
		if got := app.AwardPoints(c.correct, c.noBonus, c.left); got != c.want {
			t.Fatalf("AwardPoints(%v,%v,%d)=%d want %d", c.correct, c.noBonus, c.left, got, c.want)
		}
	}
	ranks := map[int]string{4000: "Scholar", 3999: "Faithful Learner", 2000: "Faithful Learner", 1999: "Pilgrim", 0: "Pilgrim"}
	for score, want := range ranks {
		if got := app.RankFor(score); got != want {
			t.Fatalf("RankFor(%d)=%q want %q", score, got, want)
		}
	}
}
