package app

import (
	"time"

	"genna-quiz-service/internal/domain"
)

// Snapshot is an immutable view of a quiz session. The correct option,
// explanation and verse of the current question stay hidden until it is answered.
type Snapshot struct {
	SessionID  string            `json:"sessionId"`
	Phase      Phase             `json:"phase"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Score      int               `json:"score"`

	Tip   string `json:"tip,omitempty"`
	Error string `json:"error,omitempty"`

	Index         int                     `json:"index"`
	Total         int                     `json:"total"`
	TimeLeft      int                     `json:"timeLeft"`
	TimeBudget    int                     `json:"timeBudget"`
	Question      *QuestionView           `json:"question,omitempty"`
	Selected      string                  `json:"selected,omitempty"`
	Answered      bool                    `json:"answered"`
	Correct       bool                    `json:"correct"`
	Awarded       int                     `json:"awarded"`
	BonusDisabled bool                    `json:"bonusDisabled"`
	FactCheck     *domain.FactCheckResult `json:"factCheck,omitempty"`
	Hint          *domain.HintResult      `json:"hint,omitempty"`

	Rank         string     `json:"rank,omitempty"`
	HighScore    int        `json:"highScore"`
	NewHighScore bool       `json:"newHighScore"`
	ShareText    string     `json:"shareText,omitempty"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// QuestionView is a question as shown to the player.
type QuestionView struct {
	ID          int                      `json:"id"`
	Prompt      string                   `json:"question"`
	Options     []domain.Option          `json:"options"`
	CorrectID   string                   `json:"correctId,omitempty"`
	Explanation string                   `json:"explanation,omitempty"`
	BibleVerse  string                   `json:"bibleVerse,omitempty"`
	Sources     []domain.GroundingSource `json:"sources"`
}

func (s *QuizSession) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		Difficulty: s.difficulty,
		Score:      s.score,
		Total:      len(s.questions),
		TimeBudget: s.difficulty.TimeBudget(),
	}

	switch st := s.state.(type) {
	case nil:
		snap.Phase = PhaseLoading
		snap.Tip = LoadingTips[0]
	case *loadingQuestions:
		snap.Phase = PhaseLoading
		snap.Tip = LoadingTips[st.tip]
		if st.err != nil {
			snap.Error = st.err.Error()
		}
	case *inProgress:
		snap.Phase = PhaseInProgress
		snap.Index = st.index
		snap.TimeLeft = st.timeLeft
		snap.Selected = st.selected
		snap.Answered = st.answered
		snap.Correct = st.correct
		snap.Awarded = st.awarded
		snap.BonusDisabled = st.bonusDisabled
		snap.Question = viewQuestion(s.questions[st.index], st.answered)
		if st.factCheck != nil {
			fc := *st.factCheck
			fc.Sources = append([]domain.GroundingSource{}, fc.Sources...)
			snap.FactCheck = &fc
		}
		if st.hint != nil {
			h := *st.hint
			h.Sources = append([]domain.GroundingSource{}, h.Sources...)
			snap.Hint = &h
		}
	case *results:
		snap.Phase = PhaseResults
		snap.Index = len(s.questions) - 1
		snap.Rank = st.rank
		snap.HighScore = st.highScore
		snap.NewHighScore = st.newHighScore
		snap.ShareText = ShareText(s.score, s.shareURL)
		finished := st.finishedAt
		snap.FinishedAt = &finished
	}
	return snap
}

func viewQuestion(q domain.Question, answered bool) *QuestionView {
	v := &QuestionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: append([]domain.Option{}, q.Options...),
		Sources: append([]domain.GroundingSource{}, q.Sources...),
	}
	if answered {
		v.CorrectID = q.CorrectID
		v.Explanation = q.Explanation
		v.BibleVerse = q.BibleVerse
	}
	return v
}
