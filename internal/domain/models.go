package domain

import "strings"

// UserProfile is the signed-in player as persisted under the genna_user key.
type UserProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

// GroundingSource is a citation returned by a search-grounded generation call.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID          int               `json:"id"`
	Prompt      string            `json:"question"`
	Options     []Option          `json:"options"`
	CorrectID   string            `json:"correctId"`
	Explanation string            `json:"explanation"`
	BibleVerse  string            `json:"bibleVerse,omitempty"`
	Sources     []GroundingSource `json:"sources,omitempty"`
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// CorrectText is the text of the correct option, or "" when the id is dangling.
func (q Question) CorrectText() string {
	opt, _ := q.Option(q.CorrectID)
	return opt.Text
}

// FactCheckResult is the post-answer verification of the correct option.
type FactCheckResult struct {
	Text    string            `json:"text"`
	Sources []GroundingSource `json:"sources"`
	Loading bool              `json:"isLoading"`
}

// HintResult is the on-demand "fast check" clue for an unanswered question.
type HintResult struct {
	Text    string            `json:"text"`
	Sources []GroundingSource `json:"sources"`
	Loading bool              `json:"isLoading"`
}

// LiveFact is a recent Genna fact shown on the home view.
type LiveFact struct {
	Fact   string           `json:"fact"`
	Source *GroundingSource `json:"source,omitempty"`
}

// LeaderboardEntry is one row of the fabricated leaderboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Avatar string `json:"avatar"`
	IsUser bool   `json:"isUser,omitempty"`
}

// LearnCategory groups learn cards.
type LearnCategory string

const (
	CategoryScripture LearnCategory = "Scripture"
	CategoryTradition LearnCategory = "Tradition"
	CategoryHistory   LearnCategory = "History"
)

// LearnFilterAll selects every learn category.
const LearnFilterAll = "All"

// ParseLearnFilter maps a filter tab name to a category. "All" and "" select
// everything and return the empty category.
func ParseLearnFilter(raw string) (LearnCategory, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, LearnFilterAll) {
		return "", nil
	}
	for _, c := range LearnCategories() {
		if strings.EqualFold(raw, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// LearnCategories lists the categories in tab order.
func LearnCategories() []LearnCategory {
	return []LearnCategory{CategoryScripture, CategoryTradition, CategoryHistory}
}

// LearnContent is one educational card of the learn archive.
type LearnContent struct {
	Category    LearnCategory `json:"category"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Details     string        `json:"details"`
	Reference   string        `json:"reference,omitempty"`
}

// TrackKind discriminates how a track is played back.
type TrackKind string

const (
	TrackYouTube TrackKind = "youtube"
	TrackDirect  TrackKind = "direct"
	TrackLocal   TrackKind = "local"
)

// Track is one entry of the background music playlist. URL holds the video id
// for YouTube tracks and a blob: reference for local uploads.
type Track struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
	Kind  TrackKind `json:"type"`
}

// SoundCue names a synthesized sound effect.
type SoundCue string

const (
	CueNone    SoundCue = ""
	CueClick   SoundCue = "click"
	CueCorrect SoundCue = "correct"
	CueWrong   SoundCue = "wrong"
	CueTick    SoundCue = "tick"
	CueWin     SoundCue = "win"
)

// SoundCues lists every cue the synthesizer can render.
func SoundCues() []SoundCue {
	return []SoundCue{CueClick, CueCorrect, CueWrong, CueTick, CueWin}
}
