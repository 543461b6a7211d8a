package quiz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/theme"
)

// Session is the quiz session the view drives.
type Session interface {
	Snapshot() app.Snapshot
	Subscribe() (<-chan app.Update, func(), error)
	Select(optionID string) error
	Submit() error
	Hint() error
	Next() error
	Restart() error
	Retry() error
}

// UpdateMsg carries one session broadcast.
type UpdateMsg struct {
	Update app.Update
}

type closedMsg struct{}

// ExitMsg asks the controller to end the session and leave the quiz.
type ExitMsg struct{}

type Model struct {
	session    Session
	updates    <-chan app.Update
	cancel     func()
	snap       app.Snapshot
	fullscreen bool
	err        string
	width      int
}

// New subscribes to session and renders its current state.
func New(session Session) (Model, tea.Cmd) {
	m := Model{session: session, snap: session.Snapshot(), cancel: func() {}}
	updates, cancel, err := session.Subscribe()
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.updates, m.cancel = updates, cancel
	return m, wait(updates)
}

func wait(ch <-chan app.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return UpdateMsg{Update: u}
	}
}

// Close drops the subscription.
func (m Model) Close() { m.cancel() }

func (m Model) Snapshot() app.Snapshot { return m.snap }

func (m Model) Fullscreen() bool { return m.fullscreen }

func (m Model) SetWidth(w int) Model {
	m.width = w
	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		m.snap = msg.Update.Snapshot
		return m, wait(m.updates)
	case closedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (Model, tea.Cmd) {
	s := m.snap
	var err error
	switch key {
	case "1", "2", "3", "4":
		idx := int(key[0] - '1')
		if s.Question == nil || idx >= len(s.Question.Options) {
			return m, nil
		}
		err = m.session.Select(s.Question.Options[idx].ID)
	case "enter":
		switch {
		case s.Phase == app.PhaseInProgress && s.Answered:
			err = m.session.Next()
		case s.Phase == app.PhaseInProgress:
			err = m.session.Submit()
		}
	case "h":
		err = m.session.Hint()
	case "n":
		err = m.session.Next()
	case "r":
		if s.Phase == app.PhaseLoading {
			err = m.session.Retry()
		} else {
			err = m.session.Restart()
		}
	case "f":
		m.fullscreen = !m.fullscreen
		if m.fullscreen {
			return m, tea.EnterAltScreen
		}
		return m, tea.ExitAltScreen
	case "esc":
		exit := func() tea.Msg { return ExitMsg{} }
		if m.fullscreen {
			m.fullscreen = false
			return m, tea.Sequence(tea.ExitAltScreen, exit)
		}
		return m, exit
	default:
		return m, nil
	}
	m.err = ""
	if err != nil {
		m.err = err.Error()
	}
	// reflect the action without waiting for the broadcast
	m.snap = m.session.Snapshot()
	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.snap.Phase {
	case app.PhaseInProgress:
		body = m.viewQuestion()
	case app.PhaseResults:
		body = m.viewResults()
	default:
		body = m.viewLoading()
	}
	if m.err != "" {
		body += "\n" + theme.Bad.Render(m.err)
	}
	return body
}

func (m Model) viewLoading() string {
	s := m.snap
	var b strings.Builder
	b.WriteString(theme.Title.Render("Preparing your journey") + "\n\n")
	if s.Error != "" {
		b.WriteString(theme.Bad.Render(s.Error) + "\n\n")
		b.WriteString(theme.KeyHint.Render("r try again  esc back"))
		return b.String()
	}
	b.WriteString("Consulting the archives...\n\n")
	b.WriteString(theme.Muted.Render("Did you know? "+s.Tip) + "\n\n")
	b.WriteString(theme.KeyHint.Render("esc back"))
	return b.String()
}

func (m Model) viewQuestion() string {
	s := m.snap
	q := s.Question
	if q == nil {
		return ""
	}
	var b strings.Builder
	header := fmt.Sprintf("Question %d/%d   Score %d", s.Index+1, s.Total, s.Score)
	b.WriteString(theme.Title.Render(header) + "\n")
	b.WriteString(timeBar(s.TimeLeft, s.TimeBudget, 30) + "\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Width(m.textWidth()).Render(q.Prompt) + "\n\n")

	for i, opt := range q.Options {
		label := fmt.Sprintf("%d. %s", i+1, opt.Text)
		style := lipgloss.NewStyle()
		switch {
		case s.Answered && opt.ID == q.CorrectID:
			style = theme.Good
			label += "  ✓"
		case s.Answered && opt.ID == s.Selected:
			style = theme.Bad
			label += "  ✗"
		case opt.ID == s.Selected:
			style = theme.Chosen
		}
		b.WriteString("  " + style.Render(label) + "\n")
	}

	if s.Hint != nil {
		b.WriteString("\n" + theme.Warn.Render("Fast check") + "\n")
		b.WriteString(m.verification(s.Hint.Text, s.Hint.Sources, s.Hint.Loading, "Searching for a clue..."))
	}

	if s.Answered {
		b.WriteString("\n")
		switch {
		case s.Correct:
			b.WriteString(theme.Good.Render(fmt.Sprintf("Correct! +%d", s.Awarded)))
		case s.TimeLeft == 0:
			b.WriteString(theme.Bad.Render("Time's up!"))
		default:
			b.WriteString(theme.Bad.Render("Not quite."))
		}
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(lipgloss.NewStyle().Width(m.textWidth()).Render(q.Explanation) + "\n")
		}
		if q.BibleVerse != "" {
			b.WriteString(theme.Muted.Render("📖 "+q.BibleVerse) + "\n")
		}
		if s.FactCheck != nil {
			b.WriteString("\n" + theme.Title.Render("Fact check") + "\n")
			b.WriteString(m.verification(s.FactCheck.Text, s.FactCheck.Sources, s.FactCheck.Loading, "Verifying with live search..."))
		}
		b.WriteString("\n" + theme.KeyHint.Render("enter/n next  f fullscreen  esc quit"))
		return b.String()
	}

	hint := "1-4 choose  enter submit  h hint"
	if s.BonusDisabled {
		hint += " (bonus forfeited)"
	}
	b.WriteString("\n" + theme.KeyHint.Render(hint+"  f fullscreen  esc quit"))
	return b.String()
}

func (m Model) verification(text string, sources []domain.GroundingSource, loading bool, pending string) string {
	if loading {
		return theme.Muted.Render(pending) + "\n"
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(m.textWidth()).Render(text) + "\n")
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		b.WriteString("  " + theme.Link.Render(title) + " " + theme.Muted.Render(src.URI) + "\n")
	}
	return b.String()
}

func (m Model) viewResults() string {
	s := m.snap
	var b strings.Builder
	b.WriteString(theme.Title.Render("Journey Complete") + "\n\n")
	b.WriteString(fmt.Sprintf("Score       %d\n", s.Score))
	b.WriteString(fmt.Sprintf("Rank        %s\n", s.Rank))
	b.WriteString(fmt.Sprintf("High score  %d\n", s.HighScore))
	if s.NewHighScore {
		b.WriteString("\n" + theme.Warn.Render("★ New high score! ★") + "\n")
	}
	if s.ShareText != "" {
		b.WriteString("\n" + theme.Muted.Render(s.ShareText) + "\n")
	}
	b.WriteString("\n" + theme.KeyHint.Render("r play again  esc home"))
	return b.String()
}

func (m Model) textWidth() int {
	if m.width <= 10 {
		return 70
	}
	return m.width - 8
}

// timeBar draws the countdown; it turns red in the last four seconds.
func timeBar(left, budget, width int) string {
	if budget <= 0 {
		return ""
	}
	filled := left * width / budget
	style := theme.Good
	if left <= 4 {
		style = theme.Bad
	}
	return style.Render(strings.Repeat("█", filled)) +
		theme.Muted.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %2ds", left)
}
