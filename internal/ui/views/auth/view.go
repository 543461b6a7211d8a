package auth

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
	"genna-quiz-service/internal/ui/theme"
)

type AuthPort interface {
	LoginWithGoogle(ctx context.Context, local *storage.Local) (domain.UserProfile, error)
}

// LoggedInMsg reports the outcome of a sign-in.
type LoggedInMsg struct {
	User domain.UserProfile
	Err  error
}

type Model struct {
	port    AuthPort
	local   *storage.Local
	spinner spinner.Model
	busy    bool
	err     string
}

func New(port AuthPort, local *storage.Local) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Gold)
	return Model{port: port, local: local, spinner: sp}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" && !m.busy {
			m.busy = true
			m.err = ""
			return m, tea.Batch(m.spinner.Tick, m.login())
		}
	case LoggedInMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) login() tea.Cmd {
	return func() tea.Msg {
		user, err := m.port.LoginWithGoogle(context.Background(), m.local)
		return LoggedInMsg{User: user, Err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("✦ Melkam Genna ✦") + "\n\n")
	b.WriteString("Celebrate the Ethiopian Christmas with a quiz of faith,\nhistory and tradition.\n\n")
	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Signing in...")
	default:
		b.WriteString(theme.Chosen.Padding(0, 2).Render("Sign in with Google") + "\n\n")
		b.WriteString(theme.KeyHint.Render("enter sign in  q quit"))
	}
	if m.err != "" {
		b.WriteString("\n\n" + theme.Bad.Render(m.err))
	}
	return b.String()
}
