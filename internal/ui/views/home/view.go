package home

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/components"
	"genna-quiz-service/internal/ui/theme"
)

type FactsPort interface {
	LiveFacts(ctx context.Context) ([]domain.LiveFact, error)
}

type FactsLoadedMsg struct {
	Facts []domain.LiveFact
	Err   error
}

// LogoutMsg asks the controller to sign the user out.
type LogoutMsg struct{}

type Model struct {
	port    FactsPort
	user    string
	facts   []domain.LiveFact
	loading bool
	failed  bool
	spinner spinner.Model
}

func New(port FactsPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Gold)
	return Model{port: port, spinner: sp}
}

func (m Model) SetUser(name string) Model {
	m.user = name
	return m
}

// Load fetches the facts unless they are already shown.
func (m Model) Load() (Model, tea.Cmd) {
	if m.loading || len(m.facts) > 0 {
		return m, nil
	}
	m.loading, m.failed = true, false
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		facts, err := port.LiveFacts(context.Background())
		return FactsLoadedMsg{Facts: facts, Err: err}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FactsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			log.Printf("live facts failed: %v", msg.Err)
			m.failed = true
			return m, nil
		}
		m.facts = msg.Facts
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "p":
			return m, components.Navigate(domain.ViewGames)
		case "l":
			return m, components.Navigate(domain.ViewLearn)
		case "r":
			if m.failed {
				return m.Load()
			}
		case "o":
			return m, func() tea.Msg { return LogoutMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	greeting := "Melkam Genna!"
	if m.user != "" {
		greeting = "Melkam Genna, " + m.user + "!"
	}
	b.WriteString(theme.Title.Render(greeting) + "\n\n")
	b.WriteString(theme.Warn.Render("LIVE") + " " + theme.Title.Render("Genna facts") + "\n")
	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Gathering live facts...\n")
	case m.failed:
		b.WriteString(theme.Muted.Render("Live facts are unavailable right now. (r to retry)") + "\n")
	default:
		for _, f := range m.facts {
			b.WriteString("• " + f.Fact + "\n")
			if f.Source != nil {
				title := f.Source.Title
				if title == "" {
					title = f.Source.URI
				}
				b.WriteString("  " + theme.Link.Render(title) + "\n")
			}
		}
	}
	b.WriteString("\n" + theme.KeyHint.Render("enter start quiz  l learn  o sign out"))
	return b.String()
}
