package learn

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/theme"
)

// ArchivePort serves the learn cards; filter is a tab name.
type ArchivePort interface {
	Learn(ctx context.Context, filter string) ([]domain.LearnContent, error)
}

type LoadedMsg struct {
	Cards []domain.LearnContent
	Err   error
}

var tabs = append([]string{domain.LearnFilterAll}, categoryNames()...)

func categoryNames() []string {
	var out []string
	for _, c := range domain.LearnCategories() {
		out = append(out, string(c))
	}
	return out
}

type Model struct {
	port    ArchivePort
	cards   []domain.LearnContent
	tab     int
	loaded  bool
	loading bool
	failed  bool
	spinner spinner.Model
	vp      viewport.Model
}

func New(port ArchivePort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Gold)
	return Model{port: port, spinner: sp, vp: viewport.New(76, 16)}
}

// Load fetches the archive once; tabs filter the cached cards.
func (m Model) Load() (Model, tea.Cmd) {
	if m.loading || m.loaded {
		return m, nil
	}
	m.loading, m.failed = true, false
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		cards, err := port.Learn(context.Background(), domain.LearnFilterAll)
		return LoadedMsg{Cards: cards, Err: err}
	})
}

func (m Model) SetSize(width, height int) Model {
	if width > 4 {
		m.vp.Width = width - 4
	}
	if height > 10 {
		m.vp.Height = height - 10
	}
	m.vp.SetContent(m.render())
	return m
}

// Visible returns the cards of the active tab.
func (m Model) Visible() []domain.LearnContent {
	if m.tab == 0 {
		return m.cards
	}
	want := domain.LearnCategory(tabs[m.tab])
	var out []domain.LearnContent
	for _, c := range m.cards {
		if c.Category == want {
			out = append(out, c)
		}
	}
	return out
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			log.Printf("learn archive failed: %v", msg.Err)
			m.failed = true
			return m, nil
		}
		m.cards, m.loaded = msg.Cards, true
		m.vp.SetContent(m.render())
		m.vp.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			m.tab = (m.tab + len(tabs) - 1) % len(tabs)
		case "right", "l":
			m.tab = (m.tab + 1) % len(tabs)
		case "r":
			if m.failed {
				return m.Load()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		m.vp.SetContent(m.render())
		m.vp.GotoTop()
	}
	return m, nil
}

func (m Model) render() string {
	var b strings.Builder
	for _, c := range m.Visible() {
		b.WriteString(theme.Warn.Render(strings.ToUpper(string(c.Category))) + "  " + theme.Title.Render(c.Title) + "\n")
		b.WriteString(lipgloss.NewStyle().Width(m.vp.Width).Render(c.Description) + "\n")
		if c.Details != "" {
			b.WriteString(theme.Muted.Width(m.vp.Width).Render(c.Details) + "\n")
		}
		if c.Reference != "" {
			b.WriteString(theme.Link.Render(c.Reference) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Learn about Genna") + "\n")
	labels := make([]string, len(tabs))
	for i, t := range tabs {
		if i == m.tab {
			labels[i] = theme.Chosen.Padding(0, 1).Render(t)
		} else {
			labels[i] = theme.Muted.Padding(0, 1).Render(t)
		}
	}
	b.WriteString(strings.Join(labels, " ") + "\n\n")
	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Opening the archives...\n")
	case m.failed:
		b.WriteString(theme.Muted.Render("The archive could not be loaded. (r to retry)") + "\n")
	case len(m.Visible()) == 0:
		b.WriteString(theme.Muted.Render("Nothing here yet.") + "\n")
	default:
		b.WriteString(m.vp.View() + "\n")
	}
	b.WriteString(theme.KeyHint.Render("←/→ category  ↑/↓ scroll"))
	return b.String()
}
