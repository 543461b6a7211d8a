package leaderboard

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/theme"
)

// BoardPort returns the ranked board for the current player.
type BoardPort interface {
	Board(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

type LoadedMsg struct {
	Entries []domain.LeaderboardEntry
	Err     error
}

type Model struct {
	port    BoardPort
	entries []domain.LeaderboardEntry
	loading bool
	failed  bool
	spinner spinner.Model
}

func New(port BoardPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Gold)
	return Model{port: port, spinner: sp}
}

// Load refetches the board; the bots are regenerated around the latest score.
func (m Model) Load() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading, m.failed = true, false
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		entries, err := port.Board(context.Background())
		return LoadedMsg{Entries: entries, Err: err}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			log.Printf("leaderboard failed: %v", msg.Err)
			m.failed = true
			return m, nil
		}
		m.entries = msg.Entries
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m.Load()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Global Leaderboard") + "\n\n")
	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Ranking the faithful...\n")
	case m.failed:
		b.WriteString(theme.Muted.Render("The leaderboard is unavailable right now.") + "\n")
	case len(m.entries) == 0:
		b.WriteString(theme.Muted.Render("No players yet.") + "\n")
	default:
		for _, e := range m.entries {
			line := fmt.Sprintf("%2d. %s %-20s %6d", e.Rank, e.Avatar, e.Name, e.Score)
			if e.IsUser {
				line = theme.Chosen.Render(line + "  you")
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n" + theme.KeyHint.Render("r refresh"))
	return b.String()
}
