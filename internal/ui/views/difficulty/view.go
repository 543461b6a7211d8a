package difficulty

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/components"
	"genna-quiz-service/internal/ui/theme"
)

// ChosenMsg starts a quiz at the chosen difficulty.
type ChosenMsg struct {
	Difficulty domain.Difficulty
}

type Model struct {
	cursor int
}

// New starts the cursor on the previously chosen difficulty.
func New(current domain.Difficulty) Model {
	m := Model{}
	for i, d := range domain.Difficulties() {
		if d == current {
			m.cursor = i
		}
	}
	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	levels := domain.Difficulties()
	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(levels)-1 {
			m.cursor++
		}
	case "1", "2", "3":
		m.cursor = int(k.String()[0] - '1')
		fallthrough
	case "enter":
		d := levels[m.cursor]
		return m, func() tea.Msg { return ChosenMsg{Difficulty: d} }
	case "esc":
		return m, components.Navigate(domain.ViewGames)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Choose your path") + "\n\n")
	for i, d := range domain.Difficulties() {
		label := fmt.Sprintf("%d. %-6s %2ds per question", i+1, d, d.TimeBudget())
		if i == m.cursor {
			b.WriteString(theme.Chosen.Render("> "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
		b.WriteString("   " + theme.Muted.Render(d.Blurb()) + "\n")
	}
	b.WriteString("\n" + theme.KeyHint.Render("↑/↓ choose  enter begin  esc back"))
	return b.String()
}
