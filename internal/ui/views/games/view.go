package games

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/components"
	"genna-quiz-service/internal/ui/theme"
)

// Model is the game picker. Only the quiz exists today.
type Model struct{}

func New() Model { return Model{} }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "enter" || k.String() == "1") {
		return m, components.Navigate(domain.ViewDifficulty)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Games") + "\n\n")
	card := theme.PaneActive.Render(theme.Title.Render("Genna Quiz") + "\n" +
		fmt.Sprintf("%d questions on the Nativity, Lalibela and Ethiopian tradition.\n", content.QuestionsPerSet) +
		theme.Muted.Render("Answer fast for a time bonus."))
	b.WriteString(card + "\n\n")
	b.WriteString(theme.KeyHint.Render("enter play"))
	return b.String()
}
