package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/ui/theme"
)

// NavigateMsg asks the controller to switch views.
type NavigateMsg struct {
	To domain.View
}

// Navigate is a command producing NavigateMsg.
func Navigate(to domain.View) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: to} }
}

// NavBar renders the bottom tab bar with active highlighted.
func NavBar(active domain.View, width int) string {
	items := domain.NavItems()
	tabs := make([]string, 0, len(items))
	for _, item := range items {
		style := theme.Muted.Padding(0, 2)
		if item.View == active || (item.View == domain.ViewGames && active == domain.ViewDifficulty) {
			style = theme.Chosen.Padding(0, 2)
		}
		tabs = append(tabs, style.Render(item.Label))
	}
	bar := strings.Join(tabs, " ")
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.Border).
		Render(bar)
}

// NextTab returns the nav view after (or before, with step -1) current.
// Views outside the bar start from Home.
func NextTab(current domain.View, step int) domain.View {
	items := domain.NavItems()
	idx := 0
	for i, item := range items {
		if item.View == current || (item.View == domain.ViewGames && current == domain.ViewDifficulty) {
			idx = i
		}
	}
	n := len(items)
	return items[((idx+step)%n+n)%n].View
}
