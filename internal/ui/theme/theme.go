package theme

import "github.com/charmbracelet/lipgloss"

var (
	Night   = lipgloss.Color("#0f0d0a")
	Panel   = lipgloss.Color("#1c1710")
	Border  = lipgloss.Color("#3d3222")
	Text    = lipgloss.Color("#f3ead8")
	Subtext = lipgloss.Color("#a89c85")
	Gold    = lipgloss.Color("#d4af37")
	Green   = lipgloss.Color("#4caf50")
	Red     = lipgloss.Color("#e04f3f")
	Amber   = lipgloss.Color("#f0a030")

	App = lipgloss.NewStyle().
		Foreground(Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Foreground(Text).
		Padding(0, 1)

	PaneActive = Pane.BorderForeground(Gold)

	Title   = lipgloss.NewStyle().Foreground(Gold).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(Subtext)
	Good    = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Bad     = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warn    = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	Chosen  = lipgloss.NewStyle().Foreground(Night).Background(Gold).Bold(true)
	Link    = lipgloss.NewStyle().Foreground(Subtext).Underline(true)
	KeyHint = lipgloss.NewStyle().Foreground(Subtext).Italic(true)
)
