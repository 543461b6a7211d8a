package domain

// View is the top-level screen the app controller is showing.
type View string

const (
	ViewAuth        View = "AUTH"
	ViewHome        View = "HOME"
	ViewGames       View = "GAMES"
	ViewDifficulty  View = "DIFFICULTY"
	ViewQuiz        View = "QUIZ"
	ViewLeaderboard View = "LEADERBOARD"
	ViewLearn       View = "LEARN"
)

// NavItem is one tab of the bottom navigation bar.
type NavItem struct {
	View  View
	Label string
}

// NavItems returns the bottom bar tabs in display order.
func NavItems() []NavItem {
	return []NavItem{
		{View: ViewHome, Label: "Home"},
		{View: ViewGames, Label: "Games"},
		{View: ViewLeaderboard, Label: "Rank"},
		{View: ViewLearn, Label: "Learn"},
	}
}

// ShowsNav reports whether the navigation bar is visible on v.
// The auth screen and the running quiz take the whole screen.
func (v View) ShowsNav() bool {
	return v != ViewAuth && v != ViewQuiz
}
