package controller

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
	"genna-quiz-service/internal/ui/components"
	"genna-quiz-service/internal/ui/theme"
	"genna-quiz-service/internal/ui/views/auth"
	"genna-quiz-service/internal/ui/views/difficulty"
	"genna-quiz-service/internal/ui/views/games"
	"genna-quiz-service/internal/ui/views/home"
	"genna-quiz-service/internal/ui/views/leaderboard"
	"genna-quiz-service/internal/ui/views/learn"
	"genna-quiz-service/internal/ui/views/quiz"
)

// Services are the app services the terminal client drives. Music may be nil.
type Services struct {
	Auth        *app.AuthService
	Quiz        *app.QuizService
	Leaderboard *app.LeaderboardService
	Content     *app.ContentService
	Music       components.MusicPort
}

type userCheckedMsg struct {
	user *domain.UserProfile
	err  error
}

type loggedOutMsg struct{ err error }

// boardPort binds the leaderboard to this terminal's local storage.
type boardPort struct {
	svc   *app.LeaderboardService
	local *storage.Local
}

func (b boardPort) Board(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return b.svc.Board(ctx, b.local)
}

// Model is the root of the terminal client. It owns navigation, the signed-in
// user, the chosen difficulty and the running quiz session.
type Model struct {
	svc   Services
	local *storage.Local
	bell  io.Writer

	view       domain.View
	difficulty domain.Difficulty
	user       *domain.UserProfile
	session    *app.QuizSession
	sound      bool
	status     string
	width      int
	height     int

	auth  auth.Model
	home  home.Model
	games games.Model
	diff  difficulty.Model
	quiz  quiz.Model
	board leaderboard.Model
	learn learn.Model
	music components.MusicWidget
}

func New(svc Services, local *storage.Local) Model {
	return Model{
		svc:        svc,
		local:      local,
		bell:       os.Stdout,
		view:       domain.ViewAuth,
		difficulty: domain.DefaultDifficulty,
		sound:      true,
		auth:       auth.New(svc.Auth, local),
		home:       home.New(svc.Content),
		games:      games.New(),
		diff:       difficulty.New(domain.DefaultDifficulty),
		board:      leaderboard.New(boardPort{svc: svc.Leaderboard, local: local}),
		learn:      learn.New(svc.Content),
		music:      components.NewMusicWidget(svc.Music),
	}
}

// WithBell redirects the sound-cue bell, which defaults to stdout.
func (m Model) WithBell(w io.Writer) Model {
	m.bell = w
	return m
}

// Current is the view on screen.
func (m Model) Current() domain.View { return m.view }

func (m Model) User() *domain.UserProfile { return m.user }

func (m Model) Session() *app.QuizSession { return m.session }

// Init restores a stored profile so returning players skip the sign-in screen.
func (m Model) Init() tea.Cmd {
	svc, local := m.svc.Auth, m.local
	return func() tea.Msg {
		user, err := svc.CurrentUser(context.Background(), local)
		return userCheckedMsg{user: user, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.learn = m.learn.SetSize(msg.Width, msg.Height)
		m.quiz = m.quiz.SetWidth(msg.Width)
		return m, nil

	case userCheckedMsg:
		if msg.err != nil {
			log.Printf("warn: reading stored profile: %v", msg.err)
		}
		if msg.user == nil {
			return m, nil
		}
		m.user = msg.user
		m.home = m.home.SetUser(msg.user.Name)
		return m.navigate(domain.ViewHome)

	case auth.LoggedInMsg:
		var cmd tea.Cmd
		m.auth, cmd = m.auth.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		user := msg.User
		m.user = &user
		m.home = m.home.SetUser(user.Name)
		return m.navigate(domain.ViewHome)

	case home.LogoutMsg:
		svc, local := m.svc.Auth, m.local
		return m, func() tea.Msg {
			return loggedOutMsg{err: svc.Logout(context.Background(), local)}
		}

	case loggedOutMsg:
		if msg.err != nil {
			m.status = "sign out failed: " + msg.err.Error()
			return m, nil
		}
		m.endQuiz()
		m.user = nil
		m.home = home.New(m.svc.Content)
		m.board = leaderboard.New(boardPort{svc: m.svc.Leaderboard, local: m.local})
		m.view = domain.ViewAuth
		return m, nil

	case components.NavigateMsg:
		return m.navigate(msg.To)

	case difficulty.ChosenMsg:
		return m.startQuiz(msg.Difficulty)

	case quiz.ExitMsg:
		m.endQuiz()
		return m.navigate(domain.ViewHome)

	case quiz.UpdateMsg:
		if m.session == nil || msg.Update.Snapshot.SessionID != m.session.ID() {
			return m, nil
		}
		m.ring(msg.Update.Cue)
		var cmd tea.Cmd
		m.quiz, cmd = m.quiz.Update(msg)
		return m, cmd

	case home.FactsLoadedMsg:
		var cmd tea.Cmd
		m.home, cmd = m.home.Update(msg)
		return m, cmd

	case leaderboard.LoadedMsg:
		var cmd tea.Cmd
		m.board, cmd = m.board.Update(msg)
		return m, cmd

	case learn.LoadedMsg:
		var cmd tea.Cmd
		m.learn, cmd = m.learn.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		// each spinner ignores ticks carrying another spinner's id
		var cmds [4]tea.Cmd
		m.auth, cmds[0] = m.auth.Update(msg)
		m.home, cmds[1] = m.home.Update(msg)
		m.board, cmds[2] = m.board.Update(msg)
		m.learn, cmds[3] = m.learn.Update(msg)
		return m, tea.Batch(cmds[:]...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.endQuiz()
		return m, tea.Quit
	}
	if m.music.Capturing() {
		var cmd tea.Cmd
		m.music, cmd = m.music.Update(msg)
		return m, cmd
	}
	switch key {
	case "q":
		if m.view != domain.ViewQuiz {
			return m, tea.Quit
		}
	case "tab", "shift+tab":
		if m.view.ShowsNav() {
			step := 1
			if key == "shift+tab" {
				step = -1
			}
			return m.navigate(components.NextTab(m.view, step))
		}
		return m, nil
	case "m":
		m.music = m.music.TogglePlay()
		return m, nil
	case "s":
		m.music = m.music.Skip()
		return m, nil
	case "x":
		m.sound = !m.sound
		return m, nil
	case "c", "u", "a":
		var cmd tea.Cmd
		m.music, cmd = m.music.Update(msg)
		return m, cmd
	}
	return m.updateView(msg)
}

// updateView forwards msg to the active view.
func (m Model) updateView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case domain.ViewAuth:
		m.auth, cmd = m.auth.Update(msg)
	case domain.ViewHome:
		m.home, cmd = m.home.Update(msg)
	case domain.ViewGames:
		m.games, cmd = m.games.Update(msg)
	case domain.ViewDifficulty:
		m.diff, cmd = m.diff.Update(msg)
	case domain.ViewQuiz:
		m.quiz, cmd = m.quiz.Update(msg)
	case domain.ViewLeaderboard:
		m.board, cmd = m.board.Update(msg)
	case domain.ViewLearn:
		m.learn, cmd = m.learn.Update(msg)
	}
	return m, cmd
}

func (m Model) navigate(to domain.View) (Model, tea.Cmd) {
	if to == domain.ViewQuiz && m.session == nil {
		return m, nil
	}
	if m.view == domain.ViewQuiz && to != domain.ViewQuiz {
		m.endQuiz()
	}
	m.status = ""
	m.view = to
	var cmd tea.Cmd
	switch to {
	case domain.ViewHome:
		m.home, cmd = m.home.Load()
	case domain.ViewDifficulty:
		m.diff = difficulty.New(m.difficulty)
	case domain.ViewLeaderboard:
		m.board, cmd = m.board.Load()
	case domain.ViewLearn:
		m.learn, cmd = m.learn.Load()
	}
	return m, cmd
}

func (m Model) startQuiz(d domain.Difficulty) (Model, tea.Cmd) {
	m.endQuiz()
	m.difficulty = d
	session, err := m.svc.Quiz.Start(context.Background(), m.local.ClientID(), d)
	if err != nil {
		m.status = "could not start the quiz: " + err.Error()
		return m, nil
	}
	m.session = session
	var cmd tea.Cmd
	m.quiz, cmd = quiz.New(session)
	m.quiz = m.quiz.SetWidth(m.width)
	m.view = domain.ViewQuiz
	return m, cmd
}

// endQuiz drops the subscription and closes the session, if any.
func (m *Model) endQuiz() {
	if m.session == nil {
		return
	}
	m.quiz.Close()
	m.svc.Quiz.End(m.session.ID())
	m.session = nil
}

// ring sounds the terminal bell for answer and finish cues.
func (m Model) ring(cue domain.SoundCue) {
	if !m.sound || m.bell == nil {
		return
	}
	switch cue {
	case domain.CueCorrect, domain.CueWrong, domain.CueWin:
		fmt.Fprint(m.bell, "\a")
	}
}

func (m Model) View() string {
	var body string
	switch m.view {
	case domain.ViewAuth:
		body = m.auth.View()
	case domain.ViewHome:
		body = m.home.View()
	case domain.ViewGames:
		body = m.games.View()
	case domain.ViewDifficulty:
		body = m.diff.View()
	case domain.ViewQuiz:
		body = m.quiz.View()
	case domain.ViewLeaderboard:
		body = m.board.View()
	case domain.ViewLearn:
		body = m.learn.View()
	}

	var b strings.Builder
	b.WriteString(body)
	if m.status != "" {
		b.WriteString("\n\n" + theme.Bad.Render(m.status))
	}
	if w := m.music.View(); w != "" {
		b.WriteString("\n\n" + w)
	}
	footer := "m music  s skip  x sound "
	if m.sound {
		footer += "on"
	} else {
		footer += "off"
	}
	if m.view.ShowsNav() {
		b.WriteString("\n\n" + components.NavBar(m.view, m.navWidth()))
		footer += "  tab switch  q quit"
	}
	b.WriteString("\n" + theme.KeyHint.Render(footer))
	return theme.App.Render(b.String())
}

func (m Model) navWidth() int {
	if m.width <= 4 {
		return 60
	}
	return m.width - 4
}
