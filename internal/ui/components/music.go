package components

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/music"
	"genna-quiz-service/internal/ui/theme"
)

// MusicPort is the part of the music player the widget drives.
type MusicPort interface {
	State() music.State
	TogglePlay() music.State
	ToggleMute() music.State
	Skip() music.State
	Upload(name string, r io.Reader) (domain.Track, error)
}

// MusicWidget is the collapsible background-music panel.
type MusicWidget struct {
	player   MusicPort
	expanded bool
	adding   bool
	input    textinput.Model
	status   string
}

func NewMusicWidget(player MusicPort) MusicWidget {
	in := textinput.New()
	in.Placeholder = "path to an audio file"
	in.CharLimit = 512
	return MusicWidget{player: player, input: in}
}

// Capturing reports whether the widget is reading typed text.
func (w MusicWidget) Capturing() bool { return w.adding }

func (w MusicWidget) TogglePlay() MusicWidget {
	if w.player != nil {
		w.player.TogglePlay()
	}
	return w
}

func (w MusicWidget) Skip() MusicWidget {
	if w.player != nil {
		w.player.Skip()
	}
	return w
}

// Update handles the widget's own keys: c collapse, u mute, a add a file.
func (w MusicWidget) Update(msg tea.KeyMsg) (MusicWidget, tea.Cmd) {
	if w.player == nil {
		return w, nil
	}
	if w.adding {
		switch msg.String() {
		case "esc":
			w.adding = false
			w.input.Blur()
			return w, nil
		case "enter":
			w.adding = false
			w.input.Blur()
			w.status = w.upload(strings.TrimSpace(w.input.Value()))
			w.input.SetValue("")
			return w, nil
		}
		var cmd tea.Cmd
		w.input, cmd = w.input.Update(msg)
		return w, cmd
	}
	switch msg.String() {
	case "c":
		w.expanded = !w.expanded
	case "u":
		w.player.ToggleMute()
	case "a":
		if w.expanded {
			w.adding = true
			w.status = ""
			return w, w.input.Focus()
		}
	}
	return w, nil
}

func (w MusicWidget) upload(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return "could not open file: " + err.Error()
	}
	defer f.Close()
	track, err := w.player.Upload(path, f)
	if err != nil {
		return "upload failed: " + err.Error()
	}
	return "added " + track.Title
}

func (w MusicWidget) View() string {
	if w.player == nil {
		return ""
	}
	s := w.player.State()
	icon := "▶"
	if s.Playing {
		icon = "❚❚"
	}
	mute := ""
	if s.Muted {
		mute = " (muted)"
	}
	line := fmt.Sprintf("♪ %s %s%s", icon, s.Current.Title, mute)
	if !w.expanded {
		return theme.Muted.Render(line + "   [c] expand")
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(line) + "\n")
	b.WriteString(theme.Muted.Render(music.KindLabel(s.Current.Kind)) + "\n")
	if !s.HasInteracted {
		b.WriteString(theme.Warn.Render("press m to start the music") + "\n")
	}
	for _, t := range s.Tracks {
		marker := "  "
		if t.ID == s.Current.ID {
			marker = "> "
		}
		b.WriteString(marker + t.Title + "\n")
	}
	if w.adding {
		b.WriteString(w.input.View() + "\n")
	} else {
		b.WriteString(theme.KeyHint.Render("m play/pause  s skip  u mute  a add file  c collapse") + "\n")
	}
	if w.status != "" {
		b.WriteString(theme.Muted.Render(w.status))
	}
	return theme.Pane.Render(strings.TrimRight(b.String(), "\n"))
}
