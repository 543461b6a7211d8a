package music

import (
	"errors"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"genna-quiz-service/internal/domain"
)

var (
	// ErrAutoplayBlocked is reported when the output refuses to start without a user gesture.
	ErrAutoplayBlocked = errors.New("autoplay blocked")
	// ErrPlaybackAborted is reported when a pending play was interrupted by a newer request.
	ErrPlaybackAborted = errors.New("playback aborted")
)

// Output renders direct and local tracks. YouTube tracks are played by the
// embedded player and never reach the output.
type Output interface {
	Play(source string, muted bool) error
	Stop() error
}

// NopOutput accepts every request and plays nothing; the client renders audio itself.
type NopOutput struct{}

func (NopOutput) Play(string, bool) error { return nil }
func (NopOutput) Stop() error             { return nil }

// State is what a music widget renders.
type State struct {
	Playing       bool           `json:"isPlaying"`
	Muted         bool           `json:"isMuted"`
	HasInteracted bool           `json:"hasInteracted"`
	Current       domain.Track   `json:"currentTrack"`
	Tracks        []domain.Track `json:"allTracks"`
	EmbedURL      string         `json:"embedUrl,omitempty"`
}

// Player is one listener's background music session.
type Player struct {
	output  Output
	objects *Objects

	mu         sync.Mutex
	tracks     []domain.Track
	current    int
	playing    bool
	muted      bool
	interacted bool
	active     string
	activeMute bool
	closed     bool
}

// NewPlayer starts paused on the first bundled track. Nothing plays until the
// listener interacts.
func NewPlayer(output Output, objects *Objects) *Player {
	if output == nil {
		output = NopOutput{}
	}
	if objects == nil {
		objects = NewObjects("")
	}
	return &Player{
		output:  output,
		objects: objects,
		tracks:  append([]domain.Track(nil), BundledTracks...),
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// TogglePlay flips play/pause and records the user gesture that unlocks playback.
func (p *Player) TogglePlay() State {
	return p.update(func() {
		p.interacted = true
		p.playing = !p.playing
	})
}

func (p *Player) ToggleMute() State {
	return p.update(func() {
		p.muted = !p.muted
	})
}

// Skip advances to the next track, wrapping around, and starts playing.
func (p *Player) Skip() State {
	return p.update(p.skipLocked)
}

// Select switches tracks without changing the play state.
func (p *Player) Select(id string) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(id)
	if i < 0 {
		return p.stateLocked(), domain.ErrTrackNotFound
	}
	p.current = i
	p.syncLocked()
	return p.stateLocked(), nil
}

// Upload adds a listener file as a local track, switches to it and plays it.
func (p *Player) Upload(name string, r io.Reader) (domain.Track, error) {
	ref, err := p.objects.Create(name, r)
	if err != nil {
		return domain.Track{}, err
	}
	track := domain.Track{
		ID:    uuid.NewString(),
		Title: TitleFromFileName(name),
		URL:   ref,
		Kind:  domain.TrackLocal,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.objects.Revoke(ref)
		return domain.Track{}, domain.ErrTrackNotFound
	}
	p.tracks = append(p.tracks, track)
	p.current = len(p.tracks) - 1
	p.playing = true
	p.interacted = true
	p.syncLocked()
	return track, nil
}

// RemoveTrack drops an uploaded track and releases its object. Removing the
// current track moves on to the one that followed it.
func (p *Player) RemoveTrack(id string) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if isBundled(id) {
		return p.stateLocked(), domain.ErrBundledTrack
	}
	i := p.indexLocked(id)
	if i < 0 {
		return p.stateLocked(), domain.ErrTrackNotFound
	}
	removed := p.tracks[i]
	p.tracks = append(p.tracks[:i], p.tracks[i+1:]...)
	switch {
	case i < p.current:
		p.current--
	case i == p.current:
		p.current = i % len(p.tracks)
	}
	if IsObjectRef(removed.URL) {
		p.objects.Revoke(removed.URL)
	}
	p.syncLocked()
	return p.stateLocked(), nil
}

// Ended is called when a direct or local track finishes.
func (p *Player) Ended() State {
	return p.update(func() {
		if p.tracks[p.current].Kind == domain.TrackYouTube {
			return
		}
		p.active = ""
		p.skipLocked()
	})
}

// ReportPlaybackError handles a failure reported by the output or a client.
func (p *Player) ReportPlaybackError(err error) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handleErrorLocked(err)
	if !p.closed {
		p.syncLocked()
	}
	return p.stateLocked()
}

// Source resolves a track to something an output can open: the URL of a
// direct track or the file behind a local track's reference.
func (p *Player) Source(t domain.Track) (string, bool) {
	if t.Kind == domain.TrackLocal {
		return p.objects.Path(t.URL)
	}
	return t.URL, t.URL != ""
}

// Track looks up a track by id.
func (p *Player) Track(id string) (domain.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(id)
	if i < 0 {
		return domain.Track{}, false
	}
	return p.tracks[i], true
}

// Close stops playback and releases every uploaded object.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.playing = false
	p.syncLocked()
	for _, t := range p.tracks {
		if IsObjectRef(t.URL) {
			p.objects.Revoke(t.URL)
		}
	}
	p.tracks = append([]domain.Track(nil), BundledTracks...)
	p.current = 0
}

func (p *Player) update(fn func()) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		fn()
		p.syncLocked()
	}
	return p.stateLocked()
}

func (p *Player) skipLocked() {
	p.current = (p.current + 1) % len(p.tracks)
	p.playing = true
}

func (p *Player) indexLocked(id string) int {
	for i, t := range p.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// syncLocked brings the output in line with the desired state.
func (p *Player) syncLocked() {
	track := p.tracks[p.current]
	want := ""
	if p.playing && p.interacted && track.Kind != domain.TrackYouTube {
		if src, ok := p.Source(track); ok {
			want = src
		}
	}

	if want == "" {
		if p.active != "" {
			if err := p.output.Stop(); err != nil {
				log.Printf("warn: stopping audio output: %v", err)
			}
			p.active = ""
		}
		return
	}
	if want == p.active && p.muted == p.activeMute {
		return
	}
	if err := p.output.Play(want, p.muted); err != nil {
		p.active = ""
		p.handleErrorLocked(err)
		return
	}
	p.active, p.activeMute = want, p.muted
}

func (p *Player) handleErrorLocked(err error) {
	switch {
	case err == nil, errors.Is(err, ErrPlaybackAborted):
	case errors.Is(err, ErrAutoplayBlocked):
		p.playing = false
	default:
		log.Printf("warn: audio playback issue: %v", err)
	}
}

func (p *Player) stateLocked() State {
	current := p.tracks[p.current]
	s := State{
		Playing:       p.playing,
		Muted:         p.muted,
		HasInteracted: p.interacted,
		Current:       current,
		Tracks:        append([]domain.Track(nil), p.tracks...),
	}
	if current.Kind == domain.TrackYouTube && p.interacted {
		s.EmbedURL = EmbedURL(current.URL, p.playing, p.muted)
	}
	return s
}

// ParsePlaybackError maps a client-reported media error name to the player's errors.
func ParsePlaybackError(name, message string) error {
	switch name {
	case "NotAllowedError":
		return ErrAutoplayBlocked
	case "AbortError":
		return ErrPlaybackAborted
	}
	if message == "" {
		message = "unknown playback error"
	}
	if name == "" {
		return errors.New(message)
	}
	return errors.New(name + ": " + message)
}
