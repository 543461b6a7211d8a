package app

import (
	"sync"
	"time"

	"genna-quiz-service/internal/music"
)

// MusicService keeps one music player per client.
type MusicService struct {
	newPlayer func() *music.Player

	mu       sync.Mutex
	players  map[string]*music.Player
	lastUsed map[string]time.Time
}

// NewMusicService builds players with newPlayer on first use.
func NewMusicService(newPlayer func() *music.Player) *MusicService {
	return &MusicService{
		newPlayer: newPlayer,
		players:   make(map[string]*music.Player),
		lastUsed:  make(map[string]time.Time),
	}
}

func (s *MusicService) Player(clientID string) *music.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[clientID]
	if !ok {
		p = s.newPlayer()
		s.players[clientID] = p
	}
	s.lastUsed[clientID] = time.Now()
	return p
}

// Release closes the client's player and frees its uploads.
func (s *MusicService) Release(clientID string) {
	s.mu.Lock()
	p, ok := s.players[clientID]
	delete(s.players, clientID)
	delete(s.lastUsed, clientID)
	s.mu.Unlock()
	if ok {
		p.Close()
	}
}

// Reap releases players nobody has asked for within idle and returns how
// many it closed.
func (s *MusicService) Reap(idle time.Duration) int {
	now := time.Now()
	var stale []*music.Player
	s.mu.Lock()
	for id, used := range s.lastUsed {
		if now.Sub(used) < idle {
			continue
		}
		stale = append(stale, s.players[id])
		delete(s.players, id)
		delete(s.lastUsed, id)
	}
	s.mu.Unlock()
	for _, p := range stale {
		p.Close()
	}
	return len(stale)
}

func (s *MusicService) Close() {
	s.mu.Lock()
	players := s.players
	s.players = make(map[string]*music.Player)
	s.lastUsed = make(map[string]time.Time)
	s.mu.Unlock()
	for _, p := range players {
		p.Close()
	}
}
