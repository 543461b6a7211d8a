package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/card"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/music"
	"genna-quiz-service/internal/sound"
	"genna-quiz-service/internal/storage"
)

type loginResponse struct {
	ClientID string             `json:"clientId"`
	User     domain.UserProfile `json:"user"`
}

type meResponse struct {
	User *domain.UserProfile `json:"user"`
}

type scoreResponse struct {
	HighScore int `json:"highScore"`
}

type factCheckRequest struct {
	Answer   string `json:"answer"`
	Question string `json:"question"`
}

type hintRequest struct {
	Question string                   `json:"question"`
	Sources  []domain.GroundingSource `json:"sources"`
}

type startQuizRequest struct {
	Difficulty string `json:"difficulty"`
}

type selectTrackRequest struct {
	ID string `json:"id"`
}

type playbackErrorRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// handleLogin signs in with the mock profile. Callers without an identity get
// a fresh one, echoed in the body and the X-Client-ID header.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)
	if id == "" {
		id = uuid.NewString()
	}
	profile, err := a.svc.Auth.LoginWithGoogle(r.Context(), storage.ForClient(a.svc.KV, id))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(clientIDHeader, id)
	writeJSON(w, http.StatusOK, loginResponse{ClientID: id, User: profile})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	local, ok := a.local(w, r)
	if !ok {
		return
	}
	if err := a.svc.Auth.Logout(r.Context(), local); err != nil {
		writeError(w, err)
		return
	}
	a.svc.Music.Release(local.ClientID())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	local, ok := a.local(w, r)
	if !ok {
		return
	}
	user, err := a.svc.Auth.CurrentUser(r.Context(), local)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user})
}

func (a *API) handleScore(w http.ResponseWriter, r *http.Request) {
	local, ok := a.local(w, r)
	if !ok {
		return
	}
	high, err := app.NewScoreBook(local).HighScore(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{HighScore: high})
}

func (a *API) handleFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := a.svc.Content.LiveFacts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facts)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	local, ok := a.local(w, r)
	if !ok {
		return
	}
	entries, err := a.svc.Leaderboard.Board(r.Context(), local)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleLearn(w http.ResponseWriter, r *http.Request) {
	cards, err := a.svc.Content.Learn(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (a *API) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req factCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeMessage(w, http.StatusBadRequest, "answer is required")
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Content.FactCheck(r.Context(), req.Answer, req.Question))
}

func (a *API) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeMessage(w, http.StatusBadRequest, "question is required")
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Content.Hint(r.Context(), req.Question, req.Sources))
}

// handleStartQuiz creates a session. An empty body or difficulty plays Medium.
func (a *API) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	d := domain.Medium
	if req.Difficulty != "" {
		parsed, err := domain.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeError(w, err)
			return
		}
		d = parsed
	}
	session, err := a.svc.Quiz.Start(r.Context(), clientID(r), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (a *API) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := a.svc.Quiz.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (a *API) handleEndQuiz(w http.ResponseWriter, r *http.Request) {
	a.svc.Quiz.End(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// handleCard renders the results card of a finished session.
func (a *API) handleCard(w http.ResponseWriter, r *http.Request) {
	session, err := a.svc.Quiz.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap := session.Snapshot()
	if snap.Phase != app.PhaseResults {
		writeError(w, domain.ErrWrongPhase)
		return
	}

	name := "You"
	if id := clientID(r); id != "" {
		if user, err := a.svc.Auth.CurrentUser(r.Context(), storage.ForClient(a.svc.KV, id)); err == nil && user != nil {
			name = user.Name
		}
	}
	date := time.Now()
	if snap.FinishedAt != nil {
		date = *snap.FinishedAt
	}
	pdf, err := card.Render(card.CardData{
		SessionID:    snap.SessionID,
		Name:         name,
		Difficulty:   string(snap.Difficulty),
		Score:        snap.Score,
		HighScore:    snap.HighScore,
		NewHighScore: snap.NewHighScore,
		Rank:         snap.Rank,
		Questions:    snap.Total,
		Date:         date,
		ShareText:    snap.ShareText,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="genna-journey.pdf"`)
	w.Write(pdf)
}

func (a *API) player(w http.ResponseWriter, r *http.Request) (*music.Player, bool) {
	id := clientID(r)
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "missing client id")
		return nil, false
	}
	return a.svc.Music.Player(id), true
}

func (a *API) handleMusicState(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

func (a *API) handleMusicAction(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	var state music.State
	switch chi.URLParam(r, "action") {
	case "play":
		state = p.TogglePlay()
	case "mute":
		state = p.ToggleMute()
	case "skip":
		state = p.Skip()
	case "ended":
		state = p.Ended()
	default:
		writeMessage(w, http.StatusNotFound, "unknown music action")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleMusicSelect(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	var req selectTrackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	state, err := p.Select(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleMusicUpload accepts one audio file in the "file" form field.
func (a *API) handleMusicUpload(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "audio/") {
		writeMessage(w, http.StatusUnsupportedMediaType, "only audio files are accepted")
		return
	}

	track, err := p.Upload(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (a *API) handlePlaybackError(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	var req playbackErrorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, p.ReportPlaybackError(music.ParsePlaybackError(req.Name, req.Message)))
}

func (a *API) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	state, err := p.RemoveTrack(chi.URLParam(r, "trackID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleTrackFile streams an uploaded track and redirects direct tracks to
// their source. YouTube tracks have no file.
func (a *API) handleTrackFile(w http.ResponseWriter, r *http.Request) {
	p, ok := a.player(w, r)
	if !ok {
		return
	}
	track, found := p.Track(chi.URLParam(r, "trackID"))
	if !found {
		writeError(w, domain.ErrTrackNotFound)
		return
	}
	src, found := p.Source(track)
	switch {
	case !found || track.Kind == domain.TrackYouTube:
		writeError(w, domain.ErrTrackNotFound)
	case track.Kind == domain.TrackDirect:
		http.Redirect(w, r, src, http.StatusFound)
	default:
		http.ServeFile(w, r, src)
	}
}

// handleSound serves a synthesized cue such as /api/sounds/correct.wav.
func handleSound(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".wav")
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown sound")
		return
	}
	data, ok := sound.WAV(domain.SoundCue(name))
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown sound")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
