package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/storage"
)

const (
	clientIDHeader = "X-Client-ID"
	clientIDQuery  = "clientId"
	maxJSONBody    = 64 << 10
	maxUploadBody  = 25 << 20
)

// Services are the use cases the HTTP surface exposes.
type Services struct {
	KV          storage.KV
	Quiz        *app.QuizService
	Auth        *app.AuthService
	Leaderboard *app.LeaderboardService
	Content     *app.ContentService
	Music       *app.MusicService
}

// API holds the REST handlers.
type API struct {
	svc Services
}

// NewRouter wires every route behind CORS and the security headers.
func NewRouter(svc Services, allowedOrigins []string) http.Handler {
	api := &API{svc: svc}
	ws := NewWSHandler(svc.Quiz)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", clientIDHeader},
		ExposedHeaders:   []string{clientIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(securityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Get("/ws/quiz", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", api.handleLogin)
		r.Post("/auth/logout", api.handleLogout)
		r.Get("/auth/me", api.handleMe)

		r.Get("/score", api.handleScore)
		r.Get("/facts", api.handleFacts)
		r.Get("/leaderboard", api.handleLeaderboard)
		r.Get("/learn", api.handleLearn)
		r.Post("/factcheck", api.handleFactCheck)
		r.Post("/hint", api.handleHint)

		r.Post("/quiz", api.handleStartQuiz)
		r.Get("/quiz/{sessionID}", api.handleGetQuiz)
		r.Delete("/quiz/{sessionID}", api.handleEndQuiz)
		r.Get("/quiz/{sessionID}/card.pdf", api.handleCard)

		r.Get("/music", api.handleMusicState)
		r.Post("/music/{action:play|mute|skip|ended}", api.handleMusicAction)
		r.Post("/music/select", api.handleMusicSelect)
		r.Post("/music/upload", api.handleMusicUpload)
		r.Post("/music/playback-error", api.handlePlaybackError)
		r.Get("/music/tracks/{trackID}", api.handleTrackFile)
		r.Delete("/music/tracks/{trackID}", api.handleRemoveTrack)

		r.Get("/sounds/{file}", handleSound)
	})
	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// clientID reads the caller's local-storage identity.
func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(clientIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get(clientIDQuery))
}

// local returns the caller's storage or writes a 400 when the id is missing.
func (a *API) local(w http.ResponseWriter, r *http.Request) (*storage.Local, bool) {
	id := clientID(r)
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "missing client id")
		return nil, false
	}
	return storage.ForClient(a.svc.KV, id), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

// writeError maps domain errors onto status codes; anything else is a 500
// with a neutral message.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDifficulty), errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrOptionNotFound), errors.Is(err, domain.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyAnswered), errors.Is(err, domain.ErrNotAnswered),
		errors.Is(err, domain.ErrHintPending), errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrBundledTrack):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
