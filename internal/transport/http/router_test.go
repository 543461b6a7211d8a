package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"genna-quiz-service/internal/app"
	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
	"genna-quiz-service/internal/infra/memory"
	"genna-quiz-service/internal/music"
)

// fakeContent stands in for the generative content client.
type fakeContent struct{}

func (fakeContent) GenerateQuestions(context.Context, domain.Difficulty) ([]domain.Question, error) {
	return []domain.Question{
		{
			ID:     1,
			Prompt: "On which Ethiopian date is Genna celebrated?",
			Options: []domain.Option{
				{ID: "a", Text: "Tahsas 29"},
				{ID: "b", Text: "Meskerem 1"},
			},
			CorrectID:   "a",
			Explanation: "Genna falls on Tahsas 29.",
		},
	}, nil
}

func (fakeContent) FactCheck(context.Context, string, string) (content.Verification, error) {
	return content.Verification{Text: "Confirmed."}, nil
}

func (fakeContent) Hint(context.Context, string) (content.Verification, error) {
	return content.Verification{Text: "Think of Tahsas."}, nil
}

func (fakeContent) LiveFacts(context.Context) ([]domain.LiveFact, error) {
	return []domain.LiveFact{{Fact: "Genna is celebrated on January 7."}}, nil
}

func (fakeContent) LearnContent(context.Context) ([]domain.LearnContent, error) {
	return []domain.LearnContent{
		{Category: domain.CategoryHistory, Title: "Lalibela"},
		{Category: domain.CategoryScripture, Title: "Luke 2"},
	}, nil
}

func (fakeContent) Leaderboard(context.Context, int) ([]content.LeaderboardBot, error) {
	return []content.LeaderboardBot{{Name: "Abebe", Score: 4200}}, nil
}

type noopScheduler struct{}

func (noopScheduler) Every(time.Duration, func()) func() { return func() {} }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	kv := memory.NewKVStore()
	auth := app.NewAuthService(0, 0)
	objects := music.NewObjects(t.TempDir())
	musicSvc := app.NewMusicService(func() *music.Player { return music.NewPlayer(music.NopOutput{}, objects) })
	t.Cleanup(musicSvc.Close)

	svc := Services{
		KV: kv,
		Quiz: app.NewQuizService(memory.NewSessionStore(), fakeContent{}, kv, app.QuizServiceOptions{
			Scheduler: noopScheduler{},
			Spawn:     func(fn func()) { fn() },
			ShareURL:  "https://genna.example",
		}),
		Auth:        auth,
		Leaderboard: app.NewLeaderboardService(fakeContent{}, auth),
		Content:     app.NewContentService(fakeContent{}, fakeContent{}),
		Music:       musicSvc,
	}
	server := httptest.NewServer(NewRouter(svc, []string{"*"}))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, clientID string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if clientID != "" {
		req.Header.Set(clientIDHeader, clientID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestLoginIssuesClientID(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/api/auth/login", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var login loginResponse
	decodeBody(t, resp, &login)
	if login.ClientID == "" || resp.Header.Get(clientIDHeader) != login.ClientID {
		t.Fatalf("expected issued client id, got %q / %q", login.ClientID, resp.Header.Get(clientIDHeader))
	}
	if login.User != app.MockProfile {
		t.Fatalf("unexpected profile %+v", login.User)
	}

	var me meResponse
	decodeBody(t, do(t, http.MethodGet, server.URL+"/api/auth/me", login.ClientID, nil), &me)
	if me.User == nil || me.User.Name != app.MockProfile.Name {
		t.Fatalf("expected stored profile, got %+v", me.User)
	}

	if resp := do(t, http.MethodPost, server.URL+"/api/auth/logout", login.ClientID, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", resp.StatusCode)
	}
	me = meResponse{}
	decodeBody(t, do(t, http.MethodGet, server.URL+"/api/auth/me", login.ClientID, nil), &me)
	if me.User != nil {
		t.Fatalf("expected no user after logout, got %+v", me.User)
	}
}

func TestMissingClientID(t *testing.T) {
	server := newTestServer(t)
	for _, path := range []string{"/api/score", "/api/leaderboard", "/api/music"} {
		if resp := do(t, http.MethodGet, server.URL+path, "", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
	// the query parameter is accepted too
	if resp := do(t, http.MethodGet, server.URL+"/api/score?clientId=abc", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with query client id, got %d", resp.StatusCode)
	}
}

func TestSecurityHeaders(t *testing.T) {
	server := newTestServer(t)
	resp := do(t, http.MethodGet, server.URL+"/healthz", "", nil)
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}

func TestQuizLifecycleAndCard(t *testing.T) {
	server := newTestServer(t)

	if resp := do(t, http.MethodPost, server.URL+"/api/quiz", "c1", startQuizRequest{Difficulty: "legendary"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown difficulty, got %d", resp.StatusCode)
	}

	resp := do(t, http.MethodPost, server.URL+"/api/quiz", "c1", startQuizRequest{Difficulty: "easy"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var snap app.Snapshot
	decodeBody(t, resp, &snap)
	if snap.Phase != app.PhaseInProgress || snap.Difficulty != domain.Easy || snap.TimeLeft != 25 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Question == nil || snap.Question.CorrectID != "" {
		t.Fatalf("expected question with hidden answer, got %+v", snap.Question)
	}

	cardURL := server.URL + "/api/quiz/" + snap.SessionID + "/card.pdf"
	if resp := do(t, http.MethodGet, cardURL, "c1", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before results, got %d", resp.StatusCode)
	}

	if resp := do(t, http.MethodGet, server.URL+"/api/quiz/missing", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLearnFilter(t *testing.T) {
	server := newTestServer(t)

	var cards []domain.LearnContent
	decodeBody(t, do(t, http.MethodGet, server.URL+"/api/learn?category=history", "", nil), &cards)
	if len(cards) != 1 || cards[0].Title != "Lalibela" {
		t.Fatalf("expected only the history card, got %+v", cards)
	}
	if resp := do(t, http.MethodGet, server.URL+"/api/learn?category=Poetry", "", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", resp.StatusCode)
	}
}

func TestAdHocChecks(t *testing.T) {
	server := newTestServer(t)

	var fact domain.FactCheckResult
	decodeBody(t, do(t, http.MethodPost, server.URL+"/api/factcheck", "", factCheckRequest{Answer: "Tahsas 29"}), &fact)
	if fact.Text != "Confirmed." {
		t.Fatalf("unexpected fact check %+v", fact)
	}
	if resp := do(t, http.MethodPost, server.URL+"/api/hint", "", hintRequest{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty question, got %d", resp.StatusCode)
	}
}

func TestSounds(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/api/sounds/correct.wav", "", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "audio/wav" {
		t.Fatalf("expected wav, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	head := make([]byte, 4)
	if _, err := io.ReadFull(resp.Body, head); err != nil || string(head) != "RIFF" {
		t.Fatalf("expected RIFF header, got %q (%v)", head, err)
	}
	for _, path := range []string{"/api/sounds/thunder.wav", "/api/sounds/correct"} {
		if resp := do(t, http.MethodGet, server.URL+path, "", nil); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestMusicUploadAndRemove(t *testing.T) {
	server := newTestServer(t)

	var state music.State
	decodeBody(t, do(t, http.MethodPost, server.URL+"/api/music/play", "c1", nil), &state)
	if !state.Playing || !state.HasInteracted {
		t.Fatalf("expected playing after toggle, got %+v", state)
	}
	if resp := do(t, http.MethodDelete, server.URL+"/api/music/tracks/"+state.Current.ID, "c1", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 removing bundled track, got %d", resp.StatusCode)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="my_chant.mp3"`)
	h.Set("Content-Type", "audio/mpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("ID3-fake-audio"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/music/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(clientIDHeader, "c1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var track domain.Track
	decodeBody(t, resp, &track)
	if track.Kind != domain.TrackLocal || track.Title != "my_chant" {
		t.Fatalf("unexpected track %+v", track)
	}

	file := do(t, http.MethodGet, server.URL+"/api/music/tracks/"+track.ID, "c1", nil)
	raw, _ := io.ReadAll(file.Body)
	if file.StatusCode != http.StatusOK || string(raw) != "ID3-fake-audio" {
		t.Fatalf("expected uploaded bytes, got %d %q", file.StatusCode, raw)
	}

	// other clients do not see the upload
	if resp := do(t, http.MethodGet, server.URL+"/api/music/tracks/"+track.ID, "c2", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for another client, got %d", resp.StatusCode)
	}

	decodeBody(t, do(t, http.MethodDelete, server.URL+"/api/music/tracks/"+track.ID, "c1", nil), &state)
	for _, tr := range state.Tracks {
		if tr.ID == track.ID {
			t.Fatalf("expected track removed, got %+v", state.Tracks)
		}
	}
}

func TestPlaybackErrorPausesOnAutoplayBlock(t *testing.T) {
	server := newTestServer(t)
	do(t, http.MethodPost, server.URL+"/api/music/play", "c1", nil)

	var state music.State
	decodeBody(t, do(t, http.MethodPost, server.URL+"/api/music/playback-error", "c1",
		playbackErrorRequest{Name: "NotAllowedError", Message: "play() failed"}), &state)
	if state.Playing {
		t.Fatalf("expected paused after autoplay block")
	}
}
