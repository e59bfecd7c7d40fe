package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catnipgarden/internal/auth"
	"catnipgarden/internal/config"
	"catnipgarden/internal/game"
	"catnipgarden/internal/play"
	"catnipgarden/internal/progress"
	"catnipgarden/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedAdvisor struct{}

func (cannedAdvisor) Reply(_ context.Context, prompt string) string {
	if prompt == "" {
		return "I'm not sure, could you rephrase?"
	}
	return "Pay yourself first."
}

type tokenVerifier map[string]auth.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	id, ok := v[token]
	if !ok {
		return auth.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

type harness struct {
	t       *testing.T
	handler http.Handler
	tracker *progress.Tracker
}

func newHarness(t *testing.T, cfg config.APIConfig, verifier auth.Verifier) *harness {
	t.Helper()
	tracker, err := progress.NewTracker(context.Background(), progress.NewMemoryKV(), "")
	require.NoError(t, err)
	registry := play.NewRegistry(time.Hour, func(id game.ID, points int) {
		_, err := tracker.Complete(context.Background(), id, points)
		assert.NoError(t, err)
	}, play.WithSources(func() scenario.Source { return scenario.NewSeeded(11) }))
	srv := New(cfg, nil, verifier, tracker, registry, cannedAdvisor{})
	return &harness{t: t, handler: srv.Handler(), tracker: tracker}
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// viewBody is SessionView without the polymorphic state.
type viewBody struct {
	ID      string        `json:"id"`
	Game    game.ID       `json:"game"`
	Stage   game.Stage    `json:"stage"`
	Done    bool          `json:"done"`
	Busy    bool          `json:"busy"`
	Points  int           `json:"points"`
	Options []game.Option `json:"options"`
	Outcome *game.Outcome `json:"outcome"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *harness) startSession(gameID string) viewBody {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/v1/sessions", `{"game":"`+gameID+`"}`)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[viewBody](h.t, rec)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	rec := h.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestMeWithoutAuthIsGuest(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	rec := h.do(http.MethodGet, "/v1/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.Guest, decode[auth.Identity](t, rec))
}

func TestPlayBudgetToCompletion(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	view := h.startSession("budget")
	assert.Equal(t, game.Budget, view.Game)
	assert.Equal(t, game.StagePlaying, view.Stage)
	assert.NotEmpty(t, view.Options)

	rec := h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"toggle","index":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"finish"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[viewBody](t, rec)
	assert.True(t, done.Done)
	require.NotNil(t, done.Outcome)
	assert.True(t, done.Outcome.Completed)
	assert.Equal(t, 50, done.Outcome.Points)

	rec = h.do(http.MethodGet, "/v1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[progress.UserProgress](t, rec)
	assert.Equal(t, 50, p.TotalPoints)
	assert.Equal(t, []string{"Budget Boss"}, p.Badges)
	assert.Equal(t, 1, p.GamesCompleted[game.Budget])

	rec = h.do(http.MethodGet, "/v1/games", "")
	require.Equal(t, http.StatusOK, rec.Code)
	games := decode[struct {
		Games []GameCard `json:"games"`
	}](t, rec)
	require.Len(t, games.Games, 7)
	assert.Equal(t, game.Savings, games.Games[0].ID)
	assert.Equal(t, 1, games.Games[1].Completed)
	assert.True(t, games.Games[1].Earned)
	assert.False(t, games.Games[0].Earned)

	rec = h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"finish"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	view := h.startSession("budget")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "invalid move", method: http.MethodPost, path: "/v1/sessions/" + view.ID + "/actions", body: `{"kind":"finish"}`, status: http.StatusUnprocessableEntity},
		{name: "wrong action for game", method: http.MethodPost, path: "/v1/sessions/" + view.ID + "/actions", body: `{"kind":"advance"}`, status: http.StatusUnprocessableEntity},
		{name: "unknown session", method: http.MethodGet, path: "/v1/sessions/nope", status: http.StatusNotFound},
		{name: "unknown session action", method: http.MethodPost, path: "/v1/sessions/nope/actions", body: `{"kind":"finish"}`, status: http.StatusNotFound},
		{name: "unknown game", method: http.MethodPost, path: "/v1/sessions", body: `{"game":"lottery"}`, status: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, path: "/v1/sessions", body: `{"game":`, status: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/v1/sessions/" + view.ID + "/actions", body: `{"kind":"finish","cheat":true}`, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestPacedAction(t *testing.T) {
	h := newHarness(t, config.APIConfig{PaceDelay: 40 * time.Millisecond}, nil)
	view := h.startSession("budget")
	rec := h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"toggle","index":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"finish","paced":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.True(t, decode[viewBody](t, rec).Busy)

	rec = h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"toggle","index":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Eventually(t, func() bool {
		var v viewBody
		rec := h.do(http.MethodGet, "/v1/sessions/"+view.ID, "")
		return json.Unmarshal(rec.Body.Bytes(), &v) == nil && v.Done
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return h.tracker.Snapshot().TotalPoints == 50 }, time.Second, 5*time.Millisecond)
}

func TestPacedActionRejectedUpFront(t *testing.T) {
	h := newHarness(t, config.APIConfig{PaceDelay: time.Hour}, nil)
	view := h.startSession("budget")

	rec := h.do(http.MethodPost, "/v1/sessions/"+view.ID+"/actions", `{"kind":"finish","paced":true}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/v1/sessions/"+view.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[viewBody](t, rec).Busy)
}

func TestDiscardSession(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	view := h.startSession("mortgage")

	rec := h.do(http.MethodDelete, "/v1/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, "/v1/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodDelete, "/v1/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, h.tracker.Snapshot().TotalPoints)
}

func TestAdvisor(t *testing.T) {
	h := newHarness(t, config.APIConfig{}, nil)
	rec := h.do(http.MethodPost, "/v1/advisor", `{"prompt":"how do I budget?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Pay yourself first."}`, rec.Body.String())
}

func TestAuthGatesRoutes(t *testing.T) {
	tabby := auth.Identity{Authenticated: true, DisplayName: "Tabby Cat", UserID: "u1"}
	h := newHarness(t, config.APIConfig{}, tokenVerifier{"good": tabby})

	rec := h.do(http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodGet, "/v1/games", "", "Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/v1/me", "", "Authorization", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tabby, decode[auth.Identity](t, rec))

	rec = h.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health stays open")
}
