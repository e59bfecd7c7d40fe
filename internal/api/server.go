package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"catnipgarden/internal/auth"
	"catnipgarden/internal/config"
	"catnipgarden/internal/game"
	"catnipgarden/internal/play"
	"catnipgarden/internal/progress"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Advisor answers free-form questions.
type Advisor interface {
	Reply(ctx context.Context, prompt string) string
}

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	verifier auth.Verifier
	tracker  *progress.Tracker
	sessions *play.Registry
	advisor  Advisor
	mux      *chi.Mux
}

// New wires the routes. A nil verifier leaves every route open to guests.
func New(cfg config.APIConfig, logger *slog.Logger, verifier auth.Verifier, tracker *progress.Tracker, sessions *play.Registry, adv Advisor) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		verifier: verifier,
		tracker:  tracker,
		sessions: sessions,
		advisor:  adv,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, writeDomainError))
		r.Get("/me", s.handleMe)
		r.Get("/games", s.handleGames)
		r.Get("/progress", s.handleProgress)

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{id}", s.handleSession)
		r.Post("/sessions/{id}/actions", s.handleAction)
		r.Delete("/sessions/{id}", s.handleDiscard)

		r.Post("/advisor", s.handleAdvisor)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
}

// GameCard is a catalog entry with the player's standing in it.
type GameCard struct {
	game.Info
	Completed int  `json:"completed"`
	Earned    bool `json:"badge_earned"`
}

func (s *Server) handleGames(w http.ResponseWriter, _ *http.Request) {
	snap := s.tracker.Snapshot()
	out := make([]GameCard, 0, len(game.IDs()))
	for _, info := range game.Catalog() {
		out = append(out, GameCard{
			Info:      info,
			Completed: snap.GamesCompleted[info.ID],
			Earned:    snap.HasBadge(info.Badge),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

// SessionView is the wire form of a running game.
type SessionView struct {
	ID       string        `json:"id"`
	Game     game.ID       `json:"game"`
	Stage    game.Stage    `json:"stage"`
	Done     bool          `json:"done"`
	Busy     bool          `json:"busy"`
	Points   int           `json:"points"`
	Progress float64       `json:"progress"`
	Facts    []game.Fact   `json:"facts"`
	Options  []game.Option `json:"options"`
	State    game.Game     `json:"state"`
	Outcome  *game.Outcome `json:"outcome,omitempty"`
}

func viewOf(id string, sess *play.Session) SessionView {
	g := sess.Game()
	v := SessionView{
		ID:       id,
		Game:     g.ID(),
		Stage:    g.Stage(),
		Done:     g.Done(),
		Busy:     sess.Busy(),
		Points:   g.Points(),
		Progress: g.Progress(),
		Facts:    g.Facts(),
		Options:  g.Options(),
		State:    g,
	}
	if out := sess.LastOutcome(); out != (game.Outcome{}) {
		v.Outcome = &out
	}
	if v.Facts == nil {
		v.Facts = []game.Fact{}
	}
	if v.Options == nil {
		v.Options = []game.Option{}
	}
	return v
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Game game.ID `json:"game"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, sess, err := s.sessions.Start(game.ID(strings.ToLower(strings.TrimSpace(string(in.Game)))))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.log.Info("session started", "session_id", id, "game", sess.Game().ID(), "user", auth.FromContext(r.Context()).UserID)
	writeJSON(w, http.StatusCreated, viewOf(id, sess))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in struct {
		game.Action
		Paced bool `json:"paced"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if in.Paced && s.cfg.PaceDelay > 0 {
		err := sess.ActAfter(s.cfg.PaceDelay, in.Action, func(out game.Outcome, err error) {
			if err != nil {
				s.log.Warn("paced action rejected", "session_id", id, "kind", in.Kind, "error", err)
				return
			}
			if out.Completed {
				s.log.Info("session completed", "session_id", id, "points", out.Points)
			}
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, viewOf(id, sess))
		return
	}

	out, err := sess.Act(in.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if out.Completed {
		s.log.Info("session completed", "session_id", id, "points", out.Points)
	}
	v := viewOf(id, sess)
	v.Outcome = &out
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Discard(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": s.advisor.Reply(r.Context(), in.Prompt)})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidMove):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrSessionComplete), errors.Is(err, play.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, play.ErrUnknownSession), errors.Is(err, play.ErrDiscarded):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrUnknownGame):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
