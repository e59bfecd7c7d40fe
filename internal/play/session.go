// Package play hosts running games. A Session owns one game value plus its
// randomness and reports completion exactly once; a Registry keeps sessions
// addressable by id for the HTTP API.
package play

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"catnipgarden/internal/game"
	"catnipgarden/internal/scenario"
)

var (
	ErrBusy      = errors.New("a paced action is still pending")
	ErrDiscarded = errors.New("session discarded")
)

// Session is safe for concurrent use. OnComplete runs outside the lock.
type Session struct {
	mu         sync.Mutex
	g          game.Game
	src        scenario.Source
	onComplete func(points int)
	now        func() time.Time

	last      game.Outcome
	touched   time.Time
	timer     *time.Timer
	pending   uint64
	discarded bool
	reported  bool
}

type Option func(*Session)

// WithClock sets the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession starts game id. onComplete may be nil.
func NewSession(id game.ID, src scenario.Source, onComplete func(points int), opts ...Option) (*Session, error) {
	if src == nil {
		src = scenario.NewSource()
	}
	g, err := game.New(id, src)
	if err != nil {
		return nil, err
	}
	s := &Session{g: g, src: src, onComplete: onComplete, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.touched = s.now()
	return s, nil
}

// Game returns the current state value.
func (s *Session) Game() game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g
}

// LastOutcome is the effect of the most recent accepted action.
func (s *Session) LastOutcome() game.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) Discarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// Act applies a immediately.
func (s *Session) Act(a game.Action) (game.Outcome, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return game.Outcome{}, err
	}
	out, points, report, err := s.transition(a)
	s.mu.Unlock()
	if report {
		s.onComplete(points)
	}
	return out, err
}

// ActAfter checks a against the current state and applies it once d has
// elapsed. Until then the session is busy.
// done, if set, receives the result on the timer goroutine; it is never
// called for a session discarded before the timer fired.
func (s *Session) ActAfter(d time.Duration, a game.Action, done func(game.Outcome, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if s.g.Done() {
		return game.ErrSessionComplete
	}
	if err := s.check(a); err != nil {
		return err
	}
	s.pending++
	ticket := s.pending
	s.touched = s.now()
	s.timer = time.AfterFunc(d, func() { s.fire(ticket, a, done) })
	return nil
}

func (s *Session) fire(ticket uint64, a game.Action, done func(game.Outcome, error)) {
	s.mu.Lock()
	if s.discarded || ticket != s.pending || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	out, points, report, err := s.transition(a)
	s.mu.Unlock()
	if report {
		s.onComplete(points)
	}
	if done != nil {
		done(out, err)
	}
}

// Discard stops any pending action. The session never reports afterwards.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Check reports whether a would be accepted right now without applying it.
func (s *Session) Check(a game.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.check(a)
}

// check dry-runs a under mu. Rejections never depend on the draws, so a
// throwaway source keeps the session's own sequence untouched.
func (s *Session) check(a game.Action) error {
	if _, _, err := game.Transition(s.g, scenario.NewSeeded(0), a); err != nil {
		return fmt.Errorf("%s: %w", s.g.ID(), err)
	}
	return nil
}

// ready reports why the session cannot take an action right now.
// Callers hold mu.
func (s *Session) ready() error {
	if s.discarded {
		return ErrDiscarded
	}
	if s.timer != nil {
		return ErrBusy
	}
	return nil
}

// transition runs one step under mu and says whether completion must be
// reported once the lock is released.
func (s *Session) transition(a game.Action) (game.Outcome, int, bool, error) {
	next, out, err := game.Transition(s.g, s.src, a)
	if err != nil {
		return game.Outcome{}, 0, false, fmt.Errorf("%s: %w", s.g.ID(), err)
	}
	s.g = next
	s.last = out
	s.touched = s.now()
	if !out.Completed || s.reported {
		return out, 0, false, nil
	}
	s.reported = true
	return out, out.Points, s.onComplete != nil, nil
}

// Paced reports whether interactive play should reveal a's result after a
// short delay rather than at once.
func Paced(a game.Action) bool {
	switch a.Kind {
	case game.ActChoose, game.ActClassify, game.ActPickPrice:
		return true
	}
	return false
}
