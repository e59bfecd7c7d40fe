package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"catnipgarden/internal/game"
	"catnipgarden/internal/scenario"

	"github.com/google/uuid"
)

var ErrUnknownSession = errors.New("session not found")

// CompleteFunc receives a finished game's score.
type CompleteFunc func(id game.ID, points int)

// Registry keeps live sessions keyed by a random id.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	now       func() time.Time
	newSource func() scenario.Source
	complete  CompleteFunc
	logger    *slog.Logger
}

type RegistryOption func(*Registry)

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithSources overrides the per-session randomness, mainly for tests.
func WithSources(newSource func() scenario.Source) RegistryOption {
	return func(r *Registry) { r.newSource = newSource }
}

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns an empty registry. Sessions idle for longer than ttl
// are dropped by Sweep; ttl <= 0 keeps them forever.
func NewRegistry(ttl time.Duration, complete CompleteFunc, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:  map[string]*Session{},
		ttl:       ttl,
		now:       time.Now,
		newSource: scenario.NewSource,
		complete:  complete,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates a session for game id and returns its key.
func (r *Registry) Start(id game.ID) (string, *Session, error) {
	var onComplete func(int)
	if r.complete != nil {
		onComplete = func(points int) { r.complete(id, points) }
	}
	s, err := NewSession(id, r.newSource(), onComplete, WithClock(r.now))
	if err != nil {
		return "", nil, err
	}
	key := uuid.NewString()

	r.mu.Lock()
	r.sessions[key] = s
	r.mu.Unlock()
	r.logger.Debug("session started", "session_id", key, "game", id)
	return key, s, nil
}

func (r *Registry) Get(key string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownSession)
	}
	return s, nil
}

// Discard abandons a session without crediting anything.
func (r *Registry) Discard(key string) error {
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%q: %w", key, ErrUnknownSession)
	}
	s.Discard()
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep discards sessions idle since before now-ttl and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)
	var stale []*Session

	r.mu.Lock()
	for key, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Discard()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	r.logger.Info("session sweeper started", "every", every.String(), "ttl", r.ttl.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Info("idle sessions discarded", "count", n, "remaining", r.Len())
			}
		}
	}
}
