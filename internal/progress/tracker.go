package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"catnipgarden/internal/game"
)

const DefaultNamespace = "catnip-garden"

// Key is the store key for namespace.
func Key(namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":progress"
}

// Tracker is the application shell's view of progress. It loads once and
// writes the whole record after every change.
type Tracker struct {
	mu     sync.Mutex
	kv     KV
	key    string
	state  UserProgress
	logger *slog.Logger
	now    func() time.Time
}

type TrackerOption func(*Tracker)

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker loads namespace from kv. A missing or corrupt record yields
// defaults; only store failures are returned.
func NewTracker(ctx context.Context, kv KV, namespace string, opts ...TrackerOption) (*Tracker, error) {
	t := &Tracker{
		kv:     kv,
		key:    Key(namespace),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	raw, err := kv.Get(ctx, t.key)
	switch {
	case errors.Is(err, ErrNotFound):
		t.state = Default()
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}
	state, repaired := Decode(raw)
	if repaired {
		t.logger.Warn("progress record repaired with defaults", "key", t.key)
	}
	t.state = state
	return t, nil
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() UserProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Completion describes what one finished play-through changed.
type Completion struct {
	Game     game.ID `json:"game"`
	Points   int     `json:"points"`
	NewBadge string  `json:"new_badge,omitempty"`
	Total    int     `json:"total_points"`
}

// Complete records a finished game. The in-memory record is updated even if
// saving fails; the next successful save carries it. Saves are serialized so
// the store always holds the latest record.
func (t *Tracker) Complete(ctx context.Context, id game.ID, points int) (Completion, error) {
	info, ok := game.Lookup(id)
	if !ok {
		return Completion{}, fmt.Errorf("%q: %w", id, game.ErrUnknownGame)
	}
	points = max(0, points)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.TotalPoints += points
	t.state.GamesCompleted[id]++
	c := Completion{Game: id, Points: points, Total: t.state.TotalPoints}
	if !t.state.HasBadge(info.Badge) {
		t.state.Badges = append(t.state.Badges, info.Badge)
		c.NewBadge = info.Badge
	}
	t.state.History = append(t.state.History, HistoryEntry{
		Date:   t.now().UTC(),
		Points: points,
		Reason: "Completed " + info.Title,
	})
	if len(t.state.History) > MaxHistory {
		t.state.History = append([]HistoryEntry{}, t.state.History[len(t.state.History)-MaxHistory:]...)
	}
	if err := t.save(ctx, t.state); err != nil {
		return c, err
	}
	t.logger.Info("game completed", "game", id, "points", points, "total", c.Total, "badge", c.NewBadge)
	return c, nil
}

// Reset stores a fresh default record.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Default()
	return t.save(ctx, t.state)
}

func (t *Tracker) save(ctx context.Context, p UserProgress) error {
	raw, err := Encode(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := t.kv.Put(ctx, t.key, raw); err != nil {
		t.logger.Error("save progress failed", "key", t.key, "error", err)
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
