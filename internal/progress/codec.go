package progress

import (
	"encoding/json"
	"math"
	"time"

	"catnipgarden/internal/game"
)

const MaxHistory = 50

type HistoryEntry struct {
	Date   time.Time `json:"date"`
	Points int       `json:"points"`
	Reason string    `json:"reason,omitempty"`
}

// UserProgress is the persisted record. Field names match the web shell's
// local storage layout.
type UserProgress struct {
	TotalPoints    int             `json:"totalPoints"`
	Badges         []string        `json:"badges"`
	GamesCompleted map[game.ID]int `json:"gamesCompleted"`
	History        []HistoryEntry  `json:"history"`
}

// Default is the record of a brand new player.
func Default() UserProgress {
	counts := make(map[game.ID]int, len(game.IDs()))
	for _, id := range game.IDs() {
		counts[id] = 0
	}
	return UserProgress{Badges: []string{}, GamesCompleted: counts, History: []HistoryEntry{}}
}

func (p UserProgress) Clone() UserProgress {
	out := UserProgress{
		TotalPoints:    p.TotalPoints,
		Badges:         append([]string{}, p.Badges...),
		GamesCompleted: make(map[game.ID]int, len(p.GamesCompleted)),
		History:        append([]HistoryEntry{}, p.History...),
	}
	for k, v := range p.GamesCompleted {
		out.GamesCompleted[k] = v
	}
	return out
}

func (p UserProgress) HasBadge(badge string) bool {
	for _, b := range p.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// wireProgress decodes each field independently so one malformed field does
// not discard the rest.
type wireProgress struct {
	TotalPoints    json.RawMessage `json:"totalPoints"`
	Badges         json.RawMessage `json:"badges"`
	GamesCompleted json.RawMessage `json:"gamesCompleted"`
	History        json.RawMessage `json:"history"`
}

// Decode turns a stored record into a valid UserProgress. It never fails:
// the bool reports whether anything had to be repaired.
func Decode(raw []byte) (UserProgress, bool) {
	out := Default()
	var w wireProgress
	if err := json.Unmarshal(raw, &w); err != nil {
		return out, true
	}
	repaired := false

	if len(w.TotalPoints) > 0 {
		if n, ok := counter(w.TotalPoints); ok {
			out.TotalPoints = n
		} else {
			repaired = true
		}
	} else {
		repaired = true
	}

	if len(w.Badges) > 0 {
		var badges []string
		if err := json.Unmarshal(w.Badges, &badges); err != nil {
			repaired = true
		}
		seen := map[string]bool{}
		for _, b := range badges {
			if b == "" || seen[b] {
				repaired = true
				continue
			}
			seen[b] = true
			out.Badges = append(out.Badges, b)
		}
	} else {
		repaired = true
	}

	if len(w.GamesCompleted) > 0 {
		counts := map[string]json.RawMessage{}
		if err := json.Unmarshal(w.GamesCompleted, &counts); err != nil {
			repaired = true
		}
		for k, v := range counts {
			id := game.ID(k)
			if _, known := out.GamesCompleted[id]; !known {
				repaired = true
				continue
			}
			n, ok := counter(v)
			if !ok {
				repaired = true
				continue
			}
			out.GamesCompleted[id] = n
		}
		if len(counts) < len(out.GamesCompleted) {
			repaired = true
		}
	} else {
		repaired = true
	}

	if len(w.History) > 0 {
		var entries []json.RawMessage
		if err := json.Unmarshal(w.History, &entries); err != nil {
			repaired = true
		}
		for _, e := range entries {
			var h HistoryEntry
			if err := json.Unmarshal(e, &h); err != nil {
				repaired = true
				continue
			}
			out.History = append(out.History, h)
		}
		if len(out.History) > MaxHistory {
			out.History = out.History[len(out.History)-MaxHistory:]
			repaired = true
		}
	}
	return out, repaired
}

// counter accepts a whole number in [0, MaxInt32].
func counter(raw json.RawMessage) (int, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if n < 0 || n > math.MaxInt32 || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func Encode(p UserProgress) ([]byte, error) {
	return json.Marshal(p)
}
