package progress

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"catnipgarden/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasEveryGame(t *testing.T) {
	p := Default()
	require.Len(t, p.GamesCompleted, len(game.IDs()))
	for _, id := range game.IDs() {
		assert.Equal(t, 0, p.GamesCompleted[id])
	}
	assert.Empty(t, p.Badges)
	assert.Zero(t, p.TotalPoints)
}

func TestRoundTrip(t *testing.T) {
	p := Default()
	p.TotalPoints = 315
	p.Badges = []string{"Budget Boss", "Super Saver"}
	p.GamesCompleted[game.Budget] = 2
	p.GamesCompleted[game.Savings] = 1
	p.History = []HistoryEntry{
		{Date: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Points: 100, Reason: "Completed Cat Budget Planner"},
	}

	raw, err := Encode(p)
	require.NoError(t, err)
	got, repaired := Decode(raw)
	assert.False(t, repaired)
	assert.Equal(t, p, got)
}

func TestEncodeUsesShellFieldNames(t *testing.T) {
	raw, err := Encode(Default())
	require.NoError(t, err)
	for _, field := range []string{`"totalPoints"`, `"badges"`, `"gamesCompleted"`, `"wantvsneed":0`} {
		assert.Contains(t, string(raw), field)
	}
}

func TestDecodeDefaults(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		points int
		badges []string
		counts map[game.ID]int
	}{
		{
			name:   "only points",
			raw:    `{"totalPoints":40}`,
			points: 40,
		},
		{
			name:   "web shell record without history",
			raw:    `{"totalPoints":100,"badges":["Super Saver"],"gamesCompleted":{"savings":1}}`,
			points: 100,
			badges: []string{"Super Saver"},
			counts: map[game.ID]int{game.Savings: 1},
		},
		{
			name:   "negative counters",
			raw:    `{"totalPoints":-5,"gamesCompleted":{"debt":-2,"budget":3}}`,
			counts: map[game.ID]int{game.Budget: 3},
		},
		{
			name:   "duplicate badges",
			raw:    `{"badges":["Price Pro","Price Pro","","Home Planner"]}`,
			badges: []string{"Price Pro", "Home Planner"},
		},
		{
			name:   "unknown game dropped",
			raw:    `{"gamesCompleted":{"lottery":4,"mortgage":1}}`,
			counts: map[game.ID]int{game.Mortgage: 1},
		},
		{
			name:   "wrong types",
			raw:    `{"totalPoints":"lots","badges":"Budget Boss","gamesCompleted":[1,2]}`,
		},
		{
			name:   "counters too large",
			raw:    `{"totalPoints":1e20,"badges":[],"gamesCompleted":{"savings":1e20,"debt":2}}`,
			counts: map[game.ID]int{game.Debt: 2},
		},
		{
			name:   "fractional counters",
			raw:    `{"totalPoints":2.5,"gamesCompleted":{"budget":1.5,"mortgage":4}}`,
			counts: map[game.ID]int{game.Mortgage: 4},
		},
		{
			name:   "not json",
			raw:    `{{{`,
		},
		{
			name:   "json null",
			raw:    `null`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, repaired := Decode([]byte(tc.raw))
			assert.True(t, repaired)
			assert.Equal(t, tc.points, got.TotalPoints)
			badges := tc.badges
			if badges == nil {
				badges = []string{}
			}
			assert.Equal(t, badges, got.Badges)
			for _, id := range game.IDs() {
				assert.Equal(t, tc.counts[id], got.GamesCompleted[id], "count for %s", id)
			}
			assert.Len(t, got.GamesCompleted, len(game.IDs()))
			assert.NotNil(t, got.History)
		})
	}
}

func TestDecodeCapsHistory(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"history":[`)
	for i := 0; i < 80; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"date":"2026-01-01T00:00:00Z","points":%d}`, i)
	}
	b.WriteString(`]}`)

	got, _ := Decode([]byte(b.String()))
	require.Len(t, got.History, MaxHistory)
	assert.Equal(t, 30, got.History[0].Points, "oldest entries dropped first")
	assert.Equal(t, 79, got.History[MaxHistory-1].Points)
}

func TestCloneIsDeep(t *testing.T) {
	p := Default()
	c := p.Clone()
	c.GamesCompleted[game.Debt] = 5
	c.Badges = append(c.Badges, "Debt Destroyer")
	assert.Equal(t, 0, p.GamesCompleted[game.Debt])
	assert.Empty(t, p.Badges)
}
