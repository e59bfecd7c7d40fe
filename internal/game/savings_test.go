package game

import (
	"testing"

	"catnipgarden/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onlyIncome(amount int) SavingsConfig {
	cfg := DefaultSavingsConfig()
	cfg.Income = []CashChoice{{Label: "Steady chores", Amount: amount}}
	cfg.Spending = nil
	cfg.Offers = 1
	return cfg
}

func TestSavingsTenWeeksOfTenReachesGoal(t *testing.T) {
	src := scenario.NewSeeded(9)
	s, err := NewSavings(src, onlyIncome(10))
	require.NoError(t, err)

	var g Game = s
	var out Outcome
	for week := 1; week <= 10; week++ {
		require.False(t, g.Done(), "finished early at week %d", week)
		g, out = step(t, g, src, Action{Kind: ActChoose, Index: 0})
	}
	require.True(t, out.Completed)
	assert.Equal(t, 100, out.Points)
	final := g.(SavingsState)
	assert.Equal(t, 100, final.Balance)
	assert.Equal(t, 10, final.Week)
}

func TestSavingsWeekCapScoresHalfOfProgress(t *testing.T) {
	tests := []struct {
		amount int
		want   int
	}{
		{amount: 5, want: 25},
		{amount: 3, want: 15},
		{amount: 9, want: 45},
	}
	for _, tc := range tests {
		src := scenario.NewSeeded(1)
		s, err := NewSavings(src, onlyIncome(tc.amount))
		require.NoError(t, err)
		var g Game = s
		var out Outcome
		for !g.Done() {
			g, out = step(t, g, src, Action{Kind: ActChoose, Index: 0})
		}
		if out.Points != tc.want {
			t.Fatalf("amount=%d got=%d want=%d", tc.amount, out.Points, tc.want)
		}
		assert.Equal(t, 10, g.(SavingsState).Week)
	}
}

func TestSavingsRejectsOverdraw(t *testing.T) {
	cfg := DefaultSavingsConfig()
	cfg.Income = []CashChoice{{Label: "Allowance", Amount: 5}}
	cfg.Spending = []CashChoice{{Label: "New toy", Amount: -10}}
	cfg.Offers = 2
	s, err := NewSavings(scenario.NewSeeded(4), cfg)
	require.NoError(t, err)

	toy := -1
	for i, o := range s.Options() {
		if o.Label == "New toy" {
			toy = i
			assert.False(t, o.Enabled)
		}
	}
	require.GreaterOrEqual(t, toy, 0)

	next, _, err := Transition(s, scenario.NewSeeded(4), Action{Kind: ActChoose, Index: toy})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, Game(s), next)
}

func TestSavingsOfferAlwaysHasIncome(t *testing.T) {
	s, err := NewSavings(scenario.NewSeeded(3), DefaultSavingsConfig())
	require.NoError(t, err)
	src := scenario.NewSeeded(5)
	var g Game = s
	for !g.Done() {
		cur := g.(SavingsState)
		require.Len(t, cur.Offer, 4)
		labels := map[string]bool{}
		pick := -1
		for i, c := range cur.Offer {
			assert.False(t, labels[c.Label], "duplicate %q", c.Label)
			labels[c.Label] = true
			if c.Amount > 0 && pick < 0 {
				pick = i
			}
		}
		require.GreaterOrEqual(t, pick, 0, "week %d has no income choice", cur.Week)
		g, _ = step(t, g, src, Action{Kind: ActChoose, Index: pick})
	}
}

func TestSavingsConfigErrors(t *testing.T) {
	cfg := DefaultSavingsConfig()
	cfg.Offers = 20
	_, err := NewSavings(scenario.NewSeeded(1), cfg)
	assert.ErrorIs(t, err, scenario.ErrPoolTooSmall)

	cfg = DefaultSavingsConfig()
	cfg.Income = nil
	_, err = NewSavings(scenario.NewSeeded(1), cfg)
	assert.ErrorIs(t, err, scenario.ErrPoolTooSmall)
}
