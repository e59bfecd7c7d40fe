package game

import (
	"encoding/json"
	"testing"

	"catnipgarden/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opposite(kind string) string {
	if kind == Want {
		return Need
	}
	return Want
}

func TestWantNeedScoring(t *testing.T) {
	tests := []struct {
		name  string
		wrong int
		want  int
	}{
		{name: "perfect", wrong: 0, want: 100},
		{name: "three misses", wrong: 3, want: 70},
		{name: "all wrong", wrong: 10, want: 0},
	}
	for _, tc := range tests {
		src := scenario.NewSeeded(8)
		s, err := NewWantNeed(src, DefaultWantNeedConfig())
		require.NoError(t, err)
		require.Len(t, s.Items, 10)

		var g Game = s
		var out Outcome
		for i, it := range s.Items {
			choice := it.Kind
			if i < tc.wrong {
				choice = opposite(it.Kind)
			}
			g, out = step(t, g, src, Action{Kind: ActClassify, Index: i, Choice: choice})
			require.NotNil(t, out.Correct)
			assert.Equal(t, i >= tc.wrong, *out.Correct)
		}
		require.True(t, out.Completed)
		if out.Points != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.name, out.Points, tc.want)
		}
	}
}

func TestWantNeedItemsAreDistinct(t *testing.T) {
	s, err := NewWantNeed(scenario.NewSeeded(21), DefaultWantNeedConfig())
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, it := range s.Items {
		assert.False(t, seen[it.Name], "duplicate %s", it.Name)
		seen[it.Name] = true
	}
}

func TestWantNeedRejectsResolvedItem(t *testing.T) {
	src := scenario.NewSeeded(8)
	s, err := NewWantNeed(src, DefaultWantNeedConfig())
	require.NoError(t, err)
	g, _ := step(t, s, src, Action{Kind: ActClassify, Index: 0, Choice: Need})

	for _, a := range []Action{
		{Kind: ActClassify, Index: 0, Choice: Want},
		{Kind: ActClassify, Index: 5, Choice: Want},
		{Kind: ActClassify, Index: 1, Choice: "maybe"},
	} {
		next, _, err := Transition(g, src, a)
		assert.ErrorIs(t, err, ErrInvalidMove, "%+v", a)
		assert.Equal(t, g, next)
	}
}

func TestWantNeedPoolTooSmall(t *testing.T) {
	cfg := DefaultWantNeedConfig()
	cfg.Rounds = len(cfg.Pool) + 1
	_, err := NewWantNeed(scenario.NewSeeded(1), cfg)
	assert.ErrorIs(t, err, scenario.ErrPoolTooSmall)
}

func priceIndex(s MoneyMatchState, cost int) int {
	for p, v := range s.Prices {
		if v == cost {
			return p
		}
	}
	return -1
}

func TestMoneyMatchScoring(t *testing.T) {
	tests := []struct {
		name   string
		misses int
		want   int
	}{
		{name: "perfect", misses: 0, want: 100},
		{name: "three misses", misses: 3, want: 85},
		{name: "floor", misses: 20, want: 60},
	}
	for _, tc := range tests {
		src := scenario.NewSeeded(5)
		s, err := NewMoneyMatch(src, DefaultMoneyMatchConfig())
		require.NoError(t, err)
		require.Len(t, s.Items, 6)

		var g Game = s
		var out Outcome
		for m := 0; m < tc.misses; m++ {
			// items[0] against items[1]'s price is always wrong while both are unmatched
			g, _ = step(t, g, src, Action{Kind: ActPickItem, Index: 0})
			g, out = step(t, g, src, Action{Kind: ActPickPrice, Index: priceIndex(s, s.Items[1].Cost)})
			require.False(t, *out.Correct)
		}
		for i, it := range s.Items {
			g, _ = step(t, g, src, Action{Kind: ActPickItem, Index: i})
			g, out = step(t, g, src, Action{Kind: ActPickPrice, Index: priceIndex(s, it.Cost)})
			require.True(t, *out.Correct)
		}
		require.True(t, out.Completed)
		cur := g.(MoneyMatchState)
		assert.Equal(t, 6+tc.misses, cur.Attempts)
		assert.Equal(t, 60, cur.Score)
		if out.Points != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.name, out.Points, tc.want)
		}
	}
}

func TestMoneyMatchJSONHidesPrices(t *testing.T) {
	s, err := NewMoneyMatch(scenario.NewSeeded(9), DefaultMoneyMatchConfig())
	require.NoError(t, err)
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var wire struct {
		Items  []map[string]any `json:"items"`
		Prices []int            `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	require.Len(t, wire.Items, len(s.Items))
	for _, it := range wire.Items {
		assert.NotContains(t, it, "cost")
		assert.NotEmpty(t, it["name"])
	}
	assert.ElementsMatch(t, wire.Prices, s.Prices)
}

func TestMoneyMatchInvalidMoves(t *testing.T) {
	src := scenario.NewSeeded(5)
	s, err := NewMoneyMatch(src, DefaultMoneyMatchConfig())
	require.NoError(t, err)

	next, _, err := Transition(s, src, Action{Kind: ActPickPrice, Index: 0})
	assert.ErrorIs(t, err, ErrInvalidMove, "price before item")
	assert.Equal(t, Game(s), next)

	g, _ := step(t, s, src, Action{Kind: ActPickItem, Index: 2})
	g, _ = step(t, g, src, Action{Kind: ActPickPrice, Index: priceIndex(s, s.Items[2].Cost)})

	next, _, err = Transition(g, src, Action{Kind: ActPickItem, Index: 2})
	assert.ErrorIs(t, err, ErrInvalidMove, "matched item")
	assert.Equal(t, g, next)

	g, _ = step(t, g, src, Action{Kind: ActPickItem, Index: 3})
	next, _, err = Transition(g, src, Action{Kind: ActPickPrice, Index: priceIndex(s, s.Items[2].Cost)})
	assert.ErrorIs(t, err, ErrInvalidMove, "matched price")
	assert.Equal(t, g, next)
}

func TestMoneyMatchRequiresDistinctPrices(t *testing.T) {
	cfg := DefaultMoneyMatchConfig()
	cfg.Pool = append(cfg.Pool, PricedItem{Name: "Second Pencil", Cost: 1})
	_, err := NewMoneyMatch(scenario.NewSeeded(1), cfg)
	assert.Error(t, err)

	cfg = DefaultMoneyMatchConfig()
	cfg.Pairs = 11
	_, err = NewMoneyMatch(scenario.NewSeeded(1), cfg)
	assert.ErrorIs(t, err, scenario.ErrPoolTooSmall)
}

func TestMortgageTiers(t *testing.T) {
	tests := []struct {
		name     string
		income   int
		expenses int
		offer    int
		points   int
		verdict  string
	}{
		{name: "short every month", income: 2000, expenses: 1500, offer: 0, points: 25, verdict: "cannot afford"},
		{name: "fifteen year too steep", income: 3000, expenses: 1500, offer: 1, points: 25, verdict: "cannot afford"},
		{name: "zero left", income: 2450, expenses: 1500, offer: 0, points: 50, verdict: "stretched"},
		{name: "stretched", income: 2700, expenses: 1600, offer: 0, points: 50, verdict: "stretched"},
		{name: "manageable", income: 3000, expenses: 1500, offer: 2, points: 75, verdict: "manageable"},
		{name: "comfortable", income: 3000, expenses: 1500, offer: 0, points: 100, verdict: "comfortable"},
		{name: "exactly five hundred", income: 3000, expenses: 1550, offer: 0, points: 100, verdict: "comfortable"},
	}
	for _, tc := range tests {
		src := scenario.NewSeeded(1)
		s, err := NewMortgage(src, DefaultMortgageConfig())
		require.NoError(t, err)
		s = s.WithPersona(Persona{Name: "Test Cat", Income: tc.income, Expenses: tc.expenses})

		g, _ := step(t, s, src, Action{Kind: ActStart})
		g, _ = step(t, g, src, Action{Kind: ActSelectOffer, Index: (tc.offer + 1) % 3})
		g, _ = step(t, g, src, Action{Kind: ActSelectOffer, Index: tc.offer})
		g, out := step(t, g, src, Action{Kind: ActConfirm})

		require.True(t, out.Completed, tc.name)
		cur := g.(MortgageState)
		if out.Points != tc.points || cur.Verdict != tc.verdict {
			t.Fatalf("%s: got %d %q want %d %q", tc.name, out.Points, cur.Verdict, tc.points, tc.verdict)
		}
		if tc.verdict == "cannot afford" {
			assert.Contains(t, out.Message, "cannot afford")
		}
	}
}

func TestMortgageInvalidMoves(t *testing.T) {
	src := scenario.NewSeeded(1)
	s, err := NewMortgage(src, DefaultMortgageConfig())
	require.NoError(t, err)

	next, _, err := Transition(s, src, Action{Kind: ActSelectOffer, Index: 0})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, Game(s), next)

	choosing, _ := step(t, s, src, Action{Kind: ActStart})
	next, _, err = Transition(choosing, src, Action{Kind: ActConfirm})
	assert.ErrorIs(t, err, ErrInvalidMove, "confirm without selection")
	assert.Equal(t, choosing, next)

	next, _, err = Transition(choosing, src, Action{Kind: ActSelectOffer, Index: 3})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, choosing, next)
}

func TestMortgagePersonaBands(t *testing.T) {
	cfg := DefaultMortgageConfig()
	for seed := uint64(0); seed < 50; seed++ {
		s, err := NewMortgage(scenario.NewSeeded(seed), cfg)
		require.NoError(t, err)
		var tmpl PersonaTemplate
		for _, p := range cfg.Personas {
			if p.Name == s.Persona.Name {
				tmpl = p
			}
		}
		require.NotEmpty(t, tmpl.Name)
		assert.GreaterOrEqual(t, s.Persona.Income, tmpl.MinIncome)
		assert.LessOrEqual(t, s.Persona.Income, tmpl.MaxIncome)
		assert.GreaterOrEqual(t, s.Persona.Expenses, tmpl.MinExpense)
		assert.LessOrEqual(t, s.Persona.Expenses, tmpl.MaxExpense)
		assert.Zero(t, s.Persona.Income%50)
	}
}
