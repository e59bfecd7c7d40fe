package game

import (
	"fmt"

	"catnipgarden/internal/scenario"
)

type MoneyMatchConfig struct {
	Pool        []PricedItem
	Pairs       int
	PointsEach  int
	// MinPoints is the score floor however many misses there were.
	MinPoints   int
	MissPenalty int
}

func DefaultMoneyMatchConfig() MoneyMatchConfig {
	return MoneyMatchConfig{
		Pool: []PricedItem{
			{Name: "Pencil", Category: "School", Cost: 1},
			{Name: "Notebook", Category: "School", Cost: 3},
			{Name: "Backpack", Category: "School", Cost: 25},
			{Name: "Calculator", Category: "School", Cost: 15},
			{Name: "Lunch Box", Category: "Food", Cost: 10},
			{Name: "Water Bottle", Category: "Food", Cost: 8},
			{Name: "Cat Toy Mouse", Category: "Toys", Cost: 4},
			{Name: "Scratching Post", Category: "Home", Cost: 30},
			{Name: "Bag of Treats", Category: "Food", Cost: 6},
			{Name: "Cozy Cat Bed", Category: "Home", Cost: 40},
		},
		Pairs:       6,
		PointsEach:  10,
		MinPoints:   60,
		MissPenalty: 5,
	}
}

// MatchItem is a card on the board. Its price is the answer, so it is left
// out of the JSON form.
type MatchItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Cost     int    `json:"-"`
}

type MoneyMatchState struct {
	cfg         MoneyMatchConfig
	Phase       Stage        `json:"stage"`
	Items       []MatchItem `json:"items"`
	Prices      []int       `json:"prices"`
	Matched     []bool      `json:"matched"`
	Pending     int         `json:"pending"`
	Attempts    int         `json:"attempts"`
	Score       int         `json:"score"`
	FinalPoints int         `json:"points"`
}

func NewMoneyMatch(src scenario.Source, cfg MoneyMatchConfig) (MoneyMatchState, error) {
	seen := make(map[int]string, len(cfg.Pool))
	for _, it := range cfg.Pool {
		if other, dup := seen[it.Cost]; dup {
			return MoneyMatchState{}, fmt.Errorf("money match: %s and %s share price %d", other, it.Name, it.Cost)
		}
		seen[it.Cost] = it.Name
	}
	if cfg.Pairs <= 0 {
		return MoneyMatchState{}, fmt.Errorf("money match: no pairs: %w", scenario.ErrPoolTooSmall)
	}
	items, err := scenario.Sample(src, cfg.Pool, cfg.Pairs)
	if err != nil {
		return MoneyMatchState{}, fmt.Errorf("money match items: %w", err)
	}
	cards := make([]MatchItem, len(items))
	prices := make([]int, len(items))
	for i, it := range items {
		cards[i] = MatchItem{Name: it.Name, Category: it.Category, Cost: it.Cost}
		prices[i] = it.Cost
	}
	return MoneyMatchState{
		cfg:     cfg,
		Phase:   StagePlaying,
		Items:   cards,
		Prices:  scenario.Shuffle(src, prices),
		Matched: make([]bool, len(items)),
		Pending: -1,
	}, nil
}

func (s MoneyMatchState) ID() ID       { return MoneyMatch }
func (s MoneyMatchState) Stage() Stage { return s.Phase }
func (s MoneyMatchState) Done() bool   { return s.Phase == StageComplete }
func (s MoneyMatchState) Points() int  { return s.FinalPoints }

func (s MoneyMatchState) matchedCount() int {
	n := 0
	for _, m := range s.Matched {
		if m {
			n++
		}
	}
	return n
}

func (s MoneyMatchState) Progress() float64 {
	return float64(s.matchedCount()) / float64(len(s.Items))
}

func (s MoneyMatchState) Facts() []Fact {
	facts := []Fact{
		{Label: "Matched", Value: fmt.Sprintf("%d of %d", s.matchedCount(), len(s.Items))},
		{Label: "Attempts", Value: fmt.Sprint(s.Attempts)},
		{Label: "Score", Value: fmt.Sprintf("%d points", s.Score)},
	}
	if s.Pending >= 0 {
		facts = append(facts, Fact{Label: "Selected", Value: s.Items[s.Pending].Name})
	}
	return facts
}

// priceTaken reports whether the price at index p belongs to a matched item.
func (s MoneyMatchState) priceTaken(p int) bool {
	for i, it := range s.Items {
		if s.Matched[i] && it.Cost == s.Prices[p] {
			return true
		}
	}
	return false
}

func (s MoneyMatchState) Options() []Option {
	if s.Done() {
		return nil
	}
	if s.Pending < 0 {
		out := make([]Option, len(s.Items))
		for i, it := range s.Items {
			out[i] = Option{
				Label:   it.Name,
				Action:  Action{Kind: ActPickItem, Index: i},
				Enabled: !s.Matched[i],
			}
		}
		return out
	}
	out := make([]Option, len(s.Prices))
	for p, price := range s.Prices {
		out[p] = Option{
			Label:   Money(price),
			Action:  Action{Kind: ActPickPrice, Index: p},
			Enabled: !s.priceTaken(p),
		}
	}
	return out
}

func (s MoneyMatchState) apply(_ scenario.Source, a Action) (Game, Outcome, error) {
	switch {
	case a.Kind == ActPickItem:
		if a.Index < 0 || a.Index >= len(s.Items) {
			return s, Outcome{}, invalid("item %d not on the board", a.Index)
		}
		if s.Matched[a.Index] {
			return s, Outcome{}, invalid("%s already matched", s.Items[a.Index].Name)
		}
		next := s
		next.Pending = a.Index
		return next, Outcome{Message: "How much does " + s.Items[a.Index].Name + " cost?"}, nil
	case a.Kind == ActPickPrice && s.Pending >= 0:
		if a.Index < 0 || a.Index >= len(s.Prices) {
			return s, Outcome{}, invalid("price %d not on the board", a.Index)
		}
		if s.priceTaken(a.Index) {
			return s, Outcome{}, invalid("price %s already matched", Money(s.Prices[a.Index]))
		}
		return s.pair(a.Index), s.pairOutcome(a.Index), nil
	case a.Kind == ActPickPrice:
		return s, Outcome{}, invalid("pick an item before a price")
	}
	return s, Outcome{}, wrongAction(a, s.Phase)
}

func (s MoneyMatchState) pair(p int) MoneyMatchState {
	next := s
	next.Attempts++
	next.Pending = -1
	if s.Items[s.Pending].Cost != s.Prices[p] {
		return next
	}
	next.Matched = append([]bool(nil), s.Matched...)
	next.Matched[s.Pending] = true
	next.Score += s.cfg.PointsEach
	if next.matchedCount() == len(next.Items) {
		next.Phase = StageComplete
		next.FinalPoints = max(s.cfg.MinPoints, 100-s.cfg.MissPenalty*(next.Attempts-len(next.Items)))
	}
	return next
}

func (s MoneyMatchState) pairOutcome(p int) Outcome {
	item := s.Items[s.Pending]
	if item.Cost == s.Prices[p] {
		return Outcome{Correct: boolPtr(true), Delta: s.cfg.PointsEach, Message: fmt.Sprintf("Purrfect! %s costs %s.", item.Name, Money(item.Cost))}
	}
	return Outcome{Correct: boolPtr(false), Message: fmt.Sprintf("Not quite, %s is not %s.", item.Name, Money(s.Prices[p]))}
}
