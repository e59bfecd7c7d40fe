package game

import (
	"fmt"
	"math"

	"catnipgarden/internal/scenario"
)

type PricedItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Cost     int    `json:"cost"`
}

type BudgetConfig struct {
	Budget     int
	Items      []PricedItem
	// Full score when spending lands in [TargetLow, TargetHigh] percent of Budget.
	TargetLow  float64
	TargetHigh float64
}

func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		Budget: 50,
		Items: []PricedItem{
			{Name: "Movie Ticket", Category: "Entertainment", Cost: 12},
			{Name: "Lunch", Category: "Food", Cost: 8},
			{Name: "Book", Category: "Education", Cost: 15},
			{Name: "Video Game", Category: "Entertainment", Cost: 25},
			{Name: "Snacks", Category: "Food", Cost: 5},
			{Name: "Art Supplies", Category: "Hobbies", Cost: 18},
			{Name: "Ice Cream", Category: "Food", Cost: 6},
			{Name: "Soccer Ball", Category: "Sports", Cost: 20},
		},
		TargetLow:  70,
		TargetHigh: 100,
	}
}

type BudgetState struct {
	cfg         BudgetConfig
	Phase       Stage        `json:"stage"`
	Budget      int          `json:"budget"`
	Spent       int          `json:"spent"`
	Items       []PricedItem `json:"items"`
	Cart        []bool       `json:"cart"`
	FinalPoints int          `json:"points"`
}

func NewBudget(cfg BudgetConfig) (BudgetState, error) {
	if cfg.Budget <= 0 || len(cfg.Items) == 0 {
		return BudgetState{}, fmt.Errorf("budget: need a positive budget and items: %w", scenario.ErrPoolTooSmall)
	}
	return BudgetState{
		cfg:    cfg,
		Phase:  StagePlaying,
		Budget: cfg.Budget,
		Items:  append([]PricedItem(nil), cfg.Items...),
		Cart:   make([]bool, len(cfg.Items)),
	}, nil
}

func (s BudgetState) ID() ID       { return Budget }
func (s BudgetState) Stage() Stage { return s.Phase }
func (s BudgetState) Done() bool   { return s.Phase == StageComplete }
func (s BudgetState) Points() int  { return s.FinalPoints }

func (s BudgetState) Progress() float64 { return float64(s.Spent) / float64(s.Budget) }

func (s BudgetState) Remaining() int { return s.Budget - s.Spent }

// UsedPercent is the share of the budget spent, 0..100.
func (s BudgetState) UsedPercent() float64 { return float64(s.Spent) / float64(s.Budget) * 100 }

func (s BudgetState) Facts() []Fact {
	var picked []string
	for i, in := range s.Cart {
		if in {
			picked = append(picked, s.Items[i].Name)
		}
	}
	facts := []Fact{
		{Label: "Budget", Value: Money(s.Budget)},
		{Label: "Spent", Value: Money(s.Spent)},
		{Label: "Remaining", Value: Money(s.Remaining())},
		{Label: "Used", Value: percent(s.UsedPercent())},
	}
	if len(picked) > 0 {
		facts = append(facts, Fact{Label: "Cart", Value: fmt.Sprint(picked)})
	}
	return facts
}

func (s BudgetState) Options() []Option {
	if s.Done() {
		return nil
	}
	out := make([]Option, 0, len(s.Items)+1)
	for i, it := range s.Items {
		label := it.Name
		if s.Cart[i] {
			label = "[x] " + label
		} else {
			label = "[ ] " + label
		}
		out = append(out, Option{
			Label:   label,
			Detail:  fmt.Sprintf("%s, %s", it.Category, Money(it.Cost)),
			Action:  Action{Kind: ActToggle, Index: i},
			Enabled: s.Cart[i] || s.Spent+it.Cost <= s.Budget,
		})
	}
	out = append(out, Option{
		Label:   "Finish shopping",
		Action:  Action{Kind: ActFinish},
		Enabled: s.Spent > 0,
	})
	return out
}

func (s BudgetState) apply(_ scenario.Source, a Action) (Game, Outcome, error) {
	switch a.Kind {
	case ActToggle:
		if a.Index < 0 || a.Index >= len(s.Items) {
			return s, Outcome{}, invalid("item %d not in catalogue", a.Index)
		}
		it := s.Items[a.Index]
		next := s
		next.Cart = append([]bool(nil), s.Cart...)
		if s.Cart[a.Index] {
			next.Cart[a.Index] = false
			next.Spent -= it.Cost
			return next, Outcome{Message: "Removed " + it.Name, Delta: it.Cost}, nil
		}
		if s.Spent+it.Cost > s.Budget {
			return s, Outcome{}, invalid("%s costs %s, only %s left", it.Name, Money(it.Cost), Money(s.Remaining()))
		}
		next.Cart[a.Index] = true
		next.Spent += it.Cost
		return next, Outcome{Message: "Added " + it.Name, Delta: -it.Cost}, nil
	case ActFinish:
		if s.Spent == 0 {
			return s, Outcome{}, invalid("pick at least one item")
		}
		next := s
		next.Phase = StageComplete
		next.FinalPoints = s.score()
		msg := fmt.Sprintf("You used %s of your budget.", percent(s.UsedPercent()))
		if next.FinalPoints == 100 {
			msg = "Great budgeting! You spent wisely and stayed in range."
		}
		return next, Outcome{Message: msg}, nil
	}
	return s, Outcome{}, wrongAction(a, s.Phase)
}

func (s BudgetState) score() int {
	used := s.UsedPercent()
	if used >= s.cfg.TargetLow && used <= s.cfg.TargetHigh {
		return 100
	}
	return int(math.Floor(used))
}
