package game

import (
	"fmt"
	"math"

	"catnipgarden/internal/scenario"
)

type CashChoice struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}

type SavingsConfig struct {
	Goal     int
	MaxWeeks int
	// Offers is how many choices are shown each week, at least one from Income.
	Offers   int
	Income   []CashChoice
	Spending []CashChoice
}

func DefaultSavingsConfig() SavingsConfig {
	return SavingsConfig{
		Goal:     100,
		MaxWeeks: 10,
		Offers:   4,
		Income: []CashChoice{
			{Label: "Save from allowance", Amount: 5},
			{Label: "Do extra chores", Amount: 10},
			{Label: "Birthday money", Amount: 15},
			{Label: "Lemonade stand", Amount: 20},
			{Label: "Pet sitting", Amount: 8},
			{Label: "Yard work", Amount: 12},
		},
		Spending: []CashChoice{
			{Label: "Buy candy", Amount: -5},
			{Label: "New toy", Amount: -10},
			{Label: "Movie with friends", Amount: -12},
			{Label: "Bubble gum", Amount: -3},
			{Label: "Comic book", Amount: -8},
		},
	}
}

// SavingsState is the piggy bank challenge: reach Goal within MaxWeeks.
type SavingsState struct {
	cfg         SavingsConfig
	Phase       Stage        `json:"stage"`
	Week        int          `json:"week"`
	Balance     int          `json:"savings"`
	Goal        int          `json:"goal"`
	MaxWeeks    int          `json:"max_weeks"`
	Offer       []CashChoice `json:"offer"`
	FinalPoints int          `json:"points"`
}

func NewSavings(src scenario.Source, cfg SavingsConfig) (SavingsState, error) {
	if cfg.Goal <= 0 || cfg.MaxWeeks <= 0 {
		return SavingsState{}, fmt.Errorf("savings: goal and week cap must be positive")
	}
	if len(cfg.Income) == 0 || cfg.Offers < 1 {
		return SavingsState{}, fmt.Errorf("savings: need at least one income choice per week: %w", scenario.ErrPoolTooSmall)
	}
	s := SavingsState{cfg: cfg, Phase: StagePlaying, Week: 1, Goal: cfg.Goal, MaxWeeks: cfg.MaxWeeks}
	offer, err := s.drawOffer(src)
	if err != nil {
		return SavingsState{}, err
	}
	s.Offer = offer
	return s, nil
}

// drawOffer guarantees one non-negative choice so a zero balance never
// strands the player.
func (s SavingsState) drawOffer(src scenario.Source) ([]CashChoice, error) {
	incomeIdx := src.Intn(len(s.cfg.Income))
	rest := make([]CashChoice, 0, len(s.cfg.Income)+len(s.cfg.Spending)-1)
	for i, c := range s.cfg.Income {
		if i != incomeIdx {
			rest = append(rest, c)
		}
	}
	rest = append(rest, s.cfg.Spending...)
	extra, err := scenario.Sample(src, rest, s.cfg.Offers-1)
	if err != nil {
		return nil, fmt.Errorf("savings offer: %w", err)
	}
	return scenario.Shuffle(src, append([]CashChoice{s.cfg.Income[incomeIdx]}, extra...)), nil
}

func (s SavingsState) ID() ID       { return Savings }
func (s SavingsState) Stage() Stage { return s.Phase }
func (s SavingsState) Done() bool   { return s.Phase == StageComplete }
func (s SavingsState) Points() int  { return s.FinalPoints }

func (s SavingsState) Progress() float64 {
	return math.Min(1, float64(s.Balance)/float64(s.Goal))
}

func (s SavingsState) Facts() []Fact {
	return []Fact{
		{Label: "Week", Value: fmt.Sprintf("%d of %d", s.Week, s.MaxWeeks)},
		{Label: "Saved", Value: Money(s.Balance)},
		{Label: "Goal", Value: Money(s.Goal)},
	}
}

func (s SavingsState) Options() []Option {
	if s.Done() {
		return nil
	}
	out := make([]Option, len(s.Offer))
	for i, c := range s.Offer {
		out[i] = Option{
			Label:   c.Label,
			Detail:  SignedMoney(c.Amount),
			Action:  Action{Kind: ActChoose, Index: i},
			Enabled: s.Balance+c.Amount >= 0,
		}
	}
	return out
}

func (s SavingsState) apply(src scenario.Source, a Action) (Game, Outcome, error) {
	if a.Kind != ActChoose {
		return s, Outcome{}, wrongAction(a, s.Phase)
	}
	if a.Index < 0 || a.Index >= len(s.Offer) {
		return s, Outcome{}, invalid("choice %d not offered", a.Index)
	}
	choice := s.Offer[a.Index]
	if s.Balance+choice.Amount < 0 {
		return s, Outcome{}, invalid("%s would overdraw savings", choice.Label)
	}

	next := s
	next.Balance += choice.Amount
	out := Outcome{Delta: choice.Amount}
	if choice.Amount > 0 {
		out.Message = "Great choice! Keep saving!"
	} else {
		out.Message = "Oops! Try to save more next time!"
	}

	switch {
	case next.Balance >= next.Goal:
		next.Phase = StageComplete
		next.FinalPoints = 100
		next.Offer = nil
		out.Message = "You reached your goal! Time to get that bike!"
	case next.Week >= next.MaxWeeks:
		next.Phase = StageComplete
		next.FinalPoints = int(math.Floor(float64(next.Balance) / float64(next.Goal) * 50))
		next.Offer = nil
		out.Message = fmt.Sprintf("You saved %s. Keep practicing to reach your goal!", Money(next.Balance))
	default:
		next.Week++
		offer, err := next.drawOffer(src)
		if err != nil {
			return s, Outcome{}, err
		}
		next.Offer = offer
	}
	return next, out, nil
}
