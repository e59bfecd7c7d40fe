package game

import (
	"fmt"

	"catnipgarden/internal/scenario"
)

const (
	StageIntro    Stage = "intro"
	StageChoosing Stage = "choosing"
	StageResult   Stage = "result"
)

type LoanOffer struct {
	Title          string `json:"title"`
	Price          int    `json:"price"`
	DownPayment    int    `json:"down_payment"`
	MonthlyPayment int    `json:"monthly_payment"`
	Years          int    `json:"years"`
	TotalPaid      int    `json:"total_paid"`
	Description    string `json:"description"`
}

// PersonaTemplate bands are inclusive and drawn in $50 steps.
type PersonaTemplate struct {
	Name       string
	MinIncome  int
	MaxIncome  int
	MinExpense int
	MaxExpense int
}

type Persona struct {
	Name     string `json:"name"`
	Income   int    `json:"income"`
	Expenses int    `json:"expenses"`
}

// AffordTier scores a leftover strictly under Below. Tiers are checked in
// ascending order.
type AffordTier struct {
	Below   int
	Points  int
	Verdict string
}

type MortgageConfig struct {
	Offers     []LoanOffer
	Personas   []PersonaTemplate
	Tiers      []AffordTier
	// TopPoints applies when leftover clears every tier.
	TopPoints  int
	TopVerdict string
}

func DefaultMortgageConfig() MortgageConfig {
	return MortgageConfig{
		Offers: []LoanOffer{
			{Title: "The Cozy Cat House", Price: 200000, DownPayment: 40000, MonthlyPayment: 950, Years: 30, TotalPaid: 342000, Description: "20% down, standard 30-year loan"},
			{Title: "The Quick Cat Den", Price: 200000, DownPayment: 40000, MonthlyPayment: 1600, Years: 15, TotalPaid: 288000, Description: "20% down, faster 15-year loan"},
			{Title: "The Small Down Cat Cottage", Price: 200000, DownPayment: 10000, MonthlyPayment: 1100, Years: 30, TotalPaid: 396000, Description: "5% down, 30-year loan + PMI"},
		},
		Personas: []PersonaTemplate{
			{Name: "Whiskers the Teacher", MinIncome: 3200, MaxIncome: 3800, MinExpense: 1500, MaxExpense: 2000},
			{Name: "Mittens the Nurse", MinIncome: 4000, MaxIncome: 4800, MinExpense: 1800, MaxExpense: 2400},
			{Name: "Tom the Barista", MinIncome: 2400, MaxIncome: 2900, MinExpense: 1300, MaxExpense: 1700},
			{Name: "Luna the Engineer", MinIncome: 5200, MaxIncome: 6200, MinExpense: 2200, MaxExpense: 3000},
		},
		Tiers: []AffordTier{
			{Below: 0, Points: 25, Verdict: "cannot afford"},
			{Below: 200, Points: 50, Verdict: "stretched"},
			{Below: 500, Points: 75, Verdict: "manageable"},
		},
		TopPoints:  100,
		TopVerdict: "comfortable",
	}
}

type MortgageState struct {
	cfg         MortgageConfig
	Phase       Stage       `json:"stage"`
	Persona     Persona     `json:"persona"`
	Offers      []LoanOffer `json:"offers"`
	Selected    int         `json:"selected"`
	Leftover    int         `json:"leftover"`
	Verdict     string      `json:"verdict,omitempty"`
	FinalPoints int         `json:"points"`
}

func NewMortgage(src scenario.Source, cfg MortgageConfig) (MortgageState, error) {
	if len(cfg.Offers) == 0 || len(cfg.Personas) == 0 {
		return MortgageState{}, fmt.Errorf("mortgage: need offers and personas: %w", scenario.ErrPoolTooSmall)
	}
	t := scenario.Pick(src, cfg.Personas)
	return MortgageState{
		cfg:   cfg,
		Phase: StageIntro,
		Persona: Persona{
			Name:     t.Name,
			Income:   scenario.Step(src, t.MinIncome, t.MaxIncome, 50),
			Expenses: scenario.Step(src, t.MinExpense, t.MaxExpense, 50),
		},
		Offers:   append([]LoanOffer(nil), cfg.Offers...),
		Selected: -1,
	}, nil
}

// WithPersona replaces the drawn persona before play starts.
func (s MortgageState) WithPersona(p Persona) MortgageState {
	s.Persona = p
	return s
}

func (s MortgageState) ID() ID       { return Mortgage }
func (s MortgageState) Stage() Stage { return s.Phase }
func (s MortgageState) Done() bool   { return s.Phase == StageResult }
func (s MortgageState) Points() int  { return s.FinalPoints }

func (s MortgageState) Progress() float64 {
	switch s.Phase {
	case StageChoosing:
		return 0.5
	case StageResult:
		return 1
	}
	return 0
}

// LeftoverFor is what the persona keeps each month under offer i.
func (s MortgageState) LeftoverFor(i int) int {
	return s.Persona.Income - s.Persona.Expenses - s.Offers[i].MonthlyPayment
}

func (s MortgageState) tier(leftover int) (int, string) {
	for _, t := range s.cfg.Tiers {
		if leftover < t.Below {
			return t.Points, t.Verdict
		}
	}
	return s.cfg.TopPoints, s.cfg.TopVerdict
}

func (s MortgageState) Facts() []Fact {
	facts := []Fact{
		{Label: "Buyer", Value: s.Persona.Name},
		{Label: "Monthly income", Value: Money(s.Persona.Income)},
		{Label: "Monthly expenses", Value: Money(s.Persona.Expenses)},
	}
	if s.Selected >= 0 {
		facts = append(facts,
			Fact{Label: "Selected", Value: s.Offers[s.Selected].Title},
			Fact{Label: "Left each month", Value: Money(s.LeftoverFor(s.Selected))},
		)
	}
	if s.Done() {
		facts = append(facts, Fact{Label: "Verdict", Value: s.Verdict})
	}
	return facts
}

func (s MortgageState) Options() []Option {
	switch s.Phase {
	case StageIntro:
		return []Option{{Label: "Start house hunting", Action: Action{Kind: ActStart}, Enabled: true}}
	case StageChoosing:
		out := make([]Option, 0, len(s.Offers)+1)
		for i, o := range s.Offers {
			out = append(out, Option{
				Label:   o.Title,
				Detail:  fmt.Sprintf("%s down, %s/month for %d years", Money(o.DownPayment), Money(o.MonthlyPayment), o.Years),
				Action:  Action{Kind: ActSelectOffer, Index: i},
				Enabled: true,
			})
		}
		return append(out, Option{Label: "Confirm choice", Action: Action{Kind: ActConfirm}, Enabled: s.Selected >= 0})
	}
	return nil
}

func (s MortgageState) apply(_ scenario.Source, a Action) (Game, Outcome, error) {
	switch {
	case s.Phase == StageIntro && a.Kind == ActStart:
		next := s
		next.Phase = StageChoosing
		return next, Outcome{Message: fmt.Sprintf("%s is ready to buy a %s home.", s.Persona.Name, Money(s.Offers[0].Price))}, nil
	case s.Phase == StageChoosing && a.Kind == ActSelectOffer:
		if a.Index < 0 || a.Index >= len(s.Offers) {
			return s, Outcome{}, invalid("offer %d not available", a.Index)
		}
		next := s
		next.Selected = a.Index
		return next, Outcome{Message: s.Offers[a.Index].Title + " selected."}, nil
	case s.Phase == StageChoosing && a.Kind == ActConfirm:
		if s.Selected < 0 {
			return s, Outcome{}, invalid("select an offer before confirming")
		}
		next := s
		next.Phase = StageResult
		next.Leftover = s.LeftoverFor(s.Selected)
		next.FinalPoints, next.Verdict = s.tier(next.Leftover)
		msg := fmt.Sprintf("With %s left each month, this home is %s.", Money(next.Leftover), next.Verdict)
		if next.Leftover < 0 {
			msg = fmt.Sprintf("%s cannot afford this home: the budget is short %s every month.", s.Persona.Name, Money(-next.Leftover))
		}
		return next, Outcome{Message: msg, Delta: next.Leftover}, nil
	}
	return s, Outcome{}, wrongAction(a, s.Phase)
}
