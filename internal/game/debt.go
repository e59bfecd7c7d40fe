package game

import (
	"fmt"
	"math"

	"catnipgarden/internal/scenario"
)

const (
	StageJobSelection Stage = "jobSelection"

	monthlyInterestRate = 0.0167 // 20% APR
	fixedExpenseShare   = 0.4
	lifeEventChance     = 0.3
)

type JobTemplate struct {
	Title     string
	MinIncome int
	MaxIncome int
}

type Job struct {
	Title         string `json:"title"`
	MonthlyIncome int    `json:"monthly_income"`
}

type LifeEvent struct {
	Text  string `json:"text"`
	Money int    `json:"money"`
}

type DebtConfig struct {
	Jobs        []JobTemplate
	JobOffers   int
	MinDebt     int
	MaxDebt     int
	DebtStep    int
	MaxMonths   int
	Events      []LifeEvent
	StartStress int
}

func DefaultDebtConfig() DebtConfig {
	return DebtConfig{
		Jobs: []JobTemplate{
			{Title: "Part-time Barista Cat", MinIncome: 800, MaxIncome: 1000},
			{Title: "Retail Cat", MinIncome: 1100, MaxIncome: 1400},
			{Title: "Office Cat", MinIncome: 1600, MaxIncome: 2000},
			{Title: "Delivery Cat", MinIncome: 1000, MaxIncome: 1300},
			{Title: "Nurse Cat", MinIncome: 1900, MaxIncome: 2400},
			{Title: "Library Cat", MinIncome: 900, MaxIncome: 1200},
		},
		JobOffers: 3,
		MinDebt:   500,
		MaxDebt:   5000,
		DebtStep:  50,
		MaxMonths: 12,
		Events: []LifeEvent{
			{Text: "Got a birthday gift of $50!", Money: 50},
			{Text: "Found $20 in old jeans!", Money: 20},
			{Text: "Car repair: -$100", Money: -100},
			{Text: "Doctor visit: -$80", Money: -80},
			{Text: "Friend repaid loan: +$60", Money: 60},
			{Text: "High electric bill: -$50", Money: -50},
			{Text: "Game went on sale: -$30", Money: -30},
			{Text: "Free pizza at work!", Money: 0},
		},
		StartStress: 30,
	}
}

// Strategy splits the month's available money.
type Strategy struct {
	Name    string `json:"name"`
	Payment int    `json:"debt"`
	Saving  int    `json:"savings"`
	Fun     int    `json:"fun"`
}

type DebtState struct {
	cfg           DebtConfig
	Phase         Stage  `json:"stage"`
	Jobs          []Job  `json:"jobs"`
	JobTitle      string `json:"job_title,omitempty"`
	MonthlyIncome int    `json:"monthly_income"`
	StartingDebt  int    `json:"starting_debt"`
	Balance       int    `json:"debt"`
	Month         int    `json:"month"`
	TotalPaid     int    `json:"total_paid"`
	Savings       int    `json:"savings"`
	Stress        int    `json:"stress"`
	LastEvent     string `json:"last_event,omitempty"`
	FinalPoints   int    `json:"points"`
}

func NewDebt(src scenario.Source, cfg DebtConfig) (DebtState, error) {
	if cfg.MaxMonths <= 0 || cfg.MinDebt <= 0 || cfg.MaxDebt < cfg.MinDebt {
		return DebtState{}, fmt.Errorf("debt: invalid month cap or debt range")
	}
	templates, err := scenario.Sample(src, cfg.Jobs, cfg.JobOffers)
	if err != nil {
		return DebtState{}, fmt.Errorf("debt jobs: %w", err)
	}
	jobs := make([]Job, len(templates))
	for i, t := range templates {
		jobs[i] = Job{Title: t.Title, MonthlyIncome: scenario.Step(src, t.MinIncome, t.MaxIncome, 50)}
	}
	debt := scenario.Step(src, cfg.MinDebt, cfg.MaxDebt, cfg.DebtStep)
	return DebtState{
		cfg:          cfg,
		Phase:        StageJobSelection,
		Jobs:         jobs,
		StartingDebt: debt,
		Balance:      debt,
		Month:        1,
		Stress:       clamp(cfg.StartStress, 0, 100),
	}, nil
}

func (s DebtState) ID() ID       { return Debt }
func (s DebtState) Stage() Stage { return s.Phase }
func (s DebtState) Done() bool   { return s.Phase == StageComplete }
func (s DebtState) Points() int  { return s.FinalPoints }

func (s DebtState) Progress() float64 {
	if s.StartingDebt == 0 {
		return 0
	}
	return math.Max(0, float64(s.StartingDebt-s.Balance)/float64(s.StartingDebt))
}

func (s DebtState) FixedExpenses() int {
	return int(math.Floor(float64(s.MonthlyIncome) * fixedExpenseShare))
}

// Strategies are the four monthly plans for the chosen income.
func (s DebtState) Strategies() []Strategy {
	avail := s.MonthlyIncome - s.FixedExpenses()
	part := func(f float64) int { return int(math.Floor(float64(avail) * f)) }
	aggressive := min(avail-50, part(0.8))
	return []Strategy{
		{Name: "Aggressive Payoff", Payment: aggressive, Saving: 0, Fun: max(50, avail-part(0.8))},
		{Name: "Balanced Approach", Payment: part(0.5), Saving: part(0.2), Fun: part(0.3)},
		{Name: "Minimum Payment", Payment: 50, Saving: part(0.3), Fun: avail - 50 - part(0.3)},
		{Name: "Debt Avalanche", Payment: part(0.7), Saving: part(0.2), Fun: part(0.1)},
	}
}

func (s DebtState) Facts() []Fact {
	if s.Phase == StageJobSelection {
		return []Fact{
			{Label: "Credit card debt", Value: Money(s.StartingDebt) + " at 20% APR"},
			{Label: "Fixed expenses", Value: "40% of income"},
		}
	}
	facts := []Fact{
		{Label: "Job", Value: s.JobTitle},
		{Label: "Month", Value: fmt.Sprintf("%d of %d", s.Month, s.cfg.MaxMonths)},
		{Label: "Debt", Value: Money(s.Balance)},
		{Label: "Paid so far", Value: Money(s.TotalPaid)},
		{Label: "Savings", Value: Money(s.Savings)},
		{Label: "Stress", Value: fmt.Sprintf("%d/100 %s", s.Stress, stressMood(s.Stress))},
	}
	if s.Phase == StagePlaying {
		facts = append(facts,
			Fact{Label: "Fixed expenses", Value: Money(s.FixedExpenses())},
			Fact{Label: "Available", Value: Money(s.MonthlyIncome - s.FixedExpenses())},
		)
	}
	return facts
}

func stressMood(stress int) string {
	switch {
	case stress < 30:
		return "calm"
	case stress < 60:
		return "uneasy"
	case stress < 80:
		return "stressed"
	default:
		return "burnt out"
	}
}

func (s DebtState) Options() []Option {
	switch s.Phase {
	case StageJobSelection:
		out := make([]Option, len(s.Jobs))
		for i, j := range s.Jobs {
			out[i] = Option{
				Label:   j.Title,
				Detail:  fmt.Sprintf("%s/month, %s fixed expenses", Money(j.MonthlyIncome), Money(int(math.Floor(float64(j.MonthlyIncome)*fixedExpenseShare)))),
				Action:  Action{Kind: ActSelectJob, Index: i},
				Enabled: true,
			}
		}
		return out
	case StagePlaying:
		strategies := s.Strategies()
		out := make([]Option, len(strategies))
		for i, st := range strategies {
			out[i] = Option{
				Label:   st.Name,
				Detail:  fmt.Sprintf("debt %s, savings %s, fun %s", Money(st.Payment), Money(st.Saving), Money(st.Fun)),
				Action:  Action{Kind: ActChoose, Index: i},
				Enabled: true,
			}
		}
		return out
	}
	return nil
}

func (s DebtState) apply(src scenario.Source, a Action) (Game, Outcome, error) {
	switch {
	case s.Phase == StageJobSelection && a.Kind == ActSelectJob:
		if a.Index < 0 || a.Index >= len(s.Jobs) {
			return s, Outcome{}, invalid("job %d not offered", a.Index)
		}
		next := s
		next.JobTitle = s.Jobs[a.Index].Title
		next.MonthlyIncome = s.Jobs[a.Index].MonthlyIncome
		next.Phase = StagePlaying
		return next, Outcome{Message: fmt.Sprintf("You start work as a %s.", next.JobTitle)}, nil
	case s.Phase == StagePlaying && a.Kind == ActChoose:
		strategies := s.Strategies()
		if a.Index < 0 || a.Index >= len(strategies) {
			return s, Outcome{}, invalid("strategy %d not offered", a.Index)
		}
		return s.month(src, strategies[a.Index])
	}
	return s, Outcome{}, wrongAction(a, s.Phase)
}

func (s DebtState) month(src scenario.Source, st Strategy) (Game, Outcome, error) {
	next := s
	out := Outcome{}

	eventMoney := 0
	next.LastEvent = ""
	if s.Month > 1 && src.Float64() < lifeEventChance {
		ev := scenario.Pick(src, s.cfg.Events)
		eventMoney = ev.Money
		next.LastEvent = ev.Text
		out.Event = ev.Text
	}

	interest := int(math.Floor(float64(s.Balance) * monthlyInterestRate))
	owed := s.Balance + interest
	paid := min(st.Payment, owed)
	next.Balance = max(0, owed-st.Payment)
	next.TotalPaid += paid
	next.Savings = max(0, s.Savings+st.Saving+eventMoney)
	out.Delta = -paid

	stress := s.Stress
	if st.Payment < 50 && s.Balance > 200 {
		stress += 15
	}
	if st.Fun == 0 && s.Month > 2 {
		stress += 10
	}
	if st.Saving > 0 {
		stress -= 8
	}
	if st.Payment >= 150 {
		stress -= 12
	}
	if eventMoney < 0 {
		stress += 5
	}
	next.Stress = clamp(stress, 0, 100)

	switch {
	case next.Balance == 0:
		next.Phase = StageComplete
		speed := max(0, 100-s.Month*8)
		stressBonus := 0
		if s.Stress < 50 {
			stressBonus = 30
		}
		next.FinalPoints = 100 + speed + next.Savings/5 + stressBonus
		out.Message = "Debt-free! Paying it off early saved you interest."
	case s.Month >= s.cfg.MaxMonths:
		next.Phase = StageComplete
		progress := int(math.Floor(float64(s.StartingDebt-next.Balance) / float64(s.StartingDebt) * 80))
		next.FinalPoints = max(0, progress) + next.Savings/5
		out.Message = fmt.Sprintf("A year has passed with %s still owed. Great learning!", Money(next.Balance))
	default:
		next.Month++
		out.Message = fmt.Sprintf("%s this month: paid %s with %s interest.", st.Name, Money(paid), Money(interest))
	}
	return next, out, nil
}
