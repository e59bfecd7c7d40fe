package game

import (
	"fmt"
	"math"

	"catnipgarden/internal/scenario"
)

// Asset is one catalogue entry with its yearly return band in percent.
type Asset struct {
	Name      string  `json:"name"`
	Risk      string  `json:"risk"`
	MinReturn float64 `json:"min_return"`
	MaxReturn float64 `json:"max_return"`
}

type InvestingConfig struct {
	Cash    int
	Years   int
	Assets  []Asset
	// MaxCAGR bounds the yearly growth rate before scoring.
	MaxCAGR float64
}

func DefaultInvestingConfig() InvestingConfig {
	return InvestingConfig{
		Cash:  1000,
		Years: 5,
		Assets: []Asset{
			{Name: "Tech Stock", Risk: "high", MinReturn: -20, MaxReturn: 40},
			{Name: "Blue Chip Stock", Risk: "medium", MinReturn: -5, MaxReturn: 15},
			{Name: "Government Bond", Risk: "low", MinReturn: 2, MaxReturn: 5},
			{Name: "Savings Account", Risk: "low", MinReturn: 1, MaxReturn: 2},
		},
		MaxCAGR: 25,
	}
}

type YearValue struct {
	Year   int     `json:"year"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// InvestingState grows a portfolio for a fixed number of years. Holdings is
// indexed like Assets; zero means not held.
type InvestingState struct {
	cfg         InvestingConfig
	Phase       Stage       `json:"stage"`
	Year        int         `json:"year"`
	Cash        int         `json:"cash"`
	Assets      []Asset     `json:"assets"`
	Holdings    []float64   `json:"holdings"`
	Selected    int         `json:"selected"`
	History     []YearValue `json:"history"`
	CAGR        float64     `json:"cagr"`
	FinalPoints int         `json:"points"`
}

func NewInvesting(cfg InvestingConfig) (InvestingState, error) {
	if cfg.Cash <= 0 || cfg.Years <= 0 || len(cfg.Assets) == 0 {
		return InvestingState{}, fmt.Errorf("investing: need cash, years and at least one asset: %w", scenario.ErrPoolTooSmall)
	}
	for _, a := range cfg.Assets {
		if a.MaxReturn < a.MinReturn {
			return InvestingState{}, fmt.Errorf("investing: %s has an inverted return band", a.Name)
		}
	}
	return InvestingState{
		cfg:      cfg,
		Phase:    StagePlaying,
		Year:     1,
		Cash:     cfg.Cash,
		Assets:   append([]Asset(nil), cfg.Assets...),
		Holdings: make([]float64, len(cfg.Assets)),
		Selected: -1,
		History:  []YearValue{{Year: 0, Value: float64(cfg.Cash)}},
	}, nil
}

func (s InvestingState) ID() ID       { return Investing }
func (s InvestingState) Stage() Stage { return s.Phase }
func (s InvestingState) Done() bool   { return s.Phase == StageComplete }
func (s InvestingState) Points() int  { return s.FinalPoints }

func (s InvestingState) Progress() float64 {
	years := s.Year - 1
	if s.Done() {
		years = s.cfg.Years
	}
	return float64(years) / float64(s.cfg.Years)
}

func (s InvestingState) Invested() float64 {
	var sum float64
	for _, h := range s.Holdings {
		sum += h
	}
	return sum
}

func (s InvestingState) Total() float64 { return float64(s.Cash) + s.Invested() }

func (s InvestingState) Facts() []Fact {
	start := s.History[0].Value
	ret := (s.Total() - start) / start * 100
	facts := []Fact{
		{Label: "Year", Value: fmt.Sprintf("%d of %d", min(s.Year, s.cfg.Years), s.cfg.Years)},
		{Label: "Cash", Value: Money(s.Cash)},
		{Label: "Total value", Value: Money(int(math.Round(s.Total())))},
		{Label: "Return", Value: percent(ret)},
	}
	for i, h := range s.Holdings {
		if h > 0 {
			facts = append(facts, Fact{Label: s.Assets[i].Name, Value: Money(int(math.Round(h)))})
		}
	}
	if s.Done() {
		facts = append(facts, Fact{Label: "Yearly growth", Value: percent(s.CAGR)})
	}
	return facts
}

func (s InvestingState) Options() []Option {
	if s.Done() {
		return nil
	}
	out := make([]Option, 0, len(s.Assets)+2)
	for i, a := range s.Assets {
		label := a.Name
		if i == s.Selected {
			label += " (selected)"
		}
		out = append(out, Option{
			Label:   label,
			Detail:  fmt.Sprintf("%s risk, %g%% to %g%% a year", a.Risk, a.MinReturn, a.MaxReturn),
			Action:  Action{Kind: ActSelectHolding, Index: i},
			Enabled: true,
		})
	}
	out = append(out,
		Option{
			Label:   "Invest",
			Detail:  "amount from 1 to " + Money(s.Cash),
			Action:  Action{Kind: ActInvest, Amount: s.Cash},
			Enabled: s.Selected >= 0 && s.Cash > 0,
		},
		Option{
			Label:   "Next year",
			Action:  Action{Kind: ActAdvance},
			Enabled: s.Invested() > 0,
		},
	)
	return out
}

func (s InvestingState) apply(src scenario.Source, a Action) (Game, Outcome, error) {
	switch a.Kind {
	case ActSelectHolding:
		if a.Index < 0 || a.Index >= len(s.Assets) {
			return s, Outcome{}, invalid("asset %d not in catalogue", a.Index)
		}
		next := s
		next.Selected = a.Index
		return next, Outcome{Message: s.Assets[a.Index].Name + " selected."}, nil
	case ActInvest:
		if s.Selected < 0 {
			return s, Outcome{}, invalid("select an investment first")
		}
		if a.Amount <= 0 || a.Amount > s.Cash {
			return s, Outcome{}, invalid("amount %d outside 1..%d", a.Amount, s.Cash)
		}
		next := s
		next.Holdings = append([]float64(nil), s.Holdings...)
		next.Holdings[s.Selected] += float64(a.Amount)
		next.Cash -= a.Amount
		next.Selected = -1
		return next, Outcome{
			Message: fmt.Sprintf("Invested %s in %s.", Money(a.Amount), s.Assets[s.Selected].Name),
			Delta:   -a.Amount,
		}, nil
	case ActAdvance:
		if s.Invested() <= 0 {
			return s, Outcome{}, invalid("you need to invest something first")
		}
		next, out := s.advance(src)
		return next, out, nil
	}
	return s, Outcome{}, wrongAction(a, s.Phase)
}

func (s InvestingState) advance(src scenario.Source) (InvestingState, Outcome) {
	next := s
	next.Holdings = make([]float64, len(s.Holdings))
	for i, h := range s.Holdings {
		if h == 0 {
			continue
		}
		r := scenario.FloatRange(src, s.Assets[i].MinReturn, s.Assets[i].MaxReturn)
		next.Holdings[i] = h * (1 + r/100)
	}
	total := next.Total()
	prev := s.History[len(s.History)-1].Value
	next.History = append(append([]YearValue(nil), s.History...), YearValue{Year: s.Year, Value: total, Change: total - prev})
	out := Outcome{
		Message: fmt.Sprintf("Year %d: portfolio worth %s.", s.Year, Money(int(math.Round(total)))),
		Delta:   int(math.Round(total - prev)),
	}

	if s.Year >= s.cfg.Years {
		next.Phase = StageComplete
		next.Selected = -1
		next.CAGR = cagr(next.History[0].Value, total, s.cfg.Years, s.cfg.MaxCAGR)
		next.FinalPoints = int(math.Floor(100 + 2*next.CAGR))
		out.Message = fmt.Sprintf("After %d years your garden grew %s a year.", s.cfg.Years, percent(next.CAGR))
		return next, out
	}
	next.Year++
	return next, out
}

func cagr(first, final float64, years int, bound float64) float64 {
	if first <= 0 || final <= 0 {
		return -bound
	}
	g := (math.Pow(final/first, 1/float64(years)) - 1) * 100
	return math.Max(-bound, math.Min(bound, g))
}
