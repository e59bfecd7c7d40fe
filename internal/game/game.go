// Package game holds the seven mini-game state machines. Every state is a
// value; Transition returns a new value and never mutates its input.
package game

import (
	"errors"
	"fmt"

	"catnipgarden/internal/scenario"
)

var (
	ErrInvalidMove     = errors.New("move not allowed")
	ErrSessionComplete = errors.New("game already complete")
	ErrUnknownGame     = errors.New("unknown game")
)

type ID string

const (
	Savings    ID = "savings"
	Budget     ID = "budget"
	WantVsNeed ID = "wantvsneed"
	MoneyMatch ID = "moneymatch"
	Investing  ID = "investing"
	Debt       ID = "debt"
	Mortgage   ID = "mortgage"
)

// Stage names the current node of a game's state machine.
type Stage string

const (
	StageSetup    Stage = "setup"
	StagePlaying  Stage = "playing"
	StageComplete Stage = "complete"
)

type ActionKind string

const (
	ActSelectJob     ActionKind = "select_job"
	ActChoose        ActionKind = "choose"
	ActToggle        ActionKind = "toggle"
	ActFinish        ActionKind = "finish"
	ActClassify      ActionKind = "classify"
	ActPickItem      ActionKind = "pick_item"
	ActPickPrice     ActionKind = "pick_price"
	ActSelectHolding ActionKind = "select_holding"
	ActInvest        ActionKind = "invest"
	ActAdvance       ActionKind = "advance"
	ActStart         ActionKind = "start"
	ActSelectOffer   ActionKind = "select_offer"
	ActConfirm       ActionKind = "confirm"
)

// Action is one player decision.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Index  int        `json:"index,omitempty"`
	Amount int        `json:"amount,omitempty"`
	Choice string     `json:"choice,omitempty"`
}

// Option is an action currently on screen. Disabled options are shown but inert.
type Option struct {
	Label   string `json:"label"`
	Detail  string `json:"detail,omitempty"`
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
}

type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Outcome is the ephemeral effect of one decision.
type Outcome struct {
	Message   string `json:"message,omitempty"`
	Event     string `json:"event,omitempty"`
	Delta     int    `json:"delta,omitempty"`
	Correct   *bool  `json:"correct,omitempty"`
	Completed bool   `json:"completed"`
	Points    int    `json:"points,omitempty"`
}

type Game interface {
	ID() ID
	Stage() Stage
	Done() bool
	// Points is the final score; zero until Done.
	Points() int
	// Progress is a 0..1 completion gauge for display.
	Progress() float64
	Facts() []Fact
	Options() []Option
	apply(src scenario.Source, a Action) (Game, Outcome, error)
}

// Transition applies a to g. On error the returned state is g itself.
func Transition(g Game, src scenario.Source, a Action) (Game, Outcome, error) {
	if g.Done() {
		return g, Outcome{}, ErrSessionComplete
	}
	next, out, err := g.apply(src, a)
	if err != nil {
		return g, Outcome{}, err
	}
	if next.Done() {
		out.Completed = true
		out.Points = next.Points()
	}
	return next, out, nil
}

// New starts id with its default scenario.
func New(id ID, src scenario.Source) (Game, error) {
	switch id {
	case Savings:
		return NewSavings(src, DefaultSavingsConfig())
	case Budget:
		return NewBudget(DefaultBudgetConfig())
	case WantVsNeed:
		return NewWantNeed(src, DefaultWantNeedConfig())
	case MoneyMatch:
		return NewMoneyMatch(src, DefaultMoneyMatchConfig())
	case Investing:
		return NewInvesting(DefaultInvestingConfig())
	case Debt:
		return NewDebt(src, DefaultDebtConfig())
	case Mortgage:
		return NewMortgage(src, DefaultMortgageConfig())
	default:
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownGame)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidMove)
}

func wrongAction(a Action, stage Stage) error {
	return invalid("%s not accepted during %s", a.Kind, stage)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolPtr(v bool) *bool { return &v }
