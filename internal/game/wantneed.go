package game

import (
	"fmt"

	"catnipgarden/internal/scenario"
)

const (
	Want = "want"
	Need = "need"
)

type ClassifiedItem struct {
	Name        string `json:"name"`
	Kind        string `json:"-"`
	Explanation string `json:"explanation"`
}

type WantNeedConfig struct {
	Pool       []ClassifiedItem
	Rounds     int
	PointsEach int
}

func DefaultWantNeedConfig() WantNeedConfig {
	return WantNeedConfig{
		Pool: []ClassifiedItem{
			{Name: "Water Bottle", Kind: Need, Explanation: "You need water to stay healthy!"},
			{Name: "Designer Shoes", Kind: Want, Explanation: "Regular shoes work fine. Designer brands are a want!"},
			{Name: "School Supplies", Kind: Need, Explanation: "You need these for learning!"},
			{Name: "Video Game", Kind: Want, Explanation: "Games are fun but not necessary!"},
			{Name: "Winter Coat", Kind: Need, Explanation: "You need a coat to stay warm!"},
			{Name: "Candy", Kind: Want, Explanation: "Candy is a treat, not a necessity!"},
			{Name: "Healthy Food", Kind: Need, Explanation: "Your body needs nutritious food!"},
			{Name: "Latest Phone", Kind: Want, Explanation: "An older phone works fine. The latest is a want!"},
			{Name: "Toothbrush", Kind: Need, Explanation: "You need this for dental health!"},
			{Name: "Toy Collection", Kind: Want, Explanation: "Toys are fun but not necessary!"},
			{Name: "Cat Food", Kind: Need, Explanation: "Every cat needs a full bowl!"},
			{Name: "Laser Pointer", Kind: Want, Explanation: "Chasing the dot is fun, but you can live without it!"},
			{Name: "Rent", Kind: Need, Explanation: "A safe place to live comes first!"},
			{Name: "Streaming Plan", Kind: Want, Explanation: "Shows are nice to have, not a must!"},
		},
		Rounds:     10,
		PointsEach: 10,
	}
}

type WantNeedState struct {
	cfg         WantNeedConfig
	Phase       Stage            `json:"stage"`
	Items       []ClassifiedItem `json:"items"`
	Current     int              `json:"current"`
	Correct     int              `json:"correct"`
	Score       int              `json:"score"`
	FinalPoints int              `json:"points"`
}

func NewWantNeed(src scenario.Source, cfg WantNeedConfig) (WantNeedState, error) {
	items, err := scenario.Sample(src, cfg.Pool, cfg.Rounds)
	if err != nil {
		return WantNeedState{}, fmt.Errorf("want vs need items: %w", err)
	}
	if len(items) == 0 {
		return WantNeedState{}, fmt.Errorf("want vs need: no rounds: %w", scenario.ErrPoolTooSmall)
	}
	return WantNeedState{cfg: cfg, Phase: StagePlaying, Items: items}, nil
}

func (s WantNeedState) ID() ID       { return WantVsNeed }
func (s WantNeedState) Stage() Stage { return s.Phase }
func (s WantNeedState) Done() bool   { return s.Phase == StageComplete }
func (s WantNeedState) Points() int  { return s.FinalPoints }

func (s WantNeedState) Progress() float64 { return float64(s.Current) / float64(len(s.Items)) }

func (s WantNeedState) Facts() []Fact {
	facts := []Fact{
		{Label: "Item", Value: fmt.Sprintf("%d of %d", min(s.Current+1, len(s.Items)), len(s.Items))},
		{Label: "Score", Value: fmt.Sprintf("%d points", s.Score)},
	}
	if !s.Done() {
		facts = append(facts, Fact{Label: "Is this a want or a need?", Value: s.Items[s.Current].Name})
	} else {
		facts = append(facts, Fact{Label: "Correct", Value: fmt.Sprintf("%d of %d", s.Correct, len(s.Items))})
	}
	return facts
}

func (s WantNeedState) Options() []Option {
	if s.Done() {
		return nil
	}
	return []Option{
		{Label: "Want", Action: Action{Kind: ActClassify, Index: s.Current, Choice: Want}, Enabled: true},
		{Label: "Need", Action: Action{Kind: ActClassify, Index: s.Current, Choice: Need}, Enabled: true},
	}
}

// apply accepts only the current item; earlier items are resolved.
func (s WantNeedState) apply(_ scenario.Source, a Action) (Game, Outcome, error) {
	if a.Kind != ActClassify {
		return s, Outcome{}, wrongAction(a, s.Phase)
	}
	if a.Index != s.Current {
		return s, Outcome{}, invalid("item %d already classified or not reached", a.Index)
	}
	if a.Choice != Want && a.Choice != Need {
		return s, Outcome{}, invalid("classification %q is neither want nor need", a.Choice)
	}
	item := s.Items[s.Current]
	correct := a.Choice == item.Kind

	next := s
	out := Outcome{Correct: boolPtr(correct), Message: item.Explanation}
	if correct {
		next.Correct++
		next.Score += s.cfg.PointsEach
		out.Delta = s.cfg.PointsEach
	}
	next.Current++
	if next.Current >= len(s.Items) {
		next.Phase = StageComplete
		next.FinalPoints = next.Correct * s.cfg.PointsEach
	}
	return next, out, nil
}
