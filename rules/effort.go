package rules

import (
	"slices"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/model"
)

// Focus is one of the four non-combat efforts.
type Focus string

const (
	FocusMilitary  Focus = "military"
	FocusEconomy   Focus = "economy"
	FocusDiplomacy Focus = "diplomacy"
	FocusResearch  Focus = "research"
)

// focusOrder breaks ties between equal efforts.
var focusOrder = []Focus{FocusMilitary, FocusEconomy, FocusDiplomacy, FocusResearch}

// Effort is the share of a turn given to each focus.
type Effort struct {
	Military  float64 `json:"military"`
	Economy   float64 `json:"economy"`
	Diplomacy float64 `json:"diplomacy"`
	Research  float64 `json:"research"`
}

func (e Effort) Of(f Focus) float64 {
	switch f {
	case FocusMilitary:
		return e.Military
	case FocusEconomy:
		return e.Economy
	case FocusDiplomacy:
		return e.Diplomacy
	case FocusResearch:
		return e.Research
	}
	return 0
}

func (e Effort) Total() float64 {
	return e.Military + e.Economy + e.Diplomacy + e.Research
}

// Normalize scales the efforts to sum to 1. All-zero stays all-zero.
func (e Effort) Normalize() Effort {
	total := e.Total()
	if total <= 0 {
		return Effort{}
	}
	return Effort{
		Military:  e.Military / total,
		Economy:   e.Economy / total,
		Diplomacy: e.Diplomacy / total,
		Research:  e.Research / total,
	}
}

// Ranked lists the non-zero focuses, largest first.
func (e Effort) Ranked() []Focus {
	var out []Focus
	for _, f := range focusOrder {
		if e.Of(f) > 0 {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, func(a, b Focus) int {
		switch ea, eb := e.Of(a), e.Of(b); {
		case ea > eb:
			return -1
		case ea < eb:
			return 1
		}
		return 0
	})
	return out
}

// ComputeEffort modulates archetype priorities by the turn's scarcity,
// market and treaty context, then normalizes.
func ComputeEffort(p archetype.Priorities, ctx model.TurnContext) Effort {
	econ := p.Economy * (1 + (ctx.ScarcityOf(model.ResourceCredits)+ctx.ScarcityOf(model.ResourceFood))/2)
	if _, price := BestMarket(ctx); price > 1 {
		econ *= price
	}
	return Effort{
		Military:  max(p.Military, 0) * (1 - 0.5*ctx.ScarcityOf(model.ResourceOre)),
		Economy:   max(econ, 0),
		Diplomacy: max(p.Diplomacy, 0) * min(1+0.25*float64(ctx.ActiveTreaties()), 2),
		Research:  max(p.Research, 0) * (1 - 0.5*ctx.ScarcityOf(model.ResourceResearch)),
	}.Normalize()
}

// BestMarket returns the resource with the highest price multiplier, ties in
// AllResources order.
func BestMarket(ctx model.TurnContext) (model.Resource, float64) {
	best := model.AllResources()[0]
	bestPrice := ctx.PriceOf(best)
	for _, r := range model.AllResources()[1:] {
		if p := ctx.PriceOf(r); p > bestPrice {
			best, bestPrice = r, p
		}
	}
	return best, bestPrice
}
