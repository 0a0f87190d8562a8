package rules

import (
	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/model"
)

// unitWeight is the share of an army a style wants in one unit type.
type unitWeight struct {
	unit   model.UnitType
	weight float64
}

// stylePreferences is the static registry of army compositions per style.
var stylePreferences = map[archetype.Style][]unitWeight{
	archetype.Aggressive: {
		{model.HeavyCruisers, 0.4},
		{model.LightCruisers, 0.3},
		{model.Soldiers, 0.2},
		{model.Fighters, 0.1},
	},
	archetype.Defensive: {
		{model.Stations, 0.4},
		{model.Soldiers, 0.3},
		{model.Fighters, 0.2},
		{model.LightCruisers, 0.1},
	},
	archetype.Opportunistic: {
		{model.LightCruisers, 0.35},
		{model.Fighters, 0.3},
		{model.Soldiers, 0.25},
		{model.HeavyCruisers, 0.1},
	},
	archetype.Balanced: {
		{model.Soldiers, 0.3},
		{model.LightCruisers, 0.25},
		{model.Fighters, 0.25},
		{model.HeavyCruisers, 0.2},
	},
}

// PreferredUnit returns the unit type furthest below its target share for
// style; ties go to the earlier entry.
func PreferredUnit(style archetype.Style, f model.Forces) model.UnitType {
	prefs, ok := stylePreferences[style]
	if !ok {
		prefs = stylePreferences[archetype.Balanced]
	}
	best := prefs[0].unit
	bestScore := -1.0
	for _, p := range prefs {
		// count per unit of wanted share; lower means more underbuilt
		score := float64(f.Count(p.unit)) / p.weight
		if bestScore < 0 || score < bestScore {
			best, bestScore = p.unit, score
		}
	}
	return best
}
