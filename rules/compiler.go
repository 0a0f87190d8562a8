package rules

import (
	"fmt"
	"math"

	"github.com/nstehr/dominion/dominion-core/archetype"
)

// CompileArchetype generates a complete rule set from an archetype profile.
// All conditions are built via fmt.Sprintf with interpolated values, so the
// compiler never generates invalid expr.
func CompileArchetype(p archetype.Profile, cfg Config) []*Rule {
	var rules []*Rule

	// --- Attack rules ---
	// Hostile targets get a higher bar; the general rule covers the rest.

	rules = append(rules, &Rule{
		Name:         "attack-hostile",
		Priority:     1000,
		Category:     "military",
		ConditionSrc: fmt.Sprintf(`HasTarget() && CanAttack() && TargetTier() == "hostile" && TargetRatio() <= %.6f`, p.AttackThreshold+cfg.HostileBonus),
		Action:       ActionAttack,
	})

	rules = append(rules, &Rule{
		Name:         "attack",
		Priority:     990,
		Category:     "military",
		ConditionSrc: fmt.Sprintf(`HasTarget() && CanAttack() && TargetRatio() <= %.6f`, p.AttackThreshold),
		Action:       ActionAttack,
	})

	// --- Military build-up ---

	if p.Style != archetype.Defensive && p.Priorities.Military > 0 {
		rules = append(rules, &Rule{
			Name:         "build-carriers",
			Priority:     lerp(700, 800, p.Priorities.Military),
			Category:     "military",
			ConditionSrc: `Focus() == "military" && StrandedSoldiers() > 0`,
			Action:       ActionBuildCarriers,
		})
	}

	if p.Style == archetype.Defensive && p.Priorities.Military > 0 {
		rules = append(rules, &Rule{
			Name:         "fortify",
			Priority:     lerp(700, 800, p.Priorities.Military),
			Category:     "military",
			ConditionSrc: `Focus() == "military" && Scarcity("ore") < 1 && UnitCount("stations") * 4 < UnitCount("soldiers")`,
			Action:       ActionBuildStations,
		})
	}

	rules = append(rules, &Rule{
		Name:         "build-military",
		Priority:     lerp(500, 600, p.Priorities.Military),
		Category:     "military",
		ConditionSrc: `Focus() == "military" && Scarcity("ore") < 1`,
		Action:       ActionBuild,
	})

	// Nothing can be built once ore runs out; put the turn into research.
	if p.Priorities.Research > 0 {
		rules = append(rules, &Rule{
			Name:         "research-starved",
			Priority:     450,
			Category:     "research",
			ConditionSrc: `Focus() == "military" && Scarcity("ore") >= 1 && EffortFor("research") > 0`,
			Action:       ActionResearch,
		})
	}

	// --- Economy, diplomacy, research ---

	rules = append(rules, &Rule{
		Name:         "trade",
		Priority:     lerp(500, 600, p.Priorities.Economy),
		Category:     "economy",
		ConditionSrc: `Focus() == "economy"`,
		Action:       ActionTrade,
	})

	rules = append(rules, &Rule{
		Name:         "propose-treaty",
		Priority:     lerp(500, 600, p.Priorities.Diplomacy),
		Category:     "diplomacy",
		ConditionSrc: `Focus() == "diplomacy" && HasDiplomacyPartner()`,
		Action:       ActionProposeTreaty,
	})

	rules = append(rules, &Rule{
		Name:         "research",
		Priority:     lerp(500, 600, p.Priorities.Research),
		Category:     "research",
		ConditionSrc: `Focus() == "research"`,
		Action:       ActionResearch,
	})

	return rules
}

// lerp linearly interpolates between min and max by t (0–1), returning an int.
func lerp(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*clamp(t, 0, 1)))
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
