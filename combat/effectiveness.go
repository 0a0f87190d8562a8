package combat

import "github.com/nstehr/dominion/dominion-core/model"

// Effectiveness levels a unit can contribute to a phase.
const (
	None   = 0.0
	Low    = 0.25
	Medium = 0.5
	High   = 1.0
)

// Effectiveness looks up how much a unit type contributes to a combat phase.
// Static defenses count double for a defender in the orbital phase, capped at High.
func Effectiveness(unit model.UnitType, phase model.Phase, isDefender bool) float64 {
	switch unit {
	case model.Soldiers:
		switch phase {
		case model.PhaseGround, model.PhaseGuerilla:
			return High
		}
	case model.Fighters:
		switch phase {
		case model.PhaseOrbital:
			return High
		case model.PhaseSpace, model.PhaseGround:
			return Low
		}
	case model.Stations:
		switch phase {
		case model.PhaseOrbital:
			if isDefender {
				return min(Medium*2, High)
			}
			return Medium
		case model.PhaseGround:
			return Medium
		}
	case model.LightCruisers:
		switch phase {
		case model.PhaseSpace, model.PhaseOrbital:
			return High
		}
	case model.HeavyCruisers:
		switch phase {
		case model.PhaseSpace:
			return High
		case model.PhaseOrbital:
			return Medium
		}
	case model.Carriers:
		// Carriers only move soldiers; see Config.CarrierCapacity.
	}
	return None
}

// EffectivePower is count × basePower × effectiveness for one unit type.
func EffectivePower(unit model.UnitType, count int, basePower float64, phase model.Phase, isDefender bool) float64 {
	if count <= 0 || basePower <= 0 {
		return 0
	}
	return float64(count) * basePower * Effectiveness(unit, phase, isDefender)
}

// Participates reports whether a unit type contributes anything to phase.
func Participates(unit model.UnitType, phase model.Phase, isDefender bool) bool {
	return Effectiveness(unit, phase, isDefender) > None
}
