package combat

import "github.com/nstehr/dominion/dominion-core/model"

// Config holds the balance constants the resolver uses. None of these are
// structural; they are tuned per game.
type Config struct {
	// BasePower is the per-unit strength before phase effectiveness.
	BasePower map[string]float64 `toml:"base_power" validate:"required,dive,keys,oneof=soldiers fighters stations light_cruisers heavy_cruisers carriers,endkeys,gte=0"`

	// CarrierCapacity is how many soldiers one carrier delivers to a ground assault.
	CarrierCapacity int `toml:"carrier_capacity" validate:"gte=0"`

	// MaxRange is the furthest galaxy distance an attack can be launched across.
	MaxRange int `toml:"max_range" validate:"gte=0"`

	PhaseLossFraction  float64 `toml:"phase_loss_fraction" validate:"gte=0,lte=1"`
	WinnerLossFraction float64 `toml:"winner_loss_fraction" validate:"gte=0,lte=1"`

	GuerillaLossFraction       float64 `toml:"guerilla_loss_fraction" validate:"gte=0,lte=1"`
	GuerillaWinnerLossFraction float64 `toml:"guerilla_winner_loss_fraction" validate:"gte=0,lte=1"`
	GuerillaCasualtyCap        int     `toml:"guerilla_casualty_cap" validate:"gte=0"`

	EffectivenessBonus   float64 `toml:"effectiveness_bonus" validate:"gte=0"`
	EffectivenessPenalty float64 `toml:"effectiveness_penalty" validate:"gte=0"`
	EffectivenessMin     float64 `toml:"effectiveness_min" validate:"gt=0"`
	EffectivenessMax     float64 `toml:"effectiveness_max" validate:"gtefield=EffectivenessMin"`
}

// DefaultConfig returns the shipped balance values.
func DefaultConfig() Config {
	return Config{
		BasePower: map[string]float64{
			model.Soldiers.String():      1,
			model.Fighters.String():      3,
			model.Stations.String():      5,
			model.LightCruisers.String(): 8,
			model.HeavyCruisers.String(): 15,
			model.Carriers.String():      0,
		},
		CarrierCapacity:            100,
		MaxRange:                   4,
		PhaseLossFraction:          0.20,
		WinnerLossFraction:         0.05,
		GuerillaLossFraction:       0.10,
		GuerillaWinnerLossFraction: 0.03,
		GuerillaCasualtyCap:        50,
		EffectivenessBonus:         0.05,
		EffectivenessPenalty:       0.05,
		EffectivenessMin:           0.5,
		EffectivenessMax:           1.5,
	}
}

// Power returns the configured base power for u, 0 when unset.
func (c Config) Power(u model.UnitType) float64 {
	return c.BasePower[u.String()]
}

// ClampEffectiveness restricts v to the configured range.
func (c Config) ClampEffectiveness(v float64) float64 {
	if v < c.EffectivenessMin {
		return c.EffectivenessMin
	}
	if v > c.EffectivenessMax {
		return c.EffectivenessMax
	}
	return v
}

// Strength is a single scalar used for relative-power comparisons: each unit
// counts at its best phase effectiveness, scaled by army effectiveness.
func (c Config) Strength(f model.Forces, armyEffectiveness float64) float64 {
	if armyEffectiveness <= 0 {
		armyEffectiveness = 1
	}
	total := 0.0
	for _, u := range model.AllUnitTypes() {
		best := 0.0
		for _, p := range model.InvasionPhases() {
			best = max(best, Effectiveness(u, p, false))
		}
		total += float64(f.Count(u)) * c.Power(u) * best
	}
	return total * armyEffectiveness
}
