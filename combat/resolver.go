// Package combat resolves attacks between two empires' forces. Resolution is
// pure: the resolver reports casualties and effectiveness changes, and the
// caller decides how to apply them.
package combat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nstehr/dominion/dominion-core/model"
)

// ErrInvalidAttack rejects an attack before any phase is fought.
var ErrInvalidAttack = errors.New("invalid attack")

// AttackType selects how an attack is resolved.
type AttackType uint8

const (
	Invasion     AttackType = iota // space, orbital, then ground; can capture
	GuerillaRaid                   // one ground skirmish; never captures
)

func (t AttackType) String() string {
	switch t {
	case Invasion:
		return "invasion"
	case GuerillaRaid:
		return "guerilla_raid"
	}
	return "unknown"
}

// ParseAttackType maps an attack type name back to its value.
func ParseAttackType(s string) (AttackType, bool) {
	switch s {
	case "invasion":
		return Invasion, true
	case "guerilla_raid":
		return GuerillaRaid, true
	}
	return 0, false
}

// Role names a side of the battle.
type Role uint8

const (
	Defender Role = iota
	Attacker
)

func (r Role) String() string {
	if r == Attacker {
		return "attacker"
	}
	return "defender"
}

// Side is one participant's committed state.
type Side struct {
	EmpireID          model.EmpireID `json:"empireId"`
	Forces            model.Forces   `json:"forces"`
	ArmyEffectiveness float64        `json:"armyEffectiveness"`
}

// Request describes an attack to resolve.
type Request struct {
	Type     AttackType
	Attacker Side
	Defender Side
	Distance int // galaxy distance between the two empires
}

// PhaseResult records one fought phase.
type PhaseResult struct {
	Phase          model.Phase  `json:"phase"`
	AttackerPower  float64      `json:"attackerPower"`
	DefenderPower  float64      `json:"defenderPower"`
	Winner         Role         `json:"winner"`
	AttackerLosses model.Forces `json:"attackerLosses"`
	DefenderLosses model.Forces `json:"defenderLosses"`
}

// Outcome is everything an attack produced. Phases that were never fought
// because an earlier one was lost are absent.
type Outcome struct {
	Type                       AttackType     `json:"type"`
	Attacker                   model.EmpireID `json:"attacker"`
	Defender                   model.EmpireID `json:"defender"`
	Phases                     []PhaseResult  `json:"phases"`
	Winner                     Role           `json:"winner"`
	AttackerLosses             model.Forces   `json:"attackerLosses"`
	DefenderLosses             model.Forces   `json:"defenderLosses"`
	TerritoryTransferred       bool           `json:"territoryTransferred"`
	AttackerEffectivenessDelta float64        `json:"attackerEffectivenessDelta"`
	DefenderEffectivenessDelta float64        `json:"defenderEffectivenessDelta"`
}

// Resolver fights attacks using a fixed Config.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Config returns the balance values the resolver was built with.
func (r *Resolver) Config() Config { return r.cfg }

// Resolve validates and fights the attack described by req.
func (r *Resolver) Resolve(req Request) (Outcome, error) {
	req.Attacker.Forces = req.Attacker.Forces.Normalize()
	req.Defender.Forces = req.Defender.Forces.Normalize()
	req.Attacker.ArmyEffectiveness = r.effectiveness(req.Attacker.ArmyEffectiveness)
	req.Defender.ArmyEffectiveness = r.effectiveness(req.Defender.ArmyEffectiveness)

	if err := r.validate(req); err != nil {
		return Outcome{}, err
	}

	switch req.Type {
	case GuerillaRaid:
		return r.resolveRaid(req), nil
	default:
		return r.resolveInvasion(req), nil
	}
}

func (r *Resolver) validate(req Request) error {
	if req.Type != Invasion && req.Type != GuerillaRaid {
		return fmt.Errorf("%w: unknown attack type %d", ErrInvalidAttack, req.Type)
	}
	if req.Attacker.EmpireID != "" && req.Attacker.EmpireID == req.Defender.EmpireID {
		return fmt.Errorf("%w: %s cannot attack itself", ErrInvalidAttack, req.Attacker.EmpireID)
	}
	if req.Distance > r.cfg.MaxRange {
		return fmt.Errorf("%w: target %s is %d sectors away, max range %d",
			ErrInvalidAttack, req.Defender.EmpireID, req.Distance, r.cfg.MaxRange)
	}
	if r.potential(req) <= 0 {
		return fmt.Errorf("%w: %s committed no combat force", ErrInvalidAttack, req.Attacker.EmpireID)
	}
	return nil
}

// potential sums the attacker's power over every phase the attack would fight.
func (r *Resolver) potential(req Request) float64 {
	return r.Potential(req.Type, req.Attacker.Forces, req.Attacker.ArmyEffectiveness)
}

// Potential is the total power f would bring to an attack of type t, summed
// over the phases that attack fights. Zero means the attack would be rejected.
func (r *Resolver) Potential(t AttackType, f model.Forces, armyEffectiveness float64) float64 {
	f = f.Normalize()
	eff := r.effectiveness(armyEffectiveness)
	if t == GuerillaRaid {
		return r.power(raidCommitted(f), model.PhaseGuerilla, false, eff)
	}
	total := 0.0
	for _, p := range model.InvasionPhases() {
		total += r.power(r.committed(f, p, false), p, false, eff)
	}
	return total
}

func (r *Resolver) resolveInvasion(req Request) Outcome {
	out := Outcome{
		Type:     Invasion,
		Attacker: req.Attacker.EmpireID,
		Defender: req.Defender.EmpireID,
		Winner:   Defender,
	}
	att := req.Attacker.Forces
	def := req.Defender.Forces

	won := 0
	for _, phase := range model.InvasionPhases() {
		attCommitted := r.committed(att, phase, false)
		defCommitted := r.committed(def, phase, true)

		pr := PhaseResult{
			Phase:         phase,
			AttackerPower: r.power(attCommitted, phase, false, req.Attacker.ArmyEffectiveness),
			DefenderPower: r.power(defCommitted, phase, true, req.Defender.ArmyEffectiveness),
			Winner:        Defender,
		}
		if pr.AttackerPower > pr.DefenderPower {
			pr.Winner = Attacker
		}

		if pr.Winner == Attacker {
			pr.DefenderLosses = lossesOf(defCommitted, r.cfg.PhaseLossFraction, ceilUnits)
			if pr.DefenderPower > 0 {
				pr.AttackerLosses = lossesOf(attCommitted, r.cfg.WinnerLossFraction, floorUnits)
			}
		} else {
			pr.AttackerLosses = lossesOf(attCommitted, r.cfg.PhaseLossFraction, ceilUnits)
			if pr.AttackerPower > 0 {
				pr.DefenderLosses = lossesOf(defCommitted, r.cfg.WinnerLossFraction, floorUnits)
			}
		}

		att = att.Sub(pr.AttackerLosses)
		def = def.Sub(pr.DefenderLosses)
		out.AttackerLosses = out.AttackerLosses.Add(pr.AttackerLosses)
		out.DefenderLosses = out.DefenderLosses.Add(pr.DefenderLosses)
		out.Phases = append(out.Phases, pr)

		slog.Debug("invasion phase",
			"phase", phase,
			"attacker", req.Attacker.EmpireID,
			"defender", req.Defender.EmpireID,
			"attackerPower", pr.AttackerPower,
			"defenderPower", pr.DefenderPower,
			"winner", pr.Winner,
		)

		if pr.Winner != Attacker {
			break
		}
		won++
	}

	out.TerritoryTransferred = won == len(model.InvasionPhases())
	if out.TerritoryTransferred {
		out.Winner = Attacker
	}
	out.AttackerEffectivenessDelta, out.DefenderEffectivenessDelta = r.effectivenessDeltas(req, out.Winner)
	return out
}

func (r *Resolver) resolveRaid(req Request) Outcome {
	att := raidCommitted(req.Attacker.Forces)
	def := raidCommitted(req.Defender.Forces)

	pr := PhaseResult{
		Phase:         model.PhaseGuerilla,
		AttackerPower: r.power(att, model.PhaseGuerilla, false, req.Attacker.ArmyEffectiveness),
		DefenderPower: r.power(def, model.PhaseGuerilla, true, req.Defender.ArmyEffectiveness),
		Winner:        Defender,
	}
	if pr.AttackerPower > pr.DefenderPower {
		pr.Winner = Attacker
	}

	loserLoss := func(f model.Forces) model.Forces {
		return capLosses(lossesOf(f, r.cfg.GuerillaLossFraction, ceilUnits), r.cfg.GuerillaCasualtyCap)
	}
	winnerLoss := func(f model.Forces) model.Forces {
		return capLosses(lossesOf(f, r.cfg.GuerillaWinnerLossFraction, floorUnits), r.cfg.GuerillaCasualtyCap)
	}
	if pr.Winner == Attacker {
		pr.DefenderLosses = loserLoss(def)
		pr.AttackerLosses = winnerLoss(att)
	} else {
		pr.AttackerLosses = loserLoss(att)
		pr.DefenderLosses = winnerLoss(def)
	}

	slog.Debug("guerilla raid",
		"attacker", req.Attacker.EmpireID,
		"defender", req.Defender.EmpireID,
		"attackerPower", pr.AttackerPower,
		"defenderPower", pr.DefenderPower,
		"winner", pr.Winner,
	)

	return Outcome{
		Type:           GuerillaRaid,
		Attacker:       req.Attacker.EmpireID,
		Defender:       req.Defender.EmpireID,
		Phases:         []PhaseResult{pr},
		Winner:         pr.Winner,
		AttackerLosses: pr.AttackerLosses,
		DefenderLosses: pr.DefenderLosses,
	}
}

// committed selects the units that fight in phase. An attacker's ground
// assault is limited to the soldiers its carriers can land.
func (r *Resolver) committed(f model.Forces, phase model.Phase, isDefender bool) model.Forces {
	var out model.Forces
	for _, u := range model.AllUnitTypes() {
		if Participates(u, phase, isDefender) {
			out = out.With(u, f.Count(u))
		}
	}
	if phase == model.PhaseGround && !isDefender {
		out.Soldiers = min(out.Soldiers, f.Carriers*r.cfg.CarrierCapacity)
	}
	return out
}

func raidCommitted(f model.Forces) model.Forces {
	return model.Forces{Soldiers: f.Soldiers}
}

func (r *Resolver) power(f model.Forces, phase model.Phase, isDefender bool, eff float64) float64 {
	total := 0.0
	for _, u := range model.AllUnitTypes() {
		total += EffectivePower(u, f.Count(u), r.cfg.Power(u), phase, isDefender)
	}
	return total * eff
}

func (r *Resolver) effectiveness(v float64) float64 {
	if v <= 0 {
		v = 1
	}
	return r.cfg.ClampEffectiveness(v)
}

func (r *Resolver) effectivenessDeltas(req Request, winner Role) (attacker, defender float64) {
	shift := func(current float64, won bool) float64 {
		next := current - r.cfg.EffectivenessPenalty
		if won {
			next = current + r.cfg.EffectivenessBonus
		}
		return r.cfg.ClampEffectiveness(next) - current
	}
	attacker = shift(req.Attacker.ArmyEffectiveness, winner == Attacker)
	defender = shift(req.Defender.ArmyEffectiveness, winner == Defender)
	return attacker, defender
}

// lossesOf applies fraction to every count, rounding with round.
func lossesOf(f model.Forces, fraction float64, round func(float64) float64) model.Forces {
	var out model.Forces
	if fraction <= 0 {
		return out
	}
	for _, u := range model.AllUnitTypes() {
		n := f.Count(u)
		if n == 0 {
			continue
		}
		lost := int(round(float64(n) * fraction))
		out = out.With(u, min(lost, n))
	}
	return out
}

// ceilUnits and floorUnits absorb float noise such as 30*0.1 = 3.0000000000000004.
func ceilUnits(v float64) float64  { return math.Ceil(v - 1e-9) }
func floorUnits(v float64) float64 { return math.Floor(v + 1e-9) }

func capLosses(f model.Forces, limit int) model.Forces {
	for _, u := range model.AllUnitTypes() {
		f = f.With(u, min(f.Count(u), limit))
	}
	return f
}

func (t AttackType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *AttackType) UnmarshalText(b []byte) error {
	v, ok := ParseAttackType(string(b))
	if !ok {
		return fmt.Errorf("unknown attack type %q", b)
	}
	*t = v
	return nil
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "attacker":
		*r = Attacker
	case "defender":
		*r = Defender
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}
