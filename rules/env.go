package rules

import (
	"cmp"
	"math"
	"slices"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/relation"
)

// Snapshot is everything one bot sees when it decides.
type Snapshot struct {
	Turn      int
	Self      model.EmpireState
	Others    []model.EmpireState
	Relations map[model.EmpireID]relation.Summary // Self's view of each other empire
	Context   model.TurnContext
	Galaxy    *model.Galaxy // nil treats every empire as adjacent

	// AttackPending holds back new attack orders while an earlier one waits
	// for its launch turn.
	AttackPending bool
}

// Candidate is another empire scored as a possible attack target.
type Candidate struct {
	ID        model.EmpireID `json:"id"`
	Strength  float64        `json:"strength"`
	Ratio     float64        `json:"ratio"` // target strength / own strength
	Distance  int            `json:"distance"`
	NetScore  float64        `json:"netScore"`
	Tier      relation.Tier  `json:"tier"`
	Treaty    bool           `json:"treaty"`
	Threshold float64        `json:"threshold"` // effective attack threshold
}

// Vetoed reports whether relations forbid attacking the candidate.
func (c Candidate) Vetoed() bool {
	return c.Treaty || c.Tier == relation.Friendly || c.Tier == relation.Allied
}

func (c Candidate) Attackable() bool {
	return !c.Vetoed() && c.Ratio <= c.Threshold
}

// Env wraps a bot's snapshot and exposes helper methods callable from expr
// expressions. It is built once per bot per turn.
type Env struct {
	Turn       int
	Self       model.EmpireState
	Profile    archetype.Profile
	Context    model.TurnContext
	Candidates []Candidate
	Effort     Effort

	strength   float64
	targetIdx  int // index into Candidates, -1 when none
	focus      Focus
	partner    model.EmpireID
	attackType combat.AttackType
	committed  model.Forces
	canAttack  bool
	capacity   int
}

// NewEnv scores candidates, picks the preferred target and diplomacy partner
// and computes the turn's effort split.
func NewEnv(s Snapshot, p archetype.Profile, cfg Config, resolver *combat.Resolver) Env {
	ccfg := resolver.Config()
	env := Env{
		Turn:      s.Turn,
		Self:      s.Self,
		Profile:   p,
		Context:   s.Context,
		Effort:    ComputeEffort(p.Priorities, s.Context),
		strength:  ccfg.Strength(s.Self.Forces, s.Self.ArmyEffectiveness),
		targetIdx: -1,
		capacity:  ccfg.CarrierCapacity,
	}

	for _, o := range s.Others {
		if o.ID == s.Self.ID || o.Eliminated {
			continue
		}
		dist := 0
		if s.Galaxy != nil {
			dist = s.Galaxy.Distance(s.Self.Sector, o.Sector)
			if dist > ccfg.MaxRange {
				continue
			}
		}
		rel := s.Relations[o.ID]
		c := Candidate{
			ID:        o.ID,
			Strength:  ccfg.Strength(o.Forces, o.ArmyEffectiveness),
			Distance:  dist,
			NetScore:  rel.NetScore,
			Tier:      relation.TierFor(rel.NetScore, rel.HasPermanentGrudge),
			Treaty:    s.Context.HasTreaty(o.ID),
			Threshold: p.AttackThreshold,
		}
		c.Ratio = ratio(c.Strength, env.strength)
		if c.Tier == relation.Hostile {
			c.Threshold += cfg.HostileBonus
		}
		env.Candidates = append(env.Candidates, c)
	}
	slices.SortFunc(env.Candidates, func(a, b Candidate) int { return cmp.Compare(a.ID, b.ID) })

	env.targetIdx = preferredTarget(env.Candidates)
	env.partner = diplomacyPartner(s)
	env.attackType, env.committed = attackPlan(s.Self.Forces, p.Style)
	env.canAttack = !s.AttackPending && resolver.Potential(env.attackType, env.committed, s.Self.ArmyEffectiveness) > 0

	for _, f := range env.Effort.Ranked() {
		if f == FocusDiplomacy && env.partner == "" {
			continue
		}
		env.focus = f
		break
	}
	return env
}

func ratio(target, self float64) float64 {
	if self <= 0 {
		return math.Inf(1)
	}
	return target / self
}

// preferredTarget picks the lowest-ratio empire that is not vetoed, favoring
// ones already within threshold; ties go to the lower net score, then ID.
func preferredTarget(cands []Candidate) int {
	best := -1
	for i, c := range cands {
		if c.Vetoed() {
			continue
		}
		if best < 0 || betterTarget(c, cands[best]) {
			best = i
		}
	}
	return best
}

func betterTarget(a, b Candidate) bool {
	if a.Attackable() != b.Attackable() {
		return a.Attackable()
	}
	if a.Ratio != b.Ratio {
		return a.Ratio < b.Ratio
	}
	if a.NetScore != b.NetScore {
		return a.NetScore < b.NetScore
	}
	return a.ID < b.ID
}

// diplomacyPartner is the best-regarded empire that is not hostile.
func diplomacyPartner(s Snapshot) model.EmpireID {
	var (
		best  model.EmpireID
		score float64
	)
	for _, o := range s.Others {
		if o.ID == s.Self.ID || o.Eliminated {
			continue
		}
		rel := s.Relations[o.ID]
		if relation.TierFor(rel.NetScore, rel.HasPermanentGrudge) == relation.Hostile {
			continue
		}
		if best == "" || rel.NetScore > score || (rel.NetScore == score && o.ID < best) {
			best, score = o.ID, rel.NetScore
		}
	}
	return best
}

// attackPlan chooses the attack type and the units committed to it. Stations
// never leave home.
func attackPlan(f model.Forces, style archetype.Style) (combat.AttackType, model.Forces) {
	f = f.Normalize()
	if f.Soldiers > 0 && f.Carriers == 0 && style.Raids() {
		return combat.GuerillaRaid, model.Forces{Soldiers: f.Soldiers}
	}
	f.Stations = 0
	return combat.Invasion, f
}

func (e Env) HasTarget() bool { return e.targetIdx >= 0 }

func (e Env) chosenTarget() (Candidate, bool) {
	if e.targetIdx < 0 {
		return Candidate{}, false
	}
	return e.Candidates[e.targetIdx], true
}

// TargetRatio is +Inf without a target.
func (e Env) TargetRatio() float64 {
	c, ok := e.chosenTarget()
	if !ok {
		return math.Inf(1)
	}
	return c.Ratio
}

// TargetTier is "" without a target.
func (e Env) TargetTier() string {
	c, ok := e.chosenTarget()
	if !ok {
		return ""
	}
	return c.Tier.String()
}

// CanAttack reports whether the planned attack would field any power.
func (e Env) CanAttack() bool { return e.canAttack }

// Focus is the top effort this turn, "" when every effort is zero.
func (e Env) Focus() string { return string(e.focus) }

func (e Env) EffortFor(f string) float64 { return e.Effort.Of(Focus(f)) }

func (e Env) HasDiplomacyPartner() bool { return e.partner != "" }

// StrandedSoldiers counts soldiers the carriers cannot lift.
func (e Env) StrandedSoldiers() int {
	return max(e.Self.Forces.Soldiers-e.Self.Forces.Carriers*e.capacity, 0)
}

// UnitCount is 0 for unknown unit names.
func (e Env) UnitCount(name string) int {
	u, ok := model.ParseUnitType(name)
	if !ok {
		return 0
	}
	return e.Self.Forces.Count(u)
}

func (e Env) Scarcity(r string) float64 { return e.Context.ScarcityOf(model.Resource(r)) }
