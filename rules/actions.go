package rules

import (
	"fmt"
	"log/slog"

	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
)

// Kind is the type of order an Action carries.
type Kind uint8

const (
	KindWait Kind = iota
	KindAttack
	KindBuild
	KindTrade
	KindMessage
	KindResearch
)

var kindNames = [...]string{"wait", "attack", "build", "trade", "message", "research"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", b)
}

// AttackOrder launches an attack now or, after an honest warning, later.
type AttackOrder struct {
	Target     model.EmpireID    `json:"target"`
	Type       combat.AttackType `json:"type"`
	Forces     model.Forces      `json:"forces"`
	Ratio      float64           `json:"ratio"`
	Distance   int               `json:"distance"`
	LaunchTurn int               `json:"launchTurn"`
	Warned     bool              `json:"warned"`
	TurnsAhead int               `json:"turnsAhead,omitempty"`
}

type BuildOrder struct {
	Unit model.UnitType `json:"unit"`
}

type TradeOrder struct {
	Resource model.Resource `json:"resource"`
	Price    float64        `json:"price"`
}

// MessageOrder is a diplomatic message to another empire.
type MessageOrder struct {
	Target   model.EmpireID `json:"target"`
	Proposal string         `json:"proposal"`
}

const ProposalTreaty = "treaty"

// Action is one bot's decision for a turn. Exactly one order field is set,
// matching Kind; Wait and Research carry none.
type Action struct {
	Empire  model.EmpireID `json:"empire"`
	Kind    Kind           `json:"kind"`
	Rule    string         `json:"rule,omitempty"`
	Attack  *AttackOrder   `json:"attack,omitempty"`
	Build   *BuildOrder    `json:"build,omitempty"`
	Trade   *TradeOrder    `json:"trade,omitempty"`
	Message *MessageOrder  `json:"message,omitempty"`
	Effort  Effort         `json:"effort"`
}

// Wait is the no-op decision.
func Wait(env Env) Action {
	return Action{Empire: env.Self.ID, Kind: KindWait, Effort: env.Effort}
}

// ActionAttack orders the preferred target attacked. The tell roll decides
// whether an honest warning goes out and how many turns ahead.
func ActionAttack(env Env, src entropy.Source) (Action, bool) {
	c, ok := env.chosenTarget()
	if !ok || !env.canAttack {
		return Action{}, false
	}
	order := &AttackOrder{
		Target:     c.ID,
		Type:       env.attackType,
		Forces:     env.committed,
		Ratio:      c.Ratio,
		Distance:   c.Distance,
		LaunchTurn: env.Turn,
	}
	if src.Float64() < env.Profile.TellRate {
		wr := env.Profile.WarningRange
		order.Warned = true
		order.TurnsAhead = wr.Min + src.Intn(wr.Max-wr.Min+1)
		order.LaunchTurn = env.Turn + order.TurnsAhead
	}
	slog.Debug("attack ordered",
		"empire", env.Self.ID,
		"target", c.ID,
		"type", order.Type,
		"ratio", c.Ratio,
		"warned", order.Warned,
		"launchTurn", order.LaunchTurn,
	)
	return Action{Empire: env.Self.ID, Kind: KindAttack, Attack: order}, true
}

func ActionBuildCarriers(env Env, _ entropy.Source) (Action, bool) {
	return build(env, model.Carriers), true
}

func ActionBuildStations(env Env, _ entropy.Source) (Action, bool) {
	return build(env, model.Stations), true
}

// ActionBuild builds the unit the archetype's style is shortest of.
func ActionBuild(env Env, _ entropy.Source) (Action, bool) {
	return build(env, PreferredUnit(env.Profile.Style, env.Self.Forces)), true
}

func build(env Env, u model.UnitType) Action {
	slog.Debug("build ordered", "empire", env.Self.ID, "unit", u)
	return Action{Empire: env.Self.ID, Kind: KindBuild, Build: &BuildOrder{Unit: u}}
}

// ActionTrade trades the resource the market pays most for.
func ActionTrade(env Env, _ entropy.Source) (Action, bool) {
	r, price := BestMarket(env.Context)
	slog.Debug("trade ordered", "empire", env.Self.ID, "resource", r, "price", price)
	return Action{Empire: env.Self.ID, Kind: KindTrade, Trade: &TradeOrder{Resource: r, Price: price}}, true
}

func ActionProposeTreaty(env Env, _ entropy.Source) (Action, bool) {
	if env.partner == "" {
		return Action{}, false
	}
	slog.Debug("treaty proposed", "empire", env.Self.ID, "target", env.partner)
	return Action{
		Empire:  env.Self.ID,
		Kind:    KindMessage,
		Message: &MessageOrder{Target: env.partner, Proposal: ProposalTreaty},
	}, true
}

func ActionResearch(env Env, _ entropy.Source) (Action, bool) {
	return Action{Empire: env.Self.ID, Kind: KindResearch}, true
}
