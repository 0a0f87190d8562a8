// Package sim runs games: it asks every bot for a decision, resolves the
// attacks that launch, and turns what happened into memories.
package sim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/nstehr/dominion/dominion-core/agent"
	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/relation"
	"github.com/nstehr/dominion/dominion-core/rules"
)

// Setup is the serializable starting position of a game. Replaying the same
// Setup with the same configuration reproduces every turn.
type Setup struct {
	ID        string              `json:"id"`
	Seed      int64               `json:"seed"`
	StartTurn int                 `json:"startTurn,omitempty"`
	Empires   []model.EmpireState `json:"empires"`
	Galaxy    *model.Galaxy       `json:"galaxy,omitempty"`
	Market    model.TurnContext   `json:"market"`
	Treaties  [][2]model.EmpireID `json:"treaties,omitempty"`
	Memories  []memory.Record     `json:"memories,omitempty"`
}

// Options are the shared, non-serialized dependencies of a game.
type Options struct {
	Library *agent.Library
	Config  Config
	Memory  memory.Config
	Metrics *Metrics // optional
}

// PendingAttack is an ordered attack waiting for its launch turn.
type PendingAttack struct {
	Attacker    model.EmpireID    `json:"attacker"`
	OrderedTurn int               `json:"orderedTurn"`
	Order       rules.AttackOrder `json:"order"`
}

// Rejection is a launched attack that never reached combat.
type Rejection struct {
	Attacker model.EmpireID    `json:"attacker"`
	Target   model.EmpireID    `json:"target"`
	Type     combat.AttackType `json:"type"`
	Reason   string            `json:"reason"`
}

// TurnReport is everything one turn produced.
type TurnReport struct {
	GameID      string              `json:"gameId"`
	Turn        int                 `json:"turn"`
	Actions     []rules.Action      `json:"actions"`
	Outcomes    []combat.Outcome    `json:"outcomes"`
	Rejected    []Rejection         `json:"rejected,omitempty"`
	NewMemories []memory.Record     `json:"newMemories"`
	Pruned      []memory.Record     `json:"pruned,omitempty"`
	Empires     []model.EmpireState `json:"empires"`
}

// Game is one running game. It is not safe for concurrent use; run separate
// games on separate goroutines instead.
type Game struct {
	id       string
	turn     int
	src      entropy.Source
	lib      *agent.Library
	resolver *combat.Resolver
	store    *memory.Store
	empires  map[model.EmpireID]*model.EmpireState
	order    []model.EmpireID
	agents   map[model.EmpireID]*agent.Agent
	galaxy   *model.Galaxy
	market   model.TurnContext
	treaties map[pairKey]bool
	pending  []PendingAttack
	cfg      Config
	metrics  *Metrics
}

// NewGame validates the static tables and the setup and builds a game ready
// for its first turn. Empires without an archetype never act but still defend.
func NewGame(setup Setup, opts Options) (*Game, error) {
	if opts.Library == nil {
		return nil, errors.New("sim: a decision library is required")
	}
	if err := archetype.Validate(); err != nil {
		return nil, err
	}
	if err := memory.ValidateEventTable(); err != nil {
		return nil, err
	}
	if opts.Config.PruneInterval < 1 {
		opts.Config.PruneInterval = 1
	}

	g := &Game{
		id:       setup.ID,
		turn:     max(setup.StartTurn, 1),
		src:      entropy.NewSeeded(setup.Seed),
		lib:      opts.Library,
		resolver: opts.Library.Resolver(),
		store:    memory.NewStore(opts.Memory),
		empires:  make(map[model.EmpireID]*model.EmpireState, len(setup.Empires)),
		agents:   make(map[model.EmpireID]*agent.Agent),
		galaxy:   setup.Galaxy,
		market:   setup.Market,
		treaties: make(map[pairKey]bool),
		cfg:      opts.Config,
		metrics:  opts.Metrics,
	}
	if g.id == "" {
		g.id = uuid.NewString()
	}

	ccfg := g.resolver.Config()
	for _, e := range setup.Empires {
		if e.ID == "" {
			return nil, errors.New("sim: empire with empty id")
		}
		if _, dup := g.empires[e.ID]; dup {
			return nil, fmt.Errorf("sim: duplicate empire %s", e.ID)
		}
		e.Forces = e.Forces.Normalize()
		if e.ArmyEffectiveness <= 0 {
			e.ArmyEffectiveness = 1
		}
		e.ArmyEffectiveness = ccfg.ClampEffectiveness(e.ArmyEffectiveness)
		if e.Sectors <= 0 && !e.Eliminated {
			e.Sectors = 1
		}
		g.empires[e.ID] = &e
		g.order = append(g.order, e.ID)

		if e.Archetype == "" {
			continue
		}
		bot, err := opts.Library.Agent(e.ID, e.Archetype)
		if err != nil {
			return nil, err
		}
		g.agents[e.ID] = bot
	}
	slices.Sort(g.order)

	for _, t := range setup.Treaties {
		if g.empires[t[0]] == nil || g.empires[t[1]] == nil {
			return nil, fmt.Errorf("sim: treaty between unknown empires %s and %s", t[0], t[1])
		}
		g.treaties[pairOf(t[0], t[1])] = true
	}
	if err := g.store.Load(setup.Memories...); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) ID() string { return g.id }

// Turn is the number of the next turn to be processed.
func (g *Game) Turn() int { return g.turn }

func (g *Game) Store() *memory.Store { return g.store }

// Empires returns a copy of every empire's state, sorted by ID.
func (g *Game) Empires() []model.EmpireState {
	out := make([]model.EmpireState, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.empires[id])
	}
	return out
}

// Empire returns a copy of one empire's state.
func (g *Game) Empire(id model.EmpireID) (model.EmpireState, bool) {
	e, ok := g.empires[id]
	if !ok {
		return model.EmpireState{}, false
	}
	return *e, true
}

func (g *Game) Pending() []PendingAttack { return slices.Clone(g.pending) }

// HasTreaty reports whether a and b are bound by an active treaty.
func (g *Game) HasTreaty(a, b model.EmpireID) bool { return g.treaties[pairOf(a, b)] }

// Relation summarizes holder's view of target as of the next turn.
func (g *Game) Relation(holder, target model.EmpireID) relation.Summary {
	return relation.SummarizeTop(g.store.Records(holder, target), g.turn, g.lib.Config().TopMemories)
}

// Alive counts empires not yet eliminated.
func (g *Game) Alive() int {
	n := 0
	for _, e := range g.empires {
		if !e.Eliminated {
			n++
		}
	}
	return n
}

// Over reports whether at most one empire is left standing.
func (g *Game) Over() bool { return g.Alive() <= 1 }

// Run processes up to n turns, stopping early when the game is over. ctx is
// only checked between turns. fn, when set, sees every report and can stop
// the run by returning an error.
func (g *Game) Run(ctx context.Context, n int, fn func(TurnReport) error) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.Over() {
			slog.Info("game over", "game", g.id, "turn", g.turn)
			return nil
		}
		report := g.ProcessTurn()
		if fn == nil {
			continue
		}
		if err := fn(report); err != nil {
			return err
		}
	}
	return nil
}

// ProcessTurn runs one turn to completion: every bot decides in ID order
// against the state at the start of the turn, orders take effect, attacks due
// this turn resolve, and the results are remembered.
func (g *Game) ProcessTurn() TurnReport {
	turn := g.turn
	report := TurnReport{GameID: g.id, Turn: turn}
	states := g.Empires()
	relations := g.relations(turn)

	for _, s := range states {
		bot := g.agents[s.ID]
		if bot == nil || s.Eliminated {
			continue
		}
		snap := agent.Snapshot{
			Turn:      turn,
			Self:      s,
			Others:    othersOf(states, s.ID),
			Relations: relations[s.ID],
			Context:   g.contextFor(s.ID),
			Galaxy:    g.galaxy,

			AttackPending: g.attackPending(s.ID),
		}
		report.Actions = append(report.Actions, bot.Decide(snap, g.src))
	}

	observations := detectOrderEvents(report.Actions)
	for _, a := range report.Actions {
		g.apply(a)
	}
	for _, t := range signedTreaties(report.Actions) {
		g.treaties[pairOf(t[0], t[1])] = true
		slog.Info("treaty signed", "game", g.id, "turn", turn, "a", t[0], "b", t[1])
	}

	battles, rejected := g.resolveLaunched(turn, relations)
	report.Rejected = rejected
	for _, b := range battles {
		report.Outcomes = append(report.Outcomes, b.outcome)
	}
	observations = append(observations, detectBattleEvents(battles)...)

	for _, o := range observations {
		rec, err := g.store.Record(o.Holder, o.Target, o.Event, turn, g.src)
		if err != nil {
			slog.Error("failed to record memory", "game", g.id, "holder", o.Holder, "target", o.Target, "event", o.Event, "error", err)
			continue
		}
		slog.Debug("memory recorded", "holder", o.Holder, "target", o.Target, "event", o.Event, "detail", o.Detail)
		report.NewMemories = append(report.NewMemories, rec)
	}
	if turn%g.cfg.PruneInterval == 0 {
		report.Pruned = g.store.Prune(turn)
	}

	report.Empires = g.Empires()
	g.metrics.observe(report)
	slog.Info("turn processed",
		"game", g.id,
		"turn", turn,
		"actions", len(report.Actions),
		"combats", len(report.Outcomes),
		"memories", len(report.NewMemories),
		"alive", g.Alive(),
	)
	g.turn++
	return report
}

// relations summarizes every holder's memories as of turn.
func (g *Game) relations(turn int) map[model.EmpireID]map[model.EmpireID]relation.Summary {
	top := g.lib.Config().TopMemories
	out := make(map[model.EmpireID]map[model.EmpireID]relation.Summary)
	for _, h := range g.store.Holders() {
		m := make(map[model.EmpireID]relation.Summary)
		for _, t := range g.store.Targets(h) {
			m[t] = relation.SummarizeTop(g.store.Records(h, t), turn, top)
		}
		out[h] = m
	}
	return out
}

func (g *Game) attackPending(id model.EmpireID) bool {
	return slices.ContainsFunc(g.pending, func(p PendingAttack) bool { return p.Attacker == id })
}

func (g *Game) contextFor(id model.EmpireID) model.TurnContext {
	ctx := model.TurnContext{
		Scarcity:     g.market.Scarcity,
		MarketPrices: g.market.MarketPrices,
		Treaties:     make(map[model.EmpireID]bool),
	}
	for k := range g.treaties {
		switch id {
		case k.from:
			ctx.Treaties[k.to] = true
		case k.to:
			ctx.Treaties[k.from] = true
		}
	}
	return ctx
}

// apply carries out the immediate effect of an order. Attacks are queued.
func (g *Game) apply(a rules.Action) {
	e := g.empires[a.Empire]
	switch a.Kind {
	case rules.KindAttack:
		if a.Attack == nil {
			return
		}
		g.pending = append(g.pending, PendingAttack{Attacker: a.Empire, OrderedTurn: g.turn, Order: *a.Attack})
	case rules.KindBuild:
		if a.Build == nil {
			return
		}
		u := a.Build.Unit
		e.Forces = e.Forces.With(u, e.Forces.Count(u)+g.cfg.Batch(u))
	case rules.KindTrade:
		if a.Trade == nil {
			return
		}
		e.Resources.Credits += int(math.Round(float64(g.cfg.TradeVolume) * a.Trade.Price))
	case rules.KindResearch:
		e.Resources.Research += g.cfg.ResearchOutput
	}
}

// resolveLaunched fights every pending attack due by turn, ordered by launch
// turn, then attacker, then target.
func (g *Game) resolveLaunched(turn int, relations map[model.EmpireID]map[model.EmpireID]relation.Summary) ([]battle, []Rejection) {
	var due, later []PendingAttack
	for _, p := range g.pending {
		if p.Order.LaunchTurn <= turn {
			due = append(due, p)
		} else {
			later = append(later, p)
		}
	}
	g.pending = later
	slices.SortStableFunc(due, func(a, b PendingAttack) int {
		return cmp.Or(
			cmp.Compare(a.Order.LaunchTurn, b.Order.LaunchTurn),
			cmp.Compare(a.Attacker, b.Attacker),
			cmp.Compare(a.Order.Target, b.Order.Target),
		)
	})

	var (
		battles  []battle
		rejected []Rejection
	)
	for _, p := range due {
		reject := func(reason string) {
			slog.Warn("attack rejected", "game", g.id, "turn", turn, "attacker", p.Attacker, "target", p.Order.Target, "reason", reason)
			rejected = append(rejected, Rejection{Attacker: p.Attacker, Target: p.Order.Target, Type: p.Order.Type, Reason: reason})
		}
		att, def := g.empires[p.Attacker], g.empires[p.Order.Target]
		if def == nil {
			reject("unknown target")
			continue
		}
		if att.Eliminated || def.Eliminated {
			reject("empire eliminated before launch")
			continue
		}

		req := combat.Request{
			Type: p.Order.Type,
			Attacker: combat.Side{
				EmpireID:          att.ID,
				Forces:            capForces(p.Order.Forces, att.Forces),
				ArmyEffectiveness: att.ArmyEffectiveness,
			},
			Defender: combat.Side{
				EmpireID:          def.ID,
				Forces:            def.Forces,
				ArmyEffectiveness: def.ArmyEffectiveness,
			},
			Distance: g.distance(att, def),
		}
		out, err := g.resolver.Resolve(req)
		if err != nil {
			reject(err.Error())
			continue
		}
		g.applyOutcome(att, def, out)

		treaty := g.HasTreaty(att.ID, def.ID)
		if treaty {
			delete(g.treaties, pairOf(att.ID, def.ID))
		}
		rel := relations[def.ID][att.ID]
		battles = append(battles, battle{
			outcome: out,
			warned:  p.Order.Warned,
			treaty:  treaty,
			tier:    relation.TierFor(rel.NetScore, rel.HasPermanentGrudge),
		})
	}
	return battles, rejected
}

func (g *Game) applyOutcome(att, def *model.EmpireState, out combat.Outcome) {
	ccfg := g.resolver.Config()
	att.Forces = att.Forces.Sub(out.AttackerLosses)
	def.Forces = def.Forces.Sub(out.DefenderLosses)
	att.ArmyEffectiveness = ccfg.ClampEffectiveness(att.ArmyEffectiveness + out.AttackerEffectivenessDelta)
	def.ArmyEffectiveness = ccfg.ClampEffectiveness(def.ArmyEffectiveness + out.DefenderEffectivenessDelta)

	if !out.TerritoryTransferred {
		return
	}
	att.Sectors++
	def.Sectors--
	if def.Sectors <= 0 {
		def.Sectors = 0
		def.Eliminated = true
		slog.Info("empire eliminated", "game", g.id, "empire", def.ID, "by", att.ID)
	}
}

func (g *Game) distance(a, b *model.EmpireState) int {
	if g.galaxy == nil {
		return 0
	}
	return g.galaxy.Distance(a.Sector, b.Sector)
}

// capForces limits an ordered force to what the attacker still has.
func capForces(ordered, available model.Forces) model.Forces {
	out := ordered.Normalize()
	for _, u := range model.AllUnitTypes() {
		out = out.With(u, min(out.Count(u), available.Count(u)))
	}
	return out
}

func othersOf(states []model.EmpireState, self model.EmpireID) []model.EmpireState {
	out := make([]model.EmpireState, 0, len(states))
	for _, s := range states {
		if s.ID != self {
			out = append(out, s)
		}
	}
	return out
}

func pairOf(a, b model.EmpireID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}
