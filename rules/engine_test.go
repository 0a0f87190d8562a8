package rules

import (
	"math"
	"testing"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/relation"
)

func profile(t *testing.T, id archetype.ID) archetype.Profile {
	t.Helper()
	p, err := archetype.Lookup(id)
	if err != nil {
		t.Fatalf("lookup %s: %v", id, err)
	}
	return p
}

func decide(t *testing.T, p archetype.Profile, snap Snapshot, src entropy.Source) Action {
	t.Helper()
	engine, err := NewEngine(CompileArchetype(p, DefaultConfig()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	env := NewEnv(snap, p, DefaultConfig(), combat.NewResolver(combat.DefaultConfig()))
	return engine.Decide(env, src)
}

func empire(id string, f model.Forces) model.EmpireState {
	return model.EmpireState{ID: model.EmpireID(id), Forces: f, ArmyEffectiveness: 1.0}
}

// duel pits red (10 heavy cruisers, strength 150) against blue.
func duel(blueHeavy int) Snapshot {
	return Snapshot{
		Turn:   12,
		Self:   empire("red", model.Forces{HeavyCruisers: 10}),
		Others: []model.EmpireState{empire("blue", model.Forces{HeavyCruisers: blueHeavy})},
	}
}

func TestWarlordAttackThreshold(t *testing.T) {
	warlord := profile(t, archetype.Warlord)

	a := decide(t, warlord, duel(7), entropy.NewScripted(0.99))
	if a.Kind != KindAttack {
		t.Fatalf("ratio 0.7 vs threshold 0.8: kind = %s, want attack", a.Kind)
	}
	if a.Attack.Target != "blue" || a.Rule != "attack" {
		t.Errorf("attack = %+v rule %q, want blue via attack", a.Attack, a.Rule)
	}
	if math.Abs(a.Attack.Ratio-0.7) > 1e-9 {
		t.Errorf("ratio = %v, want 0.7", a.Attack.Ratio)
	}
	if a.Attack.Type != combat.Invasion {
		t.Errorf("type = %s, want invasion", a.Attack.Type)
	}
	if a.Attack.Warned || a.Attack.LaunchTurn != 12 {
		t.Errorf("unwarned attack should launch this turn, got %+v", a.Attack)
	}

	a = decide(t, warlord, duel(9), entropy.NewScripted(0.99))
	if a.Kind == KindAttack {
		t.Fatalf("ratio 0.9 vs threshold 0.8 should not attack")
	}
}

func TestHostileBonusRaisesThreshold(t *testing.T) {
	snap := duel(9)
	snap.Relations = map[model.EmpireID]relation.Summary{"blue": {NetScore: -150}}
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind != KindAttack || a.Rule != "attack-hostile" {
		t.Fatalf("hostile target at 0.9 should be attacked, got %s via %q", a.Kind, a.Rule)
	}
}

func TestFriendlyAndTreatyVeto(t *testing.T) {
	warlord := profile(t, archetype.Warlord)

	for _, score := range []float64{30, 150} {
		snap := duel(2)
		snap.Relations = map[model.EmpireID]relation.Summary{"blue": {NetScore: score}}
		if a := decide(t, warlord, snap, entropy.NewScripted(0.99)); a.Kind == KindAttack {
			t.Errorf("score %v should veto the attack", score)
		}
	}

	snap := duel(2)
	snap.Context.Treaties = map[model.EmpireID]bool{"blue": true}
	if a := decide(t, warlord, snap, entropy.NewScripted(0.99)); a.Kind == KindAttack {
		t.Error("an active treaty should veto the attack")
	}

	// A grudge caps an otherwise allied score at unfriendly, lifting the veto.
	snap = duel(2)
	snap.Relations = map[model.EmpireID]relation.Summary{"blue": {NetScore: 150, HasPermanentGrudge: true}}
	if a := decide(t, warlord, snap, entropy.NewScripted(0.99)); a.Kind != KindAttack {
		t.Errorf("grudge-capped relation should allow attack, got %s", a.Kind)
	}
}

func TestTellRoll(t *testing.T) {
	warlord := profile(t, archetype.Warlord) // tell 0.7, warning 2-3 turns

	a := decide(t, warlord, duel(7), entropy.NewScripted(0.5, 0.99))
	if a.Kind != KindAttack || !a.Attack.Warned {
		t.Fatalf("roll 0.5 < 0.7 should warn, got %+v", a.Attack)
	}
	if a.Attack.TurnsAhead != 3 || a.Attack.LaunchTurn != 15 {
		t.Errorf("warning = %d turns, launch %d; want 3, 15", a.Attack.TurnsAhead, a.Attack.LaunchTurn)
	}

	a = decide(t, warlord, duel(7), entropy.NewScripted(0.5, 0.0))
	if a.Attack.TurnsAhead != 2 {
		t.Errorf("low draw should warn 2 turns ahead, got %d", a.Attack.TurnsAhead)
	}

	a = decide(t, warlord, duel(7), entropy.NewScripted(0.7))
	if a.Attack.Warned {
		t.Error("roll equal to tell rate should not warn")
	}
}

func TestTellRollStaysInWarningRange(t *testing.T) {
	schemer := profile(t, archetype.Schemer)
	src := entropy.NewSeeded(5)
	warned := 0
	for i := 0; i < 200; i++ {
		a := decide(t, schemer, duel(5), src)
		if a.Kind != KindAttack {
			t.Fatalf("iteration %d: expected attack, got %s", i, a.Kind)
		}
		if !a.Attack.Warned {
			continue
		}
		warned++
		wr := schemer.WarningRange
		if a.Attack.TurnsAhead < wr.Min || a.Attack.TurnsAhead > wr.Max {
			t.Fatalf("turns ahead %d outside [%d, %d]", a.Attack.TurnsAhead, wr.Min, wr.Max)
		}
	}
	if warned == 0 || warned == 200 {
		t.Errorf("expected a mix of warned and silent attacks, got %d/200 warned", warned)
	}
}

func TestGuerillaRaidWithoutCarriers(t *testing.T) {
	snap := Snapshot{
		Self:   empire("red", model.Forces{Soldiers: 500, Stations: 10}),
		Others: []model.EmpireState{empire("blue", model.Forces{Soldiers: 100})},
	}
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind != KindAttack || a.Attack.Type != combat.GuerillaRaid {
		t.Fatalf("aggressive soldiers without carriers should raid, got %s", a.Kind)
	}
	if a.Attack.Forces != (model.Forces{Soldiers: 500}) {
		t.Errorf("raid commits soldiers only, got %+v", a.Attack.Forces)
	}

	// A balanced archetype will not raid and cannot invade without carriers.
	a = decide(t, profile(t, archetype.Diplomat), snap, entropy.NewScripted(0.99))
	if a.Kind == KindAttack {
		t.Errorf("diplomat without carriers should not attack, got %+v", a.Attack)
	}
}

func TestInvasionLeavesStationsHome(t *testing.T) {
	snap := duel(2)
	snap.Self.Forces.Stations = 20
	snap.Self.Forces.Soldiers = 100
	snap.Self.Forces.Carriers = 1
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind != KindAttack {
		t.Fatalf("expected attack, got %s", a.Kind)
	}
	want := model.Forces{HeavyCruisers: 10, Soldiers: 100, Carriers: 1}
	if a.Attack.Forces != want {
		t.Errorf("committed = %+v, want %+v", a.Attack.Forces, want)
	}
}

func TestTargetSelection(t *testing.T) {
	snap := Snapshot{
		Self: empire("red", model.Forces{HeavyCruisers: 10}),
		Others: []model.EmpireState{
			empire("d", model.Forces{HeavyCruisers: 5}),
			empire("c", model.Forces{HeavyCruisers: 5}),
			empire("b", model.Forces{HeavyCruisers: 5}),
			empire("a", model.Forces{HeavyCruisers: 1}),
			{ID: "e", Eliminated: true},
		},
		// a is friendly and vetoed; c and d tie on ratio and score.
		Relations: map[model.EmpireID]relation.Summary{
			"a": {NetScore: 60},
			"b": {NetScore: 10},
			"c": {NetScore: -10},
			"d": {NetScore: -10},
		},
	}
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind != KindAttack || a.Attack.Target != "c" {
		t.Fatalf("expected attack on c, got %+v", a.Attack)
	}
}

func TestOutOfRangeIgnored(t *testing.T) {
	snap := duel(1)
	snap.Galaxy = model.NewGalaxy(10, 10)
	snap.Self.Sector = model.Coord{Col: 0, Row: 0}
	snap.Others[0].Sector = model.Coord{Col: 9, Row: 9}
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind == KindAttack {
		t.Error("unreachable empire should not be attacked")
	}

	snap.Others[0].Sector = model.Coord{Col: 3, Row: 4}
	a = decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind != KindAttack || a.Attack.Distance != 4 {
		t.Errorf("empire 4 sectors away should be attacked, got %+v", a.Attack)
	}
}

func TestVoidSectorIgnored(t *testing.T) {
	snap := duel(1)
	snap.Galaxy = model.NewGalaxy(10, 10)
	snap.Self.Sector = model.Coord{Col: 0, Row: 0}
	snap.Others[0].Sector = model.Coord{Col: 1, Row: 1}
	snap.Galaxy.Set(snap.Others[0].Sector, model.Void)
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted(0.99))
	if a.Kind == KindAttack {
		t.Errorf("empire in a void sector should not be attacked, got %+v", a.Attack)
	}
}

func TestNoForcesNoAttack(t *testing.T) {
	snap := Snapshot{
		Self:   empire("red", model.Forces{}),
		Others: []model.EmpireState{empire("blue", model.Forces{})},
	}
	a := decide(t, profile(t, archetype.Blitzkrieg), snap, entropy.NewScripted(0.0))
	if a.Kind == KindAttack {
		t.Error("an empire with no forces must not attack")
	}
}

func TestWaitWhenNothingApplies(t *testing.T) {
	p := profile(t, archetype.Diplomat)
	p.Priorities = archetype.Priorities{}
	a := decide(t, p, Snapshot{Self: empire("red", model.Forces{})}, entropy.NewScripted())
	if a.Kind != KindWait || a.Rule != "" {
		t.Errorf("all-zero priorities should wait, got %s via %q", a.Kind, a.Rule)
	}
	if a.Empire != "red" {
		t.Errorf("wait empire = %q, want red", a.Empire)
	}
}

func TestBuildPrefersCarriersForStrandedSoldiers(t *testing.T) {
	snap := Snapshot{Self: empire("red", model.Forces{Soldiers: 500, Carriers: 1})}
	a := decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted())
	if a.Kind != KindBuild || a.Build.Unit != model.Carriers {
		t.Fatalf("expected carriers, got %s %+v", a.Kind, a.Build)
	}

	snap.Self.Forces.Carriers = 5
	a = decide(t, profile(t, archetype.Warlord), snap, entropy.NewScripted())
	if a.Kind != KindBuild || a.Build.Unit != model.HeavyCruisers {
		t.Errorf("lifted army should grow heavy cruisers, got %+v", a.Build)
	}
}

func TestDiplomatMessagesBestPartner(t *testing.T) {
	snap := Snapshot{
		Self: empire("red", model.Forces{HeavyCruisers: 1}),
		Others: []model.EmpireState{
			empire("blue", model.Forces{HeavyCruisers: 10}),
			empire("green", model.Forces{HeavyCruisers: 10}),
			empire("black", model.Forces{HeavyCruisers: 10}),
		},
		Relations: map[model.EmpireID]relation.Summary{
			"blue":  {NetScore: 20},
			"green": {NetScore: 40},
			"black": {NetScore: -300},
		},
	}
	a := decide(t, profile(t, archetype.Diplomat), snap, entropy.NewScripted())
	if a.Kind != KindMessage || a.Message.Target != "green" || a.Message.Proposal != ProposalTreaty {
		t.Fatalf("expected treaty proposal to green, got %s %+v", a.Kind, a.Message)
	}
}

func TestDiplomacyFallsThroughWithoutPartner(t *testing.T) {
	snap := Snapshot{
		Self:      empire("red", model.Forces{HeavyCruisers: 1}),
		Others:    []model.EmpireState{empire("black", model.Forces{HeavyCruisers: 10})},
		Relations: map[model.EmpireID]relation.Summary{"black": {NetScore: -300}},
	}
	a := decide(t, profile(t, archetype.Diplomat), snap, entropy.NewScripted())
	if a.Kind != KindTrade {
		t.Fatalf("diplomat with only hostile neighbours should trade, got %s", a.Kind)
	}
	if a.Trade.Resource != model.ResourceCredits || a.Trade.Price != 1 {
		t.Errorf("flat market should trade credits at 1.0, got %+v", a.Trade)
	}
}

func TestTechRushResearches(t *testing.T) {
	a := decide(t, profile(t, archetype.TechRush), Snapshot{Self: empire("red", model.Forces{})}, entropy.NewScripted())
	if a.Kind != KindResearch {
		t.Errorf("tech rush should research, got %s", a.Kind)
	}
	if a.Effort.Research <= a.Effort.Economy {
		t.Errorf("research effort %v should exceed economy %v", a.Effort.Research, a.Effort.Economy)
	}
}

func TestDecideDeterministic(t *testing.T) {
	snap := duel(4)
	p := profile(t, archetype.Opportunist)
	a := decide(t, p, snap, entropy.NewSeeded(99))
	b := decide(t, p, snap, entropy.NewSeeded(99))
	if a.Kind != KindAttack || b.Kind != KindAttack {
		t.Fatalf("expected attacks, got %s and %s", a.Kind, b.Kind)
	}
	if *a.Attack != *b.Attack {
		t.Errorf("same seed produced %+v and %+v", a.Attack, b.Attack)
	}
}

func TestTurtleFortifiesThinDefenses(t *testing.T) {
	turtle := profile(t, archetype.Turtle)
	snap := Snapshot{Self: empire("red", model.Forces{Soldiers: 40, Stations: 2})}

	a := decide(t, turtle, snap, entropy.NewScripted())
	if a.Kind != KindBuild || a.Rule != "fortify" || a.Build.Unit != model.Stations {
		t.Fatalf("thin defenses should fortify, got %s via %q %+v", a.Kind, a.Rule, a.Build)
	}

	snap.Self.Forces.Stations = 10
	a = decide(t, turtle, snap, entropy.NewScripted())
	if a.Kind != KindBuild || a.Rule != "build-military" {
		t.Errorf("manned stations should fall back to build-military, got %s via %q", a.Kind, a.Rule)
	}
}

func TestOreExhaustionRedirectsToResearch(t *testing.T) {
	p := profile(t, archetype.Warlord)
	p.Priorities = archetype.Priorities{Military: 1, Research: 0.2}
	snap := Snapshot{
		Self:    empire("red", model.Forces{Soldiers: 10, Carriers: 1}),
		Context: model.TurnContext{Scarcity: map[model.Resource]float64{model.ResourceOre: 1}},
	}

	a := decide(t, p, snap, entropy.NewScripted())
	if a.Kind != KindResearch || a.Rule != "research-starved" {
		t.Fatalf("no ore should mean research, got %s via %q", a.Kind, a.Rule)
	}

	snap.Context.Scarcity[model.ResourceOre] = 0.5
	a = decide(t, p, snap, entropy.NewScripted())
	if a.Kind != KindBuild || a.Rule != "build-military" {
		t.Errorf("with ore left the bot should build, got %s via %q", a.Kind, a.Rule)
	}
}
