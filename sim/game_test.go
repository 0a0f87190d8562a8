package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/dominion/dominion-core/agent"
	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/rules"
)

func newLibrary(t *testing.T) *agent.Library {
	t.Helper()
	lib, err := agent.NewLibrary(archetype.Default(), rules.DefaultConfig(), combat.NewResolver(combat.DefaultConfig()))
	require.NoError(t, err)
	return lib
}

func newGame(t *testing.T, setup Setup) *Game {
	t.Helper()
	g, err := NewGame(setup, Options{
		Library: newLibrary(t),
		Config:  DefaultConfig(),
		Memory:  memory.DefaultConfig(),
	})
	require.NoError(t, err)
	return g
}

func duelSetup(archetypeName string) Setup {
	return Setup{
		ID:   "duel",
		Seed: 7,
		Empires: []model.EmpireState{
			{ID: "red", Archetype: archetypeName, Forces: model.Forces{Soldiers: 50, Carriers: 1, HeavyCruisers: 10}, Sectors: 1},
			{ID: "blue", Forces: model.Forces{Soldiers: 10}, Sectors: 1},
		},
	}
}

// peaceSetup pits a weak bot against a fortress it will never attack.
func peaceSetup() Setup {
	return Setup{
		ID:   "peace",
		Seed: 3,
		Empires: []model.EmpireState{
			{ID: "red", Archetype: "merchant", Forces: model.Forces{Soldiers: 10}},
			{ID: "blue", Forces: model.Forces{HeavyCruisers: 20}},
		},
	}
}

func memoryEvents(recs []memory.Record) []memory.EventType {
	var out []memory.EventType
	for _, r := range recs {
		out = append(out, r.Event)
	}
	return out
}

func TestNewGameRejectsBadSetup(t *testing.T) {
	lib := newLibrary(t)

	_, err := NewGame(duelSetup("warlord"), Options{})
	assert.Error(t, err)

	dup := duelSetup("warlord")
	dup.Empires = append(dup.Empires, model.EmpireState{ID: "red"})
	_, err = NewGame(dup, Options{Library: lib, Config: DefaultConfig()})
	assert.Error(t, err)

	_, err = NewGame(duelSetup("pacifist"), Options{Library: lib, Config: DefaultConfig()})
	assert.True(t, errors.Is(err, archetype.ErrUnknownArchetype))

	bad := duelSetup("warlord")
	bad.Treaties = [][2]model.EmpireID{{"red", "green"}}
	_, err = NewGame(bad, Options{Library: lib, Config: DefaultConfig()})
	assert.Error(t, err)
}

func TestNewGameNormalizesEmpires(t *testing.T) {
	g := newGame(t, Setup{
		Empires: []model.EmpireState{
			{ID: "b", Forces: model.Forces{Soldiers: -3}},
			{ID: "a", ArmyEffectiveness: 9},
		},
	})
	assert.NotEmpty(t, g.ID())
	assert.Equal(t, 1, g.Turn())

	es := g.Empires()
	require.Len(t, es, 2)
	assert.Equal(t, model.EmpireID("a"), es[0].ID)
	assert.Equal(t, 1.5, es[0].ArmyEffectiveness)
	assert.Equal(t, 1.0, es[1].ArmyEffectiveness)
	assert.Equal(t, 0, es[1].Forces.Soldiers)
	assert.Equal(t, 1, es[1].Sectors)
}

func TestSurpriseInvasionCapturesAndEliminates(t *testing.T) {
	g := newGame(t, duelSetup("blitzkrieg"))
	g.src = entropy.NewScripted(0.99)

	r := g.ProcessTurn()
	assert.Equal(t, 1, r.Turn)
	require.Len(t, r.Actions, 1)
	assert.Equal(t, rules.KindAttack, r.Actions[0].Kind)
	assert.False(t, r.Actions[0].Attack.Warned)

	require.Len(t, r.Outcomes, 1)
	out := r.Outcomes[0]
	assert.Equal(t, combat.Attacker, out.Winner)
	assert.True(t, out.TerritoryTransferred)

	red, _ := g.Empire("red")
	blue, _ := g.Empire("blue")
	assert.Equal(t, 2, red.Sectors)
	assert.Equal(t, 48, red.Forces.Soldiers)
	assert.InDelta(t, 1.05, red.ArmyEffectiveness, 1e-9)
	assert.True(t, blue.Eliminated)
	assert.Equal(t, 0, blue.Sectors)
	assert.Equal(t, 8, blue.Forces.Soldiers)
	assert.InDelta(t, 0.95, blue.ArmyEffectiveness, 1e-9)

	assert.Equal(t, []memory.EventType{memory.EventSectorCaptured, memory.EventSurpriseAttack}, memoryEvents(r.NewMemories))
	for _, rec := range r.NewMemories {
		assert.Equal(t, model.EmpireID("blue"), rec.Holder)
		assert.Equal(t, model.EmpireID("red"), rec.Target)
		assert.False(t, rec.PermanentScar)
	}
	assert.Less(t, g.Relation("blue", "red").NetScore, 0.0)

	assert.True(t, g.Over())
	assert.Equal(t, 2, g.Turn())
}

func TestWarnedAttackWaitsForLaunchTurn(t *testing.T) {
	g := newGame(t, duelSetup("warlord"))
	g.src = entropy.NewScripted(0.1, 0.0)

	r1 := g.ProcessTurn()
	require.Len(t, r1.Actions, 1)
	order := r1.Actions[0].Attack
	require.NotNil(t, order)
	assert.True(t, order.Warned)
	assert.Equal(t, 3, order.LaunchTurn)
	assert.Empty(t, r1.Outcomes)
	assert.Equal(t, []memory.EventType{memory.EventWarningReceived}, memoryEvents(r1.NewMemories))
	require.Len(t, g.Pending(), 1)

	r2 := g.ProcessTurn()
	assert.Empty(t, r2.Outcomes)
	for _, a := range r2.Actions {
		assert.NotEqual(t, rules.KindAttack, a.Kind, "no second attack while one is pending")
	}
	assert.Len(t, g.Pending(), 1)

	r3 := g.ProcessTurn()
	require.Len(t, r3.Outcomes, 1)
	assert.True(t, r3.Outcomes[0].TerritoryTransferred)
	assert.Empty(t, g.Pending())
	assert.NotContains(t, memoryEvents(r3.NewMemories), memory.EventSurpriseAttack)
	assert.Contains(t, memoryEvents(r3.NewMemories), memory.EventSectorCaptured)
}

func TestAttackWithoutForceIsRejected(t *testing.T) {
	g := newGame(t, Setup{
		Empires: []model.EmpireState{
			{ID: "red", Forces: model.Forces{Stations: 4}},
			{ID: "blue", Forces: model.Forces{Soldiers: 10}},
		},
	})
	g.pending = append(g.pending, PendingAttack{
		Attacker: "red",
		Order:    rules.AttackOrder{Target: "blue", Type: combat.Invasion, Forces: model.Forces{Soldiers: 20}, LaunchTurn: 1},
	})

	r := g.ProcessTurn()
	assert.Empty(t, r.Outcomes)
	require.Len(t, r.Rejected, 1)
	assert.Equal(t, model.EmpireID("red"), r.Rejected[0].Attacker)
	assert.Contains(t, r.Rejected[0].Reason, "no combat force")
	assert.Empty(t, r.NewMemories)
}

func TestBrokenTreatyIsRemembered(t *testing.T) {
	setup := duelSetup("")
	setup.Treaties = [][2]model.EmpireID{{"blue", "red"}}
	g := newGame(t, setup)
	g.src = entropy.NewScripted(0.99)
	require.True(t, g.HasTreaty("red", "blue"))

	g.pending = append(g.pending, PendingAttack{
		Attacker: "red",
		Order:    rules.AttackOrder{Target: "blue", Type: combat.GuerillaRaid, Forces: model.Forces{Soldiers: 50}, LaunchTurn: 1},
	})
	r := g.ProcessTurn()
	require.Len(t, r.Outcomes, 1)
	assert.Equal(t, []memory.EventType{
		memory.EventGuerillaRaid,
		memory.EventSurpriseAttack,
		memory.EventTreatyBroken,
	}, memoryEvents(r.NewMemories))
	assert.False(t, g.HasTreaty("red", "blue"))
}

func TestGamesWithSameSeedMatch(t *testing.T) {
	setup := Setup{
		ID:     "g1",
		Seed:   42,
		Galaxy: model.NewGalaxy(6, 6),
		Market: model.TurnContext{
			Scarcity:     map[model.Resource]float64{model.ResourceOre: 0.4},
			MarketPrices: map[model.Resource]float64{model.ResourceFood: 1.3},
		},
		Empires: []model.EmpireState{
			{ID: "a", Archetype: "warlord", Forces: model.Forces{Soldiers: 80, Carriers: 1, HeavyCruisers: 6, Fighters: 10}, Sector: model.Coord{Col: 0, Row: 0}},
			{ID: "b", Archetype: "diplomat", Forces: model.Forces{Soldiers: 40, Stations: 5, LightCruisers: 4}, Sector: model.Coord{Col: 2, Row: 1}},
			{ID: "c", Archetype: "schemer", Forces: model.Forces{Soldiers: 60, Fighters: 8}, Sector: model.Coord{Col: 3, Row: 3}},
			{ID: "d", Archetype: "turtle", Forces: model.Forces{Soldiers: 30, Stations: 12, HeavyCruisers: 2}, Sector: model.Coord{Col: 5, Row: 5}},
		},
	}
	run := func() []TurnReport {
		g := newGame(t, setup)
		var reports []TurnReport
		require.NoError(t, g.Run(context.Background(), 25, func(r TurnReport) error {
			reports = append(reports, r)
			return nil
		}))
		return reports
	}

	first, second := run(), run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	g := newGame(t, peaceSetup())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Run(ctx, 5, nil), context.Canceled)
	assert.Equal(t, 1, g.Turn())
}

func TestRunStopsWhenCallbackFails(t *testing.T) {
	g := newGame(t, peaceSetup())
	stop := errors.New("stop")
	turns := 0
	err := g.Run(context.Background(), 10, func(TurnReport) error {
		turns++
		if turns == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, g.Turn())
	assert.False(t, g.Over())
}

func TestPeacefulBotGrowsEconomy(t *testing.T) {
	g := newGame(t, peaceSetup())
	require.NoError(t, g.Run(context.Background(), 3, nil))

	red, _ := g.Empire("red")
	start := peaceSetup().Empires[0]
	grew := red.Resources.Credits > 0 || red.Resources.Research > 0 || red.Forces.Total() > start.Forces.Total()
	assert.True(t, grew, "red = %+v", red)
	assert.Empty(t, g.Pending())
}

func TestMetricsObserveTurns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics("dominion", reg)
	require.NoError(t, err)

	g, err := NewGame(duelSetup("blitzkrieg"), Options{
		Library: newLibrary(t),
		Config:  DefaultConfig(),
		Memory:  memory.DefaultConfig(),
		Metrics: m,
	})
	require.NoError(t, err)
	g.src = entropy.NewScripted(0.99)
	g.ProcessTurn()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Captures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("attack")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Combats.WithLabelValues("invasion", "attacker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Memories.WithLabelValues("sector_captured")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Memories.WithLabelValues("betrayal")))

	_, err = NewMetrics("dominion", reg)
	assert.Error(t, err, "registering twice fails")
}
