// Package agent is the per-bot decision facade: it pairs an empire with its
// archetype's compiled rules and turns snapshots into actions.
package agent

import (
	"fmt"
	"log/slog"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/rules"
)

// Snapshot is what a bot sees at the start of a turn.
type Snapshot = rules.Snapshot

// Library holds one compiled engine per archetype. Engines are immutable, so
// a Library is shared freely across games.
type Library struct {
	table    *archetype.Table
	cfg      rules.Config
	resolver *combat.Resolver
	engines  map[archetype.ID]*rules.Engine
}

// NewLibrary validates table and compiles every archetype's rules.
func NewLibrary(table *archetype.Table, cfg rules.Config, resolver *combat.Resolver) (*Library, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	lib := &Library{
		table:    table,
		cfg:      cfg,
		resolver: resolver,
		engines:  make(map[archetype.ID]*rules.Engine),
	}
	for _, p := range table.Profiles() {
		engine, err := rules.NewEngine(rules.CompileArchetype(p, cfg))
		if err != nil {
			return nil, fmt.Errorf("archetype %s: %w", p.ID, err)
		}
		lib.engines[p.ID] = engine
	}
	return lib, nil
}

func (l *Library) Table() *archetype.Table { return l.table }

func (l *Library) Config() rules.Config { return l.cfg }

func (l *Library) Resolver() *combat.Resolver { return l.resolver }

// Engine returns the compiled engine for id.
func (l *Library) Engine(id archetype.ID) (*rules.Engine, error) {
	e, ok := l.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", archetype.ErrUnknownArchetype, uint8(id))
	}
	return e, nil
}

// Agent builds the bot for empire playing the named archetype.
func (l *Library) Agent(empire model.EmpireID, archetypeName string) (*Agent, error) {
	p, err := l.table.LookupName(archetypeName)
	if err != nil {
		return nil, fmt.Errorf("empire %s: %w", empire, err)
	}
	return &Agent{
		Empire:   empire,
		Profile:  p,
		Engine:   l.engines[p.ID],
		cfg:      l.cfg,
		resolver: l.resolver,
	}, nil
}

// Agent owns the decision-making for a single bot empire.
type Agent struct {
	Empire   model.EmpireID
	Profile  archetype.Profile
	Engine   *rules.Engine
	cfg      rules.Config
	resolver *combat.Resolver
}

// Decide is a pure function of the snapshot, the archetype and src.
func (a *Agent) Decide(s Snapshot, src entropy.Source) rules.Action {
	s.Self.ID = a.Empire
	env := rules.NewEnv(s, a.Profile, a.cfg, a.resolver)
	action := a.Engine.Decide(env, src)

	slog.Debug("bot decided",
		"turn", s.Turn,
		"empire", a.Empire,
		"archetype", a.Profile.ID,
		"action", action.Kind,
		"rule", action.Rule,
		"focus", env.Focus(),
		"candidates", len(env.Candidates),
	)
	return action
}
