package cli

import (
	"fmt"
	"strings"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/sim"
)

type rosterEntry struct {
	ID        model.EmpireID
	Archetype archetype.ID
}

// parseRoster reads entries of the form "archetype" or "id=archetype". Bare
// archetypes are named after themselves, numbered when repeated. An empty
// list yields one empire per archetype.
func parseRoster(entries []string) ([]rosterEntry, error) {
	if len(entries) == 0 {
		var out []rosterEntry
		for _, id := range archetype.AllIDs() {
			out = append(out, rosterEntry{ID: model.EmpireID(id.String()), Archetype: id})
		}
		return out, nil
	}

	seen := make(map[model.EmpireID]bool)
	counts := make(map[archetype.ID]int)
	out := make([]rosterEntry, 0, len(entries))
	for _, raw := range entries {
		name, arch, named := strings.Cut(strings.TrimSpace(raw), "=")
		if !named {
			arch, name = name, ""
		}
		id, err := archetype.Parse(strings.TrimSpace(arch))
		if err != nil {
			return nil, fmt.Errorf("roster entry %q: %w", raw, err)
		}
		counts[id]++

		empire := model.EmpireID(strings.TrimSpace(name))
		if empire == "" {
			empire = model.EmpireID(id.String())
			if counts[id] > 1 {
				empire = model.EmpireID(fmt.Sprintf("%s-%d", id, counts[id]))
			}
		}
		if seen[empire] {
			return nil, fmt.Errorf("roster entry %q: duplicate empire %s", raw, empire)
		}
		seen[empire] = true
		out = append(out, rosterEntry{ID: empire, Archetype: id})
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("a game needs at least two empires, got %d", len(out))
	}
	return out, nil
}

// startingForces is what every empire fields on turn one.
var startingForces = model.Forces{
	Soldiers:      120,
	Fighters:      12,
	Stations:      6,
	LightCruisers: 5,
	HeavyCruisers: 3,
	Carriers:      1,
}

// newSetup places the roster on a cols x rows galaxy, one empire per sector,
// and rolls a market. Everything is derived from seed.
func newSetup(id string, seed int64, roster []rosterEntry, cols, rows int) (sim.Setup, error) {
	galaxy := model.NewGalaxy(cols, rows)
	if len(roster) > galaxy.Cols*galaxy.Rows {
		return sim.Setup{}, fmt.Errorf("%d empires do not fit a %dx%d galaxy", len(roster), galaxy.Cols, galaxy.Rows)
	}
	src := entropy.NewSeeded(seed).Fork()

	taken := make(map[model.Coord]bool, len(roster))
	empires := make([]model.EmpireState, 0, len(roster))
	for _, r := range roster {
		var at model.Coord
		for {
			at = model.Coord{Col: src.Intn(galaxy.Cols), Row: src.Intn(galaxy.Rows)}
			if !taken[at] {
				break
			}
		}
		taken[at] = true
		empires = append(empires, model.EmpireState{
			ID:                r.ID,
			Name:              string(r.ID),
			Archetype:         r.Archetype.String(),
			Forces:            startingForces,
			ArmyEffectiveness: 1,
			Resources:         model.Resources{Credits: 1000, Food: 500, Ore: 500},
			Sector:            at,
			Sectors:           3,
		})
	}

	market := model.TurnContext{
		Scarcity:     make(map[model.Resource]float64),
		MarketPrices: make(map[model.Resource]float64),
	}
	for _, res := range model.AllResources() {
		market.Scarcity[res] = 0.6 * src.Float64()
		market.MarketPrices[res] = 0.8 + 0.6*src.Float64()
	}

	return sim.Setup{
		ID:      id,
		Seed:    seed,
		Empires: empires,
		Galaxy:  galaxy,
		Market:  market,
	}, nil
}
