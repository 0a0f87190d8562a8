package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/config"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/persistence"
	"github.com/nstehr/dominion/dominion-core/replay"
)

func TestParseRoster(t *testing.T) {
	all, err := parseRoster(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(archetype.AllIDs()))
	assert.Equal(t, model.EmpireID("warlord"), all[0].ID)

	got, err := parseRoster([]string{"warlord", "Warlord", "blue=merchant", " red = turtle "})
	require.NoError(t, err)
	assert.Equal(t, []rosterEntry{
		{ID: "warlord", Archetype: archetype.Warlord},
		{ID: "warlord-2", Archetype: archetype.Warlord},
		{ID: "blue", Archetype: archetype.Merchant},
		{ID: "red", Archetype: archetype.Turtle},
	}, got)
}

func TestParseRosterErrors(t *testing.T) {
	_, err := parseRoster([]string{"warlord", "pacifist"})
	assert.ErrorIs(t, err, archetype.ErrUnknownArchetype)

	_, err = parseRoster([]string{"a=warlord", "a=merchant"})
	assert.ErrorContains(t, err, "duplicate empire a")

	_, err = parseRoster([]string{"warlord"})
	assert.ErrorContains(t, err, "at least two empires")
}

func TestNewSetupPlacesEveryEmpire(t *testing.T) {
	roster, err := parseRoster(nil)
	require.NoError(t, err)

	setup, err := newSetup("g", 42, roster, 3, 3)
	require.NoError(t, err)
	require.Len(t, setup.Empires, len(roster))

	seen := make(map[model.Coord]bool)
	for _, e := range setup.Empires {
		assert.False(t, seen[e.Sector], "sector %v used twice", e.Sector)
		seen[e.Sector] = true
		assert.Equal(t, startingForces, e.Forces)
	}

	again, err := newSetup("g", 42, roster, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, setup, again)

	_, err = newSetup("g", 42, roster, 2, 2)
	assert.Error(t, err)
}

func TestRunGamesArchivesAndRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := persistence.Open(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	cfg := config.Default()
	lib, err := cfg.Library()
	require.NoError(t, err)
	roster, err := parseRoster([]string{"red=blitzkrieg", "blue=merchant", "green=diplomat", "grey=opportunist"})
	require.NoError(t, err)
	setups, err := newSetups(7, 3, roster, 4, 4)
	require.NoError(t, err)
	require.Len(t, setups, 3)
	assert.NotEqual(t, setups[0].Seed, setups[1].Seed)

	replayDir := filepath.Join(dir, "replays")
	require.NoError(t, os.MkdirAll(replayDir, 0o755))

	results, err := runGames(ctx, cfg, lib, setups, 20, 2, sinks{archive: a, replayDir: replayDir})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, setups[i].ID, r.ID)
		assert.Positive(t, r.Turns)

		row, err := a.Game(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Turns, row.Turns)
		assert.Equal(t, r.Alive, row.Alive)

		f, err := os.Open(filepath.Join(replayDir, r.ID+".replay"))
		require.NoError(t, err)
		res, err := replay.Verify(ctx, f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, r.Turns, res.Turns)

		lines, err := archivedRelations(ctx, a, cfg, r.ID, "", 0)
		require.NoError(t, err)
		for _, l := range lines {
			assert.NotEqual(t, l.Holder, l.Target)
			assert.Equal(t, row.Turns+1, l.Turn)
		}
	}
}

func TestArchivedRelationsMissingGame(t *testing.T) {
	a, err := persistence.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = archivedRelations(context.Background(), a, config.Default(), "nope", "", 0)
	assert.ErrorIs(t, err, persistence.ErrGameNotFound)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("WARN"))
	assert.Error(t, setupLogging("loud"))
	require.NoError(t, setupLogging("info"))
}
