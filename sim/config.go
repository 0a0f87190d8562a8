package sim

import "github.com/nstehr/dominion/dominion-core/model"

// Config holds the knobs the turn loop owns. Combat, memory and decision
// tuning live with their packages.
type Config struct {
	// PruneInterval is how often, in turns, faded memories are dropped.
	PruneInterval int `toml:"prune_interval" validate:"gte=1"`
	// BuildBatch is the units one build order adds, indexed by the ordered unit.
	BuildBatch map[string]int `toml:"build_batch" validate:"dive,keys,oneof=soldiers fighters stations light_cruisers heavy_cruisers carriers,endkeys,gte=0"`
	// TradeVolume is credits earned per trade at a 1.0 market price.
	TradeVolume    int `toml:"trade_volume" validate:"gte=0"`
	ResearchOutput int `toml:"research_output" validate:"gte=0"`
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
		PruneInterval: 5,
		BuildBatch: map[string]int{
			model.Soldiers.String():      10,
			model.Fighters.String():      4,
			model.Stations.String():      1,
			model.LightCruisers.String(): 3,
			model.HeavyCruisers.String(): 2,
			model.Carriers.String():      1,
		},
		TradeVolume:    100,
		ResearchOutput: 10,
	}
}

// Batch returns how many units of u a single build order adds. Unlisted units
// build one at a time.
func (c Config) Batch(u model.UnitType) int {
	n, ok := c.BuildBatch[u.String()]
	if !ok {
		return 1
	}
	return n
}
