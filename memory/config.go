package memory

// Config holds the scar and pruning knobs.
type Config struct {
	ScarThreshold  float64 `toml:"scar_threshold" validate:"gte=1,lte=100"`
	ScarChance     float64 `toml:"scar_chance" validate:"gte=0,lte=1"`
	PruneThreshold float64 `toml:"prune_threshold" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		ScarThreshold:  30,
		ScarChance:     0.20,
		PruneThreshold: 1.0,
	}
}
