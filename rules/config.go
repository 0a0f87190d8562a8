package rules

// Config tunes how relationships bend decisions.
type Config struct {
	// HostileBonus raises the attack threshold against hostile targets.
	HostileBonus float64 `toml:"hostile_bonus" validate:"gte=0,lte=1"`
	// TopMemories caps the records kept in each relationship summary.
	TopMemories int `toml:"top_memories" validate:"gte=0,lte=50"`
}

func DefaultConfig() Config {
	return Config{HostileBonus: 0.2, TopMemories: 5}
}
