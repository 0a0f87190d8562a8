// Package archetype holds the fixed personalities bot empires play with.
package archetype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrUnknownArchetype = errors.New("unknown archetype")

// ID names one of the eight archetypes.
type ID uint8

const (
	Warlord ID = iota
	Diplomat
	Merchant
	Schemer
	Turtle
	Blitzkrieg
	TechRush
	Opportunist
	numIDs
)

var idNames = [numIDs]string{"warlord", "diplomat", "merchant", "schemer", "turtle", "blitzkrieg", "tech_rush", "opportunist"}

func (id ID) String() string {
	if id >= numIDs {
		return fmt.Sprintf("archetype(%d)", uint8(id))
	}
	return idNames[id]
}

// AllIDs lists archetypes in declaration order.
func AllIDs() []ID {
	out := make([]ID, numIDs)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Parse resolves an archetype name, case-insensitively.
func Parse(s string) (ID, error) {
	for i, name := range idNames {
		if strings.EqualFold(name, s) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
}

func (id ID) MarshalText() ([]byte, error) {
	if id >= numIDs {
		return nil, fmt.Errorf("%w: %d", ErrUnknownArchetype, uint8(id))
	}
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Style shapes attack-type and build choices.
type Style uint8

const (
	Balanced Style = iota
	Aggressive
	Defensive
	Opportunistic
)

func (s Style) String() string {
	switch s {
	case Aggressive:
		return "aggressive"
	case Defensive:
		return "defensive"
	case Opportunistic:
		return "opportunistic"
	default:
		return "balanced"
	}
}

// Raids reports whether the style is willing to fall back to guerilla raids.
func (s Style) Raids() bool { return s == Aggressive || s == Opportunistic }

// Passive is an archetype's signature ability tag.
type Passive string

const (
	WarEconomy          Passive = "war_economy"
	TradeNetwork        Passive = "trade_network"
	MarketInsight       Passive = "market_insight"
	ShadowNetwork       Passive = "shadow_network"
	FortificationExpert Passive = "fortification_expert"
	RapidMobilization   Passive = "rapid_mobilization"
	ResearchFocus       Passive = "research_focus"
	Scavenger           Passive = "scavenger"
)

// Priorities weight the four non-combat efforts, each in [0, 1].
type Priorities struct {
	Military  float64 `json:"military" toml:"military" validate:"gte=0,lte=1"`
	Economy   float64 `json:"economy" toml:"economy" validate:"gte=0,lte=1"`
	Diplomacy float64 `json:"diplomacy" toml:"diplomacy" validate:"gte=0,lte=1"`
	Research  float64 `json:"research" toml:"research" validate:"gte=0,lte=1"`
}

// WarningRange bounds how many turns ahead an honest warning is sent.
type WarningRange struct {
	Min int `json:"min" toml:"min" validate:"gte=1"`
	Max int `json:"max" toml:"max" validate:"gtefield=Min"`
}

// Profile is the immutable personality of one archetype.
type Profile struct {
	ID              ID           `json:"id"`
	Priorities      Priorities   `json:"priorities"`
	AttackThreshold float64      `json:"attackThreshold" validate:"gt=0,lte=2"`
	Style           Style        `json:"style"`
	TellRate        float64      `json:"tellRate" validate:"gte=0,lte=1"`
	WarningRange    WarningRange `json:"warningRange"`
	Passive         Passive      `json:"passive" validate:"required"`
}

var defaults = [numIDs]Profile{
	Warlord: {
		Priorities:      Priorities{Military: 0.9, Economy: 0.5, Diplomacy: 0.1, Research: 0.3},
		AttackThreshold: 0.8,
		Style:           Aggressive,
		TellRate:        0.7,
		WarningRange:    WarningRange{Min: 2, Max: 3},
		Passive:         WarEconomy,
	},
	Diplomat: {
		Priorities:      Priorities{Military: 0.3, Economy: 0.6, Diplomacy: 0.9, Research: 0.5},
		AttackThreshold: 0.3,
		Style:           Balanced,
		TellRate:        0.8,
		WarningRange:    WarningRange{Min: 3, Max: 5},
		Passive:         TradeNetwork,
	},
	Merchant: {
		Priorities:      Priorities{Military: 0.3, Economy: 0.9, Diplomacy: 0.6, Research: 0.4},
		AttackThreshold: 0.4,
		Style:           Balanced,
		TellRate:        0.6,
		WarningRange:    WarningRange{Min: 2, Max: 4},
		Passive:         MarketInsight,
	},
	Schemer: {
		Priorities:      Priorities{Military: 0.6, Economy: 0.5, Diplomacy: 0.7, Research: 0.4},
		AttackThreshold: 0.6,
		Style:           Opportunistic,
		TellRate:        0.3,
		WarningRange:    WarningRange{Min: 1, Max: 2},
		Passive:         ShadowNetwork,
	},
	Turtle: {
		Priorities:      Priorities{Military: 0.7, Economy: 0.6, Diplomacy: 0.4, Research: 0.6},
		AttackThreshold: 0.25,
		Style:           Defensive,
		TellRate:        0.9,
		WarningRange:    WarningRange{Min: 3, Max: 5},
		Passive:         FortificationExpert,
	},
	Blitzkrieg: {
		Priorities:      Priorities{Military: 1.0, Economy: 0.4, Diplomacy: 0.1, Research: 0.2},
		AttackThreshold: 0.9,
		Style:           Aggressive,
		TellRate:        0.4,
		WarningRange:    WarningRange{Min: 1, Max: 1},
		Passive:         RapidMobilization,
	},
	TechRush: {
		Priorities:      Priorities{Military: 0.4, Economy: 0.6, Diplomacy: 0.3, Research: 1.0},
		AttackThreshold: 0.45,
		Style:           Balanced,
		TellRate:        0.6,
		WarningRange:    WarningRange{Min: 2, Max: 3},
		Passive:         ResearchFocus,
	},
	Opportunist: {
		Priorities:      Priorities{Military: 0.6, Economy: 0.6, Diplomacy: 0.4, Research: 0.4},
		AttackThreshold: 0.5,
		Style:           Opportunistic,
		TellRate:        0.5,
		WarningRange:    WarningRange{Min: 1, Max: 3},
		Passive:         Scavenger,
	},
}

var validate = validator.New()

// Table is a validated set of profiles, one per archetype.
type Table struct {
	profiles [numIDs]Profile
}

// Default returns the built-in table.
func Default() *Table {
	t := &Table{profiles: defaults}
	for i := range t.profiles {
		t.profiles[i].ID = ID(i)
	}
	return t
}

// Lookup returns the profile for id.
func (t *Table) Lookup(id ID) (Profile, error) {
	if id >= numIDs {
		return Profile{}, fmt.Errorf("%w: %d", ErrUnknownArchetype, uint8(id))
	}
	return t.profiles[id], nil
}

// LookupName resolves a name and returns its profile.
func (t *Table) LookupName(name string) (Profile, error) {
	id, err := Parse(name)
	if err != nil {
		return Profile{}, err
	}
	return t.Lookup(id)
}

// Profiles returns every profile in ID order.
func (t *Table) Profiles() []Profile {
	return append([]Profile(nil), t.profiles[:]...)
}

// Validate checks every profile's ranges. Tables are static, so this runs
// once at startup rather than per decision.
func (t *Table) Validate() error {
	for _, p := range t.profiles {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("archetype %s: %w", p.ID, err)
		}
	}
	return nil
}

// Lookup resolves id against the built-in table.
func Lookup(id ID) (Profile, error) { return Default().Lookup(id) }

// Validate checks the built-in table.
func Validate() error { return Default().Validate() }

func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Style) UnmarshalText(b []byte) error {
	for _, v := range []Style{Balanced, Aggressive, Defensive, Opportunistic} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown style %q", b)
}
