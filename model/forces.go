package model

import "fmt"

// UnitType identifies one of the six military unit classes an empire fields.
type UnitType uint8

const (
	Soldiers      UnitType = iota // ground troops
	Fighters                      // light strike craft
	Stations                      // static orbital/ground defenses
	LightCruisers                 // fast escorts
	HeavyCruisers                 // capital ships
	Carriers                      // troop transports, no combat power
)

// NumUnitTypes is the total number of unit types.
const NumUnitTypes = 6

var unitNames = [NumUnitTypes]string{
	"soldiers", "fighters", "stations", "light_cruisers", "heavy_cruisers", "carriers",
}

// AllUnitTypes lists every unit type in declaration order.
func AllUnitTypes() []UnitType {
	return []UnitType{Soldiers, Fighters, Stations, LightCruisers, HeavyCruisers, Carriers}
}

func (u UnitType) String() string {
	if int(u) < NumUnitTypes {
		return unitNames[u]
	}
	return "unknown"
}

// Valid reports whether u is one of the declared unit types.
func (u UnitType) Valid() bool { return int(u) < NumUnitTypes }

// ParseUnitType maps a unit name back to its type.
func ParseUnitType(s string) (UnitType, bool) {
	for i, n := range unitNames {
		if n == s {
			return UnitType(i), true
		}
	}
	return 0, false
}

func (u UnitType) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *UnitType) UnmarshalText(b []byte) error {
	v, ok := ParseUnitType(string(b))
	if !ok {
		return fmt.Errorf("unknown unit type %q", b)
	}
	*u = v
	return nil
}

// Forces is a fixed-size count of each unit type. Counts are never negative
// once normalized.
type Forces struct {
	Soldiers      int `json:"soldiers" toml:"soldiers"`
	Fighters      int `json:"fighters" toml:"fighters"`
	Stations      int `json:"stations" toml:"stations"`
	LightCruisers int `json:"lightCruisers" toml:"light_cruisers"`
	HeavyCruisers int `json:"heavyCruisers" toml:"heavy_cruisers"`
	Carriers      int `json:"carriers" toml:"carriers"`
}

// Count returns the number of units of type u.
func (f Forces) Count(u UnitType) int {
	switch u {
	case Soldiers:
		return f.Soldiers
	case Fighters:
		return f.Fighters
	case Stations:
		return f.Stations
	case LightCruisers:
		return f.LightCruisers
	case HeavyCruisers:
		return f.HeavyCruisers
	case Carriers:
		return f.Carriers
	}
	return 0
}

// With returns a copy of f with the count for u replaced by n (floored at 0).
func (f Forces) With(u UnitType, n int) Forces {
	if n < 0 {
		n = 0
	}
	switch u {
	case Soldiers:
		f.Soldiers = n
	case Fighters:
		f.Fighters = n
	case Stations:
		f.Stations = n
	case LightCruisers:
		f.LightCruisers = n
	case HeavyCruisers:
		f.HeavyCruisers = n
	case Carriers:
		f.Carriers = n
	}
	return f
}

// Normalize clamps negative counts to zero.
func (f Forces) Normalize() Forces {
	for _, u := range AllUnitTypes() {
		f = f.With(u, f.Count(u))
	}
	return f
}

// Total is the number of units of every type, carriers included.
func (f Forces) Total() int {
	n := 0
	for _, u := range AllUnitTypes() {
		n += f.Count(u)
	}
	return n
}

// CombatTotal excludes carriers, which never fight.
func (f Forces) CombatTotal() int {
	return f.Total() - f.Carriers
}

// IsZero reports whether every count is zero.
func (f Forces) IsZero() bool { return f.Total() == 0 }

// Add returns the per-type sum of f and o.
func (f Forces) Add(o Forces) Forces {
	for _, u := range AllUnitTypes() {
		f = f.With(u, f.Count(u)+o.Count(u))
	}
	return f
}

// Sub returns f minus o per type, never going below zero.
func (f Forces) Sub(o Forces) Forces {
	for _, u := range AllUnitTypes() {
		f = f.With(u, f.Count(u)-o.Count(u))
	}
	return f
}
