package model

// EmpireID identifies an empire within one game.
type EmpireID string

// Resource enumerates the stockpiled resources an empire manages.
type Resource string

const (
	ResourceCredits  Resource = "credits"
	ResourceFood     Resource = "food"
	ResourceOre      Resource = "ore"
	ResourceResearch Resource = "research"
)

// AllResources lists resources in a stable order.
func AllResources() []Resource {
	return []Resource{ResourceCredits, ResourceFood, ResourceOre, ResourceResearch}
}

type Resources struct {
	Credits  int `json:"credits"`
	Food     int `json:"food"`
	Ore      int `json:"ore"`
	Research int `json:"research"`
}

// EmpireState is a snapshot of one empire at the start of a turn.
type EmpireState struct {
	ID                EmpireID  `json:"id"`
	Name              string    `json:"name"`
	Archetype         string    `json:"archetype"`
	Forces            Forces    `json:"forces"`
	ArmyEffectiveness float64   `json:"armyEffectiveness"`
	Resources         Resources `json:"resources"`
	Sector            Coord     `json:"sector"`
	Sectors           int       `json:"sectors"` // owned sector count
	Eliminated        bool      `json:"eliminated"`
}

// TurnContext carries values computed outside the core (market, diplomacy)
// that shape non-combat decisions. The core only reads it.
type TurnContext struct {
	Scarcity     map[Resource]float64 `json:"scarcity"`     // 0 = plentiful, 1 = exhausted
	MarketPrices map[Resource]float64 `json:"marketPrices"` // 1.0 = baseline price
	Treaties     map[EmpireID]bool    `json:"treaties"`     // active treaties with the deciding empire
}

// ScarcityOf returns the clamped scarcity of r, 0 when unknown.
func (c TurnContext) ScarcityOf(r Resource) float64 {
	v := c.Scarcity[r]
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PriceOf returns the market multiplier for r, 1.0 when unknown.
func (c TurnContext) PriceOf(r Resource) float64 {
	v, ok := c.MarketPrices[r]
	if !ok || v <= 0 {
		return 1.0
	}
	return v
}

// HasTreaty reports whether an active treaty binds the decider to id.
func (c TurnContext) HasTreaty(id EmpireID) bool {
	return c.Treaties[id]
}

// ActiveTreaties counts treaties currently in force.
func (c TurnContext) ActiveTreaties() int {
	n := 0
	for _, ok := range c.Treaties {
		if ok {
			n++
		}
	}
	return n
}
