// Package relation turns one empire's memories of another into a score and a
// standing.
package relation

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/nstehr/dominion/dominion-core/memory"
)

// Tier is the coarse standing derived from a net score.
type Tier uint8

const (
	Hostile Tier = iota
	Unfriendly
	Neutral
	Friendly
	Allied
)

var tierNames = [...]string{"hostile", "unfriendly", "neutral", "friendly", "allied"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "unknown"
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	i := slices.Index(tierNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unknown tier %q", b)
	}
	*t = Tier(i)
	return nil
}

// Score boundaries between tiers.
const (
	HostileBelow    = -100.0
	UnfriendlyBelow = -25.0
	NeutralBelow    = 25.0
	FriendlyBelow   = 100.0
)

// DefaultTopMemories is how many records a Summary lists.
const DefaultTopMemories = 5

// NetScore is the signed sum of decayed weights at currentTurn.
func NetScore(records []memory.Record, currentTurn int) float64 {
	total := 0.0
	for _, r := range records {
		total += r.SignedWeight(currentTurn)
	}
	return total
}

// HasPermanentGrudge reports whether any record is a negative scar.
func HasPermanentGrudge(records []memory.Record) bool {
	return slices.ContainsFunc(records, memory.Record.Grudge)
}

// TierFor maps a score to a tier. A grudge caps the result at Unfriendly.
func TierFor(netScore float64, hasGrudge bool) Tier {
	var t Tier
	switch {
	case netScore < HostileBelow:
		t = Hostile
	case netScore < UnfriendlyBelow:
		t = Unfriendly
	case netScore < NeutralBelow:
		t = Neutral
	case netScore < FriendlyBelow:
		t = Friendly
	default:
		t = Allied
	}
	if hasGrudge && t > Unfriendly {
		t = Unfriendly
	}
	return t
}

// Summary is the derived view of one relationship.
type Summary struct {
	NetScore           float64         `json:"netScore"`
	Tier               Tier            `json:"tier"`
	HasPermanentGrudge bool            `json:"hasPermanentGrudge"`
	TopMemories        []memory.Record `json:"topMemories"`
}

// Summarize scores records at currentTurn, keeping DefaultTopMemories.
func Summarize(records []memory.Record, currentTurn int) Summary {
	return SummarizeTop(records, currentTurn, DefaultTopMemories)
}

// SummarizeTop is Summarize with a custom top-memory count. The top list is
// ordered by decayed weight magnitude, newest first on ties, then by ID.
func SummarizeTop(records []memory.Record, currentTurn, top int) Summary {
	score := NetScore(records, currentTurn)
	grudge := HasPermanentGrudge(records)

	ranked := slices.Clone(records)
	slices.SortFunc(ranked, func(a, b memory.Record) int {
		wa := math.Abs(a.DecayedWeight(currentTurn))
		wb := math.Abs(b.DecayedWeight(currentTurn))
		if c := cmp.Compare(wb, wa); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TurnRecorded, a.TurnRecorded); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if top < 0 {
		top = 0
	}
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	return Summary{
		NetScore:           score,
		Tier:               TierFor(score, grudge),
		HasPermanentGrudge: grudge,
		TopMemories:        ranked,
	}
}
