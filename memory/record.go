package memory

import "github.com/nstehr/dominion/dominion-core/model"

// Record is one remembered event held by Holder about Target. Records are
// immutable; scar status is fixed when the record is created.
type Record struct {
	ID             string         `json:"id"`
	Holder         model.EmpireID `json:"holder"`
	Target         model.EmpireID `json:"target"`
	Event          EventType      `json:"event"`
	OriginalWeight float64        `json:"originalWeight"`
	TurnRecorded   int            `json:"turnRecorded"`
	Resistance     Resistance     `json:"resistance"`
	Polarity       Polarity       `json:"polarity"`
	PermanentScar  bool           `json:"permanentScar"`
}

// DecayedWeight is the unsigned weight of the record at currentTurn.
func (r Record) DecayedWeight(currentTurn int) float64 {
	if r.PermanentScar {
		return max(r.OriginalWeight, 0)
	}
	return Decay(r.OriginalWeight, currentTurn-r.TurnRecorded, r.Resistance)
}

// SignedWeight applies the record's polarity to its decayed weight.
func (r Record) SignedWeight(currentTurn int) float64 {
	return float64(r.Polarity) * r.DecayedWeight(currentTurn)
}

// Grudge reports whether the record is a negative permanent scar.
func (r Record) Grudge() bool {
	return r.PermanentScar && r.Polarity == Negative
}
