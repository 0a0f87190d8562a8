package memory

// Per-turn linear decay rates by resistance.
const (
	RateVeryLow = 0.05
	RateLow     = 0.02
	RateMedium  = 0.01
	RateHigh    = 0.005
)

// Rate returns the fraction of the original weight lost per elapsed turn.
func (r Resistance) Rate() float64 {
	switch r {
	case ResistVeryLow:
		return RateVeryLow
	case ResistLow:
		return RateLow
	case ResistMedium:
		return RateMedium
	case ResistHigh:
		return RateHigh
	default:
		return 0
	}
}

// Decay computes a weight after turnsElapsed turns. It is a pure function of
// its inputs: negative weights and negative elapsed turns are clamped to 0.
func Decay(weight float64, turnsElapsed int, resistance Resistance) float64 {
	if weight <= 0 {
		return 0
	}
	if turnsElapsed < 0 {
		turnsElapsed = 0
	}
	if resistance == ResistPermanent {
		return weight
	}
	remaining := 1 - resistance.Rate()*float64(turnsElapsed)
	if remaining <= 0 {
		return 0
	}
	return weight * remaining
}
