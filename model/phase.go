package model

import "fmt"

// Phase is one stage of combat resolution.
type Phase uint8

const (
	PhaseSpace    Phase = iota // fleet engagement
	PhaseOrbital               // contest for orbital control
	PhaseGround                // planetary assault
	PhaseGuerilla              // ground raid, soldiers only
)

func (p Phase) String() string {
	switch p {
	case PhaseSpace:
		return "space"
	case PhaseOrbital:
		return "orbital"
	case PhaseGround:
		return "ground"
	case PhaseGuerilla:
		return "guerilla"
	}
	return "unknown"
}

// InvasionPhases is the fixed order an invasion is fought in.
func InvasionPhases() []Phase {
	return []Phase{PhaseSpace, PhaseOrbital, PhaseGround}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for _, v := range []Phase{PhaseSpace, PhaseOrbital, PhaseGround, PhaseGuerilla} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}
