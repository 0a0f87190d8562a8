// Package memory records what empires did to each other and how long they
// remember it.
package memory

import (
	"errors"
	"fmt"
)

var ErrUnknownEventType = errors.New("unknown event type")

// EventType is a notable interaction between two empires.
type EventType uint8

const (
	EventSectorCaptured EventType = iota
	EventInvasionAttempted
	EventInvasionRepelled
	EventGuerillaRaid
	EventSurpriseAttack
	EventWarningReceived
	EventTreatyBroken
	EventBetrayal
	EventInsult
	EventTradeRefused
	EventTradeCompleted
	EventTreatyProposed
	EventTreatySigned
	EventAidReceived
	EventCommonEnemy
	EventSavedFromDestruction
	numEventTypes
)

var eventNames = [numEventTypes]string{
	EventSectorCaptured:       "sector_captured",
	EventInvasionAttempted:    "invasion_attempted",
	EventInvasionRepelled:     "invasion_repelled",
	EventGuerillaRaid:         "guerilla_raid",
	EventSurpriseAttack:       "surprise_attack",
	EventWarningReceived:      "warning_received",
	EventTreatyBroken:         "treaty_broken",
	EventBetrayal:             "betrayal",
	EventInsult:               "insult",
	EventTradeRefused:         "trade_refused",
	EventTradeCompleted:       "trade_completed",
	EventTreatyProposed:       "treaty_proposed",
	EventTreatySigned:         "treaty_signed",
	EventAidReceived:          "aid_received",
	EventCommonEnemy:          "common_enemy",
	EventSavedFromDestruction: "saved_from_destruction",
}

func (e EventType) String() string {
	if e >= numEventTypes {
		return fmt.Sprintf("event(%d)", uint8(e))
	}
	return eventNames[e]
}

// AllEventTypes lists every event in declaration order.
func AllEventTypes() []EventType {
	out := make([]EventType, numEventTypes)
	for i := range out {
		out[i] = EventType(i)
	}
	return out
}

// ParseEventType maps a wire name back to its EventType.
func ParseEventType(s string) (EventType, error) {
	for i, name := range eventNames {
		if name == s {
			return EventType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

func (e EventType) MarshalText() ([]byte, error) {
	if e >= numEventTypes {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, uint8(e))
	}
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(b []byte) error {
	v, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Polarity says whether a memory improves or sours a relationship.
type Polarity int8

const (
	Negative Polarity = -1
	Positive Polarity = 1
)

func (p Polarity) String() string {
	if p < 0 {
		return "negative"
	}
	return "positive"
}

// Resistance is how stubbornly a memory resists fading.
type Resistance uint8

const (
	ResistVeryLow Resistance = iota
	ResistLow
	ResistMedium
	ResistHigh
	ResistPermanent
	numResistances
)

var resistanceNames = [numResistances]string{"very_low", "low", "medium", "high", "permanent"}

func (r Resistance) String() string {
	if r >= numResistances {
		return fmt.Sprintf("resistance(%d)", uint8(r))
	}
	return resistanceNames[r]
}

func ParseResistance(s string) (Resistance, bool) {
	for i, name := range resistanceNames {
		if name == s {
			return Resistance(i), true
		}
	}
	return 0, false
}

func (r Resistance) MarshalText() ([]byte, error) {
	if r >= numResistances {
		return nil, fmt.Errorf("invalid resistance %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Resistance) UnmarshalText(b []byte) error {
	v, ok := ParseResistance(string(b))
	if !ok {
		return fmt.Errorf("invalid resistance %q", b)
	}
	*r = v
	return nil
}

// EventSpec is the fixed weighting of one event type.
type EventSpec struct {
	Weight     float64
	Resistance Resistance
	Polarity   Polarity
}

var eventTable = [numEventTypes]EventSpec{
	EventSectorCaptured:       {Weight: 80, Resistance: ResistHigh, Polarity: Negative},
	EventInvasionAttempted:    {Weight: 40, Resistance: ResistMedium, Polarity: Negative},
	EventInvasionRepelled:     {Weight: 20, Resistance: ResistLow, Polarity: Negative},
	EventGuerillaRaid:         {Weight: 25, Resistance: ResistLow, Polarity: Negative},
	EventSurpriseAttack:       {Weight: 50, Resistance: ResistMedium, Polarity: Negative},
	EventWarningReceived:      {Weight: 5, Resistance: ResistVeryLow, Polarity: Negative},
	EventTreatyBroken:         {Weight: 70, Resistance: ResistHigh, Polarity: Negative},
	EventBetrayal:             {Weight: 90, Resistance: ResistPermanent, Polarity: Negative},
	EventInsult:               {Weight: 10, Resistance: ResistVeryLow, Polarity: Negative},
	EventTradeRefused:         {Weight: 5, Resistance: ResistVeryLow, Polarity: Negative},
	EventTradeCompleted:       {Weight: 10, Resistance: ResistLow, Polarity: Positive},
	EventTreatyProposed:       {Weight: 15, Resistance: ResistLow, Polarity: Positive},
	EventTreatySigned:         {Weight: 40, Resistance: ResistMedium, Polarity: Positive},
	EventAidReceived:          {Weight: 50, Resistance: ResistMedium, Polarity: Positive},
	EventCommonEnemy:          {Weight: 30, Resistance: ResistMedium, Polarity: Positive},
	EventSavedFromDestruction: {Weight: 90, Resistance: ResistHigh, Polarity: Positive},
}

// LookupEvent returns the table entry for e.
func LookupEvent(e EventType) (EventSpec, error) {
	if e >= numEventTypes {
		return EventSpec{}, fmt.Errorf("%w: %d", ErrUnknownEventType, uint8(e))
	}
	return eventTable[e], nil
}

// ValidateEventTable checks every entry once at startup.
func ValidateEventTable() error {
	for _, e := range AllEventTypes() {
		spec := eventTable[e]
		if eventNames[e] == "" {
			return fmt.Errorf("%w: %d has no name", ErrUnknownEventType, uint8(e))
		}
		if spec.Weight < 1 || spec.Weight > 100 {
			return fmt.Errorf("event %s: weight %.0f outside [1, 100]", e, spec.Weight)
		}
		if spec.Resistance >= numResistances {
			return fmt.Errorf("event %s: invalid resistance %d", e, spec.Resistance)
		}
		if spec.Polarity != Negative && spec.Polarity != Positive {
			return fmt.Errorf("event %s: invalid polarity %d", e, spec.Polarity)
		}
	}
	return nil
}
