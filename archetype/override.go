package archetype

import (
	"fmt"
	"slices"
)

// Override replaces selected fields of one profile. Nil fields keep the
// built-in value.
type Override struct {
	AttackThreshold *float64      `toml:"attack_threshold"`
	TellRate        *float64      `toml:"tell_rate"`
	WarningRange    *WarningRange `toml:"warning_range"`
	Priorities      *Priorities   `toml:"priorities"`
}

// WithOverrides returns a copy of t with overrides applied, keyed by archetype
// name. The result is validated.
func (t *Table) WithOverrides(overrides map[string]Override) (*Table, error) {
	out := &Table{profiles: t.profiles}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		id, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
		o := overrides[name]
		p := &out.profiles[id]
		if o.AttackThreshold != nil {
			p.AttackThreshold = *o.AttackThreshold
		}
		if o.TellRate != nil {
			p.TellRate = *o.TellRate
		}
		if o.WarningRange != nil {
			p.WarningRange = *o.WarningRange
		}
		if o.Priorities != nil {
			p.Priorities = *o.Priorities
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
