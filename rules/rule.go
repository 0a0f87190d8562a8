package rules

import (
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/dominion/dominion-core/entropy"
)

// ActionFunc turns a matched rule into an Action. Returning false declines,
// letting the engine fall through to the next rule.
type ActionFunc func(env Env, src entropy.Source) (Action, bool)

// Rule is the atomic unit of bot behavior: a condition → action pair.
// The engine evaluates rules by priority and stops at the first rule that
// produces an action.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for logs and listings
	ConditionSrc string      // expr source (preserved for listing)
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
