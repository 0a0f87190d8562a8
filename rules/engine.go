package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/dominion/dominion-core/entropy"
)

// Engine runs one archetype's compiled rules. It holds nothing but the
// immutable rule set, so a single Engine can serve any number of games.
type Engine struct {
	rules []*Rule
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled}, nil
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []*Rule {
	return append([]*Rule(nil), e.rules...)
}

// Decide evaluates rules by descending priority and returns the first action
// produced. With no match the bot waits.
func (e *Engine) Decide(env Env, src entropy.Source) Action {
	for _, r := range e.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		action, ok := r.Action(env, src)
		if !ok {
			slog.Debug("rule declined", "empire", env.Self.ID, "rule", r.Name)
			continue
		}
		slog.Debug("rule fired", "empire", env.Self.ID, "rule", r.Name, "priority", r.Priority, "category", r.Category)

		action.Empire = env.Self.ID
		action.Rule = r.Name
		action.Effort = env.Effort
		return action
	}
	return Wait(env)
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
