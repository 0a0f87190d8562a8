package rules

import (
	"testing"

	"github.com/expr-lang/expr"

	"github.com/nstehr/dominion/dominion-core/archetype"
)

func TestCompileArchetypeAllCompile(t *testing.T) {
	table := archetype.Default()
	for _, p := range table.Profiles() {
		rules := CompileArchetype(p, DefaultConfig())
		if len(rules) == 0 {
			t.Fatalf("CompileArchetype(%s) returned no rules", p.ID)
		}
		for _, r := range rules {
			_, err := expr.Compile(r.ConditionSrc, expr.Env(Env{}), expr.AsBool())
			if err != nil {
				t.Errorf("%s: rule %q failed to compile: %v\ncondition: %s", p.ID, r.Name, err, r.ConditionSrc)
			}
		}
	}
}

func TestEngineSortsByPriority(t *testing.T) {
	p, _ := archetype.Lookup(archetype.Warlord)
	engine, err := NewEngine(CompileArchetype(p, DefaultConfig()))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	rules := engine.Rules()
	if rules[0].Name != "attack-hostile" || rules[1].Name != "attack" {
		t.Errorf("attack rules should lead, got %q, %q", rules[0].Name, rules[1].Name)
	}
	for i := 1; i < len(rules); i++ {
		if rules[i].Priority > rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				rules[i].Name, rules[i].Priority,
				rules[i-1].Name, rules[i-1].Priority)
		}
	}
}

func TestCompileInterpolatesThresholds(t *testing.T) {
	p, _ := archetype.Lookup(archetype.Warlord)
	rules := CompileArchetype(p, Config{HostileBonus: 0.2})
	want := map[string]string{
		"attack-hostile": `HasTarget() && CanAttack() && TargetTier() == "hostile" && TargetRatio() <= 1.000000`,
		"attack":         `HasTarget() && CanAttack() && TargetRatio() <= 0.800000`,
	}
	for _, r := range rules {
		if w, ok := want[r.Name]; ok && r.ConditionSrc != w {
			t.Errorf("rule %q condition = %s, want %s", r.Name, r.ConditionSrc, w)
		}
	}
}

func TestDefensiveSkipsCarriers(t *testing.T) {
	p, _ := archetype.Lookup(archetype.Turtle)
	for _, r := range CompileArchetype(p, DefaultConfig()) {
		if r.Name == "build-carriers" {
			t.Error("defensive archetype should not build carriers")
		}
	}
	p, _ = archetype.Lookup(archetype.Blitzkrieg)
	found := false
	for _, r := range CompileArchetype(p, DefaultConfig()) {
		if r.Name == "build-carriers" {
			found = true
			if r.Priority != 800 {
				t.Errorf("build-carriers priority = %d, want 800", r.Priority)
			}
		}
	}
	if !found {
		t.Error("blitzkrieg should build carriers")
	}
}

func TestNewEngineRejectsBadCondition(t *testing.T) {
	_, err := NewEngine([]*Rule{{Name: "broken", ConditionSrc: `NoSuchHelper()`}})
	if err == nil {
		t.Fatal("expected compile error for unknown helper")
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		min, max int
		t        float64
		want     int
	}{
		{500, 600, 0.0, 500},
		{500, 600, 1.0, 600},
		{500, 600, 0.45, 545},
		{700, 800, 0.9, 790},
		{500, 600, 1.5, 600}, // clamped
		{500, 600, -1, 500},
	}
	for _, tc := range tests {
		got := lerp(tc.min, tc.max, tc.t)
		if got != tc.want {
			t.Errorf("lerp(%d, %d, %.2f) = %d, want %d", tc.min, tc.max, tc.t, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-0.5, 0, 1, 0.0},
		{1.5, 0, 1, 1.0},
	}
	for _, tc := range tests {
		got := clamp(tc.v, tc.min, tc.max)
		if got != tc.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tc.v, tc.min, tc.max, got, tc.want)
		}
	}
}
