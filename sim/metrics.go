package sim

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/rules"
)

// Metrics counts simulation activity. Counters are safe to share between
// games running concurrently.
type Metrics struct {
	Turns          prometheus.Counter
	Actions        *prometheus.CounterVec
	Combats        *prometheus.CounterVec
	Captures       prometheus.Counter
	InvalidAttacks prometheus.Counter
	Memories       *prometheus.CounterVec
	Scars          prometheus.Counter
	Pruned         prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of turns processed",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Bot decisions by action kind",
		}, []string{"kind"}),
		Combats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combats_total",
			Help:      "Resolved attacks by type and winning side",
		}, []string{"type", "winner"}),
		Captures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sectors_captured_total",
			Help:      "Invasions that transferred territory",
		}),
		InvalidAttacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_attacks_total",
			Help:      "Launched attacks rejected before resolution",
		}),
		Memories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_recorded_total",
			Help:      "Memory records created by event type",
		}, []string{"event"}),
		Scars: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permanent_scars_total",
			Help:      "Memory records that became permanent scars",
		}),
		Pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_pruned_total",
			Help:      "Memory records removed by pruning",
		}),
	}
	for _, c := range []prometheus.Collector{m.Turns, m.Actions, m.Combats, m.Captures, m.InvalidAttacks, m.Memories, m.Scars, m.Pruned} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	m.labels()
	return m, nil
}

func (m *Metrics) observe(r TurnReport) {
	if m == nil {
		return
	}
	m.Turns.Inc()
	for _, a := range r.Actions {
		m.Actions.WithLabelValues(a.Kind.String()).Inc()
	}
	for _, o := range r.Outcomes {
		m.Combats.WithLabelValues(o.Type.String(), o.Winner.String()).Inc()
		if o.TerritoryTransferred {
			m.Captures.Inc()
		}
	}
	m.InvalidAttacks.Add(float64(len(r.Rejected)))
	for _, rec := range r.NewMemories {
		m.Memories.WithLabelValues(rec.Event.String()).Inc()
		if rec.PermanentScar {
			m.Scars.Inc()
		}
	}
	m.Pruned.Add(float64(len(r.Pruned)))
}

// labels pre-creates every label combination so scrapes show zeroes.
func (m *Metrics) labels() {
	for _, k := range []rules.Kind{rules.KindWait, rules.KindAttack, rules.KindBuild, rules.KindTrade, rules.KindMessage, rules.KindResearch} {
		m.Actions.WithLabelValues(k.String())
	}
	for _, t := range []combat.AttackType{combat.Invasion, combat.GuerillaRaid} {
		for _, w := range []combat.Role{combat.Attacker, combat.Defender} {
			m.Combats.WithLabelValues(t.String(), w.String())
		}
	}
	for _, e := range memory.AllEventTypes() {
		m.Memories.WithLabelValues(e.String())
	}
}
