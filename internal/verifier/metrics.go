package verifier

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes search progress as prometheus gauges/counters (spec
// §11 DOMAIN STACK: wiring client_golang into the long-running verifier
// process the way the teacher's cmd/ wires its own instrumentation).
type Metrics struct {
	StatesVisited prometheus.Counter
	AttacksFound  prometheus.Counter
	ActiveRuns    prometheus.Gauge
}

// NewMetrics builds a fresh, unregistered Metrics set. Callers that want
// process-wide /metrics exposition register it with Register.
func NewMetrics() *Metrics {
	return &Metrics{
		StatesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arachne_states_visited_total",
			Help: "Number of semi-trace states visited by the search.",
		}),
		AttacksFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arachne_attacks_found_total",
			Help: "Number of realized attack traces found across all claims.",
		}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arachne_active_runs",
			Help: "Number of runs currently allocated in the search state.",
		}),
	}
}

// Register adds m's collectors to reg (typically prometheus.DefaultRegisterer).
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.StatesVisited, m.AttacksFound, m.ActiveRuns} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
