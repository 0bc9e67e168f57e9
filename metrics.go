package auth

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ResolutionMetrics counts strategy attempts by outcome. A nil value is a
// valid no-op collector.
type ResolutionMetrics struct {
	attempts *prometheus.CounterVec
	none     prometheus.Counter
}

// NewResolutionMetrics creates and registers the collectors on reg. A nil
// registerer leaves them unregistered.
func NewResolutionMetrics(reg prometheus.Registerer) (*ResolutionMetrics, error) {
	m := &ResolutionMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_strategy_attempts_total",
				Help: "Authentication strategy attempts by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		none: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_unauthenticated_total",
				Help: "Requests no strategy could authenticate",
			},
		),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.attempts, m.none} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ResolutionMetrics) observe(strategy, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *ResolutionMetrics) unauthenticated() {
	if m == nil {
		return
	}
	m.none.Inc()
}
