package sim

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ammscope"

type runMetrics struct {
	steps          *prometheus.CounterVec
	swaps          *prometheus.CounterVec
	arbitrage      *prometheus.CounterVec
	verifyFailures prometheus.Counter
}

// newRunMetrics registers the run counters on reg. A nil registerer keeps
// the collectors unregistered; collectors already registered by an earlier
// run are reused.
func newRunMetrics(reg prometheus.Registerer) *runMetrics {
	m := &runMetrics{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "steps_total",
			Help:      "Simulation steps by action and outcome",
		}, []string{"action", "outcome"}),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "swaps_total",
			Help:      "Executed non-zero swaps by direction",
		}, []string{"direction"}),
		arbitrage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "arbitrage",
			Name:      "checks_total",
			Help:      "Arbitrage checks by result",
		}, []string{"result"}),
		verifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "verify_failures_total",
			Help:      "Runs whose genesis pool state did not match the verification oracle",
		}),
	}
	if reg == nil {
		return m
	}
	m.steps = register(reg, m.steps)
	m.swaps = register(reg, m.swaps)
	m.arbitrage = register(reg, m.arbitrage)
	m.verifyFailures = register(reg, m.verifyFailures)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
