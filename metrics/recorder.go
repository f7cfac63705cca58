package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/solver"
)

const namespace = "bs_placement"

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeNoop     = "noop"
)

// Recorder exports the progress of an annealing run as Prometheus metrics.
// It implements solver.Observer.
type Recorder struct {
	iterations    prometheus.Counter
	moves         *prometheus.CounterVec
	improvements  prometheus.Counter
	temperature   prometheus.Gauge
	currentEnergy prometheus.Gauge
	bestEnergy    prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Annealing iterations completed.",
		}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Proposed moves by kind and Metropolis outcome.",
		}, []string{"kind", "outcome"}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "best_improvements_total",
			Help:      "Iterations that lowered the best energy.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature",
			Help:      "Temperature of the last completed iteration.",
		}),
		currentEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_energy",
			Help:      "Energy of the current solution.",
		}),
		bestEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_energy",
			Help:      "Energy of the best solution found so far.",
		}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{r.iterations, r.moves, r.improvements, r.temperature, r.currentEnergy, r.bestEnergy} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Recorder) ObserveIteration(record solver.IterationRecord) {
	r.iterations.Inc()
	r.moves.WithLabelValues(record.Move.Kind.String(), outcome(record)).Inc()
	if record.Improved {
		r.improvements.Inc()
	}
	r.temperature.Set(record.Temperature)
	r.currentEnergy.Set(record.CurrentEnergy)
	r.bestEnergy.Set(record.BestEnergy)
}

// outcome separates self-transitions from real accepted changes so that
// saturated runs are visible.
func outcome(record solver.IterationRecord) string {
	switch {
	case !record.Changed:
		return OutcomeNoop
	case record.Accepted:
		return OutcomeAccepted
	default:
		return OutcomeRejected
	}
}
