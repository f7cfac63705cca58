package solver

import (
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
)

// EnergyRecord is one history entry: the current and best energy after an
// iteration.
type EnergyRecord struct {
	Current float64
	Best    float64
}

// IterationRecord describes a completed iteration to an Observer.
type IterationRecord struct {
	Iteration       int
	Temperature     float64
	Move            problem.Move
	Changed         bool
	Accepted        bool
	Improved        bool
	CandidateEnergy float64
	CurrentEnergy   float64
	BestEnergy      float64
}

// Observer is notified after every iteration, before cooling.
type Observer interface {
	ObserveIteration(record IterationRecord)
}

type ObserverFunc func(record IterationRecord)

func (f ObserverFunc) ObserveIteration(record IterationRecord) {
	f(record)
}
