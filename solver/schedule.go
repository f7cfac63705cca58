package solver

import (
	"fmt"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
)

const (
	DefaultInitialTemperature  = 5000.0
	DefaultCoolingRate         = 0.997
	DefaultStoppingTemperature = 1e-8
	DefaultMaxIterations       = 100000
)

// Schedule is the geometric cooling schedule and the stopping condition of a
// run.
type Schedule struct {
	InitialTemperature  float64 `yaml:"initial_temperature"`
	CoolingRate         float64 `yaml:"cooling_rate"`
	StoppingTemperature float64 `yaml:"stopping_temperature"`
	MaxIterations       int     `yaml:"max_iterations"`
}

func DefaultSchedule() Schedule {
	return Schedule{
		InitialTemperature:  DefaultInitialTemperature,
		CoolingRate:         DefaultCoolingRate,
		StoppingTemperature: DefaultStoppingTemperature,
		MaxIterations:       DefaultMaxIterations,
	}
}

func (schedule *Schedule) Validate() error {
	if schedule.InitialTemperature <= 0 {
		return fmt.Errorf("%w: initial_temperature must be > 0, got %g", problem.ErrInvalidConfiguration, schedule.InitialTemperature)
	}
	if schedule.CoolingRate <= 0 || schedule.CoolingRate >= 1 {
		return fmt.Errorf("%w: cooling_rate must be in (0, 1), got %g", problem.ErrInvalidConfiguration, schedule.CoolingRate)
	}
	if schedule.StoppingTemperature <= 0 {
		return fmt.Errorf("%w: stopping_temperature must be > 0, got %g", problem.ErrInvalidConfiguration, schedule.StoppingTemperature)
	}
	if schedule.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be > 0, got %d", problem.ErrInvalidConfiguration, schedule.MaxIterations)
	}
	return nil
}
