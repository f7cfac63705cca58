package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
)

// Exposure levels counted in every summary, in V/m.
const (
	HighExposureLevel = 6.0
	LowExposureLevel  = 0.6
)

type Summary struct {
	Energy         float64 `json:"energy"`
	Revenue        float64 `json:"revenue"`
	ServedUsers    int     `json:"served_users"`
	TotalUsers     int     `json:"total_users"`
	ActiveSites    int     `json:"active_sites"`
	PeakExposure   float64 `json:"peak_exposure"`
	MeanExposure   float64 `json:"mean_exposure"`
	AboveHighLevel int     `json:"above_high_level"`
	AboveLowLevel  int     `json:"above_low_level"`
}

func Summarize(sol *problem.PlacementSolution, energy float64) Summary {
	exposure := sol.GetExposure()

	return Summary{
		Energy:         energy,
		Revenue:        sol.Revenue(),
		ServedUsers:    sol.NumServedUsers(),
		TotalUsers:     sol.GetProblem().NumUsers(),
		ActiveSites:    sol.NumActiveSites(),
		PeakExposure:   floats.Max(exposure),
		MeanExposure:   stat.Mean(exposure, nil),
		AboveHighLevel: floats.Count(func(v float64) bool { return v > HighExposureLevel }, exposure),
		AboveLowLevel:  floats.Count(func(v float64) bool { return v > LowExposureLevel }, exposure),
	}
}

// KeysAndValues flattens the summary for structured loggers.
func (s Summary) KeysAndValues() []any {
	return []any{
		"energy", s.Energy,
		"revenue", s.Revenue,
		"servedUsers", s.ServedUsers,
		"totalUsers", s.TotalUsers,
		"activeSites", s.ActiveSites,
		"peakExposure", s.PeakExposure,
		"meanExposure", s.MeanExposure,
		"aboveHighLevel", s.AboveHighLevel,
		"aboveLowLevel", s.AboveLowLevel,
	}
}
