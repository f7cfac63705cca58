package problem

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Revenue is the income of the served users minus the running cost of the
// active sites.
func (sol *PlacementSolution) Revenue() float64 {
	params := sol.problem.params
	return float64(sol.numServed)*params.UserRevenue - float64(sol.numActive)*params.SiteCost
}

// PeakExposure is the highest EMF any single user accumulates, +Inf when a
// user stands at an active antenna.
func (sol *PlacementSolution) PeakExposure() float64 {
	for _, count := range sol.singular {
		if count > 0 {
			return math.Inf(1)
		}
	}
	return floats.Max(sol.emf)
}

// ExposurePenalty is the cubed peak exposure, or zero when exposure is left
// out of the objective.
func (sol *PlacementSolution) ExposurePenalty() float64 {
	if !sol.problem.params.IncludeEMFExposure {
		return 0
	}
	peak := sol.PeakExposure()
	return peak * peak * peak
}

// GetCost is the energy minimized by the search: negated revenue plus the
// optional worst-case exposure penalty.
func (sol *PlacementSolution) GetCost() float64 {
	return -sol.Revenue() + sol.ExposurePenalty()
}
