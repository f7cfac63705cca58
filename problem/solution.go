package problem

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/user"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

// exposureTolerance bounds the relative drift allowed between the incremental
// EMF accumulator and a full recomputation.
const exposureTolerance = 1e-9

// PlacementSolution is one complete state of the search: who serves each
// user, which sites are active and the EMF each user accumulates from the
// active sites. Solutions never share backing arrays.
//
// The EMF of a user is kept as a finite sum plus the number of active sites
// standing exactly at the user; any such site makes the exposure +Inf.
type PlacementSolution struct {
	servedBy  []site.SiteId
	active    []bool
	emf       []float64
	singular  []int32
	numActive int
	numServed int
	problem   *PlacementProblem
}

func (sol *PlacementSolution) copy() *PlacementSolution {
	return &PlacementSolution{
		servedBy:  slices.Clone(sol.servedBy),
		active:    slices.Clone(sol.active),
		emf:       slices.Clone(sol.emf),
		singular:  slices.Clone(sol.singular),
		numActive: sol.numActive,
		numServed: sol.numServed,
		problem:   sol.problem,
	}
}

func (sol *PlacementSolution) Copy() *PlacementSolution {
	return sol.copy()
}

// CopyFrom overwrites sol with the content of other, reusing sol's arrays.
// Both solutions must belong to the same problem.
func (sol *PlacementSolution) CopyFrom(other *PlacementSolution) {
	copy(sol.servedBy, other.servedBy)
	copy(sol.active, other.active)
	copy(sol.emf, other.emf)
	copy(sol.singular, other.singular)
	sol.numActive = other.numActive
	sol.numServed = other.numServed
}

func (sol *PlacementSolution) GetProblem() *PlacementProblem {
	return sol.problem
}

func (sol *PlacementSolution) IsActive(siteId site.SiteId) bool {
	return sol.active[siteId]
}

// GetServingSite returns the site serving the user, or site.Unserved.
func (sol *PlacementSolution) GetServingSite(userId user.UserId) site.SiteId {
	return sol.servedBy[userId]
}

func (sol *PlacementSolution) IsServed(userId user.UserId) bool {
	return sol.servedBy[userId] != site.Unserved
}

func (sol *PlacementSolution) NumActiveSites() int {
	return sol.numActive
}

func (sol *PlacementSolution) NumServedUsers() int {
	return sol.numServed
}

func (sol *PlacementSolution) GetActiveSites() []site.SiteId {
	return utils.TrueIndices[site.SiteId](sol.active)
}

// GetAssignments returns a copy of the user to serving-site array.
func (sol *PlacementSolution) GetAssignments() []site.SiteId {
	return slices.Clone(sol.servedBy)
}

// GetExposure returns a copy of the per-user EMF, +Inf for users standing at
// an active antenna.
func (sol *PlacementSolution) GetExposure() []float64 {
	exposure := slices.Clone(sol.emf)
	for userId, count := range sol.singular {
		if count > 0 {
			exposure[userId] = math.Inf(1)
		}
	}
	return exposure
}

// NewUsersInRange flags the users within range of the site that nobody
// serves yet.
func (sol *PlacementSolution) NewUsersInRange(siteId site.SiteId) ([]bool, error) {
	if err := sol.problem.checkSiteIndex(siteId); err != nil {
		return nil, err
	}

	newUsers := make([]bool, len(sol.servedBy))
	for _, userId := range sol.problem.GetCoverage(siteId) {
		newUsers[userId] = sol.servedBy[userId] == site.Unserved
	}
	return newUsers, nil
}

func (sol *PlacementSolution) canActivate(siteId site.SiteId) bool {
	return !sol.IsActive(siteId) && sol.numActive < sol.problem.MaxSites()
}

func (sol *PlacementSolution) canDeactivate(siteId site.SiteId) bool {
	return sol.IsActive(siteId)
}

// ActivateSite switches the site on and hands it every unserved user in
// range. It reports false, leaving the solution untouched, when the site is
// already active or the active-site cap is reached.
func (sol *PlacementSolution) ActivateSite(siteId site.SiteId) (bool, error) {
	if err := sol.problem.checkSiteIndex(siteId); err != nil {
		return false, err
	}
	if !sol.canActivate(siteId) {
		return false, nil
	}

	sol.activate(siteId)
	return true, nil
}

func (sol *PlacementSolution) activate(siteId site.SiteId) {
	for _, userId := range sol.problem.GetCoverage(siteId) {
		if sol.servedBy[userId] == site.Unserved {
			sol.servedBy[userId] = siteId
			sol.numServed++
		}
	}

	sol.active[siteId] = true
	sol.numActive++
	sol.applyExposure(siteId, 1)
}

// DeactivateSite switches the site off and frees the users it was serving.
// It reports false, leaving the solution untouched, when the site is already
// inactive.
func (sol *PlacementSolution) DeactivateSite(siteId site.SiteId) (bool, error) {
	if err := sol.problem.checkSiteIndex(siteId); err != nil {
		return false, err
	}
	if !sol.canDeactivate(siteId) {
		return false, nil
	}

	sol.deactivate(siteId)
	return true, nil
}

func (sol *PlacementSolution) deactivate(siteId site.SiteId) {
	// only users in range can be served by the site
	for _, userId := range sol.problem.GetCoverage(siteId) {
		if sol.servedBy[userId] == siteId {
			sol.servedBy[userId] = site.Unserved
			sol.numServed--
		}
	}

	sol.active[siteId] = false
	sol.numActive--
	sol.applyExposure(siteId, -1)
}

func (sol *PlacementSolution) applyExposure(siteId site.SiteId, sign int32) {
	site.ApplyExposure(sol.emf, sol.emf, sol.problem.GetExposure(siteId), float64(sign))
	for _, userId := range sol.problem.GetSingularUsers(siteId) {
		sol.singular[userId] += sign
	}
}

// ApplyMove executes one elemental move and reports whether it changed the
// solution.
//
// A swap decides both of its halves on the state before the move: SiteB is
// switched off if it was active, and SiteA switched on if it was inactive
// while the cap still had room. A swap at the cap therefore only
// deactivates, and swapping an active site with itself turns it off.
func (sol *PlacementSolution) ApplyMove(move Move) (bool, error) {
	switch move.Kind {
	case Activate:
		return sol.ActivateSite(move.SiteA)
	case Deactivate:
		return sol.DeactivateSite(move.SiteB)
	case Swap:
		if err := sol.problem.checkSiteIndex(move.SiteA); err != nil {
			return false, err
		}
		if err := sol.problem.checkSiteIndex(move.SiteB); err != nil {
			return false, err
		}

		remove := sol.canDeactivate(move.SiteB)
		add := sol.canActivate(move.SiteA)
		if remove {
			sol.deactivate(move.SiteB)
		}
		if add {
			sol.activate(move.SiteA)
		}
		return remove || add, nil
	default:
		return false, fmt.Errorf("unknown move kind %d", move.Kind)
	}
}

// RecomputeExposure sums the contribution of every active site from scratch.
func (sol *PlacementSolution) RecomputeExposure() []float64 {
	emf := make([]float64, len(sol.emf))
	for _, siteId := range sol.GetActiveSites() {
		site.ApplyExposure(emf, emf, sol.problem.GetExposure(siteId), 1)
		for _, userId := range sol.problem.GetSingularUsers(siteId) {
			emf[userId] = math.Inf(1)
		}
	}
	return emf
}

// CheckConsistency verifies every state invariant. It is meant for tests and
// debugging; the search itself never needs it.
func (sol *PlacementSolution) CheckConsistency() error {
	var errs []error

	numActive := utils.CountTrue(sol.active)
	if numActive != sol.numActive {
		errs = append(errs, fmt.Errorf("active counter %d, actual %d", sol.numActive, numActive))
	}
	if numActive > sol.problem.MaxSites() {
		errs = append(errs, fmt.Errorf("%d active sites exceed cap %d", numActive, sol.problem.MaxSites()))
	}

	numServed := 0
	for userId, siteId := range sol.servedBy {
		if siteId == site.Unserved {
			continue
		}
		numServed++
		if siteId < 0 || int(siteId) >= len(sol.active) || !sol.active[siteId] {
			errs = append(errs, fmt.Errorf("user %d served by inactive site %d", userId, siteId))
		}
	}
	if numServed != sol.numServed {
		errs = append(errs, fmt.Errorf("served counter %d, actual %d", sol.numServed, numServed))
	}

	for userId, count := range sol.singular {
		if count < 0 {
			errs = append(errs, fmt.Errorf("user %d singular counter %d", userId, count))
		}
	}

	expected := sol.RecomputeExposure()
	for userId, value := range sol.GetExposure() {
		if !exposureMatches(value, expected[userId]) {
			errs = append(errs, fmt.Errorf("user %d exposure %g, recomputed %g", userId, value, expected[userId]))
		}
	}

	return errors.Join(errs...)
}

// exposureMatches compares an accumulated exposure with its recomputation.
// NaN never matches and infinities only match themselves.
func exposureMatches(value, expected float64) bool {
	if math.IsNaN(value) || math.IsNaN(expected) {
		return false
	}
	if math.IsInf(value, 0) || math.IsInf(expected, 0) {
		return value == expected
	}
	return math.Abs(value-expected) <= exposureTolerance*math.Max(1, math.Abs(expected))
}
