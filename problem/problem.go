package problem

import (
	"fmt"
	"math"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/user"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

// PlacementProblem is the immutable part of a run: the user population, the
// site catalog and the per-site coverage and exposure derived from them.
type PlacementProblem struct {
	params        Params
	radio         site.Radio
	users         *user.UserList
	sites         *site.CandidateSiteList
	userPositions []utils.Position
	coverageMap   [][]user.UserId
	exposureMap   [][]float64
	singularMap   [][]user.UserId
}

func CreatePlacementProblemInstance(params Params, users *user.UserList, sites *site.CandidateSiteList, radio site.Radio) (*PlacementProblem, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if users == nil || users.Count() == 0 {
		return nil, fmt.Errorf("%w: empty user set", ErrInvalidConfiguration)
	}
	if sites == nil || sites.Count() == 0 {
		return nil, fmt.Errorf("%w: empty site catalog", ErrInvalidConfiguration)
	}
	if err := radio.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	problem := &PlacementProblem{
		params:        params,
		radio:         radio,
		users:         users,
		sites:         sites,
		userPositions: users.Positions(),
	}
	problem.processSiteCoverage()

	return problem, nil
}

// processSiteCoverage evaluates, once per site, which users it can reach and
// how much it exposes each of them. Infinite contributions are split out into
// singularMap and stored as 0 in exposureMap, so that the accumulators only
// ever add and subtract finite values.
func (problem *PlacementProblem) processSiteCoverage() {
	numSites := problem.sites.Count()
	problem.coverageMap = make([][]user.UserId, numSites)
	problem.exposureMap = make([][]float64, numSites)
	problem.singularMap = make([][]user.UserId, numSites)

	for siteId := site.SiteId(0); siteId < site.SiteId(numSites); siteId++ {
		sitePos := problem.sites.GetCandidatePosition(siteId)
		inRange := problem.radio.UsersInRange(sitePos, problem.userPositions)
		exposure := problem.radio.Exposure(sitePos, problem.userPositions)

		for userIdx, value := range exposure {
			if math.IsInf(value, 1) {
				problem.singularMap[siteId] = append(problem.singularMap[siteId], user.UserId(userIdx))
				exposure[userIdx] = 0
			}
		}

		problem.coverageMap[siteId] = utils.TrueIndices[user.UserId](inRange)
		problem.exposureMap[siteId] = exposure
	}
}

func (problem *PlacementProblem) checkSiteIndex(siteId site.SiteId) error {
	if siteId < 0 || int32(siteId) >= problem.sites.Count() {
		return fmt.Errorf("%w: site %d, catalog holds %d", ErrIndexOutOfRange, siteId, problem.sites.Count())
	}
	return nil
}

func (problem *PlacementProblem) GetParams() Params {
	return problem.params
}

func (problem *PlacementProblem) GetRadio() site.Radio {
	return problem.radio
}

func (problem *PlacementProblem) MaxSites() int {
	return problem.params.MaxSites
}

func (problem *PlacementProblem) NumUsers() int {
	return int(problem.users.Count())
}

func (problem *PlacementProblem) NumSites() int {
	return int(problem.sites.Count())
}

func (problem *PlacementProblem) GetUserIds() []user.UserId {
	return problem.users.GetUserIds()
}

func (problem *PlacementProblem) GetSiteIds() []site.SiteId {
	return problem.sites.GetCandidateSiteIdList()
}

func (problem *PlacementProblem) GetUserPosition(userId user.UserId) utils.Position {
	return problem.userPositions[userId]
}

func (problem *PlacementProblem) GetSitePosition(siteId site.SiteId) utils.Position {
	return problem.sites.GetCandidatePosition(siteId)
}

// UsersInRange flags, for every user, whether the site can serve it.
func (problem *PlacementProblem) UsersInRange(siteId site.SiteId) ([]bool, error) {
	if err := problem.checkSiteIndex(siteId); err != nil {
		return nil, err
	}

	inRange := make([]bool, problem.NumUsers())
	for _, userId := range problem.coverageMap[siteId] {
		inRange[userId] = true
	}
	return inRange, nil
}

// GetCoverage lists the users within range of the site. The slice is shared
// and must not be modified.
func (problem *PlacementProblem) GetCoverage(siteId site.SiteId) []user.UserId {
	return problem.coverageMap[siteId]
}

// GetExposure is the finite EMF contribution of the site to every user. Users
// at zero link distance read 0 here and are listed by GetSingularUsers. The
// slice is shared and must not be modified.
func (problem *PlacementProblem) GetExposure(siteId site.SiteId) []float64 {
	return problem.exposureMap[siteId]
}

// GetSingularUsers lists the users the site exposes infinitely, i.e. those
// sitting exactly at its antenna.
func (problem *PlacementProblem) GetSingularUsers(siteId site.SiteId) []user.UserId {
	return problem.singularMap[siteId]
}

// CreateEmptySolution returns a state with every site inactive and every user
// unserved.
func (problem *PlacementProblem) CreateEmptySolution() *PlacementSolution {
	servedBy := make([]site.SiteId, problem.NumUsers())
	for idx := range servedBy {
		servedBy[idx] = site.Unserved
	}

	return &PlacementSolution{
		servedBy: servedBy,
		active:   make([]bool, problem.NumSites()),
		emf:      make([]float64, problem.NumUsers()),
		singular: make([]int32, problem.NumUsers()),
		problem:  problem,
	}
}
