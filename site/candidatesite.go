package site

import (
	"fmt"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

type SiteId int32

// Unserved marks a user that no active site serves.
const Unserved SiteId = -1

type CandidateSite struct {
	id  SiteId
	pos utils.Position
}

type CandidateSiteList struct {
	count      int32
	candidates []*CandidateSite
}

func NewCandidateSite(x, y float64) *CandidateSite {
	return &CandidateSite{
		pos: utils.Position{X: x, Y: y},
	}
}

func CreateCandidateSiteList(positions []utils.Position) *CandidateSiteList {
	candidateSiteList := CandidateSiteList{
		candidates: make([]*CandidateSite, 0, len(positions)),
	}

	for _, pos := range positions {
		candidateSiteList.addCandidateSite(NewCandidateSite(pos.X, pos.Y))
	}

	return &candidateSiteList
}

func ReadCandidateSiteList(filePath string) (*CandidateSiteList, error) {
	positions, err := utils.ReadPositions(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading candidate sites from %s: %w", filePath, err)
	}

	return CreateCandidateSiteList(positions), nil
}

func (csl *CandidateSiteList) addCandidateSite(candidate *CandidateSite) {
	candidate.id = SiteId(csl.count)
	csl.candidates = append(csl.candidates, candidate)
	csl.count++
}

func (csl *CandidateSiteList) Count() int32 {
	return csl.count
}

func (csl *CandidateSiteList) GetCandidatePosition(siteId SiteId) utils.Position {
	return csl.candidates[siteId].pos
}

func (csl *CandidateSiteList) GetCandidateSiteIdList() []SiteId {
	ids := make([]SiteId, len(csl.candidates))
	for idx, candidate := range csl.candidates {
		ids[idx] = candidate.id
	}
	return ids
}
