package problem

import (
	"fmt"
)

// Params are the economic parameters of the placement objective.
type Params struct {
	MaxSites           int     `yaml:"b_max"`
	UserRevenue        float64 `yaml:"r_ue"`
	SiteCost           float64 `yaml:"c_bs"`
	IncludeEMFExposure bool    `yaml:"include_emf_exposure"`
}

func (params *Params) Validate() error {
	if params.MaxSites <= 0 {
		return fmt.Errorf("%w: b_max must be > 0, got %d", ErrInvalidConfiguration, params.MaxSites)
	}
	return nil
}
