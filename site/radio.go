package site

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

// Far-field power density constant of a point transmitter, E² = 30·P·G / d².
const exposureConstant = 30.0

// Radio holds the link parameters shared by every candidate site.
type Radio struct {
	SiteHeight  float64 `yaml:"h_bs"`
	UserHeight  float64 `yaml:"h_ue"`
	CellRadius  float64 `yaml:"r_cell"`
	TxPower     float64 `yaml:"p_tx_bs"`
	AntennaGain float64 `yaml:"g_ant_bs"`
}

func (radio *Radio) Validate() error {
	var errs []error
	if radio.CellRadius <= 0 {
		errs = append(errs, fmt.Errorf("r_cell must be > 0, got %g", radio.CellRadius))
	}
	if radio.SiteHeight < 0 || radio.UserHeight < 0 {
		errs = append(errs, fmt.Errorf("antenna heights must be >= 0, got h_bs=%g h_ue=%g", radio.SiteHeight, radio.UserHeight))
	}
	if radio.TxPower < 0 {
		errs = append(errs, fmt.Errorf("p_tx_bs must be >= 0, got %g", radio.TxPower))
	}
	if radio.AntennaGain < 0 {
		errs = append(errs, fmt.Errorf("g_ant_bs must be >= 0, got %g", radio.AntennaGain))
	}
	return errors.Join(errs...)
}

func (radio *Radio) verticalOffsetSq() float64 {
	dh := radio.SiteHeight - radio.UserHeight
	return dh * dh
}

// SquaredLinkDistance is the squared 3D distance between a site antenna and a
// user antenna.
func (radio *Radio) SquaredLinkDistance(sitePos, userPos utils.Position) float64 {
	return sitePos.SquaredDistanceFrom(userPos) + radio.verticalOffsetSq()
}

func (radio *Radio) InRange(sitePos, userPos utils.Position) bool {
	return radio.SquaredLinkDistance(sitePos, userPos) < radio.CellRadius*radio.CellRadius
}

// UsersInRange flags every user strictly inside the coverage radius of a site
// placed at sitePos.
func (radio *Radio) UsersInRange(sitePos utils.Position, users []utils.Position) []bool {
	inRange := make([]bool, len(users))
	for idx, userPos := range users {
		inRange[idx] = radio.InRange(sitePos, userPos)
	}
	return inRange
}

// Exposure returns the EMF contribution of a site placed at sitePos to every
// user. A user at zero link distance gets +Inf, or 0 when the site radiates
// nothing.
func (radio *Radio) Exposure(sitePos utils.Position, users []utils.Position) []float64 {
	num := exposureConstant * radio.TxPower * radio.AntennaGain
	exposure := make([]float64, len(users))
	for idx, userPos := range users {
		d2 := radio.SquaredLinkDistance(sitePos, userPos)
		switch {
		case d2 > 0:
			exposure[idx] = num / d2
		case num > 0:
			exposure[idx] = math.Inf(1)
		}
	}
	return exposure
}

// ApplyExposure writes baseline + sign·contribution into dst and returns it.
// dst may alias baseline; contribution is never modified.
func ApplyExposure(dst, baseline, contribution []float64, sign float64) []float64 {
	return floats.AddScaledTo(dst, baseline, sign, contribution)
}
