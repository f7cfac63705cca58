// Package datagen samples synthetic planning scenarios: users drawn from a
// mix of Gaussian hot spots and a uniform background, and candidate sites
// drawn uniformly over the same square area.
package datagen

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

// Cluster is a Gaussian hot spot of users.
type Cluster struct {
	Size  int        `yaml:"size"`
	Mean  [2]float64 `yaml:"mean"`
	Sigma [2]float64 `yaml:"sigma"`
}

type Scenario struct {
	Clusters      []Cluster `yaml:"clusters"`
	UniformUsers  int       `yaml:"uniform_users"`
	Sites         int       `yaml:"sites"`
	MaxCoordinate float64   `yaml:"max_coordinate"`
}

// DefaultScenario is a 10 km square with two hot spots, 500 users and 200
// candidate sites.
func DefaultScenario() Scenario {
	return Scenario{
		Clusters: []Cluster{
			{Size: 100, Mean: [2]float64{2000, 7500}, Sigma: [2]float64{800, 500}},
			{Size: 150, Mean: [2]float64{7000, 3000}, Sigma: [2]float64{500, 750}},
		},
		UniformUsers:  250,
		Sites:         200,
		MaxCoordinate: 10000,
	}
}

func (scenario *Scenario) NumUsers() int {
	total := scenario.UniformUsers
	for _, cluster := range scenario.Clusters {
		total += cluster.Size
	}
	return total
}

func (scenario *Scenario) Validate() error {
	var errs []error
	if scenario.MaxCoordinate <= 0 {
		errs = append(errs, fmt.Errorf("max_coordinate must be > 0, got %g", scenario.MaxCoordinate))
	}
	if scenario.UniformUsers < 0 {
		errs = append(errs, fmt.Errorf("uniform_users must be >= 0, got %d", scenario.UniformUsers))
	}
	if scenario.Sites < 0 {
		errs = append(errs, fmt.Errorf("sites must be >= 0, got %d", scenario.Sites))
	}
	for idx, cluster := range scenario.Clusters {
		if cluster.Size < 0 {
			errs = append(errs, fmt.Errorf("cluster %d: size must be >= 0, got %d", idx, cluster.Size))
		}
		if cluster.Sigma[0] < 0 || cluster.Sigma[1] < 0 {
			errs = append(errs, fmt.Errorf("cluster %d: sigma must be >= 0, got %v", idx, cluster.Sigma))
		}
	}
	return errors.Join(errs...)
}

// GenerateUsers samples every cluster, then the uniform background, and
// returns the positions sorted by x.
func GenerateUsers(src rand.Source, scenario Scenario) []utils.Position {
	positions := make([]utils.Position, 0, scenario.NumUsers())
	for _, cluster := range scenario.Clusters {
		positions = append(positions, gaussianPositions(src, cluster, scenario.MaxCoordinate)...)
	}
	positions = append(positions, UniformPositions(src, scenario.UniformUsers, scenario.MaxCoordinate)...)

	slices.SortStableFunc(positions, func(a, b utils.Position) int {
		return cmp.Compare(a.X, b.X)
	})
	return positions
}

func GenerateSites(src rand.Source, scenario Scenario) []utils.Position {
	return UniformPositions(src, scenario.Sites, scenario.MaxCoordinate)
}

// UniformPositions draws n integer positions in [0, maxCoordinate) on both
// axes.
func UniformPositions(src rand.Source, n int, maxCoordinate float64) []utils.Position {
	dist := distuv.Uniform{Min: 0, Max: maxCoordinate, Src: src}

	positions := make([]utils.Position, n)
	for i := range positions {
		positions[i] = utils.Position{X: math.Floor(dist.Rand()), Y: math.Floor(dist.Rand())}
	}
	return positions
}

// gaussianPositions draws a cluster, clips it to the square area and rounds
// to whole metres.
func gaussianPositions(src rand.Source, cluster Cluster, maxCoordinate float64) []utils.Position {
	distX := distuv.Normal{Mu: cluster.Mean[0], Sigma: cluster.Sigma[0], Src: src}
	distY := distuv.Normal{Mu: cluster.Mean[1], Sigma: cluster.Sigma[1], Src: src}

	positions := make([]utils.Position, cluster.Size)
	for i := range positions {
		x := math.Round(clip(distX.Rand(), maxCoordinate))
		y := math.Round(clip(distY.Rand(), maxCoordinate))
		positions[i] = utils.Position{X: x, Y: y}
	}
	return positions
}

func clip(value, maxCoordinate float64) float64 {
	return math.Min(math.Max(value, 0), maxCoordinate)
}
