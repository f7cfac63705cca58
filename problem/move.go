package problem

import (
	"fmt"
	"math/rand/v2"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
)

type MoveKind int

const (
	Activate MoveKind = iota
	Deactivate
	Swap

	numMoveKinds = 3
)

func (kind MoveKind) String() string {
	switch kind {
	case Activate:
		return "activate"
	case Deactivate:
		return "deactivate"
	case Swap:
		return "swap"
	default:
		return fmt.Sprintf("MoveKind(%d)", int(kind))
	}
}

// Move is one elemental topology change. Both drawn indices always travel
// with the move: Activate reads SiteA, Deactivate reads SiteB and Swap
// deactivates SiteB before activating SiteA.
type Move struct {
	Kind  MoveKind
	SiteA site.SiteId
	SiteB site.SiteId
}

func (move Move) String() string {
	return fmt.Sprintf("%s(a=%d, b=%d)", move.Kind, move.SiteA, move.SiteB)
}

// RandomMove draws two site indices uniformly from [0, numSites), then one of
// the three move kinds uniformly.
func RandomMove(rng *rand.Rand, numSites int) Move {
	siteA := site.SiteId(rng.IntN(numSites))
	siteB := site.SiteId(rng.IntN(numSites))
	kind := MoveKind(rng.IntN(numMoveKinds))

	return Move{Kind: kind, SiteA: siteA, SiteB: siteB}
}
