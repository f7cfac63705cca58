package solver

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
)

const defaultProgressInterval = 1000

type Option func(*SASolver)

func WithLogger(logger logr.Logger) Option {
	return func(solver *SASolver) {
		solver.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(solver *SASolver) {
		solver.observer = observer
	}
}

// WithProgressInterval sets how many iterations separate two V(1) progress
// lines.
func WithProgressInterval(iterations int) Option {
	return func(solver *SASolver) {
		solver.progressInterval = iterations
	}
}

// SASolver runs a single Metropolis chain over site activations. It owns the
// current, candidate and best solutions, none of which share memory.
type SASolver struct {
	problemInstance  *problem.PlacementProblem
	schedule         Schedule
	rng              *rand.Rand
	logger           logr.Logger
	observer         Observer
	progressInterval int

	currSolution *problem.PlacementSolution
	nextSolution *problem.PlacementSolution
	bestSolution *problem.PlacementSolution
	currCost     float64
	bestCost     float64

	temp      float64
	iteration int
	status    Status
	history   []EnergyRecord
	startTime time.Time
}

func CreateSASolver(instance *problem.PlacementProblem, schedule Schedule, rng *rand.Rand, opts ...Option) (*SASolver, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: nil problem instance", problem.ErrInvalidConfiguration)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random generator", problem.ErrInvalidConfiguration)
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	s := &SASolver{
		problemInstance:  instance,
		schedule:         schedule,
		rng:              rng,
		logger:           logr.Discard(),
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()

	return s, nil
}

func (solver *SASolver) reset() {
	solver.temp = solver.schedule.InitialTemperature
	solver.iteration = 0
	solver.status = Initializing
	solver.currCost = math.Inf(1)
	solver.bestCost = math.Inf(1)
	solver.history = make([]EnergyRecord, 0, min(solver.schedule.MaxIterations, 1<<16))
}

// Solve runs a full annealing from scratch and returns a copy of the best
// solution found. An error means a move addressed a site outside the catalog,
// which is an internal bug.
func (solver *SASolver) Solve() (*problem.PlacementSolution, error) {
	solver.reset()
	solver.startTime = time.Now()
	solver.logger.Info("Starting annealing",
		"users", solver.problemInstance.NumUsers(),
		"sites", solver.problemInstance.NumSites(),
		"maxSites", solver.problemInstance.MaxSites(),
		"temperature", solver.temp)

	if err := solver.initialConfig(); err != nil {
		return nil, err
	}
	solver.logger.Info("Initial configuration",
		"activeSites", solver.currSolution.NumActiveSites(),
		"servedUsers", solver.currSolution.NumServedUsers(),
		"energy", solver.currCost)

	solver.status = Running
	for solver.temp >= solver.schedule.StoppingTemperature && solver.iteration < solver.schedule.MaxIterations {
		if err := solver.iterate(); err != nil {
			return nil, err
		}
	}

	if solver.temp < solver.schedule.StoppingTemperature {
		solver.status = Converged
	} else {
		solver.status = IterationCapReached
	}

	solver.logger.Info("Finished annealing",
		"status", solver.status.String(),
		"iterations", solver.iteration,
		"bestEnergy", solver.bestCost,
		"servedUsers", solver.bestSolution.NumServedUsers(),
		"activeSites", solver.bestSolution.NumActiveSites(),
		"elapsed", time.Since(solver.startTime))

	return solver.bestSolution.Copy(), nil
}

// initialConfig applies a random number of moves in [1, B_max) to an empty
// solution and commits the result as both current and best. The moves build
// on each other, so some may cancel and fewer sites can end up active.
func (solver *SASolver) initialConfig() error {
	numMoves := 1
	if maxSites := solver.problemInstance.MaxSites(); maxSites > 1 {
		numMoves += solver.rng.IntN(maxSites - 1)
	}

	solver.nextSolution = solver.problemInstance.CreateEmptySolution()
	for i := 0; i < numMoves; i++ {
		move := problem.RandomMove(solver.rng, solver.problemInstance.NumSites())
		if _, err := solver.nextSolution.ApplyMove(move); err != nil {
			return fmt.Errorf("initial move %v: %w", move, err)
		}
	}

	cost := solver.nextSolution.GetCost()
	solver.currSolution = solver.nextSolution.Copy()
	solver.currCost = cost
	solver.bestSolution = solver.nextSolution.Copy()
	solver.bestCost = cost

	return nil
}

func (solver *SASolver) iterate() error {
	solver.nextSolution.CopyFrom(solver.currSolution)

	move := problem.RandomMove(solver.rng, solver.problemInstance.NumSites())
	changed, err := solver.nextSolution.ApplyMove(move)
	if err != nil {
		return fmt.Errorf("iteration %d, move %v: %w", solver.iteration, move, err)
	}

	nextCost := solver.nextSolution.GetCost()
	accepted, improved := solver.accept(nextCost)

	solver.history = append(solver.history, EnergyRecord{Current: solver.currCost, Best: solver.bestCost})

	if solver.observer != nil {
		solver.observer.ObserveIteration(IterationRecord{
			Iteration:       solver.iteration,
			Temperature:     solver.temp,
			Move:            move,
			Changed:         changed,
			Accepted:        accepted,
			Improved:        improved,
			CandidateEnergy: nextCost,
			CurrentEnergy:   solver.currCost,
			BestEnergy:      solver.bestCost,
		})
	}

	if log := solver.logger.V(2); log.Enabled() {
		log.Info("Iteration", "it", solver.iteration, "temp", solver.temp, "move", move.String(),
			"accepted", accepted, "nextCost", nextCost, "currCost", solver.currCost, "bestCost", solver.bestCost)
	}
	if solver.progressInterval > 0 && solver.iteration%solver.progressInterval == 0 {
		solver.logger.V(1).Info("Annealing progress", "it", solver.iteration, "temp", solver.temp,
			"currCost", solver.currCost, "bestCost", solver.bestCost, "time", time.Since(solver.startTime))
	}

	solver.temp = solver.cool(solver.temp)
	solver.iteration++

	return nil
}

// accept runs the Metropolis test on a candidate of the given energy and
// commits it when it passes.
func (solver *SASolver) accept(nextCost float64) (accepted, improved bool) {
	if nextCost < solver.currCost {
		solver.acceptCurrent(nextCost)
		if nextCost < solver.bestCost {
			solver.acceptBest(nextCost)
			improved = true
		}
		return true, improved
	}

	if solver.rng.Float64() < AcceptanceProbability(nextCost-solver.currCost, solver.temp) {
		solver.acceptCurrent(nextCost)
		return true, false
	}

	return false, false
}

// acceptCurrent moves the candidate into the current slot. The old current
// becomes the scratch candidate and is overwritten on the next iteration.
func (solver *SASolver) acceptCurrent(cost float64) {
	solver.currSolution, solver.nextSolution = solver.nextSolution, solver.currSolution
	solver.currCost = cost
}

// acceptBest snapshots the freshly accepted current solution.
func (solver *SASolver) acceptBest(cost float64) {
	solver.bestSolution.CopyFrom(solver.currSolution)
	solver.bestCost = cost
}

func (solver *SASolver) cool(temp float64) float64 {
	return temp * solver.schedule.CoolingRate
}

// AcceptanceProbability is the Metropolis probability of moving to a state
// whose energy differs by delta at temperature temp.
func AcceptanceProbability(delta, temp float64) float64 {
	return math.Exp(-math.Abs(delta) / temp)
}

func (solver *SASolver) GetBestSolution() *problem.PlacementSolution {
	if solver.bestSolution == nil {
		return nil
	}
	return solver.bestSolution.Copy()
}

func (solver *SASolver) GetBestCost() float64 {
	return solver.bestCost
}

func (solver *SASolver) GetCurrentCost() float64 {
	return solver.currCost
}

func (solver *SASolver) GetTemperature() float64 {
	return solver.temp
}

func (solver *SASolver) GetIteration() int {
	return solver.iteration
}

func (solver *SASolver) GetStatus() Status {
	return solver.status
}

func (solver *SASolver) GetSchedule() Schedule {
	return solver.schedule
}

// GetHistory returns the (current, best) energy pair of every iteration.
func (solver *SASolver) GetHistory() []EnergyRecord {
	history := make([]EnergyRecord, len(solver.history))
	copy(history, solver.history)
	return history
}
