package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/solver"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

const ArchiveVersion = 1

// Archive is the self-contained record of a finished run, enough to redraw
// every plot without the solver.
type Archive struct {
	Version     int                   `json:"version"`
	RunID       string                `json:"run_id"`
	Seed        uint64                `json:"seed"`
	FinishedAt  time.Time             `json:"finished_at"`
	Status      string                `json:"status"`
	Iterations  int                   `json:"iterations"`
	Params      problem.Params        `json:"params"`
	Radio       site.Radio            `json:"radio"`
	Schedule    solver.Schedule       `json:"schedule"`
	Summary     Summary               `json:"summary"`
	Users       []utils.Position      `json:"users"`
	Sites       []utils.Position      `json:"sites"`
	ActiveSites []site.SiteId         `json:"active_sites"`
	Assignments []site.SiteId         `json:"assignments"`
	Exposure    []float64             `json:"exposure"`
	History     []solver.EnergyRecord `json:"history"`
}

// NewArchive captures the best solution and the history of a solver that has
// finished Solve.
func NewArchive(runID string, seed uint64, s *solver.SASolver, best *problem.PlacementSolution) Archive {
	instance := best.GetProblem()

	users := make([]utils.Position, instance.NumUsers())
	for _, userId := range instance.GetUserIds() {
		users[userId] = instance.GetUserPosition(userId)
	}
	sites := make([]utils.Position, instance.NumSites())
	for _, siteId := range instance.GetSiteIds() {
		sites[siteId] = instance.GetSitePosition(siteId)
	}

	return Archive{
		Version:     ArchiveVersion,
		RunID:       runID,
		Seed:        seed,
		FinishedAt:  time.Now().UTC(),
		Status:      s.GetStatus().String(),
		Iterations:  s.GetIteration(),
		Params:      instance.GetParams(),
		Radio:       instance.GetRadio(),
		Schedule:    s.GetSchedule(),
		Summary:     Summarize(best, s.GetBestCost()),
		Users:       users,
		Sites:       sites,
		ActiveSites: best.GetActiveSites(),
		Assignments: best.GetAssignments(),
		Exposure:    best.GetExposure(),
		History:     s.GetHistory(),
	}
}

// WriteArchive stores the archive as zstd-compressed JSON.
func WriteArchive(path string, archive Archive) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(archive); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func ReadArchive(path string) (Archive, error) {
	var archive Archive

	f, err := os.Open(path)
	if err != nil {
		return archive, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return archive, err
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(&archive); err != nil {
		return archive, fmt.Errorf("decoding archive %s: %w", path, err)
	}
	if archive.Version != ArchiveVersion {
		return archive, fmt.Errorf("archive %s: unsupported version %d", path, archive.Version)
	}
	return archive, nil
}
