package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/solver"
)

// WriteHistory writes the energy history as CSV, one line per iteration.
func WriteHistory(w io.Writer, history []solver.EnergyRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("it,currEnergy,bestEnergy\n"); err != nil {
		return err
	}
	for it, record := range history {
		if _, err := fmt.Fprintf(bw, "%d,%f,%f\n", it, record.Current, record.Best); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePlacement lists the active sites as "id x y".
func WritePlacement(w io.Writer, sol *problem.PlacementSolution) error {
	bw := bufio.NewWriter(w)
	instance := sol.GetProblem()
	for _, siteId := range sol.GetActiveSites() {
		pos := instance.GetSitePosition(siteId)
		if _, err := fmt.Fprintf(bw, "%d %g %g\n", siteId, pos.X, pos.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAssignments lists every user as "id x y site emf", site being -1 for
// unserved users.
func WriteAssignments(w io.Writer, sol *problem.PlacementSolution) error {
	bw := bufio.NewWriter(w)
	instance := sol.GetProblem()
	exposure := sol.GetExposure()
	for _, userId := range instance.GetUserIds() {
		pos := instance.GetUserPosition(userId)
		servingSite := sol.GetServingSite(userId)
		if _, err := fmt.Fprintf(bw, "%d %g %g %d %g\n", userId, pos.X, pos.Y, servingSite, exposure[userId]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportResults writes the history, placement and assignment files of a run
// into dir, named after prefix.
func ExportResults(dir, prefix string, history []solver.EnergyRecord, sol *problem.PlacementSolution) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{prefix + "_log.csv", func(w io.Writer) error { return WriteHistory(w, history) }},
		{prefix + "_placement.dat", func(w io.Writer) error { return WritePlacement(w, sol) }},
		{prefix + "_assignments.dat", func(w io.Writer) error { return WriteAssignments(w, sol) }},
	}

	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
