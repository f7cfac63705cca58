package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/config"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/datagen"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/logging"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/metrics"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/report"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/solver"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/user"
)

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error(err, "Placement run failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger logr.Logger) error {
	runID := report.NewRunID()
	logger = logger.WithValues("run", runID, "seed", cfg.Seed)

	// ---------- Load Data
	users, sites, err := loadScenario(cfg, logger)
	if err != nil {
		return err
	}

	// ---------- Create problem instance
	instance, err := problem.CreatePlacementProblemInstance(cfg.Optimization, users, sites, cfg.Radio)
	if err != nil {
		return err
	}

	// ---------- Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	// ---------- Solve problem
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	s, err := solver.CreateSASolver(instance, cfg.Annealing, rng,
		solver.WithLogger(logger.WithName("annealer")),
		solver.WithObserver(recorder))
	if err != nil {
		return err
	}

	start := time.Now()
	best, err := s.Solve()
	if err != nil {
		return err
	}
	logger.Info("Solving time", "elapsed", time.Since(start))
	logger.Info("Best placement", report.Summarize(best, s.GetBestCost()).KeysAndValues()...)

	// ---------- Save Result
	return saveResults(cfg, runID, s, best, logger)
}

func loadScenario(cfg config.Config, logger logr.Logger) (*user.UserList, *site.CandidateSiteList, error) {
	if cfg.GeneratesScenario() {
		src := rand.NewPCG(cfg.Seed, cfg.Seed)
		users := user.CreateUserList(datagen.GenerateUsers(src, cfg.Scenario))
		sites := site.CreateCandidateSiteList(datagen.GenerateSites(src, cfg.Scenario))
		logger.Info("Generated scenario", "users", users.Count(), "sites", sites.Count())
		return users, sites, nil
	}

	users, err := user.ReadUserList(cfg.Input.UsersFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Successfully loaded users", "count", users.Count(), "file", cfg.Input.UsersFile)

	sites, err := site.ReadCandidateSiteList(cfg.Input.SitesFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Successfully loaded candidate sites", "count", sites.Count(), "file", cfg.Input.SitesFile)

	return users, sites, nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger logr.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func saveResults(cfg config.Config, runID string, s *solver.SASolver, best *problem.PlacementSolution, logger logr.Logger) error {
	out := cfg.Output
	if err := report.ExportResults(out.Dir, out.Prefix, s.GetHistory(), best); err != nil {
		return err
	}
	logger.Info("Exported results", "dir", out.Dir, "prefix", out.Prefix)

	if !out.Archive && out.RunIndex == "" {
		return nil
	}

	archive := report.NewArchive(runID, cfg.Seed, s, best)
	archivePath := ""
	if out.Archive {
		archivePath = filepath.Join(out.Dir, fmt.Sprintf("%s_%s.json.zst", out.Prefix, runID))
		if err := report.WriteArchive(archivePath, archive); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
		logger.V(1).Info("Archived run", "path", archivePath)
	}

	if out.RunIndex != "" {
		idx, err := report.OpenRunIndex(out.RunIndex)
		if err != nil {
			return fmt.Errorf("opening run index: %w", err)
		}
		defer idx.Close()

		if err := idx.RecordRun(context.Background(), report.RunRecordFromArchive(archive, archivePath)); err != nil {
			return err
		}
		logger.V(1).Info("Indexed run", "index", out.RunIndex)
	}
	return nil
}
