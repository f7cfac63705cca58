package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/datagen"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/problem"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/solver"
)

// EnvPrefix prefixes the environment variables that override flags, e.g.
// PLACEMENT_B_MAX.
const EnvPrefix = "PLACEMENT"

type Config struct {
	Seed         uint64           `yaml:"seed"`
	LogLevel     string           `yaml:"log_level"`
	MetricsAddr  string           `yaml:"metrics_addr"`
	Input        Input            `yaml:"input"`
	Scenario     datagen.Scenario `yaml:"scenario"`
	Optimization problem.Params   `yaml:"optimization"`
	Radio        site.Radio       `yaml:"radio"`
	Annealing    solver.Schedule  `yaml:"annealing"`
	Output       Output           `yaml:"output"`
}

// Input points at position files. When both are empty the scenario is
// generated from Scenario.
type Input struct {
	UsersFile string `yaml:"users_file"`
	SitesFile string `yaml:"sites_file"`
}

type Output struct {
	Dir      string `yaml:"dir"`
	Prefix   string `yaml:"prefix"`
	Archive  bool   `yaml:"archive"`
	RunIndex string `yaml:"run_index"`
}

func Default() Config {
	return Config{
		Seed:     1,
		LogLevel: "info",
		Scenario: datagen.DefaultScenario(),
		Optimization: problem.Params{
			MaxSites:    30,
			UserRevenue: 1,
			SiteCost:    5,
		},
		Radio: site.Radio{
			SiteHeight:  25,
			UserHeight:  1.5,
			CellRadius:  954,
			TxPower:     20,
			AntennaGain: 1,
		},
		Annealing: solver.DefaultSchedule(),
		Output: Output{
			Dir:     "output",
			Prefix:  "sa",
			Archive: true,
		},
	}
}

// GeneratesScenario reports whether positions come from the generator rather
// than from files.
func (cfg *Config) GeneratesScenario() bool {
	return cfg.Input.UsersFile == "" && cfg.Input.SitesFile == ""
}

func (cfg *Config) Validate() error {
	var errs []error
	if err := cfg.Optimization.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Radio.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Annealing.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.GeneratesScenario() {
		if err := cfg.Scenario.Validate(); err != nil {
			errs = append(errs, err)
		}
	} else if cfg.Input.UsersFile == "" || cfg.Input.SitesFile == "" {
		errs = append(errs, errors.New("input: users_file and sites_file must be set together"))
	}
	return errors.Join(errs...)
}

// LoadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current value; unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// RegisterFlags declares the command-line surface on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML configuration file")
	fs.Uint64("seed", 0, "random seed of the scenario and the annealer")
	fs.String("log-level", "", "zap level name or logr verbosity")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	fs.String("users-file", "", "user positions, one \"x y\" per line")
	fs.String("sites-file", "", "candidate site positions, one \"x y\" per line")
	fs.Int("b-max", 0, "maximum number of active sites")
	fs.Float64("r-ue", 0, "revenue per served user")
	fs.Float64("c-bs", 0, "operating cost per active site")
	fs.Float64("r-cell", 0, "cell radius in metres")
	fs.Bool("include-emf", false, "add the cubed peak EMF exposure to the energy")
	fs.Float64("initial-temperature", 0, "starting temperature")
	fs.Int("max-iterations", 0, "iteration cap")
	fs.String("output-dir", "", "directory receiving the result files")
	fs.String("run-index", "", "SQLite file indexing finished runs")
}

// Load builds the configuration from defaults, the optional YAML file named
// by --config, then flags and PLACEMENT_* environment variables, and
// validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return cfg, err
	}

	if path := v.GetString("config"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyOverrides(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *Config) {
	if v.IsSet("seed") {
		cfg.Seed = v.GetUint64("seed")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
	if v.IsSet("metrics-addr") {
		cfg.MetricsAddr = v.GetString("metrics-addr")
	}
	if v.IsSet("users-file") {
		cfg.Input.UsersFile = v.GetString("users-file")
	}
	if v.IsSet("sites-file") {
		cfg.Input.SitesFile = v.GetString("sites-file")
	}
	if v.IsSet("b-max") {
		cfg.Optimization.MaxSites = v.GetInt("b-max")
	}
	if v.IsSet("r-ue") {
		cfg.Optimization.UserRevenue = v.GetFloat64("r-ue")
	}
	if v.IsSet("c-bs") {
		cfg.Optimization.SiteCost = v.GetFloat64("c-bs")
	}
	if v.IsSet("r-cell") {
		cfg.Radio.CellRadius = v.GetFloat64("r-cell")
	}
	if v.IsSet("include-emf") {
		cfg.Optimization.IncludeEMFExposure = v.GetBool("include-emf")
	}
	if v.IsSet("initial-temperature") {
		cfg.Annealing.InitialTemperature = v.GetFloat64("initial-temperature")
	}
	if v.IsSet("max-iterations") {
		cfg.Annealing.MaxIterations = v.GetInt("max-iterations")
	}
	if v.IsSet("output-dir") {
		cfg.Output.Dir = v.GetString("output-dir")
	}
	if v.IsSet("run-index") {
		cfg.Output.RunIndex = v.GetString("run-index")
	}
}
