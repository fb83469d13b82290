package config

import (
	"fmt"
	"time"

	"github.com/hydrocal/calibration-core/internal/param"
)

// Config is the top-level calibration configuration, loaded from a single
// YAML file.
type Config struct {
	General General `yaml:"general"`
	Model   Model   `yaml:"model"`
}

// Algorithm identifies the search algorithm driving the calibration.
type Algorithm string

const (
	// AlgorithmDDS is the Dynamic Dimensioned Search algorithm
	AlgorithmDDS Algorithm = "dds"
	// AlgorithmPSO is Particle Swarm Optimization
	AlgorithmPSO Algorithm = "pso"
	// AlgorithmGWO is the Grey Wolf Optimizer
	AlgorithmGWO Algorithm = "gwo"
)

// CalibrationStrategy controls how parameter vectors map to catchments.
type CalibrationStrategy string

const (
	// StrategyUniform searches one global parameter vector shared by all catchments
	StrategyUniform CalibrationStrategy = "uniform"
	// StrategyIndependent gives every catchment its own independently searched vector
	StrategyIndependent CalibrationStrategy = "independent"
	// StrategyExplicit calibrates only the explicitly enumerated catchments,
	// each with its own vector
	StrategyExplicit CalibrationStrategy = "explicit"
)

// General holds process-wide calibration settings.
type General struct {
	Strategy       Strategy `yaml:"strategy"`
	Iterations     int      `yaml:"iterations"`
	StartIteration int      `yaml:"start_iteration"`
	Restart        bool     `yaml:"restart"`
	Workdir        string   `yaml:"workdir"`
	Log            bool     `yaml:"log"`
	LogLevel       string   `yaml:"log_level"`
	RandomSeed     uint64   `yaml:"random_seed"`
}

// Strategy selects the estimation algorithm and its tuning knobs.
type Strategy struct {
	Type       string         `yaml:"type"`
	Algorithm  Algorithm      `yaml:"algorithm"`
	Parameters map[string]any `yaml:"parameters"`
}

// FloatParam returns a float tuning knob from the strategy parameters,
// falling back to def when absent.
func (s Strategy) FloatParam(name string, def float64) float64 {
	v, ok := s.Parameters[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

// IntParam returns an integer tuning knob from the strategy parameters,
// falling back to def when absent.
func (s Strategy) IntParam(name string, def int) int {
	v, ok := s.Parameters[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

// Model describes the external simulation engine under calibration and the
// catchments whose parameters are adjusted.
type Model struct {
	Binary         string              `yaml:"binary"`
	Args           string              `yaml:"args"`
	Realization    string              `yaml:"realization"`
	Strategy       CalibrationStrategy `yaml:"strategy"`
	OutputVariable string              `yaml:"output_variable"`
	Observations   string              `yaml:"observations"`
	Evaluation     Evaluation          `yaml:"evaluation"`
	// EvalCatchment is the catchment whose simulated output is scored under
	// the independent and uniform strategies. Defaults to the first catchment.
	EvalCatchment string `yaml:"eval_catchment"`
	// Gage optionally names the observation site for the evaluation point;
	// it defaults to the evaluation catchment id.
	Gage string `yaml:"gage"`
	// Params is the shared parameter space for the uniform strategy.
	Params []param.Parameter `yaml:"params"`
	// Catchments enumerate the adjustable units for the independent and
	// explicit strategies. Under uniform they identify the catchments the
	// shared vector is written to.
	Catchments []Catchment `yaml:"catchments"`
}

// Catchment binds a catchment id to a model formulation and its tunable
// parameter definitions.
type Catchment struct {
	ID          string            `yaml:"id"`
	Formulation FormulationKind   `yaml:"formulation"`
	Params      []param.Parameter `yaml:"params"`
	// Gage optionally names the observation site evaluated against; it
	// defaults to the catchment id.
	Gage string `yaml:"gage"`
}

// EvalID returns the identifier used to fetch observed flow for the catchment.
func (c Catchment) EvalID() string {
	if c.Gage != "" {
		return c.Gage
	}
	return c.ID
}

// Evaluation bounds the scoring window and names the objective.
type Evaluation struct {
	Objective string    `yaml:"objective"`
	Start     time.Time `yaml:"start"`
	Stop      time.Time `yaml:"stop"`
	Interval  string    `yaml:"interval"`
}

// GetInterval parses the simulation time step used to resample observations.
func (e Evaluation) GetInterval() (time.Duration, error) {
	if e.Interval == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(e.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", e.Interval, err)
	}
	return d, nil
}

// ValidationError reports invalid or inconsistent configuration. It is fatal
// and raised before the search loop starts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Invalidf builds a ValidationError with a formatted message.
func Invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
