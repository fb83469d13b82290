package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hydrocal/calibration-core/internal/objective"
)

// Load reads, parses and validates a calibration configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.Strategy.Type == "" {
		cfg.General.Strategy.Type = "estimation"
	}
	if cfg.General.Strategy.Algorithm == "" {
		cfg.General.Strategy.Algorithm = AlgorithmDDS
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.Workdir == "" {
		cfg.General.Workdir = "."
	}
	if cfg.Model.Strategy == "" {
		cfg.Model.Strategy = StrategyIndependent
	}
	if cfg.Model.OutputVariable == "" {
		cfg.Model.OutputVariable = "Q_OUT"
	}
	if cfg.Model.EvalCatchment == "" && len(cfg.Model.Catchments) > 0 {
		cfg.Model.EvalCatchment = cfg.Model.Catchments[0].ID
	}
	if cfg.Model.Evaluation.Objective == "" {
		cfg.Model.Evaluation.Objective = objective.NameCustom
	}
}

func validate(cfg *Config) error {
	if cfg.General.Strategy.Type != "estimation" {
		return Invalidf("unsupported strategy type: %q", cfg.General.Strategy.Type)
	}
	switch cfg.General.Strategy.Algorithm {
	case AlgorithmDDS, AlgorithmPSO, AlgorithmGWO:
	default:
		return Invalidf("unknown search algorithm: %q", cfg.General.Strategy.Algorithm)
	}
	if cfg.General.Iterations < 2 {
		return Invalidf("iterations must be >= 2, got %d", cfg.General.Iterations)
	}
	if cfg.General.StartIteration < 0 || cfg.General.StartIteration > cfg.General.Iterations {
		return Invalidf("start_iteration %d outside [0, %d]", cfg.General.StartIteration, cfg.General.Iterations)
	}

	switch cfg.Model.Strategy {
	case StrategyUniform, StrategyIndependent, StrategyExplicit:
	default:
		return Invalidf("unknown calibration strategy: %q", cfg.Model.Strategy)
	}

	// PSO and GWO search a single shared parameter space; anything else is a
	// configuration error surfaced before the search loop starts.
	if cfg.General.Strategy.Algorithm != AlgorithmDDS && cfg.Model.Strategy != StrategyUniform {
		return Invalidf("algorithm %q requires the uniform calibration strategy, got %q",
			cfg.General.Strategy.Algorithm, cfg.Model.Strategy)
	}

	if cfg.Model.Binary == "" {
		return Invalidf("model binary cannot be empty")
	}
	if cfg.Model.Realization == "" {
		return Invalidf("model realization path cannot be empty")
	}
	if len(cfg.Model.Catchments) == 0 {
		return Invalidf("at least one catchment must be defined")
	}

	if _, err := objective.FromName(cfg.Model.Evaluation.Objective); err != nil {
		return Invalidf("invalid objective: %v", err)
	}
	if _, err := cfg.Model.Evaluation.GetInterval(); err != nil {
		return Invalidf("invalid evaluation interval: %v", err)
	}
	if !cfg.Model.Evaluation.Start.IsZero() && !cfg.Model.Evaluation.Stop.IsZero() &&
		!cfg.Model.Evaluation.Stop.After(cfg.Model.Evaluation.Start) {
		return Invalidf("evaluation stop must be after start")
	}

	seen := make(map[string]bool, len(cfg.Model.Catchments))
	for _, c := range cfg.Model.Catchments {
		if c.ID == "" {
			return Invalidf("catchment id cannot be empty")
		}
		if seen[c.ID] {
			return Invalidf("duplicate catchment id: %s", c.ID)
		}
		seen[c.ID] = true
		if !c.Formulation.Valid() {
			return Invalidf("catchment %s: unknown formulation kind: %q", c.ID, c.Formulation)
		}
		for _, p := range c.Params {
			if err := p.Validate(); err != nil {
				return Invalidf("catchment %s: %v", c.ID, err)
			}
		}
	}

	if cfg.Model.EvalCatchment != "" && !seen[cfg.Model.EvalCatchment] {
		return Invalidf("eval_catchment %q is not a configured catchment", cfg.Model.EvalCatchment)
	}

	if cfg.Model.Strategy == StrategyUniform {
		if len(cfg.Model.Params) == 0 {
			return Invalidf("uniform strategy requires model-level params")
		}
		for _, p := range cfg.Model.Params {
			if err := p.Validate(); err != nil {
				return Invalidf("model params: %v", err)
			}
		}
	} else {
		for _, c := range cfg.Model.Catchments {
			if len(c.Params) == 0 {
				return Invalidf("catchment %s: no parameters to calibrate", c.ID)
			}
		}
	}

	return nil
}
