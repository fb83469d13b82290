// Package agent wires a calibration run together: it owns the job working
// directory, builds the adjustable units demanded by the calibration
// strategy, and mediates every interaction between the search loop and the
// external simulation engine.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/hydrocal/calibration-core/internal/ngen"
	"github.com/hydrocal/calibration-core/internal/objective"
	"github.com/hydrocal/calibration-core/internal/series"
	"github.com/hydrocal/calibration-core/internal/unit"
	"github.com/hydrocal/calibration-core/pkg/config"
	"github.com/hydrocal/calibration-core/pkg/logger"
)

// ModelRunner invokes the simulation engine once.
type ModelRunner interface {
	Run(ctx context.Context) error
}

// OutputReader reads simulated flow for a catchment. A missing output file
// yields (nil, nil), not an error.
type OutputReader interface {
	Output(id string) ([]series.FlowPoint, error)
}

// ObservationProvider supplies observed flow for a site over a window.
type ObservationProvider interface {
	Observed(id string, start, stop time.Time, step time.Duration) ([]series.FlowPoint, error)
}

// ConfigUpdater writes parameter values into the engine configuration for one
// catchment, or for all catchments when id is empty.
type ConfigUpdater interface {
	Apply(id string, names []string, values []float64) error
}

// Collaborators bundles the engine-facing dependencies an agent needs. Zero
// fields are filled with the production implementations bound to the job
// working directory; tests inject fakes.
type Collaborators struct {
	Runner       ModelRunner
	Output       OutputReader
	Observations ObservationProvider
	Realization  ConfigUpdater
}

// ModelRunError reports a simulation engine invocation failure. It is fatal:
// the search loop aborts and leaves checkpoints at the last completed
// iteration.
type ModelRunError struct {
	Err error
}

func (e *ModelRunError) Error() string {
	return fmt.Sprintf("model run failed: %v", e.Err)
}

func (e *ModelRunError) Unwrap() error { return e.Err }

// RestartInconsistencyError reports checkpoints that disagree on how many
// iterations completed. It is recoverable: the run falls back to a fresh
// start.
type RestartInconsistencyError struct {
	Counts []int
}

func (e *RestartInconsistencyError) Error() string {
	return fmt.Sprintf("checkpoints disagree on completed iterations: %v", e.Counts)
}

// jobName keys working directories and the engine log file.
const jobName = "ngen"

// Agent owns one job working directory and the calibration sets built from
// the configured strategy.
type Agent struct {
	cfg    *config.Config
	job    *JobMeta
	sets   []*unit.Set
	collab Collaborators
	score  objective.Func
	log    *slog.Logger
}

// New builds an agent from validated configuration. A nil collab gets the
// production engine collaborators; a non-nil one is used as given with zero
// fields defaulted. When cfg.General.Restart is set the previous job working
// directory is reused if exactly one exists, otherwise a fresh one is created.
func New(cfg *config.Config, collab *Collaborators, log *slog.Logger) (*Agent, error) {
	if log == nil {
		log = logger.Default
	}

	var job *JobMeta
	var err error
	if cfg.General.Restart {
		job, err = FindJob(jobName, cfg.General.Workdir, cfg.General.Log)
		if err != nil {
			log.Warn("cannot reuse previous job workdir, starting fresh", "error", err)
			job = nil
		}
	}
	fresh := job == nil
	if fresh {
		job, err = NewJob(jobName, cfg.General.Workdir, cfg.General.Log)
		if err != nil {
			return nil, err
		}
	}

	a := &Agent{cfg: cfg, job: job, log: log}

	if collab != nil {
		a.collab = *collab
	}
	if err := a.defaultCollaborators(fresh); err != nil {
		return nil, err
	}

	a.score, err = objective.FromName(cfg.Model.Evaluation.Objective)
	if err != nil {
		return nil, err
	}

	a.sets, err = buildSets(cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// defaultCollaborators fills unset collaborator slots with the production
// implementations. The realization fragment is copied into the job workdir so
// each agent owns the file it mutates.
func (a *Agent) defaultCollaborators(fresh bool) error {
	cfg := a.cfg
	if a.collab.Runner == nil {
		a.collab.Runner = ngen.NewRunner(cfg.Model.Binary, cfg.Model.Args, a.job.Workdir, a.job.LogFile)
	}
	if a.collab.Output == nil {
		a.collab.Output = ngen.NewOutputReader(a.job.Workdir, cfg.Model.OutputVariable)
	}
	if a.collab.Observations == nil {
		a.collab.Observations = ngen.NewObservationProvider(cfg.Model.Observations)
	}
	if a.collab.Realization == nil {
		dst := filepath.Join(a.job.Workdir, filepath.Base(cfg.Model.Realization))
		if fresh {
			if err := copyFile(cfg.Model.Realization, dst); err != nil {
				return fmt.Errorf("failed to stage realization: %w", err)
			}
		}
		a.collab.Realization = ngen.NewRealizationUpdater(dst)
	}
	return nil
}

// buildSets maps the calibration strategy onto adjustable units. Explicit
// gives every enumerated catchment its own set scored at its own gage;
// independent adjusts every catchment but scores a single evaluation point;
// uniform searches one shared vector written to every catchment.
func buildSets(cfg *config.Config) ([]*unit.Set, error) {
	switch cfg.Model.Strategy {
	case config.StrategyExplicit:
		sets := make([]*unit.Set, 0, len(cfg.Model.Catchments))
		for _, c := range cfg.Model.Catchments {
			u, err := unit.New(c.ID, c.Params)
			if err != nil {
				return nil, err
			}
			s, err := unit.NewSet(c.ID, c.EvalID(), []*unit.Unit{u})
			if err != nil {
				return nil, err
			}
			sets = append(sets, s)
		}
		return sets, nil

	case config.StrategyIndependent:
		units := make([]*unit.Unit, 0, len(cfg.Model.Catchments))
		for _, c := range cfg.Model.Catchments {
			u, err := unit.New(c.ID, c.Params)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
		s, err := unit.NewSet(cfg.Model.EvalCatchment, evalGage(cfg), units)
		if err != nil {
			return nil, err
		}
		return []*unit.Set{s}, nil

	case config.StrategyUniform:
		shared, err := unit.New("global", cfg.Model.Params)
		if err != nil {
			return nil, err
		}
		s, err := unit.NewUniformSet(cfg.Model.EvalCatchment, evalGage(cfg), shared)
		if err != nil {
			return nil, err
		}
		return []*unit.Set{s}, nil
	}
	return nil, config.Invalidf("unknown calibration strategy: %q", cfg.Model.Strategy)
}

func evalGage(cfg *config.Config) string {
	if cfg.Model.Gage != "" {
		return cfg.Model.Gage
	}
	for _, c := range cfg.Model.Catchments {
		if c.ID == cfg.Model.EvalCatchment {
			return c.EvalID()
		}
	}
	return cfg.Model.EvalCatchment
}

// Config returns the run configuration.
func (a *Agent) Config() *config.Config { return a.cfg }

// Job returns the agent's job working directory metadata.
func (a *Agent) Job() *JobMeta { return a.job }

// Sets returns the calibration sets built from the strategy.
func (a *Agent) Sets() []*unit.Set { return a.sets }

// Log returns the agent's logger.
func (a *Agent) Log() *slog.Logger { return a.log }

// PushUnit writes a unit's parameter column for the given iteration into the
// engine configuration. Under the uniform strategy the vector is applied to
// every catchment.
func (a *Agent) PushUnit(label string, u *unit.Unit, uniform bool) error {
	col, err := u.Table().Column(label)
	if err != nil {
		return err
	}
	id := u.ID()
	if uniform {
		id = ""
	}
	return a.collab.Realization.Apply(id, u.Table().Names(), col)
}

// PushValues writes an ad hoc parameter vector to every catchment. Swarm
// candidate evaluation uses this before a particle's model run.
func (a *Agent) PushValues(names []string, values []float64) error {
	return a.collab.Realization.Apply("", names, values)
}

// RunModel invokes the simulation engine once in the job working directory.
func (a *Agent) RunModel(ctx context.Context) error {
	return a.collab.Runner.Run(ctx)
}

// Score runs the engine once and scores the configured objective at the given
// evaluation point. Absent model output and objective domain failures score
// +Inf so the search keeps moving; engine and observation failures are
// returned as errors and abort the run.
func (a *Agent) Score(ctx context.Context, outputID, observedID string) (float64, error) {
	if err := a.RunModel(ctx); err != nil {
		return 0, &ModelRunError{Err: err}
	}

	sim, err := a.collab.Output.Output(outputID)
	if err != nil {
		return 0, err
	}
	if sim == nil {
		a.log.Warn("model produced no output, scoring as failure", "catchment", outputID)
		return math.Inf(1), nil
	}

	eval := a.cfg.Model.Evaluation
	step, err := eval.GetInterval()
	if err != nil {
		return 0, err
	}
	obs, err := a.collab.Observations.Observed(observedID, eval.Start, eval.Stop, step)
	if err != nil {
		return 0, err
	}

	simVals, obsVals := series.Align(series.Window(sim, eval.Start, eval.Stop), obs)
	if len(simVals) == 0 {
		a.log.Warn("no overlapping timestamps between simulated and observed flow",
			"catchment", outputID, "site", observedID)
		return math.Inf(1), nil
	}

	score, err := a.score(simVals, obsVals)
	if err != nil {
		var derr *objective.DomainError
		if errors.As(err, &derr) {
			a.log.Warn("objective undefined for this iteration, scoring as failure",
				"catchment", outputID, "reason", derr.Reason)
			return math.Inf(1), nil
		}
		return 0, err
	}
	return score, nil
}

// ResolveRestart reconciles per-unit checkpoints and returns the next
// iteration to run. All units must agree; on disagreement the units are
// rebuilt fresh and the search starts over from iteration 0.
func (a *Agent) ResolveRestart() (int, error) {
	if !a.cfg.General.Restart {
		return a.cfg.General.StartIteration, nil
	}

	var counts []int
	for _, s := range a.sets {
		n, err := s.Restart(a.job.Workdir)
		if err != nil {
			return 0, err
		}
		counts = append(counts, n...)
	}
	if len(counts) == 0 {
		return 0, nil
	}

	agreed := true
	for _, n := range counts[1:] {
		if n != counts[0] {
			agreed = false
			break
		}
	}
	if !agreed {
		a.log.Warn("falling back to a fresh start", "error", &RestartInconsistencyError{Counts: counts})
		sets, err := buildSets(a.cfg)
		if err != nil {
			return 0, err
		}
		a.sets = sets
		return 0, nil
	}

	start := counts[0]
	if start > 0 {
		a.log.Info("resuming from checkpoints", "next_iteration", start)
	}
	return start, nil
}

// Duplicate creates an agent sharing this one's configuration but owning a
// fresh job working directory seeded with the current realization fragment.
// Swarm searches give each concurrent particle its own duplicate so engine
// runs never collide on the filesystem.
func (a *Agent) Duplicate() (*Agent, error) {
	job, err := NewJob(jobName, a.cfg.General.Workdir, a.cfg.General.Log)
	if err != nil {
		return nil, err
	}
	dup := &Agent{
		cfg:   a.cfg,
		job:   job,
		score: a.score,
		log:   a.log.With("worker", filepath.Base(job.Workdir)),
	}
	src := filepath.Join(a.job.Workdir, filepath.Base(a.cfg.Model.Realization))
	if err := copyFile(src, filepath.Join(job.Workdir, filepath.Base(src))); err != nil {
		return nil, fmt.Errorf("failed to stage realization for worker: %w", err)
	}
	if err := dup.defaultCollaborators(false); err != nil {
		return nil, err
	}
	// Observations are read-only and shared.
	dup.collab.Observations = a.collab.Observations
	return dup, nil
}
