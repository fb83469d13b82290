package search

import (
	"context"
	"fmt"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/pkg/config"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

// Run dispatches the configured search algorithm across the agent's
// calibration sets, reconciling restart state first. It blocks until the
// search completes, the context is canceled, or a fatal error aborts the run.
func Run(ctx context.Context, ag *agent.Agent, rng *utils.RandSource) error {
	cfg := ag.Config()
	switch cfg.General.Strategy.Algorithm {
	case config.AlgorithmDDS:
		start, err := ag.ResolveRestart()
		if err != nil {
			return err
		}
		restoreRNG(ag, rng, cfg.General.Restart && start > 0)
		for _, set := range ag.Sets() {
			if err := DDS(ctx, start, set, ag, rng); err != nil {
				return err
			}
		}
		return nil

	case config.AlgorithmPSO:
		if cfg.General.Restart || cfg.General.StartIteration > 0 {
			ag.Log().Warn("particle swarm state is not checkpointed, starting from generation 1")
		}
		workers, err := spawnWorkers(ag)
		if err != nil {
			return err
		}
		return PSO(ctx, ag, workers, rng)

	case config.AlgorithmGWO:
		start, err := ag.ResolveRestart()
		if err != nil {
			return err
		}
		restoreRNG(ag, rng, cfg.General.Restart && start > 1)
		workers, err := spawnWorkers(ag)
		if err != nil {
			return err
		}
		return GWO(ctx, start, ag, workers, rng)
	}
	return config.Invalidf("unknown search algorithm: %q", cfg.General.Strategy.Algorithm)
}

// restoreRNG rewinds the random source to the checkpointed stream position
// when resuming. A missing or unreadable state file degrades to a fresh
// stream from the seed rather than aborting the run.
func restoreRNG(ag *agent.Agent, rng *utils.RandSource, resuming bool) {
	if !resuming {
		return
	}
	if err := loadRNGState(ag.Job().Workdir, rng); err != nil {
		ag.Log().Warn("random stream state unavailable, draws restart from the seed", "error", err)
	}
}

// spawnWorkers duplicates the agent once per concurrent engine run. The pool
// size defaults to the particle count and never exceeds it.
func spawnWorkers(ag *agent.Agent) ([]*agent.Agent, error) {
	strategy := ag.Config().General.Strategy
	particles := strategy.IntParam("particles", defaultParticles)
	if ag.Config().General.Strategy.Algorithm == config.AlgorithmGWO {
		particles = strategy.IntParam("particles", defaultWolves)
	}
	pool := strategy.IntParam("pool", particles)
	if pool < 1 {
		pool = 1
	}
	if pool > particles {
		pool = particles
	}

	workers := make([]*agent.Agent, 0, pool)
	for i := 0; i < pool; i++ {
		w, err := ag.Duplicate()
		if err != nil {
			return nil, fmt.Errorf("failed to spawn worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}
