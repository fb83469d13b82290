package search

import (
	"context"
	"fmt"
	"math"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

// PSO tuning knob defaults, read from the strategy parameters block.
const (
	defaultParticles = 4
	defaultInertia   = 0.9
	defaultCognitive = 0.5
	defaultSocial    = 0.3
)

// PSO runs global-best particle swarm optimization over the single uniform
// calibration set. workers evaluate particle positions concurrently; each
// must own its own job working directory. Swarm state is not checkpointed, so
// PSO always starts from generation 1.
func PSO(ctx context.Context, ag *agent.Agent, workers []*agent.Agent, rng *utils.RandSource) error {
	set, u, err := swarmSet(ag)
	if err != nil {
		return err
	}
	cfg := ag.Config()
	iterations := cfg.General.Iterations
	strategy := cfg.General.Strategy
	inertia := strategy.FloatParam("w", defaultInertia)
	cognitive := strategy.FloatParam("c1", defaultCognitive)
	social := strategy.FloatParam("c2", defaultSocial)
	n := strategy.IntParam("particles", defaultParticles)
	log := ag.Log().With("algorithm", "pso", "particles", n)

	names := u.Table().Names()
	lower, upper := u.Table().Bounds()
	dims := u.Table().Len()

	positions := initPositions(n, u.Table(), rng)
	velocities := make([][]float64, n)
	pbestPos := make([][]float64, n)
	pbestCost := make([]float64, n)
	for k := range velocities {
		velocities[k] = make([]float64, dims)
		pbestPos[k] = append([]float64(nil), positions[k]...)
		pbestCost[k] = math.Inf(1)
	}
	gbestPos := append([]float64(nil), positions[0]...)
	gbestCost := math.Inf(1)

	for gen := 1; gen <= iterations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if gen > 1 {
			for k := range positions {
				for d := 0; d < dims; d++ {
					r1, r2 := rng.Float64(), rng.Float64()
					velocities[k][d] = inertia*velocities[k][d] +
						cognitive*r1*(pbestPos[k][d]-positions[k][d]) +
						social*r2*(gbestPos[d]-positions[k][d])
					positions[k][d] = utils.ClampFloat64(positions[k][d]+velocities[k][d], lower[d], upper[d])
				}
			}
		}

		costs, err := evaluateSwarm(ctx, workers, set, names, positions)
		if err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
		for k, cost := range costs {
			if cost < pbestCost[k] {
				pbestCost[k] = cost
				copy(pbestPos[k], positions[k])
			}
			if cost < gbestCost {
				gbestCost = cost
				copy(gbestPos, positions[k])
			}
		}

		label, best, err := recordGeneration(set, u, ag.Job().Workdir, positions, costs)
		if err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
		log.Info("generation complete",
			"generation", gen, "iteration", label, "score", costs[best],
			"best_score", set.BestScore(), "best_iteration", set.BestIteration())
	}

	log.Info("search complete", "best_score", set.BestScore(), "best_iteration", set.BestIteration())
	return nil
}
