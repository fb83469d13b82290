// Package search implements the calibration search algorithms: dynamic
// dimensioned search, particle swarm optimization, and the grey wolf
// optimizer. Each drives the run/score cycle through an agent and checkpoints
// every adjustable unit after every iteration.
package search

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/internal/param"
	"github.com/hydrocal/calibration-core/internal/unit"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

// defaultNeighborhood is the DDS perturbation scale as a fraction of each
// parameter's bound width.
const defaultNeighborhood = 0.2

// DDS runs dynamic dimensioned search over one calibration set, resuming at
// start (0 means evaluate the initial vector first). Every adjustable unit in
// the set is perturbed each iteration and a single model run scores them all.
func DDS(ctx context.Context, start int, set *unit.Set, ag *agent.Agent, rng *utils.RandSource) error {
	cfg := ag.Config()
	iterations := cfg.General.Iterations
	neighborhood := cfg.General.Strategy.FloatParam("neighborhood", defaultNeighborhood)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng.Source()}
	log := ag.Log().With("algorithm", "dds", "catchment", set.OutputID())

	if start == 0 {
		for _, u := range set.Adjustables() {
			if err := ag.PushUnit("0", u, set.Uniform()); err != nil {
				return fmt.Errorf("iteration 0: %w", err)
			}
		}
		score, err := ag.Score(ctx, set.OutputID(), set.ObservedID())
		if err != nil {
			return fmt.Errorf("iteration 0: %w", err)
		}
		set.Update("0", score)
		if err := set.Checkpoint(ag.Job().Workdir); err != nil {
			return err
		}
		if err := saveRNGState(ag.Job().Workdir, rng); err != nil {
			return err
		}
		log.Info("evaluated initial parameters", "score", score)
		start = 1
	}

	for i := start; i <= iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := param.Label(i)
		prob := inclusionProbability(i, iterations)
		for _, u := range set.Adjustables() {
			if err := perturb(u, prob, neighborhood, rng, norm); err != nil {
				return fmt.Errorf("iteration %s: %w", label, err)
			}
			if err := ag.PushUnit(label, u, set.Uniform()); err != nil {
				return fmt.Errorf("iteration %s: %w", label, err)
			}
		}
		score, err := ag.Score(ctx, set.OutputID(), set.ObservedID())
		if err != nil {
			return fmt.Errorf("iteration %s: %w", label, err)
		}
		improved := set.Update(label, score)
		if err := set.Checkpoint(ag.Job().Workdir); err != nil {
			return err
		}
		if err := saveRNGState(ag.Job().Workdir, rng); err != nil {
			return err
		}
		log.Info("iteration complete",
			"iteration", i, "score", score, "improved", improved,
			"best_score", set.BestScore(), "best_iteration", set.BestIteration())
	}

	log.Info("search complete", "best_score", set.BestScore(), "best_iteration", set.BestIteration())
	return nil
}

// inclusionProbability is the DDS dimension selection probability for
// iteration i of total: it decays from near 1 toward 0 so the search narrows
// over time.
func inclusionProbability(i, total int) float64 {
	return 1 - math.Log(float64(i))/math.Log(float64(total))
}

// perturb appends a DDS candidate column to the unit's table: each dimension
// of the best-found vector is perturbed with probability prob by a Gaussian
// step scaled to the parameter's bound width, with at least one dimension
// always perturbed.
func perturb(u *unit.Unit, prob, neighborhood float64, rng *utils.RandSource, norm distuv.Normal) error {
	candidate, err := u.BestColumn()
	if err != nil {
		return err
	}
	params := u.Table().Parameters()

	selected := make([]int, 0, len(candidate))
	for d := range candidate {
		if rng.BernoulliBool(prob) {
			selected = append(selected, d)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, rng.Intn(len(candidate)))
	}

	for _, d := range selected {
		p := params[d]
		step := p.Sigma(neighborhood) * norm.Rand()
		candidate[d] = utils.ReflectFloat64(candidate[d]+step, p.Min, p.Max)
	}

	_, err = u.Table().Append(candidate)
	return err
}
