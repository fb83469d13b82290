package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/internal/param"
	"github.com/hydrocal/calibration-core/internal/unit"
	"github.com/hydrocal/calibration-core/pkg/config"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

// swarmSet returns the single uniform calibration set the swarm algorithms
// operate on. Configuration validation enforces this, but an agent built by
// hand could still violate it.
func swarmSet(ag *agent.Agent) (*unit.Set, *unit.Unit, error) {
	sets := ag.Sets()
	if len(sets) != 1 || !sets[0].Uniform() {
		return nil, nil, config.Invalidf("swarm search requires a single uniform calibration set")
	}
	return sets[0], sets[0].Adjustables()[0], nil
}

// initPositions seeds a swarm: particle 0 starts at the configured initial
// values, the rest are drawn uniformly within the parameter bounds.
func initPositions(n int, t *param.Table, rng *utils.RandSource) [][]float64 {
	params := t.Parameters()
	positions := make([][]float64, n)
	for k := range positions {
		positions[k] = make([]float64, len(params))
		for d, p := range params {
			if k == 0 {
				positions[k][d] = p.Init
				continue
			}
			u := distuv.Uniform{Min: p.Min, Max: p.Max, Src: rng.Source()}
			positions[k][d] = u.Rand()
		}
	}
	return positions
}

// evaluateSwarm scores every particle position concurrently. Each worker
// agent owns its own job working directory, so engine runs proceed in
// parallel without sharing files; workers are leased from a pool so at most
// len(workers) runs are in flight.
func evaluateSwarm(ctx context.Context, workers []*agent.Agent, set *unit.Set, names []string, positions [][]float64) ([]float64, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("swarm evaluation requires at least one worker agent")
	}
	pool := make(chan *agent.Agent, len(workers))
	for _, w := range workers {
		pool <- w
	}

	costs := make([]float64, len(positions))
	g, ctx := errgroup.WithContext(ctx)
	for k := range positions {
		k := k
		g.Go(func() error {
			w := <-pool
			defer func() { pool <- w }()
			if err := w.PushValues(names, positions[k]); err != nil {
				return err
			}
			cost, err := w.Score(ctx, set.OutputID(), set.ObservedID())
			if err != nil {
				return err
			}
			costs[k] = cost
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return costs, nil
}

// recordGeneration appends the generation's best particle vector to the
// shared unit's history and checkpoints the set. The history stays one column
// per generation, mirroring the one-column-per-iteration shape DDS produces.
func recordGeneration(set *unit.Set, u *unit.Unit, workdir string, positions [][]float64, costs []float64) (label string, best int, err error) {
	best = 0
	for k := 1; k < len(costs); k++ {
		if costs[k] < costs[best] {
			best = k
		}
	}
	label, err = u.Table().Append(positions[best])
	if err != nil {
		return "", 0, err
	}
	set.Update(label, costs[best])
	if err := set.Checkpoint(workdir); err != nil {
		return "", 0, err
	}
	return label, best, nil
}
