package search

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

// defaultWolves is the grey wolf pack size.
const defaultWolves = 10

// gwoStateFile persists swarm positions between runs so an interrupted GWO
// search resumes without re-evaluating the whole pack.
const gwoStateFile = "gwo_swarm_state.yaml"

type gwoState struct {
	Positions [][]float64 `yaml:"positions"`
	Costs     []float64   `yaml:"costs"`
}

// GWO runs the grey wolf optimizer over the single uniform calibration set.
// start is the next generation to run from restart reconciliation; past the
// first generation the swarm is restored from the job working directory.
// Wolves follow the three best pack members with an exploration coefficient
// that decays linearly to zero over the run.
func GWO(ctx context.Context, start int, ag *agent.Agent, workers []*agent.Agent, rng *utils.RandSource) error {
	set, u, err := swarmSet(ag)
	if err != nil {
		return err
	}
	cfg := ag.Config()
	iterations := cfg.General.Iterations
	n := cfg.General.Strategy.IntParam("particles", defaultWolves)
	if n < 3 {
		return fmt.Errorf("grey wolf optimizer needs at least 3 wolves, got %d", n)
	}
	log := ag.Log().With("algorithm", "gwo", "wolves", n)

	names := u.Table().Names()
	lower, upper := u.Table().Bounds()
	dims := u.Table().Len()

	var positions [][]float64
	var costs []float64
	if start > 1 {
		state, err := loadSwarmState(ag.Job().Workdir)
		if err != nil {
			log.Warn("swarm state unavailable, restarting search from scratch", "error", err)
			start = 1
		} else if len(state.Positions) != n || len(state.Costs) != n {
			log.Warn("swarm state does not match configured pack size, restarting search from scratch")
			start = 1
		} else {
			positions = state.Positions
			costs = state.Costs
			log.Info("resuming swarm", "next_generation", start)
		}
	}
	if start < 1 {
		start = 1
	}
	if positions == nil {
		positions = initPositions(n, u.Table(), rng)
	}

	for gen := start; gen <= iterations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if costs != nil {
			alpha, beta, delta := leaders(positions, costs)
			a := 2 * (1 - float64(gen-1)/float64(iterations))
			for k := range positions {
				for d := 0; d < dims; d++ {
					x1 := stalk(alpha[d], positions[k][d], a, rng)
					x2 := stalk(beta[d], positions[k][d], a, rng)
					x3 := stalk(delta[d], positions[k][d], a, rng)
					positions[k][d] = utils.ClampFloat64((x1+x2+x3)/3, lower[d], upper[d])
				}
			}
		}

		genCosts, err := evaluateSwarm(ctx, workers, set, names, positions)
		if err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
		costs = genCosts

		label, best, err := recordGeneration(set, u, ag.Job().Workdir, positions, costs)
		if err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
		if err := saveSwarmState(ag.Job().Workdir, positions, costs); err != nil {
			return err
		}
		if err := saveRNGState(ag.Job().Workdir, rng); err != nil {
			return err
		}
		log.Info("generation complete",
			"generation", gen, "iteration", label, "score", costs[best],
			"best_score", set.BestScore(), "best_iteration", set.BestIteration())
	}

	log.Info("search complete", "best_score", set.BestScore(), "best_iteration", set.BestIteration())
	return nil
}

// stalk computes one leader's pull on a wolf along a single dimension.
func stalk(leader, x, a float64, rng *utils.RandSource) float64 {
	A := 2*a*rng.Float64() - a
	C := 2 * rng.Float64()
	D := math.Abs(C*leader - x)
	return leader - A*D
}

// leaders returns copies of the three best pack positions by cost. Copies,
// because the pack is mutated in place while wolves follow them.
func leaders(positions [][]float64, costs []float64) (alpha, beta, delta []float64) {
	order := make([]int, len(costs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return costs[order[i]] < costs[order[j]] })
	alpha = append([]float64(nil), positions[order[0]]...)
	beta = append([]float64(nil), positions[order[1]]...)
	delta = append([]float64(nil), positions[order[2]]...)
	return alpha, beta, delta
}

func saveSwarmState(dir string, positions [][]float64, costs []float64) error {
	data, err := yaml.Marshal(gwoState{Positions: positions, Costs: costs})
	if err != nil {
		return fmt.Errorf("failed to marshal swarm state: %w", err)
	}
	path := filepath.Join(dir, gwoStateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write swarm state %s: %w", path, err)
	}
	return nil
}

func loadSwarmState(dir string) (*gwoState, error) {
	path := filepath.Join(dir, gwoStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read swarm state %s: %w", path, err)
	}
	var state gwoState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse swarm state %s: %w", path, err)
	}
	return &state, nil
}
