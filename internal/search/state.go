package search

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hydrocal/calibration-core/pkg/utils"
)

// rngStateFile persists the random stream position alongside the unit
// checkpoints. A resumed run restores it so the draw sequence continues where
// the interrupted run stopped, and a seeded split run walks the same
// trajectory as an uninterrupted one.
const rngStateFile = "rng_state.yaml"

type rngState struct {
	State []byte `yaml:"state"`
}

func saveRNGState(dir string, rng *utils.RandSource) error {
	state, err := rng.MarshalState()
	if err != nil {
		return fmt.Errorf("failed to encode random stream state: %w", err)
	}
	data, err := yaml.Marshal(rngState{State: state})
	if err != nil {
		return fmt.Errorf("failed to marshal random stream state: %w", err)
	}
	path := filepath.Join(dir, rngStateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write random stream state %s: %w", path, err)
	}
	return nil
}

func loadRNGState(dir string, rng *utils.RandSource) error {
	path := filepath.Join(dir, rngStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read random stream state %s: %w", path, err)
	}
	var state rngState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse random stream state %s: %w", path, err)
	}
	return rng.RestoreState(state.State)
}
