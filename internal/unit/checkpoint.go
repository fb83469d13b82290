package unit

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hydrocal/calibration-core/internal/param"
)

// checkpointState is the on-disk form of a unit: the full parameter history
// plus best-score bookkeeping. The format must round-trip exactly so a
// restarted run continues from identical state.
type checkpointState struct {
	ID            string           `yaml:"id"`
	Table         param.TableState `yaml:"table"`
	BestScore     float64          `yaml:"best_score"`
	BestIteration string           `yaml:"best_iteration"`
}

// CheckpointFile returns the checkpoint filename for the unit.
func (u *Unit) CheckpointFile() string {
	return fmt.Sprintf("%s_parameter_state.yaml", u.id)
}

// Checkpoint writes the unit's full state into dir. The unit is the only
// writer of its checkpoint path; it writes once per iteration.
func (u *Unit) Checkpoint(dir string) error {
	state := checkpointState{
		ID:            u.id,
		Table:         u.table.Snapshot(),
		BestScore:     u.bestScore,
		BestIteration: u.bestLabel,
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("unit %s: failed to marshal checkpoint: %w", u.id, err)
	}
	path := filepath.Join(dir, u.CheckpointFile())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unit %s: failed to write checkpoint: %w", u.id, err)
	}
	return nil
}

// Restore replaces the unit's state from the checkpoint in dir.
func (u *Unit) Restore(dir string) error {
	path := filepath.Join(dir, u.CheckpointFile())
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unit %s: failed to read checkpoint: %w", u.id, err)
	}
	var state checkpointState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unit %s: failed to parse checkpoint %s: %w", u.id, path, err)
	}
	table, err := param.FromSnapshot(state.Table)
	if err != nil {
		return fmt.Errorf("unit %s: invalid checkpoint table: %w", u.id, err)
	}
	u.table = table
	u.bestScore = state.BestScore
	u.bestLabel = state.BestIteration
	return nil
}

// Restart attempts to resume from a checkpoint in dir and returns the next
// iteration to run: one past the last scored parameter column. A missing
// checkpoint leaves the unit fresh and reports iteration 0.
func (u *Unit) Restart(dir string) (int, error) {
	path := filepath.Join(dir, u.CheckpointFile())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}
	if err := u.Restore(dir); err != nil {
		return 0, err
	}
	return u.table.Iterations(), nil
}
