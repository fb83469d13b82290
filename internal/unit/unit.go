// Package unit holds the adjustable entities a calibration run manages: a
// single catchment, or a set of catchments scored at one evaluation point.
// Each unit owns its parameter history and best-score state and can
// checkpoint both to the job working directory after every iteration.
package unit

import (
	"fmt"
	"math"

	"github.com/hydrocal/calibration-core/internal/param"
)

// Unit is one adjustable entity: a catchment (or a shared global vector under
// the uniform strategy) with a parameter table and best-state bookkeeping.
type Unit struct {
	id        string
	table     *param.Table
	bestScore float64
	bestLabel string
}

// New creates a unit in its initial state: parameter column "0" seeded from
// each parameter's initial value, best score at +Inf (lower is better).
// Parameter definitions are copied so units never alias each other.
func New(id string, params []param.Parameter) (*Unit, error) {
	if id == "" {
		return nil, fmt.Errorf("unit id cannot be empty")
	}
	table, err := param.NewTable(params)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", id, err)
	}
	return &Unit{
		id:        id,
		table:     table,
		bestScore: math.Inf(1),
		bestLabel: "0",
	}, nil
}

// ID returns the unit identifier, used to key checkpoint files and the
// external model configuration fragment.
func (u *Unit) ID() string {
	return u.id
}

// Table returns the unit's parameter value history.
func (u *Unit) Table() *param.Table {
	return u.table
}

// BestScore returns the best (lowest) score seen so far, +Inf before any
// evaluation.
func (u *Unit) BestScore() float64 {
	return u.bestScore
}

// BestIteration returns the column label of the best-found parameter vector.
func (u *Unit) BestIteration() string {
	return u.bestLabel
}

// BestColumn returns the best-found parameter vector.
func (u *Unit) BestColumn() ([]float64, error) {
	return u.table.Column(u.bestLabel)
}

// Update records the score for an iteration label. A score that ties the
// current best moves the best label forward, so the freshest of equally good
// vectors wins. Returns whether the best state changed.
func (u *Unit) Update(label string, score float64) bool {
	if score <= u.bestScore {
		u.bestScore = score
		u.bestLabel = label
		return true
	}
	return false
}
