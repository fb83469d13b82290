// Package param holds the description of tunable model parameters and the
// per-iteration value history kept for each adjustable unit.
package param

import (
	"fmt"
	"math"
)

// Parameter describes a single tunable model parameter. It is immutable once
// constructed; units that share a logical parameter definition hold
// independent copies so that one unit's search never leaks into another's.
type Parameter struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Init float64 `yaml:"init"`
}

// Validate checks the min <= init <= max invariant.
func (p Parameter) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if p.Min > p.Max {
		return fmt.Errorf("parameter %s: min %g exceeds max %g", p.Name, p.Min, p.Max)
	}
	if p.Init < p.Min || p.Init > p.Max {
		return fmt.Errorf("parameter %s: init %g outside [%g, %g]", p.Name, p.Init, p.Min, p.Max)
	}
	return nil
}

// Sigma returns the perturbation scale for the parameter given a
// neighborhood fraction of the bound width.
func (p Parameter) Sigma(neighborhood float64) float64 {
	return neighborhood * (p.Max - p.Min)
}

// ErrUnknownColumn is returned when a requested iteration label has no column.
type ErrUnknownColumn struct {
	Label string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("no parameter column for iteration %q", e.Label)
}

// Table is the ordered parameter value history for one adjustable unit.
// Rows are parameters in declaration order; columns are iteration value
// vectors labeled "0", "1", ... where column "0" is always the initial
// values. Columns are append-only and every row has a value in every column.
type Table struct {
	params  []Parameter
	columns [][]float64
}

// NewTable builds a table from parameter definitions, seeding column "0"
// with each parameter's initial value. Definitions are copied.
func NewTable(params []Parameter) (*Table, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("parameter table requires at least one parameter")
	}
	seen := make(map[string]bool, len(params))
	init := make([]float64, len(params))
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate parameter name: %s", p.Name)
		}
		seen[p.Name] = true
		init[i] = p.Init
	}
	t := &Table{
		params:  append([]Parameter(nil), params...),
		columns: [][]float64{init},
	}
	return t, nil
}

// Len returns the number of parameters (dimensions).
func (t *Table) Len() int {
	return len(t.params)
}

// Iterations returns the number of value columns, including column "0".
func (t *Table) Iterations() int {
	return len(t.columns)
}

// LastLabel returns the label of the most recently appended column.
func (t *Table) LastLabel() string {
	return Label(len(t.columns) - 1)
}

// Label formats an iteration number as a column label.
func Label(i int) string {
	return fmt.Sprintf("%d", i)
}

// Parameters returns a copy of the parameter definitions in row order.
func (t *Table) Parameters() []Parameter {
	return append([]Parameter(nil), t.params...)
}

// Names returns the parameter names in row order.
func (t *Table) Names() []string {
	names := make([]string, len(t.params))
	for i, p := range t.params {
		names[i] = p.Name
	}
	return names
}

// Bounds returns the per-dimension lower and upper bound vectors.
func (t *Table) Bounds() (min []float64, max []float64) {
	min = make([]float64, len(t.params))
	max = make([]float64, len(t.params))
	for i, p := range t.params {
		min[i] = p.Min
		max[i] = p.Max
	}
	return min, max
}

// Column returns a copy of the value vector for the given iteration label.
func (t *Table) Column(label string) ([]float64, error) {
	idx, err := parseLabel(label)
	if err != nil || idx < 0 || idx >= len(t.columns) {
		return nil, &ErrUnknownColumn{Label: label}
	}
	return append([]float64(nil), t.columns[idx]...), nil
}

// Append adds the next iteration's value column. The vector length must match
// the parameter count and values must be numbers; NaN is rejected so a broken
// objective or perturbation cannot silently poison the history.
func (t *Table) Append(values []float64) (label string, err error) {
	if len(values) != len(t.params) {
		return "", fmt.Errorf("column length %d does not match parameter count %d", len(values), len(t.params))
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return "", fmt.Errorf("parameter %s: NaN value proposed", t.params[i].Name)
		}
	}
	t.columns = append(t.columns, append([]float64(nil), values...))
	return t.LastLabel(), nil
}

// Snapshot captures the full table state for persistence.
func (t *Table) Snapshot() TableState {
	cols := make([][]float64, len(t.columns))
	for i, c := range t.columns {
		cols[i] = append([]float64(nil), c...)
	}
	return TableState{
		Parameters: t.Parameters(),
		Columns:    cols,
	}
}

// FromSnapshot reconstructs a table from persisted state.
func FromSnapshot(s TableState) (*Table, error) {
	t, err := NewTable(s.Parameters)
	if err != nil {
		return nil, err
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("table state has no value columns")
	}
	// Column 0 of the snapshot replaces the freshly seeded init column so the
	// round trip is exact even if the stored initial values were perturbed.
	t.columns = t.columns[:0]
	for i, c := range s.Columns {
		if len(c) != len(s.Parameters) {
			return nil, fmt.Errorf("column %d length %d does not match parameter count %d", i, len(c), len(s.Parameters))
		}
		t.columns = append(t.columns, append([]float64(nil), c...))
	}
	return t, nil
}

// TableState is the serializable form of a Table.
type TableState struct {
	Parameters []Parameter `yaml:"parameters"`
	Columns    [][]float64 `yaml:"columns"`
}

func parseLabel(label string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(label, "%d", &i); err != nil {
		return 0, err
	}
	return i, nil
}
