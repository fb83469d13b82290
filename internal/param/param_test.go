package param

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testParams() []Parameter {
	return []Parameter{
		{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.439},
		{Name: "satdk", Min: 0, Max: 0.000726, Init: 3.38e-06},
		{Name: "slope", Min: 0, Max: 1, Init: 0.01},
	}
}

func TestParameterValidate(t *testing.T) {
	tests := []struct {
		name    string
		param   Parameter
		wantErr bool
	}{
		{"Valid", Parameter{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.4}, false},
		{"Init at min", Parameter{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.2}, false},
		{"Init at max", Parameter{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.6}, false},
		{"Empty name", Parameter{Min: 0, Max: 1, Init: 0.5}, true},
		{"Min above max", Parameter{Name: "x", Min: 1, Max: 0, Init: 0.5}, true},
		{"Init below min", Parameter{Name: "x", Min: 0.2, Max: 0.6, Init: 0.1}, true},
		{"Init above max", Parameter{Name: "x", Min: 0.2, Max: 0.6, Init: 0.7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.param.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParameterSigma(t *testing.T) {
	p := Parameter{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.4}
	if got := p.Sigma(0.2); math.Abs(got-0.08) > 1e-12 {
		t.Errorf("Sigma(0.2) = %v, want 0.08", got)
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if table.Iterations() != 1 {
		t.Errorf("Iterations() = %d, want 1", table.Iterations())
	}
	if table.LastLabel() != "0" {
		t.Errorf("LastLabel() = %q, want \"0\"", table.LastLabel())
	}

	col, err := table.Column("0")
	if err != nil {
		t.Fatalf("Column(0) error = %v", err)
	}
	want := []float64{0.439, 3.38e-06, 0.01}
	if diff := cmp.Diff(want, col); diff != "" {
		t.Errorf("initial column mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTableRejects(t *testing.T) {
	if _, err := NewTable(nil); err == nil {
		t.Error("expected error for empty parameter list")
	}
	dup := []Parameter{
		{Name: "x", Min: 0, Max: 1, Init: 0},
		{Name: "x", Min: 0, Max: 1, Init: 0},
	}
	if _, err := NewTable(dup); err == nil {
		t.Error("expected error for duplicate parameter names")
	}
}

func TestTableAppend(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	label, err := table.Append([]float64{0.5, 1e-06, 0.2})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if label != "1" {
		t.Errorf("Append() label = %q, want \"1\"", label)
	}
	if table.Iterations() != 2 {
		t.Errorf("Iterations() = %d, want 2", table.Iterations())
	}

	if _, err := table.Append([]float64{0.5}); err == nil {
		t.Error("expected error for short column")
	}
	if _, err := table.Append([]float64{0.5, math.NaN(), 0.2}); err == nil {
		t.Error("expected error for NaN value")
	}
	// Failed appends must not grow the history.
	if table.Iterations() != 2 {
		t.Errorf("Iterations() = %d after rejected appends, want 2", table.Iterations())
	}
}

func TestTableColumnUnknown(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	var uerr *ErrUnknownColumn
	if _, err := table.Column("7"); !errors.As(err, &uerr) {
		t.Errorf("Column(7) error = %v, want ErrUnknownColumn", err)
	}
	if _, err := table.Column("not-a-label"); !errors.As(err, &uerr) {
		t.Errorf("Column(not-a-label) error = %v, want ErrUnknownColumn", err)
	}
}

func TestTableBoundsAndNames(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	lower, upper := table.Bounds()
	if diff := cmp.Diff([]float64{0.2, 0, 0}, lower); diff != "" {
		t.Errorf("lower bounds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.6, 0.000726, 1}, upper); diff != "" {
		t.Errorf("upper bounds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"maxsmc", "satdk", "slope"}, table.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if _, err := table.Append([]float64{0.5, 1e-06, 0.2}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := table.Append([]float64{0.3, 2e-06, 0.9}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	restored, err := FromSnapshot(table.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot() error = %v", err)
	}
	if diff := cmp.Diff(table.Snapshot(), restored.Snapshot()); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSnapshotRejects(t *testing.T) {
	table, err := NewTable(testParams())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	s := table.Snapshot()
	s.Columns = nil
	if _, err := FromSnapshot(s); err == nil {
		t.Error("expected error for snapshot without columns")
	}

	s = table.Snapshot()
	s.Columns[0] = []float64{1}
	if _, err := FromSnapshot(s); err == nil {
		t.Error("expected error for column length mismatch")
	}
}
