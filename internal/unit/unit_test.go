package unit

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hydrocal/calibration-core/internal/param"
)

func testParams() []param.Parameter {
	return []param.Parameter{
		{Name: "maxsmc", Min: 0.2, Max: 0.6, Init: 0.439},
		{Name: "slope", Min: 0, Max: 1, Init: 0.01},
	}
}

func TestNewUnit(t *testing.T) {
	u, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if u.ID() != "cat-67" {
		t.Errorf("ID() = %q, want cat-67", u.ID())
	}
	if !math.IsInf(u.BestScore(), 1) {
		t.Errorf("BestScore() = %v, want +Inf before any evaluation", u.BestScore())
	}
	if u.BestIteration() != "0" {
		t.Errorf("BestIteration() = %q, want \"0\"", u.BestIteration())
	}

	if _, err := New("", testParams()); err == nil {
		t.Error("expected error for empty unit id")
	}
}

func TestUnitUpdate(t *testing.T) {
	u, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !u.Update("0", 0.8) {
		t.Error("Update(0, 0.8) = false, want improvement over +Inf")
	}
	if u.Update("1", 0.9) {
		t.Error("Update(1, 0.9) = true, want no improvement for worse score")
	}
	if u.BestIteration() != "0" {
		t.Errorf("BestIteration() = %q after worse score, want \"0\"", u.BestIteration())
	}

	// A tie moves the best label forward so the freshest vector wins.
	if !u.Update("2", 0.8) {
		t.Error("Update(2, 0.8) = false, want tie to advance the best label")
	}
	if u.BestIteration() != "2" {
		t.Errorf("BestIteration() = %q after tie, want \"2\"", u.BestIteration())
	}
	if u.BestScore() != 0.8 {
		t.Errorf("BestScore() = %v, want 0.8", u.BestScore())
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()

	u, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := u.Table().Append([]float64{0.5, 0.2}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	u.Update("0", 0.7)
	u.Update("1", 0.4)

	if err := u.Checkpoint(dir); err != nil {
		t.Fatalf("Checkpoint() error = %v", err)
	}

	restored, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := restored.Restore(dir); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if restored.BestScore() != 0.4 {
		t.Errorf("restored BestScore() = %v, want 0.4", restored.BestScore())
	}
	if restored.BestIteration() != "1" {
		t.Errorf("restored BestIteration() = %q, want \"1\"", restored.BestIteration())
	}
	if diff := cmp.Diff(u.Table().Snapshot(), restored.Table().Snapshot()); diff != "" {
		t.Errorf("restored table mismatch (-want +got):\n%s", diff)
	}
}

func TestRestart(t *testing.T) {
	dir := t.TempDir()

	u, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// No checkpoint on disk: stays fresh and starts at 0.
	next, err := u.Restart(dir)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if next != 0 {
		t.Errorf("Restart() = %d without checkpoint, want 0", next)
	}

	if _, err := u.Table().Append([]float64{0.5, 0.2}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	u.Update("1", 0.4)
	if err := u.Checkpoint(dir); err != nil {
		t.Fatalf("Checkpoint() error = %v", err)
	}

	restored, err := New("cat-67", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	next, err = restored.Restart(dir)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	// Labels 0 and 1 are scored, so the run resumes at 2.
	if next != 2 {
		t.Errorf("Restart() = %d, want 2", next)
	}
	if restored.BestScore() != 0.4 {
		t.Errorf("restored BestScore() = %v, want 0.4", restored.BestScore())
	}
}

func TestSet(t *testing.T) {
	a, err := New("cat-1", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New("cat-2", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s, err := NewSet("cat-1", "gage-01", []*Unit{a, b})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	if s.OutputID() != "cat-1" || s.ObservedID() != "gage-01" {
		t.Errorf("set ids = %q/%q, want cat-1/gage-01", s.OutputID(), s.ObservedID())
	}
	if s.Uniform() {
		t.Error("Uniform() = true for a plain set")
	}

	// A set-level score lands on every member.
	s.Update("0", 0.5)
	if a.BestScore() != 0.5 || b.BestScore() != 0.5 {
		t.Errorf("member scores = %v/%v, want 0.5 for both", a.BestScore(), b.BestScore())
	}
}

func TestSetDefaultsObservedID(t *testing.T) {
	u, err := New("cat-1", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s, err := NewSet("cat-1", "", []*Unit{u})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	if s.ObservedID() != "cat-1" {
		t.Errorf("ObservedID() = %q, want cat-1", s.ObservedID())
	}
}

func TestUniformSet(t *testing.T) {
	shared, err := New("global", testParams())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s, err := NewUniformSet("cat-1", "gage-01", shared)
	if err != nil {
		t.Fatalf("NewUniformSet() error = %v", err)
	}
	if !s.Uniform() {
		t.Error("Uniform() = false for a uniform set")
	}
	if len(s.Adjustables()) != 1 {
		t.Errorf("Adjustables() has %d units, want 1", len(s.Adjustables()))
	}
}

func TestSetCheckpointRestart(t *testing.T) {
	dir := t.TempDir()

	a, _ := New("cat-1", testParams())
	b, _ := New("cat-2", testParams())
	s, err := NewSet("cat-1", "", []*Unit{a, b})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}

	if _, err := a.Table().Append([]float64{0.5, 0.2}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := b.Table().Append([]float64{0.3, 0.1}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	s.Update("1", 0.6)
	if err := s.Checkpoint(dir); err != nil {
		t.Fatalf("Checkpoint() error = %v", err)
	}

	ra, _ := New("cat-1", testParams())
	rb, _ := New("cat-2", testParams())
	rs, err := NewSet("cat-1", "", []*Unit{ra, rb})
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	counts, err := rs.Restart(dir)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if diff := cmp.Diff([]int{2, 2}, counts); diff != "" {
		t.Errorf("restart counts mismatch (-want +got):\n%s", diff)
	}
}
