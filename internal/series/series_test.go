package series

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func hourly(values ...float64) []FlowPoint {
	points := make([]FlowPoint, len(values))
	for i, v := range values {
		points[i] = FlowPoint{Time: t0.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return points
}

func TestWindow(t *testing.T) {
	points := hourly(1, 2, 3, 4, 5)

	got := Window(points, t0.Add(time.Hour), t0.Add(3*time.Hour))
	if diff := cmp.Diff(hourly(1, 2, 3, 4)[1:4], got); diff != "" {
		t.Errorf("Window() mismatch (-want +got):\n%s", diff)
	}

	if got := Window(points, time.Time{}, time.Time{}); len(got) != 5 {
		t.Errorf("open window kept %d points, want 5", len(got))
	}
}

func TestAlign(t *testing.T) {
	sim := hourly(1, 2, 3, 4)
	// Observations miss hour 1 and carry an extra sample outside the
	// simulated range.
	obs := []FlowPoint{
		{Time: t0, Value: 10},
		{Time: t0.Add(2 * time.Hour), Value: 30},
		{Time: t0.Add(3 * time.Hour), Value: 40},
		{Time: t0.Add(9 * time.Hour), Value: 90},
	}

	sv, ov := Align(sim, obs)
	if diff := cmp.Diff([]float64{1, 3, 4}, sv); diff != "" {
		t.Errorf("simulated values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{10, 30, 40}, ov); diff != "" {
		t.Errorf("observed values mismatch (-want +got):\n%s", diff)
	}
}

func TestAlignDuplicateTimestamps(t *testing.T) {
	sim := hourly(1, 2)
	obs := []FlowPoint{
		{Time: t0, Value: 10},
		{Time: t0, Value: 99},
		{Time: t0.Add(time.Hour), Value: 20},
	}

	sv, ov := Align(sim, obs)
	if diff := cmp.Diff([]float64{1, 2}, sv); diff != "" {
		t.Errorf("simulated values mismatch (-want +got):\n%s", diff)
	}
	// The first value at a repeated timestamp wins.
	if diff := cmp.Diff([]float64{10, 20}, ov); diff != "" {
		t.Errorf("observed values mismatch (-want +got):\n%s", diff)
	}
}

func TestAlignDisjoint(t *testing.T) {
	sim := hourly(1, 2)
	obs := []FlowPoint{{Time: t0.Add(24 * time.Hour), Value: 5}}
	sv, ov := Align(sim, obs)
	if len(sv) != 0 || len(ov) != 0 {
		t.Errorf("Align() on disjoint series = %v, %v, want empty", sv, ov)
	}
}

func TestResampleNearest(t *testing.T) {
	// Samples every 15 minutes; resampled hourly each grid point takes the
	// exact on-the-hour sample.
	samples := make([]FlowPoint, 0, 9)
	for i := 0; i < 9; i++ {
		samples = append(samples, FlowPoint{
			Time:  t0.Add(time.Duration(i) * 15 * time.Minute),
			Value: float64(i),
		})
	}

	got := Resample(samples, t0, t0.Add(2*time.Hour), time.Hour)
	want := []FlowPoint{
		{Time: t0, Value: 0},
		{Time: t0.Add(time.Hour), Value: 4},
		{Time: t0.Add(2 * time.Hour), Value: 8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resample() mismatch (-want +got):\n%s", diff)
	}
}

func TestResamplePicksCloserNeighbor(t *testing.T) {
	samples := []FlowPoint{
		{Time: t0.Add(10 * time.Minute), Value: 1},
		{Time: t0.Add(55 * time.Minute), Value: 2},
	}
	got := Resample(samples, t0, t0.Add(time.Hour), time.Hour)
	if len(got) != 2 {
		t.Fatalf("Resample() returned %d points, want 2", len(got))
	}
	if got[0].Value != 1 {
		t.Errorf("grid point 0 took value %v, want 1 (closer sample)", got[0].Value)
	}
	if got[1].Value != 2 {
		t.Errorf("grid point 1 took value %v, want 2 (closer sample)", got[1].Value)
	}
}

func TestResampleDegenerate(t *testing.T) {
	if got := Resample(nil, t0, t0.Add(time.Hour), time.Hour); got != nil {
		t.Errorf("Resample(nil) = %v, want nil", got)
	}
	if got := Resample(hourly(1), t0.Add(time.Hour), t0, time.Hour); got != nil {
		t.Errorf("Resample() with inverted window = %v, want nil", got)
	}
}
