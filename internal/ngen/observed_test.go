package ngen

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hydrocal/calibration-core/internal/series"
)

func TestObservationProvider(t *testing.T) {
	dir := t.TempDir()
	// 15-minute samples; hourly resampling takes the on-the-hour values.
	writeFile(t, dir, "gage-01.csv",
		"value_time,value\n"+
			"2021-06-01 00:00:00,1.0\n"+
			"2021-06-01 00:15:00,1.1\n"+
			"2021-06-01 00:30:00,1.2\n"+
			"2021-06-01 00:45:00,1.3\n"+
			"2021-06-01 01:00:00,2.0\n"+
			"2021-06-01 02:00:00,3.0\n")

	p := NewObservationProvider(dir)
	base := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := p.Observed("gage-01", base, base.Add(2*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("Observed() error = %v", err)
	}

	want := []series.FlowPoint{
		{Time: base, Value: 1.0},
		{Time: base.Add(time.Hour), Value: 2.0},
		{Time: base.Add(2 * time.Hour), Value: 3.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Observed() mismatch (-want +got):\n%s", diff)
	}
}

func TestObservationProviderOpenWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gage-01.csv",
		"value_time,value\n2021-06-01 00:00:00,1.0\n2021-06-01 01:00:00,2.0\n")

	p := NewObservationProvider(dir)
	got, err := p.Observed("gage-01", time.Time{}, time.Time{}, time.Hour)
	if err != nil {
		t.Fatalf("Observed() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Observed() returned %d samples with open window, want 2", len(got))
	}
}

func TestObservationProviderMissingFile(t *testing.T) {
	p := NewObservationProvider(t.TempDir())
	if _, err := p.Observed("gage-99", time.Time{}, time.Time{}, time.Hour); err == nil {
		t.Error("expected error for missing observation file")
	}
}

func TestObservationProviderEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gage-01.csv", "value_time,value\n")
	p := NewObservationProvider(dir)
	if _, err := p.Observed("gage-01", time.Time{}, time.Time{}, time.Hour); err == nil {
		t.Error("expected error for observation file with no samples")
	}
}
