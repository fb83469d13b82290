package ngen

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hydrocal/calibration-core/internal/series"
)

// ObservationProvider supplies observed flow for an observation site from
// per-site CSV files with value_time and value columns. Observations are
// resampled onto the simulation grid with nearest-in-time matching before
// scoring.
type ObservationProvider struct {
	dir string
}

// NewObservationProvider builds a provider rooted at the observations
// directory named in the configuration.
func NewObservationProvider(dir string) *ObservationProvider {
	return &ObservationProvider{dir: dir}
}

// Observed returns the observed flow for the site resampled onto the
// [start, stop] window at the given step. Unlike model output, observations
// must exist: a missing file is a retrieval error and aborts the run.
func (o *ObservationProvider) Observed(id string, start, stop time.Time, step time.Duration) ([]series.FlowPoint, error) {
	path := filepath.Join(o.dir, id+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open observations %s: %w", path, err)
	}
	defer f.Close()

	samples, err := parseObservations(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse observations %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("observations %s contain no samples", path)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })

	if start.IsZero() || stop.IsZero() {
		return samples, nil
	}
	return series.Resample(samples, start, stop, step), nil
}

func parseObservations(r io.Reader) ([]series.FlowPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	timeCol, valueCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "value_time", "time", "Time":
			timeCol = i
		case "value", "flow":
			valueCol = i
		}
	}
	if timeCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("expected value_time and value columns, got %v", header)
	}

	var samples []series.FlowPoint
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := parseTime(rec[timeCol])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad flow value %q: %w", rec[valueCol], err)
		}
		samples = append(samples, series.FlowPoint{Time: t, Value: v})
	}
	return samples, nil
}
