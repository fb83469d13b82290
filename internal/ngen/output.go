package ngen

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hydrocal/calibration-core/internal/series"
)

// timeLayouts are the timestamp formats the engine is known to emit.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// OutputReader reads simulated flow for a catchment from the engine's
// per-catchment CSV output file in the job working directory.
type OutputReader struct {
	workdir  string
	variable string
}

// NewOutputReader builds a reader for the named output variable, typically
// Q_OUT.
func NewOutputReader(workdir, variable string) *OutputReader {
	return &OutputReader{workdir: workdir, variable: variable}
}

// Output returns the simulated flow series for the catchment. A missing
// output file is not an error: it returns (nil, nil) so the caller can score
// the iteration as a failure and keep searching.
func (o *OutputReader) Output(id string) ([]series.FlowPoint, error) {
	path := filepath.Join(o.workdir, id+".csv")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open model output %s: %w", path, err)
	}
	defer f.Close()

	points, err := o.parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model output %s: %w", path, err)
	}
	return points, nil
}

func (o *OutputReader) parse(r io.Reader) ([]series.FlowPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	timeCol, valueCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Time", "time", "current_time":
			timeCol = i
		case o.variable:
			valueCol = i
		}
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("no time column in header %v", header)
	}
	if valueCol < 0 {
		return nil, fmt.Errorf("no %q column in header %v", o.variable, header)
	}

	var points []series.FlowPoint
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
			return nil, fmt.Errorf("bad %s value %q: %w", o.variable, rec[valueCol], err)
		}
		points = append(points, series.FlowPoint{Time: t, Value: v})
	}
	return points, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
