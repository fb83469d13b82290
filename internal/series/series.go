// Package series provides time-indexed flow series and the alignment
// operations scoring depends on.
package series

import (
	"time"

	"github.com/hydrocal/calibration-core/pkg/logger"
)

// FlowPoint is one timestamped streamflow value.
type FlowPoint struct {
	Time  time.Time
	Value float64
}

// Window returns the points falling inside [start, stop]. Zero bounds leave
// that side open.
func Window(points []FlowPoint, start, stop time.Time) []FlowPoint {
	out := make([]FlowPoint, 0, len(points))
	for _, p := range points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !stop.IsZero() && p.Time.After(stop) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Align inner-joins two series on their time index and returns the matched
// value vectors in time order. Timestamps present in only one series are
// dropped; a timestamp repeated in b keeps its first value.
func Align(a, b []FlowPoint) (av, bv []float64) {
	index := make(map[int64]float64, len(b))
	duplicates := 0
	for _, p := range b {
		ts := p.Time.Unix()
		if _, ok := index[ts]; ok {
			duplicates++
			continue
		}
		index[ts] = p.Value
	}
	if duplicates > 0 {
		logger.Debug("dropped duplicate timestamps while aligning series", "count", duplicates)
	}
	for _, p := range a {
		if v, ok := index[p.Time.Unix()]; ok {
			av = append(av, p.Value)
			bv = append(bv, v)
		}
	}
	return av, bv
}

// Resample maps samples onto a regular grid from start to stop (inclusive)
// with the given step, taking the nearest sample in time for each grid point.
// It assumes samples are sorted by time.
func Resample(samples []FlowPoint, start, stop time.Time, step time.Duration) []FlowPoint {
	if len(samples) == 0 || step <= 0 || stop.Before(start) {
		return nil
	}
	out := make([]FlowPoint, 0, int(stop.Sub(start)/step)+1)
	for t := start; !t.After(stop); t = t.Add(step) {
		out = append(out, FlowPoint{Time: t, Value: nearest(samples, t)})
	}
	return out
}

func nearest(samples []FlowPoint, t time.Time) float64 {
	lo, hi := 0, len(samples)
	for lo < hi {
		mid := (lo + hi) / 2
		if samples[mid].Time.Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// lo is the first sample at or after t; the nearest is lo or lo-1.
	if lo == 0 {
		return samples[0].Value
	}
	if lo == len(samples) {
		return samples[len(samples)-1].Value
	}
	after := samples[lo].Time.Sub(t)
	before := t.Sub(samples[lo-1].Time)
	if before <= after {
		return samples[lo-1].Value
	}
	return samples[lo].Value
}
