// Package objective provides model-fit scores for simulated versus observed
// streamflow. Both series must be aligned on a shared time index with equal
// length and no gaps; alignment is the caller's responsibility.
//
// By convention scores flowing into best-state tracking are penalties:
// lower is better and 0 is a perfect fit.
package objective

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// DomainError reports a numerically undefined objective computation, such as
// a zero-sum observed series. One pathological evaluation window should not
// abort a long calibration, so callers convert this to a worst-possible
// score at the run/score boundary instead of failing the run.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Func scores a simulated series against an observed one.
type Func func(simulated, observed []float64) (float64, error)

func checkSeries(op string, simulated, observed []float64) error {
	if len(simulated) == 0 || len(observed) == 0 {
		return fmt.Errorf("%s: empty series", op)
	}
	if len(simulated) != len(observed) {
		return fmt.Errorf("%s: series length mismatch: %d simulated vs %d observed", op, len(simulated), len(observed))
	}
	return nil
}

// NashSutcliffe computes the Nash-Sutcliffe efficiency:
// 1 - sum((obs-sim)^2) / sum((obs-mean(obs))^2). A perfect match scores 1.
// When the observed series has zero variance the denominator is zero and the
// score is negative infinity; this degenerate behavior is deliberate, since
// changing it would alter calibration outcomes.
func NashSutcliffe(simulated, observed []float64) (float64, error) {
	if err := checkSeries("nash_sutcliffe", simulated, observed); err != nil {
		return 0, err
	}
	meanObs, err := stats.Mean(observed)
	if err != nil {
		return 0, fmt.Errorf("nash_sutcliffe: %w", err)
	}
	var top, bottom float64
	for i := range observed {
		d := observed[i] - simulated[i]
		top += d * d
		v := observed[i] - meanObs
		bottom += v * v
	}
	if bottom == 0 {
		return math.Inf(-1), nil
	}
	return 1 - top/bottom, nil
}

// NormalizedNashSutcliffe maps NSE onto (0, 1] via 1/(2-nse).
// An NSE of negative infinity yields 0.
func NormalizedNashSutcliffe(simulated, observed []float64) (float64, error) {
	nse, err := NashSutcliffe(simulated, observed)
	if err != nil {
		return 0, err
	}
	if math.IsInf(nse, -1) {
		return 0, nil
	}
	return 1 / (2 - nse), nil
}

// PeakError computes (max(sim) - max(obs)) / max(obs). The result is signed;
// positive means the simulated peak is too high.
func PeakError(simulated, observed []float64) (float64, error) {
	if err := checkSeries("peak_error", simulated, observed); err != nil {
		return 0, err
	}
	maxSim, err := stats.Max(simulated)
	if err != nil {
		return 0, fmt.Errorf("peak_error: %w", err)
	}
	maxObs, err := stats.Max(observed)
	if err != nil {
		return 0, fmt.Errorf("peak_error: %w", err)
	}
	if maxObs == 0 {
		return 0, &DomainError{Op: "peak_error", Reason: "observed peak is zero"}
	}
	return (maxSim - maxObs) / maxObs, nil
}

// VolumeError computes sum(sim - obs) / sum(obs). The result is signed;
// positive means the simulated volume is too high.
func VolumeError(simulated, observed []float64) (float64, error) {
	if err := checkSeries("volume_error", simulated, observed); err != nil {
		return 0, err
	}
	sumObs, err := stats.Sum(observed)
	if err != nil {
		return 0, fmt.Errorf("volume_error: %w", err)
	}
	if sumObs == 0 {
		return 0, &DomainError{Op: "volume_error", Reason: "observed series sums to zero"}
	}
	var diff float64
	for i := range simulated {
		diff += simulated[i] - observed[i]
	}
	return diff / sumObs, nil
}

// Custom weights applied to the composite penalty score.
var customWeights = [3]float64{0.4, 0.2, 0.4}

// Custom computes the weighted composite penalty
// w0*(1-nnse) + w1*|peak_error| + w2*|volume_error| with default weights
// (0.4, 0.2, 0.4). A perfect fit scores 0; lower is better.
func Custom(simulated, observed []float64) (float64, error) {
	nnse, err := NormalizedNashSutcliffe(simulated, observed)
	if err != nil {
		return 0, err
	}
	peak, err := PeakError(simulated, observed)
	if err != nil {
		return 0, err
	}
	volume, err := VolumeError(simulated, observed)
	if err != nil {
		return 0, err
	}
	return customWeights[0]*(1-nnse) +
		customWeights[1]*math.Abs(peak) +
		customWeights[2]*math.Abs(volume), nil
}

// InvertedNNSE is the penalty form of the normalized Nash-Sutcliffe
// efficiency: 1 - nnse, so that a perfect fit scores 0.
func InvertedNNSE(simulated, observed []float64) (float64, error) {
	nnse, err := NormalizedNashSutcliffe(simulated, observed)
	if err != nil {
		return 0, err
	}
	return 1 - nnse, nil
}

// AbsPeakError is the penalty form of PeakError.
func AbsPeakError(simulated, observed []float64) (float64, error) {
	peak, err := PeakError(simulated, observed)
	if err != nil {
		return 0, err
	}
	return math.Abs(peak), nil
}

// AbsVolumeError is the penalty form of VolumeError.
func AbsVolumeError(simulated, observed []float64) (float64, error) {
	volume, err := VolumeError(simulated, observed)
	if err != nil {
		return 0, err
	}
	return math.Abs(volume), nil
}

// KlingGupta computes the penalty form 1 - KGE where
// KGE = 1 - sqrt((r-1)^2 + (alpha-1)^2 + (beta-1)^2), r being the Pearson
// correlation, alpha the ratio of standard deviations and beta the ratio of
// means. A perfect fit scores 0.
func KlingGupta(simulated, observed []float64) (float64, error) {
	if err := checkSeries("kling_gupta", simulated, observed); err != nil {
		return 0, err
	}
	meanObs, err := stats.Mean(observed)
	if err != nil {
		return 0, fmt.Errorf("kling_gupta: %w", err)
	}
	meanSim, err := stats.Mean(simulated)
	if err != nil {
		return 0, fmt.Errorf("kling_gupta: %w", err)
	}
	if meanObs == 0 {
		return 0, &DomainError{Op: "kling_gupta", Reason: "observed mean is zero"}
	}
	sdObs, err := stats.StandardDeviation(observed)
	if err != nil {
		return 0, fmt.Errorf("kling_gupta: %w", err)
	}
	sdSim, err := stats.StandardDeviation(simulated)
	if err != nil {
		return 0, fmt.Errorf("kling_gupta: %w", err)
	}
	if sdObs == 0 {
		return 0, &DomainError{Op: "kling_gupta", Reason: "observed series has zero variance"}
	}
	r, err := stats.Pearson(simulated, observed)
	if err != nil {
		return 0, &DomainError{Op: "kling_gupta", Reason: err.Error()}
	}
	alpha := sdSim / sdObs
	beta := meanSim / meanObs
	ed := math.Sqrt((r-1)*(r-1) + (alpha-1)*(alpha-1) + (beta-1)*(beta-1))
	return ed, nil
}
