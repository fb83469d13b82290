package unit

import "fmt"

// Set groups one or more adjustable units scored at a single evaluation
// point. The independent strategy adjusts each member on its own while a
// single model run per iteration serves them all; the uniform strategy
// collapses the set to one shared unit whose vector is written to every
// catchment.
type Set struct {
	outputID    string
	observedID  string
	adjustables []*Unit
	uniform     bool
}

// NewSet builds a calibration set. outputID names the catchment whose
// simulated flow is read; observedID names the observation site scored
// against.
func NewSet(outputID, observedID string, adjustables []*Unit) (*Set, error) {
	if outputID == "" {
		return nil, fmt.Errorf("calibration set requires an output catchment id")
	}
	if len(adjustables) == 0 {
		return nil, fmt.Errorf("calibration set requires at least one adjustable unit")
	}
	if observedID == "" {
		observedID = outputID
	}
	return &Set{
		outputID:    outputID,
		observedID:  observedID,
		adjustables: adjustables,
	}, nil
}

// NewUniformSet builds a set whose single unit holds the global shared
// parameter vector applied to every catchment.
func NewUniformSet(outputID, observedID string, shared *Unit) (*Set, error) {
	s, err := NewSet(outputID, observedID, []*Unit{shared})
	if err != nil {
		return nil, err
	}
	s.uniform = true
	return s, nil
}

// OutputID returns the catchment id whose simulated output is scored.
func (s *Set) OutputID() string {
	return s.outputID
}

// ObservedID returns the observation site id scored against.
func (s *Set) ObservedID() string {
	return s.observedID
}

// Adjustables returns the units driven by this set.
func (s *Set) Adjustables() []*Unit {
	return s.adjustables
}

// Uniform reports whether the set holds one global shared vector.
func (s *Set) Uniform() bool {
	return s.uniform
}

// Update records an iteration score against every member unit; the score is
// produced once per iteration at the set's evaluation point. Returns whether
// the best state improved.
func (s *Set) Update(label string, score float64) bool {
	improved := false
	for _, u := range s.adjustables {
		if u.Update(label, score) {
			improved = true
		}
	}
	return improved
}

// BestScore returns the best score recorded for the set.
func (s *Set) BestScore() float64 {
	return s.adjustables[0].BestScore()
}

// BestIteration returns the best iteration label recorded for the set.
func (s *Set) BestIteration() string {
	return s.adjustables[0].BestIteration()
}

// Checkpoint persists every member unit into dir.
func (s *Set) Checkpoint(dir string) error {
	for _, u := range s.adjustables {
		if err := u.Checkpoint(dir); err != nil {
			return err
		}
	}
	return nil
}

// Restart resumes every member unit from dir and returns each unit's next
// iteration to run.
func (s *Set) Restart(dir string) ([]int, error) {
	iters := make([]int, 0, len(s.adjustables))
	for _, u := range s.adjustables {
		n, err := u.Restart(dir)
		if err != nil {
			return nil, err
		}
		iters = append(iters, n)
	}
	return iters, nil
}
