package ngen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RealizationUpdater rewrites parameter values in the engine's realization
// fragment between iterations. Each job working directory owns its own copy of
// the fragment, so concurrent particle evaluations never write the same file.
type RealizationUpdater struct {
	path string
}

// NewRealizationUpdater binds an updater to the realization fragment at path.
func NewRealizationUpdater(path string) *RealizationUpdater {
	return &RealizationUpdater{path: path}
}

// Apply writes the named parameter values into the realization fragment for
// one catchment, or for every catchment when id is empty (the uniform
// strategy). Parameters are written under each catchment's formulation
// parameter block; values not being calibrated are left untouched.
func (r *RealizationUpdater) Apply(id string, names []string, values []float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("parameter names and values differ in length: %d vs %d", len(names), len(values))
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read realization %s: %w", r.path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse realization %s: %w", r.path, err)
	}

	catchments, ok := doc["catchments"].(map[string]any)
	if !ok {
		return fmt.Errorf("realization %s has no catchments block", r.path)
	}
	if id == "" {
		for cid := range catchments {
			if err := setParams(catchments, cid, names, values); err != nil {
				return fmt.Errorf("realization %s: %w", r.path, err)
			}
		}
	} else {
		if _, ok := catchments[id]; !ok {
			return fmt.Errorf("realization %s has no catchment %s", r.path, id)
		}
		if err := setParams(catchments, id, names, values); err != nil {
			return fmt.Errorf("realization %s: %w", r.path, err)
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal realization: %w", err)
	}
	if err := os.WriteFile(r.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write realization %s: %w", r.path, err)
	}
	return nil
}

func setParams(catchments map[string]any, id string, names []string, values []float64) error {
	entry, ok := catchments[id].(map[string]any)
	if !ok {
		return fmt.Errorf("catchment %s entry is not a mapping", id)
	}
	params, ok := entry["params"].(map[string]any)
	if !ok {
		params = make(map[string]any)
		entry["params"] = params
	}
	for i, name := range names {
		params[name] = values[i]
	}
	catchments[id] = entry
	return nil
}
