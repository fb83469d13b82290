package config

import "fmt"

// FormulationKind is the closed set of model formulations whose parameters
// this system knows how to adjust. The kind is dispatched once at
// configuration-parse time; call sites never switch on it.
type FormulationKind string

const (
	// FormulationCFE is the Conceptual Functional Equivalent rainfall-runoff model
	FormulationCFE FormulationKind = "cfe"
	// FormulationNoahOWP is the Noah-OWP-Modular land surface model
	FormulationNoahOWP FormulationKind = "noahowp"
	// FormulationTOPMODEL is the topography-based hydrologic model
	FormulationTOPMODEL FormulationKind = "topmodel"
	// FormulationSloth is the pass-through stub formulation
	FormulationSloth FormulationKind = "sloth"
)

var formulationKinds = map[FormulationKind]bool{
	FormulationCFE:      true,
	FormulationNoahOWP:  true,
	FormulationTOPMODEL: true,
	FormulationSloth:    true,
}

// ParseFormulationKind validates a formulation name from configuration.
func ParseFormulationKind(s string) (FormulationKind, error) {
	kind := FormulationKind(s)
	if !formulationKinds[kind] {
		return "", fmt.Errorf("unknown formulation kind: %q", s)
	}
	return kind, nil
}

// Valid reports whether the kind is a member of the closed set.
func (k FormulationKind) Valid() bool {
	return formulationKinds[k]
}
