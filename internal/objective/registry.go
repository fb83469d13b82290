package objective

// Objective names selectable from configuration.
const (
	NameCustom     = "custom"
	NameKlingGupta = "kling_gupta"
	NameNNSE       = "nnse"
	NameSinglePeak = "single_peak"
	NameVolume     = "volume"
)

// UnknownObjectiveError reports an unrecognized objective name.
type UnknownObjectiveError struct {
	Name string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective: " + e.Name
}

// FromName resolves an objective name from configuration to its penalty
// function. Dispatch happens once at configuration-parse time, not per call.
func FromName(name string) (Func, error) {
	switch name {
	case NameCustom, "":
		return Custom, nil
	case NameKlingGupta:
		return KlingGupta, nil
	case NameNNSE:
		return InvertedNNSE, nil
	case NameSinglePeak:
		return AbsPeakError, nil
	case NameVolume:
		return AbsVolumeError, nil
	default:
		return nil, &UnknownObjectiveError{Name: name}
	}
}
