package utils

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ReflectFloat64 reflects a value that exceeds [min, max] back inside the
// interval at the violated bound. If the reflection overshoots the opposite
// bound, the value snaps to the bound it originally violated.
func ReflectFloat64(value, min, max float64) float64 {
	if value < min {
		value = min + (min - value)
		if value > max {
			return min
		}
	} else if value > max {
		value = max - (value - max)
		if value < min {
			return max
		}
	}
	return value
}
