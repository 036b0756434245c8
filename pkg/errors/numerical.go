package errors

import "math"

// Bounds used by the stabilized math helpers below.
const (
	// logFloor is the smallest argument ever passed to math.Log.
	// Probabilities at or below the floor all map to log(logFloor).
	logFloor = 1e-10

	// expCap saturates the argument of math.Exp; math.Exp(710) already
	// overflows float64.
	expCap = 700.0
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability returns a NumericalInstabilityError when any entry
// of values is NaN or infinite. Learners call it on their fitted coefficient
// vectors; iteration records how many solver iterations had run when the
// check fired (0 for closed-form fits).
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar is the single-value form of CheckNumericalStability, used for
// solved coefficients and standard errors.
func CheckScalar(operation string, value float64, iteration int) error {
	if finite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}

// ClipValue clamps value into [min, max]. Predicted propensities pass
// through this before they enter a residual, keeping both the residual and
// any downstream log finite.
func ClipValue(value, min, max float64) float64 {
	switch {
	case value < min:
		return min
	case value > max:
		return max
	default:
		return value
	}
}

// StabilizeLog is math.Log with the argument floored at logFloor, so the
// log of a zero or negative probability stays finite.
func StabilizeLog(value float64) float64 {
	if value < logFloor {
		value = logFloor
	}
	return math.Log(value)
}

// StabilizeExp is math.Exp with the argument saturated at ±expCap.
// Arguments below -expCap return exactly 0.
func StabilizeExp(value float64) float64 {
	switch {
	case value > expCap:
		return math.Exp(expCap)
	case value < -expCap:
		return 0
	default:
		return math.Exp(value)
	}
}
