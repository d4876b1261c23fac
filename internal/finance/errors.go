package finance

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned when an input violates a calculator's contract.
// Callers should test for it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func requirePositive(name string, v float64) error {
	if !finite(v) || v <= 0 {
		return invalid("%s must be positive, got %v", name, v)
	}
	return nil
}

func requireNonNegative(name string, v float64) error {
	if !finite(v) || v < 0 {
		return invalid("%s must not be negative, got %v", name, v)
	}
	return nil
}

// round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
