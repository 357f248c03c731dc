package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFuzziness is returned when the fuzziness exponent is not greater than 1.
	ErrInvalidFuzziness = errors.New("aggregate: fuzziness must be greater than 1")

	// ErrWorkspaceShape is returned when a workspace is used with a shard or
	// center matrix of a different shape than it was created for.
	ErrWorkspaceShape = errors.New("aggregate: workspace shape mismatch")

	// ErrDimensionMismatch is matched by every DimensionError.
	ErrDimensionMismatch = errors.New("aggregate: dimension mismatch")
)

// DimensionError indicates that centers and observations disagree on dimension.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("aggregate: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }
