package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an operation is attempted on a closed controller or pool.
	ErrClosed = errors.New("engine closed")

	// ErrInvalidState is returned when a phase is entered out of order.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidArgument is returned when an argument is invalid (e.g. k <= 0, iterations < 1).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoUnits is returned when a controller is created without compute units.
	ErrNoUnits = errors.New("no compute units")
)

// UnitError reports the failure of one compute unit in a round.
type UnitError struct {
	Unit  int
	Round int
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("engine: unit %d failed in round %d: %v", e.Unit, e.Round, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking unit.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("engine: unit panicked: %v", e.Value)
}
