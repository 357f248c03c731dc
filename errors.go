package distcluster

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distcluster/device"
	"github.com/hupe1980/distcluster/internal/aggregate"
	"github.com/hupe1980/distcluster/internal/arena"
	"github.com/hupe1980/distcluster/internal/engine"
	"github.com/hupe1980/distcluster/internal/partition"
)

// Kind names used in failure records.
const (
	KindConfiguration   = "ConfigurationError"
	KindInvalidArgument = "InvalidArgumentError"
	KindComputation     = "ComputationError"
)

var (
	// ErrUnknownMethod is returned for a method name other than
	// distributedKMeans or distributedFuzzyCMeans.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrNoData is returned when a request carries no observations.
	ErrNoData = errors.New("no observations")
)

// ConfigurationError reports a bad unit count, method name or data source.
// It is detected before any aggregation runs and never produces a log row.
type ConfigurationError struct {
	cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.cause)
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

// InvalidArgumentError reports a malformed numeric argument surfaced at the
// clustering step, such as K larger than the number of observations.
type InvalidArgumentError struct {
	cause error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %v", e.cause)
}

func (e *InvalidArgumentError) Unwrap() error { return e.cause }

// ComputationError reports any other failure during setup or compute.
type ComputationError struct {
	cause error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error: %v", e.cause)
}

func (e *ComputationError) Unwrap() error { return e.cause }

// NewConfigurationError wraps cause as a ConfigurationError.
func NewConfigurationError(cause error) error {
	return &ConfigurationError{cause: cause}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ce *ConfigurationError
	var ie *InvalidArgumentError
	var xe *ComputationError
	if errors.As(err, &ce) || errors.As(err, &ie) || errors.As(err, &xe) {
		return err
	}

	switch {
	case errors.Is(err, partition.ErrInvalidUnitCount),
		errors.Is(err, partition.ErrTooFewRows),
		errors.Is(err, engine.ErrNoUnits),
		errors.Is(err, device.ErrInvalidSelection),
		errors.Is(err, ErrUnknownMethod),
		errors.Is(err, ErrNoData):
		return &ConfigurationError{cause: err}
	case errors.Is(err, engine.ErrInvalidArgument),
		errors.Is(err, aggregate.ErrInvalidFuzziness),
		errors.Is(err, aggregate.ErrDimensionMismatch),
		errors.Is(err, arena.ErrShape):
		return &InvalidArgumentError{cause: err}
	}

	return &ComputationError{cause: err}
}

// ErrorKind returns the taxonomy name of err, or "" for nil.
// Errors outside the taxonomy are reported as computation errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return KindConfiguration
	}
	var ie *InvalidArgumentError
	if errors.As(err, &ie) {
		return KindInvalidArgument
	}
	return KindComputation
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
