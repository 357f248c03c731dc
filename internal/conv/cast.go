package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// IntToUint32 converts v to uint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrOverflow, v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d exceeds uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Uint32ToInt converts v to int. It only fails on 32-bit platforms.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d exceeds int", ErrOverflow, v)
	}
	return int(v), nil
}

// Mul returns the product of non-negative factors, failing if it
// overflows int.
func Mul(factors ...int) (int, error) {
	p := 1
	for _, f := range factors {
		if f < 0 {
			return 0, fmt.Errorf("%w: negative factor %d", ErrOverflow, f)
		}
		if f != 0 && p > math.MaxInt/f {
			return 0, fmt.Errorf("%w: product exceeds int", ErrOverflow)
		}
		p *= f
	}
	return p, nil
}
