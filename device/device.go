// Package device describes the compute units a run can be spread over and
// picks a seeded random subset of them.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/hupe1980/distcluster/internal/rng"
)

// ErrInvalidSelection is returned when the requested unit count cannot be
// satisfied by the available units.
var ErrInvalidSelection = errors.New("device: invalid unit selection")

// Kind names the execution context behind a unit.
type Kind string

const (
	// KindCPU is a goroutine-backed unit.
	KindCPU Kind = "CPU"
	// KindGPU is an accelerator context. The engine treats it like any other unit.
	KindGPU Kind = "GPU"
)

// Unit is one execution context the engine can bind a shard to.
type Unit struct {
	Index int
	Name  string
	Kind  Kind
}

func (u Unit) String() string { return u.Name }

// Discover returns one CPU-backed unit per logical processor.
func Discover() []Unit {
	n := runtime.NumCPU()
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{Index: i, Name: fmt.Sprintf("/device:CPU:%d", i), Kind: KindCPU}
	}
	return units
}

// Named builds units from explicit names such as "/device:GPU:0".
// The kind is taken from the name; anything not mentioning GPU is a CPU unit.
func Named(names ...string) []Unit {
	units := make([]Unit, len(names))
	for i, name := range names {
		kind := KindCPU
		if strings.Contains(strings.ToUpper(name), "GPU") {
			kind = KindGPU
		}
		units[i] = Unit{Index: i, Name: name, Kind: kind}
	}
	return units
}

// Select picks n distinct units at random using seed. The same seed and
// input always produce the same selection.
func Select(available []Unit, n int, seed int64) ([]Unit, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d units", ErrInvalidSelection, n)
	}
	if n > len(available) {
		return nil, fmt.Errorf("%w: requested %d units, %d available", ErrInvalidSelection, n, len(available))
	}

	idx := rng.New(seed).Choice(len(available), n)
	out := make([]Unit, n)
	for i, j := range idx {
		out[i] = available[j]
	}
	return out, nil
}

// Names returns the unit names in order.
func Names(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}
