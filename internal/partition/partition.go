package partition

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidUnitCount is returned when the requested unit count is not positive
	// or exceeds the number of available compute units.
	ErrInvalidUnitCount = errors.New("partition: invalid unit count")

	// ErrTooFewRows is returned when there are fewer observations than units.
	ErrTooFewRows = errors.New("partition: fewer observations than units")
)

// Shard is a read-only, contiguous row-range view of the observation matrix.
type Shard struct {
	// Index is the position of the shard (and of the unit that owns it).
	Index int
	// Start is the first row of X covered by the shard (inclusive).
	Start int
	// End is the last row of X covered by the shard (exclusive).
	End int
	// Data is a view into X; it shares the backing array.
	Data *mat.Dense
}

// Rows returns the number of observations in the shard.
func (s Shard) Rows() int { return s.End - s.Start }

// Layout describes how a matrix was split.
type Layout struct {
	Shards  []Shard
	Dropped int // leading rows discarded (N mod P)
}

// Rows returns the total number of rows covered by all shards.
func (l *Layout) Rows() int {
	n := 0
	for _, s := range l.Shards {
		n += s.Rows()
	}
	return n
}

// Split partitions x into p shards of equal row count. available is the number
// of compute units that can host a shard.
func Split(x *mat.Dense, p, available int) (*Layout, error) {
	if p <= 0 {
		return nil, fmt.Errorf("%w: %d units requested", ErrInvalidUnitCount, p)
	}
	if p > available {
		return nil, fmt.Errorf("%w: %d units requested, %d available", ErrInvalidUnitCount, p, available)
	}

	n, m := x.Dims()
	if n < p {
		return nil, fmt.Errorf("%w: %d rows for %d units", ErrTooFewRows, n, p)
	}

	dropped := n % p
	size := (n - dropped) / p

	layout := &Layout{
		Shards:  make([]Shard, p),
		Dropped: dropped,
	}
	for i := 0; i < p; i++ {
		start := dropped + i*size
		end := start + size
		layout.Shards[i] = Shard{
			Index: i,
			Start: start,
			End:   end,
			Data:  x.Slice(start, end, 0, m).(*mat.Dense),
		}
	}
	return layout, nil
}
