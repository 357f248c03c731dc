package distcluster

import (
	"time"

	"github.com/hupe1980/distcluster/resultlog"
	"gonum.org/v1/gonum/mat"
)

// Timings are the phase durations of a run. Computation is the sum of all
// round durations.
type Timings struct {
	Setup          time.Duration
	Initialization time.Duration
	Computation    time.Duration
}

// RoundInfo describes one completed round.
type RoundInfo struct {
	// Index is 1-based.
	Index    int
	Duration time.Duration
	// Cost is the objective for the centers the round started from. It is
	// zero unless cost tracking is enabled.
	Cost float64
	// Shift is the largest center displacement, NaN once a center is NaN.
	Shift    float64
	ZeroMass []uint32
	// Centers is the published center matrix. It must not be modified and
	// is only valid during the callback.
	Centers *mat.Dense
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	Initial *mat.Dense
	Final   *mat.Dense
	Timings Timings
	// Iterations always equals the requested number of rounds.
	Iterations int
	// Costs holds one objective per round when cost tracking is enabled.
	Costs []float64
	// Dropped is the number of leading rows left out so every unit gets the
	// same number of rows.
	Dropped int
	// ZeroMass lists clusters that received no mass in the final round.
	ZeroMass []uint32
}

// Outcome is what a run leaves behind, successful or not.
type Outcome struct {
	RunID   string
	Request Request
	// Result is nil when the run failed.
	Result *RunResult
	// Err is the translated failure, an *InvalidArgumentError or a
	// *ComputationError.
	Err error
	// Iterations is the completed round count, or the requested maximum when
	// the run failed.
	Iterations int
}

// Failed reports whether the run failed.
func (o *Outcome) Failed() bool { return o.Err != nil }

// Kind returns the failure kind name, or "" on success.
func (o *Outcome) Kind() string { return ErrorKind(o.Err) }

// ExitStatus is 1 for invalid-argument failures and 0 otherwise, including
// every other failure.
func (o *Outcome) ExitStatus() int {
	if o.Kind() == KindInvalidArgument {
		return 1
	}
	return 0
}

// Row builds the result-log row. Failed runs carry the kind name in every
// timing field.
func (o *Outcome) Row() resultlog.Row {
	req := o.Request
	nObs, nDim := req.NObs, req.NDim
	if req.X != nil && (nObs == 0 || nDim == 0) {
		r, c := req.X.Dims()
		if nObs == 0 {
			nObs = r
		}
		if nDim == 0 {
			nDim = c
		}
	}

	row := resultlog.Row{
		Method:     string(req.Method),
		Seed:       req.Seed,
		NumUnits:   len(req.Units),
		K:          req.K,
		NObs:       nObs,
		NDim:       nDim,
		Iterations: o.Iterations,
	}
	if o.Failed() {
		row.Failure = o.Kind()
		return row
	}

	t := o.Result.Timings
	row.Setup = t.Setup.Seconds()
	row.Initialization = t.Initialization.Seconds()
	row.Computation = t.Computation.Seconds()
	return row
}
