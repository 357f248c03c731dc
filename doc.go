// Package distcluster runs distributed K-means and fuzzy C-means over a
// dataset sharded across a fixed set of compute units.
//
// A run partitions the observation matrix into equal contiguous shards, one
// per unit, and then repeats a fixed number of rounds. In each round every
// unit aggregates its shard against the published centers in parallel, the
// partial aggregates are merged at a barrier, and the merged centers are
// published for the next round. Setup, initialization and computation are
// timed separately.
//
// # Quick Start
//
//	ds, _ := dataset.Generate(10000, 8, 42)
//	units, _ := device.Select(device.Discover(), 4, 42)
//
//	out, err := distcluster.Run(ctx, distcluster.Request{
//	    Method:     distcluster.MethodKMeans,
//	    X:          ds.X,
//	    K:          3,
//	    Units:      units,
//	    Iterations: 10,
//	    Seed:       42,
//	})
//	if err != nil {
//	    // configuration error: nothing ran, nothing to log
//	}
//	_ = resultlog.Open("runs.csv").Append(out.Row())
//	os.Exit(out.ExitStatus())
//
// # Failures
//
// Only a ConfigurationError is returned as error. Any other failure is
// caught and recorded in the Outcome: its Row carries the failure kind in
// every timing field and the requested iteration count. ExitStatus is 1 for
// an InvalidArgumentError and 0 for everything else.
//
// # Empty clusters
//
// A cluster that receives no mass from any unit becomes not-a-number by
// default. WithEmptyClusterPolicy(EmptyClusterKeepPrevious) keeps its
// previous center instead. Either way the cluster is logged and counted.
package distcluster
