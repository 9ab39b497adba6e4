package perft

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/0x5844/feldspar"
)

// BenchResult summarizes repeated perft runs.
type BenchResult struct {
	Runs      int
	Nodes     uint64 // positions counted per run
	Elapsed   time.Duration
	MeanNPS   float64
	StdDevNPS float64
}

// Bench runs perft on pos runs times and reports the nodes-per-second mean and standard deviation.
func Bench(ctx context.Context, pos feldspar.Position, depth, runs, workers int) (BenchResult, error) {
	if runs < 1 {
		return BenchResult{}, errors.New("perft: bench needs at least one run")
	}
	nps := make([]float64, 0, runs)
	res := BenchResult{Runs: runs}
	for i := 0; i < runs; i++ {
		start := time.Now()
		r, err := RunParallel(ctx, pos, depth, workers)
		if err != nil {
			return res, err
		}
		elapsed := time.Since(start)
		res.Elapsed += elapsed
		res.Nodes = r.Total()
		secs := elapsed.Seconds()
		if secs <= 0 {
			secs = float64(time.Nanosecond) / float64(time.Second)
		}
		nps = append(nps, float64(res.Nodes)/secs)
	}
	if runs > 1 {
		res.MeanNPS, res.StdDevNPS = stat.MeanStdDev(nps, nil)
	} else {
		res.MeanNPS = stat.Mean(nps, nil)
	}
	log.Info("bench finished", "depth", depth, "runs", runs, "nodes", res.Nodes, "mean_nps", res.MeanNPS, "stddev_nps", res.StdDevNPS)
	return res, nil
}
