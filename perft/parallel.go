package perft

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/0x5844/feldspar"
	"github.com/0x5844/feldspar/search"
)

// RunParallel is Run with the root moves spread over at most workers goroutines
// (GOMAXPROCS when workers < 1). Each worker walks its own copy of pos; partial results
// are summed, so the totals equal Run's exactly.
func RunParallel(ctx context.Context, pos feldspar.Position, depth, workers int) (Result, error) {
	var total Result
	if err := checkDepth(depth); err != nil {
		return total, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	var buf [feldspar.MaxMoves]feldspar.Move
	moves := pos.LegalMoves(buf[:0])
	partials := make([]Result, len(moves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := counter{tree: search.NewTree(pos), result: &partials[i], maxDepth: depth}
			c.visit(m)
			c.walk()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}

	total.Nodes[0] = 1
	for i := range partials {
		total.Add(&partials[i])
	}
	log.Debug("parallel perft finished", "depth", depth, "workers", workers, "nodes", total.Total())
	return total, nil
}

// Divide returns, for every legal root move, the number of leaf positions depth plies
// below the root that start with it.
func Divide(pos feldspar.Position, depth int) (map[string]uint64, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	var buf [feldspar.MaxMoves]feldspar.Move
	out := make(map[string]uint64)
	for _, m := range pos.LegalMoves(buf[:0]) {
		var r Result
		c := counter{tree: search.NewTree(pos), result: &r, maxDepth: depth}
		c.visit(m)
		c.walk()
		out[m.String()] = r.Nodes[depth]
	}
	return out, nil
}

// SortedMoves returns the keys of a Divide result in lexical order.
func SortedMoves(div map[string]uint64) []string {
	keys := make([]string, 0, len(div))
	for k := range div {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
