package search

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/0x5844/feldspar"
)

type rootScore struct {
	score feldspar.Score
	nodes uint64
	done  bool
}

// SearchParallel searches each root move of root on its own goroutine, at most workers at a
// time (GOMAXPROCS when workers < 1). Workers own their Position copies and share no bounds,
// so every root move is searched with a full window. The reduction keeps the highest score
// and, among equal scores, the earliest move in search order, which makes the chosen move
// and score identical to AlphaBeta's.
func SearchParallel(ctx context.Context, root feldspar.Position, depth, workers int, opts ...Option) (Result, error) {
	if depth < 1 {
		return Result{}, fmt.Errorf("search: depth %d must be positive", depth)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	o := buildOptions(opts)

	rootTree := NewTree(root)
	rs := newSearcher(ctx, rootTree, o)
	var buf [feldspar.MaxMoves]feldspar.Move
	moves := rs.rootMoves(buf[:0])
	if len(moves) == 0 {
		return Result{Score: rs.terminalScore(), Depth: depth}, ErrNoLegalMoves
	}

	scores := make([]rootScore, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := NewTree(root)
			t.Descend(m)
			s := newSearcher(gctx, t, o)
			score := -s.negamax(depth-1, -feldspar.MaxScore, feldspar.MaxScore)
			scores[i] = rootScore{score: score, nodes: s.nodes, done: !s.stopped}
			if s.stopped {
				return gctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()

	res := Result{Move: moves[0], Score: -feldspar.MaxScore, Depth: depth}
	completed := 0
	for i, rsc := range scores {
		res.Nodes += rsc.nodes
		if !rsc.done {
			continue
		}
		completed++
		if rsc.score > res.Score {
			res.Score = rsc.score
			res.Move = moves[i]
		}
	}
	if completed == 0 {
		res.Score = root.Score.Relative(root.ToMove)
	}
	o.Logger.Debug("parallel search finished", "depth", depth, "workers", workers, "move", res.Move.String(), "score", res.Score, "nodes", res.Nodes)
	if err != nil {
		return res, err
	}
	return res, nil
}
