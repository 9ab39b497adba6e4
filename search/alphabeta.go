package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0x5844/feldspar"
)

var log = slog.Default().With("package", "search")

// ErrNoLegalMoves is returned when the root position is checkmate or stalemate.
var ErrNoLegalMoves = errors.New("search: no legal moves")

// checkInterval is how many polls pass between checks of the context.
const checkInterval = 1024

// Result is the outcome of a search.
type Result struct {
	Move  feldspar.Move
	Score feldspar.Score // from the point of view of the side to move at the root
	Nodes uint64
	Depth int
}

// Options configure a search.
type Options struct {
	// QuiescenceDepth extends leaves with up to this many plies of captures. Zero disables it.
	QuiescenceDepth int
	// CaptureOrdering searches captures before quiet moves at every node.
	CaptureOrdering bool
	Logger          *slog.Logger
}

var defaultOptions = Options{
	QuiescenceDepth: 0,
	CaptureOrdering: false,
}

// Option modifies Options.
type Option func(*Options)

// WithQuiescence enables a capture-only extension of at most depth plies below each leaf.
func WithQuiescence(depth int) Option {
	return func(opts *Options) {
		opts.QuiescenceDepth = depth
	}
}

// WithCaptureOrdering searches captures first, which prunes more without changing the result's score.
func WithCaptureOrdering(enabled bool) Option {
	return func(opts *Options) {
		opts.CaptureOrdering = enabled
	}
}

// WithLogger sets the logger used for search summaries.
func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log
	}
	return o
}

type searcher struct {
	ctx     context.Context
	tree    *Tree
	qtree   *Tree
	opts    Options
	nodes   uint64
	polls   uint64
	stopped bool
}

func newSearcher(ctx context.Context, tree *Tree, opts Options) *searcher {
	s := &searcher{ctx: ctx, tree: tree, opts: opts}
	if opts.QuiescenceDepth > 0 {
		s.qtree = NewQuiescenceTree(*tree.Focus())
	}
	return s
}

// poll is called once per node of either tree. It checks the context every checkInterval
// calls and latches cancellation.
func (s *searcher) poll() bool {
	if s.stopped {
		return true
	}
	s.polls++
	if s.polls%checkInterval == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	return s.stopped
}

// AlphaBeta searches depth plies below the tree's focus and returns the best move.
// Among moves of equal score the first in generation order wins.
//
// Cancelling ctx stops the search between nodes. The result then holds the best root
// move fully searched so far, and the error is ctx.Err().
func AlphaBeta(ctx context.Context, t *Tree, depth int, opts ...Option) (Result, error) {
	if depth < 1 {
		return Result{}, fmt.Errorf("search: depth %d must be positive", depth)
	}
	o := buildOptions(opts)
	s := newSearcher(ctx, t, o)

	var buf [feldspar.MaxMoves]feldspar.Move
	moves := s.rootMoves(buf[:0])
	if len(moves) == 0 {
		return Result{Score: s.terminalScore(), Depth: depth}, ErrNoLegalMoves
	}

	res := Result{Move: moves[0], Score: -feldspar.MaxScore, Depth: depth}
	alpha, beta := -feldspar.MaxScore, feldspar.MaxScore
	completed := 0
	for _, m := range moves {
		if ctx.Err() != nil {
			s.stopped = true
			break
		}
		saved := *t.Focus()
		t.Descend(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		t.Ascend(saved)
		if s.stopped {
			break
		}
		completed++
		if score > res.Score {
			res.Score = score
			res.Move = m
		}
		if res.Score > alpha {
			alpha = res.Score
		}
	}
	res.Nodes = s.nodes
	if completed == 0 {
		res.Score = t.Focus().Score.Relative(t.Focus().ToMove)
	}

	o.Logger.Debug("search finished", "depth", depth, "move", res.Move.String(), "score", res.Score, "nodes", res.Nodes, "stopped", s.stopped)
	if s.stopped {
		return res, s.ctx.Err()
	}
	return res, nil
}

// rootMoves returns the moves to try at the focus, in search order.
func (s *searcher) rootMoves(buf []feldspar.Move) []feldspar.Move {
	moves := s.tree.NextMoves(buf)
	if s.opts.CaptureOrdering {
		feldspar.SortCapturesFirst(moves)
	}
	return moves
}

// terminalScore scores a focus without legal moves: mated sides score worse the sooner it happens.
func (s *searcher) terminalScore() feldspar.Score {
	if s.tree.Focus().InCheck() {
		return -feldspar.MateScore + feldspar.Score(s.tree.Depth())
	}
	return 0
}

// negamax returns the score of the focus from the side to move's point of view.
func (s *searcher) negamax(depth int, alpha, beta feldspar.Score) feldspar.Score {
	s.nodes++
	if s.poll() {
		return 0
	}
	pos := s.tree.Focus()
	if pos.Outcome == feldspar.Draw {
		return 0
	}
	if depth == 0 {
		return s.leaf(alpha, beta)
	}

	var buf [feldspar.MaxMoves]feldspar.Move
	moves := s.rootMoves(buf[:0])
	if len(moves) == 0 {
		return s.terminalScore()
	}

	best := -feldspar.MaxScore
	for _, m := range moves {
		saved := *pos
		s.tree.Descend(m)
		score := -s.negamax(depth-1, -beta, -alpha)
		s.tree.Ascend(saved)
		if s.stopped {
			return best
		}
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// leaf evaluates the focus, optionally resolving pending captures first.
func (s *searcher) leaf(alpha, beta feldspar.Score) feldspar.Score {
	pos := s.tree.Focus()
	if s.qtree == nil {
		return pos.Score.Relative(pos.ToMove)
	}
	s.qtree.ResetRoot(*pos, nil)
	return s.quiesce(s.opts.QuiescenceDepth, alpha, beta)
}

// quiesce searches captures only, letting the side to move stand pat on the static score.
func (s *searcher) quiesce(depth int, alpha, beta feldspar.Score) feldspar.Score {
	s.nodes++
	if s.poll() {
		return 0
	}
	pos := s.qtree.Focus()
	if pos.Outcome == feldspar.Draw {
		return 0
	}
	standPat := pos.Score.Relative(pos.ToMove)
	if depth == 0 || standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	var buf [feldspar.MaxMoves]feldspar.Move
	for _, m := range s.qtree.NextMoves(buf[:0]) {
		saved := *pos
		s.qtree.Descend(m)
		score := -s.quiesce(depth-1, -beta, -alpha)
		s.qtree.Ascend(saved)
		if s.stopped {
			return alpha
		}
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
