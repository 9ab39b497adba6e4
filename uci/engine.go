// Package uci speaks the subset of the Universal Chess Interface needed to drive the engine
// from a GUI or a test harness: position setup, fixed-depth go, stop and bestmove.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/corentings/chess/v2"

	"github.com/0x5844/feldspar"
	"github.com/0x5844/feldspar/perft"
	"github.com/0x5844/feldspar/search"
)

var log = slog.Default().With("package", "uci")

const (
	engineName   = "feldspar"
	engineAuthor = "the feldspar authors"

	// maxPly bounds "go infinite"; scores within maxPly of MateScore are mates.
	maxPly = 128
)

// Options configure an Engine.
type Options struct {
	Depth           int // depth used by "go" without an explicit depth
	QuiescenceDepth int
	Workers         int // root workers; 1 searches sequentially
	Logger          *slog.Logger
}

var defaultOptions = Options{
	Depth:           6,
	QuiescenceDepth: 4,
	Workers:         1,
}

// Option modifies Options.
type Option func(*Options)

// WithDepth sets the default search depth.
func WithDepth(depth int) Option {
	return func(opts *Options) {
		opts.Depth = depth
	}
}

// WithQuiescence sets the capture-only extension depth; zero disables it.
func WithQuiescence(depth int) Option {
	return func(opts *Options) {
		opts.QuiescenceDepth = depth
	}
}

// WithWorkers searches root moves on up to n goroutines.
func WithWorkers(n int) Option {
	return func(opts *Options) {
		opts.Workers = n
	}
}

// WithLogger sets the logger for diagnostics. Protocol output never goes through it.
func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// Engine is a UCI session. Commands are read on one goroutine; a search runs on its own
// goroutine so that "stop" and "isready" are answered while it thinks.
type Engine struct {
	opts Options
	log  *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	tree *search.Tree // root is the position set by the last "position" command

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an Engine writing protocol output to out.
func New(out io.Writer, opts ...Option) *Engine {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log
	}
	return &Engine{
		opts: o,
		log:  o.Logger,
		out:  out,
		tree: search.NewTree(feldspar.StartingPosition()),
	}
}

// Run reads commands from in until "quit", end of input or ctx is done. It waits for any
// running search to finish before returning.
func (e *Engine) Run(ctx context.Context, in io.Reader) error {
	defer e.waitSearch()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			e.stopSearch()
			return ctx.Err()
		}
		if quit := e.Handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("uci: reading commands: %w", err)
	}
	return nil
}

// Handle executes one command line and reports whether the session should end.
// An invariant failure aborts the command, not the session.
func (e *Engine) Handle(ctx context.Context, line string) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := feldspar.AsInvariantError(r)
			if !ok {
				panic(r)
			}
			e.log.Error("command aborted", "command", line, "error", ie)
			e.send("info string error %s", ie.Detail)
		}
	}()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "uci":
		e.send("id name %s", engineName)
		e.send("id author %s", engineAuthor)
		e.send("uciok")
	case "isready":
		e.send("readyok")
	case "ucinewgame":
		e.stopSearch()
		e.tree.ResetRoot(feldspar.StartingPosition(), nil)
	case "position":
		e.stopSearch()
		if err := e.setPosition(args); err != nil {
			e.log.Warn("ignoring position command", "command", line, "error", err)
		}
	case "go":
		e.stopSearch()
		e.startSearch(ctx, e.parseDepth(args))
	case "stop":
		e.stopSearch()
	case "d":
		e.send("%s", strings.TrimPrefix(e.tree.Focus().Board.Draw(), "\n"))
		e.send("Fen: %s", e.tree.Focus().FEN())
	case "perft":
		e.stopSearch()
		e.runPerft(args)
	case "quit":
		e.stopSearch()
		return true
	default:
		e.log.Warn("unknown command", "command", line)
	}
	return false
}

// setPosition parses "startpos|fen <fields> [moves m1 m2 ...]" and re-roots the tree.
// On error the previous position is kept.
func (e *Engine) setPosition(args []string) error {
	if len(args) == 0 {
		return errors.New("missing position")
	}
	var (
		base feldspar.Position
		rest []string
		err  error
	)
	switch args[0] {
	case "startpos":
		base, rest = feldspar.StartingPosition(), args[1:]
	case "fen":
		end := len(args)
		for i, a := range args {
			if a == "moves" {
				end = i
				break
			}
		}
		base, err = feldspar.ParseFEN(strings.Join(args[1:end], " "))
		if err != nil {
			return err
		}
		rest = args[end:]
	default:
		return fmt.Errorf("unknown position kind %q", args[0])
	}

	var moves []feldspar.Move
	if len(rest) > 0 {
		if rest[0] != "moves" {
			return fmt.Errorf("unexpected token %q", rest[0])
		}
		pos := base
		for _, s := range rest[1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				return err
			}
			pos.Apply(m)
			moves = append(moves, m)
		}
	}
	e.tree.ResetRoot(base, moves)
	return nil
}

func (e *Engine) parseDepth(args []string) int {
	depth := e.opts.Depth
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				if d, err := strconv.Atoi(args[i+1]); err == nil && d > 0 {
					depth = d
				} else {
					e.log.Warn("bad depth", "value", args[i+1])
				}
				i++
			}
		case "infinite":
			depth = maxPly
		default:
			// Clock parameters are accepted and ignored.
		}
	}
	return depth
}

func (e *Engine) startSearch(ctx context.Context, depth int) {
	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	root := *e.tree.Focus()

	e.mu.Lock()
	e.cancel, e.done = cancel, done
	e.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		e.think(sctx, root, depth)
	}()
}

// think deepens one ply at a time and reports the move of the deepest completed iteration.
func (e *Engine) think(ctx context.Context, root feldspar.Position, depth int) {
	best := feldspar.NullMove
	defer func() {
		if r := recover(); r != nil {
			ie, ok := feldspar.AsInvariantError(r)
			if !ok {
				panic(r)
			}
			e.log.Error("search aborted", "fen", root.FEN(), "error", ie)
			e.send("info string error %s", ie.Detail)
		}
		e.send("bestmove %s", best)
	}()

	opts := []search.Option{
		search.WithCaptureOrdering(true),
		search.WithQuiescence(e.opts.QuiescenceDepth),
		search.WithLogger(e.log),
	}
	for d := 1; d <= depth; d++ {
		var (
			res search.Result
			err error
		)
		if e.opts.Workers > 1 {
			res, err = search.SearchParallel(ctx, root, d, e.opts.Workers, opts...)
		} else {
			res, err = search.AlphaBeta(ctx, search.NewTree(root), d, opts...)
		}
		if errors.Is(err, search.ErrNoLegalMoves) {
			return
		}
		if err != nil {
			if best == feldspar.NullMove {
				best = res.Move
			}
			return
		}
		best = res.Move
		e.send("info depth %d score %s nodes %d pv %s", d, formatScore(res.Score), res.Nodes, res.Move)
	}
	if san, ok := sanOf(root, best); ok {
		e.send("info string bestmove san %s", san)
	}
}

func formatScore(s feldspar.Score) string {
	const mateBound = feldspar.MateScore - maxPly
	switch {
	case s >= mateBound:
		plies := int(feldspar.MateScore - s)
		return "mate " + strconv.Itoa((plies+1)/2)
	case s <= -mateBound:
		plies := int(feldspar.MateScore + s)
		return "mate -" + strconv.Itoa((plies+1)/2)
	}
	return "cp " + strconv.Itoa(int(s))
}

// sanOf renders m in standard algebraic notation for display.
func sanOf(pos feldspar.Position, m feldspar.Move) (string, bool) {
	if m == feldspar.NullMove {
		return "", false
	}
	opt, err := chess.FEN(pos.FEN())
	if err != nil {
		return "", false
	}
	cpos := chess.NewGame(opt).Position()
	mv, err := chess.UCINotation{}.Decode(cpos, m.String())
	if err != nil {
		return "", false
	}
	return chess.AlgebraicNotation{}.Encode(cpos, mv), true
}

func (e *Engine) stopSearch() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *Engine) waitSearch() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) runPerft(args []string) {
	depth := 1
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}
	div, err := perft.Divide(*e.tree.Focus(), depth)
	if err != nil {
		e.log.Warn("perft failed", "error", err)
		return
	}
	e.outMu.Lock()
	defer e.outMu.Unlock()
	if err := perft.WriteDivide(e.out, div); err != nil {
		e.log.Warn("writing perft output", "error", err)
	}
}

func (e *Engine) send(format string, args ...any) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	fmt.Fprintf(e.out, format+"\n", args...)
}
