package search

import (
	"context"
	"errors"
	"testing"

	"github.com/0x5844/feldspar"
)

func mustParse(t testing.TB, fen string) feldspar.Position {
	t.Helper()
	pos, err := feldspar.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestTreeDescendAscend(t *testing.T) {
	root := feldspar.StartingPosition()
	tree := NewTree(root)
	m, err := tree.Focus().ParseMove("e2e4")
	if err != nil {
		t.Fatal(err)
	}
	saved := *tree.Focus()
	tree.Descend(m)
	if tree.Depth() != 1 {
		t.Fatalf("depth after descend: expected 1 but got %d", tree.Depth())
	}
	if tree.Focus().ToMove != feldspar.Black {
		t.Fatalf("focus did not advance: %s", tree.Focus().FEN())
	}
	tree.Ascend(saved)
	if tree.Depth() != 0 || *tree.Focus() != root {
		t.Fatalf("ascend did not restore the root")
	}
}

func TestTreeAscendAtRootPanics(t *testing.T) {
	tree := NewTree(feldspar.StartingPosition())
	defer func() {
		if _, ok := feldspar.AsInvariantError(recover()); !ok {
			t.Fatalf("expected an invariant panic")
		}
	}()
	tree.Ascend(feldspar.StartingPosition())
}

func TestTreeResetRoot(t *testing.T) {
	base := feldspar.StartingPosition()
	var moves []feldspar.Move
	pos := base
	for _, s := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.Apply(m)
		moves = append(moves, m)
	}

	tree := NewTree(mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
	tree.Descend(mustMove(t, tree.Focus(), "e1e2"))
	tree.ResetRoot(base, moves)
	if tree.Depth() != 0 {
		t.Fatalf("depth after reset: expected 0 but got %d", tree.Depth())
	}
	if *tree.Focus() != pos {
		t.Fatalf("expected %s but got %s", pos.FEN(), tree.Focus().FEN())
	}
}

func mustMove(t testing.TB, pos *feldspar.Position, s string) feldspar.Move {
	t.Helper()
	m, err := pos.ParseMove(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNextMovesResolvesMate(t *testing.T) {
	tree := NewTree(mustParse(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"))
	var buf [feldspar.MaxMoves]feldspar.Move
	if n := len(tree.NextMoves(buf[:0])); n != 0 {
		t.Fatalf("expected no moves, got %d", n)
	}
	if tree.Focus().Outcome != feldspar.BlackWins {
		t.Fatalf("expected 0-1 but got %s", tree.Focus().Outcome)
	}
}

func TestQuiescenceTreeOnlyCaptures(t *testing.T) {
	tree := NewQuiescenceTree(mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"))
	var buf [feldspar.MaxMoves]feldspar.Move
	moves := tree.NextMoves(buf[:0])
	if len(moves) != 8 {
		t.Fatalf("expected 8 captures, got %d", len(moves))
	}
	for _, m := range moves {
		if !m.IsCapture() {
			t.Fatalf("quiescence tree produced quiet move %s", m)
		}
	}
}

func TestAlphaBetaFindsMate(t *testing.T) {
	tree := NewTree(mustParse(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"))
	res, err := AlphaBeta(context.Background(), tree, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() != "a1a8" {
		t.Fatalf("expected a1a8 but got %s", res.Move)
	}
	if res.Score != feldspar.MateScore-1 {
		t.Fatalf("expected mate score %d but got %d", feldspar.MateScore-1, res.Score)
	}
	if tree.Depth() != 0 {
		t.Fatalf("search left the tree at depth %d", tree.Depth())
	}
}

func TestAlphaBetaWinsMaterial(t *testing.T) {
	tree := NewTree(mustParse(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1"))
	res, err := AlphaBeta(context.Background(), tree, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() != "d1d5" {
		t.Fatalf("expected d1d5 but got %s", res.Move)
	}
}

func TestQuiescenceAvoidsDefendedPawn(t *testing.T) {
	const fen = "4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1"
	res, err := AlphaBeta(context.Background(), NewTree(mustParse(t, fen)), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() != "d1d5" {
		t.Fatalf("without quiescence expected the greedy d1d5 but got %s", res.Move)
	}

	res, err = AlphaBeta(context.Background(), NewTree(mustParse(t, fen)), 1, WithQuiescence(4))
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() == "d1d5" {
		t.Fatalf("quiescence should see the recapture on d5")
	}
}

func TestAlphaBetaNoLegalMoves(t *testing.T) {
	tree := NewTree(mustParse(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"))
	res, err := AlphaBeta(context.Background(), tree, 3)
	if !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves, got %v", err)
	}
	if res.Move != feldspar.NullMove || res.Score != 0 {
		t.Fatalf("stalemate: expected null move and score 0, got %s %s", res.Move, res.Score)
	}
}

func TestAlphaBetaRejectsZeroDepth(t *testing.T) {
	if _, err := AlphaBeta(context.Background(), NewTree(feldspar.StartingPosition()), 0); err == nil {
		t.Fatalf("expected an error for depth 0")
	}
}

func TestAlphaBetaCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pos := feldspar.StartingPosition()
	tree := NewTree(pos)
	res, err := AlphaBeta(ctx, tree, 6)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, perr := pos.ParseMove(res.Move.String()); perr != nil {
		t.Fatalf("cancelled search returned an illegal move %s", res.Move)
	}
	if tree.Depth() != 0 || *tree.Focus() != pos {
		t.Fatalf("cancelled search did not restore the root")
	}
}

func TestQuiescenceHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pos := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	s := newSearcher(ctx, NewTree(pos), buildOptions([]Option{WithQuiescence(8)}))
	// The context is next checked at the third node.
	s.polls = checkInterval - 3
	s.quiesce(s.opts.QuiescenceDepth, -feldspar.MaxScore, feldspar.MaxScore)
	if !s.stopped {
		t.Fatalf("capture search ran %d nodes without noticing the cancelled context", s.nodes)
	}
	if s.nodes != 3 {
		t.Fatalf("expected the capture search to stop at its third node, got %d", s.nodes)
	}
	if s.qtree.Depth() != 0 || *s.qtree.Focus() != pos {
		t.Fatalf("cancelled capture search did not restore its root")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	tests := []struct {
		fen   string
		depth int
		opts  []Option
	}{
		{feldspar.StartFEN, 3, nil},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, nil},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 2, []Option{WithCaptureOrdering(true)}},
		{"4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1", 2, []Option{WithQuiescence(4)}},
		{"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 3, nil},
	}
	for _, tc := range tests {
		pos := mustParse(t, tc.fen)
		seq, err := AlphaBeta(context.Background(), NewTree(pos), tc.depth, tc.opts...)
		if err != nil {
			t.Fatal(err)
		}
		par, err := SearchParallel(context.Background(), pos, tc.depth, 4, tc.opts...)
		if err != nil {
			t.Fatal(err)
		}
		if seq.Move != par.Move || seq.Score != par.Score {
			t.Fatalf("%s: sequential %s (%s), parallel %s (%s)", tc.fen, seq.Move, seq.Score, par.Move, par.Score)
		}
	}
}

func TestCaptureOrderingKeepsScore(t *testing.T) {
	pos := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	plain, err := AlphaBeta(context.Background(), NewTree(pos), 3)
	if err != nil {
		t.Fatal(err)
	}
	ordered, err := AlphaBeta(context.Background(), NewTree(pos), 3, WithCaptureOrdering(true))
	if err != nil {
		t.Fatal(err)
	}
	if plain.Score != ordered.Score {
		t.Fatalf("ordering changed the score: %s vs %s", plain.Score, ordered.Score)
	}
	if ordered.Nodes > plain.Nodes {
		t.Logf("capture ordering searched more nodes (%d > %d)", ordered.Nodes, plain.Nodes)
	}
}

func BenchmarkAlphaBeta4(b *testing.B) {
	pos := feldspar.StartingPosition()
	for i := 0; i < b.N; i++ {
		if _, err := AlphaBeta(context.Background(), NewTree(pos), 4, WithCaptureOrdering(true)); err != nil {
			b.Fatal(err)
		}
	}
}
