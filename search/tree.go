// Package search walks the game tree below a position and picks a move with alpha-beta.
package search

import "github.com/0x5844/feldspar"

// A Tree wraps one focal Position and tracks how many plies it sits below the root.
// Moving down applies a move in place; moving up restores a copy the caller saved
// before descending:
//
//	saved := *t.Focus()
//	t.Descend(m)
//	// ...
//	t.Ascend(saved)
type Tree struct {
	focus feldspar.Position
	depth int

	// Quiescence marks a capture-only tree used to extend the search along forcing lines.
	Quiescence bool
}

// NewTree returns a main search tree rooted at root.
func NewTree(root feldspar.Position) *Tree {
	return &Tree{focus: root}
}

// NewQuiescenceTree returns a capture-only tree rooted at root.
func NewQuiescenceTree(root feldspar.Position) *Tree {
	return &Tree{focus: root, Quiescence: true}
}

// Focus returns the current position. The pointer stays valid for the life of the tree,
// but the value behind it changes on every Descend and Ascend.
func (t *Tree) Focus() *feldspar.Position { return &t.focus }

// Depth returns the number of plies between the focus and the root.
func (t *Tree) Depth() int { return t.depth }

// Descend applies m to the focus.
func (t *Tree) Descend(m feldspar.Move) {
	t.focus.Apply(m)
	t.depth++
}

// Ascend replaces the focus with saved, a copy taken before the matching Descend.
func (t *Tree) Ascend(saved feldspar.Position) {
	if t.depth == 0 {
		panic(&feldspar.InvariantError{Op: "ascend", FEN: t.focus.FEN(), Detail: "already at the root"})
	}
	t.focus = saved
	t.depth--
}

// ResetRoot discards the current line, sets the focus to base and replays moves on it.
// The resulting position becomes the new root: Depth reports 0 afterwards.
func (t *Tree) ResetRoot(base feldspar.Position, moves []feldspar.Move) {
	t.focus = base
	t.depth = 0
	for _, m := range moves {
		t.Descend(m)
	}
	t.depth = 0
}

// NextMoves appends the moves to search from the focus: every legal move, or only the
// captures in a quiescence tree. On a main tree an empty list also settles the focus's
// outcome as checkmate or stalemate.
func (t *Tree) NextMoves(buf []feldspar.Move) []feldspar.Move {
	if t.Quiescence {
		return t.focus.Captures(buf)
	}
	moves := t.focus.LegalMoves(buf)
	if len(moves) == 0 {
		t.focus.ResolveOutcome(0)
	}
	return moves
}
