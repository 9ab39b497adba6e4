// Package perft counts the positions reachable from a root to a fixed depth, tallying move
// kinds per ply. The counts are compared against published reference values to validate
// the move generator and the position state machine.
package perft

import (
	"fmt"
	"log/slog"

	"github.com/0x5844/feldspar"
	"github.com/0x5844/feldspar/search"
)

var log = slog.Default().With("package", "perft")

// MaxDepth is the size of the per-ply tables. Ply 0 is the root.
const MaxDepth = 20

// Result holds per-ply totals. Index i counts the positions reached after i plies.
type Result struct {
	Nodes      [MaxDepth]uint64
	Captures   [MaxDepth]uint64
	EPCaptures [MaxDepth]uint64
	Castles    [MaxDepth]uint64
	Promotions [MaxDepth]uint64
	Checks     [MaxDepth]uint64
	Checkmates [MaxDepth]uint64
}

// Add accumulates o into r.
func (r *Result) Add(o *Result) {
	for i := 0; i < MaxDepth; i++ {
		r.Nodes[i] += o.Nodes[i]
		r.Captures[i] += o.Captures[i]
		r.EPCaptures[i] += o.EPCaptures[i]
		r.Castles[i] += o.Castles[i]
		r.Promotions[i] += o.Promotions[i]
		r.Checks[i] += o.Checks[i]
		r.Checkmates[i] += o.Checkmates[i]
	}
}

// Total returns the number of positions counted below the root.
func (r *Result) Total() uint64 {
	var n uint64
	for i := 1; i < MaxDepth; i++ {
		n += r.Nodes[i]
	}
	return n
}

// Leaves returns the node count at the deepest ply reached.
func (r *Result) Leaves() uint64 {
	for i := MaxDepth - 1; i > 0; i-- {
		if r.Nodes[i] != 0 {
			return r.Nodes[i]
		}
	}
	return 0
}

func checkDepth(depth int) error {
	if depth < 1 || depth >= MaxDepth {
		return fmt.Errorf("perft: depth %d out of range [1, %d]", depth, MaxDepth-1)
	}
	return nil
}

// Run enumerates every line of play depth plies deep from pos.
func Run(pos feldspar.Position, depth int) (Result, error) {
	var r Result
	if err := checkDepth(depth); err != nil {
		return r, err
	}
	r.Nodes[0] = 1
	c := counter{tree: search.NewTree(pos), result: &r, maxDepth: depth}
	c.walk()
	log.Debug("perft finished", "depth", depth, "nodes", r.Total())
	return r, nil
}

type counter struct {
	tree     *search.Tree
	result   *Result
	maxDepth int
}

func (c *counter) walk() {
	if c.tree.Depth() == c.maxDepth {
		return
	}
	var buf [feldspar.MaxMoves]feldspar.Move
	for _, m := range c.tree.Focus().LegalMoves(buf[:0]) {
		saved := *c.tree.Focus()
		c.visit(m)
		c.walk()
		c.tree.Ascend(saved)
	}
}

// visit descends through m and tallies the position it reaches.
func (c *counter) visit(m feldspar.Move) {
	c.tree.Descend(m)
	ply := c.tree.Depth()
	r := c.result
	r.Nodes[ply]++
	if m.IsCapture() {
		r.Captures[ply]++
	}
	if m.Flag() == feldspar.EPCapture {
		r.EPCaptures[ply]++
	}
	if m.IsCastle() {
		r.Castles[ply]++
	}
	if m.IsPromotion() {
		r.Promotions[ply]++
	}
	if pos := c.tree.Focus(); pos.InCheck() {
		r.Checks[ply]++
		if !pos.HasLegalMove() {
			r.Checkmates[ply]++
		}
	}
}
