package feldspar

import (
	"fmt"
	"strconv"
	"strings"
)

// A Board holds the placement of pieces as twelve bitboards, one per (color, piece type),
// plus per-color occupancy aggregates. A Board is a plain value; copying it copies the position.
type Board struct {
	pieces   [2][NumPieceTypes]Bitboard // [color][piece type]
	occupied [2]Bitboard                // Combined pieces per color
}

// SetPiece places a piece of the given color and type on sq.
func (b *Board) SetPiece(c Color, pt PieceType, sq Square) {
	b.pieces[c][pt] = b.pieces[c][pt].Set(sq)
	b.occupied[c] = b.occupied[c].Set(sq)
}

// RemovePiece clears the (color, type) bit on sq.
func (b *Board) RemovePiece(c Color, pt PieceType, sq Square) {
	b.pieces[c][pt] = b.pieces[c][pt].Clear(sq)
	b.occupied[c] = b.occupied[c].Clear(sq)
}

// PieceAt returns the piece located on the given square, and false if the square is empty.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	sqBB := SquareBB(sq)
	for _, c := range [2]Color{White, Black} {
		if b.occupied[c]&sqBB == 0 {
			continue
		}
		for _, pt := range PieceTypes {
			if b.pieces[c][pt]&sqBB != 0 {
				return NewPiece(c, pt), true
			}
		}
	}
	return Piece{}, false
}

// typeAt returns the piece type of color c on sq.
func (b *Board) typeAt(c Color, sq Square) (PieceType, bool) {
	sqBB := SquareBB(sq)
	if b.occupied[c]&sqBB == 0 {
		return 0, false
	}
	for _, pt := range PieceTypes {
		if b.pieces[c][pt]&sqBB != 0 {
			return pt, true
		}
	}
	return 0, false
}

// Pieces returns the bitboard of pieces of the given color and type.
func (b *Board) Pieces(c Color, pt PieceType) Bitboard { return b.pieces[c][pt] }

// PiecesMut returns a mutable view of the (color, type) bitboard. Callers must keep the
// color aggregate in step through OccupiedMut.
func (b *Board) PiecesMut(c Color, pt PieceType) *Bitboard { return &b.pieces[c][pt] }

// Occupied returns all squares occupied by color c.
func (b *Board) Occupied(c Color) Bitboard { return b.occupied[c] }

// OccupiedMut returns a mutable view of color c's occupancy aggregate.
func (b *Board) OccupiedMut(c Color) *Bitboard { return &b.occupied[c] }

// All returns the combined occupancy of both colors.
func (b *Board) All() Bitboard { return b.occupied[White] | b.occupied[Black] }

// KingSquare returns the square of color c's king, or NoSquare if it has none.
func (b *Board) KingSquare(c Color) Square {
	sq, _ := b.pieces[c][King].LSB()
	return sq
}

// AttackersTo returns the squares holding pieces of color by that attack sq.
func (b *Board) AttackersTo(sq Square, by Color) Bitboard {
	return b.attackersWith(sq, by, b.All(), EmptyBB)
}

// attackersWith is AttackersTo against an arbitrary occupancy, ignoring pieces on exclude.
// The move generator uses it to ask "what if" questions without mutating the board.
func (b *Board) attackersWith(sq Square, by Color, occ, exclude Bitboard) Bitboard {
	p := &b.pieces[by]
	attackers := EmptyBB
	// A pawn of color `by` attacks sq exactly when a pawn of the other color on sq would attack it.
	attackers |= pawnAttacks[by.Other()][sq] & p[Pawn]
	attackers |= knightAttacks[sq] & p[Knight]
	attackers |= kingAttacks[sq] & p[King]
	attackers |= BishopAttacks(sq, occ) & (p[Bishop] | p[Queen])
	attackers |= RookAttacks(sq, occ) & (p[Rook] | p[Queen])
	return attackers &^ exclude
}

// Validate checks the structural invariants: per-type bitboards are pairwise disjoint and
// each color aggregate equals the union of that color's bitboards.
func (b *Board) Validate() error {
	var seen Bitboard
	for _, c := range [2]Color{White, Black} {
		var union Bitboard
		for _, pt := range PieceTypes {
			bb := b.pieces[c][pt]
			if bb&seen != 0 {
				return fmt.Errorf("feldspar: overlapping bitboards for %s %s", c.Name(), pt)
			}
			seen |= bb
			union |= bb
		}
		if union != b.occupied[c] {
			return fmt.Errorf("feldspar: %s occupancy %s does not match its pieces %s", c.Name(), b.occupied[c], union)
		}
	}
	return nil
}

// --- FEN and Debugging ---

// Draw returns visual representation of the board useful for debugging.
func (b *Board) Draw() string {
	var sb strings.Builder
	sb.WriteString("\n  a b c d e f g h\n")
	for r := Rank8; r >= Rank1; r-- {
		sb.WriteString(r.String() + " ")
		for f := FileA; f <= FileH; f++ {
			if p, ok := b.PieceAt(NewSquare(f, r)); ok {
				sb.WriteByte(p.FEN())
				sb.WriteByte(' ')
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString(r.String() + "\n")
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

// String implements the fmt.Stringer interface and returns
// a string in the FEN board format: rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR
func (b *Board) String() string {
	var fen strings.Builder
	for r := Rank8; r >= Rank1; r-- {
		emptyCount := 0
		for f := FileA; f <= FileH; f++ {
			p, ok := b.PieceAt(NewSquare(f, r))
			if !ok {
				emptyCount++
				continue
			}
			if emptyCount > 0 {
				fen.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			fen.WriteByte(p.FEN())
		}
		if emptyCount > 0 {
			fen.WriteString(strconv.Itoa(emptyCount))
		}
		if r != Rank1 {
			fen.WriteString("/")
		}
	}
	return fen.String()
}
