package feldspar

import (
	"math/bits"
	"strings"

	"golang.org/x/exp/constraints"
)

// Bitboard is a set of squares, one bit per square (bit 0 = a1, bit 63 = h8).
type Bitboard uint64

const (
	NumSquares = 64
	NumFiles   = 8
	NumRanks   = 8
)

// A Direction is one of the eight compass directions a slider can travel.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	NumDirections
)

// Opposite returns the direction rotated by 180 degrees.
func (d Direction) Opposite() Direction { return (d + 4) % NumDirections }

// ascending reports whether stepping in d increases the square index.
func (d Direction) ascending() bool {
	return d == North || d == NorthEast || d == East || d == NorthWest
}

// step is a displacement in files and ranks.
type step struct{ df, dr int }

var (
	directionSteps = [NumDirections]step{
		North: {0, 1}, NorthEast: {1, 1}, East: {1, 0}, SouthEast: {1, -1},
		South: {0, -1}, SouthWest: {-1, -1}, West: {-1, 0}, NorthWest: {-1, 1},
	}
	knightJumps = []step{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = directionSteps[:]
)

const (
	EmptyBB Bitboard = 0
	FullBB  Bitboard = ^EmptyBB

	FileABB Bitboard = 0x0101010101010101
	FileHBB Bitboard = FileABB << 7

	Rank1BB Bitboard = 0xFF
	Rank2BB Bitboard = Rank1BB << 8
	Rank7BB Bitboard = Rank1BB << 48
	Rank8BB Bitboard = Rank1BB << 56

	NotAFile Bitboard = ^FileABB
	NotHFile Bitboard = ^FileHBB
)

// Attack tables. Written by init only; safe for concurrent reads.
var (
	pawnAttacks   [2][NumSquares]Bitboard
	knightAttacks [NumSquares]Bitboard
	kingAttacks   [NumSquares]Bitboard

	rays      [NumSquares][NumDirections]Bitboard
	betweenBB [NumSquares][NumSquares]Bitboard
)

var (
	rookDirections   = []Direction{North, East, South, West}
	bishopDirections = []Direction{NorthEast, SouthEast, SouthWest, NorthWest}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		pawnAttacks[White][sq] = (bb<<7)&NotHFile | (bb<<9)&NotAFile
		pawnAttacks[Black][sq] = (bb>>9)&NotHFile | (bb>>7)&NotAFile
		knightAttacks[sq] = leaperTargets(sq, knightJumps)
		kingAttacks[sq] = leaperTargets(sq, kingSteps)
		for d := North; d < NumDirections; d++ {
			rays[sq][d] = walk(sq, directionSteps[d])
		}
	}
	// Between depends on the finished ray table.
	for from := A1; from <= H8; from++ {
		for to := A1; to <= H8; to++ {
			if d, ok := directionTo(from, to); ok {
				betweenBB[from][to] = rays[from][d] & rays[to][d.Opposite()]
			}
		}
	}
}

// offset returns the square displaced from sq by s, if it is on the board.
func offset(sq Square, s step) (Square, bool) {
	f, r := int(sq.File())+s.df, int(sq.Rank())+s.dr
	if f < 0 || f >= NumFiles || r < 0 || r >= NumRanks {
		return NoSquare, false
	}
	return NewSquare(File(f), Rank(r)), true
}

func leaperTargets(sq Square, steps []step) Bitboard {
	var bb Bitboard
	for _, s := range steps {
		if to, ok := offset(sq, s); ok {
			bb |= SquareBB(to)
		}
	}
	return bb
}

// walk collects the squares reached by repeating s from sq until the edge, sq excluded.
func walk(sq Square, s step) Bitboard {
	var bb Bitboard
	for cur, ok := offset(sq, s); ok; cur, ok = offset(cur, s) {
		bb |= SquareBB(cur)
	}
	return bb
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// directionTo returns the direction leading from one square to another along a rank, file
// or diagonal.
func directionTo(from, to Square) (Direction, bool) {
	if from == to {
		return 0, false
	}
	df := int(to.File()) - int(from.File())
	dr := int(to.Rank()) - int(from.Rank())
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return 0, false
	}
	want := step{sign(df), sign(dr)}
	for d, s := range directionSteps {
		if s == want {
			return Direction(d), true
		}
	}
	return 0, false
}

// SquareBB returns the set holding only sq, or EmptyBB for NoSquare.
func SquareBB(sq Square) Bitboard {
	if sq < NoSquare {
		return 1 << sq
	}
	return EmptyBB
}

// Set returns b with sq added.
func (b Bitboard) Set(sq Square) Bitboard { return b | SquareBB(sq) }

// Clear returns b with sq removed.
func (b Bitboard) Clear(sq Square) Bitboard { return b &^ SquareBB(sq) }

// Occupied reports whether sq is a member of b.
func (b Bitboard) Occupied(sq Square) bool { return b&SquareBB(sq) != 0 }

func (b Bitboard) PopCount() int { return bits.OnesCount64(uint64(b)) }

// LSB returns the lowest member, or (NoSquare, false) for an empty set.
func (b Bitboard) LSB() (Square, bool) {
	if b == 0 {
		return NoSquare, false
	}
	return Square(bits.TrailingZeros64(uint64(b))), true
}

// MSB returns the highest member, or (NoSquare, false) for an empty set.
func (b Bitboard) MSB() (Square, bool) {
	if b == 0 {
		return NoSquare, false
	}
	return Square(63 - bits.LeadingZeros64(uint64(b))), true
}

// PopLSB splits off the lowest member. On an empty set it returns (NoSquare, b, false).
func (b Bitboard) PopLSB() (Square, Bitboard, bool) {
	sq, ok := b.LSB()
	if !ok {
		return NoSquare, b, false
	}
	return sq, b & (b - 1), true
}

// Scan lists the members in ascending square order.
func (b Bitboard) Scan() []Square {
	out := make([]Square, 0, b.PopCount())
	for sq, rest, ok := b.PopLSB(); ok; sq, rest, ok = rest.PopLSB() {
		out = append(out, sq)
	}
	return out
}

// North shifts every member one rank toward rank 8; members on rank 8 fall off.
func (b Bitboard) North() Bitboard { return b << 8 }

// South shifts every member one rank toward rank 1; members on rank 1 fall off.
func (b Bitboard) South() Bitboard { return b >> 8 }

// Forward shifts one rank in the direction pawns of color c advance.
func (b Bitboard) Forward(c Color) Bitboard {
	if c == White {
		return b.North()
	}
	return b.South()
}

// String renders b as 64 binary digits, h8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for sq := NumSquares - 1; sq >= 0; sq-- {
		sb.WriteByte('0' + byte(b>>sq&1))
	}
	return sb.String()
}

// Draw renders b as an 8x8 grid with rank 8 on top, marking members with X.
func (b Bitboard) Draw() string {
	var sb strings.Builder
	sb.WriteString("\n  a b c d e f g h\n")
	for r := Rank8; r >= Rank1; r-- {
		sb.WriteString(r.String())
		for f := FileA; f <= FileH; f++ {
			if b.Occupied(NewSquare(f, r)) {
				sb.WriteString(" X")
			} else {
				sb.WriteString(" .")
			}
		}
		sb.WriteString(" " + r.String() + "\n")
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

// Ray returns the squares from sq to the edge in direction d, sq excluded.
func Ray(sq Square, d Direction) Bitboard {
	if sq >= NoSquare || d >= NumDirections {
		return EmptyBB
	}
	return rays[sq][d]
}

// Between returns the squares strictly between s1 and s2, or EmptyBB if they share no line.
func Between(s1, s2 Square) Bitboard {
	if s1 >= NoSquare || s2 >= NoSquare {
		return EmptyBB
	}
	return betweenBB[s1][s2]
}

// PawnAttacks returns the squares attacked by a pawn of color c on sq.
func PawnAttacks(c Color, sq Square) Bitboard { return pawnAttacks[c][sq] }

// KnightAttacks returns the squares attacked by a knight on sq.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the squares attacked by a king on sq.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// sliderAttacks follows each ray up to and including its first occupied square.
func sliderAttacks(sq Square, occupied Bitboard, dirs []Direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		ray := rays[sq][d]
		blocked := ray & occupied
		if blocked == 0 {
			attacks |= ray
			continue
		}
		var first Square
		if d.ascending() {
			first, _ = blocked.LSB()
		} else {
			first, _ = blocked.MSB()
		}
		attacks |= ray &^ rays[first][d]
	}
	return attacks
}

// RookAttacks returns the squares a rook on sq attacks given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return sliderAttacks(sq, occupied, rookDirections)
}

// BishopAttacks returns the squares a bishop on sq attacks given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return sliderAttacks(sq, occupied, bishopDirections)
}

// QueenAttacks returns the union of rook and bishop attacks from sq.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return RookAttacks(sq, occupied) | BishopAttacks(sq, occupied)
}
