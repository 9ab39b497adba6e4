package feldspar

import "strconv"

// Score is a static evaluation in centipawns from White's point of view.
type Score int32

const (
	// MateScore is the magnitude of a checkmate score. Mates found deeper in the
	// tree score closer to zero.
	MateScore Score = 100_000
	// MaxScore bounds every reachable score.
	MaxScore Score = MateScore + 1
)

func (s Score) String() string { return strconv.Itoa(int(s)) }

// Relative returns s from c's point of view.
func (s Score) Relative(c Color) Score {
	if c == White {
		return s
	}
	return -s
}

var pieceValues = [NumPieceTypes]Score{
	Pawn:   100,
	Knight: 320,
	Bishop: 330,
	Rook:   500,
	Queen:  900,
	King:   0,
}

// PieceValue returns the material value of a piece type.
func PieceValue(pt PieceType) Score { return pieceValues[pt] }

// Piece-square tables, written as seen from White with rank 8 on the first row.
var pieceSquare = [NumPieceTypes][64]Score{
	Pawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	Knight: {
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	},
	Bishop: {
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	},
	Rook: {
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	},
	Queen: {
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	},
	King: {
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	},
}

// pieceScore returns the White-relative contribution of a (color, type) piece standing on sq.
func pieceScore(c Color, pt PieceType, sq Square) Score {
	if c == White {
		// The tables list rank 8 first, so flip the rank for White.
		return pieceValues[pt] + pieceSquare[pt][sq^56]
	}
	return -(pieceValues[pt] + pieceSquare[pt][sq])
}

// AddPiece adds the contribution of a piece arriving on sq.
func (s *Score) AddPiece(c Color, pt PieceType, sq Square) { *s += pieceScore(c, pt, sq) }

// RemovePiece subtracts the contribution of a piece leaving sq.
func (s *Score) RemovePiece(c Color, pt PieceType, sq Square) { *s -= pieceScore(c, pt, sq) }

// EvaluateBoard computes the score of a board from scratch.
func EvaluateBoard(b *Board) Score {
	var s Score
	for _, c := range [2]Color{White, Black} {
		for _, pt := range PieceTypes {
			for bb := b.Pieces(c, pt); bb != 0; {
				var sq Square
				sq, bb, _ = bb.PopLSB()
				s.AddPiece(c, pt, sq)
			}
		}
	}
	return s
}
