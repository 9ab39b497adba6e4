package feldspar

import (
	"slices"
	"strings"
)

// A MoveFlag selects one of the 16 move kinds. Bit 2 marks captures and bit 3 marks promotions.
type MoveFlag uint8

const (
	Quiet              MoveFlag = 0
	DoublePawnPush     MoveFlag = 1
	KingCastle         MoveFlag = 2
	QueenCastle        MoveFlag = 3
	Capture            MoveFlag = 4
	EPCapture          MoveFlag = 5
	KnightPromotion    MoveFlag = 8
	BishopPromotion    MoveFlag = 9
	RookPromotion      MoveFlag = 10
	QueenPromotion     MoveFlag = 11
	KnightPromoCapture MoveFlag = 12
	BishopPromoCapture MoveFlag = 13
	RookPromoCapture   MoveFlag = 14
	QueenPromoCapture  MoveFlag = 15
)

const (
	captureBit   MoveFlag = 4
	promotionBit MoveFlag = 8
)

// A Move packs origin (bits 0-5), destination (bits 6-11) and flag (bits 12-15) into 16 bits.
type Move uint16

// NullMove is the zero Move. It fills empty slots of the recent-move window.
const NullMove Move = 0

// NewMove encodes a move.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(uint16(from)&0x3f | (uint16(to)&0x3f)<<6 | uint16(flag&0xf)<<12)
}

// From returns the origin square.
func (m Move) From() Square { return Square(m & 0x3f) }

// To returns the destination square.
func (m Move) To() Square { return Square((m >> 6) & 0x3f) }

// Flag returns the move kind.
func (m Move) Flag() MoveFlag { return MoveFlag(m >> 12) }

// IsCapture reports whether the move removes an opposing piece (flags 4, 5 and 12-15).
func (m Move) IsCapture() bool { return m.Flag()&captureBit != 0 }

// IsPromotion reports whether the move promotes a pawn (flags 8-15).
func (m Move) IsPromotion() bool { return m.Flag()&promotionBit != 0 }

// IsCastle reports whether the move is a king-side or queen-side castle.
func (m Move) IsCastle() bool {
	f := m.Flag()
	return f == KingCastle || f == QueenCastle
}

// PromotionType returns the piece a promotion turns the pawn into.
// The result is meaningless for non-promotions.
func (m Move) PromotionType() PieceType {
	return Knight + PieceType(m.Flag()&3)
}

// promotionFlag returns the flag promoting to pt, with or without a capture.
func promotionFlag(pt PieceType, capture bool) MoveFlag {
	f := KnightPromotion + MoveFlag(pt-Knight)
	if capture {
		f |= captureBit
	}
	return f
}

// String returns the move in long algebraic notation ("e2e4", "e7e8q"), or "0000" for NullMove.
func (m Move) String() string {
	if m == NullMove {
		return "0000"
	}
	var sb strings.Builder
	sb.Grow(5)
	sb.WriteString(m.From().String())
	sb.WriteString(m.To().String())
	if m.IsPromotion() {
		sb.WriteString(m.PromotionType().String())
	}
	return sb.String()
}

// SortCapturesFirst stably moves captures ahead of quiet moves, keeping relative order otherwise.
func SortCapturesFirst(moves []Move) {
	slices.SortStableFunc(moves, func(a, b Move) int {
		ac, bc := a.IsCapture(), b.IsCapture()
		switch {
		case ac == bc:
			return 0
		case ac:
			return -1
		default:
			return 1
		}
	})
}
