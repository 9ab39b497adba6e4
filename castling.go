package feldspar

import "strings"

// CastlingRights is a set of the four independent castling flags.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

// Has reports whether every flag in r is held.
func (cr CastlingRights) Has(r CastlingRights) bool { return cr&r == r }

// Clear returns cr without the flags in r.
func (cr CastlingRights) Clear(r CastlingRights) CastlingRights { return cr &^ r }

// Union returns cr with the flags in r added.
func (cr CastlingRights) Union(r CastlingRights) CastlingRights { return cr | r }

// String returns the FEN castling field, "KQkq" order or "-".
func (cr CastlingRights) String() string {
	if cr&AllCastling == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, f := range [...]struct {
		r  CastlingRights
		ch byte
	}{{WhiteKingside, 'K'}, {WhiteQueenside, 'Q'}, {BlackKingside, 'k'}, {BlackQueenside, 'q'}} {
		if cr.Has(f.r) {
			sb.WriteByte(f.ch)
		}
	}
	return sb.String()
}

// kingsideRight and queensideRight return the flag for color c.
func kingsideRight(c Color) CastlingRights {
	if c == White {
		return WhiteKingside
	}
	return BlackKingside
}

func queensideRight(c Color) CastlingRights {
	if c == White {
		return WhiteQueenside
	}
	return BlackQueenside
}

// cornerRights maps a rook home square to the right it guards. A move from or to that square
// clears the right, whichever piece makes it.
func cornerRights(sq Square) CastlingRights {
	switch sq {
	case A1:
		return WhiteQueenside
	case H1:
		return WhiteKingside
	case A8:
		return BlackQueenside
	case H8:
		return BlackKingside
	}
	return NoCastling
}

// castleRookSquares returns the rook's home and castled squares for a castling flag.
func castleRookSquares(c Color, flag MoveFlag) (from, to Square) {
	switch {
	case c == White && flag == KingCastle:
		return H1, F1
	case c == White:
		return A1, D1
	case flag == KingCastle:
		return H8, F8
	default:
		return A8, D8
	}
}
