package feldspar

// A Square is one of the 64 squares on a chess board, a1 = 0 through h8 = 63.
type Square uint8

// NoSquare is used where a square is absent (e.g. no en passant target).
const NoSquare Square = 64

// Squares, little-endian rank-file order.
const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// A File is the column of a square.
type File int8

// A Rank is the row of a square.
type Rank int8

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

// NewSquare creates a new Square from a File and a Rank.
func NewSquare(f File, r Rank) Square {
	return Square(int(r)*8 + int(f))
}

// File returns the square's file.
func (sq Square) File() File { return File(sq % 8) }

// Rank returns the square's rank.
func (sq Square) Rank() Rank { return Rank(sq / 8) }

// String returns the algebraic name of the square ("e4"), or "-" for NoSquare.
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return sq.File().String() + sq.Rank().String()
}

// ParseSquare converts two-character algebraic notation into a Square.
func ParseSquare(s string) (Square, bool) {
	if len(s) != 2 {
		return NoSquare, false
	}
	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return NoSquare, false
	}
	return NewSquare(File(f-'a'), Rank(r-'1')), true
}

func (f File) String() string { return string(rune('a' + f)) }

func (r Rank) String() string { return string(rune('1' + r)) }

// A Color is the color of a piece or of the side to move.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// Name returns the color's long name.
func (c Color) Name() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// A PieceType is the kind of a piece independent of its color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

// NumPieceTypes is the number of distinct piece types.
const NumPieceTypes = 6

// PieceTypes lists every piece type, pawn first.
var PieceTypes = [NumPieceTypes]PieceType{Pawn, Knight, Bishop, Rook, Queen, King}

// String returns the lowercase letter used for the piece type in FEN and UCI.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	}
	return "?"
}

// A Piece is a (color, piece type) pair.
type Piece struct {
	Color Color
	Type  PieceType
}

// NewPiece returns the piece of the given type and color.
func NewPiece(c Color, pt PieceType) Piece { return Piece{Color: c, Type: pt} }

// FEN returns the piece letter, uppercase for white.
func (p Piece) FEN() byte {
	ch := p.Type.String()[0]
	if p.Color == White {
		ch -= 'a' - 'A'
	}
	return ch
}

func (p Piece) String() string { return string(p.FEN()) }

// pieceFromFEN maps a FEN placement letter to a piece.
func pieceFromFEN(ch byte) (Piece, bool) {
	c := White
	if ch >= 'a' && ch <= 'z' {
		c = Black
		ch -= 'a' - 'A'
	}
	switch ch {
	case 'P':
		return NewPiece(c, Pawn), true
	case 'N':
		return NewPiece(c, Knight), true
	case 'B':
		return NewPiece(c, Bishop), true
	case 'R':
		return NewPiece(c, Rook), true
	case 'Q':
		return NewPiece(c, Queen), true
	case 'K':
		return NewPiece(c, King), true
	}
	return Piece{}, false
}
