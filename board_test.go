package feldspar

import "testing"

func TestBoardSetRemovePiece(t *testing.T) {
	var b Board
	b.SetPiece(White, Knight, G1)
	b.SetPiece(Black, Queen, D8)

	if p, ok := b.PieceAt(G1); !ok || p != NewPiece(White, Knight) {
		t.Fatalf("PieceAt(g1): expected N, got %v %t", p, ok)
	}
	if p, ok := b.PieceAt(D8); !ok || p != NewPiece(Black, Queen) {
		t.Fatalf("PieceAt(d8): expected q, got %v %t", p, ok)
	}
	if _, ok := b.PieceAt(E4); ok {
		t.Fatalf("PieceAt(e4): expected empty")
	}
	if b.All() != bbOf(G1, D8) {
		t.Fatalf("All: expected g1,d8 but got %v", b.All().Scan())
	}

	b.RemovePiece(White, Knight, G1)
	if b.Occupied(White) != EmptyBB || b.Pieces(White, Knight) != EmptyBB {
		t.Fatalf("RemovePiece left bits behind: %s", b.Draw())
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBoardValidateDetectsCorruption(t *testing.T) {
	pos := StartingPosition()
	b := pos.Board

	*b.PiecesMut(White, Queen) |= SquareBB(E4)
	if err := b.Validate(); err == nil {
		t.Fatalf("expected aggregate mismatch to be reported")
	}
	*b.OccupiedMut(White) |= SquareBB(E4)
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate after fixing aggregate: %v", err)
	}
	*b.PiecesMut(Black, Pawn) |= SquareBB(E4)
	*b.OccupiedMut(Black) |= SquareBB(E4)
	if err := b.Validate(); err == nil {
		t.Fatalf("expected overlapping bitboards to be reported")
	}
}

func TestBoardAttackersTo(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/3q4/2P1N3/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	b := &pos.Board

	// The e4 knight does not reach d5.
	if got := b.AttackersTo(D5, White); got != bbOf(C4) {
		t.Fatalf("white attackers of d5: expected c4 but got %v", got.Scan())
	}
	if got := b.AttackersTo(A8, White); got != bbOf(A1) {
		t.Fatalf("white attackers of a8: expected a1 but got %v", got.Scan())
	}
	if got := b.AttackersTo(C4, Black); got != bbOf(D5) {
		t.Fatalf("black attackers of c4: expected d5 but got %v", got.Scan())
	}
	if got := b.KingSquare(Black); got != E8 {
		t.Fatalf("black king: expected e8 but got %s", got)
	}
}

func TestBoardString(t *testing.T) {
	pos := StartingPosition()
	const want = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	if got := pos.Board.String(); got != want {
		t.Fatalf("expected %q but got %q", want, got)
	}
}
