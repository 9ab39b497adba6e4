package feldspar

import (
	"errors"
	"fmt"
)

// FiftyMoveLimit is the fifty-move counter value at which the game is drawn.
const FiftyMoveLimit = 50

// StartFEN describes the standard starting arrangement.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// An Outcome is the terminal result of a game, or NoOutcome while it is in progress.
type Outcome uint8

const (
	NoOutcome Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// WinFor returns the outcome in which c wins.
func WinFor(c Color) Outcome {
	if c == White {
		return WhiteWins
	}
	return BlackWins
}

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

// A Position is the full game state. It is a plain value with no internal pointers:
// copying it with `saved := *pos` and restoring with `*pos = saved` undoes any number of
// Apply calls.
type Position struct {
	Board          Board
	ToMove         Color
	EPSquare       Square // target square after a double pawn push, NoSquare otherwise
	Castling       CastlingRights
	FiftyMoveCount uint8
	MovesPlayed    uint16  // full-move counter
	RecentMoves    [8]Move // oldest first
	KingAttackers  Bitboard
	Score          Score
	Outcome        Outcome
}

// StartingPosition returns the standard starting position.
func StartingPosition() Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.KingAttackers != 0 }

// LastMoveWasCapture reports whether the most recently applied move captured a piece.
func (p *Position) LastMoveWasCapture() bool { return p.RecentMoves[7].IsCapture() }

// IsDrawByRepetition reports whether the last eight moves form a repeated four-move cycle.
// Only an exact cycle inside the window is detected; earlier history is not consulted.
func (p *Position) IsDrawByRepetition() bool {
	r := &p.RecentMoves
	return p.MovesPlayed > 8 &&
		r[0] == r[4] &&
		r[1] == r[5] &&
		r[2] == r[6] &&
		r[3] == r[7]
}

// ResolveOutcome records the outcome implied by the number of legal moves available:
// checkmate when there are none and the side to move is in check, stalemate otherwise.
func (p *Position) ResolveOutcome(legalMoves int) Outcome {
	if legalMoves == 0 {
		if p.InCheck() {
			p.Outcome = WinFor(p.ToMove.Other())
		} else {
			p.Outcome = Draw
		}
	}
	return p.Outcome
}

// RecomputeScore evaluates the board from scratch.
func (p *Position) RecomputeScore() Score { return EvaluateBoard(&p.Board) }

// Apply plays m, which must be legal in p. It is the only way a Position changes after
// construction. Inconsistencies between m and the board panic with *InvariantError.
func (p *Position) Apply(m Move) {
	from, to, flag := m.From(), m.To(), m.Flag()
	us, them := p.ToMove, p.ToMove.Other()

	moved, ok := p.Board.typeAt(us, from)
	if !ok {
		p.invariant("apply", m, "no %s piece on %s", us.Name(), from)
	}

	if m.IsCapture() {
		capSq := to
		if flag == EPCapture {
			if to != p.EPSquare {
				p.invariant("apply", m, "en passant to %s but target is %s", to, p.EPSquare)
			}
			capSq = epCaptureSquare(us, to)
		}
		captured, ok := p.Board.typeAt(them, capSq)
		if !ok {
			p.invariant("apply", m, "capture flag but no %s piece on %s", them.Name(), capSq)
		}
		if captured == King {
			p.invariant("apply", m, "capture of the %s king", them.Name())
		}
		p.Board.RemovePiece(them, captured, capSq)
		p.Score.RemovePiece(them, captured, capSq)
	} else if p.Board.All().Occupied(to) {
		p.invariant("apply", m, "non-capture onto occupied %s", to)
	}

	p.Board.RemovePiece(us, moved, from)
	p.Score.RemovePiece(us, moved, from)
	placed := moved
	if m.IsPromotion() {
		if moved != Pawn {
			p.invariant("apply", m, "promotion by a %s", moved)
		}
		placed = m.PromotionType()
	}
	p.Board.SetPiece(us, placed, to)
	p.Score.AddPiece(us, placed, to)

	if m.IsCastle() {
		if moved != King {
			p.invariant("apply", m, "castle flag on a %s move", moved)
		}
		rookFrom, rookTo := castleRookSquares(us, flag)
		if !p.Board.Pieces(us, Rook).Occupied(rookFrom) {
			p.invariant("apply", m, "castle without a rook on %s", rookFrom)
		}
		p.Board.RemovePiece(us, Rook, rookFrom)
		p.Score.RemovePiece(us, Rook, rookFrom)
		p.Board.SetPiece(us, Rook, rookTo)
		p.Score.AddPiece(us, Rook, rookTo)
	}

	if moved == King {
		p.Castling = p.Castling.Clear(kingsideRight(us) | queensideRight(us))
	}
	p.Castling = p.Castling.Clear(cornerRights(from) | cornerRights(to))

	if flag == DoublePawnPush {
		p.EPSquare = Square((int(from) + int(to)) / 2)
	} else {
		p.EPSquare = NoSquare
	}

	if moved == Pawn || m.IsCapture() {
		p.FiftyMoveCount = 0
	} else if p.FiftyMoveCount < FiftyMoveLimit {
		p.FiftyMoveCount++
	}
	if p.FiftyMoveCount >= FiftyMoveLimit {
		p.Score = 0
		p.Outcome = Draw
	}

	p.ToMove = them
	if p.ToMove == White {
		p.MovesPlayed++
	}

	ksq := p.Board.KingSquare(them)
	if ksq == NoSquare {
		p.invariant("apply", m, "no %s king", them.Name())
	}
	p.KingAttackers = p.Board.AttackersTo(ksq, us)

	copy(p.RecentMoves[:7], p.RecentMoves[1:])
	p.RecentMoves[7] = m

	if p.IsDrawByRepetition() {
		p.Score = 0
		p.Outcome = Draw
	}
}

// epCaptureSquare returns the square of the pawn removed when color c captures en passant onto to.
func epCaptureSquare(c Color, to Square) Square {
	if c == White {
		return to - 8
	}
	return to + 8
}

// ParseMove resolves a long algebraic move string ("e2e4", "a7a8q") against the legal moves.
func (p *Position) ParseMove(s string) (Move, error) {
	var buf [MaxMoves]Move
	for _, m := range p.LegalMoves(buf[:0]) {
		if m.String() == s {
			return m, nil
		}
	}
	return NullMove, fmt.Errorf("%w: %q in %s", ErrIllegalMove, s, p.FEN())
}

// Validate checks the position's structural invariants. It is used by tests and at
// service boundaries; Apply never calls it.
func (p *Position) Validate() error {
	if err := p.Board.Validate(); err != nil {
		return err
	}
	for _, c := range [2]Color{White, Black} {
		if n := p.Board.Pieces(c, King).PopCount(); n != 1 {
			return fmt.Errorf("feldspar: %s has %d kings", c.Name(), n)
		}
	}
	if (p.Board.Pieces(White, Pawn)|p.Board.Pieces(Black, Pawn))&(Rank1BB|Rank8BB) != 0 {
		return errors.New("feldspar: pawn on the first or last rank")
	}
	if p.EPSquare != NoSquare {
		want := Rank6
		if p.ToMove == Black {
			want = Rank3
		}
		if p.EPSquare > H8 || p.EPSquare.Rank() != want {
			return fmt.Errorf("feldspar: en passant square %s on the wrong rank", p.EPSquare)
		}
		if !p.Board.Pieces(p.ToMove.Other(), Pawn).Occupied(epCaptureSquare(p.ToMove, p.EPSquare)) {
			return fmt.Errorf("feldspar: no pawn to capture en passant on %s", p.EPSquare)
		}
	}
	us, them := p.ToMove, p.ToMove.Other()
	if p.Board.AttackersTo(p.Board.KingSquare(them), us) != 0 {
		return fmt.Errorf("feldspar: %s king is attacked with %s to move", them.Name(), us.Name())
	}
	if got := p.Board.AttackersTo(p.Board.KingSquare(us), them); got != p.KingAttackers {
		return fmt.Errorf("feldspar: king attackers cache %s, want %s", p.KingAttackers, got)
	}
	return nil
}
