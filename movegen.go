package feldspar

// MaxMoves bounds the number of legal moves in any reachable position.
const MaxMoves = 256

// LegalMoves appends every legal move for the side to move to buf and returns the result.
// The order is deterministic for a given position but carries no meaning.
func (p *Position) LegalMoves(buf []Move) []Move {
	return p.generate(buf, false)
}

// Captures appends the legal capturing moves (including en passant and promotion captures).
func (p *Position) Captures(buf []Move) []Move {
	return p.generate(buf, true)
}

// HasLegalMove reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMove() bool {
	var buf [MaxMoves]Move
	return len(p.LegalMoves(buf[:0])) > 0
}

func (p *Position) generate(moves []Move, capturesOnly bool) []Move {
	b := &p.Board
	us, them := p.ToMove, p.ToMove.Other()
	own, enemy := b.Occupied(us), b.Occupied(them)
	occ := own | enemy
	ksq := b.KingSquare(us)
	if ksq == NoSquare {
		p.invariant("generate", NullMove, "no %s king", us.Name())
	}

	targets := ^own
	if capturesOnly {
		targets = enemy
	}

	// King steps are checked against the occupancy without the king, so it cannot
	// hide behind itself from a slider.
	occNoKing := occ &^ SquareBB(ksq)
	for bb := kingAttacks[ksq] & targets; bb != 0; {
		var to Square
		to, bb, _ = bb.PopLSB()
		if b.attackersWith(to, them, occNoKing, EmptyBB) == 0 {
			moves = append(moves, NewMove(ksq, to, captureFlag(enemy, to)))
		}
	}

	checkers := p.KingAttackers
	if checkers.PopCount() > 1 {
		return moves
	}

	// Destinations that resolve a single check: capture the checker or block its line.
	evasion := FullBB
	if checkers != 0 {
		csq, _ := checkers.LSB()
		evasion = checkers | Between(ksq, csq)
	}

	var pinLine [NumSquares]Bitboard
	pinned := p.pinned(ksq, us, &pinLine)
	allowed := func(from Square) Bitboard {
		if pinned.Occupied(from) {
			return pinLine[from]
		}
		return FullBB
	}

	for bb := b.Pieces(us, Knight) &^ pinned; bb != 0; {
		var from Square
		from, bb, _ = bb.PopLSB()
		moves = appendTargets(moves, from, knightAttacks[from]&targets&evasion, enemy)
	}
	for bb := b.Pieces(us, Bishop) | b.Pieces(us, Queen); bb != 0; {
		var from Square
		from, bb, _ = bb.PopLSB()
		moves = appendTargets(moves, from, BishopAttacks(from, occ)&targets&evasion&allowed(from), enemy)
	}
	for bb := b.Pieces(us, Rook) | b.Pieces(us, Queen); bb != 0; {
		var from Square
		from, bb, _ = bb.PopLSB()
		moves = appendTargets(moves, from, RookAttacks(from, occ)&targets&evasion&allowed(from), enemy)
	}

	moves = p.pawnMoves(moves, capturesOnly, evasion, allowed)

	if checkers == 0 && !capturesOnly {
		moves = p.castlingMoves(moves, ksq)
	}
	return moves
}

// pinned returns the pieces of color us pinned to the king on ksq, storing for each the
// squares it may still move to (the line between king and pinner, pinner included).
func (p *Position) pinned(ksq Square, us Color, pinLine *[NumSquares]Bitboard) Bitboard {
	b := &p.Board
	them := us.Other()
	enemy := b.Occupied(them)
	own := b.Occupied(us)
	queens := b.Pieces(them, Queen)
	snipers := RookAttacks(ksq, enemy)&(b.Pieces(them, Rook)|queens) |
		BishopAttacks(ksq, enemy)&(b.Pieces(them, Bishop)|queens)

	var pinned Bitboard
	for snipers != 0 {
		var s Square
		s, snipers, _ = snipers.PopLSB()
		between := Between(ksq, s)
		blockers := between & (own | enemy)
		if blockers.PopCount() == 1 && blockers&own != 0 {
			sq, _ := blockers.LSB()
			pinned |= blockers
			pinLine[sq] = between | SquareBB(s)
		}
	}
	return pinned
}

func (p *Position) pawnMoves(moves []Move, capturesOnly bool, evasion Bitboard, allowed func(Square) Bitboard) []Move {
	b := &p.Board
	us, them := p.ToMove, p.ToMove.Other()
	enemy := b.Occupied(them)
	empty := ^b.All()

	promoRank, startRank := Rank8BB, Rank2BB
	if us == Black {
		promoRank, startRank = Rank1BB, Rank7BB
	}

	for bb := b.Pieces(us, Pawn); bb != 0; {
		var from Square
		from, bb, _ = bb.PopLSB()
		fromBB := SquareBB(from)
		legal := evasion & allowed(from)

		if !capturesOnly {
			single := fromBB.Forward(us) & empty
			if single&legal != 0 {
				to, _ := single.LSB()
				if single&promoRank != 0 {
					moves = appendPromotions(moves, from, to, false)
				} else {
					moves = append(moves, NewMove(from, to, Quiet))
				}
			}
			if fromBB&startRank != 0 && single != 0 {
				if double := single.Forward(us) & empty & legal; double != 0 {
					to, _ := double.LSB()
					moves = append(moves, NewMove(from, to, DoublePawnPush))
				}
			}
		}

		for caps := pawnAttacks[us][from] & enemy & legal; caps != 0; {
			var to Square
			to, caps, _ = caps.PopLSB()
			if SquareBB(to)&promoRank != 0 {
				moves = appendPromotions(moves, from, to, true)
			} else {
				moves = append(moves, NewMove(from, to, Capture))
			}
		}

		if p.EPSquare != NoSquare && pawnAttacks[us][from].Occupied(p.EPSquare) && p.enPassantIsSafe(from) {
			moves = append(moves, NewMove(from, p.EPSquare, EPCapture))
		}
	}
	return moves
}

// enPassantIsSafe replays the capture on the occupancy and asks whether the king is
// attacked afterwards. Two pawns leave the capturer's rank at once, so ordinary pin
// detection misses the horizontal case.
func (p *Position) enPassantIsSafe(from Square) bool {
	b := &p.Board
	us, them := p.ToMove, p.ToMove.Other()
	capSq := epCaptureSquare(us, p.EPSquare)
	capBB := SquareBB(capSq)
	occ := (b.All() &^ SquareBB(from) &^ capBB) | SquareBB(p.EPSquare)
	return b.attackersWith(b.KingSquare(us), them, occ, capBB) == 0
}

func (p *Position) castlingMoves(moves []Move, ksq Square) []Move {
	b := &p.Board
	us, them := p.ToMove, p.ToMove.Other()
	occ := b.All()
	rooks := b.Pieces(us, Rook)

	home, kingTo, queenTo, rookK, rookQ := E1, G1, C1, H1, A1
	if us == Black {
		home, kingTo, queenTo, rookK, rookQ = E8, G8, C8, H8, A8
	}
	if ksq != home {
		return moves
	}
	safe := func(sqs ...Square) bool {
		for _, sq := range sqs {
			if b.attackersWith(sq, them, occ, EmptyBB) != 0 {
				return false
			}
		}
		return true
	}

	if p.Castling.Has(kingsideRight(us)) && rooks.Occupied(rookK) &&
		Between(home, rookK)&occ == 0 && safe(home+1, kingTo) {
		moves = append(moves, NewMove(home, kingTo, KingCastle))
	}
	// The b-file square must be empty but may be attacked; the king never crosses it.
	if p.Castling.Has(queensideRight(us)) && rooks.Occupied(rookQ) &&
		Between(home, rookQ)&occ == 0 && safe(home-1, queenTo) {
		moves = append(moves, NewMove(home, queenTo, QueenCastle))
	}
	return moves
}

func captureFlag(enemy Bitboard, to Square) MoveFlag {
	if enemy.Occupied(to) {
		return Capture
	}
	return Quiet
}

func appendTargets(moves []Move, from Square, targets, enemy Bitboard) []Move {
	for targets != 0 {
		var to Square
		to, targets, _ = targets.PopLSB()
		moves = append(moves, NewMove(from, to, captureFlag(enemy, to)))
	}
	return moves
}

// appendPromotions adds the four promotions, queen first.
func appendPromotions(moves []Move, from, to Square, capture bool) []Move {
	for _, pt := range [...]PieceType{Queen, Rook, Bishop, Knight} {
		moves = append(moves, NewMove(from, to, promotionFlag(pt, capture)))
	}
	return moves
}
