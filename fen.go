package feldspar

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFEN builds a Position from a six-field FEN string. It either returns a fully valid
// Position or an error wrapping ErrInvalidFEN; no partial Position escapes.
//
// Only the canonical form is accepted: single spaces between fields, castling letters in
// KQkq order, no adjacent empty-run digits and no leading zeros in the counters. Every
// accepted string is therefore reproduced exactly by FEN. The half-move clock may not
// exceed FiftyMoveLimit.
func ParseFEN(fen string) (Position, error) {
	fields := strings.Split(fen, " ")
	if len(fields) != 6 {
		return Position{}, fmt.Errorf("%w: want 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	var pos Position
	if err := parsePlacement(&pos.Board, fields[0]); err != nil {
		return Position{}, err
	}

	switch fields[1] {
	case "w":
		pos.ToMove = White
	case "b":
		pos.ToMove = Black
	default:
		return Position{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	cr, err := parseCastling(fields[2])
	if err != nil {
		return Position{}, err
	}
	pos.Castling = cr

	pos.EPSquare = NoSquare
	if fields[3] != "-" {
		sq, ok := ParseSquare(fields[3])
		if !ok {
			return Position{}, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, fields[3])
		}
		pos.EPSquare = sq
	}

	fifty, err := parseCounter(fields[4], 8)
	if err != nil {
		return Position{}, fmt.Errorf("%w: half-move clock: %w", ErrInvalidFEN, err)
	}
	if fifty > FiftyMoveLimit {
		return Position{}, fmt.Errorf("%w: half-move clock %d exceeds %d", ErrInvalidFEN, fifty, FiftyMoveLimit)
	}
	pos.FiftyMoveCount = uint8(fifty)

	moves, err := parseCounter(fields[5], 16)
	if err != nil {
		return Position{}, fmt.Errorf("%w: full-move number: %w", ErrInvalidFEN, err)
	}
	pos.MovesPlayed = uint16(moves)

	if ksq := pos.Board.KingSquare(pos.ToMove); ksq != NoSquare {
		pos.KingAttackers = pos.Board.AttackersTo(ksq, pos.ToMove.Other())
	}
	if err := pos.Validate(); err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	pos.Score = pos.RecomputeScore()
	if pos.FiftyMoveCount >= FiftyMoveLimit {
		pos.Score = 0
		pos.Outcome = Draw
	}
	return pos, nil
}

// parseCounter parses a decimal counter written without sign or leading zeros.
func parseCounter(s string, bitSize int) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, err
	}
	if strconv.FormatUint(n, 10) != s {
		return 0, fmt.Errorf("non-canonical number %q", s)
	}
	return n, nil
}

func parsePlacement(b *Board, s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != NumRanks {
		return fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		r := Rank8 - Rank(i)
		f := FileA
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				if j > 0 && row[j-1] >= '1' && row[j-1] <= '8' {
					return fmt.Errorf("%w: adjacent empty counts in rank %s", ErrInvalidFEN, r)
				}
				f += File(ch - '0')
				if f > FileH+1 {
					return fmt.Errorf("%w: rank %s overflows", ErrInvalidFEN, r)
				}
				continue
			}
			p, ok := pieceFromFEN(ch)
			if !ok {
				return fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if f > FileH {
				return fmt.Errorf("%w: rank %s overflows", ErrInvalidFEN, r)
			}
			b.SetPiece(p.Color, p.Type, NewSquare(f, r))
			f++
		}
		if f != FileH+1 {
			return fmt.Errorf("%w: rank %s has %d files", ErrInvalidFEN, r, f)
		}
	}
	return nil
}

func parseCastling(s string) (CastlingRights, error) {
	if s == "-" {
		return NoCastling, nil
	}
	var cr CastlingRights
	for i := 0; i < len(s); i++ {
		var r CastlingRights
		switch s[i] {
		case 'K':
			r = WhiteKingside
		case 'Q':
			r = WhiteQueenside
		case 'k':
			r = BlackKingside
		case 'q':
			r = BlackQueenside
		default:
			return NoCastling, fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, s)
		}
		if cr.Has(r) {
			return NoCastling, fmt.Errorf("%w: repeated castling right in %q", ErrInvalidFEN, s)
		}
		cr = cr.Union(r)
	}
	if cr.String() != s {
		return NoCastling, fmt.Errorf("%w: castling rights %q not in KQkq order", ErrInvalidFEN, s)
	}
	return cr, nil
}

// FEN serializes the position; it is the exact inverse of ParseFEN.
func (p *Position) FEN() string {
	var sb strings.Builder
	sb.WriteString(p.Board.String())
	sb.WriteByte(' ')
	sb.WriteString(p.ToMove.String())
	sb.WriteByte(' ')
	sb.WriteString(p.Castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EPSquare.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(p.FiftyMoveCount)))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(p.MovesPlayed)))
	return sb.String()
}

func (p *Position) String() string { return p.FEN() }
