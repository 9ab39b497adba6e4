package feldspar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFEN is returned, wrapped with detail, for any malformed position description.
	ErrInvalidFEN = errors.New("feldspar: invalid FEN")
	// ErrIllegalMove is returned when a move string names no legal move in the position.
	ErrIllegalMove = errors.New("feldspar: illegal move")
)

// An InvariantError reports an internal consistency failure: the generator or the state
// machine produced something the rules forbid. It is raised with panic and is never an
// ordinary input error.
type InvariantError struct {
	Op     string // operation that detected the failure
	Move   Move   // move being processed, NullMove if none
	FEN    string // position at the time of failure, when known
	Detail string
}

func (e *InvariantError) Error() string {
	msg := "feldspar: invariant violated in " + e.Op + ": " + e.Detail
	if e.Move != NullMove {
		msg += " (move " + e.Move.String() + ")"
	}
	if e.FEN != "" {
		msg += " [" + e.FEN + "]"
	}
	return msg
}

// invariant panics with an *InvariantError describing p.
func (p *Position) invariant(op string, m Move, format string, args ...any) {
	panic(&InvariantError{
		Op:     op,
		Move:   m,
		FEN:    p.Board.String(),
		Detail: fmt.Sprintf(format, args...),
	})
}

// AsInvariantError reports whether a recovered panic value is an *InvariantError.
func AsInvariantError(v any) (*InvariantError, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
