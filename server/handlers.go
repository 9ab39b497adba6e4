package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/0x5844/feldspar"
	"github.com/0x5844/feldspar/perft"
	"github.com/0x5844/feldspar/search"
)

// PositionRequest names a position as a FEN (the starting position when empty) followed
// by moves in coordinate notation.
type PositionRequest struct {
	FEN   string   `json:"fen,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

// Position parses the request into a position.
func (pr *PositionRequest) Position() (feldspar.Position, error) {
	pos := feldspar.StartingPosition()
	if pr.FEN != "" {
		var err error
		if pos, err = feldspar.ParseFEN(pr.FEN); err != nil {
			return pos, err
		}
	}
	for _, s := range pr.Moves {
		m, err := pos.ParseMove(s)
		if err != nil {
			return pos, err
		}
		pos.Apply(m)
	}
	return pos, nil
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	PositionRequest
	Depth      int `json:"depth"`
	Quiescence int `json:"quiescence,omitempty"`
}

// SearchResponse reports the chosen move. Score is from the side to move's point of view.
type SearchResponse struct {
	FEN      string `json:"fen"`
	Move     string `json:"move"`
	Score    int32  `json:"score"`
	Nodes    uint64 `json:"nodes"`
	Depth    int    `json:"depth"`
	Complete bool   `json:"complete"`
}

// PerftRow is one ply of a perft report.
type PerftRow struct {
	Depth      int    `json:"depth"`
	Nodes      uint64 `json:"nodes"`
	Captures   uint64 `json:"captures"`
	EPCaptures uint64 `json:"ep_captures"`
	Castles    uint64 `json:"castles"`
	Promotions uint64 `json:"promotions"`
	Checks     uint64 `json:"checks"`
	Checkmates uint64 `json:"checkmates"`
}

// PerftResponse is the body returned by GET /api/perft.
type PerftResponse struct {
	FEN   string     `json:"fen"`
	Depth int        `json:"depth"`
	Total uint64     `json:"total"`
	Rows  []PerftRow `json:"rows"`
}

// DivideResponse is the body returned by GET /api/divide.
type DivideResponse struct {
	FEN   string            `json:"fen"`
	Depth int               `json:"depth"`
	Total uint64            `json:"total"`
	Moves map[string]uint64 `json:"moves"`
}

// HealthResponse is the body returned by GET /api/health.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Pool    PoolStats `json:"pool"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StreamRequest is a websocket message asking for perft counts up to Depth.
type StreamRequest struct {
	PositionRequest
	Depth int `json:"depth"`
}

// StreamMessage is sent once per completed depth, then once with Done set.
type StreamMessage struct {
	Row   *PerftRow `json:"row,omitempty"`
	Done  bool      `json:"done,omitempty"`
	Error string    `json:"error,omitempty"`
}

func rowAt(r *perft.Result, d int) PerftRow {
	return PerftRow{
		Depth:      d,
		Nodes:      r.Nodes[d],
		Captures:   r.Captures[d],
		EPCaptures: r.EPCaptures[d],
		Castles:    r.Castles[d],
		Promotions: r.Promotions[d],
		Checks:     r.Checks[d],
		Checkmates: r.Checkmates[d],
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// guard turns an invariant panic inside fn into a 500 reply and leaves other panics to the
// recovery middleware.
func guard(w http.ResponseWriter, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := feldspar.AsInvariantError(r)
			if !ok {
				panic(r)
			}
			log.Error("request aborted", "error", ie)
			writeError(w, http.StatusInternalServerError, ie.Error(), "INVARIANT")
		}
	}()
	fn()
}

func (s *Server) depthParam(r *http.Request, max int) (int, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return 1, nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid depth %q", raw)
	}
	if d < 1 || d > max {
		return 0, fmt.Errorf("depth %d out of range [1, %d]", d, max)
	}
	return d, nil
}

func queryPosition(r *http.Request) (feldspar.Position, error) {
	q := r.URL.Query()
	pr := PositionRequest{FEN: q.Get("fen"), Moves: q["move"]}
	return pr.Position()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version, Pool: s.pool.Stats()})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "INVALID_JSON")
		return
	}
	if req.Depth < 1 || req.Depth > s.config.MaxSearchDepth {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("depth %d out of range [1, %d]", req.Depth, s.config.MaxSearchDepth), "INVALID_DEPTH")
		return
	}
	pos, err := req.Position()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return
	}
	if err := s.pool.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "BUSY")
		return
	}
	defer s.pool.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.config.SearchTimeout)
	defer cancel()

	guard(w, func() {
		res, err := search.SearchParallel(ctx, pos, req.Depth, s.config.Workers,
			search.WithCaptureOrdering(true), search.WithQuiescence(req.Quiescence))
		switch {
		case errors.Is(err, search.ErrNoLegalMoves):
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("no legal moves (%s)", pos.Outcome), "NO_MOVES")
			return
		case err != nil && res.Move == feldspar.NullMove:
			writeError(w, http.StatusServiceUnavailable, err.Error(), "TIMEOUT")
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{
			FEN:      pos.FEN(),
			Move:     res.Move.String(),
			Score:    int32(res.Score),
			Nodes:    res.Nodes,
			Depth:    res.Depth,
			Complete: err == nil,
		})
	})
}

func (s *Server) perft(w http.ResponseWriter, r *http.Request) {
	depth, err := s.depthParam(r, s.config.MaxPerftDepth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_DEPTH")
		return
	}
	pos, err := queryPosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return
	}
	if err := s.pool.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "BUSY")
		return
	}
	defer s.pool.Release()

	guard(w, func() {
		res, err := perft.RunParallel(r.Context(), pos, depth, s.config.Workers)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error(), "CANCELLED")
			return
		}
		resp := PerftResponse{FEN: pos.FEN(), Depth: depth, Total: res.Total()}
		for d := 1; d <= depth; d++ {
			resp.Rows = append(resp.Rows, rowAt(&res, d))
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) divide(w http.ResponseWriter, r *http.Request) {
	depth, err := s.depthParam(r, s.config.MaxPerftDepth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_DEPTH")
		return
	}
	pos, err := queryPosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return
	}
	if err := s.pool.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "BUSY")
		return
	}
	defer s.pool.Release()

	guard(w, func() {
		div, err := perft.Divide(pos, depth)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_DEPTH")
			return
		}
		resp := DivideResponse{FEN: pos.FEN(), Depth: depth, Moves: div}
		for _, n := range div {
			resp.Total += n
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// stream serves a websocket on which each request message is answered with one perft row
// per depth as soon as that depth completes.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	log.Info("websocket connected", "remote", conn.RemoteAddr().String())

	for {
		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		if err := s.streamPerft(r.Context(), conn, &req); err != nil {
			log.Warn("websocket write", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
}

func (s *Server) streamPerft(ctx context.Context, conn *websocket.Conn, req *StreamRequest) (err error) {
	if req.Depth < 1 || req.Depth > s.config.MaxPerftDepth {
		return conn.WriteJSON(StreamMessage{Error: fmt.Sprintf("depth %d out of range [1, %d]", req.Depth, s.config.MaxPerftDepth)})
	}
	pos, perr := req.Position()
	if perr != nil {
		return conn.WriteJSON(StreamMessage{Error: perr.Error()})
	}
	if err := s.pool.Acquire(ctx); err != nil {
		return conn.WriteJSON(StreamMessage{Error: "server busy"})
	}
	defer s.pool.Release()

	defer func() {
		if r := recover(); r != nil {
			ie, ok := feldspar.AsInvariantError(r)
			if !ok {
				panic(r)
			}
			log.Error("stream aborted", "error", ie)
			err = conn.WriteJSON(StreamMessage{Error: ie.Error()})
		}
	}()

	for d := 1; d <= req.Depth; d++ {
		res, rerr := perft.RunParallel(ctx, pos, d, s.config.Workers)
		if rerr != nil {
			return conn.WriteJSON(StreamMessage{Error: rerr.Error()})
		}
		row := rowAt(&res, d)
		if err := conn.WriteJSON(StreamMessage{Row: &row}); err != nil {
			return err
		}
	}
	return conn.WriteJSON(StreamMessage{Done: true})
}
