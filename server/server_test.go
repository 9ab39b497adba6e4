package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AccessLog = nil
	cfg.Workers = 2
	ts := httptest.NewServer(New(cfg, "test").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func postSearch(t *testing.T, ts *httptest.Server, req SearchRequest, wantStatus int, v any) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/api/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("search: expected status %d, got %d", wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	var resp HealthResponse
	getJSON(t, ts.URL+"/api/health", http.StatusOK, &resp)
	if resp.Status != "ok" || resp.Version != "test" || resp.Pool.Max != DefaultConfig().MaxJobs {
		t.Fatalf("unexpected health response %+v", resp)
	}
}

func TestSearchFindsMate(t *testing.T) {
	ts := testServer(t)
	var resp SearchResponse
	postSearch(t, ts, SearchRequest{
		PositionRequest: PositionRequest{FEN: "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"},
		Depth:           2,
	}, http.StatusOK, &resp)
	if resp.Move != "a1a8" || !resp.Complete {
		t.Fatalf("expected a complete search choosing a1a8, got %+v", resp)
	}
}

func TestSearchAppliesMoves(t *testing.T) {
	ts := testServer(t)
	var resp SearchResponse
	postSearch(t, ts, SearchRequest{
		PositionRequest: PositionRequest{Moves: []string{"e2e4"}},
		Depth:           1,
	}, http.StatusOK, &resp)
	if !strings.Contains(resp.FEN, " b KQkq e3 0 1") {
		t.Fatalf("expected the search to start after e2e4, got %s", resp.FEN)
	}
}

func TestSearchErrors(t *testing.T) {
	ts := testServer(t)
	tests := []struct {
		name   string
		req    SearchRequest
		status int
		code   string
	}{
		{"zero depth", SearchRequest{Depth: 0}, http.StatusBadRequest, "INVALID_DEPTH"},
		{"too deep", SearchRequest{Depth: 99}, http.StatusBadRequest, "INVALID_DEPTH"},
		{"bad fen", SearchRequest{PositionRequest: PositionRequest{FEN: "junk"}, Depth: 1}, http.StatusBadRequest, "INVALID_POSITION"},
		{"illegal move", SearchRequest{PositionRequest: PositionRequest{Moves: []string{"e2e5"}}, Depth: 1}, http.StatusBadRequest, "INVALID_POSITION"},
		{"stalemate", SearchRequest{PositionRequest: PositionRequest{FEN: "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}, Depth: 1}, http.StatusUnprocessableEntity, "NO_MOVES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			postSearch(t, ts, tt.req, tt.status, &resp)
			if resp.Code != tt.code {
				t.Fatalf("expected code %s, got %+v", tt.code, resp)
			}
		})
	}
}

func TestPerft(t *testing.T) {
	ts := testServer(t)
	var resp PerftResponse
	getJSON(t, ts.URL+"/api/perft?depth=3", http.StatusOK, &resp)
	if len(resp.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(resp.Rows))
	}
	last := resp.Rows[2]
	if last.Nodes != 8902 || last.Captures != 34 || last.Checks != 12 {
		t.Fatalf("unexpected depth 3 row %+v", last)
	}
	if resp.Total != 20+400+8902 {
		t.Fatalf("unexpected total %d", resp.Total)
	}

	var bad ErrorResponse
	getJSON(t, ts.URL+"/api/perft?depth=40", http.StatusBadRequest, &bad)
	getJSON(t, ts.URL+"/api/perft?depth=x", http.StatusBadRequest, &bad)
}

func TestDivide(t *testing.T) {
	ts := testServer(t)
	var resp DivideResponse
	getJSON(t, ts.URL+"/api/divide?depth=2&move=e2e4", http.StatusOK, &resp)
	if len(resp.Moves) != 20 || resp.Total != 600 {
		t.Fatalf("expected 20 replies totalling 600, got %d totalling %d", len(resp.Moves), resp.Total)
	}
}

func TestNotFound(t *testing.T) {
	ts := testServer(t)
	var resp ErrorResponse
	getJSON(t, ts.URL+"/api/nope", http.StatusNotFound, &resp)
	if resp.Code != "NOT_FOUND" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestStream(t *testing.T) {
	ts := testServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(StreamRequest{Depth: 3}); err != nil {
		t.Fatal(err)
	}
	want := []uint64{20, 400, 8902}
	for i, n := range want {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.Row == nil || msg.Row.Depth != i+1 || msg.Row.Nodes != n {
			t.Fatalf("message %d: unexpected %+v", i, msg)
		}
	}
	var done StreamMessage
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatal(err)
	}
	if !done.Done {
		t.Fatalf("expected the done marker, got %+v", done)
	}

	if err := conn.WriteJSON(StreamRequest{Depth: 0}); err != nil {
		t.Fatal(err)
	}
	var bad StreamMessage
	if err := conn.ReadJSON(&bad); err != nil {
		t.Fatal(err)
	}
	if bad.Error == "" {
		t.Fatalf("expected an error message, got %+v", bad)
	}
}

func TestPool(t *testing.T) {
	p := NewPool(1)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.TryAcquire() {
		t.Fatal("expected the pool to be full")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Fatal("expected Acquire to give up when the context expires")
	}
	p.Release()
	if !p.TryAcquire() {
		t.Fatal("expected a free slot after Release")
	}
	p.Release()
	if s := p.Stats(); s.Active != 0 || s.Total != 2 || s.Max != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.AccessLog = nil
	s := New(cfg, "test")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	var resp HealthResponse
	deadline := time.Now().Add(2 * time.Second)
	for {
		r, err := http.Get(url)
		if err == nil {
			derr := json.NewDecoder(r.Body).Decode(&resp)
			r.Body.Close()
			if derr != nil {
				t.Fatal(derr)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if resp.Status != "ok" {
		t.Fatalf("unexpected health %+v", resp)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
