package perft

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"github.com/0x5844/feldspar"
)

//go:embed suite.tsv
var suiteData []byte

const (
	suiteColumnName  = 0
	suiteColumnFEN   = 1
	suiteColumnNodes = 2 // comma-separated leaf counts for depth 1, 2, ...
	expectedColumns  = 3
)

// ErrMismatch is returned by Verify when a count differs from the reference.
var ErrMismatch = errors.New("perft: count mismatch")

// A Case is a benchmark position with its published leaf counts.
type Case struct {
	Name  string
	FEN   string
	Nodes []uint64 // Nodes[i] is the leaf count at depth i+1
}

// Position parses the case's FEN.
func (c *Case) Position() (feldspar.Position, error) {
	return feldspar.ParseFEN(c.FEN)
}

// MaxDepth returns the deepest depth with a reference count.
func (c *Case) MaxDepth() int { return len(c.Nodes) }

// LoadSuite parses the embedded reference suite.
func LoadSuite() ([]Case, error) {
	reader := csv.NewReader(bytes.NewReader(suiteData))
	reader.Comma = '\t' // TSV
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read perft suite: %w", err)
	}

	var cases []Case
	for i, row := range records {
		if i == 0 {
			continue // Skip header row
		}
		if len(row) < expectedColumns {
			log.Warn("skipping suite record with too few columns", "record", i+1, "columns", len(row))
			continue
		}
		c := Case{Name: row[suiteColumnName], FEN: row[suiteColumnFEN]}
		if _, err := c.Position(); err != nil {
			return nil, fmt.Errorf("suite case %q: %w", c.Name, err)
		}
		for _, field := range strings.Split(row[suiteColumnNodes], ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("suite case %q: node count %q: %w", c.Name, field, err)
			}
			c.Nodes = append(c.Nodes, n)
		}
		cases = append(cases, c)
	}

	if len(cases) == 0 {
		return nil, errors.New("failed to load any perft cases")
	}
	return cases, nil
}

// Verify runs c to maxDepth (capped at the deepest reference count) and compares the leaf
// count at every depth with the reference values.
func Verify(ctx context.Context, c Case, maxDepth, workers int) (Result, error) {
	pos, err := c.Position()
	if err != nil {
		return Result{}, err
	}
	if maxDepth > c.MaxDepth() {
		maxDepth = c.MaxDepth()
	}
	r, err := RunParallel(ctx, pos, maxDepth, workers)
	if err != nil {
		return r, err
	}
	for d := 1; d <= maxDepth; d++ {
		if r.Nodes[d] != c.Nodes[d-1] {
			return r, fmt.Errorf("%w: %s depth %d: got %d, want %d", ErrMismatch, c.Name, d, r.Nodes[d], c.Nodes[d-1])
		}
	}
	return r, nil
}
