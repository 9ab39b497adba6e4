package perft

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

var reportHeader = []string{
	"DEPTH",
	"NODES",
	"CAPTURES",
	"EP CAPTURES",
	"CASTLES",
	"PROMOTIONS",
	"CHECKS",
	"CHECK-MATES",
}

// Rows returns the report rows, one per ply below the root with a nonzero node count.
func (r *Result) Rows() [][]string {
	var rows [][]string
	for i := 1; i < MaxDepth; i++ {
		if r.Nodes[i] == 0 {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.FormatUint(r.Nodes[i], 10),
			strconv.FormatUint(r.Captures[i], 10),
			strconv.FormatUint(r.EPCaptures[i], 10),
			strconv.FormatUint(r.Castles[i], 10),
			strconv.FormatUint(r.Promotions[i], 10),
			strconv.FormatUint(r.Checks[i], 10),
			strconv.FormatUint(r.Checkmates[i], 10),
		})
	}
	return rows
}

// WriteTable renders r as a table with one row per ply.
func WriteTable(w io.Writer, r *Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(reportHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk(r.Rows())
	table.Render()
}

// WriteDivide prints one "move: count" line per root move in lexical order, then the total.
func WriteDivide(w io.Writer, div map[string]uint64) error {
	var total uint64
	for _, m := range SortedMoves(div) {
		total += div[m]
		if _, err := fmt.Fprintf(w, "%s: %d\n", m, div[m]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nNodes searched: %d\n", total)
	return err
}
