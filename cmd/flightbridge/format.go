package main

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
)

// formatValue renders one position of a block; nulls print as NULL
func formatValue(block columnar.Block, position int) string {
	if block.IsNull(position) {
		return "NULL"
	}
	switch b := block.(type) {
	case *columnar.LongBlock:
		return strconv.FormatInt(b.Value(position), 10)
	case *columnar.IntBlock:
		return strconv.FormatInt(int64(b.Value(position)), 10)
	case *columnar.ShortBlock:
		return strconv.FormatInt(int64(b.Value(position)), 10)
	case *columnar.ByteBlock:
		return strconv.FormatInt(int64(b.Value(position)), 10)
	}
	return "?"
}

// formatRows renders up to limit rows of page as tab separated lines. A negative
// limit means all rows.
func formatRows(page *columnar.Page, limit int) []string {
	n := page.PositionCount()
	if limit >= 0 && limit < n {
		n = limit
	}
	lines := make([]string, n)
	values := make([]string, page.ChannelCount())
	for row := 0; row < n; row++ {
		for c := range values {
			values[c] = formatValue(page.Block(c), row)
		}
		lines[row] = strings.Join(values, "\t")
	}
	return lines
}
