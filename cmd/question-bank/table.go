package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// table prints left-aligned columns measured in terminal cells, so option
// text with wide or combining runes lines up.
type table struct {
	header []string
	limits []int // per-column cell limit; 0 means unlimited
	rows   [][]string
}

// add appends a row; it must have as many cells as the header.
func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	all := append([][]string{t.header}, t.rows...)

	widths := make([]int, len(t.header))
	for _, row := range all {
		for c := range row {
			if c < len(t.limits) && t.limits[c] > 0 {
				row[c] = runewidth.Truncate(row[c], t.limits[c], "...")
			}
			widths[c] = max(widths[c], runewidth.StringWidth(row[c]))
		}
	}

	for _, row := range all {
		cells := make([]string, len(row))
		for c, cell := range row {
			cells[c] = runewidth.FillRight(cell, widths[c])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
