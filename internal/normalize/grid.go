package normalize

import (
	"fmt"
	"sort"

	"github.com/zombor/invoice-extractor/internal/analysis"
)

// Row maps a column label to the cell text. Absent cells have no entry.
type Row map[string]string

// Grid is a row-major table with labelled columns. Columns lists every label
// used by the rows in first-appearance order.
type Grid struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnLabel returns the synthesized label of a column index
func ColumnLabel(index int) string {
	return fmt.Sprintf("Column %d", index)
}

// columnIndex returns the index of a synthesized column label
func columnIndex(label string) (int, bool) {
	var index int
	if _, err := fmt.Sscanf(label, "Column %d", &index); err != nil || ColumnLabel(index) != label {
		return 0, false
	}
	return index, true
}

// labelLess orders synthesized labels by column index, ahead of any other
// label, and other labels alphabetically
func labelLess(a, b string) bool {
	ai, aok := columnIndex(a)
	bi, bok := columnIndex(b)
	switch {
	case aok && bok:
		return ai < bi
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

// Empty reports whether the grid has no rows
func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// ExtractTable builds the grid of one detected table. Rows are indexed by
// row index and grown as needed so sparse or unordered cells are tolerated.
// A repeated row/column pair keeps the last content. Cells with a negative
// index are skipped.
func ExtractTable(table analysis.Table) Grid {
	var grid Grid
	seen := make(map[string]bool)

	for _, cell := range table.Cells {
		if cell.RowIndex < 0 || cell.ColumnIndex < 0 {
			continue
		}
		for len(grid.Rows) <= cell.RowIndex {
			grid.Rows = append(grid.Rows, Row{})
		}
		label := ColumnLabel(cell.ColumnIndex)
		grid.Rows[cell.RowIndex][label] = cell.Content
		if !seen[label] {
			seen[label] = true
			grid.Columns = append(grid.Columns, label)
		}
	}
	return grid
}

// ExtractTables builds one grid per table, drops the tables without rows and
// stacks the rest in table order.
func ExtractTables(tables []analysis.Table) Grid {
	grids := make([]Grid, 0, len(tables))
	for _, table := range tables {
		grid := ExtractTable(table)
		if grid.Empty() {
			continue
		}
		grids = append(grids, grid)
	}
	return Concat(grids...)
}

// Concat stacks grids vertically. Columns with the same label fall into the
// same output column, rows keep their order and nothing is padded.
func Concat(grids ...Grid) Grid {
	out := Grid{Columns: []string{}, Rows: []Row{}}
	seen := make(map[string]bool)
	for _, grid := range grids {
		for _, label := range grid.Columns {
			if !seen[label] {
				seen[label] = true
				out.Columns = append(out.Columns, label)
			}
		}
		for _, row := range grid.Rows {
			// Rows are copied so edits to the result never reach the inputs
			copied := make(Row, len(row))
			var extra []string
			for label, value := range row {
				copied[label] = value
				if !seen[label] {
					seen[label] = true
					extra = append(extra, label)
				}
			}
			sort.Slice(extra, func(i, j int) bool {
				return labelLess(extra[i], extra[j])
			})
			out.Columns = append(out.Columns, extra...)
			out.Rows = append(out.Rows, copied)
		}
	}
	return out
}
