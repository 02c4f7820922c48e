package ingest

import (
	"strings"

	"github.com/tealeg/xlsx/v2"
)

// buildGrid flattens a sheet into a dense string grid trimmed to the bounds of
// the cells that actually hold data.
//
// Har HaBituach exports declare an unreliable sheet range, so the working
// range is recomputed by scanning every populated cell instead of trusting
// the file's own metadata. Without this, trailing data rows silently go
// missing.
func buildGrid(sheet *xlsx.Sheet) [][]string {
	minRow, minCol := -1, -1
	maxRow, maxCol := -1, -1

	for r, row := range sheet.Rows {
		if row == nil {
			continue
		}
		for c, cell := range row.Cells {
			if cell == nil || strings.TrimSpace(cell.String()) == "" {
				continue
			}
			if minRow < 0 || r < minRow {
				minRow = r
			}
			if minCol < 0 || c < minCol {
				minCol = c
			}
			if r > maxRow {
				maxRow = r
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}

	if maxRow < 0 {
		return nil
	}

	grid := make([][]string, 0, maxRow-minRow+1)
	for r := minRow; r <= maxRow; r++ {
		cells := make([]string, maxCol-minCol+1)
		if r < len(sheet.Rows) && sheet.Rows[r] != nil {
			row := sheet.Rows[r]
			for c := minCol; c <= maxCol; c++ {
				if c < len(row.Cells) && row.Cells[c] != nil {
					cells[c-minCol] = row.Cells[c].String()
				}
			}
		}
		grid = append(grid, cells)
	}
	return grid
}
