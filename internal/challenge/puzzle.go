// Package challenge holds the fixed logic puzzle that gates urgent tickets.
package challenge

import (
	"fmt"
	"strconv"
)

// Size is the edge length of the puzzle grid.
const Size = 4

// Grid is a square of digits; 0 marks an empty cell.
type Grid [Size][Size]int

// Puzzle pairs the givens shown to the user with the one accepted solution.
type Puzzle struct {
	Givens   Grid
	Solution Grid
}

// Default is the shared, read-only puzzle instance.
//
// Only Solution is accepted; Verify never considers another completion.
var Default = Puzzle{
	Givens: Grid{
		{1, 0, 0, 4},
		{0, 4, 1, 0},
		{2, 0, 0, 1},
		{0, 1, 2, 0},
	},
	Solution: Grid{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 3, 4, 1},
		{4, 1, 2, 3},
	},
}

// Check reports whether submitted equals expected cell for cell.
func Check(submitted, expected Grid) bool {
	return submitted == expected
}

// Verify checks submitted against the puzzle's canonical solution.
func (p Puzzle) Verify(submitted Grid) bool {
	return Check(submitted, p.Solution)
}

// CellField names the form field that carries cell (row, col).
func CellField(row, col int) string {
	return fmt.Sprintf("cell_%d_%d", row, col)
}

// ParseGrid builds a grid from named form values. Missing, non-numeric or
// out of range cells become 0.
func ParseGrid(value func(name string) string) Grid {
	var g Grid
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			g[i][j] = parseCell(value(CellField(i, j)))
		}
	}
	return g
}

func parseCell(raw string) int {
	if raw == "" {
		return 0
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n > 9 {
		return 0
	}
	return n
}

// Rows returns the grid as nested slices for rendering.
func (g Grid) Rows() [][]int {
	rows := make([][]int, Size)
	for i := range g {
		rows[i] = append([]int(nil), g[i][:]...)
	}
	return rows
}
