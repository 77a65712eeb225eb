package datamatrix

import "strings"

// Grid is a square module matrix. Bits[row][col] is true for a dark module.
type Grid struct {
	Size int
	Bits [][]bool
}

func newGrid(size int) *Grid {
	bits := make([][]bool, size)
	cells := make([]bool, size*size)
	for r := range bits {
		bits[r], cells = cells[:size:size], cells[size:]
	}
	return &Grid{Size: size, Bits: bits}
}

// Dark reports whether the module at row, col is dark.
func (g *Grid) Dark(row, col int) bool {
	return g.Bits[row][col]
}

// Equal reports whether two grids are bit-identical.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil || g.Size != o.Size {
		return g == o
	}
	for r := range g.Bits {
		for c := range g.Bits[r] {
			if g.Bits[r][c] != o.Bits[r][c] {
				return false
			}
		}
	}
	return true
}

// String renders the grid with '#' for dark and '.' for light modules.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.Size * (g.Size + 1))
	for _, row := range g.Bits {
		for _, dark := range row {
			if dark {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
