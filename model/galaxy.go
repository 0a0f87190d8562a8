package model

import "math"

// SectorType classifies a coarse galaxy zone.
type SectorType byte

const (
	Frontier SectorType = iota // open space
	Nebula                     // one extra step to reach
	Void                       // cannot be reached at all
)

// Unreachable is the distance to a Void sector. It exceeds any attack range.
const Unreachable = math.MaxInt32

// Coord addresses one zone of the galaxy grid.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Galaxy is a coarse grid of sectors. Each empire's home sector is a Coord on
// this grid and attack range is measured in grid steps.
type Galaxy struct {
	Cols int          // grid columns
	Rows int          // grid rows
	Grid []SectorType // row-major: Grid[row*Cols + col]
}

// NewGalaxy builds a cols x rows galaxy filled with Frontier sectors.
func NewGalaxy(cols, rows int) *Galaxy {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &Galaxy{Cols: cols, Rows: rows, Grid: make([]SectorType, cols*rows)}
	for i := range g.Grid {
		g.Grid[i] = Frontier
	}
	return g
}

// At returns the sector type at c. Returns Frontier for out-of-bounds coordinates.
func (g *Galaxy) At(c Coord) SectorType {
	if c.Col < 0 || c.Col >= g.Cols || c.Row < 0 || c.Row >= g.Rows {
		return Frontier
	}
	return g.Grid[c.Row*g.Cols+c.Col]
}

// Set changes the sector type at c; out-of-bounds writes are ignored.
func (g *Galaxy) Set(c Coord, t SectorType) {
	if c.Col < 0 || c.Col >= g.Cols || c.Row < 0 || c.Row >= g.Rows {
		return
	}
	g.Grid[c.Row*g.Cols+c.Col] = t
}

// Clamp moves c onto the grid.
func (g *Galaxy) Clamp(c Coord) Coord {
	c.Col = clampInt(c.Col, 0, g.Cols-1)
	c.Row = clampInt(c.Row, 0, g.Rows-1)
	return c
}

// Distance is the Chebyshev distance between two clamped coordinates, plus
// one step when the destination lies in a nebula. A Void destination other
// than from itself is Unreachable.
func (g *Galaxy) Distance(from, to Coord) int {
	from, to = g.Clamp(from), g.Clamp(to)
	d := max(absInt(from.Col-to.Col), absInt(from.Row-to.Row))
	if d == 0 {
		return 0
	}
	switch g.At(to) {
	case Nebula:
		d++
	case Void:
		return Unreachable
	}
	return d
}

// Reachable reports whether to is within maxRange steps of from.
func (g *Galaxy) Reachable(from, to Coord, maxRange int) bool {
	return g.Distance(from, to) <= maxRange
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
