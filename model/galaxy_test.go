package model

import "testing"

func TestGalaxyAt(t *testing.T) {
	g := &Galaxy{
		Cols: 3,
		Rows: 2,
		Grid: []SectorType{
			Frontier, Frontier, Nebula,
			Void, Nebula, Frontier,
		},
	}

	tests := []struct {
		c    Coord
		want SectorType
	}{
		{Coord{0, 0}, Frontier},
		{Coord{2, 0}, Nebula},
		{Coord{0, 1}, Void},
		{Coord{1, 1}, Nebula},
	}
	for _, tc := range tests {
		if got := g.At(tc.c); got != tc.want {
			t.Errorf("At(%v) = %d, want %d", tc.c, got, tc.want)
		}
	}
}

func TestGalaxyAtOutOfBounds(t *testing.T) {
	g := &Galaxy{Cols: 2, Rows: 2, Grid: []SectorType{Void, Void, Void, Void}}

	// Out-of-bounds should return Frontier (safe default).
	for _, c := range []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if got := g.At(c); got != Frontier {
			t.Errorf("At(%v) = %d, want Frontier", c, got)
		}
	}
}

func TestGalaxyDistance(t *testing.T) {
	g := NewGalaxy(8, 8)
	g.Set(Coord{5, 5}, Nebula)

	tests := []struct {
		from, to Coord
		want     int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{3, 1}, 3},
		{Coord{2, 2}, Coord{1, 6}, 4},
		{Coord{0, 0}, Coord{5, 5}, 6},   // nebula adds a step
		{Coord{0, 0}, Coord{20, 0}, 7},  // clamped onto the grid
		{Coord{-4, -4}, Coord{1, 1}, 1}, // clamped onto the grid
	}
	for _, tc := range tests {
		if got := g.Distance(tc.from, tc.to); got != tc.want {
			t.Errorf("Distance(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestGalaxyVoidUnreachable(t *testing.T) {
	g := NewGalaxy(6, 6)
	g.Set(Coord{1, 1}, Void)

	if got := g.Distance(Coord{0, 0}, Coord{1, 1}); got != Unreachable {
		t.Errorf("Distance into void = %d, want Unreachable", got)
	}
	if g.Reachable(Coord{0, 0}, Coord{1, 1}, 1000) {
		t.Error("Void sector should never be reachable")
	}
	// Leaving a void sector is unaffected.
	if got := g.Distance(Coord{1, 1}, Coord{3, 1}); got != 2 {
		t.Errorf("Distance out of void = %d, want 2", got)
	}
	if got := g.Distance(Coord{1, 1}, Coord{1, 1}); got != 0 {
		t.Errorf("Distance to self = %d, want 0", got)
	}
}

func TestGalaxyReachable(t *testing.T) {
	g := NewGalaxy(10, 10)
	if !g.Reachable(Coord{0, 0}, Coord{3, 3}, 3) {
		t.Error("Reachable at exactly max range should be true")
	}
	if g.Reachable(Coord{0, 0}, Coord{4, 1}, 3) {
		t.Error("Reachable beyond max range should be false")
	}
}

func TestNewGalaxyMinimumSize(t *testing.T) {
	g := NewGalaxy(0, -3)
	if g.Cols != 1 || g.Rows != 1 || len(g.Grid) != 1 {
		t.Errorf("NewGalaxy(0,-3) = %dx%d (%d cells), want 1x1", g.Cols, g.Rows, len(g.Grid))
	}
}
