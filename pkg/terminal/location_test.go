package terminal

import "testing"

func TestInArenaBounds(t *testing.T) {
	tests := []struct {
		loc  Location
		want bool
	}{
		{Loc(13, 0), true},
		{Loc(14, 0), true},
		{Loc(12, 0), false},
		{Loc(15, 0), false},
		{Loc(0, 13), true},
		{Loc(27, 13), true},
		{Loc(0, 14), true},
		{Loc(27, 14), true},
		{Loc(13, 27), true},
		{Loc(12, 27), false},
		{Loc(3, 10), true},
		{Loc(2, 10), false},
		{Loc(14, -1), false},
		{Loc(14, 28), false},
	}
	for _, tc := range tests {
		if got := InArenaBounds(tc.loc); got != tc.want {
			t.Errorf("InArenaBounds(%v) = %v, want %v", tc.loc, got, tc.want)
		}
	}
}

func TestEdgeLocations(t *testing.T) {
	for _, e := range []Edge{TopRight, TopLeft, BottomLeft, BottomRight} {
		locs := EdgeLocations(e)
		if len(locs) != HalfArena {
			t.Errorf("edge %d: expected %d cells, got %d", e, HalfArena, len(locs))
		}
		for _, l := range locs {
			if !InArenaBounds(l) {
				t.Errorf("edge %d: %v is outside the arena", e, l)
			}
		}
	}

	br := EdgeLocations(BottomRight)
	if br[0] != Loc(14, 0) || br[11] != Loc(25, 11) {
		t.Errorf("unexpected bottom-right edge: %v", br)
	}
}

func TestIsFriendlyEdge(t *testing.T) {
	for _, l := range append(EdgeLocations(BottomLeft), EdgeLocations(BottomRight)...) {
		if !IsFriendlyEdge(l) {
			t.Errorf("%v should be a friendly edge", l)
		}
	}
	for _, l := range []Location{Loc(14, 1), Loc(6, 10), Loc(13, 27), Loc(0, 14)} {
		if IsFriendlyEdge(l) {
			t.Errorf("%v should not be a friendly edge", l)
		}
	}
}

func TestLocationsInRange(t *testing.T) {
	got := LocationsInRange(Loc(13, 13), 1)
	// full 3x3 block: diagonals fall inside the half-cell slack
	if len(got) != 9 {
		t.Errorf("expected 9 cells within range 1, got %d: %v", len(got), got)
	}
	for _, l := range LocationsInRange(Loc(13, 0), 3) {
		if !InArenaBounds(l) {
			t.Errorf("out-of-arena cell %v returned", l)
		}
	}
}

func TestOwnHalf(t *testing.T) {
	cells := OwnHalf()
	// rows 0..13 hold 2, 4, ..., 28 cells
	if len(cells) != 210 {
		t.Errorf("expected 210 own-half cells, got %d", len(cells))
	}
}
