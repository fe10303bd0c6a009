package terminal

import "math"

// ArenaSize is the width and height of the diamond arena.
const (
	ArenaSize = 28
	HalfArena = ArenaSize / 2
)

// Location is a cell on the arena grid.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Loc is shorthand for Location{x, y}.
func Loc(x, y int) Location { return Location{X: x, Y: y} }

// Edge identifies one of the four diagonal arena borders.
type Edge int

const (
	TopRight Edge = iota
	TopLeft
	BottomLeft
	BottomRight
)

// InArenaBounds reports whether loc lies inside the diamond.
func InArenaBounds(loc Location) bool {
	x, y := loc.X, loc.Y
	if y < 0 || y >= ArenaSize {
		return false
	}
	rowSize := y + 1
	if y >= HalfArena {
		rowSize = ArenaSize - y
	}
	startX := HalfArena - rowSize
	endX := startX + 2*rowSize - 1
	return x >= startX && x <= endX
}

// EdgeLocations returns the HalfArena cells along the given edge.
func EdgeLocations(e Edge) []Location {
	out := make([]Location, 0, HalfArena)
	for i := 0; i < HalfArena; i++ {
		var l Location
		switch e {
		case TopRight:
			l = Loc(HalfArena+i, ArenaSize-1-i)
		case TopLeft:
			l = Loc(HalfArena-1-i, ArenaSize-1-i)
		case BottomLeft:
			l = Loc(HalfArena-1-i, i)
		default:
			l = Loc(HalfArena+i, i)
		}
		out = append(out, l)
	}
	return out
}

// IsFriendlyEdge reports whether loc is a deploy cell for the bottom player.
func IsFriendlyEdge(loc Location) bool {
	if loc.Y < 0 || loc.Y >= HalfArena {
		return false
	}
	return loc.X == HalfArena-1-loc.Y || loc.X == HalfArena+loc.Y
}

// Distance is the euclidean distance between two cells.
func Distance(a, b Location) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// LocationsInRange returns in-arena cells within radius of loc, loc included.
// The 0.51 slack matches the engine's range test for half-cell radii.
func LocationsInRange(loc Location, radius float64) []Location {
	var out []Location
	lo := int(math.Floor(float64(loc.X) - radius))
	hi := int(math.Ceil(float64(loc.X) + radius))
	ylo := int(math.Floor(float64(loc.Y) - radius))
	yhi := int(math.Ceil(float64(loc.Y) + radius))
	for x := lo; x <= hi; x++ {
		for y := ylo; y <= yhi; y++ {
			l := Loc(x, y)
			if InArenaBounds(l) && Distance(loc, l) < radius+0.51 {
				out = append(out, l)
			}
		}
	}
	return out
}
