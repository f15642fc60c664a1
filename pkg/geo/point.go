// Package geo provides integer planar geometry for the coordination grid.
// Coordinates are metres; distance is Manhattan because units fly
// axis-aligned legs.
package geo

import "fmt"

// Point is an integer coordinate on the grid.
type Point struct {
	X int
	Y int
}

// String formats a point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Equals reports componentwise equality.
func (p Point) Equals(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// Distance returns the Manhattan distance |dx|+|dy| between two points.
func Distance(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// OnSegment reports whether p lies on the axis-aligned segment from a to b.
// Segments that are neither horizontal nor vertical never contain p.
func OnSegment(p, a, b Point) bool {
	switch {
	case a.Y == b.Y:
		return p.Y == a.Y && within(p.X, a.X, b.X)
	case a.X == b.X:
		return p.X == a.X && within(p.Y, a.Y, b.Y)
	default:
		return false
	}
}

func within(v, lo, hi int) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
