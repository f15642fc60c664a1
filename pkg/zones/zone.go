// Package zones holds the authoritative map of suppression zones: axis-aligned
// rectangles keyed by integer id, each carrying a fire flag and severity.
package zones

import (
	"fmt"
	"sync"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

// pointZoneHalfSize is the half-width of the bounding box wrapped around a
// single-point zone.
const pointZoneHalfSize = 5

// Zone is an axis-aligned rectangular region. Mutation goes through the
// registry; external callers treat zones as read-mostly snapshots.
type Zone struct {
	ID int
	X1 int
	Y1 int
	X2 int
	Y2 int

	HasFire  bool
	Severity models.Severity

	// Drops counts agent drops on the current fire. Display-only; the
	// coordinator's assignment bookkeeping is authoritative for dispatch.
	Drops int

	mu sync.RWMutex
}

// NewZone creates a zone from rectangle corners, normalising so that
// (X1,Y1) is the lower corner.
func NewZone(id, x1, y1, x2, y2 int) (*Zone, error) {
	if id < 1 {
		return nil, fmt.Errorf("zone id must be >= 1, got %d", id)
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return &Zone{ID: id, X1: x1, Y1: y1, X2: x2, Y2: y2, Severity: models.SeverityNone}, nil
}

// NewPointZone wraps a bounding box around a single point.
func NewPointZone(id int, at geo.Point) (*Zone, error) {
	return NewZone(id,
		at.X-pointZoneHalfSize, at.Y-pointZoneHalfSize,
		at.X+pointZoneHalfSize, at.Y+pointZoneHalfSize)
}

// Center returns the zone's center with integer division.
func (z *Zone) Center() geo.Point {
	return geo.Point{X: (z.X1 + z.X2) / 2, Y: (z.Y1 + z.Y2) / 2}
}

// Contains reports whether a point is inside the zone, edges inclusive.
func (z *Zone) Contains(p geo.Point) bool {
	return p.X >= z.X1 && p.X <= z.X2 && p.Y >= z.Y1 && p.Y <= z.Y2
}

// Overlaps reports whether two zones intersect. Shared edges count.
func (z *Zone) Overlaps(other *Zone) bool {
	return z.X1 <= other.X2 && other.X1 <= z.X2 &&
		z.Y1 <= other.Y2 && other.Y1 <= z.Y2
}

// Status returns the fire flag and severity as one consistent read.
func (z *Zone) Status() (bool, models.Severity) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.HasFire, z.Severity
}

// DropCount returns the display drop counter for the current fire.
func (z *Zone) DropCount() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.Drops
}

func (z *Zone) String() string {
	return fmt.Sprintf("zone %d [(%d,%d)-(%d,%d)]", z.ID, z.X1, z.Y1, z.X2, z.Y2)
}
