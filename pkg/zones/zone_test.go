package zones

import (
	"testing"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

func TestNewZoneNormalisesCorners(t *testing.T) {
	z, err := NewZone(1, 10, 20, 0, 5)
	if err != nil {
		t.Fatalf("NewZone failed: %v", err)
	}
	if z.X1 != 0 || z.Y1 != 5 || z.X2 != 10 || z.Y2 != 20 {
		t.Errorf("Expected normalised rectangle (0,5)-(10,20), got (%d,%d)-(%d,%d)", z.X1, z.Y1, z.X2, z.Y2)
	}
}

func TestNewZoneRejectsBadID(t *testing.T) {
	if _, err := NewZone(0, 0, 0, 1, 1); err == nil {
		t.Error("Expected error for zone id 0")
	}
}

func TestNewPointZone(t *testing.T) {
	z, err := NewPointZone(3, geo.Point{X: 100, Y: 50})
	if err != nil {
		t.Fatalf("NewPointZone failed: %v", err)
	}
	if z.X1 != 95 || z.Y1 != 45 || z.X2 != 105 || z.Y2 != 55 {
		t.Errorf("Expected box (95,45)-(105,55), got (%d,%d)-(%d,%d)", z.X1, z.Y1, z.X2, z.Y2)
	}
	if c := z.Center(); !c.Equals(geo.Point{X: 100, Y: 50}) {
		t.Errorf("Expected center (100,50), got %s", c)
	}
}

func TestCenterIntegerDivision(t *testing.T) {
	z, _ := NewZone(1, 0, 0, 5, 5)
	if c := z.Center(); !c.Equals(geo.Point{X: 2, Y: 2}) {
		t.Errorf("Expected center (2,2), got %s", c)
	}
}

func TestContainsEdgesInclusive(t *testing.T) {
	z, _ := NewZone(1, 0, 0, 10, 10)
	tests := []struct {
		p    geo.Point
		want bool
	}{
		{geo.Point{X: 5, Y: 5}, true},
		{geo.Point{X: 0, Y: 0}, true},
		{geo.Point{X: 10, Y: 10}, true},
		{geo.Point{X: 0, Y: 10}, true},
		{geo.Point{X: 11, Y: 5}, false},
		{geo.Point{X: 5, Y: -1}, false},
	}
	for _, tt := range tests {
		if got := z.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	a, _ := NewZone(1, 0, 0, 10, 10)
	b, _ := NewZone(2, 5, 5, 15, 15)
	c, _ := NewZone(3, 10, 0, 20, 10)
	d, _ := NewZone(4, 11, 11, 20, 20)

	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("Expected overlapping zones to report overlap both ways")
	}
	if !a.Overlaps(c) {
		t.Error("Expected shared edge to count as overlap")
	}
	if a.Overlaps(d) {
		t.Error("Expected disjoint zones to not overlap")
	}
}

func TestRegistryGetOrCreateDerivedCenter(t *testing.T) {
	r := NewRegistry(DefaultDerivedLayout)

	z := r.GetOrCreate(5)
	if z == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	// id 5 -> column (5-1)%3 = 1, row (5-1)/3 = 1
	want := geo.Point{X: 240, Y: 240}
	if c := z.Center(); !c.Equals(want) {
		t.Errorf("Expected derived center %s, got %s", want, c)
	}

	if again := r.GetOrCreate(5); again != z {
		t.Error("Expected GetOrCreate to return the same zone on second call")
	}
}

func TestRegistryUpdateFireStatus(t *testing.T) {
	r := NewRegistry(DefaultDerivedLayout)

	z := r.UpdateFireStatus(2, true, models.SeverityHigh)
	if z == nil {
		t.Fatal("UpdateFireStatus returned nil")
	}
	burning, severity := z.Status()
	if !burning || severity != models.SeverityHigh {
		t.Errorf("Expected burning High, got %v %s", burning, severity)
	}

	r.RecordDrop(2)
	r.RecordDrop(2)
	if z.DropCount() != 2 {
		t.Errorf("Expected 2 drops, got %d", z.DropCount())
	}

	// Clearing the fire resets the drop counter.
	r.UpdateFireStatus(2, false, models.SeverityNone)
	burning, severity = z.Status()
	if burning || severity != models.SeverityNone {
		t.Errorf("Expected clear NONE, got %v %s", burning, severity)
	}
	if z.DropCount() != 0 {
		t.Errorf("Expected drop counter reset, got %d", z.DropCount())
	}
}

func TestRegistryActiveFires(t *testing.T) {
	r := NewRegistry(DefaultDerivedLayout)
	r.UpdateFireStatus(3, true, models.SeverityLow)
	r.UpdateFireStatus(1, true, models.SeverityHigh)
	r.UpdateFireStatus(2, false, models.SeverityNone)

	fires := r.ActiveFires()
	if len(fires) != 2 {
		t.Fatalf("Expected 2 active fires, got %d", len(fires))
	}
	if fires[0].ID != 1 || fires[1].ID != 3 {
		t.Errorf("Expected fires sorted by id [1 3], got [%d %d]", fires[0].ID, fires[1].ID)
	}
}

func TestRegistryZoneAt(t *testing.T) {
	r := NewRegistry(DefaultDerivedLayout)
	a, _ := NewZone(1, 0, 0, 10, 10)
	b, _ := NewZone(2, 5, 5, 20, 20)
	r.Put(a)
	r.Put(b)

	if z := r.ZoneAt(geo.Point{X: 7, Y: 7}); z == nil || z.ID != 1 {
		t.Errorf("Expected lowest-id containing zone 1, got %v", z)
	}
	if z := r.ZoneAt(geo.Point{X: 15, Y: 15}); z == nil || z.ID != 2 {
		t.Errorf("Expected zone 2, got %v", z)
	}
	if z := r.ZoneAt(geo.Point{X: 100, Y: 100}); z != nil {
		t.Errorf("Expected no zone, got %v", z)
	}
}
