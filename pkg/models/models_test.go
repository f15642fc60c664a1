package models

import "testing"

func TestSeverityTables(t *testing.T) {
	tests := []struct {
		severity Severity
		weight   int
		units    int
		litres   float64
	}{
		{SeverityHigh, 100, 3, 30},
		{SeverityModerate, 50, 2, 20},
		{SeverityLow, 10, 1, 10},
		{SeverityNone, 0, 0, 0},
		{Severity("Bogus"), 0, 0, 0},
	}

	for _, tt := range tests {
		if got := tt.severity.Weight(); got != tt.weight {
			t.Errorf("%s: expected weight %d, got %d", tt.severity, tt.weight, got)
		}
		if got := tt.severity.UnitsRequired(); got != tt.units {
			t.Errorf("%s: expected %d units, got %d", tt.severity, tt.units, got)
		}
		if got := tt.severity.LitresRequired(); got != tt.litres {
			t.Errorf("%s: expected %g litres, got %g", tt.severity, tt.litres, got)
		}
	}
}

func TestFireEventShortID(t *testing.T) {
	a := NewFireEvent("10:00:00", 1, SeverityLow, ErrorNone)
	b := NewFireEvent("10:00:00", 1, SeverityLow, ErrorNone)

	if len(a.ShortID()) != 8 {
		t.Errorf("Expected 8-character short id, got %q", a.ShortID())
	}
	if a.ShortID() == b.ShortID() {
		t.Error("Expected distinct instances to carry distinct ids")
	}
}

func TestParseSeverity(t *testing.T) {
	if ParseSeverity("High") != SeverityHigh {
		t.Error("Expected High to parse")
	}
	if ParseSeverity("unknown") != SeverityNone {
		t.Error("Expected unknown severity to parse as NONE")
	}
}

func TestErrorKindHard(t *testing.T) {
	if !ErrorNozzleJam.Hard() {
		t.Error("Expected NOZZLE_JAM to be a hard fault")
	}
	if ErrorStuck.Hard() {
		t.Error("Expected DRONE_STUCK to be a soft fault")
	}
	if ErrorNone.Hard() {
		t.Error("Expected NONE to not be a fault")
	}
}

func TestFireEventAssign(t *testing.T) {
	ev := NewFireEvent("10:00:00", 1, SeverityHigh, ErrorNone)

	if !ev.Assign("drone1") {
		t.Error("Expected first assignment to succeed")
	}
	if ev.Assign("drone1") {
		t.Error("Expected duplicate assignment to be refused")
	}
	if !ev.Assign("drone2") {
		t.Error("Expected second unit to assign")
	}

	if got := ev.AssignedIndex("drone2"); got != 1 {
		t.Errorf("Expected drone2 at index 1, got %d", got)
	}
	if got := ev.AssignedIndex("drone9"); got != -1 {
		t.Errorf("Expected -1 for unassigned unit, got %d", got)
	}
}

func TestFireEventClone(t *testing.T) {
	ev := NewFireEvent("10:00:00", 1, SeverityHigh, ErrorNone)
	ev.Assign("drone1")

	clone := ev.Clone()
	clone.Assign("drone2")

	if len(ev.AssignedUnits) != 1 {
		t.Error("Expected clone mutation to not affect the original")
	}
}

func TestParseUnitState(t *testing.T) {
	if state, ok := ParseUnitState("DroppingAgent"); !ok || state != StateDroppingAgent {
		t.Errorf("Expected DroppingAgent to parse, got %s (%v)", state, ok)
	}
	if _, ok := ParseUnitState("Hovering"); ok {
		t.Error("Expected unknown state to fail")
	}
}
