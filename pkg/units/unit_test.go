package units

import (
	"testing"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

func TestAvailable(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	if !u.Available() {
		t.Error("Expected fresh unit to be available")
	}

	u.BeginTask(models.NewFireEvent("10:00:00", 1, models.SeverityLow, models.ErrorNone), geo.Point{X: 10})
	if u.Available() {
		t.Error("Expected tasked unit to be unavailable")
	}

	u.RevertTask()
	if !u.Available() {
		t.Error("Expected unit to be available after revert")
	}

	// A nozzle jam makes the unit unavailable even when idle.
	u.ApplyTelemetry(&models.Telemetry{DroneID: "drone1", State: models.StateIdle, Error: models.ErrorNozzleJam})
	if u.Available() {
		t.Error("Expected hard-faulted unit to be unavailable")
	}
}

func TestApplyTelemetryIdleTransition(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	task := models.NewFireEvent("10:00:00", 3, models.SeverityHigh, models.ErrorNone)
	u.BeginTask(task, geo.Point{X: 100, Y: 100})

	prevState, prevTask := u.ApplyTelemetry(&models.Telemetry{
		DroneID: "drone1",
		State:   models.StateIdle,
		Error:   models.ErrorNone,
		X:       0,
		Y:       0,
	})

	if prevState != models.StateEnRoute {
		t.Errorf("Expected previous state EnRoute, got %s", prevState)
	}
	if prevTask == nil || prevTask.ZoneID != 3 {
		t.Errorf("Expected previous task for zone 3, got %+v", prevTask)
	}
	if u.CurrentTask() != nil {
		t.Error("Expected task cleared on idle")
	}
	if u.Serviced() != 1 {
		t.Errorf("Expected zones serviced 1, got %d", u.Serviced())
	}
}

func TestApplyTelemetryFaultClearsTask(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	u.BeginTask(models.NewFireEvent("10:00:00", 2, models.SeverityLow, models.ErrorNone), geo.Point{X: 10})

	_, prevTask := u.ApplyTelemetry(&models.Telemetry{
		DroneID: "drone1",
		State:   models.StateFault,
		Error:   models.ErrorStuck,
	})

	if prevTask == nil || prevTask.ZoneID != 2 {
		t.Errorf("Expected previous task for zone 2, got %+v", prevTask)
	}
	if u.CurrentTask() != nil {
		t.Error("Expected task cleared on fault")
	}
	if u.Serviced() != 0 {
		t.Errorf("Expected zones serviced to stay 0 on fault, got %d", u.Serviced())
	}
}

func TestBeginTaskIfAvailable(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	ev1 := models.NewFireEvent("10:00:00", 1, models.SeverityLow, models.ErrorNone)
	ev2 := models.NewFireEvent("10:00:01", 2, models.SeverityHigh, models.ErrorNone)

	if !u.BeginTaskIfAvailable(ev1, geo.Point{X: 10}) {
		t.Fatal("Expected first claim to succeed")
	}
	// A second claim must lose: the airframe is already committed.
	if u.BeginTaskIfAvailable(ev2, geo.Point{X: 20}) {
		t.Error("Expected claim on a committed unit to fail")
	}
	if zoneID, _ := u.TaskZone(); zoneID != 1 {
		t.Errorf("Expected unit to stay on zone 1, got %d", zoneID)
	}

	// A hard-faulted idle unit refuses claims.
	jammed := NewUnit("drone2", geo.Point{}, DefaultSpec())
	jammed.ApplyTelemetry(&models.Telemetry{DroneID: "drone2", State: models.StateIdle, Error: models.ErrorNozzleJam})
	if jammed.BeginTaskIfAvailable(ev2, geo.Point{X: 20}) {
		t.Error("Expected claim on a hard-faulted unit to fail")
	}
}

func TestApplyTelemetryIdleWithoutTask(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	u.ApplyTelemetry(&models.Telemetry{DroneID: "drone1", State: models.StateIdle, Error: models.ErrorNone})
	if u.Serviced() != 0 {
		t.Errorf("Expected zones serviced to stay 0, got %d", u.Serviced())
	}
}

func TestAssociateTask(t *testing.T) {
	u := NewUnit("drone1", geo.Point{}, DefaultSpec())
	u.AssociateTask(models.TaskRef{ZoneID: 4, Severity: models.SeverityModerate})

	zoneID, ok := u.TaskZone()
	if !ok || zoneID != 4 {
		t.Errorf("Expected task zone 4, got %d (%v)", zoneID, ok)
	}

	// Re-associating the same zone keeps the existing task.
	task := u.CurrentTask()
	u.AssociateTask(models.TaskRef{ZoneID: 4, Severity: models.SeverityModerate})
	if u.CurrentTask() != task {
		t.Error("Expected task to be unchanged for the same zone")
	}
}

func TestRegistryGetOrRegister(t *testing.T) {
	r := NewRegistry(DefaultSpec())

	u := r.GetOrRegister("drone2", geo.Point{X: 5, Y: 5})
	if u == nil {
		t.Fatal("GetOrRegister returned nil")
	}
	if !u.Location().Equals(geo.Point{X: 5, Y: 5}) {
		t.Errorf("Expected location (5,5), got %s", u.Location())
	}
	if again := r.GetOrRegister("drone2", geo.Point{X: 9, Y: 9}); again != u {
		t.Error("Expected same record on second registration")
	}
}

func TestCountNonIdleForZone(t *testing.T) {
	r := NewRegistry(DefaultSpec())
	a := r.GetOrRegister("drone1", geo.Point{})
	b := r.GetOrRegister("drone2", geo.Point{})
	c := r.GetOrRegister("drone3", geo.Point{})

	ev := models.NewFireEvent("10:00:00", 7, models.SeverityHigh, models.ErrorNone)
	a.BeginTask(ev, geo.Point{X: 10})
	b.BeginTask(ev, geo.Point{X: 10})
	c.BeginTask(models.NewFireEvent("10:00:00", 8, models.SeverityLow, models.ErrorNone), geo.Point{X: 20})

	if got := r.CountNonIdleForZone(7); got != 2 {
		t.Errorf("Expected 2 units on zone 7, got %d", got)
	}

	// Going idle removes the unit from the count.
	a.ApplyTelemetry(&models.Telemetry{DroneID: "drone1", State: models.StateIdle, Error: models.ErrorNone})
	if got := r.CountNonIdleForZone(7); got != 1 {
		t.Errorf("Expected 1 unit on zone 7 after idle, got %d", got)
	}

	// A faulted unit is not staff either.
	b.ApplyTelemetry(&models.Telemetry{DroneID: "drone2", State: models.StateFault, Error: models.ErrorNozzleJam})
	if got := r.CountNonIdleForZone(7); got != 0 {
		t.Errorf("Expected 0 units on zone 7 after fault, got %d", got)
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry(DefaultSpec())
	r.GetOrRegister("drone3", geo.Point{})
	r.GetOrRegister("drone1", geo.Point{})
	r.GetOrRegister("drone2", geo.Point{})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 units, got %d", len(all))
	}
	for i, want := range []string{"drone1", "drone2", "drone3"} {
		if all[i].DroneID != want {
			t.Errorf("Expected %s at index %d, got %s", want, i, all[i].DroneID)
		}
	}
}
