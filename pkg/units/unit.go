package units

import (
	"sync"
	"time"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

// Unit is the coordinator's record of one drone. All mutation goes through
// the registry or the unit's own methods; fields are never written directly
// by callers.
type Unit struct {
	DroneID         string
	CurrentLocation geo.Point
	TargetLocation  geo.Point
	State           models.UnitState
	Task            *models.FireEvent
	ZonesServiced   int
	LastUpdateTime  time.Time
	Spec            Spec
	ErrorKind       models.ErrorKind

	mu sync.RWMutex
}

// NewUnit creates an idle unit at the given location.
func NewUnit(droneID string, at geo.Point, spec Spec) *Unit {
	return &Unit{
		DroneID:         droneID,
		CurrentLocation: at,
		TargetLocation:  at,
		State:           models.StateIdle,
		ErrorKind:       models.ErrorNone,
		Spec:            spec,
		LastUpdateTime:  time.Now(),
	}
}

// Available reports whether the unit can take a new assignment: idle, no
// hard fault, no task in hand.
func (u *Unit) Available() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.State == models.StateIdle && u.ErrorKind != models.ErrorNozzleJam && u.Task == nil
}

// Snapshot is a read-only copy of a unit's mutable fields.
type Snapshot struct {
	DroneID         string
	CurrentLocation geo.Point
	TargetLocation  geo.Point
	State           models.UnitState
	TaskZoneID      int // 0 when no task
	ZonesServiced   int
	ErrorKind       models.ErrorKind
	LastUpdateTime  time.Time
}

// Snapshot returns a consistent copy of the unit's state.
func (u *Unit) Snapshot() Snapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s := Snapshot{
		DroneID:         u.DroneID,
		CurrentLocation: u.CurrentLocation,
		TargetLocation:  u.TargetLocation,
		State:           u.State,
		ZonesServiced:   u.ZonesServiced,
		ErrorKind:       u.ErrorKind,
		LastUpdateTime:  u.LastUpdateTime,
	}
	if u.Task != nil {
		s.TaskZoneID = u.Task.ZoneID
	}
	return s
}

// TaskZone returns the zone id of the current task, or 0 and false.
func (u *Unit) TaskZone() (int, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.Task == nil {
		return 0, false
	}
	return u.Task.ZoneID, true
}

// CurrentTask returns the current task, possibly nil.
func (u *Unit) CurrentTask() *models.FireEvent {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Task
}

// StateNow returns the unit's state.
func (u *Unit) StateNow() models.UnitState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.State
}

// Location returns the unit's last reported location.
func (u *Unit) Location() geo.Point {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.CurrentLocation
}

// Error returns the unit's error kind.
func (u *Unit) Error() models.ErrorKind {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.ErrorKind
}

// Serviced returns the zones-serviced counter.
func (u *Unit) Serviced() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.ZonesServiced
}

// BeginTask marks the unit en route with the given task.
func (u *Unit) BeginTask(task *models.FireEvent, target geo.Point) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.beginTaskLocked(task, target)
}

// BeginTaskIfAvailable claims the unit for a task only if it is still idle,
// task-free, and not hard-faulted. Concurrent dispatch paths race for the
// same airframe; exactly one claim wins.
func (u *Unit) BeginTaskIfAvailable(task *models.FireEvent, target geo.Point) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.State != models.StateIdle || u.Task != nil || u.ErrorKind == models.ErrorNozzleJam {
		return false
	}
	u.beginTaskLocked(task, target)
	return true
}

func (u *Unit) beginTaskLocked(task *models.FireEvent, target geo.Point) {
	u.Task = task
	u.TargetLocation = target
	u.State = models.StateEnRoute
	u.LastUpdateTime = time.Now()
}

// ApplyTelemetry folds a telemetry report into the record. It returns the
// previous state and the task held before the report, so the caller can
// settle assignment bookkeeping on transitions.
func (u *Unit) ApplyTelemetry(t *models.Telemetry) (prevState models.UnitState, prevTask *models.FireEvent) {
	u.mu.Lock()
	defer u.mu.Unlock()

	prevState = u.State
	prevTask = u.Task

	u.CurrentLocation = geo.Point{X: t.X, Y: t.Y}
	u.State = t.State
	u.ErrorKind = t.Error
	u.LastUpdateTime = time.Now()

	switch t.State {
	case models.StateIdle:
		if prevTask != nil {
			u.ZonesServiced++
		}
		u.Task = nil
	case models.StateFault:
		// A faulted unit is off its mission; it no longer holds the task.
		u.Task = nil
	}
	return prevState, prevTask
}

// AssociateTask records the zone a unit reports itself tasked with, keeping
// the coordinator's view aligned with the unit's own state machine.
func (u *Unit) AssociateTask(ref models.TaskRef) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Task != nil && u.Task.ZoneID == ref.ZoneID {
		return
	}
	u.Task = models.NewFireEvent(time.Now().Format("15:04:05"), ref.ZoneID, ref.Severity, models.ErrorNone)
}

// RevertTask rolls back a failed assignment, returning the unit to Idle
// with no task in hand.
func (u *Unit) RevertTask() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Task = nil
	u.State = models.StateIdle
	u.LastUpdateTime = time.Now()
}

// ClearTask drops the current task without touching the serviced counter.
func (u *Unit) ClearTask() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Task = nil
}
