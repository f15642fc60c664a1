package models

// UnitState names a stage in the unit mission lifecycle.
type UnitState string

const (
	StateIdle          UnitState = "Idle"
	StateEnRoute       UnitState = "EnRoute"
	StateDroppingAgent UnitState = "DroppingAgent"
	StateArrivedToBase UnitState = "ArrivedToBase"
	StateFault         UnitState = "Fault"
)

// ParseUnitState maps a wire token to a UnitState. The second return is
// false for unknown tokens.
func ParseUnitState(s string) (UnitState, bool) {
	switch UnitState(s) {
	case StateIdle, StateEnRoute, StateDroppingAgent, StateArrivedToBase, StateFault:
		return UnitState(s), true
	}
	return "", false
}

// TaskRef identifies the zone and severity of a unit's current task.
type TaskRef struct {
	ZoneID   int
	Severity Severity
}

// Telemetry is a self-sufficient status report from a unit. Optional fields
// are nil when the corresponding tag is absent from the datagram.
type Telemetry struct {
	DroneID   string
	State     UnitState
	Error     ErrorKind
	Task      *TaskRef
	Capacity  *float64
	FireOut   *int
	Abandoned *int
	NewTask   *int
	X         int
	Y         int
}
