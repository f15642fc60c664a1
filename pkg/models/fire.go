package models

import (
	"github.com/google/uuid"
)

// EventTypeFire is the only event type in normal operation.
const EventTypeFire = "FIRE"

// ErrorKind identifies an injected or observed unit failure mode.
type ErrorKind string

const (
	ErrorNone      ErrorKind = "NONE"
	ErrorNozzleJam ErrorKind = "NOZZLE_JAM"
	ErrorStuck     ErrorKind = "DRONE_STUCK"
)

// IsErrorKind reports whether a wire token names an error kind.
func IsErrorKind(tok string) bool {
	switch ErrorKind(tok) {
	case ErrorNone, ErrorNozzleJam, ErrorStuck:
		return true
	}
	return false
}

// Hard reports whether the error kind keeps a unit out of service until
// maintenance clears it.
func (k ErrorKind) Hard() bool {
	return k == ErrorNozzleJam
}

// FireEvent is a request to extinguish a fire in a zone. The ID identifies
// this event instance in-process; it is not carried on the wire.
type FireEvent struct {
	ID            uuid.UUID
	Time          string
	ZoneID        int
	Type          string
	Severity      Severity
	ErrorKind     ErrorKind
	AssignedUnits []string
}

// NewFireEvent creates a fire event with a fresh instance ID.
func NewFireEvent(at string, zoneID int, severity Severity, kind ErrorKind) *FireEvent {
	if kind == "" {
		kind = ErrorNone
	}
	return &FireEvent{
		ID:        uuid.New(),
		Time:      at,
		ZoneID:    zoneID,
		Type:      EventTypeFire,
		Severity:  severity,
		ErrorKind: kind,
	}
}

// ShortID is the compact form of the instance ID used in logs.
func (e *FireEvent) ShortID() string {
	return e.ID.String()[:8]
}

// Assign appends a unit to the ordered assignment list. It refuses
// duplicates: a unit appears at most once per event instance.
func (e *FireEvent) Assign(droneID string) bool {
	if e.AssignedIndex(droneID) >= 0 {
		return false
	}
	e.AssignedUnits = append(e.AssignedUnits, droneID)
	return true
}

// AssignedIndex returns the zero-based position of a unit in the assignment
// list, or -1 if the unit is not assigned.
func (e *FireEvent) AssignedIndex(droneID string) int {
	for i, id := range e.AssignedUnits {
		if id == droneID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy sharing no slices with the original.
func (e *FireEvent) Clone() *FireEvent {
	c := *e
	c.AssignedUnits = append([]string(nil), e.AssignedUnits...)
	return &c
}
