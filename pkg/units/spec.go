// Package units tracks per-unit status and the kinematic envelope used to
// plan travel and agent-drop timing.
package units

import (
	"time"

	"github.com/emberops/firefleet/pkg/models"
)

// Spec is a unit's performance envelope.
type Spec struct {
	MaxSpeed       float64       // m/s
	Acceleration   float64       // m/s^2
	Deceleration   float64       // m/s^2
	NozzleOpen     time.Duration // delay before agent flows
	FlowRate       float64       // L/s
	FullCapacity   float64       // L
	Capacity       float64       // L, current
	BatteryMinutes float64
}

// DefaultSpec mirrors the stock airframe fitted across the fleet.
func DefaultSpec() Spec {
	return Spec{
		MaxSpeed:       10,
		Acceleration:   2,
		Deceleration:   2,
		NozzleOpen:     500 * time.Millisecond,
		FlowRate:       5,
		FullCapacity:   40,
		Capacity:       40,
		BatteryMinutes: 30,
	}
}

// TravelTime returns the time to cover a distance under a trapezoidal speed
// profile. Trips too short to reach max speed use the short-trip average of
// half max speed.
func (s Spec) TravelTime(distance float64) time.Duration {
	if distance <= 0 || s.MaxSpeed <= 0 {
		return 0
	}
	v := s.MaxSpeed
	threshold := v*v/s.Acceleration + v*v/(2*s.Deceleration)
	var seconds float64
	if distance < threshold {
		seconds = distance / (v / 2)
	} else {
		seconds = distance/v + v/(2*s.Acceleration) + v/(2*s.Deceleration)
	}
	return time.Duration(seconds * float64(time.Second))
}

// FightTime returns the duration of an agent drop for a fire of the given
// severity, nozzle-open delay included.
func (s Spec) FightTime(severity models.Severity) time.Duration {
	litres := s.Capacity
	if required := severity.LitresRequired(); required > litres {
		litres = required
	}
	if s.FlowRate <= 0 {
		return s.NozzleOpen
	}
	return s.NozzleOpen + time.Duration(litres/s.FlowRate*float64(time.Second))
}

// RefillTime returns how long a full refill takes at the given rate.
func (s Spec) RefillTime(refillRate float64) time.Duration {
	if refillRate <= 0 {
		return 0
	}
	return time.Duration((s.FullCapacity - s.Capacity) / refillRate * float64(time.Second))
}
