package units

import (
	"sort"
	"sync"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

// Registry is the authoritative unit store, keyed by drone id. Units are
// registered on first telemetry.
type Registry struct {
	mu    sync.RWMutex
	units map[string]*Unit
	spec  Spec
}

// NewRegistry creates an empty registry; spec is applied to implicitly
// registered units.
func NewRegistry(spec Spec) *Registry {
	return &Registry{units: make(map[string]*Unit), spec: spec}
}

// Get returns the unit with the given drone id, or nil.
func (r *Registry) Get(droneID string) *Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.units[droneID]
}

// Register installs a unit, replacing any record with the same id.
func (r *Registry) Register(u *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[u.DroneID] = u
}

// GetOrRegister returns the unit with the given id, creating an idle record
// at the reported location on first sight.
func (r *Registry) GetOrRegister(droneID string, at geo.Point) *Unit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.units[droneID]; ok {
		return u
	}
	u := NewUnit(droneID, at, r.spec)
	r.units[droneID] = u
	return u
}

// All returns the units sorted by drone id.
func (r *Registry) All() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DroneID < out[j].DroneID })
	return out
}

// CountNonIdleForZone counts units whose current task targets the zone and
// whose state is neither Idle nor Fault. Faulted units are not staff. This
// is the live ground truth the dispatch bookkeeping reconciles against.
func (r *Registry) CountNonIdleForZone(zoneID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, u := range r.units {
		taskZone, ok := u.TaskZone()
		if !ok || taskZone != zoneID {
			continue
		}
		if st := u.StateNow(); st != models.StateIdle && st != models.StateFault {
			count++
		}
	}
	return count
}

// Available returns units that can take a new assignment, sorted by id.
func (r *Registry) Available() []*Unit {
	var out []*Unit
	for _, u := range r.All() {
		if u.Available() {
			out = append(out, u)
		}
	}
	return out
}
