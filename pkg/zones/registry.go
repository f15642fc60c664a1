package zones

import (
	"sort"
	"sync"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
)

// DerivedLayout positions zones that are created implicitly from a raw id
// (first mention in an event or zone-info request). Centers are laid out on
// a 3-wide grid so derived zones stay clear of file-loaded ones.
type DerivedLayout struct {
	StrideX int
	StrideY int
	OriginX int
	OriginY int
}

// DefaultDerivedLayout keeps derived zones far from the default test grid.
var DefaultDerivedLayout = DerivedLayout{StrideX: 40, StrideY: 40, OriginX: 200, OriginY: 200}

// CenterFor returns the deterministic center for a derived zone id.
func (l DerivedLayout) CenterFor(id int) geo.Point {
	return geo.Point{
		X: ((id-1)%3)*l.StrideX + l.OriginX,
		Y: ((id-1)/3)*l.StrideY + l.OriginY,
	}
}

// Registry is the authoritative zone store. All writes go through it.
type Registry struct {
	mu     sync.RWMutex
	zones  map[int]*Zone
	layout DerivedLayout
}

// NewRegistry creates an empty registry using the given derived-zone layout.
func NewRegistry(layout DerivedLayout) *Registry {
	return &Registry{zones: make(map[int]*Zone), layout: layout}
}

// Get returns the zone with the given id, or nil.
func (r *Registry) Get(id int) *Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zones[id]
}

// GetOrCreate returns the zone with the given id, creating a point zone at
// the deterministic derived center on first mention.
func (r *Registry) GetOrCreate(id int) *Zone {
	r.mu.Lock()
	defer r.mu.Unlock()
	if z, ok := r.zones[id]; ok {
		return z
	}
	z, err := NewPointZone(id, r.layout.CenterFor(id))
	if err != nil {
		return nil
	}
	r.zones[id] = z
	return z
}

// Put installs a zone, replacing any zone with the same id.
func (r *Registry) Put(z *Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones[z.ID] = z
}

// All returns the zones sorted by id.
func (r *Registry) All() []*Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveFires returns zones with an active fire, sorted by id.
func (r *Registry) ActiveFires() []*Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Zone
	for _, z := range r.zones {
		if burning, _ := z.Status(); burning {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateFireStatus sets a zone's fire flag and severity in one step. Zones
// are created on first mention. Clearing the fire also resets the display
// drop counter.
func (r *Registry) UpdateFireStatus(id int, hasFire bool, severity models.Severity) *Zone {
	z := r.GetOrCreate(id)
	if z == nil {
		return nil
	}
	z.mu.Lock()
	z.HasFire = hasFire
	z.Severity = severity
	if !hasFire {
		z.Drops = 0
	}
	z.mu.Unlock()
	return z
}

// RecordDrop increments a zone's display drop counter and returns the new
// count.
func (r *Registry) RecordDrop(id int) int {
	z := r.Get(id)
	if z == nil {
		return 0
	}
	z.mu.Lock()
	z.Drops++
	n := z.Drops
	z.mu.Unlock()
	return n
}

// ZoneAt returns the first zone containing the point, preferring lower ids.
func (r *Registry) ZoneAt(p geo.Point) *Zone {
	for _, z := range r.All() {
		if z.Contains(p) {
			return z
		}
	}
	return nil
}
