// Package dispatch implements the coordinator's dispatch engine: a priority
// event queue, per-zone assignment bookkeeping, unit selection, and the
// reconciliation sweeps that keep every active fire staffed.
package dispatch

import (
	"sort"
	"time"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/units"
	"github.com/emberops/firefleet/pkg/zones"
)

// Sender delivers fire events to units. The UDP implementation lives in the
// server; tests substitute a recording double.
type Sender interface {
	SendToUnit(droneID string, ev *models.FireEvent) error
}

// Coordinator owns the authoritative registries and the dispatch logic.
// Everything it needs is passed at construction; there are no globals.
type Coordinator struct {
	zones  *zones.Registry
	units  *units.Registry
	queue  *EventQueue
	books  *books
	sender Sender
	log    logger.Logger
}

// NewCoordinator wires a coordinator over the given registries and sender.
func NewCoordinator(zoneReg *zones.Registry, unitReg *units.Registry, sender Sender) *Coordinator {
	return &Coordinator{
		zones:  zoneReg,
		units:  unitReg,
		queue:  NewEventQueue(),
		books:  newBooks(),
		sender: sender,
		log:    logger.WithPrefix("coordinator"),
	}
}

// Zones exposes the zone registry.
func (c *Coordinator) Zones() *zones.Registry { return c.zones }

// Units exposes the unit registry.
func (c *Coordinator) Units() *units.Registry { return c.units }

// Queue exposes the event queue.
func (c *Coordinator) Queue() *EventQueue { return c.queue }

// IngestEvent acknowledges a fire event by enqueueing it for the process
// loop.
func (c *Coordinator) IngestEvent(ev *models.FireEvent) {
	c.log.Infof("queued %s event %s for zone %d (%s)", ev.Type, ev.ShortID(), ev.ZoneID, ev.Severity)
	c.queue.Push(ev)
}

// Tick runs one process-loop iteration: drain at most one event, then
// reconcile every active fire regardless. It reports whether an event was
// processed.
func (c *Coordinator) Tick() bool {
	ev := c.queue.Poll()
	if ev != nil {
		c.processEvent(ev)
	}
	c.ReconcileActiveFires()
	return ev != nil
}

// processEvent folds an event into the zone registry and dispatches.
// Severity only grows while a fire stays active; the requirement follows.
func (c *Coordinator) processEvent(ev *models.FireEvent) {
	if ev.Type != models.EventTypeFire {
		c.log.Debugf("ignoring event type %q for zone %d", ev.Type, ev.ZoneID)
		return
	}

	severity := ev.Severity
	if z := c.zones.Get(ev.ZoneID); z != nil {
		if burning, current := z.Status(); burning && current.Weight() > severity.Weight() {
			severity = current
		}
	}
	c.zones.UpdateFireStatus(ev.ZoneID, true, severity)
	required := c.books.raiseRequired(ev.ZoneID, severity.UnitsRequired())
	c.dispatch(ev, required)
}

// dispatch staffs one zone's fire up to min(required, unitsForSeverity),
// recounting live assignments first to tolerate stale bookkeeping.
func (c *Coordinator) dispatch(ev *models.FireEvent, required int) {
	zoneID := ev.ZoneID
	z := c.zones.Get(zoneID)
	if z == nil {
		return
	}
	burning, severity := z.Status()
	if !burning {
		return
	}

	live := c.units.CountNonIdleForZone(zoneID)
	c.books.setAssigned(zoneID, live)

	target := min(required, severity.UnitsRequired())
	if c.books.isFully(zoneID) || live >= target {
		if live >= target && target > 0 {
			c.books.markFully(zoneID)
		}
		return
	}

	center := z.Center()
	for remaining := target - live; remaining > 0; remaining-- {
		u := c.selectBest(ev, center)
		if u == nil {
			c.log.Debugf("no available unit for zone %d, %d still needed", zoneID, remaining)
			break
		}
		if !c.commit(u, ev, center) {
			break
		}
	}
}

// selectBest picks the best available unit for an event: fewest zones
// serviced, then closest to the fire, then lowest drone id. Units already
// on this event instance and hard-faulted units are excluded.
func (c *Coordinator) selectBest(ev *models.FireEvent, center geo.Point) *units.Unit {
	var candidates []*units.Unit
	for _, u := range c.units.All() {
		if !u.Available() || u.Error().Hard() {
			continue
		}
		if ev.AssignedIndex(u.DroneID) >= 0 {
			continue
		}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := candidates[i].Serviced(), candidates[j].Serviced()
		if si != sj {
			return si < sj
		}
		di := geo.Distance(candidates[i].Location(), center)
		dj := geo.Distance(candidates[j].Location(), center)
		if di != dj {
			return di < dj
		}
		return candidates[i].DroneID < candidates[j].DroneID
	})
	return candidates[0]
}

// commit claims the unit, records the assignment, and sends the event. The
// claim is a compare-and-set: the process loop, the proactive sweep, and the
// idle-follow-up workers all commit concurrently, and exactly one of them
// may take a given airframe. A lost claim or a send failure leaves no trace.
func (c *Coordinator) commit(u *units.Unit, ev *models.FireEvent, center geo.Point) bool {
	if !u.BeginTaskIfAvailable(ev, center) {
		return false
	}
	if !ev.Assign(u.DroneID) {
		u.RevertTask()
		return false
	}
	c.books.incAssigned(ev.ZoneID)

	if err := c.sender.SendToUnit(u.DroneID, ev.Clone()); err != nil {
		c.log.Debugf("send to %s failed, reverting assignment for zone %d: %v", u.DroneID, ev.ZoneID, err)
		c.books.decAssigned(ev.ZoneID)
		u.RevertTask()
		return false
	}
	c.log.Infof("dispatched %s to zone %d (%s, event %s)", u.DroneID, ev.ZoneID, ev.Severity, ev.ShortID())
	return true
}

// FindAssignmentForIdle offers a freshly idle unit to the neediest burning
// zone, if any still wants staff.
func (c *Coordinator) FindAssignmentForIdle(u *units.Unit) {
	if !u.Available() {
		return
	}

	type scored struct {
		zone     *zones.Zone
		severity models.Severity
		ratio    float64
	}
	var best *scored
	for _, z := range c.zones.ActiveFires() {
		_, severity := z.Status()
		required := c.books.requiredFor(z.ID)
		assigned := c.books.assignedFor(z.ID)
		if c.books.isFully(z.ID) || (required > 0 && assigned >= required) {
			continue
		}
		if c.units.CountNonIdleForZone(z.ID) >= severity.UnitsRequired() {
			continue
		}
		ratio := 1.0
		if required > 0 {
			ratio = float64(assigned) / float64(required)
		}
		cand := &scored{zone: z, severity: severity, ratio: ratio}
		if best == nil || moreUrgent(cand.severity, cand.ratio, cand.zone.ID, best.severity, best.ratio, best.zone.ID) {
			best = cand
		}
	}
	if best == nil {
		return
	}

	ev := models.NewFireEvent(nowStamp(), best.zone.ID, best.severity, models.ErrorNone)
	c.commit(u, ev, best.zone.Center())
}

func moreUrgent(sevA models.Severity, ratioA float64, idA int, sevB models.Severity, ratioB float64, idB int) bool {
	if sevA.Weight() != sevB.Weight() {
		return sevA.Weight() > sevB.Weight()
	}
	if ratioA != ratioB {
		return ratioA < ratioB
	}
	return idA < idB
}

// ReconcileActiveFires sweeps every burning zone: refresh the requirement
// from the zone's severity, recount assignments, staff the deficit from
// available units, and as a last resort pull en-route units off strictly
// lower-severity fires.
func (c *Coordinator) ReconcileActiveFires() {
	fires := c.zones.ActiveFires()
	sort.Slice(fires, func(i, j int) bool {
		_, si := fires[i].Status()
		_, sj := fires[j].Status()
		if si.Weight() != sj.Weight() {
			return si.Weight() > sj.Weight()
		}
		return c.staffingRatio(fires[i].ID) < c.staffingRatio(fires[j].ID)
	})

	for _, z := range fires {
		burning, severity := z.Status()
		if !burning {
			continue
		}
		required := severity.UnitsRequired()
		c.books.raiseRequired(z.ID, required)
		c.books.clampRequired(z.ID, required)

		live := c.units.CountNonIdleForZone(z.ID)
		c.books.setAssigned(z.ID, live)
		if live >= required {
			c.books.markFully(z.ID)
			continue
		}

		deficit := required - live
		ev := models.NewFireEvent(nowStamp(), z.ID, severity, models.ErrorNone)
		center := z.Center()
		for deficit > 0 {
			u := c.selectBest(ev, center)
			if u == nil {
				break
			}
			if !c.commit(u, ev, center) {
				break
			}
			deficit--
		}

		if deficit > 0 {
			c.redirectToward(z, severity, center, deficit)
		}
	}
}

func (c *Coordinator) staffingRatio(zoneID int) float64 {
	required := c.books.requiredFor(zoneID)
	if required <= 0 {
		return 1.0
	}
	return float64(c.books.assignedFor(zoneID)) / float64(required)
}

// redirectToward pulls up to deficit en-route units off strictly
// lower-severity fires and points them at this zone. The unit's own state
// machine performs the abandon-and-retarget; here it is purely a message
// plus bookkeeping.
func (c *Coordinator) redirectToward(z *zones.Zone, severity models.Severity, center geo.Point, deficit int) {
	type candidate struct {
		unit     *units.Unit
		oldZone  int
		distance int
	}
	var candidates []candidate
	for _, u := range c.units.All() {
		if u.StateNow() != models.StateEnRoute {
			continue
		}
		task := u.CurrentTask()
		if task == nil || task.ZoneID == z.ID {
			continue
		}
		if task.Severity.Weight() >= severity.Weight() {
			continue
		}
		candidates = append(candidates, candidate{
			unit:     u,
			oldZone:  task.ZoneID,
			distance: geo.Distance(u.Location(), center),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].unit.DroneID < candidates[j].unit.DroneID
	})

	for _, cand := range candidates {
		if deficit == 0 {
			return
		}
		ev := models.NewFireEvent(nowStamp(), z.ID, severity, models.ErrorNone)
		if !ev.Assign(cand.unit.DroneID) {
			continue
		}
		if err := c.sender.SendToUnit(cand.unit.DroneID, ev.Clone()); err != nil {
			c.log.Debugf("redirection of %s to zone %d failed: %v", cand.unit.DroneID, z.ID, err)
			continue
		}
		c.books.decAssigned(cand.oldZone)
		c.books.incAssigned(z.ID)
		cand.unit.BeginTask(ev, center)
		c.log.Infof("redirected %s from zone %d to zone %d (event %s)", cand.unit.DroneID, cand.oldZone, z.ID, ev.ShortID())
		deficit--
	}
}

// CleanupInactive erases bookkeeping and queued events for zones whose fire
// is out.
func (c *Coordinator) CleanupInactive() {
	for _, z := range c.zones.All() {
		if burning, _ := z.Status(); burning {
			continue
		}
		c.books.forget(z.ID)
		if purged := c.queue.PurgeZone(z.ID); purged > 0 {
			c.log.Debugf("purged %d stale events for zone %d", purged, z.ID)
		}
	}
}

// Snapshot assembles the current picture for the visualization sink.
func (c *Coordinator) Snapshot() SnapshotData {
	required, assigned, fully := c.books.snapshot()
	data := SnapshotData{
		Required:   required,
		Assigned:   assigned,
		Fully:      fully,
		QueueDepth: c.queue.Len(),
	}
	for _, z := range c.zones.All() {
		data.Zones = append(data.Zones, z)
	}
	for _, u := range c.units.All() {
		data.Units = append(data.Units, u.Snapshot())
	}
	return data
}

// SnapshotData is the raw material the server turns into a viz.Snapshot.
type SnapshotData struct {
	Zones      []*zones.Zone
	Units      []units.Snapshot
	Required   map[int]int
	Assigned   map[int]int
	Fully      map[int]bool
	QueueDepth int
}

func nowStamp() string {
	return time.Now().Format("15:04:05")
}
