package dispatch

import (
	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/units"
)

// HandleTelemetry folds one telemetry report into the registries and the
// assignment ledger. It returns the unit record and whether the unit just
// went idle, so the caller can schedule an idle follow-up off the receive
// path.
func (c *Coordinator) HandleTelemetry(t *models.Telemetry) (u *units.Unit, becameIdle bool) {
	u = c.units.GetOrRegister(t.DroneID, geo.Point{X: t.X, Y: t.Y})

	if t.FireOut != nil {
		c.FireOut(*t.FireOut)
	}
	if t.Abandoned != nil {
		c.books.decAssigned(*t.Abandoned)
		c.log.Infof("%s abandoned zone %d", t.DroneID, *t.Abandoned)
	}
	if t.Task != nil {
		u.AssociateTask(*t.Task)
	}
	if t.Capacity != nil && *t.Capacity == 0 && t.Task != nil {
		drops := c.zones.RecordDrop(t.Task.ZoneID)
		c.log.Debugf("%s dropped agent on zone %d (drop %d)", t.DroneID, t.Task.ZoneID, drops)
	}

	_, prevTask := u.ApplyTelemetry(t)

	switch t.State {
	case models.StateIdle:
		if prevTask != nil {
			c.books.decAssigned(prevTask.ZoneID)
		}
		becameIdle = true
	case models.StateFault:
		// The faulted unit no longer staffs its zone; release the
		// assignment so reconciliation dispatches a replacement.
		if prevTask != nil {
			c.books.decAssigned(prevTask.ZoneID)
			c.log.Warnf("%s faulted (%s), released zone %d", t.DroneID, t.Error, prevTask.ZoneID)
		}
	}
	return u, becameIdle
}

// FireOut closes a zone's fire: flag and severity cleared, drop counter
// reset, ledger erased, queued events purged. Safe to call repeatedly; the
// second and later calls change nothing.
func (c *Coordinator) FireOut(zoneID int) {
	z := c.zones.Get(zoneID)
	if z != nil {
		if burning, _ := z.Status(); burning {
			c.log.Infof("fire out in zone %d", zoneID)
		}
	}
	c.zones.UpdateFireStatus(zoneID, false, models.SeverityNone)
	c.books.forget(zoneID)
	c.queue.PurgeZone(zoneID)
}
