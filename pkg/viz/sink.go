// Package viz receives read-only snapshots of the coordination picture on a
// throttled cadence. The dispatch core never calls a sink synchronously.
package viz

import (
	"time"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/units"
)

// ZoneStatus is one zone's row in a snapshot.
type ZoneStatus struct {
	ID       int
	Center   geo.Point
	HasFire  bool
	Severity models.Severity
	Drops    int
	Required int
	Assigned int
	Fully    bool
}

// Snapshot is a consistent view of zones, units, and queue depth.
type Snapshot struct {
	At         time.Time
	Zones      []ZoneStatus
	Units      []units.Snapshot
	QueueDepth int
}

// Sink consumes snapshots.
type Sink interface {
	Publish(s Snapshot)
}

// NopSink discards snapshots; the default for tests.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(Snapshot) {}
