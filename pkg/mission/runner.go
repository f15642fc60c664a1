package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/transport"
	"github.com/emberops/firefleet/pkg/units"
	"github.com/emberops/firefleet/pkg/wire"
)

// receivePoll bounds each blocking receive so shutdown is cooperative.
const receivePoll = 250 * time.Millisecond

const zoneInfoAttempts = 3

// Runner wires a mission engine to its UDP endpoints: assignments arrive on
// the unit's receive port, telemetry and zone-info requests go out through
// its send port to the coordinator.
type Runner struct {
	droneID          string
	engine           *Engine
	send             *transport.Endpoint
	recv             *transport.Endpoint
	coordReceivePort int
	log              logger.Logger
}

// NewRunner binds the unit's ports and builds the engine. Bind failures are
// fatal to the caller.
func NewRunner(droneID string, base geo.Point, spec units.Spec, cfg Config, coordReceivePort int) (*Runner, error) {
	n, err := transport.DroneNumber(droneID)
	if err != nil {
		return nil, err
	}

	send, err := transport.NewEndpoint(transport.UnitSendPort(n))
	if err != nil {
		return nil, err
	}
	recv, err := transport.NewEndpoint(transport.UnitReceivePort(n))
	if err != nil {
		_ = send.Close()
		return nil, err
	}

	r := &Runner{
		droneID:          droneID,
		send:             send,
		recv:             recv,
		coordReceivePort: coordReceivePort,
		log:              logger.WithPrefix(droneID),
	}
	r.engine = NewEngine(droneID, base, spec, cfg, r, r)
	return r, nil
}

// Engine exposes the underlying mission engine.
func (r *Runner) Engine() *Engine {
	return r.engine
}

// Report implements Reporter over the unit's send socket.
func (r *Runner) Report(t *models.Telemetry) error {
	return r.send.SendTo(r.coordReceivePort, wire.EncodeTelemetry(t))
}

// ZoneCenter implements ZoneResolver by querying the coordinator's
// zone-info service.
func (r *Runner) ZoneCenter(zoneID int) (geo.Point, error) {
	var lastErr error
	for attempt := 0; attempt < zoneInfoAttempts; attempt++ {
		if err := r.send.SendTo(r.coordReceivePort, wire.EncodeZoneInfoRequest(zoneID)); err != nil {
			lastErr = err
			continue
		}
		data, _, err := r.send.Receive(receivePoll)
		if err != nil {
			lastErr = err
			continue
		}
		id, cx, cy, err := wire.DecodeZoneInfo(data)
		if err != nil || id != zoneID {
			lastErr = fmt.Errorf("unexpected zone info reply %q", string(data))
			continue
		}
		return geo.Point{X: cx, Y: cy}, nil
	}
	return geo.Point{}, fmt.Errorf("zone %d center unavailable: %w", zoneID, lastErr)
}

// Run starts the engine and pumps inbound assignments until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.engine.Start()
	r.log.Infof("unit online, listening on port %d", r.recv.Port())

	for {
		select {
		case <-ctx.Done():
			return r.shutdown()
		default:
		}

		data, _, err := r.recv.Receive(receivePoll)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			if errors.Is(err, transport.ErrClosed) {
				return r.shutdown()
			}
			r.log.Debugf("receive failed: %v", err)
			continue
		}

		if wire.Classify(data) != wire.KindFireEvent {
			r.log.Debugf("ignoring non-event datagram %q", string(data))
			continue
		}
		ev, err := wire.DecodeFireEvent(data)
		if err != nil {
			r.log.Debugf("discarding malformed event %q: %v", string(data), err)
			continue
		}
		r.engine.EnqueueEvent(ev)
	}
}

func (r *Runner) shutdown() error {
	r.engine.Stop()
	_ = r.send.Close()
	_ = r.recv.Close()
	r.log.Info("unit stopped")
	return nil
}
