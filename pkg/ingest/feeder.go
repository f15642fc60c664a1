package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/transport"
	"github.com/emberops/firefleet/pkg/wire"
)

// FeederConfig sets the replay pacing and endpoints.
type FeederConfig struct {
	SendPort        int
	CoordinatorPort int
	AckTimeout      time.Duration
	InterEventDelay time.Duration
}

// Feeder pushes fire events to the coordinator and waits for each ACK
// before moving on.
type Feeder struct {
	cfg      FeederConfig
	endpoint *transport.Endpoint
	log      logger.Logger
}

// NewFeeder binds the ingestion socket. A bind failure is fatal to the
// caller.
func NewFeeder(cfg FeederConfig) (*Feeder, error) {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = time.Second
	}
	if cfg.CoordinatorPort == 0 {
		cfg.CoordinatorPort = transport.CoordinatorReceivePort
	}
	endpoint, err := transport.NewEndpoint(cfg.SendPort)
	if err != nil {
		return nil, err
	}
	return &Feeder{cfg: cfg, endpoint: endpoint, log: logger.WithPrefix("ingest")}, nil
}

// Close releases the socket.
func (f *Feeder) Close() error {
	return f.endpoint.Close()
}

// Replay sends the events in order, pacing by InterEventDelay between
// acknowledged sends. An unacknowledged event is logged and skipped; replay
// stops early only when the context is cancelled.
func (f *Feeder) Replay(ctx context.Context, events []*models.FireEvent) error {
	for i, ev := range events {
		select {
		case <-ctx.Done():
			f.log.Infof("replay interrupted after %d of %d events", i, len(events))
			return ctx.Err()
		default:
		}

		if err := f.sendOne(ev); err != nil {
			f.log.Warnf("event for zone %d not acknowledged: %v", ev.ZoneID, err)
		}

		if f.cfg.InterEventDelay > 0 && i < len(events)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.cfg.InterEventDelay):
			}
		}
	}
	f.log.Infof("replay complete, %d events sent", len(events))
	return nil
}

// sendOne delivers one event and waits for the coordinator's ACK. Datagrams
// arriving in the ACK window that are not ACKs are discarded.
func (f *Feeder) sendOne(ev *models.FireEvent) error {
	if err := f.endpoint.SendTo(f.cfg.CoordinatorPort, wire.EncodeFireEvent(ev)); err != nil {
		return err
	}
	f.log.Infof("sent %s event for zone %d (%s)", ev.Type, ev.ZoneID, ev.Severity)

	deadline := time.Now().Add(f.cfg.AckTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errors.New("ack timed out")
		}
		data, _, err := f.endpoint.Receive(remaining)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				return errors.New("ack timed out")
			}
			return err
		}
		if wire.Classify(data) == wire.KindAck {
			return nil
		}
		f.log.Debugf("ignoring non-ack datagram %q while waiting", string(data))
	}
}
