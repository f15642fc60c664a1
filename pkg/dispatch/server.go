package dispatch

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/transport"
	"github.com/emberops/firefleet/pkg/units"
	"github.com/emberops/firefleet/pkg/viz"
	"github.com/emberops/firefleet/pkg/wire"
	"github.com/emberops/firefleet/pkg/zones"
)

// receivePoll bounds each blocking receive so the loop can notice shutdown.
const receivePoll = 250 * time.Millisecond

// processIdleWait is how long the process loop sleeps when the queue is
// empty.
const processIdleWait = 50 * time.Millisecond

// drainTimeout bounds how long Shutdown waits for loops to exit.
const drainTimeout = time.Second

// ServerConfig carries the coordinator process settings.
type ServerConfig struct {
	SendPort    int
	ReceivePort int

	CleanupInterval   time.Duration
	CleanupDelay      time.Duration
	ProactiveInterval time.Duration
	ProactiveDelay    time.Duration
	SnapshotInterval  time.Duration
	Workers           int
}

// Server runs the coordinator over its UDP endpoints: a receive loop, a
// process loop, two periodic timers, and a bounded worker pool for idle
// follow-ups.
type Server struct {
	coord *Coordinator
	cfg   ServerConfig
	send  *transport.Endpoint
	recv  *transport.Endpoint
	log   logger.Logger

	sinkMu sync.RWMutex
	sink   viz.Sink

	running  atomic.Bool
	jobs     chan func()
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer binds the coordinator's two endpoints and assembles the
// dispatch engine around them. Bind failure is fatal to the caller.
func NewServer(cfg ServerConfig, zoneReg *zones.Registry, unitReg *units.Registry, sink viz.Sink) (*Server, error) {
	send, err := transport.NewEndpoint(cfg.SendPort)
	if err != nil {
		return nil, err
	}
	recv, err := transport.NewEndpoint(cfg.ReceivePort)
	if err != nil {
		_ = send.Close()
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if sink == nil {
		sink = viz.NopSink{}
	}

	s := &Server{
		cfg:  cfg,
		send: send,
		recv: recv,
		sink: sink,
		log:  logger.WithPrefix("coordinator"),
		jobs: make(chan func(), 64),
		stop: make(chan struct{}),
	}
	s.coord = NewCoordinator(zoneReg, unitReg, &udpSender{endpoint: send})
	return s, nil
}

// Coordinator exposes the dispatch engine.
func (s *Server) Coordinator() *Coordinator {
	return s.coord
}

// SetSink swaps the visualization sink.
func (s *Server) SetSink(sink viz.Sink) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sink = sink
}

// Run starts every loop and blocks until the context is cancelled, then
// shuts down.
func (s *Server) Run(ctx context.Context) error {
	s.running.Store(true)
	s.log.Infof("coordinator online, receiving on port %d", s.recv.Port())

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.wg.Add(2)
	go s.receiveLoop()
	go s.processLoop()
	s.startTimers()

	<-ctx.Done()
	return s.Shutdown()
}

// Shutdown stops the loops, closes the sockets, and waits up to one second
// for everything to drain.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		close(s.stop)
		_ = s.send.Close()
		_ = s.recv.Close()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.log.Warn("shutdown drain timed out")
	}
	s.log.Info("coordinator stopped")
	return nil
}

// receiveLoop drains the inbound socket and routes each datagram by kind.
func (s *Server) receiveLoop() {
	defer s.wg.Done()
	for s.running.Load() {
		data, sender, err := s.recv.Receive(receivePoll)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			if errors.Is(err, transport.ErrClosed) {
				return
			}
			s.log.Debugf("receive failed: %v", err)
			continue
		}
		s.OnDatagram(data, sender)
	}
}

// OnDatagram classifies and handles one datagram. Malformed datagrams are
// discarded without mutating state.
func (s *Server) OnDatagram(data []byte, sender *net.UDPAddr) {
	switch wire.Classify(data) {
	case wire.KindTelemetry:
		t, err := wire.DecodeTelemetry(data)
		if err != nil {
			s.log.Debugf("discarding malformed telemetry %q: %v", string(data), err)
			return
		}
		u, becameIdle := s.coord.HandleTelemetry(t)
		if becameIdle {
			s.submit(func() { s.coord.FindAssignmentForIdle(u) })
		}
	case wire.KindFireEvent:
		ev, err := wire.DecodeFireEvent(data)
		if err != nil {
			s.log.Debugf("discarding malformed event %q: %v", string(data), err)
			return
		}
		if sender != nil {
			if err := s.recv.Reply(sender, []byte(wire.Ack)); err != nil {
				s.log.Debugf("ack to %s failed: %v", sender, err)
			}
		}
		s.coord.IngestEvent(ev)
	case wire.KindZoneInfoRequest:
		s.handleZoneInfo(data, sender)
	default:
		s.log.Debugf("discarding unclassified datagram %q", string(data))
	}
}

// handleZoneInfo answers a zone-info request synchronously, creating the
// zone on first mention.
func (s *Server) handleZoneInfo(data []byte, sender *net.UDPAddr) {
	zoneID, err := wire.DecodeZoneInfoRequest(data)
	if err != nil {
		s.log.Debugf("discarding malformed zone info request %q: %v", string(data), err)
		return
	}
	z := s.coord.Zones().GetOrCreate(zoneID)
	if z == nil || sender == nil {
		return
	}
	center := z.Center()
	if err := s.recv.Reply(sender, wire.EncodeZoneInfo(zoneID, center.X, center.Y)); err != nil {
		s.log.Debugf("zone info reply to %s failed: %v", sender, err)
	}
}

// processLoop drains the priority queue, reconciling after every poll.
func (s *Server) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if !s.coord.Tick() {
			select {
			case <-s.stop:
				return
			case <-time.After(processIdleWait):
			}
		}
	}
}

func (s *Server) startTimers() {
	s.wg.Add(1)
	go s.periodic(s.cfg.CleanupDelay, s.cfg.CleanupInterval, func() {
		s.coord.CleanupInactive()
	})

	s.wg.Add(1)
	go s.periodic(s.cfg.ProactiveDelay, s.cfg.ProactiveInterval, func() {
		if s.coord.Queue().Len() == 0 {
			s.coord.ReconcileActiveFires()
		}
	})

	if s.cfg.SnapshotInterval > 0 {
		s.wg.Add(1)
		go s.periodic(s.cfg.SnapshotInterval, s.cfg.SnapshotInterval, s.publishSnapshot)
	}
}

// periodic runs fn on a fixed interval after an initial delay, swallowing
// and logging panics so a timer cannot take the coordinator down.
func (s *Server) periodic(delay, interval time.Duration, fn func()) {
	defer s.wg.Done()
	select {
	case <-s.stop:
		return
	case <-time.After(delay):
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.guarded(fn)
		}
	}
}

func (s *Server) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case job := <-s.jobs:
			s.guarded(job)
		}
	}
}

func (s *Server) submit(job func()) {
	select {
	case s.jobs <- job:
	default:
		s.log.Warn("worker pool saturated, dropping follow-up (reconciliation will cover it)")
	}
}

func (s *Server) guarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("task panicked: %v", r)
		}
	}()
	fn()
}

func (s *Server) publishSnapshot() {
	data := s.coord.Snapshot()
	snap := viz.Snapshot{
		At:         time.Now(),
		Units:      data.Units,
		QueueDepth: data.QueueDepth,
	}
	for _, z := range data.Zones {
		burning, severity := z.Status()
		snap.Zones = append(snap.Zones, viz.ZoneStatus{
			ID:       z.ID,
			Center:   z.Center(),
			HasFire:  burning,
			Severity: severity,
			Drops:    z.DropCount(),
			Required: data.Required[z.ID],
			Assigned: data.Assigned[z.ID],
			Fully:    data.Fully[z.ID],
		})
	}

	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()
	sink.Publish(snap)
}

// udpSender delivers fire events to a unit's receive port.
type udpSender struct {
	endpoint *transport.Endpoint
}

func (u *udpSender) SendToUnit(droneID string, ev *models.FireEvent) error {
	n, err := transport.DroneNumber(droneID)
	if err != nil {
		return err
	}
	return u.endpoint.SendTo(transport.UnitReceivePort(n), wire.EncodeFireEvent(ev))
}
