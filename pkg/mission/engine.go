// Package mission runs a unit's asynchronous mission lifecycle: travel to a
// burning zone, drop suppressant, return to base, refill. The engine owns
// the unit's state machine and emits self-sufficient telemetry on every
// transition and throughout motion.
package mission

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
	"github.com/emberops/firefleet/pkg/units"
)

// Reporter delivers telemetry to the coordinator. Implementations must be
// safe for use from the mission goroutine.
type Reporter interface {
	Report(t *models.Telemetry) error
}

// ZoneResolver resolves a zone id to its center point.
type ZoneResolver interface {
	ZoneCenter(zoneID int) (geo.Point, error)
}

// Config bounds the engine's timers. Zero values fall back to defaults.
type Config struct {
	FrameInterval    time.Duration // motion interpolation step
	MaxMovementTime  time.Duration // movement watchdog
	MaxDropAgentTime time.Duration // nozzle watchdog
	RefillRate       float64       // L/s
}

func (c Config) withDefaults() Config {
	if c.FrameInterval <= 0 {
		c.FrameInterval = 50 * time.Millisecond
	}
	if c.MaxMovementTime <= 0 {
		c.MaxMovementTime = 30 * time.Second
	}
	if c.MaxDropAgentTime <= 0 {
		c.MaxDropAgentTime = 15 * time.Second
	}
	if c.RefillRate <= 0 {
		c.RefillRate = 4
	}
	return c
}

// legOutcome is the result of one travel or drop phase.
type legOutcome int

const (
	legArrived legOutcome = iota
	legRedirected
	legFault
	legStopped
)

// Engine is one unit's mission state machine.
type Engine struct {
	droneID  string
	base     geo.Point
	spec     units.Spec
	cfg      Config
	resolver ZoneResolver
	reporter Reporter
	log      logger.Logger

	inbound chan *models.FireEvent

	mu         sync.RWMutex
	state      models.UnitState
	pos        geo.Point
	target     geo.Point
	task       *models.FireEvent
	lastTaskID uuid.UUID // instance id of the most recently flown event
	errorKind  models.ErrorKind

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEngine creates an idle engine based at the given location.
func NewEngine(droneID string, base geo.Point, spec units.Spec, cfg Config, resolver ZoneResolver, reporter Reporter) *Engine {
	return &Engine{
		droneID:   droneID,
		base:      base,
		spec:      spec,
		cfg:       cfg.withDefaults(),
		resolver:  resolver,
		reporter:  reporter,
		log:       logger.WithPrefix(droneID),
		inbound:   make(chan *models.FireEvent, 16),
		state:     models.StateIdle,
		pos:       base,
		target:    base,
		errorKind: models.ErrorNone,
		stop:      make(chan struct{}),
	}
}

// Start launches the mission loop.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run()
	}()
}

// Stop terminates the mission loop and waits for it to drain.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
}

// EnqueueEvent hands a new or redirected task to the engine. It never
// blocks; events beyond the buffer are dropped with a warning.
func (e *Engine) EnqueueEvent(ev *models.FireEvent) {
	select {
	case e.inbound <- ev:
	default:
		e.log.Warnf("inbound event buffer full, dropping event for zone %d", ev.ZoneID)
	}
}

// StateName returns the current state's wire name.
func (e *Engine) StateName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return string(e.state)
}

// TelemetrySnapshot builds a telemetry message for the current state.
func (e *Engine) TelemetrySnapshot() *models.Telemetry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.telemetryLocked()
}

func (e *Engine) telemetryLocked() *models.Telemetry {
	t := &models.Telemetry{
		DroneID: e.droneID,
		State:   e.state,
		Error:   e.errorKind,
		X:       e.pos.X,
		Y:       e.pos.Y,
	}
	if e.task != nil && (e.state == models.StateEnRoute || e.state == models.StateDroppingAgent) {
		t.Task = &models.TaskRef{ZoneID: e.task.ZoneID, Severity: e.task.Severity}
	}
	return t
}

func (e *Engine) report(mutate func(t *models.Telemetry)) {
	e.mu.RLock()
	t := e.telemetryLocked()
	e.mu.RUnlock()
	if mutate != nil {
		mutate(t)
	}
	if err := e.reporter.Report(t); err != nil {
		e.log.Debugf("telemetry send failed: %v", err)
	}
}

func (e *Engine) setState(s models.UnitState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) run() {
	e.report(nil) // announce presence at base
	for {
		select {
		case <-e.stop:
			return
		case ev := <-e.inbound:
			if !e.acceptWhileIdle(ev) {
				continue
			}
			e.runMission(ev)
		}
	}
}

func (e *Engine) acceptWhileIdle(ev *models.FireEvent) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != models.StateIdle {
		e.log.Debugf("dropping event %s for zone %d while %s", ev.ShortID(), ev.ZoneID, e.state)
		return false
	}
	if ev.ID == e.lastTaskID {
		// Late re-delivery of an event instance already flown.
		e.log.Debugf("dropping re-delivered event %s for zone %d", ev.ShortID(), ev.ZoneID)
		return false
	}
	if e.errorKind.Hard() {
		e.log.Warnf("refusing assignment for zone %d: hard fault %s pending maintenance", ev.ZoneID, e.errorKind)
		return false
	}
	return true
}

// runMission drives one full lifecycle from EnRoute back to Idle.
func (e *Engine) runMission(ev *models.FireEvent) {
	center, err := e.resolver.ZoneCenter(ev.ZoneID)
	if err != nil {
		e.log.Errorf("cannot resolve zone %d: %v", ev.ZoneID, err)
		return
	}

	e.mu.Lock()
	e.task = ev
	e.lastTaskID = ev.ID
	e.target = center
	e.state = models.StateEnRoute
	e.mu.Unlock()
	e.log.Infof("en route to zone %d (%s fire) at %s", ev.ZoneID, ev.Severity, center)
	e.report(nil)

	// Outbound leg, restarted on every redirection.
	for {
		outcome := e.travel(e.currentTarget())
		if outcome == legStopped {
			return
		}
		if outcome == legRedirected {
			continue
		}
		if outcome == legFault {
			e.returnToBase()
			return
		}
		break
	}

	dropped := e.dropAgent()
	switch dropped {
	case legStopped:
		return
	case legRedirected:
		// retarget happened inside dropAgent; fly the new outbound leg
		e.runRetargetedLeg()
		return
	case legFault:
		e.returnToBase()
		return
	}

	e.returnToBase()
}

// runRetargetedLeg continues a mission after a mid-drop redirection.
func (e *Engine) runRetargetedLeg() {
	for {
		outcome := e.travel(e.currentTarget())
		switch outcome {
		case legStopped:
			return
		case legRedirected:
			continue
		case legFault:
			e.returnToBase()
			return
		}
		if e.dropAgent() == legRedirected {
			continue
		}
		e.returnToBase()
		return
	}
}

func (e *Engine) currentTarget() geo.Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target
}

func (e *Engine) currentTask() *models.FireEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.task
}

// travel interpolates motion toward dest at the frame rate, polling the
// inbound channel each frame so redirections take effect mid-flight.
func (e *Engine) travel(dest geo.Point) legOutcome {
	start := e.position()
	total := geo.Distance(start, dest)
	duration := e.spec.TravelTime(float64(total))
	stuck := e.stuckInjected()

	startedAt := time.Now()
	frames := time.NewTicker(e.cfg.FrameInterval)
	defer frames.Stop()

	for {
		select {
		case <-e.stop:
			return legStopped
		case ev := <-e.inbound:
			if e.isRedirection(ev) {
				e.redirect(ev)
				return legRedirected
			}
		case <-frames.C:
			elapsed := time.Since(startedAt)
			if elapsed > e.cfg.MaxMovementTime {
				e.enterFault(models.ErrorStuck)
				return legFault
			}
			if stuck {
				e.report(nil) // holding position, watchdog will trip
				continue
			}
			if duration <= 0 || elapsed >= duration {
				e.setPosition(dest)
				e.report(nil)
				return legArrived
			}
			frac := float64(elapsed) / float64(duration)
			e.setPosition(interpolate(start, dest, frac))
			e.report(nil)
		}
	}
}

// interpolate walks the axis-aligned path from a to b: the X leg first,
// then the Y leg.
func interpolate(a, b geo.Point, frac float64) geo.Point {
	total := geo.Distance(a, b)
	covered := int(float64(total) * frac)
	dx := b.X - a.X
	xLeg := abs(dx)
	if covered <= xLeg {
		return geo.Point{X: a.X + sign(dx)*covered, Y: a.Y}
	}
	dy := b.Y - a.Y
	yCovered := covered - xLeg
	if yCovered > abs(dy) {
		yCovered = abs(dy)
	}
	return geo.Point{X: b.X, Y: a.Y + sign(dy)*yCovered}
}

// isRedirection reports whether an inbound event retargets the unit: a new
// zone while en route or dropping agent is a redirection. Duplicates and
// late events are dropped.
func (e *Engine) isRedirection(ev *models.FireEvent) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.task == nil || ev.ZoneID == e.task.ZoneID {
		return false
	}
	return e.state == models.StateEnRoute || e.state == models.StateDroppingAgent
}

// redirect abandons the current task and retargets the engine, announcing
// both zones so the coordinator can re-score the abandoned one.
func (e *Engine) redirect(ev *models.FireEvent) {
	center, err := e.resolver.ZoneCenter(ev.ZoneID)
	if err != nil {
		e.log.Errorf("redirection to zone %d failed to resolve: %v", ev.ZoneID, err)
		return
	}

	e.mu.Lock()
	oldZone := e.task.ZoneID
	newZone := ev.ZoneID
	e.task = ev
	e.lastTaskID = ev.ID
	e.target = center
	e.state = models.StateEnRoute
	e.mu.Unlock()

	e.log.Infof("redirected from zone %d to zone %d", oldZone, newZone)
	e.report(func(t *models.Telemetry) {
		t.Abandoned = &oldZone
		t.NewTask = &newZone
	})
}

// dropAgent opens the nozzle and empties the tank. The inbound channel is
// still honoured so a higher-priority fire can pull the unit away.
func (e *Engine) dropAgent() legOutcome {
	task := e.currentTask()
	if task == nil || task.Severity.Weight() == 0 {
		// Fire already out per the latest view; skip the drop.
		return legArrived
	}

	e.setState(models.StateDroppingAgent)
	e.report(nil)
	e.log.Infof("dropping agent on zone %d", task.ZoneID)

	jammed := task.ErrorKind == models.ErrorNozzleJam
	duration := e.spec.FightTime(task.Severity)
	startedAt := time.Now()
	frames := time.NewTicker(e.cfg.FrameInterval)
	defer frames.Stop()

	for {
		select {
		case <-e.stop:
			return legStopped
		case ev := <-e.inbound:
			if e.isRedirection(ev) {
				e.redirect(ev)
				return legRedirected
			}
		case <-frames.C:
			elapsed := time.Since(startedAt)
			if elapsed > e.cfg.MaxDropAgentTime {
				e.enterFault(models.ErrorNozzleJam)
				return legFault
			}
			if jammed {
				continue // nozzle never opens, watchdog will trip
			}
			if elapsed >= duration {
				e.completeDrop(task)
				return legArrived
			}
		}
	}
}

// completeDrop empties the tank and reports, tagging FIRE_OUT when this
// unit's position in the ordered assignment list meets the severity's
// required unit count. The coordinator remains the final arbiter.
func (e *Engine) completeDrop(task *models.FireEvent) {
	e.mu.Lock()
	e.spec.Capacity = 0
	e.mu.Unlock()

	zero := 0.0
	zoneID := task.ZoneID
	required := task.Severity.UnitsRequired()
	position := task.AssignedIndex(e.droneID)
	if position < 0 {
		position = len(task.AssignedUnits)
	}

	e.report(func(t *models.Telemetry) {
		t.Capacity = &zero
		if required > 0 && position+1 >= required {
			t.FireOut = &zoneID
		}
	})
	e.log.Infof("drop complete on zone %d", zoneID)
}

// enterFault transitions to Fault. A nozzle jam is a hard fault that
// latches until maintenance; a stuck airframe clears at base.
func (e *Engine) enterFault(kind models.ErrorKind) {
	e.mu.Lock()
	e.state = models.StateFault
	e.errorKind = kind
	e.mu.Unlock()
	e.log.Warnf("fault: %s", kind)
	e.report(nil)
}

// returnToBase flies home, refills, and goes idle. Soft faults clear on
// arrival; a hard fault persists and keeps the unit out of service.
func (e *Engine) returnToBase() {
	start := e.position()
	duration := e.spec.TravelTime(float64(geo.Distance(start, e.base)))
	startedAt := time.Now()
	frames := time.NewTicker(e.cfg.FrameInterval)
	defer frames.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-e.inbound:
			// no redirections on the way home
		case <-frames.C:
			elapsed := time.Since(startedAt)
			if duration <= 0 || elapsed >= duration {
				e.setPosition(e.base)
				e.arriveAtBase()
				return
			}
			frac := float64(elapsed) / float64(duration)
			e.setPosition(interpolate(start, e.base, frac))
			e.report(nil)
		}
	}
}

func (e *Engine) arriveAtBase() {
	e.mu.Lock()
	e.state = models.StateArrivedToBase
	if e.errorKind == models.ErrorStuck {
		e.errorKind = models.ErrorNone
	}
	e.mu.Unlock()
	e.report(nil)

	refill := e.spec.RefillTime(e.cfg.RefillRate)
	select {
	case <-e.stop:
		return
	case <-time.After(refill):
	}

	e.mu.Lock()
	e.spec.Capacity = e.spec.FullCapacity
	full := e.spec.FullCapacity
	e.state = models.StateIdle
	e.task = nil
	e.target = e.base
	e.mu.Unlock()

	e.log.Info("refilled, idle at base")
	e.report(func(t *models.Telemetry) {
		t.Capacity = &full
	})
}

func (e *Engine) position() geo.Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

func (e *Engine) setPosition(p geo.Point) {
	e.mu.Lock()
	e.pos = p
	e.mu.Unlock()
}

func (e *Engine) stuckInjected() bool {
	task := e.currentTask()
	return task != nil && task.ErrorKind == models.ErrorStuck
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
