package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/drivesim/internal/core/checkpoint"
	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/episode"
	"github.com/zeusync/drivesim/internal/core/events/bus"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/perception"
	"github.com/zeusync/drivesim/internal/core/systems"
	"github.com/zeusync/drivesim/internal/core/track"
	"github.com/zeusync/drivesim/internal/core/vehicle"
	"github.com/zeusync/drivesim/pkg/concurrent"
)

// VehicleID identifies a spawned vehicle.
type VehicleID string

// driver binds one vehicle to its controller. Its fields are touched only by
// the stepper, and during parallel sensing only by the worker that owns it.
type driver struct {
	id      VehicleID
	ctrl    controller.Controller
	state   vehicle.State
	command controller.Command
	sensors perception.SensorVector
	tracker *checkpoint.Tracker
}

// Stepper advances a set of vehicles on one track in fixed ticks. Step, Advance
// and Run must be called from a single goroutine; Snapshot and the other
// readers are safe to call concurrently.
type Stepper struct {
	mu sync.RWMutex

	cfg    Config
	track  *track.Track
	kin    *vehicle.Kinematics
	caster *perception.Caster
	eval   *episode.Evaluator
	bus    bus.EventBus
	logger log.Log

	drivers []*driver
	active  []*driver

	tick    uint64
	elapsed time.Duration
	acc     time.Duration
	done    bool
	metrics systems.Metrics
}

var _ systems.System = (*Stepper)(nil)

// NewStepper validates cfg and binds it to trk. A nil bus or logger gets a
// private bus or a no-op logger.
func NewStepper(cfg Config, trk *track.Track, eventBus bus.EventBus, logger log.Log) (*Stepper, error) {
	if trk == nil {
		return nil, ErrNoTrack
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Stepper{
		cfg:    cfg,
		track:  trk,
		kin:    vehicle.New(cfg.Vehicle),
		caster: perception.NewCaster(trk, cfg.MaxRange),
		eval:   episode.NewEvaluator(cfg.Episode),
		bus:    eventBus,
		logger: logger.With(log.String("component", "simulation")),
	}, nil
}

func (s *Stepper) Name() string                    { return "simulation" }
func (s *Stepper) Config() Config                  { return s.cfg }
func (s *Stepper) Track() *track.Track             { return s.track }
func (s *Stepper) Caster() *perception.Caster      { return s.caster }
func (s *Stepper) Evaluator() *episode.Evaluator   { return s.eval }
func (s *Stepper) Bus() bus.EventBus               { return s.bus }
func (s *Stepper) Kinematics() *vehicle.Kinematics { return s.kin }

// Spawn places a vehicle driven by ctrl at the track start. Its first command
// is decided immediately so the first tick already has input. A controller
// instance must not drive more than one vehicle when Workers > 1.
func (s *Stepper) Spawn(ctrl controller.Controller) (VehicleID, error) {
	if ctrl == nil {
		return "", ErrNilController
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return "", ErrEpisodeOver
	}

	d := &driver{
		id:      VehicleID(uuid.NewString()),
		ctrl:    ctrl,
		tracker: checkpoint.NewTracker(),
	}
	s.respawnLocked(d)
	s.drivers = append(s.drivers, d)

	s.logger.Debug("vehicle spawned",
		log.String("vehicle", string(d.id)),
		log.String("controller", ctrl.Kind().String()),
	)
	return d.id, nil
}

// Clear removes every vehicle and resets the episode.
func (s *Stepper) Clear() {
	s.mu.Lock()
	s.drivers = nil
	s.resetLocked()
	s.mu.Unlock()
}

// Reset starts a new episode with the same vehicles and controllers, all back
// at the start pose with fresh state.
func (s *Stepper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	for _, d := range s.drivers {
		s.respawnLocked(d)
	}
}

func (s *Stepper) resetLocked() {
	s.tick, s.elapsed, s.acc = 0, 0, 0
	s.done = false
	s.eval.Reset()
}

func (s *Stepper) respawnLocked(d *driver) {
	d.state = vehicle.Spawn(s.track.Start)
	d.command = controller.Command{}
	d.tracker.Reset()
	s.eval.Register(string(d.id), d.ctrl.Kind().String())
	s.sense(d)
}

// Step runs exactly one tick.
func (s *Stepper) Step() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return ErrEpisodeOver
	}
	events, err := s.stepLocked()
	s.mu.Unlock()

	s.publish(events)
	return err
}

// FixedUpdate is Step under the systems.System contract.
func (s *Stepper) FixedUpdate() error { return s.Step() }

// Advance adds wall time to the accumulator and drains it in whole ticks,
// carrying the remainder. It returns the number of ticks run.
func (s *Stepper) Advance(elapsed time.Duration) int {
	s.mu.Lock()
	s.acc += elapsed
	s.mu.Unlock()

	ran := 0
	for {
		s.mu.Lock()
		if s.done || s.acc < s.cfg.Tick {
			s.mu.Unlock()
			return ran
		}
		s.acc -= s.cfg.Tick
		events, err := s.stepLocked()
		s.mu.Unlock()

		s.publish(events)
		if err != nil {
			s.logger.Warn("tick failed", log.Uint64("tick", s.Tick()), log.Error(err))
		}
		ran++
	}
}

func (s *Stepper) stepLocked() ([]bus.Event, error) {
	start := time.Now()
	dt := s.cfg.Tick.Seconds()
	tick := s.tick + 1

	var (
		events []bus.Event
		errs   error
	)

	s.active = s.active[:0]
	for _, d := range s.drivers {
		id := string(d.id)
		if !s.eval.Alive(id) {
			continue
		}

		offTrack := s.track.IsOffTrack(d.state.Position)
		retired, reason, err := s.eval.Check(id, d.state.Speed, offTrack, s.cfg.Tick)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if retired {
			d.state.OffTrack = true
			res, _ := s.eval.Result(id)
			events = append(events, bus.NewEvent(EventOffTrack, id, tick, OffTrack{
				Vehicle:  d.id,
				Reason:   reason,
				Position: d.state.Position,
				Fitness:  res.Fitness,
			}))
			s.logger.Debug("vehicle retired",
				log.String("vehicle", id),
				log.String("reason", string(reason)),
				log.Uint64("tick", tick),
			)
			continue
		}

		prev := d.state.Position
		s.kin.Update(&d.state, d.command, dt)
		if err = s.eval.Report(id, d.state.Position.Dist(prev)); err != nil {
			errs = errors.Join(errs, err)
		}

		if idx, crossed := d.tracker.Check(prev, d.state.Position, s.track.Checkpoints); crossed {
			s.eval.CheckpointCrossed(id)
			events = append(events, bus.NewEvent(EventCheckpointCrossed, id, tick, CheckpointCrossed{
				Vehicle:    d.id,
				Checkpoint: idx,
				Position:   d.state.Position,
			}))
		}

		s.active = append(s.active, d)
	}

	err := concurrent.Range(context.Background(), len(s.active), s.cfg.Workers, func(_ context.Context, idx int) error {
		s.sense(s.active[idx])
		return nil
	})
	errs = errors.Join(errs, err)

	s.tick = tick
	s.elapsed += s.cfg.Tick

	switch {
	case s.eval.Active() == 0:
		events = append(events, s.finishLocked(episode.ReasonAllOut))
	case s.elapsed >= s.cfg.Episode.Budget:
		events = append(events, s.finishLocked(episode.ReasonBudget))
	}

	s.metrics.Observe(start, len(s.drivers), errs)
	return events, errs
}

// sense refreshes the sensor fan and asks the controller for the next command.
func (s *Stepper) sense(d *driver) {
	d.sensors = s.caster.Fan(d.sensors, d.state.Position, d.state.Angle, s.cfg.Sensors)
	d.command = d.ctrl.Decide(controller.Observation{
		Sensors:  d.sensors,
		Speed:    d.state.Speed,
		Steering: d.state.Steering,
	})
}

func (s *Stepper) finishLocked(reason episode.EndReason) bus.Event {
	s.eval.Finish(reason)
	s.done = true

	summary := EpisodeEnded{
		Reason:  reason,
		Ticks:   s.tick,
		Elapsed: s.elapsed,
		Results: s.eval.Results(),
	}
	s.logger.Info("episode ended",
		log.String("reason", string(reason)),
		log.Uint64("ticks", s.tick),
		log.Duration("elapsed", s.elapsed),
		log.Int("vehicles", len(s.drivers)),
	)
	return bus.NewEvent(EventEpisodeEnded, s.Name(), s.tick, summary)
}

// Finish ends the episode early, e.g. on cancellation. It is a no-op once the
// episode is over.
func (s *Stepper) Finish(reason episode.EndReason) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	ev := s.finishLocked(reason)
	s.mu.Unlock()

	s.publish([]bus.Event{ev})
}

func (s *Stepper) publish(events []bus.Event) {
	for _, ev := range events {
		if err := s.bus.Publish(ev); err != nil {
			s.logger.Warn("event handler failed",
				log.String("event", ev.Type()),
				log.Error(err),
			)
		}
	}
}

// Run drives one episode to completion and returns its results. Without
// Realtime it steps as fast as possible; with it, a ticker feeds Advance with
// wall time. Cancelling ctx ends the episode with ReasonCancelled.
func (s *Stepper) Run(ctx context.Context) ([]episode.Result, error) {
	if s.cfg.Realtime {
		return s.runRealtime(ctx)
	}

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.Finish(episode.ReasonCancelled)
			return s.eval.Results(), err
		}
		if err := s.Step(); err != nil && !errors.Is(err, ErrEpisodeOver) {
			return s.eval.Results(), fmt.Errorf("tick %d: %w", s.Tick(), err)
		}
	}
	return s.eval.Results(), nil
}

func (s *Stepper) runRealtime(ctx context.Context) ([]episode.Result, error) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	last := time.Now()
	for !s.Done() {
		select {
		case <-ctx.Done():
			s.Finish(episode.ReasonCancelled)
			return s.eval.Results(), ctx.Err()
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
	return s.eval.Results(), nil
}

func (s *Stepper) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

func (s *Stepper) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Elapsed is simulated time since the episode started.
func (s *Stepper) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// Pending is the accumulated time not yet consumed by a tick.
func (s *Stepper) Pending() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acc
}

func (s *Stepper) Results() []episode.Result { return s.eval.Results() }

// Drivers lists vehicle ids in spawn order.
func (s *Stepper) Drivers() []VehicleID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]VehicleID, len(s.drivers))
	for i, d := range s.drivers {
		ids[i] = d.id
	}
	return ids
}

// State returns a copy of a vehicle's physical state.
func (s *Stepper) State(id VehicleID) (vehicle.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drivers {
		if d.id == id {
			return d.state, true
		}
	}
	return vehicle.State{}, false
}

// Snapshot copies the current state of every vehicle.
func (s *Stepper) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frame := Frame{
		Tick:     s.tick,
		Elapsed:  s.elapsed.Seconds(),
		Done:     s.done,
		Vehicles: make([]VehicleSnapshot, len(s.drivers)),
	}
	for i, d := range s.drivers {
		res, _ := s.eval.Result(string(d.id))
		frame.Vehicles[i] = VehicleSnapshot{
			ID:       d.id,
			Kind:     d.ctrl.Kind().String(),
			X:        d.state.Position.X,
			Y:        d.state.Position.Y,
			Angle:    d.state.Angle,
			Speed:    d.state.Speed,
			Steering: d.state.Steering,
			OffTrack: d.state.OffTrack,
			Fitness:  res.Fitness,
			Sensors:  append([]float64(nil), d.sensors...),
		}
	}
	return frame
}

// Metrics reports tick timing.
func (s *Stepper) Metrics() systems.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

func (s *Stepper) GetMetrics() systems.Metrics { return s.Metrics() }
