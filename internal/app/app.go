// Package app assembles the simulator from configuration and runs episodes.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/drivesim/internal/config"
	"github.com/zeusync/drivesim/internal/core/assets"
	"github.com/zeusync/drivesim/internal/core/controller"
	"github.com/zeusync/drivesim/internal/core/events/bus"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/core/simulation"
	"github.com/zeusync/drivesim/internal/core/track"
	"github.com/zeusync/drivesim/internal/server"
	"github.com/zeusync/drivesim/internal/storage"
)

type App struct {
	cfg      *config.Config
	logger   log.Log
	registry *assets.Registry
	track    *track.Track
	bus      bus.EventBus
	stepper  *simulation.Stepper
	keys     *controller.Keys
	server   *server.Server
	store    storage.Backend
	policy   *controller.LinearPolicy
	recorder *recorder
}

func New(
	cfg *config.Config,
	logger log.Log,
	registry *assets.Registry,
	trk *track.Track,
	eventBus bus.EventBus,
	stepper *simulation.Stepper,
	keys *controller.Keys,
	srv *server.Server,
	store storage.Backend,
	policy *controller.LinearPolicy,
) *App {
	logger = logger.With(log.String("component", "app"))
	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		track:    trk,
		bus:      eventBus,
		stepper:  stepper,
		keys:     keys,
		server:   srv,
		store:    store,
		policy:   policy,
		recorder: newRecorder(store, logger),
	}
}

func (a *App) Stepper() *simulation.Stepper { return a.stepper }
func (a *App) Server() *server.Server       { return a.server }
func (a *App) Store() storage.Backend       { return a.store }

// History lists the episodes finished so far.
func (a *App) History() []Report { return a.recorder.Reports() }

// Run simulates the configured number of episodes, or until ctx is cancelled
// when Episodes is 0. Cancellation is not an error.
func (a *App) Run(ctx context.Context) (err error) {
	if err = a.store.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if cerr := a.store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
		}
	}()

	sub, err := a.bus.Subscribe(simulation.EventEpisodeEnded, a.recorder.handle)
	if err != nil {
		return err
	}
	defer func() { _ = a.bus.Unsubscribe(sub) }()

	if a.server != nil {
		fwd, err := a.server.ForwardEvents(a.bus)
		if err != nil {
			return err
		}
		defer func() { _ = a.bus.Unsubscribe(fwd) }()

		if err = a.server.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := a.server.Stop(stopCtx); serr != nil {
				a.logger.Warn("telemetry server stop failed", log.Error(serr))
			}
		}()
		a.logger.Info("telemetry listening", log.String("addr", a.server.Addr()))
	}

	for n := 0; a.cfg.Episodes == 0 || n < a.cfg.Episodes; n++ {
		if ctx.Err() != nil {
			break
		}
		if err = a.runEpisode(ctx, n); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.logger.Info("simulation interrupted", log.Int("episode", n))
				return nil
			}
			return err
		}
	}
	return nil
}

func (a *App) runEpisode(ctx context.Context, n int) error {
	a.stepper.Clear()
	for i := 0; i < a.cfg.Controller.Count; i++ {
		ctrl, err := a.newController()
		if err != nil {
			return err
		}
		if _, err = a.stepper.Spawn(ctrl); err != nil {
			return err
		}
	}

	ep := storage.Episode{
		ID:        uuid.NewString(),
		Track:     a.cfg.Track.Definition,
		MapHash:   a.mapHash(),
		Vehicles:  a.cfg.Controller.Count,
		Tick:      a.cfg.Simulation.Tick,
		Budget:    a.cfg.Simulation.Episode.Budget,
		StartedAt: time.Now().UTC(),
	}
	if err := a.store.StartEpisode(ep); err != nil {
		return fmt.Errorf("start episode: %w", err)
	}
	a.recorder.begin(n, ep.ID)

	a.logger.Info("episode started",
		log.Int("episode", n),
		log.String("id", ep.ID),
		log.Int("vehicles", ep.Vehicles),
	)

	_, runErr := a.stepper.Run(ctx)
	if err := a.recorder.Err(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) newController() (controller.Controller, error) {
	kind, err := controller.ParseKind(a.cfg.Controller.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case controller.KindHuman:
		return controller.NewHuman(a.keys), nil
	case controller.KindLearned:
		if a.policy == nil {
			return nil, fmt.Errorf("learned controller needs a policy")
		}
		return controller.NewLearned(a.policy.Clone()), nil
	default:
		return controller.NewWallFollower(a.cfg.Controller.Cruise), nil
	}
}

func (a *App) mapHash() string {
	if a.registry == nil || a.track.MapName == "" {
		return ""
	}
	sum, err := a.registry.Fingerprint(a.track.MapName)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", sum)
}
