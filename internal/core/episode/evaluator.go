package episode

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle")
	ErrInvalidConfig  = errors.New("invalid episode config")
)

// EndReason says why a vehicle or an episode stopped.
type EndReason string

const (
	ReasonNone      EndReason = ""
	ReasonOffTrack  EndReason = "off_track"
	ReasonStagnant  EndReason = "stagnant"
	ReasonBudget    EndReason = "budget"
	ReasonAllOut    EndReason = "all_retired"
	ReasonCancelled EndReason = "cancelled"
)

type Config struct {
	Budget          time.Duration `mapstructure:"budget" json:"budget"`
	StagnationLimit time.Duration `mapstructure:"stagnation_limit" json:"stagnation_limit"`
	DeathPenalty    float64       `mapstructure:"death_penalty" json:"death_penalty"`
	SurvivalBonus   float64       `mapstructure:"survival_bonus" json:"survival_bonus"`
}

func DefaultConfig() Config {
	return Config{
		Budget:          60 * time.Second,
		StagnationLimit: 2 * time.Second,
		DeathPenalty:    0.5,
		SurvivalBonus:   1.5,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive", ErrInvalidConfig)
	case c.StagnationLimit <= 0:
		return fmt.Errorf("%w: stagnation_limit must be positive", ErrInvalidConfig)
	case c.DeathPenalty < 0 || c.SurvivalBonus < 0:
		return fmt.Errorf("%w: multipliers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome for one vehicle.
type Result struct {
	VehicleID   string        `json:"vehicle_id"`
	Controller  string        `json:"controller"`
	Fitness     float64       `json:"fitness"`
	Distance    float64       `json:"distance"`
	Checkpoints int           `json:"checkpoints"`
	Alive       bool          `json:"alive"`
	EndReason   EndReason     `json:"end_reason"`
	Survived    time.Duration `json:"survived"`
}

type entry struct {
	Result
	stagnant time.Duration
}

// Evaluator keeps the training-side bookkeeping the kinematics stay free of:
// stagnation time, retirement, and fitness scaling.
type Evaluator struct {
	mu      sync.RWMutex
	cfg     Config
	entries map[string]*entry
	order   []string
	active  int
	ended   EndReason
}

func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg, entries: make(map[string]*entry)}
}

func (e *Evaluator) Config() Config { return e.cfg }

// Register starts tracking a vehicle. Registering an id twice resets it.
func (e *Evaluator) Register(id, controller string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.entries[id]; ok {
		if old.Alive {
			e.active--
		}
	} else {
		e.order = append(e.order, id)
	}
	e.entries[id] = &entry{Result: Result{VehicleID: id, Controller: controller, Alive: true}}
	e.active++
}

// Check runs before a vehicle moves. Zero speed accumulates stagnation time.
// A vehicle that is off-track or stagnant for the limit is retired and its
// fitness multiplied by the death penalty. retired is true only on the call
// that retires it.
func (e *Evaluator) Check(id string, speed float64, offTrack bool, dt time.Duration) (retired bool, reason EndReason, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.entries[id]
	if !ok {
		return false, ReasonNone, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	if !en.Alive {
		return false, en.EndReason, nil
	}

	if speed == 0 {
		en.stagnant += dt
	} else {
		en.stagnant = 0
	}

	switch {
	case offTrack:
		reason = ReasonOffTrack
	case en.stagnant >= e.cfg.StagnationLimit:
		reason = ReasonStagnant
	default:
		en.Survived += dt
		return false, ReasonNone, nil
	}

	en.Alive = false
	en.EndReason = reason
	en.Fitness *= e.cfg.DeathPenalty
	e.active--
	return true, reason, nil
}

// Report adds the distance travelled this tick to the vehicle's fitness.
func (e *Evaluator) Report(id string, distance float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	if en.Alive {
		en.Fitness += distance
		en.Distance += distance
	}
	return nil
}

// CheckpointCrossed counts a crossing for the vehicle.
func (e *Evaluator) CheckpointCrossed(id string) {
	e.mu.Lock()
	if en, ok := e.entries[id]; ok {
		en.Checkpoints++
	}
	e.mu.Unlock()
}

func (e *Evaluator) Alive(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	en, ok := e.entries[id]
	return ok && en.Alive
}

// Active is the number of vehicles still running.
func (e *Evaluator) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// Finish closes the episode. On budget expiry still-active vehicles get the
// survival bonus; any other reason leaves their fitness as is. Only the first
// call has an effect.
func (e *Evaluator) Finish(reason EndReason) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended != ReasonNone {
		return
	}
	e.ended = reason
	for _, id := range e.order {
		en := e.entries[id]
		if !en.Alive {
			continue
		}
		if reason == ReasonBudget {
			en.Fitness *= e.cfg.SurvivalBonus
		}
		en.EndReason = reason
	}
}

// Ended returns the episode end reason, ReasonNone while running.
func (e *Evaluator) Ended() EndReason {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ended
}

func (e *Evaluator) Result(id string) (Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	en, ok := e.entries[id]
	if !ok {
		return Result{}, false
	}
	return en.Result, true
}

// Results returns every vehicle in registration order.
func (e *Evaluator) Results() []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Result, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.entries[id].Result)
	}
	return out
}

// Reset forgets every vehicle.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	e.entries = make(map[string]*entry)
	e.order = nil
	e.active = 0
	e.ended = ReasonNone
	e.mu.Unlock()
}
