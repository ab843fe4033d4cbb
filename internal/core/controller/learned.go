package controller

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ActivationThreshold is the output level above which an action fires.
const ActivationThreshold = 0.5

var ErrPolicyShape = errors.New("policy shape mismatch")

// Policy is an opaque learned function. Inputs are
// [speed, steering, sensors...]; outputs are [gas, brake, left, right].
type Policy interface {
	Activate(inputs []float64) []float64
}

// Learned drives with a Policy. It reuses its input buffer, so one Learned
// must not be shared between vehicles.
type Learned struct {
	policy Policy
	inputs []float64
}

var _ Controller = (*Learned)(nil)

func NewLearned(policy Policy) *Learned {
	return &Learned{policy: policy}
}

func (l *Learned) Kind() Kind     { return KindLearned }
func (l *Learned) Policy() Policy { return l.policy }

func (l *Learned) Decide(obs Observation) Command {
	l.inputs = append(l.inputs[:0], obs.Speed, obs.Steering)
	l.inputs = append(l.inputs, obs.Sensors...)

	out := l.policy.Activate(l.inputs)
	fire := func(i int) bool { return i < len(out) && out[i] > ActivationThreshold }
	return Command{Gas: fire(0), Brake: fire(1), Left: fire(2), Right: fire(3)}
}

// LinearPolicy is a single dense layer with a logistic activation.
type LinearPolicy struct {
	Weights [][]float64 `yaml:"weights" json:"weights"`
	Bias    []float64   `yaml:"bias" json:"bias"`

	out []float64
}

var _ Policy = (*LinearPolicy)(nil)

// NewLinearPolicy returns a zero policy for the given layer shape.
func NewLinearPolicy(inputs, outputs int) *LinearPolicy {
	w := make([][]float64, outputs)
	for i := range w {
		w[i] = make([]float64, inputs)
	}
	return &LinearPolicy{Weights: w, Bias: make([]float64, outputs)}
}

// Clone shares the weights but not the output buffer, so each vehicle can
// drive with its own copy.
func (p *LinearPolicy) Clone() *LinearPolicy {
	return &LinearPolicy{Weights: p.Weights, Bias: p.Bias}
}

// LoadLinearPolicy reads weights from a YAML or JSON file.
func LoadLinearPolicy(path string) (*LinearPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var p LinearPolicy
	if err = yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode policy %s: %w", path, err)
	}
	if err = p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *LinearPolicy) Validate() error {
	if len(p.Weights) == 0 {
		return fmt.Errorf("%w: no outputs", ErrPolicyShape)
	}
	if len(p.Bias) != 0 && len(p.Bias) != len(p.Weights) {
		return fmt.Errorf("%w: %d biases for %d outputs", ErrPolicyShape, len(p.Bias), len(p.Weights))
	}
	n := len(p.Weights[0])
	for i, row := range p.Weights {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d weights, want %d", ErrPolicyShape, i, len(row), n)
		}
	}
	return nil
}

// Activate ignores inputs beyond the weight width and treats missing ones as
// zero. The returned slice is reused by the next call.
func (p *LinearPolicy) Activate(inputs []float64) []float64 {
	if cap(p.out) < len(p.Weights) {
		p.out = make([]float64, len(p.Weights))
	}
	p.out = p.out[:len(p.Weights)]
	for j, row := range p.Weights {
		var sum float64
		if j < len(p.Bias) {
			sum = p.Bias[j]
		}
		for i, w := range row {
			if i < len(inputs) {
				sum += w * inputs[i]
			}
		}
		p.out[j] = 1 / (1 + math.Exp(-sum))
	}
	return p.out
}
