// Package optim moves particles to lower the score of a scoring function.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/kernel"
)

// Step describes one accepted or rejected move of the minimizer.
type Step struct {
	Index    int
	Score    float64
	GradNorm float64
	StepSize float64
	Accepted bool
}

// Observer is notified after every step.
type Observer interface {
	OnStep(s Step)
}

// StartObserver is an Observer that also receives the score of the
// starting point, before any move.
type StartObserver interface {
	Observer
	OnStart(score float64)
}

type ObserverFunc func(Step)

func (f ObserverFunc) OnStep(s Step) { f(s) }

type Result struct {
	Score     float64
	Steps     int
	Converged bool
	Reason    string
}

type Config struct {
	StepSize  float64
	MaxStep   float64
	MinStep   float64
	MaxSteps  int
	Threshold float64
}

func DefaultConfig() Config {
	return Config{
		StepSize:  0.01,
		MaxStep:   1.0,
		MinStep:   1e-12,
		MaxSteps:  1000,
		Threshold: 1e-8,
	}
}

// SteepestDescent moves every XYZ particle against its derivative. The
// step grows after an improving move and halves after a worsening one.
//
// Optimize runs to completion; Start, Next and Finish expose the same
// loop one step at a time for interactive drivers.
type SteepestDescent struct {
	sf        *kernel.ScoringFunction
	cfg       Config
	observers []Observer
	log       zerolog.Logger

	particles []core.XYZ
	pos       []algebra.Vector3D
	grad      []algebra.Vector3D
	score     float64
	step      float64
	index     int
	result    Result
}

func NewSteepestDescent(sf *kernel.ScoringFunction, cfg Config, log zerolog.Logger) *SteepestDescent {
	return &SteepestDescent{sf: sf, cfg: cfg, log: log}
}

func (o *SteepestDescent) AddObserver(obs Observer) { o.observers = append(o.observers, obs) }

func (o *SteepestDescent) validateConfig() error {
	if o.cfg.StepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %g", o.cfg.StepSize)
	}
	if o.cfg.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", o.cfg.MaxSteps)
	}
	if o.cfg.MaxStep < o.cfg.StepSize {
		return fmt.Errorf("max step %g is below step size %g", o.cfg.MaxStep, o.cfg.StepSize)
	}
	return nil
}

func (o *SteepestDescent) Optimize(ctx context.Context) (*Result, error) {
	if err := o.Start(); err != nil {
		return nil, err
	}

	for !o.Done() {
		select {
		case <-ctx.Done():
			r := o.Result()
			return &r, ctx.Err()
		default:
		}

		if _, err := o.Next(); err != nil {
			r := o.Result()
			return &r, err
		}
	}

	if err := o.Finish(); err != nil {
		r := o.Result()
		return &r, err
	}
	r := o.Result()
	return &r, nil
}

// Start collects the XYZ particles of the model and evaluates the
// starting point.
func (o *SteepestDescent) Start() error {
	if err := o.validateConfig(); err != nil {
		return err
	}

	m := o.sf.Model()
	o.particles = o.particles[:0]
	for _, pi := range m.Particles() {
		if core.IsXYZ(m, pi) {
			d, err := core.NewXYZ(m, pi)
			if err != nil {
				return err
			}
			o.particles = append(o.particles, d)
		}
	}
	o.pos = make([]algebra.Vector3D, len(o.particles))
	o.grad = make([]algebra.Vector3D, len(o.particles))

	score, err := o.snapshot()
	if err != nil {
		return err
	}
	o.score = score
	o.step = o.cfg.StepSize
	o.index = 0
	o.result = Result{Score: score}
	o.checkConverged()

	for _, obs := range o.observers {
		if so, ok := obs.(StartObserver); ok {
			so.OnStart(score)
		}
	}
	return nil
}

// Done reports whether the minimizer has converged or used its steps.
func (o *SteepestDescent) Done() bool {
	return o.result.Converged || o.index >= o.cfg.MaxSteps
}

func (o *SteepestDescent) Result() Result {
	r := o.result
	if !r.Converged && r.Reason == "" && o.index >= o.cfg.MaxSteps {
		r.Reason = "max steps reached"
	}
	return r
}

// Next tries one move. It is a no-op once Done.
func (o *SteepestDescent) Next() (Step, error) {
	if o.Done() {
		return Step{}, nil
	}

	gn := gradNorm(o.grad)
	for j, d := range o.particles {
		if err := d.SetCoordinates(o.pos[j].Sub(o.grad[j].Scale(o.step))); err != nil {
			return Step{}, err
		}
	}
	trial, err := o.sf.Evaluate(true)
	if err != nil {
		return Step{}, err
	}

	accepted := trial < o.score
	if accepted {
		if o.score, err = o.snapshot(); err != nil {
			return Step{}, err
		}
		o.step = math.Min(o.step*1.4, o.cfg.MaxStep)
	} else {
		for j, d := range o.particles {
			if err := d.SetCoordinates(o.pos[j]); err != nil {
				return Step{}, err
			}
		}
		o.step *= 0.5
	}

	s := Step{Index: o.index, Score: o.score, GradNorm: gn, StepSize: o.step, Accepted: accepted}
	o.index++
	o.result.Steps++
	o.result.Score = o.score
	o.checkConverged()

	for _, obs := range o.observers {
		obs.OnStep(s)
	}
	o.log.Debug().
		Int("step", s.Index).
		Float64("score", s.Score).
		Float64("step_size", s.StepSize).
		Bool("accepted", accepted).
		Msg("descent step")

	return s, nil
}

// Finish re-evaluates so the model's derivatives match the final
// positions, and logs the outcome.
func (o *SteepestDescent) Finish() error {
	if _, err := o.sf.Evaluate(true); err != nil {
		return err
	}

	r := o.Result()
	o.log.Info().
		Float64("score", r.Score).
		Int("steps", r.Steps).
		Bool("converged", r.Converged).
		Str("reason", r.Reason).
		Msg("minimization finished")
	return nil
}

func (o *SteepestDescent) checkConverged() {
	switch {
	case o.score <= o.cfg.Threshold:
		o.result.Converged, o.result.Reason = true, "score below threshold"
	case gradNorm(o.grad) == 0:
		o.result.Converged, o.result.Reason = true, "zero gradient"
	case o.step < o.cfg.MinStep:
		o.result.Converged, o.result.Reason = true, "step size below minimum"
	}
}

// snapshot evaluates the current positions and copies coordinates and
// gradients into pos and grad.
func (o *SteepestDescent) snapshot() (float64, error) {
	score, err := o.sf.Evaluate(true)
	if err != nil {
		return 0, err
	}
	for j, d := range o.particles {
		if o.pos[j], err = d.Coordinates(); err != nil {
			return 0, err
		}
		if o.grad[j], err = d.Derivatives(); err != nil {
			return 0, err
		}
	}
	return score, nil
}

func gradNorm(grad []algebra.Vector3D) float64 {
	sum := 0.0
	for _, g := range grad {
		sum += g.SquaredNorm()
	}
	return math.Sqrt(sum)
}
