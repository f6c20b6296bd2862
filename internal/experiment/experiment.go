// Package experiment evaluates a set of restraints over a model and
// collects the score, its breakdown and the resulting gradients.
package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/kernel"
)

type RestraintResult struct {
	Name   string   `json:"name"`
	Score  float64  `json:"score"`
	Inputs []string `json:"inputs"`
}

type ParticleResult struct {
	Name        string           `json:"name"`
	Coordinates algebra.Vector3D `json:"coordinates"`
	Derivatives algebra.Vector3D `json:"derivatives"`
}

type Result struct {
	Score      float64           `json:"score"`
	Restraints []RestraintResult `json:"restraints"`
	Particles  []ParticleResult  `json:"particles"`
}

type Experiment struct {
	model      *kernel.Model
	scoring    *kernel.ScoringFunction
	restraints []kernel.Restraint
	log        zerolog.Logger
}

func New(m *kernel.Model, restraints []kernel.Restraint, log zerolog.Logger) (*Experiment, error) {
	sf, err := kernel.NewScoringFunction(m, restraints...)
	if err != nil {
		return nil, err
	}
	return &Experiment{model: m, scoring: sf, restraints: restraints, log: log}, nil
}

func (e *Experiment) Model() *kernel.Model                    { return e.model }
func (e *Experiment) ScoringFunction() *kernel.ScoringFunction { return e.scoring }

// Run evaluates every restraint once. Particle derivatives in the result
// are zero unless calcDerivs is set.
func (e *Experiment) Run(ctx context.Context, calcDerivs bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total, err := e.scoring.Evaluate(calcDerivs)
	if err != nil {
		return nil, err
	}

	return e.collect(total, calcDerivs)
}

// Snapshot reports the current coordinates and derivatives without
// re-evaluating; score and breakdown come from the last evaluation.
func (e *Experiment) Snapshot(total float64) (*Result, error) {
	return e.collect(total, true)
}

func (e *Experiment) collect(total float64, withDerivs bool) (*Result, error) {
	result := &Result{
		Score:      total,
		Restraints: make([]RestraintResult, 0, len(e.restraints)),
		Particles:  make([]ParticleResult, 0, e.model.NumParticles()),
	}

	scores := e.scoring.Scores()
	for i, r := range e.restraints {
		inputs := r.Inputs()
		names := make([]string, len(inputs))
		for j, in := range inputs {
			names[j] = in.Name()
		}
		result.Restraints = append(result.Restraints, RestraintResult{
			Name:   r.Name(),
			Score:  scores[i],
			Inputs: names,
		})
	}

	for _, pi := range e.model.Particles() {
		if !core.IsXYZ(e.model, pi) {
			continue
		}
		p, err := e.model.Particle(pi)
		if err != nil {
			return nil, err
		}
		d, err := core.NewXYZ(e.model, pi)
		if err != nil {
			return nil, err
		}
		coords, err := d.Coordinates()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		pr := ParticleResult{Name: p.Name(), Coordinates: coords}
		if withDerivs {
			if pr.Derivatives, err = d.Derivatives(); err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name(), err)
			}
		}
		result.Particles = append(result.Particles, pr)
	}

	e.log.Debug().
		Float64("score", total).
		Int("restraints", len(result.Restraints)).
		Int("particles", len(result.Particles)).
		Msg("experiment evaluated")

	return result, nil
}
