// Package foo holds restraints contributed outside the core set.
package foo

import (
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/kernel"
)

// MyRestraint is a harmonic restraint on the z coordinate of one
// particle: score = 0.5*k*z^2, dscore/dz = k*z.
type MyRestraint struct {
	kernel.RestraintBase
	pi kernel.ParticleIndex
	k  float64
}

func NewMyRestraint(m *kernel.Model, pi kernel.ParticleIndex, k float64) *MyRestraint {
	return &MyRestraint{
		RestraintBase: kernel.NewRestraintBase(m, "MyRestraint%d"),
		pi:            pi,
		k:             k,
	}
}

func (r *MyRestraint) Particle() kernel.ParticleIndex { return r.pi }
func (r *MyRestraint) K() float64                     { return r.k }

// Evaluate scores the restraint on its own, optionally leaving its
// gradient in the model's derivatives.
func (r *MyRestraint) Evaluate(calcDerivs bool) (float64, error) {
	return kernel.Evaluate(r, calcDerivs)
}

func (r *MyRestraint) AddScoreAndDerivatives(sa kernel.ScoreAccumulator) error {
	d, err := core.NewXYZ(r.Model(), r.pi)
	if err != nil {
		return err
	}
	z, err := d.Z()
	if err != nil {
		return err
	}

	if da := sa.DerivativeAccumulator(); da != nil {
		if err := d.AddToDerivative(2, r.k*z, da); err != nil {
			return err
		}
	}
	sa.AddScore(0.5 * r.k * z * z)
	return nil
}

func (r *MyRestraint) Inputs() []kernel.ModelObject {
	p, err := r.Model().Particle(r.pi)
	if err != nil {
		return nil
	}
	return []kernel.ModelObject{p}
}
