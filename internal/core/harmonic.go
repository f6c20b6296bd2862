package core

import (
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/kernel"
)

// HarmonicPointRestraint scores 0.5*k*|x - center|^2 for one particle.
type HarmonicPointRestraint struct {
	kernel.RestraintBase
	pi     kernel.ParticleIndex
	center algebra.Vector3D
	k      float64
}

func NewHarmonicPointRestraint(m *kernel.Model, pi kernel.ParticleIndex, center algebra.Vector3D, k float64) *HarmonicPointRestraint {
	return &HarmonicPointRestraint{
		RestraintBase: kernel.NewRestraintBase(m, "HarmonicPointRestraint%d"),
		pi:            pi,
		center:        center,
		k:             k,
	}
}

func (r *HarmonicPointRestraint) Center() algebra.Vector3D { return r.center }
func (r *HarmonicPointRestraint) K() float64               { return r.k }

func (r *HarmonicPointRestraint) AddScoreAndDerivatives(sa kernel.ScoreAccumulator) error {
	d, err := NewXYZ(r.Model(), r.pi)
	if err != nil {
		return err
	}
	x, err := d.Coordinates()
	if err != nil {
		return err
	}

	diff := x.Sub(r.center)
	if da := sa.DerivativeAccumulator(); da != nil {
		if err := d.AddToDerivatives(diff.Scale(r.k), da); err != nil {
			return err
		}
	}
	sa.AddScore(0.5 * r.k * diff.SquaredNorm())
	return nil
}

func (r *HarmonicPointRestraint) Inputs() []kernel.ModelObject {
	p, err := r.Model().Particle(r.pi)
	if err != nil {
		return nil
	}
	return []kernel.ModelObject{p}
}
