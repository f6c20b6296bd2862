package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/foo"
	"github.com/san-kum/restrain/internal/kernel"
)

// Factory builds a restraint on one particle from named parameters.
type Factory func(m *kernel.Model, pi kernel.ParticleIndex, params map[string]float64) (kernel.Restraint, error)

type Registry struct {
	restraints map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{
		restraints: make(map[string]Factory),
	}

	r.restraints["my_restraint"] = func(m *kernel.Model, pi kernel.ParticleIndex, params map[string]float64) (kernel.Restraint, error) {
		k, ok := params["k"]
		if !ok {
			return nil, fmt.Errorf("my_restraint: missing parameter k")
		}
		return foo.NewMyRestraint(m, pi, k), nil
	}
	r.restraints["harmonic_point"] = func(m *kernel.Model, pi kernel.ParticleIndex, params map[string]float64) (kernel.Restraint, error) {
		k, ok := params["k"]
		if !ok {
			return nil, fmt.Errorf("harmonic_point: missing parameter k")
		}
		center := algebra.NewVector3D(params["x0"], params["y0"], params["z0"])
		return core.NewHarmonicPointRestraint(m, pi, center, k), nil
	}

	return r
}

// Register adds or replaces a restraint type.
func (r *Registry) Register(name string, f Factory) {
	r.restraints[name] = f
}

func (r *Registry) GetRestraint(name string, m *kernel.Model, pi kernel.ParticleIndex, params map[string]float64) (kernel.Restraint, error) {
	fn, ok := r.restraints[name]
	if !ok {
		return nil, fmt.Errorf("unknown restraint: %s (available: %v)", name, r.ListRestraints())
	}
	return fn(m, pi, params)
}

func (r *Registry) ListRestraints() []string {
	names := make([]string, 0, len(r.restraints))
	for name := range r.restraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
