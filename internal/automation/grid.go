package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/kernel"
	"github.com/san-kum/restrain/internal/optim"
)

// GridSpec is a grid search over some coordinates of one particle. Every
// axis runs over the same Points values from From to To.
type GridSpec struct {
	Particle string   `yaml:"particle"`
	Axes     []string `yaml:"axes"`
	From     float64  `yaml:"from"`
	To       float64  `yaml:"to"`
	Points   int      `yaml:"points"`
}

// RunGrid searches the grid and leaves the particle at the best point.
// best holds one value per entry of spec.Axes.
func RunGrid(ctx context.Context, exp *experiment.Experiment, spec GridSpec) ([]float64, float64, error) {
	m := exp.Model()
	pi, err := FindParticle(m, spec.Particle)
	if err != nil {
		return nil, 0, err
	}
	if spec.Points < 1 {
		return nil, 0, fmt.Errorf("grid needs at least one point per axis, got %d", spec.Points)
	}

	values := optim.Linspace(spec.From, spec.To, spec.Points)
	axes := make([]optim.Axis, len(spec.Axes))
	for i, name := range spec.Axes {
		coord, err := AxisIndex(name)
		if err != nil {
			return nil, 0, err
		}
		axes[i] = optim.Axis{Particle: pi, Coord: coord, Values: values}
	}

	best, score, err := optim.NewGridSearch(axes).Search(ctx, exp.ScoringFunction())
	if err != nil {
		return nil, 0, err
	}

	d, err := core.NewXYZ(m, pi)
	if err != nil {
		return nil, 0, err
	}
	for i, ax := range axes {
		if err := d.SetCoordinate(ax.Coord, best[i]); err != nil {
			return nil, 0, err
		}
	}
	return best, score, nil
}

// FindParticle looks a particle up by name; an empty name means the
// first particle.
func FindParticle(m *kernel.Model, name string) (kernel.ParticleIndex, error) {
	pis := m.Particles()
	if len(pis) == 0 {
		return 0, fmt.Errorf("scene has no particles")
	}
	if name == "" {
		return pis[0], nil
	}
	for _, pi := range pis {
		p, err := m.Particle(pi)
		if err != nil {
			return 0, err
		}
		if p.Name() == name {
			return pi, nil
		}
	}
	return 0, fmt.Errorf("no particle named %q", name)
}

// AxisIndex maps "x", "y" or "z" to 0, 1 or 2.
func AxisIndex(name string) (int, error) {
	switch name {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want x, y or z)", name)
}
