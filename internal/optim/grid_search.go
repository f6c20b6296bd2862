package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/kernel"
)

var (
	ErrNoAxes   = errors.New("optim: grid search needs at least one axis")
	ErrNoValues = errors.New("optim: axis has no values")
)

// Axis is one coordinate of one particle together with the values to try.
type Axis struct {
	Particle kernel.ParticleIndex
	Coord    int
	Values   []float64
}

// GridSearch places particles at every combination of axis values and
// keeps the lowest-scoring one.
type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes []Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Search returns the best value per axis and its score. Coordinates are
// restored before returning.
func (g *GridSearch) Search(ctx context.Context, sf *kernel.ScoringFunction) ([]float64, float64, error) {
	if len(g.axes) == 0 {
		return nil, 0, ErrNoAxes
	}

	decorators := make([]core.XYZ, len(g.axes))
	original := make([]float64, len(g.axes))
	for i, ax := range g.axes {
		if ax.Coord < 0 || ax.Coord > 2 {
			return nil, 0, fmt.Errorf("axis %d: coordinate %d out of range", i, ax.Coord)
		}
		if len(ax.Values) == 0 {
			return nil, 0, fmt.Errorf("axis %d: %w", i, ErrNoValues)
		}
		d, err := core.NewXYZ(sf.Model(), ax.Particle)
		if err != nil {
			return nil, 0, fmt.Errorf("axis %d: %w", i, err)
		}
		if original[i], err = d.Coordinate(ax.Coord); err != nil {
			return nil, 0, err
		}
		decorators[i] = d
	}
	defer func() {
		for i, d := range decorators {
			_ = d.SetCoordinate(g.axes[i].Coord, original[i])
		}
	}()

	best := math.Inf(1)
	var bestValues []float64
	current := make([]float64, len(g.axes))

	if err := g.searchRecursive(ctx, 0, sf, decorators, current, &best, &bestValues); err != nil {
		return nil, 0, err
	}

	return bestValues, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	sf *kernel.ScoringFunction,
	decorators []core.XYZ,
	current []float64,
	best *float64,
	bestValues *[]float64,
) error {
	if depth == len(g.axes) {
		if err := ctx.Err(); err != nil {
			return err
		}

		val, err := sf.Evaluate(false)
		if err != nil {
			return err
		}
		if val < *best {
			*best = val
			*bestValues = append((*bestValues)[:0], current...)
		}
		return nil
	}

	ax := g.axes[depth]
	for _, v := range ax.Values {
		if err := decorators[depth].SetCoordinate(ax.Coord, v); err != nil {
			return err
		}
		current[depth] = v

		if err := g.searchRecursive(ctx, depth+1, sf, decorators, current, best, bestValues); err != nil {
			return err
		}
	}
	return nil
}
