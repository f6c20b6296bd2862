package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/kernel"
)

type ScanPoint struct {
	Value      float64
	Score      float64
	Derivative float64
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Scan evaluates the scoring function while one coordinate of one
// particle sweeps ax.Values. The derivative recorded is the one along
// the swept coordinate. The coordinate is restored afterwards.
func Scan(ctx context.Context, sf *kernel.ScoringFunction, ax Axis) ([]ScanPoint, error) {
	if ax.Coord < 0 || ax.Coord > 2 {
		return nil, fmt.Errorf("coordinate %d out of range", ax.Coord)
	}
	d, err := core.NewXYZ(sf.Model(), ax.Particle)
	if err != nil {
		return nil, err
	}
	original, err := d.Coordinate(ax.Coord)
	if err != nil {
		return nil, err
	}
	defer func() { _ = d.SetCoordinate(ax.Coord, original) }()

	points := make([]ScanPoint, 0, len(ax.Values))
	for _, v := range ax.Values {
		if err := ctx.Err(); err != nil {
			return points, err
		}
		if err := d.SetCoordinate(ax.Coord, v); err != nil {
			return points, err
		}
		score, err := sf.Evaluate(true)
		if err != nil {
			return points, err
		}
		deriv, err := d.Derivative(ax.Coord)
		if err != nil {
			return points, err
		}
		points = append(points, ScanPoint{Value: v, Score: score, Derivative: deriv})
	}

	return points, nil
}
