package optim

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/foo"
	"github.com/san-kum/restrain/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, at algebra.Vector3D, k float64) (*kernel.ScoringFunction, core.XYZ) {
	t.Helper()
	m := kernel.NewModel()
	p := m.AddParticle("p")
	d, err := core.SetupXYZ(m, p, at)
	require.NoError(t, err)
	sf, err := kernel.NewScoringFunction(m, foo.NewMyRestraint(m, p, k))
	require.NoError(t, err)
	return sf, d
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, Linspace(0, 1, 0))
	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, Linspace(-1, 1, 5))
}

func TestScan(t *testing.T) {
	sf, d := setup(t, algebra.NewVector3D(1, 2, 3), 10)

	points, err := Scan(context.Background(), sf, Axis{Particle: d.ParticleIndex(), Coord: 2, Values: Linspace(-3, 3, 7)})
	require.NoError(t, err)
	require.Len(t, points, 7)

	for _, pt := range points {
		assert.InDelta(t, 5*pt.Value*pt.Value, pt.Score, 1e-12)
		assert.InDelta(t, 10*pt.Value, pt.Derivative, 1e-12)
	}

	z, err := d.Z()
	require.NoError(t, err)
	assert.Equal(t, 3.0, z, "scan restores the coordinate")
}

func TestScan_Errors(t *testing.T) {
	sf, d := setup(t, algebra.Zero(), 1)

	_, err := Scan(context.Background(), sf, Axis{Particle: d.ParticleIndex(), Coord: 3})
	assert.Error(t, err)

	_, err = Scan(context.Background(), sf, Axis{Particle: 7, Coord: 0})
	assert.ErrorIs(t, err, kernel.ErrUnknownParticle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Scan(ctx, sf, Axis{Particle: d.ParticleIndex(), Coord: 2, Values: []float64{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGridSearch(t *testing.T) {
	m := kernel.NewModel()
	p := m.AddParticle("p")
	d, err := core.SetupXYZ(m, p, algebra.NewVector3D(5, 5, 5))
	require.NoError(t, err)
	well := core.NewHarmonicPointRestraint(m, p, algebra.NewVector3D(1, 0, -1), 1)
	sf, err := kernel.NewScoringFunction(m, well)
	require.NoError(t, err)

	gs := NewGridSearch([]Axis{
		{Particle: p, Coord: 0, Values: []float64{-1, 0, 1, 2}},
		{Particle: p, Coord: 2, Values: []float64{-2, -1, 0}},
	})
	best, score, err := gs.Search(context.Background(), sf)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1}, best)
	// y stays at 5
	assert.InDelta(t, 12.5, score, 1e-12)

	v, err := d.Coordinates()
	require.NoError(t, err)
	assert.Equal(t, algebra.NewVector3D(5, 5, 5), v)
}

func TestGridSearch_BadAxis(t *testing.T) {
	sf, d := setup(t, algebra.Zero(), 1)
	_, _, err := NewGridSearch([]Axis{{Particle: d.ParticleIndex(), Coord: -1}}).Search(context.Background(), sf)
	assert.Error(t, err)
}

func TestGridSearch_EmptyAxes(t *testing.T) {
	sf, d := setup(t, algebra.NewVector3D(1, 2, 3), 10)

	_, _, err := NewGridSearch(nil).Search(context.Background(), sf)
	assert.ErrorIs(t, err, ErrNoAxes)

	best, score, err := NewGridSearch([]Axis{{Particle: d.ParticleIndex(), Coord: 2}}).Search(context.Background(), sf)
	assert.ErrorIs(t, err, ErrNoValues)
	assert.Nil(t, best)
	assert.Zero(t, score)
}

type startRecorder struct {
	start float64
	steps int
}

func (r *startRecorder) OnStart(score float64) { r.start = score }
func (r *startRecorder) OnStep(Step)           { r.steps++ }

func TestSteepestDescent_StartObserver(t *testing.T) {
	sf, _ := setup(t, algebra.NewVector3D(1, 2, 3), 10)

	cfg := DefaultConfig()
	cfg.MaxSteps = 3
	rec := &startRecorder{}
	opt := NewSteepestDescent(sf, cfg, zerolog.Nop())
	opt.AddObserver(rec)

	_, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.0, rec.start, 1e-12)
	assert.Equal(t, 3, rec.steps)
}

func TestSteepestDescent(t *testing.T) {
	sf, d := setup(t, algebra.NewVector3D(1, 2, 3), 10)

	var steps []Step
	opt := NewSteepestDescent(sf, DefaultConfig(), zerolog.Nop())
	opt.AddObserver(ObserverFunc(func(s Step) { steps = append(steps, s) }))

	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Converged, result.Reason)
	assert.Less(t, result.Score, 1e-6)
	assert.Len(t, steps, result.Steps)

	for i := 1; i < len(steps); i++ {
		assert.LessOrEqual(t, steps[i].Score, steps[i-1].Score, "score never increases")
	}

	v, err := d.Coordinates()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.X, "x has no gradient")
	assert.Equal(t, 2.0, v.Y, "y has no gradient")
	assert.InDelta(t, 0, v.Z, 1e-3)

	dz, err := d.Derivative(2)
	require.NoError(t, err)
	assert.InDelta(t, 10*v.Z, dz, 1e-12)
}

func TestSteepestDescent_AlreadyMinimal(t *testing.T) {
	sf, _ := setup(t, algebra.NewVector3D(1, 2, 0), 10)

	result, err := NewSteepestDescent(sf, DefaultConfig(), zerolog.Nop()).Optimize(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Zero(t, result.Steps)
}

func TestSteepestDescent_MaxSteps(t *testing.T) {
	sf, _ := setup(t, algebra.NewVector3D(0, 0, 100), 1)
	cfg := DefaultConfig()
	cfg.MaxSteps = 3

	result, err := NewSteepestDescent(sf, cfg, zerolog.Nop()).Optimize(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Converged)
	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, "max steps reached", result.Reason)
}

func TestSteepestDescent_InvalidConfig(t *testing.T) {
	sf, _ := setup(t, algebra.Zero(), 1)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero step", Config{StepSize: 0, MaxStep: 1, MaxSteps: 10}},
		{"zero max steps", Config{StepSize: 0.1, MaxStep: 1, MaxSteps: 0}},
		{"max below step", Config{StepSize: 0.5, MaxStep: 0.1, MaxSteps: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSteepestDescent(sf, tt.cfg, zerolog.Nop()).Optimize(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestSteepestDescent_Canceled(t *testing.T) {
	sf, _ := setup(t, algebra.NewVector3D(0, 0, 3), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewSteepestDescent(sf, DefaultConfig(), zerolog.Nop()).Optimize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.False(t, math.IsNaN(result.Score))
}

func TestSteepestDescent_Stepwise(t *testing.T) {
	sf, d := setup(t, algebra.NewVector3D(0, 0, 2), 1)
	opt := NewSteepestDescent(sf, DefaultConfig(), zerolog.Nop())

	require.NoError(t, opt.Start())
	assert.False(t, opt.Done())
	assert.Equal(t, 2.0, opt.Result().Score)

	s, err := opt.Next()
	require.NoError(t, err)
	assert.True(t, s.Accepted)
	assert.Equal(t, 0, s.Index)
	assert.InDelta(t, 0.5*1.98*1.98, s.Score, 1e-12)
	assert.InDelta(t, 0.014, s.StepSize, 1e-12)

	z, err := d.Z()
	require.NoError(t, err)
	assert.InDelta(t, 1.98, z, 1e-12)

	for !opt.Done() {
		_, err := opt.Next()
		require.NoError(t, err)
	}
	require.NoError(t, opt.Finish())
	assert.True(t, opt.Result().Converged)

	s, err = opt.Next()
	require.NoError(t, err)
	assert.Equal(t, Step{}, s, "Next after Done is a no-op")
}
