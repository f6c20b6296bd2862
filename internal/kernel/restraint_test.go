package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zRestraint scores k*z for a particle carrying a "z" attribute.
type zRestraint struct {
	RestraintBase
	pi ParticleIndex
	k  float64
}

func newZRestraint(m *Model, pi ParticleIndex, k float64) *zRestraint {
	return &zRestraint{RestraintBase: NewRestraintBase(m, "zr%d"), pi: pi, k: k}
}

func (r *zRestraint) AddScoreAndDerivatives(sa ScoreAccumulator) error {
	z, err := r.Model().Attribute("z", r.pi)
	if err != nil {
		return err
	}
	if err := r.Model().AddToDerivative("z", r.pi, r.k, sa.DerivativeAccumulator()); err != nil {
		return err
	}
	sa.AddScore(r.k * z)
	return nil
}

func (r *zRestraint) Inputs() []ModelObject {
	p, _ := r.Model().Particle(r.pi)
	return []ModelObject{p}
}

type failingRestraint struct {
	RestraintBase
	err   error
	score float64
}

func (r *failingRestraint) AddScoreAndDerivatives(sa ScoreAccumulator) error {
	if r.err != nil {
		return r.err
	}
	sa.AddScore(r.score)
	return nil
}

func (r *failingRestraint) Inputs() []ModelObject { return nil }

func setupZ(t *testing.T, z float64) (*Model, ParticleIndex) {
	t.Helper()
	m := NewModel()
	p := m.AddParticle("p")
	require.NoError(t, m.AddAttribute("z", p, z))
	return m, p
}

func TestEvaluate(t *testing.T) {
	m, p := setupZ(t, 3)
	r := newZRestraint(m, p, 2)

	score, err := Evaluate(r, true)
	require.NoError(t, err)
	assert.Equal(t, 6.0, score)

	d, _ := m.Derivative("z", p)
	assert.Equal(t, 2.0, d)

	score, err = Evaluate(r, true)
	require.NoError(t, err)
	assert.Equal(t, 6.0, score)
	d, _ = m.Derivative("z", p)
	assert.Equal(t, 2.0, d, "derivatives are reset between evaluations")
}

func TestEvaluate_Weight(t *testing.T) {
	m, p := setupZ(t, 3)
	r := newZRestraint(m, p, 2)
	r.SetWeight(0.5)

	score, err := Evaluate(r, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	d, _ := m.Derivative("z", p)
	assert.Equal(t, 1.0, d)
}

func TestEvaluate_Errors(t *testing.T) {
	m := NewModel()
	boom := errors.New("boom")

	r := &failingRestraint{RestraintBase: NewRestraintBase(m, "f%d"), err: boom}
	_, err := Evaluate(r, false)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "evaluate f0")

	nan := &failingRestraint{RestraintBase: NewRestraintBase(m, "f%d"), score: math.NaN()}
	_, err = Evaluate(nan, false)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestScoreAccumulator(t *testing.T) {
	var total float64
	sa := NewScoreAccumulator(&total, 2, false)
	assert.Nil(t, sa.DerivativeAccumulator())

	sa.AddScore(1.5)
	assert.Equal(t, 3.0, total)

	child := sa.Child(3)
	assert.Equal(t, 6.0, child.Weight())
	assert.Nil(t, child.DerivativeAccumulator())
	child.AddScore(1)
	assert.Equal(t, 9.0, total)

	withDerivs := NewScoreAccumulator(&total, 2, true)
	require.NotNil(t, withDerivs.DerivativeAccumulator())
	assert.Equal(t, 2.0, withDerivs.DerivativeAccumulator().Weight)
	assert.Equal(t, 8.0, withDerivs.Child(4).DerivativeAccumulator().Weight)
}

func TestRestraintSet(t *testing.T) {
	m, p := setupZ(t, 3)
	q := m.AddParticle("q")
	require.NoError(t, m.AddAttribute("z", q, 1))

	a := newZRestraint(m, p, 1)
	b := newZRestraint(m, p, 2)
	c := newZRestraint(m, q, 4)
	c.SetWeight(0.5)

	rs := NewRestraintSet(m, "")
	assert.Equal(t, "RestraintSet0", rs.Name())
	require.NoError(t, rs.Add(a, b, c))
	assert.Equal(t, 3, rs.Len())

	score, err := Evaluate(rs, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0+6.0+2.0, score)

	dp, _ := m.Derivative("z", p)
	dq, _ := m.Derivative("z", q)
	assert.Equal(t, 3.0, dp)
	assert.Equal(t, 2.0, dq)

	inputs := rs.Inputs()
	assert.Len(t, inputs, 2)

	rs.SetWeight(2)
	score, err = Evaluate(rs, false)
	require.NoError(t, err)
	assert.Equal(t, 22.0, score)
}

func TestRestraintSet_ModelMismatch(t *testing.T) {
	m, _ := setupZ(t, 1)
	other, op := setupZ(t, 1)

	rs := NewRestraintSet(m, "mine")
	err := rs.Add(newZRestraint(other, op, 1))
	assert.ErrorIs(t, err, ErrModelMismatch)
	assert.Zero(t, rs.Len())
}

func TestScoringFunction(t *testing.T) {
	m, p := setupZ(t, 3)
	a := newZRestraint(m, p, 1)
	b := newZRestraint(m, p, 2)
	b.SetWeight(3)

	sf, err := NewScoringFunction(m, a, b)
	require.NoError(t, err)

	total, err := sf.Evaluate(true)
	require.NoError(t, err)
	assert.Equal(t, 21.0, total)
	assert.Equal(t, []float64{3, 18}, sf.Scores())

	d, _ := m.Derivative("z", p)
	assert.Equal(t, 7.0, d)

	assert.Len(t, sf.Restraints(), 2)
	assert.Same(t, m, sf.Model())
}

func TestScoringFunction_ModelMismatch(t *testing.T) {
	m, _ := setupZ(t, 1)
	other, op := setupZ(t, 1)

	_, err := NewScoringFunction(m, newZRestraint(other, op, 1))
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestRestraintSet_RejectsCycles(t *testing.T) {
	m, p := setupZ(t, 3)

	outer := NewRestraintSet(m, "outer")
	inner := NewRestraintSet(m, "inner")
	require.NoError(t, outer.Add(inner))
	require.NoError(t, inner.Add(newZRestraint(m, p, 1)))

	assert.ErrorIs(t, outer.Add(outer), ErrRestraintCycle)
	assert.ErrorIs(t, inner.Add(outer), ErrRestraintCycle)
	assert.Equal(t, 1, outer.Len())
	assert.Equal(t, 1, inner.Len())

	score, err := Evaluate(outer, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
	assert.Len(t, outer.Inputs(), 1)
}

func TestScoringFunction_ErrorKeepsLastScores(t *testing.T) {
	m, p := setupZ(t, 3)
	good := newZRestraint(m, p, 1)
	flaky := &failingRestraint{RestraintBase: NewRestraintBase(m, "f%d"), score: 2}
	sf, err := NewScoringFunction(m, good, flaky)
	require.NoError(t, err)

	_, err = sf.Evaluate(false)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2}, sf.Scores())

	require.NoError(t, m.SetAttribute("z", p, 10))
	flaky.err = errors.New("boom")
	_, err = sf.Evaluate(false)
	assert.ErrorContains(t, err, "evaluate f0")
	assert.Equal(t, []float64{3, 2}, sf.Scores(), "a failed evaluation leaves the breakdown untouched")

	flaky.err = nil
	flaky.score = math.Inf(1)
	_, err = sf.Evaluate(false)
	assert.ErrorIs(t, err, ErrInvalidScore)
	assert.ErrorContains(t, err, "scoring function")
	assert.Equal(t, []float64{3, 2}, sf.Scores())
}
