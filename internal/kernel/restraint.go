package kernel

import (
	"fmt"
	"math"
)

// Restraint is a scoring term contributing to the total energy of a model.
type Restraint interface {
	ModelObject
	Model() *Model
	Weight() float64
	// AddScoreAndDerivatives adds the restraint's score to sa and, when
	// sa carries a derivative accumulator, its gradient to the model.
	AddScoreAndDerivatives(sa ScoreAccumulator) error
	// Inputs lists the model objects the score depends on.
	Inputs() []ModelObject
}

// RestraintBase carries the bookkeeping shared by all restraints.
// Embed it and implement AddScoreAndDerivatives and Inputs.
type RestraintBase struct {
	model  *Model
	name   string
	weight float64
}

// NewRestraintBase names the restraint from format, which may contain a
// single %d replaced by a per-model counter.
func NewRestraintBase(m *Model, format string) RestraintBase {
	return RestraintBase{model: m, name: m.UniqueName(format), weight: 1}
}

func (b *RestraintBase) Name() string        { return b.name }
func (b *RestraintBase) Model() *Model       { return b.model }
func (b *RestraintBase) Weight() float64     { return b.weight }
func (b *RestraintBase) SetWeight(w float64) { b.weight = w }
func (b *RestraintBase) SetName(name string) { b.name = name }

// Evaluate scores r. With calcDerivs set, all derivatives of the model
// are zeroed first and then hold exactly r's gradient afterwards.
func Evaluate(r Restraint, calcDerivs bool) (float64, error) {
	m := r.Model()
	if calcDerivs {
		m.ZeroDerivatives()
	}

	var total float64
	sa := NewScoreAccumulator(&total, r.Weight(), calcDerivs)
	if err := r.AddScoreAndDerivatives(sa); err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", r.Name(), err)
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("evaluate %s: %w", r.Name(), ErrInvalidScore)
	}

	m.log.Debug().
		Str("restraint", r.Name()).
		Bool("derivatives", calcDerivs).
		Float64("score", total).
		Msg("evaluated restraint")

	return total, nil
}
