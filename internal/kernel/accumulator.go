package kernel

// DerivativeAccumulator scales derivative contributions by Weight.
type DerivativeAccumulator struct {
	Weight float64
}

func NewDerivativeAccumulator(weight float64) *DerivativeAccumulator {
	return &DerivativeAccumulator{Weight: weight}
}

// ScoreAccumulator is handed to restraints during evaluation. It is
// passed by value; the running total lives behind a pointer.
type ScoreAccumulator struct {
	total  *float64
	weight float64
	deriv  *DerivativeAccumulator
}

func NewScoreAccumulator(total *float64, weight float64, calcDerivs bool) ScoreAccumulator {
	sa := ScoreAccumulator{total: total, weight: weight}
	if calcDerivs {
		sa.deriv = NewDerivativeAccumulator(weight)
	}
	return sa
}

// AddScore adds a weighted score to the total.
func (sa ScoreAccumulator) AddScore(score float64) {
	*sa.total += sa.weight * score
}

// DerivativeAccumulator is nil when derivatives were not requested.
func (sa ScoreAccumulator) DerivativeAccumulator() *DerivativeAccumulator {
	return sa.deriv
}

func (sa ScoreAccumulator) Weight() float64 { return sa.weight }

// Child returns an accumulator for a nested restraint whose own weight
// multiplies this one.
func (sa ScoreAccumulator) Child(weight float64) ScoreAccumulator {
	c := ScoreAccumulator{total: sa.total, weight: sa.weight * weight}
	if sa.deriv != nil {
		c.deriv = NewDerivativeAccumulator(c.weight)
	}
	return c
}
