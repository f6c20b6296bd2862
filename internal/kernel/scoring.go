package kernel

import (
	"fmt"
	"math"
)

// ScoringFunction evaluates a fixed list of restraints over one model
// and remembers the last per-restraint scores.
type ScoringFunction struct {
	model      *Model
	restraints []Restraint
	scores     []float64
}

func NewScoringFunction(m *Model, restraints ...Restraint) (*ScoringFunction, error) {
	for _, r := range restraints {
		if r.Model() != m {
			return nil, fmt.Errorf("scoring function: %s: %w", r.Name(), ErrModelMismatch)
		}
	}
	return &ScoringFunction{
		model:      m,
		restraints: restraints,
		scores:     make([]float64, len(restraints)),
	}, nil
}

func (sf *ScoringFunction) Model() *Model { return sf.model }

func (sf *ScoringFunction) Restraints() []Restraint {
	out := make([]Restraint, len(sf.restraints))
	copy(out, sf.restraints)
	return out
}

// Evaluate returns the weighted total. Derivatives, when requested, are
// zeroed once and then accumulated across all restraints.
func (sf *ScoringFunction) Evaluate(calcDerivs bool) (float64, error) {
	if calcDerivs {
		sf.model.ZeroDerivatives()
	}

	total := 0.0
	scores := make([]float64, len(sf.restraints))
	for i, r := range sf.restraints {
		sa := NewScoreAccumulator(&scores[i], r.Weight(), calcDerivs)
		if err := r.AddScoreAndDerivatives(sa); err != nil {
			return 0, fmt.Errorf("evaluate %s: %w", r.Name(), err)
		}
		total += scores[i]
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("scoring function: %w", ErrInvalidScore)
	}
	sf.scores = scores

	sf.model.log.Debug().
		Int("restraints", len(sf.restraints)).
		Float64("score", total).
		Msg("evaluated scoring function")

	return total, nil
}

// Scores returns the weighted score of each restraint from the last
// successful Evaluate call, in restraint order.
func (sf *ScoringFunction) Scores() []float64 {
	out := make([]float64, len(sf.scores))
	copy(out, sf.scores)
	return out
}
