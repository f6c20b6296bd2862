// Package metrics summarizes minimization runs step by step.
package metrics

import "github.com/san-kum/restrain/internal/optim"

// Metric observes optimizer steps and reduces them to one number.
type Metric interface {
	optim.Observer
	Name() string
	Value() float64
	Reset()
}

var (
	_ optim.StartObserver = (*ScoreHistory)(nil)
	_ optim.StartObserver = (*Improvement)(nil)
)

// Defaults returns the metrics reported for every minimization.
func Defaults() []Metric {
	return []Metric{
		NewScoreHistory(),
		NewAcceptance(),
		NewImprovement(),
	}
}

// Collect evaluates every metric into a name -> value map.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
