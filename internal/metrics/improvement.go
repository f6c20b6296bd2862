package metrics

import "github.com/san-kum/restrain/internal/optim"

// Improvement is the starting score minus the latest score.
type Improvement struct {
	name    string
	initial float64
	current float64
	started bool
}

func NewImprovement() *Improvement {
	return &Improvement{name: "improvement"}
}

func (m *Improvement) Name() string { return m.name }

func (m *Improvement) OnStart(score float64) {
	m.initial = score
	m.current = score
	m.started = true
}

func (m *Improvement) OnStep(s optim.Step) {
	m.current = s.Score
}

func (m *Improvement) Value() float64 {
	if !m.started {
		return 0
	}
	return m.initial - m.current
}

func (m *Improvement) Reset() {
	m.initial = 0
	m.current = 0
	m.started = false
}
