package metrics

import "github.com/san-kum/restrain/internal/optim"

// Acceptance is the fraction of steps that lowered the score.
type Acceptance struct {
	name     string
	accepted int
	samples  int
}

func NewAcceptance() *Acceptance {
	return &Acceptance{name: "acceptance"}
}

func (a *Acceptance) Name() string {
	return a.name
}

func (a *Acceptance) OnStep(s optim.Step) {
	a.samples++
	if s.Accepted {
		a.accepted++
	}
}

func (a *Acceptance) Value() float64 {
	if a.samples == 0 {
		return 1.0
	}
	return float64(a.accepted) / float64(a.samples)
}

func (a *Acceptance) Reset() {
	a.accepted = 0
	a.samples = 0
}
