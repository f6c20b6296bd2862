package metrics

import "github.com/san-kum/restrain/internal/optim"

// ScoreHistory keeps the starting score followed by the score after
// every step. Its value is the last one.
type ScoreHistory struct {
	name   string
	scores []float64
}

func NewScoreHistory() *ScoreHistory {
	return &ScoreHistory{name: "final_score"}
}

func (h *ScoreHistory) Name() string { return h.name }

// OnStart begins a new trace.
func (h *ScoreHistory) OnStart(score float64) {
	h.scores = append(h.scores[:0], score)
}

func (h *ScoreHistory) OnStep(s optim.Step) {
	h.scores = append(h.scores, s.Score)
}

func (h *ScoreHistory) Value() float64 {
	if len(h.scores) == 0 {
		return 0
	}
	return h.scores[len(h.scores)-1]
}

func (h *ScoreHistory) Scores() []float64 {
	out := make([]float64, len(h.scores))
	copy(out, h.scores)
	return out
}

func (h *ScoreHistory) Reset() {
	h.scores = h.scores[:0]
}
