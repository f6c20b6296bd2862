package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/foo"
	"github.com/san-kum/restrain/internal/kernel"
	"github.com/san-kum/restrain/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLive(t *testing.T) *LiveModel {
	t.Helper()
	m := kernel.NewModel()
	p := m.AddParticle("p")
	_, err := core.SetupXYZ(m, p, algebra.NewVector3D(1, 2, 3))
	require.NoError(t, err)

	exp, err := experiment.New(m, []kernel.Restraint{foo.NewMyRestraint(m, p, 10)}, zerolog.Nop())
	require.NoError(t, err)
	opt := optim.NewSteepestDescent(exp.ScoringFunction(), optim.DefaultConfig(), zerolog.Nop())

	live, err := NewLiveModel("default", exp, opt, 60)
	require.NoError(t, err)
	return live
}

func TestProfile(t *testing.T) {
	assert.Empty(t, Profile(nil, "z", false))

	points := []optim.ScanPoint{
		{Value: -1, Score: 5, Derivative: -10},
		{Value: 0, Score: 0, Derivative: 0},
		{Value: 1, Score: 5, Derivative: 10},
	}
	out := Profile(points, "p.z", true)
	assert.Contains(t, out, "p.z score, -1 .. 1")
	assert.Contains(t, out, "p.z derivative")
}

func TestHistory(t *testing.T) {
	assert.Empty(t, History([]float64{1}, "score", 5, 20))
	assert.Contains(t, History([]float64{3, 2, 1}, "trace", 5, 20), "trace")
}

func TestReport(t *testing.T) {
	r := &experiment.Result{
		Score: 45,
		Restraints: []experiment.RestraintResult{
			{Name: "MyRestraint0", Score: 45, Inputs: []string{"p"}},
		},
		Particles: []experiment.ParticleResult{
			{Name: "p", Coordinates: algebra.NewVector3D(1, 2, 3), Derivatives: algebra.NewVector3D(0, 0, 30)},
		},
	}
	out := Report("default", r)
	assert.Contains(t, out, "45.000000")
	assert.Contains(t, out, "MyRestraint0")
	assert.Contains(t, out, "inputs: p")
	assert.Contains(t, out, "(0.0000, 0.0000, 30.0000)")
}

func TestLiveModel_Tick(t *testing.T) {
	live := newLive(t)
	assert.Equal(t, []float64{45}, live.Scores())
	assert.NotNil(t, live.Init())

	_, cmd := live.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Len(t, live.Scores(), 2)
	assert.Less(t, live.Scores()[1], 45.0)
	assert.Contains(t, live.View(), "RUNNING")
}

func TestLiveModel_PauseAndStep(t *testing.T) {
	live := newLive(t)

	live.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	live.Update(TickMsg(time.Now()))
	assert.Len(t, live.Scores(), 1, "paused model does not advance")
	assert.Contains(t, live.View(), "PAUSED")

	live.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Len(t, live.Scores(), 2)

	for i := 0; i < 100 && !live.opt.Done(); i++ {
		live.advance()
	}
	assert.True(t, live.Result().Converged)
	assert.Contains(t, live.View(), "SCORE BELOW THRESHOLD")

	_, cmd := live.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLiveModel_Help(t *testing.T) {
	live := newLive(t)
	live.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Contains(t, live.View(), "toggle this help")
}

func TestPolylineSVG(t *testing.T) {
	assert.Empty(t, PolylineSVG([]Point{{0, 0}}, 100, 50, "#fff"))

	svg := PolylineSVG([]Point{{0, 0}, {1, 1}}, 100, 50, "#fff")
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="100" height="50"`)
	assert.Contains(t, svg, `stroke="#fff"`)
	// 10% padding maps the endpoints to 1/12 and 11/12 of each side.
	assert.Contains(t, svg, "M8.3,45.8 L91.7,4.2")
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}

func TestProfileAndHistorySVG(t *testing.T) {
	points := []optim.ScanPoint{{Value: -1, Score: 5}, {Value: 0, Score: 0}, {Value: 1, Score: 5}}
	svg := ProfileSVG(points, 200, 100)
	assert.Contains(t, svg, "#00ffff")
	assert.Equal(t, 2, strings.Count(svg, " L"))

	assert.Contains(t, HistorySVG([]float64{3, 2, 1}, 200, 100), "#00ff88")
	assert.Empty(t, HistorySVG([]float64{3}, 200, 100))
}
