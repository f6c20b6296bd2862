package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/restrain/internal/experiment"
	"github.com/san-kum/restrain/internal/optim"
)

const historyCapacity = 600

type TickMsg time.Time

// LiveModel drives a steepest-descent minimization, one step per tick,
// and shows the score trace next to the current particle positions.
type LiveModel struct {
	title    string
	exp      *experiment.Experiment
	opt      *optim.SteepestDescent
	interval time.Duration
	running  bool
	scores   []float64
	last     optim.Step
	snapshot *experiment.Result
	err      error
	showHelp bool
}

// NewLiveModel starts opt; exp must wrap the same scoring function.
func NewLiveModel(title string, exp *experiment.Experiment, opt *optim.SteepestDescent, fps int) (*LiveModel, error) {
	if fps <= 0 {
		fps = 30
	}
	if err := opt.Start(); err != nil {
		return nil, err
	}
	m := &LiveModel{
		title:    title,
		exp:      exp,
		opt:      opt,
		interval: time.Second / time.Duration(fps),
		running:  true,
		scores:   make([]float64, 0, historyCapacity),
	}
	m.scores = append(m.scores, opt.Result().Score)
	m.refresh()
	return m, nil
}

func (m *LiveModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n", "right":
			m.advance()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) advance() {
	if m.err != nil || m.opt.Done() {
		return
	}
	s, err := m.opt.Next()
	if err != nil {
		m.err = err
		return
	}
	m.last = s
	m.scores = append(m.scores, s.Score)
	if len(m.scores) > historyCapacity {
		m.scores = m.scores[1:]
	}
	if m.opt.Done() {
		m.err = m.opt.Finish()
	}
	m.refresh()
}

func (m *LiveModel) refresh() {
	snap, err := m.exp.Snapshot(m.opt.Result().Score)
	if err != nil {
		m.err = err
		return
	}
	m.snapshot = snap
}

// Scores returns the recorded score trace.
func (m *LiveModel) Scores() []float64 {
	out := make([]float64, len(m.scores))
	copy(out, m.scores)
	return out
}

func (m *LiveModel) Result() optim.Result { return m.opt.Result() }

func (m *LiveModel) status() string {
	r := m.opt.Result()
	switch {
	case m.err != nil:
		return StatusPaused.Render("ERROR: " + m.err.Error())
	case m.opt.Done():
		return StatusDone.Render(strings.ToUpper(r.Reason))
	case m.running:
		return StatusRunning.Render("RUNNING")
	default:
		return StatusPaused.Render("PAUSED")
	}
}

func (m *LiveModel) View() string {
	var left strings.Builder
	left.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	left.WriteString(m.status() + "\n\n")
	if chart := History(m.scores, "score", 10, 50); chart != "" {
		left.WriteString(chart + "\n")
	}

	var right strings.Builder
	r := m.opt.Result()
	right.WriteString(MetricLabel.Render("step") + MetricValue.Render(fmt.Sprintf("%d", r.Steps)) + "\n")
	right.WriteString(MetricLabel.Render("score") + MetricValue.Render(fmt.Sprintf("%.6g", r.Score)) + "\n")
	right.WriteString(MetricLabel.Render("step size") + MetricValue.Render(fmt.Sprintf("%.3g", m.last.StepSize)) + "\n")
	right.WriteString(MetricLabel.Render("|gradient|") + MetricValue.Render(fmt.Sprintf("%.3g", m.last.GradNorm)) + "\n\n")

	if m.snapshot != nil {
		right.WriteString(Title.Render("particles") + "\n")
		for _, p := range m.snapshot.Particles {
			right.WriteString(fmt.Sprintf("%-8s %s\n", p.Name,
				formatVec(p.Coordinates.X, p.Coordinates.Y, p.Coordinates.Z)))
		}
	}
	right.WriteString("\n" + Separator(30) + "\n")
	right.WriteString(KeyHint.Render("SP:Pause N:Step ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(left.String()),
		Panel.Render(right.String()))

	if m.showHelp {
		help := Panel.Render(strings.Join([]string{
			"Space  pause / resume",
			"N, →   single step",
			"?      toggle this help",
			"Q      quit",
		}, "\n"))
		return help + "\n\n" + main
	}
	return main
}
