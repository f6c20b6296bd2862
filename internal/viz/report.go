package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/restrain/internal/experiment"
)

// Report renders an evaluation result as a styled panel.
func Report(title string, r *experiment.Result) string {
	var s strings.Builder

	s.WriteString(HeaderStyle.Render(title) + "\n")
	s.WriteString(MetricLabel.Render("score") + MetricValue.Render(fmt.Sprintf("%.6f", r.Score)) + "\n\n")

	s.WriteString(Title.Render("restraints") + "\n")
	for _, rr := range r.Restraints {
		s.WriteString(fmt.Sprintf("  %-28s %14.6f  inputs: %s\n",
			rr.Name, rr.Score, strings.Join(rr.Inputs, ", ")))
	}

	s.WriteString("\n" + Title.Render("particles") + "\n")
	for _, p := range r.Particles {
		s.WriteString(fmt.Sprintf("  %-10s xyz %-34s d %s\n",
			p.Name, formatVec(p.Coordinates.X, p.Coordinates.Y, p.Coordinates.Z),
			formatVec(p.Derivatives.X, p.Derivatives.Y, p.Derivatives.Z)))
	}

	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

func formatVec(x, y, z float64) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", x, y, z)
}
