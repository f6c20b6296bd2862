package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/restrain/internal/optim"
)

// Profile plots score (and optionally the derivative) against the
// scanned coordinate.
func Profile(points []optim.ScanPoint, caption string, withDerivative bool) string {
	if len(points) == 0 {
		return ""
	}

	scores := make([]float64, len(points))
	derivs := make([]float64, len(points))
	for i, p := range points {
		scores[i] = p.Score
		derivs[i] = p.Derivative
	}

	lo, hi := points[0].Value, points[len(points)-1].Value
	out := asciigraph.Plot(scores,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s score, %g .. %g", caption, lo, hi)),
	)
	if withDerivative {
		out += "\n\n" + asciigraph.Plot(derivs,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("%s derivative", caption)),
		)
	}
	return out
}

// History plots a score trace, e.g. a minimization.
func History(scores []float64, caption string, height, width int) string {
	if len(scores) < 2 {
		return ""
	}
	return asciigraph.Plot(scores,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
