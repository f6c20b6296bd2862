package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/restrain/internal/optim"
)

// Point is one vertex of a polyline.
type Point struct{ X, Y float64 }

// PolylineSVG renders points as a single stroked path scaled to fill a
// width x height canvas with 10% padding on each axis.
func PolylineSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// ProfileSVG plots score against the scanned coordinate.
func ProfileSVG(points []optim.ScanPoint, width, height int) string {
	pts := make([]Point, len(points))
	for i, p := range points {
		pts[i] = Point{X: p.Value, Y: p.Score}
	}
	return PolylineSVG(pts, width, height, "#00ffff")
}

// HistorySVG plots score against step index.
func HistorySVG(scores []float64, width, height int) string {
	pts := make([]Point, len(scores))
	for i, s := range scores {
		pts[i] = Point{X: float64(i), Y: s}
	}
	return PolylineSVG(pts, width, height, "#00ff88")
}
