// Package curve turns ordered margin points into a smooth closed loop and
// provides the neighbor smoothing used to relax noisy point placements.
package curve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

const samplesPerPoint = 4

// Eval returns the margin curve location at parameter t in [0, 1]. The curve
// is closed, so t=0 and t=1 meet at the first control point. Fewer than four
// control points cannot support a spline segment; the nearest control point
// is returned instead.
func Eval(points []model.MarginPoint, t float64) r3.Vec {
	n := len(points)
	if n == 0 {
		return r3.Vec{}
	}
	t = math.Max(0, math.Min(1, t))
	if n < 4 {
		return points[int(math.Floor(t*float64(n-1)))].Position
	}
	segment := t * float64(n)
	idx := int(math.Floor(segment))
	local := segment - float64(idx)
	p0 := points[(idx-1+n)%n].Position
	p1 := points[idx%n].Position
	p2 := points[(idx+1)%n].Position
	p3 := points[(idx+2)%n].Position
	return r3.Vec{
		X: catmullRom(p0.X, p1.X, p2.X, p3.X, local),
		Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, local),
		Z: catmullRom(p0.Z, p1.Z, p2.Z, p3.Z, local),
	}
}

// catmullRom evaluates the uniform Catmull-Rom basis on one axis.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// Sample traces the closed curve at four steps per control point, inclusive
// of both ends, so the last sample coincides with the first.
func Sample(points []model.MarginPoint) []r3.Vec {
	if len(points) == 0 {
		return nil
	}
	steps := len(points) * samplesPerPoint
	out := make([]r3.Vec, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, Eval(points, float64(i)/float64(steps)))
	}
	return out
}

// Smooth applies one pass of cyclic neighbor averaging: each position moves
// to (prev + weight*cur + next) / (weight+2), computed simultaneously from
// the pre-pass positions. Ids, normals, confidences and timestamps are kept.
// Inputs with fewer than two points come back unchanged.
func Smooth(points []model.MarginPoint, weight int) ([]model.MarginPoint, error) {
	if weight < 1 {
		return nil, fmt.Errorf("smoothing weight %d must be at least 1", weight)
	}
	out := append([]model.MarginPoint(nil), points...)
	n := len(points)
	if n < 2 {
		return out, nil
	}
	w := float64(weight)
	for i := range points {
		prev := points[(i-1+n)%n].Position
		cur := points[i].Position
		next := points[(i+1)%n].Position
		out[i].Position = r3.Scale(1/(w+2), r3.Add(r3.Add(prev, next), r3.Scale(w, cur)))
	}
	return out, nil
}
