// Package prep analyzes preparation meshes: locating the likely margin band
// and refining detected margin loops.
package prep

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

var ErrNoCandidates = errors.New("no margin candidates above height threshold")

const refinedConfidence = 0.9

// Detector locates margin candidates on preparation meshes. Construct with
// NewDetector; the zero value has no random source.
type Detector struct {
	Rand *rand.Rand
}

func NewDetector() *Detector {
	return &Detector{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Detect scans the mesh for the margin band: welded vertices above an
// adaptive height threshold whose surroundings bend sharply, thinned to the
// requested density and ordered counter-clockwise around their
// occlusal-plane centroid. The soup is welded first, so duplicate corners
// neither skew the threshold statistics nor emit duplicate points.
func (d *Detector) Detect(m geometry.Mesh, settings model.DetectionSettings) (model.PrepDetection, error) {
	if err := settings.Validate(); err != nil {
		return model.PrepDetection{}, err
	}
	if m.IsEmpty() {
		return model.PrepDetection{}, geometry.ErrEmptyMesh
	}

	ids := geometry.WeldIndex(m.Positions)
	verts := weldVertices(m.Positions, ids)

	zs := make([]float64, len(verts))
	for i, p := range verts {
		zs[i] = p.Z
	}
	mean, std := stat.MeanStdDev(zs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	threshold := mean + settings.ThresholdOffset*std

	candidates := make([]int, 0, len(verts)/4)
	for id, p := range verts {
		if p.Z > threshold {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return model.PrepDetection{}, ErrNoCandidates
	}

	selected := filterByCurvature(m, ids, len(verts), candidates, settings.Sensitivity)
	selected = thin(selected, settings.PointDensity)

	now := time.Now().UTC()
	points := make([]model.MarginPoint, 0, len(selected))
	for _, id := range selected {
		points = append(points, model.MarginPoint{
			ID:         uuid.New().String(),
			Position:   verts[id],
			CreatedAt:  now,
			Confidence: 0.8 + 0.2*d.Rand.Float64(),
		})
	}
	sortByAngle(points)

	det := model.PrepDetection{
		Detected:        len(points) > 0,
		SuggestedMargin: points,
	}
	if len(points) > 0 {
		det.Confidence = meanConfidence(points)
		det.Bounds = pointBounds(points)
	}
	return det, nil
}

// Refine relaxes a detected loop with a circular Gaussian filter: each point
// becomes the weighted mean of the whole loop, weights falling off with
// cyclic index distance. Confidence is raised to reflect the cleanup. Loops
// below three points come back unchanged.
func (d *Detector) Refine(points []model.MarginPoint, smoothness float64) ([]model.MarginPoint, error) {
	if smoothness <= 0 {
		return nil, fmt.Errorf("smoothness %.2f must be positive", smoothness)
	}
	n := len(points)
	out := append([]model.MarginPoint(nil), points...)
	if n < 3 {
		return out, nil
	}
	denom := 2 * smoothness * smoothness
	for i := 0; i < n; i++ {
		var acc r3.Vec
		var wsum float64
		for j := 0; j < n; j++ {
			dist := math.Abs(float64(i - j))
			dist = math.Min(dist, float64(n)-dist)
			w := math.Exp(-dist * dist / denom)
			acc = r3.Add(acc, r3.Scale(w, points[j].Position))
			wsum += w
		}
		out[i].Position = r3.Scale(1/wsum, acc)
		out[i].Confidence = refinedConfidence
	}
	return out, nil
}

// weldVertices collapses the soup to its distinct positions, indexed by the
// ids WeldIndex assigned. Ids are dense in first-seen order, so a position
// is recorded the first time its id appears.
func weldVertices(positions []r3.Vec, ids []int) []r3.Vec {
	verts := make([]r3.Vec, 0, len(positions))
	for i, id := range ids {
		if id == len(verts) {
			verts = append(verts, positions[i])
		}
	}
	return verts
}

// filterByCurvature keeps candidates whose accumulated face-normal weight,
// normalized over the candidate band, exceeds 1 - sensitivity. Welded
// vertices where many faces meet score high, which tracks the sharp bend at
// the margin on scanned preparations. Only candidates accumulate, so the
// strongest candidate scores exactly 1.0 and always survives; interior
// vertices with more incident faces than an open rim never drag the rim
// below the cut. A band with no usable normals passes through unfiltered.
func filterByCurvature(m geometry.Mesh, ids []int, vertexCount int, candidates []int, sensitivity float64) []int {
	inBand := make([]bool, vertexCount)
	for _, id := range candidates {
		inBand[id] = true
	}
	accum := make([]float64, vertexCount)
	for t := 0; t < m.TriangleCount(); t++ {
		w := r3.Norm(geometry.FaceNormal(m.Triangle(t)))
		for c := 3 * t; c < 3*t+3; c++ {
			if inBand[ids[c]] {
				accum[ids[c]] += w
			}
		}
	}
	var max float64
	for _, id := range candidates {
		if accum[id] > max {
			max = accum[id]
		}
	}
	if max <= 0 {
		return candidates
	}
	keep := make([]int, 0, len(candidates))
	for _, id := range candidates {
		if accum[id]/max > 1-sensitivity {
			keep = append(keep, id)
		}
	}
	return keep
}

// thin reduces the candidate list to at most density entries, evenly spread
// across the original ordering with both ends kept.
func thin(indices []int, density int) []int {
	if len(indices) <= density {
		return indices
	}
	last := len(indices) - 1
	out := make([]int, 0, density)
	for k := 0; k < density; k++ {
		out = append(out, indices[k*last/(density-1)])
	}
	return out
}

// sortByAngle orders points counter-clockwise around their centroid in the
// occlusal (xy) plane.
func sortByAngle(points []model.MarginPoint) {
	if len(points) < 2 {
		return
	}
	var cx, cy float64
	for _, p := range points {
		cx += p.Position.X
		cy += p.Position.Y
	}
	cx /= float64(len(points))
	cy /= float64(len(points))
	sort.Slice(points, func(i, j int) bool {
		ai := math.Atan2(points[i].Position.Y-cy, points[i].Position.X-cx)
		aj := math.Atan2(points[j].Position.Y-cy, points[j].Position.X-cx)
		return ai < aj
	})
}

func meanConfidence(points []model.MarginPoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Confidence
	}
	return sum / float64(len(points))
}

func pointBounds(points []model.MarginPoint) r3.Box {
	b := r3.Box{Min: points[0].Position, Max: points[0].Position}
	for _, p := range points[1:] {
		b.Min.X = math.Min(b.Min.X, p.Position.X)
		b.Min.Y = math.Min(b.Min.Y, p.Position.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Position.Z)
		b.Max.X = math.Max(b.Max.X, p.Position.X)
		b.Max.Y = math.Max(b.Max.Y, p.Position.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Position.Z)
	}
	return b
}
