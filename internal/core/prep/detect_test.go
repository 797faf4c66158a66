package prep

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

func testDetector() *Detector {
	return &Detector{Rand: rand.New(rand.NewSource(42))}
}

// prepCube is a closed cube with its occlusal surface at z=e.
func prepCube(e float64) geometry.Mesh {
	quads := [][4]r3.Vec{
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: e, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: 0, Z: 0}},
		{{X: 0, Y: 0, Z: e}, {X: e, Y: 0, Z: e}, {X: e, Y: e, Z: e}, {X: 0, Y: e, Z: e}},
		{{X: 0, Y: 0, Z: 0}, {X: e, Y: 0, Z: 0}, {X: e, Y: 0, Z: e}, {X: 0, Y: 0, Z: e}},
		{{X: 0, Y: e, Z: 0}, {X: 0, Y: e, Z: e}, {X: e, Y: e, Z: e}, {X: e, Y: e, Z: 0}},
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: e}, {X: 0, Y: e, Z: e}, {X: 0, Y: e, Z: 0}},
		{{X: e, Y: 0, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: e, Z: e}, {X: e, Y: 0, Z: e}},
	}
	var m geometry.Mesh
	for _, q := range quads {
		m.Positions = append(m.Positions, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return m
}

// prepFan is an open cone: rim vertices on a circle at z=1 fanned down to an
// apex at the origin, with the rim edge left unstitched.
func prepFan(rim int) geometry.Mesh {
	ring := make([]r3.Vec, rim)
	for k := range ring {
		a := 2 * math.Pi * float64(k) / float64(rim)
		ring[k] = r3.Vec{X: 3 * math.Cos(a), Y: 3 * math.Sin(a), Z: 1}
	}
	var m geometry.Mesh
	for k := range ring {
		m.Positions = append(m.Positions, r3.Vec{}, ring[k], ring[(k+1)%rim])
	}
	return m
}

func squareLoop() []model.MarginPoint {
	return []model.MarginPoint{
		{ID: "a", Position: r3.Vec{X: 0, Y: 0}, Confidence: 0.8},
		{ID: "b", Position: r3.Vec{X: 1, Y: 0}, Confidence: 0.8},
		{ID: "c", Position: r3.Vec{X: 1, Y: 1}, Confidence: 0.8},
		{ID: "d", Position: r3.Vec{X: 0, Y: 1}, Confidence: 0.8},
	}
}

func centroid2D(points []model.MarginPoint) (float64, float64) {
	var cx, cy float64
	for _, p := range points {
		cx += p.Position.X
		cy += p.Position.Y
	}
	n := float64(len(points))
	return cx / n, cy / n
}

func spread2D(points []model.MarginPoint) float64 {
	cx, cy := centroid2D(points)
	var s float64
	for _, p := range points {
		dx, dy := p.Position.X-cx, p.Position.Y-cy
		s += dx*dx + dy*dy
	}
	return s
}

func TestDetectFindsOcclusalBand(t *testing.T) {
	det, err := testDetector().Detect(prepCube(2), model.DefaultDetectionSettings())
	require.NoError(t, err)

	assert.True(t, det.Detected)
	require.NotEmpty(t, det.SuggestedMargin)
	for _, p := range det.SuggestedMargin {
		// Only the top band clears the adaptive height threshold.
		assert.InDelta(t, 2.0, p.Position.Z, 1e-9)
		assert.GreaterOrEqual(t, p.Confidence, 0.8)
		assert.LessOrEqual(t, p.Confidence, 1.0)
		assert.NotEmpty(t, p.ID)
	}
	assert.InDelta(t, meanConfidence(det.SuggestedMargin), det.Confidence, 1e-12)
	assert.InDelta(t, 2.0, det.Bounds.Max.Z, 1e-9)
	assert.InDelta(t, 2.0, det.Bounds.Min.Z, 1e-9)
}

func TestDetectOrdersCounterClockwise(t *testing.T) {
	det, err := testDetector().Detect(prepCube(2), model.DefaultDetectionSettings())
	require.NoError(t, err)
	pts := det.SuggestedMargin
	require.Greater(t, len(pts), 2)

	cx, cy := centroid2D(pts)
	prev := math.Inf(-1)
	for _, p := range pts {
		a := math.Atan2(p.Position.Y-cy, p.Position.X-cx)
		assert.GreaterOrEqual(t, a, prev)
		prev = a
	}
}

func TestDetectFindsOpenRim(t *testing.T) {
	det, err := testDetector().Detect(prepFan(16), model.DefaultDetectionSettings())
	require.NoError(t, err)

	// The apex touches every face, but curvature is normalized over the
	// candidate band alone, so the rim survives at stock sensitivity.
	assert.True(t, det.Detected)
	require.Len(t, det.SuggestedMargin, 16)
	for _, p := range det.SuggestedMargin {
		assert.InDelta(t, 1.0, p.Position.Z, 1e-9)
		assert.InDelta(t, 3.0, math.Hypot(p.Position.X, p.Position.Y), 1e-9)
	}
}

func TestDetectHonorsPointDensity(t *testing.T) {
	s := model.DefaultDetectionSettings()
	s.PointDensity = 10
	det, err := testDetector().Detect(prepFan(16), s)
	require.NoError(t, err)
	require.Len(t, det.SuggestedMargin, 10)

	// Thinning spreads over distinct welded vertices, never duplicate
	// soup corners.
	seen := make(map[r3.Vec]bool)
	for _, p := range det.SuggestedMargin {
		seen[p.Position] = true
	}
	assert.Len(t, seen, 10)
}

func TestDetectWeldsDuplicateCorners(t *testing.T) {
	s := model.DefaultDetectionSettings()
	s.PointDensity = 10
	det, err := testDetector().Detect(prepCube(2), s)
	require.NoError(t, err)

	// The occlusal face has four distinct corners. The soup repeats each
	// across incident triangles, yet only one point per corner comes back.
	require.Len(t, det.SuggestedMargin, 4)
	seen := make(map[r3.Vec]bool)
	for _, p := range det.SuggestedMargin {
		seen[p.Position] = true
	}
	assert.Len(t, seen, 4)
}

func TestDetectFlatMeshHasNoCandidates(t *testing.T) {
	flat := geometry.Mesh{Positions: []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}}
	_, err := testDetector().Detect(flat, model.DefaultDetectionSettings())
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestDetectEmptyMesh(t *testing.T) {
	_, err := testDetector().Detect(geometry.Mesh{}, model.DefaultDetectionSettings())
	assert.ErrorIs(t, err, geometry.ErrEmptyMesh)
}

func TestDetectValidatesSettings(t *testing.T) {
	s := model.DefaultDetectionSettings()
	s.Sensitivity = 2.0
	_, err := testDetector().Detect(prepCube(2), s)
	assert.Error(t, err)
}

func TestRefinePullsLoopTogether(t *testing.T) {
	in := squareLoop()
	out, err := testDetector().Refine(in, 5)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	// The symmetric circular filter preserves the loop centroid while
	// shrinking the spread.
	inCx, inCy := centroid2D(in)
	outCx, outCy := centroid2D(out)
	assert.InDelta(t, inCx, outCx, 1e-9)
	assert.InDelta(t, inCy, outCy, 1e-9)
	assert.Less(t, spread2D(out), spread2D(in))

	for i := range out {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, 0.9, out[i].Confidence)
	}
}

func TestRefineSmallLoopUnchanged(t *testing.T) {
	in := squareLoop()[:2]
	out, err := testDetector().Refine(in, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Position, out[0].Position)
	assert.Equal(t, 0.8, out[0].Confidence)
}

func TestRefineRejectsBadSmoothness(t *testing.T) {
	_, err := testDetector().Refine(squareLoop(), 0)
	assert.Error(t, err)
	_, err = testDetector().Refine(squareLoop(), -2)
	assert.Error(t, err)
}
