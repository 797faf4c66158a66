package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

func ring(positions ...r3.Vec) []model.MarginPoint {
	pts := make([]model.MarginPoint, len(positions))
	for i, p := range positions {
		pts[i] = model.MarginPoint{ID: string(rune('a' + i)), Position: p, Confidence: 0.8}
	}
	return pts
}

func unitSquare() []model.MarginPoint {
	return ring(
		r3.Vec{X: 0, Y: 0},
		r3.Vec{X: 1, Y: 0},
		r3.Vec{X: 1, Y: 1},
		r3.Vec{X: 0, Y: 1},
	)
}

func TestEvalPassesThroughControlPoints(t *testing.T) {
	pts := unitSquare()
	for i, p := range pts {
		got := Eval(pts, float64(i)/float64(len(pts)))
		assert.InDelta(t, p.Position.X, got.X, 1e-12)
		assert.InDelta(t, p.Position.Y, got.Y, 1e-12)
		assert.InDelta(t, p.Position.Z, got.Z, 1e-12)
	}
}

func TestEvalClosesTheLoop(t *testing.T) {
	pts := unitSquare()
	start := Eval(pts, 0)
	end := Eval(pts, 1)
	assert.InDelta(t, start.X, end.X, 1e-12)
	assert.InDelta(t, start.Y, end.Y, 1e-12)
	assert.InDelta(t, start.Z, end.Z, 1e-12)
}

func TestEvalFewPointsSnapsToNearest(t *testing.T) {
	pts := ring(r3.Vec{X: 0}, r3.Vec{X: 5}, r3.Vec{X: 10})

	assert.Equal(t, 0.0, Eval(pts, 0).X)
	assert.Equal(t, 0.0, Eval(pts, 0.49).X)
	assert.Equal(t, 5.0, Eval(pts, 0.5).X)
	assert.Equal(t, 10.0, Eval(pts, 1).X)
}

func TestEvalEmpty(t *testing.T) {
	assert.Equal(t, r3.Vec{}, Eval(nil, 0.5))
	assert.Nil(t, Sample(nil))
}

func TestSampleCountAndClosure(t *testing.T) {
	pts := unitSquare()
	samples := Sample(pts)

	require.Len(t, samples, len(pts)*4+1)
	assert.Equal(t, samples[0], samples[len(samples)-1])
}

func TestSampleSinglePoint(t *testing.T) {
	pts := ring(r3.Vec{X: 2, Y: 3, Z: 4})
	samples := Sample(pts)
	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.Equal(t, pts[0].Position, s)
	}
}

func TestSampleStaysNearControlPolygon(t *testing.T) {
	samples := Sample(unitSquare())
	// Interpolation may overshoot the square slightly at the corners, but a
	// well-separated convex loop must never fly far off.
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.X, -0.2)
		assert.LessOrEqual(t, s.X, 1.2)
		assert.GreaterOrEqual(t, s.Y, -0.2)
		assert.LessOrEqual(t, s.Y, 1.2)
		assert.Equal(t, 0.0, s.Z)
	}
}

func TestSmoothCollinearPullsTowardMean(t *testing.T) {
	pts := ring(r3.Vec{X: 0}, r3.Vec{X: 5}, r3.Vec{X: 10})
	out, err := Smooth(pts, 5)
	require.NoError(t, err)

	mean := 5.0
	for i := range pts {
		before := pts[i].Position.X - mean
		after := out[i].Position.X - mean
		if before < 0 {
			before = -before
		}
		if after < 0 {
			after = -after
		}
		assert.LessOrEqual(t, after, before)
		assert.Equal(t, pts[i].ID, out[i].ID)
		assert.Equal(t, pts[i].Confidence, out[i].Confidence)
		assert.Equal(t, 0.0, out[i].Position.Y)
	}
	assert.Greater(t, out[0].Position.X, 0.0)
	assert.Less(t, out[2].Position.X, 10.0)
}

func TestSmoothMovesTowardNeighbors(t *testing.T) {
	out, err := Smooth(unitSquare(), 2)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, out[0].Position.X, 1e-12)
	assert.InDelta(t, 0.25, out[0].Position.Y, 1e-12)
	// Simultaneous update: position 1 is averaged from the original
	// neighbors, not the already-smoothed ones.
	assert.InDelta(t, 0.75, out[1].Position.X, 1e-12)
	assert.InDelta(t, 0.25, out[1].Position.Y, 1e-12)
}

func TestSmoothHigherWeightMovesLess(t *testing.T) {
	low, err := Smooth(unitSquare(), 1)
	require.NoError(t, err)
	high, err := Smooth(unitSquare(), 20)
	require.NoError(t, err)

	lowDist := r3.Norm(r3.Sub(low[0].Position, r3.Vec{}))
	highDist := r3.Norm(r3.Sub(high[0].Position, r3.Vec{}))
	assert.Less(t, highDist, lowDist)
}

func TestSmoothKeepsMetadata(t *testing.T) {
	in := unitSquare()
	in[2].Normal = r3.Vec{Z: 1}
	out, err := Smooth(in, 3)
	require.NoError(t, err)

	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Confidence, out[i].Confidence)
	}
	assert.Equal(t, r3.Vec{Z: 1}, out[2].Normal)
	// Input is untouched.
	assert.Equal(t, r3.Vec{}, in[0].Position)
}

func TestSmoothSmallInputs(t *testing.T) {
	out, err := Smooth(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, out)

	single := ring(r3.Vec{X: 7})
	out, err = Smooth(single, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, single[0].Position, out[0].Position)
}

func TestSmoothRejectsBadWeight(t *testing.T) {
	_, err := Smooth(unitSquare(), 0)
	assert.Error(t, err)
	_, err = Smooth(unitSquare(), -3)
	assert.Error(t, err)
}
