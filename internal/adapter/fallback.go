package adapter

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/curve"
	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
	"github.com/zaidku/DentalCad-Pro/internal/core/pts"
)

const (
	fallbackRadius      = 3.0
	fallbackPlaneJitter = 0.2
	fallbackDepthJitter = 0.1
)

// Fallback keeps the margin workflow usable without the modeling backend:
// detection degrades to a placeholder ring around the preparation, while
// refinement and export run on the local implementations.
type Fallback struct {
	Rand *rand.Rand
}

func NewFallback() *Fallback {
	return &Fallback{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (f *Fallback) Available(ctx context.Context) bool { return true }

// Detect lays an evenly spaced ring around the mesh bounds center with mild
// jitter, at reduced confidence so downstream stages can tell it apart from
// a real detection. An empty mesh centers the ring on the origin.
func (f *Fallback) Detect(ctx context.Context, mesh geometry.Mesh, settings model.DetectionSettings) ([]model.MarginPoint, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	var center r3.Vec
	if !mesh.IsEmpty() {
		center = geometry.Center(geometry.Bounds(mesh))
	}
	now := time.Now().UTC()
	n := settings.PointDensity
	points := make([]model.MarginPoint, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		radius := fallbackRadius + (f.Rand.Float64()-0.5)*2*fallbackPlaneJitter
		points = append(points, model.MarginPoint{
			ID: uuid.New().String(),
			Position: r3.Vec{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
				Z: center.Z + (f.Rand.Float64()-0.5)*2*fallbackDepthJitter,
			},
			CreatedAt:  now,
			Confidence: 0.7 + 0.2*f.Rand.Float64(),
		})
	}
	return points, nil
}

func (f *Fallback) Refine(ctx context.Context, points []model.MarginPoint, smoothness int) ([]model.MarginPoint, error) {
	return curve.Smooth(points, smoothness)
}

func (f *Fallback) ExportPTS(ctx context.Context, points []model.MarginPoint, caseID, toothID string) (string, string, error) {
	return pts.Write(points, caseID, toothID), pts.Filename(caseID, toothID), nil
}
