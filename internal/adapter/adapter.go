// Package adapter connects margin detection to its providers: the remote
// modeling backend over HTTP, and a local fallback used when the backend is
// unreachable.
package adapter

import (
	"context"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

// Provider supplies margin detection, refinement, and PTS export.
type Provider interface {
	// Available reports whether the provider can take requests right now.
	Available(ctx context.Context) bool
	Detect(ctx context.Context, mesh geometry.Mesh, settings model.DetectionSettings) ([]model.MarginPoint, error)
	Refine(ctx context.Context, points []model.MarginPoint, smoothness int) ([]model.MarginPoint, error)
	// ExportPTS returns the serialized point file and its suggested name.
	ExportPTS(ctx context.Context, points []model.MarginPoint, caseID, toothID string) (string, string, error)
}
