package adapter

import (
	"context"
	"fmt"
	"log"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

// Service answers margin requests with provider preference: the remote
// backend when its liveness probe passes, the local fallback otherwise.
// Results always carry the source that produced them. Errors are reserved
// for invalid requests and total provider failure; a dead or failing remote
// degrades silently to the fallback.
type Service struct {
	Remote   Provider
	Fallback Provider
}

func NewService(remote, fallback Provider) *Service {
	return &Service{Remote: remote, Fallback: fallback}
}

func (s *Service) Detect(ctx context.Context, mesh geometry.Mesh, settings model.DetectionSettings) (model.DetectionResult, error) {
	if err := settings.Validate(); err != nil {
		return model.DetectionResult{}, err
	}
	if s.Remote != nil && s.Remote.Available(ctx) {
		points, err := s.Remote.Detect(ctx, mesh, settings)
		if err == nil {
			return pointsResult(points, model.SourceExternal), nil
		}
		log.Printf("Remote margin detection failed, using fallback: %v", err)
	}
	points, err := s.Fallback.Detect(ctx, mesh, settings)
	if err != nil {
		return model.DetectionResult{Source: model.SourceFallback, Error: err.Error()}, err
	}
	return pointsResult(points, model.SourceFallback), nil
}

func (s *Service) Refine(ctx context.Context, points []model.MarginPoint, smoothness int) (model.DetectionResult, error) {
	if smoothness < 1 {
		return model.DetectionResult{}, fmt.Errorf("smoothness %d must be at least 1", smoothness)
	}
	if s.Remote != nil && s.Remote.Available(ctx) {
		refined, err := s.Remote.Refine(ctx, points, smoothness)
		if err == nil {
			return pointsResult(refined, model.SourceExternal), nil
		}
		log.Printf("Remote margin refinement failed, using fallback: %v", err)
	}
	refined, err := s.Fallback.Refine(ctx, points, smoothness)
	if err != nil {
		return model.DetectionResult{Source: model.SourceFallback, Error: err.Error()}, err
	}
	return pointsResult(refined, model.SourceFallback), nil
}

func (s *Service) ExportPTS(ctx context.Context, points []model.MarginPoint, caseID, toothID string) (model.ExportResult, error) {
	if s.Remote != nil && s.Remote.Available(ctx) {
		content, filename, err := s.Remote.ExportPTS(ctx, points, caseID, toothID)
		if err == nil {
			return model.ExportResult{Success: true, Content: content, Filename: filename, Source: model.SourceExternal}, nil
		}
		log.Printf("Remote margin export failed, using fallback: %v", err)
	}
	content, filename, err := s.Fallback.ExportPTS(ctx, points, caseID, toothID)
	if err != nil {
		return model.ExportResult{Source: model.SourceFallback}, err
	}
	return model.ExportResult{Success: true, Content: content, Filename: filename, Source: model.SourceFallback}, nil
}

func pointsResult(points []model.MarginPoint, source string) model.DetectionResult {
	return model.DetectionResult{
		Success: true,
		Points:  points,
		Count:   len(points),
		Source:  source,
	}
}
