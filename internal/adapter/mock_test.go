package adapter

import (
	"context"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

type MockProvider struct {
	Up       bool
	Points   []model.MarginPoint
	Content  string
	Filename string
	Err      error

	DetectCalls    int
	RefineCalls    int
	ExportCalls    int
	LastSettings   model.DetectionSettings
	LastSmoothness int
	LastCaseID     string
	LastToothID    string
}

func (m *MockProvider) Available(ctx context.Context) bool { return m.Up }

func (m *MockProvider) Detect(ctx context.Context, mesh geometry.Mesh, settings model.DetectionSettings) ([]model.MarginPoint, error) {
	m.DetectCalls++
	m.LastSettings = settings
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Points, nil
}

func (m *MockProvider) Refine(ctx context.Context, points []model.MarginPoint, smoothness int) ([]model.MarginPoint, error) {
	m.RefineCalls++
	m.LastSmoothness = smoothness
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Points, nil
}

func (m *MockProvider) ExportPTS(ctx context.Context, points []model.MarginPoint, caseID, toothID string) (string, string, error) {
	m.ExportCalls++
	m.LastCaseID = caseID
	m.LastToothID = toothID
	if m.Err != nil {
		return "", "", m.Err
	}
	return m.Content, m.Filename, nil
}
