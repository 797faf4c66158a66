package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

// Remote talks to the modeling backend's margin endpoints. Meshes travel as
// base64 binary STL inside JSON.
type Remote struct {
	baseURL      string
	client       *http.Client
	probeTimeout time.Duration
}

func NewRemote(baseURL string, requestTimeout, probeTimeout time.Duration) *Remote {
	return &Remote{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: requestTimeout},
		probeTimeout: probeTimeout,
	}
}

// Available probes the backend health endpoint with a short deadline so a
// dead backend cannot stall the margin workflow.
func (r *Remote) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "healthy"
}

type pointPayload struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence,omitempty"`
}

type detectRequest struct {
	STLData         string  `json:"stl_data"`
	ThresholdOffset float64 `json:"threshold_offset"`
	PointDensity    int     `json:"point_density"`
	Sensitivity     float64 `json:"sensitivity"`
}

type refineRequest struct {
	Points     []pointPayload `json:"points"`
	Smoothness int            `json:"smoothness"`
}

type pointsResponse struct {
	Success bool           `json:"success"`
	Points  []pointPayload `json:"points"`
	Count   int            `json:"count"`
	Error   string         `json:"error"`
}

type exportRequest struct {
	Points      []pointPayload `json:"points"`
	CaseNumber  string         `json:"case_number"`
	ToothNumber string         `json:"tooth_number"`
}

type exportResponse struct {
	Success    bool   `json:"success"`
	PTSContent string `json:"pts_content"`
	Filename   string `json:"filename"`
	Error      string `json:"error"`
}

func (r *Remote) Detect(ctx context.Context, mesh geometry.Mesh, settings model.DetectionSettings) ([]model.MarginPoint, error) {
	stl, err := geometry.EncodeSTL(mesh)
	if err != nil {
		return nil, fmt.Errorf("encode mesh: %w", err)
	}
	req := detectRequest{
		STLData:         base64.StdEncoding.EncodeToString(stl),
		ThresholdOffset: settings.ThresholdOffset,
		PointDensity:    settings.PointDensity,
		Sensitivity:     settings.Sensitivity,
	}
	var resp pointsResponse
	if err := r.post(ctx, "/api/margin/detect", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("backend detection failed: %s", resp.Error)
	}
	return fromPayload(resp.Points), nil
}

func (r *Remote) Refine(ctx context.Context, points []model.MarginPoint, smoothness int) ([]model.MarginPoint, error) {
	req := refineRequest{Points: toPayload(points), Smoothness: smoothness}
	var resp pointsResponse
	if err := r.post(ctx, "/api/margin/refine", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("backend refinement failed: %s", resp.Error)
	}
	return fromPayload(resp.Points), nil
}

func (r *Remote) ExportPTS(ctx context.Context, points []model.MarginPoint, caseID, toothID string) (string, string, error) {
	req := exportRequest{Points: toPayload(points), CaseNumber: caseID, ToothNumber: toothID}
	var resp exportResponse
	if err := r.post(ctx, "/api/margin/export", req, &resp); err != nil {
		return "", "", err
	}
	if !resp.Success {
		return "", "", fmt.Errorf("backend export failed: %s", resp.Error)
	}
	return resp.PTSContent, resp.Filename, nil
}

func (r *Remote) post(ctx context.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend request %s: %w", path, err)
	}
	return nil
}

// toPayload converts points to the wire shape: sequential 1-based ids,
// internal uuids stay local.
func toPayload(points []model.MarginPoint) []pointPayload {
	payload := make([]pointPayload, 0, len(points))
	for i, p := range points {
		payload = append(payload, pointPayload{
			ID:         i + 1,
			X:          p.Position.X,
			Y:          p.Position.Y,
			Z:          p.Position.Z,
			Confidence: p.Confidence,
		})
	}
	return payload
}

// fromPayload rebuilds internal points from wire points. Wire identity is
// positional, so every imported point gets a fresh id and a zero normal.
func fromPayload(payload []pointPayload) []model.MarginPoint {
	now := time.Now().UTC()
	points := make([]model.MarginPoint, 0, len(payload))
	for _, p := range payload {
		points = append(points, model.MarginPoint{
			ID:         uuid.New().String(),
			Position:   r3.Vec{X: p.X, Y: p.Y, Z: p.Z},
			CreatedAt:  now,
			Confidence: p.Confidence,
		})
	}
	return points
}
