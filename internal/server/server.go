package server

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/config"
	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
	"github.com/zaidku/DentalCad-Pro/internal/core/prep"
	"github.com/zaidku/DentalCad-Pro/internal/core/pts"
	"github.com/zaidku/DentalCad-Pro/internal/core/solidify"
)

const serviceName = "Advanced Modeling Backend"

type Server struct {
	Detector   *prep.Detector
	Solidifier solidify.Solidifier
	Config     *config.Config
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using default configuration", cfgPath, err)
		cfg = config.Default()
	}

	return &Server{
		Detector:   prep.NewDetector(),
		Solidifier: solidify.Solidifier{},
		Config:     cfg,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", s.Health)
	r.GET("/api/orientation/presets", s.OrientationPresets)
	r.POST("/api/orientation/apply", s.ApplyOrientation)
	r.POST("/api/solidify", s.SolidifyMesh)
	r.POST("/api/model/info", s.ModelInfo)
	r.POST("/api/margin/detect", s.DetectMargin)
	r.POST("/api/margin/refine", s.RefineMargin)
	r.POST("/api/margin/export", s.ExportMargin)

	return r
}

// corsMiddleware opens the API to the browser-based CAD client, which is
// served from a different origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func processingError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

// wirePoint is the margin point shape shared with the browser client:
// sequential 1-based ids, no internal identity.
type wirePoint struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

func toWire(points []model.MarginPoint) []wirePoint {
	out := make([]wirePoint, 0, len(points))
	for i, p := range points {
		out = append(out, wirePoint{
			ID:         i + 1,
			X:          p.Position.X,
			Y:          p.Position.Y,
			Z:          p.Position.Z,
			Confidence: p.Confidence,
		})
	}
	return out
}

func fromWire(points []wirePoint) []model.MarginPoint {
	now := time.Now().UTC()
	out := make([]model.MarginPoint, 0, len(points))
	for _, p := range points {
		out = append(out, model.MarginPoint{
			ID:         uuid.New().String(),
			Position:   r3.Vec{X: p.X, Y: p.Y, Z: p.Z},
			CreatedAt:  now,
			Confidence: p.Confidence,
		})
	}
	return out
}

func decodeMesh(stlData string) (geometry.Mesh, error) {
	raw, err := base64.StdEncoding.DecodeString(stlData)
	if err != nil {
		return geometry.Mesh{}, fmt.Errorf("invalid base64 STL data: %w", err)
	}
	return geometry.DecodeSTL(raw)
}

func encodeMesh(m geometry.Mesh) (string, error) {
	raw, err := geometry.EncodeSTL(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func (s *Server) OrientationPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"presets": geometry.OrientationPresets,
	})
}

type orientationRequest struct {
	STLData  string      `json:"stl_data"`
	Preset   string      `json:"preset"`
	Rotation *[3]float64 `json:"rotation"`
}

func (s *Server) ApplyOrientation(c *gin.Context) {
	var req orientationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if req.STLData == "" {
		badRequest(c, "Missing STL data")
		return
	}

	var degrees [3]float64
	switch {
	case req.Preset != "":
		d, ok := geometry.PresetRotation(req.Preset)
		if !ok {
			badRequest(c, fmt.Sprintf("Unknown orientation preset '%s'", req.Preset))
			return
		}
		degrees = d
	case req.Rotation != nil:
		degrees = *req.Rotation
	default:
		badRequest(c, "No orientation specified")
		return
	}

	mesh, err := decodeMesh(req.STLData)
	if err != nil {
		log.Printf("Orientation processing error: %v", err)
		processingError(c, err)
		return
	}

	rotated := geometry.Rotate(mesh, degrees)
	stl, err := encodeMesh(rotated)
	if err != nil {
		log.Printf("Orientation processing error: %v", err)
		processingError(c, err)
		return
	}

	info := geometry.Inspect(rotated)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"stl_data": stl,
		"stats": gin.H{
			"vertices":   info.Vertices,
			"faces":      info.Faces,
			"watertight": info.Watertight,
		},
	})
}

type solidifyRequest struct {
	STLData       string  `json:"stl_data"`
	WallThickness float64 `json:"wall_thickness"`
}

func (s *Server) SolidifyMesh(c *gin.Context) {
	req := solidifyRequest{WallThickness: s.Config.Solidify.ExtrusionDepth}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if req.STLData == "" {
		badRequest(c, "Missing STL data")
		return
	}

	settings := model.SolidifySettings{ExtrusionDepth: req.WallThickness}
	if err := settings.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}

	mesh, err := decodeMesh(req.STLData)
	if err != nil {
		log.Printf("Solidification processing error: %v", err)
		processingError(c, err)
		return
	}

	solid, err := s.Solidifier.Solidify(mesh, settings)
	if err != nil {
		log.Printf("Solidification processing error: %v", err)
		processingError(c, err)
		return
	}

	stl, err := encodeMesh(solid)
	if err != nil {
		log.Printf("Solidification processing error: %v", err)
		processingError(c, err)
		return
	}

	info := geometry.Inspect(solid)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"stl_data": stl,
		"stats": gin.H{
			"vertices":       info.Vertices,
			"faces":          info.Faces,
			"watertight":     info.Watertight,
			"wall_thickness": req.WallThickness,
		},
	})
}

type modelInfoRequest struct {
	STLData string `json:"stl_data"`
}

func (s *Server) ModelInfo(c *gin.Context) {
	var req modelInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if req.STLData == "" {
		badRequest(c, "Missing STL data")
		return
	}

	mesh, err := decodeMesh(req.STLData)
	if err != nil {
		log.Printf("Model info error: %v", err)
		processingError(c, err)
		return
	}

	info := geometry.Inspect(mesh)
	var volume *float64
	if info.Watertight {
		v := info.Volume
		volume = &v
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"info": gin.H{
			"vertices":     info.Vertices,
			"faces":        info.Faces,
			"watertight":   info.Watertight,
			"volume":       volume,
			"surface_area": info.SurfaceArea,
			"bounds": gin.H{
				"min": [3]float64{info.Bounds.Min.X, info.Bounds.Min.Y, info.Bounds.Min.Z},
				"max": [3]float64{info.Bounds.Max.X, info.Bounds.Max.Y, info.Bounds.Max.Z},
			},
		},
	})
}

type detectMarginRequest struct {
	STLData         string  `json:"stl_data"`
	ThresholdOffset float64 `json:"threshold_offset"`
	PointDensity    int     `json:"point_density"`
	Sensitivity     float64 `json:"sensitivity"`
}

func (s *Server) DetectMargin(c *gin.Context) {
	req := detectMarginRequest{
		ThresholdOffset: s.Config.Detection.ThresholdOffset,
		PointDensity:    s.Config.Detection.PointDensity,
		Sensitivity:     s.Config.Detection.Sensitivity,
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if req.STLData == "" {
		badRequest(c, "Missing STL data")
		return
	}

	settings := model.DetectionSettings{
		Sensitivity:     req.Sensitivity,
		PointDensity:    req.PointDensity,
		ThresholdOffset: req.ThresholdOffset,
		Smoothness:      s.Config.Detection.Smoothness,
	}
	if err := settings.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}

	mesh, err := decodeMesh(req.STLData)
	if err != nil {
		log.Printf("Margin detection error: %v", err)
		processingError(c, err)
		return
	}

	detection, err := s.Detector.Detect(mesh, settings)
	if err != nil {
		log.Printf("Margin detection error: %v", err)
		processingError(c, err)
		return
	}

	points := toWire(detection.SuggestedMargin)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"points":  points,
		"count":   len(points),
		"parameters": gin.H{
			"threshold_offset": req.ThresholdOffset,
			"point_density":    req.PointDensity,
			"sensitivity":      req.Sensitivity,
		},
	})
}

type refineMarginRequest struct {
	Points     []wirePoint `json:"points"`
	Smoothness float64     `json:"smoothness"`
}

func (s *Server) RefineMargin(c *gin.Context) {
	req := refineMarginRequest{Smoothness: float64(s.Config.Detection.Smoothness)}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if len(req.Points) == 0 {
		badRequest(c, "Missing margin points")
		return
	}
	if req.Smoothness <= 0 {
		badRequest(c, "Smoothness must be positive")
		return
	}

	refined, err := s.Detector.Refine(fromWire(req.Points), req.Smoothness)
	if err != nil {
		log.Printf("Margin refinement error: %v", err)
		processingError(c, err)
		return
	}

	points := toWire(refined)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"points":     points,
		"count":      len(points),
		"smoothness": req.Smoothness,
	})
}

type exportMarginRequest struct {
	Points      []wirePoint `json:"points"`
	CaseNumber  string      `json:"case_number"`
	ToothNumber string      `json:"tooth_number"`
}

func (s *Server) ExportMargin(c *gin.Context) {
	var req exportMarginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if len(req.Points) == 0 {
		badRequest(c, "Missing margin points")
		return
	}

	content := pts.Write(fromWire(req.Points), req.CaseNumber, req.ToothNumber)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"pts_content": content,
		"filename":    pts.Filename(req.CaseNumber, req.ToothNumber),
	})
}
