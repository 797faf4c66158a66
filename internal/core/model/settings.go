package model

import "fmt"

// DetectionSettings bound how margin detection scans a preparation mesh.
type DetectionSettings struct {
	Sensitivity     float64 `json:"sensitivity" toml:"sensitivity"`           // 0.1..1.0
	PointDensity    int     `json:"point_density" toml:"point_density"`       // 10..100
	ThresholdOffset float64 `json:"threshold_offset" toml:"threshold_offset"` // standard deviations above mean height
	Smoothness      int     `json:"smoothness" toml:"smoothness"`             // neighbor smoothing weight, >= 1
}

func DefaultDetectionSettings() DetectionSettings {
	return DetectionSettings{
		Sensitivity:     0.7,
		PointDensity:    50,
		ThresholdOffset: 0.2,
		Smoothness:      5,
	}
}

func (s DetectionSettings) Validate() error {
	if s.Sensitivity < 0.1 || s.Sensitivity > 1.0 {
		return fmt.Errorf("sensitivity %.2f out of range [0.1, 1.0]", s.Sensitivity)
	}
	if s.PointDensity < 10 || s.PointDensity > 100 {
		return fmt.Errorf("point density %d out of range [10, 100]", s.PointDensity)
	}
	if s.Smoothness < 1 {
		return fmt.Errorf("smoothness %d must be at least 1", s.Smoothness)
	}
	return nil
}

// SolidifySettings control how an open shell is thickened into a solid.
type SolidifySettings struct {
	ExtrusionDepth float64 `json:"extrusion_depth" toml:"extrusion_depth"` // millimeters, 0.5..5.0
}

func DefaultSolidifySettings() SolidifySettings {
	return SolidifySettings{ExtrusionDepth: 2.0}
}

func (s SolidifySettings) Validate() error {
	if s.ExtrusionDepth < 0.5 || s.ExtrusionDepth > 5.0 {
		return fmt.Errorf("extrusion depth %.2f out of range [0.5, 5.0]", s.ExtrusionDepth)
	}
	return nil
}
