package model

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Detection result sources.
const (
	SourceExternal = "external"
	SourceFallback = "fallback"
)

type MarginPoint struct {
	ID         string    `json:"id"`
	Position   r3.Vec    `json:"position"`
	Normal     r3.Vec    `json:"normal"`
	CreatedAt  time.Time `json:"created_at"`
	Confidence float64   `json:"confidence"` // 0..1, 1.0 for manually placed points
}

type MarginLine struct {
	ID         string        `json:"id"`
	Points     []MarginPoint `json:"points"`
	IsComplete bool          `json:"is_complete"`
	Color      string        `json:"color"`     // display hint only
	Thickness  float64       `json:"thickness"` // display hint only
}

type PrepDetection struct {
	Detected        bool          `json:"detected"`
	Confidence      float64       `json:"confidence"`
	Bounds          r3.Box        `json:"bounds"`
	SuggestedMargin []MarginPoint `json:"suggested_margin"`
}

// DetectionResult is the uniform answer for a margin detection request,
// whichever provider produced it.
type DetectionResult struct {
	Success bool          `json:"success"`
	Points  []MarginPoint `json:"points"`
	Count   int           `json:"count"`
	Source  string        `json:"source"`
	Error   string        `json:"error,omitempty"`
}

type ExportResult struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Source   string `json:"source"`
}
