// Package margin owns the working margin line of a preparation: ordered
// control points, completion state, and the cached display curve.
package margin

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/curve"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

// CompletionThreshold is the minimum point count before a margin line counts
// as complete for downstream workflow stages.
const CompletionThreshold = 10

// Workflow status labels.
const (
	StatusNotDefined = "Not Defined"
	StatusIncomplete = "Incomplete"
	StatusComplete   = "Complete"
)

var ErrLineComplete = errors.New("margin line is marked complete")

const (
	defaultColor     = "#ff0000"
	defaultThickness = 2.0
)

// IsComplete reports whether a point set is large enough to close out the
// margin definition stage.
func IsComplete(points []model.MarginPoint) bool {
	return len(points) >= CompletionThreshold
}

// StatusOf maps a point set to its workflow label.
func StatusOf(points []model.MarginPoint) string {
	switch {
	case len(points) == 0:
		return StatusNotDefined
	case IsComplete(points):
		return StatusComplete
	default:
		return StatusIncomplete
	}
}

// Store is the mutable owner of one margin line. All methods are safe for
// concurrent use; accessors return snapshots so callers never alias internal
// state.
type Store struct {
	mu         sync.Mutex
	line       model.MarginLine
	cached     []r3.Vec
	curveValid bool
}

func NewStore() *Store {
	return &Store{line: model.MarginLine{
		ID:        uuid.New().String(),
		Color:     defaultColor,
		Thickness: defaultThickness,
	}}
}

// AddPoint appends a manually placed point and returns it. Completed lines
// refuse further additions.
func (s *Store) AddPoint(position, normal r3.Vec) (model.MarginPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.line.IsComplete {
		return model.MarginPoint{}, ErrLineComplete
	}
	p := model.MarginPoint{
		ID:         uuid.New().String(),
		Position:   position,
		Normal:     normal,
		CreatedAt:  time.Now().UTC(),
		Confidence: 1.0,
	}
	s.line.Points = append(s.line.Points, p)
	s.curveValid = false
	return p, nil
}

// DeletePoint removes the point with the given id and reports whether it
// existed.
func (s *Store) DeletePoint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.line.Points {
		if p.ID == id {
			s.line.Points = append(s.line.Points[:i], s.line.Points[i+1:]...)
			s.curveValid = false
			return true
		}
	}
	return false
}

// Clear drops every point, reopens the line, and invalidates the cached
// curve.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.line.Points = nil
	s.line.IsComplete = false
	s.cached = nil
	s.curveValid = false
}

// Replace swaps in a whole new point set, as detection and refinement do.
func (s *Store) Replace(points []model.MarginPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.line.Points = append([]model.MarginPoint(nil), points...)
	s.curveValid = false
}

// Smooth relaxes the stored points with one cyclic averaging pass.
func (s *Store) Smooth(weight int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := curve.Smooth(s.line.Points, weight)
	if err != nil {
		return err
	}
	s.line.Points = out
	s.curveValid = false
	return nil
}

// MarkComplete freezes the line against further manual additions. It is
// terminal until Clear.
func (s *Store) MarkComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.line.IsComplete = true
}

func (s *Store) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line.IsComplete
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.line.Points)
}

func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusOf(s.line.Points)
}

// Points returns a copy of the current control points in placement order.
func (s *Store) Points() []model.MarginPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MarginPoint(nil), s.line.Points...)
}

// Line returns a snapshot of the whole margin line.
func (s *Store) Line() model.MarginLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.line
	line.Points = append([]model.MarginPoint(nil), s.line.Points...)
	return line
}

// Curve returns the sampled closed display curve, recomputing it only after
// a mutation.
func (s *Store) Curve() []r3.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.curveValid {
		s.cached = curve.Sample(s.line.Points)
		s.curveValid = true
	}
	return append([]r3.Vec(nil), s.cached...)
}
