// Package pts reads and writes the margin point interchange format: one
// point per line, whitespace separated, preceded by "#" comment headers.
package pts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

var ErrNoValidPoints = errors.New("pts: no valid points found")

const timestampLayout = "2006-01-02T15:04:05"

// Filename is the canonical export name for a case and tooth pair.
func Filename(caseID, toothID string) string {
	return fmt.Sprintf("margin_%s_tooth%s.pts", caseID, toothID)
}

// Write serializes points as position-only lines with a descriptive header.
func Write(points []model.MarginPoint, caseID, toothID string) string {
	var b strings.Builder
	writeHeader(&b, caseID, toothID, len(points))
	for _, p := range points {
		fmt.Fprintf(&b, "%.6f %.6f %.6f\n", p.Position.X, p.Position.Y, p.Position.Z)
	}
	return b.String()
}

// WriteNormals serializes points with their normals appended to each line.
func WriteNormals(points []model.MarginPoint, caseID, toothID string) string {
	var b strings.Builder
	writeHeader(&b, caseID, toothID, len(points))
	for _, p := range points {
		fmt.Fprintf(&b, "%.6f %.6f %.6f %.6f %.6f %.6f\n",
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Normal.X, p.Normal.Y, p.Normal.Z)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, caseID, toothID string, count int) {
	fmt.Fprintf(b, "# Margin Points for Case %s\n", caseID)
	fmt.Fprintf(b, "# Tooth: %s\n", toothID)
	fmt.Fprintf(b, "# Generated: %s\n", time.Now().UTC().Format(timestampLayout))
	fmt.Fprintf(b, "# Point Count: %d\n", count)
	b.WriteString("\n")
}

// Parse reads PTS content back into margin points. Comments and blank lines
// are skipped and malformed lines are dropped without failing the whole
// import. Normals default to zero when a line carries only coordinates.
// Imported points count as manual placements: fresh ids, full confidence.
func Parse(content string) ([]model.MarginPoint, error) {
	var points []model.MarginPoint
	now := time.Now().UTC()
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pos, ok := parseFloats(fields[:3])
		if !ok {
			continue
		}
		p := model.MarginPoint{
			ID:         uuid.New().String(),
			Position:   r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]},
			CreatedAt:  now,
			Confidence: 1.0,
		}
		if len(fields) >= 6 {
			norm, ok := parseFloats(fields[3:6])
			if !ok {
				continue
			}
			p.Normal = r3.Vec{X: norm[0], Y: norm[1], Z: norm[2]}
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, ErrNoValidPoints
	}
	return points, nil
}

func parseFloats(fields []string) ([3]float64, bool) {
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, false
		}
		out[i] = v
	}
	return out, true
}
