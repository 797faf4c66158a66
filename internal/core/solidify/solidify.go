// Package solidify thickens open scan shells into closed solids with a
// uniform wall, ready for manufacturing checks.
package solidify

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

// Solidifier thickens meshes. The zero value stitches along extracted
// boundary loops; set Mode to BoundaryProximity for legacy-compatible
// stitching.
type Solidifier struct {
	Mode BoundaryMode
}

// Solidify offsets every vertex inward along its normal by the configured
// depth, reverses the inner surface so it faces away from the solid, and
// stitches quad walls across the open boundary. Normals of the result are
// recomputed from the merged winding.
func (s Solidifier) Solidify(m geometry.Mesh, settings model.SolidifySettings) (geometry.Mesh, error) {
	if err := settings.Validate(); err != nil {
		return geometry.Mesh{}, err
	}
	src, err := geometry.EnsureNormals(m)
	if err != nil {
		return geometry.Mesh{}, err
	}
	if len(src.Positions)%3 != 0 {
		return geometry.Mesh{}, fmt.Errorf("solidify: %d vertices do not form whole triangles", len(src.Positions))
	}

	depth := settings.ExtrusionDepth
	inner := make([]r3.Vec, len(src.Positions))
	for i, p := range src.Positions {
		inner[i] = r3.Sub(p, r3.Scale(depth, src.Normals[i]))
	}

	pairs := s.wallPairs(src.Positions)

	out := geometry.Mesh{Positions: make([]r3.Vec, 0, 2*len(src.Positions)+6*len(pairs))}
	out.Positions = append(out.Positions, src.Positions...)
	// Inner shell with reversed winding, so its faces look outward from
	// the thickened solid.
	for t := 0; t < len(inner)/3; t++ {
		out.Positions = append(out.Positions, inner[3*t+2], inner[3*t+1], inner[3*t])
	}
	for _, pr := range pairs {
		o1, o2 := src.Positions[pr[0]], src.Positions[pr[1]]
		i1, i2 := inner[pr[0]], inner[pr[1]]
		out.Positions = append(out.Positions,
			o1, o2, i1,
			i1, o2, i2,
		)
	}
	return geometry.ComputeNormals(out), nil
}

// wallPairs lists the ordered vertex pairs to bridge with wall quads.
func (s Solidifier) wallPairs(positions []r3.Vec) [][2]int {
	var pairs [][2]int
	if s.Mode == BoundaryProximity {
		b := proximityBoundary(positions)
		for i := 0; i+1 < len(b); i++ {
			pairs = append(pairs, [2]int{b[i], b[i+1]})
		}
		return pairs
	}
	for _, loop := range boundaryLoops(positions) {
		// Walk the rim against the surface winding so the wall faces
		// point out of the solid, and close the ring.
		for i := len(loop) - 1; i >= 0; i-- {
			j := i - 1
			if j < 0 {
				j = len(loop) - 1
			}
			pairs = append(pairs, [2]int{loop[i], loop[j]})
		}
	}
	return pairs
}
