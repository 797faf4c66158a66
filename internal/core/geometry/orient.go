package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OrientationPresets maps clinical view names to Euler XYZ rotations in
// degrees.
var OrientationPresets = map[string][3]float64{
	"default":      {0, 0, 0},
	"occlusalUp":   {0, 0, 0},
	"occlusalDown": {180, 0, 0},
	"buccalFront":  {0, 0, 0},
	"buccalBack":   {0, 180, 0},
	"lingualView":  {0, 180, 0},
	"mesialView":   {0, 90, 0},
	"distalView":   {0, -90, 0},
}

// PresetRotation looks up the Euler angles for a named preset.
func PresetRotation(name string) ([3]float64, bool) {
	deg, ok := OrientationPresets[name]
	return deg, ok
}

// Rotate returns m rotated about the origin by extrinsic Euler angles in
// degrees, applied in x, y, z order. Normals are recomputed afterwards.
func Rotate(m Mesh, degrees [3]float64) Mesh {
	rx := r3.NewRotation(degrees[0]*math.Pi/180, r3.Vec{X: 1})
	ry := r3.NewRotation(degrees[1]*math.Pi/180, r3.Vec{Y: 1})
	rz := r3.NewRotation(degrees[2]*math.Pi/180, r3.Vec{Z: 1})
	out := Mesh{Positions: make([]r3.Vec, len(m.Positions))}
	for i, p := range m.Positions {
		out.Positions[i] = rz.Rotate(ry.Rotate(rx.Rotate(p)))
	}
	return ComputeNormals(out)
}
