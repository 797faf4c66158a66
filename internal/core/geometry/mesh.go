package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrEmptyMesh      = errors.New("mesh has no triangles")
	ErrDegenerateMesh = errors.New("mesh is degenerate, normals cannot be computed")
)

const degenerateEps = 1e-12

// Mesh is a non-indexed triangle soup. Every three consecutive entries of
// Positions form one face, wound counter-clockwise when seen from outside.
// Normals, when present, run parallel to Positions with one entry per corner.
type Mesh struct {
	Positions []r3.Vec
	Normals   []r3.Vec
}

func (m Mesh) TriangleCount() int { return len(m.Positions) / 3 }

func (m Mesh) IsEmpty() bool { return len(m.Positions) < 3 }

// Triangle returns the i-th face.
func (m Mesh) Triangle(i int) r3.Triangle {
	return r3.Triangle{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

func (m Mesh) Clone() Mesh {
	out := Mesh{}
	if m.Positions != nil {
		out.Positions = append([]r3.Vec(nil), m.Positions...)
	}
	if m.Normals != nil {
		out.Normals = append([]r3.Vec(nil), m.Normals...)
	}
	return out
}

// FaceNormal is the unit normal of t, or the zero vector for a degenerate
// face.
func FaceNormal(t r3.Triangle) r3.Vec {
	n := t.Normal()
	if r3.Norm(n) < degenerateEps {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// ComputeNormals rebuilds flat per-vertex normals from the face windings.
// All three corners of a face share its unit normal. The returned mesh
// shares Positions with m.
func ComputeNormals(m Mesh) Mesh {
	out := Mesh{Positions: m.Positions, Normals: make([]r3.Vec, len(m.Positions))}
	for i := 0; i < m.TriangleCount(); i++ {
		n := FaceNormal(m.Triangle(i))
		out.Normals[3*i] = n
		out.Normals[3*i+1] = n
		out.Normals[3*i+2] = n
	}
	return out
}

// EnsureNormals returns m with usable per-vertex normals, computing them when
// they are missing or do not match the vertex count. It fails when the mesh
// is empty or every face is degenerate.
func EnsureNormals(m Mesh) (Mesh, error) {
	if m.IsEmpty() {
		return Mesh{}, ErrEmptyMesh
	}
	if len(m.Normals) == len(m.Positions) && !allZero(m.Normals) {
		return m, nil
	}
	out := ComputeNormals(m)
	if allZero(out.Normals) {
		return Mesh{}, ErrDegenerateMesh
	}
	return out, nil
}

func allZero(vs []r3.Vec) bool {
	for _, v := range vs {
		if v != (r3.Vec{}) {
			return false
		}
	}
	return true
}

// Bounds is the axis-aligned bounding box of the mesh vertices.
func Bounds(m Mesh) r3.Box {
	if len(m.Positions) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b
}

// Center returns the midpoint of a bounding box.
func Center(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// WeldIndex assigns a shared id to every soup corner that sits at identical
// coordinates, so adjacency can be tracked across duplicated vertices. Ids
// are dense, starting at zero in first-seen order.
func WeldIndex(positions []r3.Vec) []int {
	ids := make([]int, len(positions))
	seen := make(map[r3.Vec]int, len(positions))
	for i, p := range positions {
		id, ok := seen[p]
		if !ok {
			id = len(seen)
			seen[p] = id
		}
		ids[i] = id
	}
	return ids
}

type edgeKey struct{ a, b int }

func undirectedEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Watertight reports whether every edge of the welded mesh is shared by
// exactly two faces.
func Watertight(m Mesh) bool {
	if m.IsEmpty() {
		return false
	}
	ids := WeldIndex(m.Positions)
	counts := make(map[edgeKey]int)
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := ids[3*i], ids[3*i+1], ids[3*i+2]
		counts[undirectedEdge(a, b)]++
		counts[undirectedEdge(b, c)]++
		counts[undirectedEdge(c, a)]++
	}
	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}

// Volume is the signed volume enclosed by the mesh, summed over signed
// tetrahedra against the origin. It is meaningful only for watertight,
// consistently wound meshes.
func Volume(m Mesh) float64 {
	var v float64
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		v += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return v / 6
}

// SurfaceArea sums the area of every face.
func SurfaceArea(m Mesh) float64 {
	var a float64
	for i := 0; i < m.TriangleCount(); i++ {
		a += m.Triangle(i).Area()
	}
	return a
}

// Info summarizes a mesh for API consumers. Vertices counts distinct welded
// positions, not soup corners. Volume is zero unless the mesh is watertight.
type Info struct {
	Vertices    int
	Faces       int
	Watertight  bool
	Volume      float64
	SurfaceArea float64
	Bounds      r3.Box
}

func Inspect(m Mesh) Info {
	distinct := make(map[r3.Vec]struct{}, len(m.Positions))
	for _, p := range m.Positions {
		distinct[p] = struct{}{}
	}
	info := Info{
		Vertices:    len(distinct),
		Faces:       m.TriangleCount(),
		SurfaceArea: SurfaceArea(m),
		Bounds:      Bounds(m),
	}
	if Watertight(m) {
		info.Watertight = true
		info.Volume = Volume(m)
	}
	return info
}
