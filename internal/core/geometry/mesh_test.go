package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// cubeMesh builds a closed axis-aligned cube with one corner at the origin,
// wound outward.
func cubeMesh(e float64) Mesh {
	quads := [][4]r3.Vec{
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: e, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: 0, Z: 0}}, // bottom
		{{X: 0, Y: 0, Z: e}, {X: e, Y: 0, Z: e}, {X: e, Y: e, Z: e}, {X: 0, Y: e, Z: e}}, // top
		{{X: 0, Y: 0, Z: 0}, {X: e, Y: 0, Z: 0}, {X: e, Y: 0, Z: e}, {X: 0, Y: 0, Z: e}}, // front
		{{X: 0, Y: e, Z: 0}, {X: 0, Y: e, Z: e}, {X: e, Y: e, Z: e}, {X: e, Y: e, Z: 0}}, // back
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: e}, {X: 0, Y: e, Z: e}, {X: 0, Y: e, Z: 0}}, // left
		{{X: e, Y: 0, Z: 0}, {X: e, Y: e, Z: 0}, {X: e, Y: e, Z: e}, {X: e, Y: 0, Z: e}}, // right
	}
	var m Mesh
	for _, q := range quads {
		m.Positions = append(m.Positions, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return m
}

// quadMesh is an open unit square in the z=0 plane facing +z.
func quadMesh() Mesh {
	return Mesh{Positions: []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}}
}

func assertVecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta)
	assert.InDelta(t, want.Y, got.Y, delta)
	assert.InDelta(t, want.Z, got.Z, delta)
}

func TestInspectCube(t *testing.T) {
	info := Inspect(cubeMesh(2))

	assert.Equal(t, 8, info.Vertices)
	assert.Equal(t, 12, info.Faces)
	assert.True(t, info.Watertight)
	assert.InDelta(t, 8.0, info.Volume, 1e-9)
	assert.InDelta(t, 24.0, info.SurfaceArea, 1e-9)
	assertVecInDelta(t, r3.Vec{}, info.Bounds.Min, 1e-9)
	assertVecInDelta(t, r3.Vec{X: 2, Y: 2, Z: 2}, info.Bounds.Max, 1e-9)
}

func TestInspectOpenQuad(t *testing.T) {
	info := Inspect(quadMesh())

	assert.False(t, info.Watertight)
	assert.Zero(t, info.Volume)
	assert.Equal(t, 2, info.Faces)
	assert.Equal(t, 4, info.Vertices)
	assert.InDelta(t, 1.0, info.SurfaceArea, 1e-9)
}

func TestComputeNormalsFlat(t *testing.T) {
	m := ComputeNormals(quadMesh())

	require.Len(t, m.Normals, len(m.Positions))
	for _, n := range m.Normals {
		assertVecInDelta(t, r3.Vec{Z: 1}, n, 1e-12)
	}
}

func TestEnsureNormals(t *testing.T) {
	_, err := EnsureNormals(Mesh{})
	assert.ErrorIs(t, err, ErrEmptyMesh)

	// All corners coincident: no face has a usable normal.
	p := r3.Vec{X: 1, Y: 1, Z: 1}
	_, err = EnsureNormals(Mesh{Positions: []r3.Vec{p, p, p}})
	assert.ErrorIs(t, err, ErrDegenerateMesh)

	custom := quadMesh()
	custom.Normals = make([]r3.Vec, len(custom.Positions))
	for i := range custom.Normals {
		custom.Normals[i] = r3.Vec{X: 1}
	}
	kept, err := EnsureNormals(custom)
	require.NoError(t, err)
	assert.Equal(t, custom.Normals, kept.Normals)

	computed, err := EnsureNormals(quadMesh())
	require.NoError(t, err)
	assertVecInDelta(t, r3.Vec{Z: 1}, computed.Normals[0], 1e-12)
}

func TestBoundsAndCenter(t *testing.T) {
	b := Bounds(cubeMesh(2))
	assertVecInDelta(t, r3.Vec{X: 1, Y: 1, Z: 1}, Center(b), 1e-12)

	assert.Equal(t, r3.Box{}, Bounds(Mesh{}))
}

func TestCloneIsIndependent(t *testing.T) {
	m := ComputeNormals(quadMesh())
	c := m.Clone()
	c.Positions[0] = r3.Vec{X: 99}
	c.Normals[0] = r3.Vec{Y: 99}

	assert.Equal(t, r3.Vec{}, m.Positions[0])
	assert.Equal(t, r3.Vec{Z: 1}, m.Normals[0])
}

func TestWatertightNeedsFullEdgeSharing(t *testing.T) {
	cube := cubeMesh(1)
	assert.True(t, Watertight(cube))

	// Drop one face: the cube opens up.
	open := Mesh{Positions: cube.Positions[:len(cube.Positions)-3]}
	assert.False(t, Watertight(open))

	assert.False(t, Watertight(Mesh{}))
}
