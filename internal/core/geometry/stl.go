package geometry

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize = 80
	stlRecordSize = 50 // facet normal + 3 vertices as float32, plus attribute count
)

// DecodeSTL parses binary or ASCII STL data into a triangle soup. Facet
// normals from the file are kept; callers that need trustworthy normals
// should pass the result through EnsureNormals.
func DecodeSTL(data []byte) (Mesh, error) {
	if looksASCII(data) {
		if m, err := decodeASCII(data); err == nil {
			return m, nil
		}
		// Binary files sometimes carry a "solid" header; fall through.
	}
	return decodeBinary(data)
}

func looksASCII(data []byte) bool {
	head := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(head, []byte("solid"))
}

func decodeBinary(data []byte) (Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return Mesh{}, fmt.Errorf("stl: truncated header, %d bytes", len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	if count == 0 {
		return Mesh{}, ErrEmptyMesh
	}
	want := stlHeaderSize + 4 + count*stlRecordSize
	if len(data) < want {
		return Mesh{}, fmt.Errorf("stl: need %d bytes for %d triangles, have %d", want, count, len(data))
	}
	m := Mesh{
		Positions: make([]r3.Vec, 0, count*3),
		Normals:   make([]r3.Vec, 0, count*3),
	}
	off := stlHeaderSize + 4
	for i := 0; i < count; i++ {
		rec := data[off : off+stlRecordSize]
		n := readVec32(rec, 0)
		m.Normals = append(m.Normals, n, n, n)
		m.Positions = append(m.Positions, readVec32(rec, 12), readVec32(rec, 24), readVec32(rec, 36))
		off += stlRecordSize
	}
	return m, nil
}

func readVec32(b []byte, off int) r3.Vec {
	return r3.Vec{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off+8:]))),
	}
}

func decodeASCII(data []byte) (Mesh, error) {
	var m Mesh
	var facetNormal r3.Vec
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		fields := bytes.Fields(sc.Bytes())
		if len(fields) == 0 {
			continue
		}
		switch string(fields[0]) {
		case "facet":
			// "facet normal nx ny nz"; unreadable normals are advisory
			// and degrade to zero.
			facetNormal = r3.Vec{}
			if len(fields) >= 5 && string(fields[1]) == "normal" {
				if v, err := parseVec(fields[2:5]); err == nil {
					facetNormal = v
				}
			}
		case "vertex":
			if len(fields) < 4 {
				return Mesh{}, fmt.Errorf("stl: malformed vertex line %q", sc.Text())
			}
			v, err := parseVec(fields[1:4])
			if err != nil {
				return Mesh{}, fmt.Errorf("stl: malformed vertex line %q: %w", sc.Text(), err)
			}
			m.Positions = append(m.Positions, v)
			m.Normals = append(m.Normals, facetNormal)
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, fmt.Errorf("stl: %w", err)
	}
	if len(m.Positions) == 0 {
		return Mesh{}, ErrEmptyMesh
	}
	if len(m.Positions)%3 != 0 {
		return Mesh{}, fmt.Errorf("stl: %d vertices do not form whole triangles", len(m.Positions))
	}
	return m, nil
}

func parseVec(fields [][]byte) (r3.Vec, error) {
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return r3.Vec{}, err
		}
		out[i] = v
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// EncodeSTL serializes the mesh as binary STL with freshly computed facet
// normals.
func EncodeSTL(m Mesh) ([]byte, error) {
	if m.IsEmpty() {
		return nil, ErrEmptyMesh
	}
	if len(m.Positions)%3 != 0 {
		return nil, fmt.Errorf("stl: %d vertices do not form whole triangles", len(m.Positions))
	}
	var buf bytes.Buffer
	header := make([]byte, stlHeaderSize)
	copy(header, "DentalCad-Pro binary STL")
	buf.Write(header)
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(m.TriangleCount()))
	buf.Write(scratch[:])
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		writeVec32(&buf, FaceNormal(t))
		writeVec32(&buf, t[0])
		writeVec32(&buf, t[1])
		writeVec32(&buf, t[2])
		buf.WriteByte(0)
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func writeVec32(buf *bytes.Buffer, v r3.Vec) {
	var scratch [4]byte
	for _, f := range [3]float64{v.X, v.Y, v.Z} {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(f)))
		buf.Write(scratch[:])
	}
}
