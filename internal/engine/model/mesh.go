package model

import (
	"fmt"

	"github.com/openrally/joekit/pkg/math"
)

// PrecomputeMode selects which render-ready layout a loaded mesh is
// flattened into.
type PrecomputeMode int

const (
	// PrecomputeInterleaved keeps the welded index list and builds one
	// interleaved record per welded vertex (vertex-buffer style).
	PrecomputeInterleaved PrecomputeMode = iota
	// PrecomputeUnrolled expands the indices into a de-indexed
	// attribute stream (display-list style).
	PrecomputeUnrolled
)

// vertexStride is the float count of one interleaved record:
// position (3) + normal (3) + texcoord (2).
const vertexStride = 8

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the box center.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Mesh is an in-memory renderable mesh: flat attribute arrays in one
// shared index space, plus derived metrics and precomputed layouts.
type Mesh struct {
	indices   []uint32
	positions []float32
	normals   []float32
	texCoords [][]float32

	bounds     Bounds
	radius     float32
	hasMetrics bool

	unrolled    []float32
	interleaved []float32
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{}
}

// SetFaces sets the index array, 3 indices per triangle.
func (m *Mesh) SetFaces(indices []uint32) {
	m.indices = indices
	m.invalidate()
}

// SetVertices sets the flat position array, 3 floats per vertex.
func (m *Mesh) SetVertices(positions []float32) {
	m.positions = positions
	m.invalidate()
}

// SetNormals sets the flat normal array, 3 floats per vertex.
func (m *Mesh) SetNormals(normals []float32) {
	m.normals = normals
	m.invalidate()
}

// SetTexCoordSetCount allocates n texcoord sets, dropping any existing.
func (m *Mesh) SetTexCoordSetCount(n int) {
	m.texCoords = make([][]float32, n)
	m.invalidate()
}

// SetTexCoords sets one texcoord set, 2 floats per vertex.
func (m *Mesh) SetTexCoords(set int, uv []float32) error {
	if set < 0 || set >= len(m.texCoords) {
		return fmt.Errorf("texcoord set %d out of range (have %d sets)", set, len(m.texCoords))
	}
	m.texCoords[set] = uv
	m.invalidate()
	return nil
}

func (m *Mesh) invalidate() {
	m.hasMetrics = false
	m.unrolled = nil
	m.interleaved = nil
}

// Faces returns the index array.
func (m *Mesh) Faces() []uint32 {
	return m.indices
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.indices) / 3
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.positions) / 3
}

// TexCoordSetCount returns the number of texcoord sets.
func (m *Mesh) TexCoordSetCount() int {
	return len(m.texCoords)
}

// Bounds returns the axis-aligned bounding box computed by
// GenerateMetrics.
func (m *Mesh) Bounds() Bounds {
	return m.bounds
}

// Radius returns the bounding radius around the box center computed
// by GenerateMetrics.
func (m *Mesh) Radius() float32 {
	return m.radius
}

// GenerateMetrics computes the bounding box and bounding radius from
// the current positions.
func (m *Mesh) GenerateMetrics() {
	if len(m.positions) < 3 {
		m.bounds = Bounds{}
		m.radius = 0
		m.hasMetrics = true
		return
	}

	first := math.Vec3{X: m.positions[0], Y: m.positions[1], Z: m.positions[2]}
	bounds := Bounds{Min: first, Max: first}
	for i := 3; i+2 < len(m.positions); i += 3 {
		v := math.Vec3{X: m.positions[i], Y: m.positions[i+1], Z: m.positions[i+2]}
		bounds.Min = bounds.Min.Min(v)
		bounds.Max = bounds.Max.Max(v)
	}

	center := bounds.Center()
	var radius float32
	for i := 0; i+2 < len(m.positions); i += 3 {
		v := math.Vec3{X: m.positions[i], Y: m.positions[i+1], Z: m.positions[i+2]}
		if d := v.Distance(center); d > radius {
			radius = d
		}
	}

	m.bounds = bounds
	m.radius = radius
	m.hasMetrics = true
}

// Precompute builds the render-ready layout for the given mode.
func (m *Mesh) Precompute(mode PrecomputeMode) {
	switch mode {
	case PrecomputeUnrolled:
		m.unrolled = m.buildUnrolled()
	default:
		m.interleaved = m.buildInterleaved()
	}
}

// Unrolled returns the de-indexed attribute stream, one record of
// vertexStride floats per face corner. Nil until precomputed.
func (m *Mesh) Unrolled() []float32 {
	return m.unrolled
}

// Interleaved returns one record of vertexStride floats per vertex,
// indexed by Faces(). Nil until precomputed.
func (m *Mesh) Interleaved() []float32 {
	return m.interleaved
}

func (m *Mesh) buildInterleaved() []float32 {
	count := m.VertexCount()
	out := make([]float32, 0, count*vertexStride)
	for i := 0; i < count; i++ {
		out = m.appendRecord(out, i)
	}
	return out
}

func (m *Mesh) buildUnrolled() []float32 {
	out := make([]float32, 0, len(m.indices)*vertexStride)
	for _, idx := range m.indices {
		out = m.appendRecord(out, int(idx))
	}
	return out
}

func (m *Mesh) appendRecord(out []float32, i int) []float32 {
	out = append(out, m.positions[i*3], m.positions[i*3+1], m.positions[i*3+2])
	out = append(out, m.normals[i*3], m.normals[i*3+1], m.normals[i*3+2])
	if len(m.texCoords) > 0 && i*2+1 < len(m.texCoords[0]) {
		out = append(out, m.texCoords[0][i*2], m.texCoords[0][i*2+1])
	} else {
		out = append(out, 0, 0)
	}
	return out
}
