package model

import "github.com/openrally/joekit/pkg/formats"

// vertEntry records one unique (position, normal, texcoord) index
// combination discovered while walking the faces.
type vertEntry struct {
	vertex   int16
	normal   int16
	texCoord int16
	used     bool
}

// WeldResult is a deduplicated single-index-space mesh description.
type WeldResult struct {
	Indices   []uint32  // 3 per face
	Positions []float32 // 3 per welded vertex
	Normals   []float32 // 3 per welded vertex
	TexCoords []float32 // 2 per welded vertex
}

// VertexCount returns the number of welded vertices.
func (w *WeldResult) VertexCount() int {
	return len(w.Positions) / 3
}

// Weld merges a frame's independently indexed position, normal and
// texcoord streams into one shared index space.
//
// The table is seeded with one slot per source vertex. A face corner
// reuses its vertex's slot when the slot holds the same (normal,
// texcoord) pair; a corner that disagrees appends a new slot, so a
// position splits into as many welded vertices as it has distinct
// attribute combinations. Face winding is preserved: corners are
// visited in face order and only remapped, never reordered.
func Weld(frame *formats.JOEFrame) *WeldResult {
	table := make([]vertEntry, len(frame.Vertices), len(frame.Vertices)*2)
	indices := make([]uint32, len(frame.Faces)*3)

	for i := range frame.Faces {
		face := &frame.Faces[i]
		for v := 0; v < 3; v++ {
			vi := face.VertexIndex[v]
			ni := face.NormalIndex[v]
			ti := face.TexCoordIndex[v]

			slot := &table[vi]
			switch {
			case !slot.used:
				*slot = vertEntry{vertex: vi, normal: ni, texCoord: ti, used: true}
				indices[i*3+v] = uint32(vi)
			case slot.normal == ni && slot.texCoord == ti:
				indices[i*3+v] = uint32(vi)
			default:
				table = append(table, vertEntry{vertex: vi, normal: ni, texCoord: ti, used: true})
				indices[i*3+v] = uint32(len(table) - 1)
			}
		}
	}

	result := &WeldResult{
		Indices:   indices,
		Positions: make([]float32, len(table)*3),
		Normals:   make([]float32, len(table)*3),
		TexCoords: make([]float32, len(table)*2),
	}

	for i := range table {
		if !table[i].used {
			continue
		}
		pos := frame.Vertices[table[i].vertex]
		norm := frame.Normals[table[i].normal]
		copy(result.Positions[i*3:], pos[:])
		copy(result.Normals[i*3:], norm[:])

		// A texcoord index past the frame's texcoord count is a
		// known format tolerance and welds to (0, 0).
		if int(table[i].texCoord) < len(frame.TexCoords) {
			tc := frame.TexCoords[table[i].texCoord]
			result.TexCoords[i*2] = tc[0]
			result.TexCoords[i*2+1] = tc[1]
		}
	}

	return result
}
