package model

import (
	"testing"

	"github.com/openrally/joekit/pkg/formats"
)

// quadFrame returns a two-triangle quad where every vertex has its own
// normal and texcoord (a one-to-one attribute mapping).
func quadFrame() *formats.JOEFrame {
	return &formats.JOEFrame{
		Faces: []formats.JOEFace{
			{
				VertexIndex:   [3]int16{0, 1, 2},
				NormalIndex:   [3]int16{0, 1, 2},
				TexCoordIndex: [3]int16{0, 1, 2},
			},
			{
				VertexIndex:   [3]int16{0, 2, 3},
				NormalIndex:   [3]int16{0, 2, 3},
				TexCoordIndex: [3]int16{0, 2, 3},
			},
		},
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords: [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	}
}

func TestWeld_IdempotentOnUniqueTriples(t *testing.T) {
	frame := quadFrame()
	welded := Weld(frame)

	if got := welded.VertexCount(); got != len(frame.Vertices) {
		t.Errorf("welded vertex count = %d, want %d (unique triples must not split)", got, len(frame.Vertices))
	}
	if got := len(welded.Indices); got != 3*len(frame.Faces) {
		t.Errorf("index count = %d, want %d", got, 3*len(frame.Faces))
	}

	// Corner order within each face is preserved.
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range welded.Indices {
		if idx != want[i] {
			t.Errorf("index %d = %d, want %d", i, idx, want[i])
		}
	}
}

func TestWeld_SplitsOnAttributeMismatch(t *testing.T) {
	// Two faces share vertex 2 but disagree on its normal: exactly
	// one extra slot is appended.
	frame := quadFrame()
	frame.Normals = append(frame.Normals, [3]float32{1, 0, 0})
	frame.Faces[1].NormalIndex[1] = 4

	welded := Weld(frame)

	if got := welded.VertexCount(); got != len(frame.Vertices)+1 {
		t.Fatalf("welded vertex count = %d, want %d", got, len(frame.Vertices)+1)
	}

	// The split corner points at the appended slot, which carries the
	// shared position with the divergent normal.
	splitIdx := welded.Indices[4]
	if splitIdx != uint32(len(frame.Vertices)) {
		t.Errorf("split corner index = %d, want %d", splitIdx, len(frame.Vertices))
	}
	if welded.Positions[splitIdx*3] != 1 || welded.Positions[splitIdx*3+1] != 1 {
		t.Errorf("split slot position = (%v, %v), want (1, 1)",
			welded.Positions[splitIdx*3], welded.Positions[splitIdx*3+1])
	}
	if welded.Normals[splitIdx*3] != 1 {
		t.Errorf("split slot normal X = %v, want 1", welded.Normals[splitIdx*3])
	}
	// The original slot keeps its first-seen normal.
	if welded.Normals[2*3+2] != 1 {
		t.Errorf("original slot normal Z = %v, want 1", welded.Normals[2*3+2])
	}
}

func TestWeld_IndicesInRange(t *testing.T) {
	frame := quadFrame()
	// Force several splits.
	frame.Normals = append(frame.Normals, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})
	frame.Faces[1].NormalIndex = [3]int16{4, 5, 3}

	welded := Weld(frame)

	count := uint32(welded.VertexCount())
	for i, idx := range welded.Indices {
		if idx >= count {
			t.Errorf("index %d = %d out of range (welded count %d)", i, idx, count)
		}
	}
	if len(welded.Normals) != int(count)*3 || len(welded.TexCoords) != int(count)*2 {
		t.Errorf("attribute array lengths inconsistent with vertex count %d", count)
	}
}

func TestWeld_TexCoordPastCountDefaultsToZero(t *testing.T) {
	frame := quadFrame()
	// Only one texcoord actually present; indices past it are a
	// tolerated authoring quirk, not an error.
	frame.TexCoords = frame.TexCoords[:1]

	welded := Weld(frame)

	if welded.TexCoords[0] != 0 || welded.TexCoords[1] != 0 {
		t.Errorf("slot 0 texcoord = (%v, %v), want (0, 0) from source",
			welded.TexCoords[0], welded.TexCoords[1])
	}
	// Slots whose texcoord index is out of range weld to (0, 0).
	for i := 1; i < welded.VertexCount(); i++ {
		if welded.TexCoords[i*2] != 0 || welded.TexCoords[i*2+1] != 0 {
			t.Errorf("slot %d texcoord = (%v, %v), want (0, 0)",
				i, welded.TexCoords[i*2], welded.TexCoords[i*2+1])
		}
	}
}

func TestWeld_UnreferencedVertexKeepsSlot(t *testing.T) {
	// A source vertex no face references still occupies its seeded
	// slot, so welded count never drops below the source count.
	frame := quadFrame()
	frame.Vertices = append(frame.Vertices, [3]float32{9, 9, 9})

	welded := Weld(frame)

	if got := welded.VertexCount(); got != 5 {
		t.Errorf("welded vertex count = %d, want 5", got)
	}
	// The unused slot gathers nothing and stays zeroed.
	if welded.Positions[4*3] != 0 {
		t.Errorf("unused slot position X = %v, want 0", welded.Positions[4*3])
	}
}
