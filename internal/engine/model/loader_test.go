package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openrally/joekit/internal/assets"
	"github.com/openrally/joekit/pkg/formats"
	"github.com/openrally/joekit/pkg/pack"
)

// buildTriangleJOE serializes a minimal single-frame, single-face
// model in wire order.
func buildTriangleJOE(t *testing.T, version int32) []byte {
	t.Helper()

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("building JOE data: %v", err)
		}
	}

	write([4]int32{0, version, 1, 1}) // magic, version, faces, frames
	write(formats.JOEFace{
		VertexIndex:   [3]int16{0, 1, 2},
		NormalIndex:   [3]int16{0, 0, 0},
		TexCoordIndex: [3]int16{0, 1, 2},
	})
	write([3]int32{3, 3, 1}) // vertex, texcoord, normal counts
	write([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	write([][3]float32{{0, 0, -1}})
	write([][2]float32{{0, 0}, {1, 0}, {0, 1}})

	return buf.Bytes()
}

func TestLoaderFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.joe")
	if err := os.WriteFile(path, buildTriangleJOE(t, formats.JOEVersion), 0644); err != nil {
		t.Fatal(err)
	}

	source := assets.NewManager()
	defer source.Close()
	loader := NewLoader(source, formats.DefaultJOEOptions())

	mesh, err := loader.Load(path, PrecomputeInterleaved)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if mesh.FaceCount() != 1 {
		t.Errorf("FaceCount = %d, want 1", mesh.FaceCount())
	}
	if mesh.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3", mesh.VertexCount())
	}
	if mesh.TexCoordSetCount() != 1 {
		t.Errorf("TexCoordSetCount = %d, want 1", mesh.TexCoordSetCount())
	}
	if mesh.Interleaved() == nil {
		t.Error("expected interleaved layout after load")
	}
	for i, idx := range mesh.Faces() {
		if int(idx) >= mesh.VertexCount() {
			t.Errorf("index %d = %d out of range", i, idx)
		}
	}
	if mesh.Radius() == 0 {
		t.Error("metrics should be generated during load")
	}
}

func TestLoaderFromPack(t *testing.T) {
	dir := t.TempDir()
	packPath := filepath.Join(dir, "models.jpk")

	w, err := pack.NewWriter(packPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add("models/tri.joe", buildTriangleJOE(t, formats.JOEVersion)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	source := assets.NewManager()
	defer source.Close()
	if err := source.AddPack(packPath); err != nil {
		t.Fatalf("AddPack: %v", err)
	}
	loader := NewLoader(source, formats.DefaultJOEOptions())

	mesh, err := loader.Load("models/tri.joe", PrecomputeUnrolled)
	if err != nil {
		t.Fatalf("Load from pack: %v", err)
	}
	if mesh.Unrolled() == nil {
		t.Error("expected unrolled layout after load")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	source := assets.NewManager()
	defer source.Close()
	loader := NewLoader(source, formats.DefaultJOEOptions())

	_, err := loader.Load("no/such/model.joe", PrecomputeInterleaved)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "no/such/model.joe") {
		t.Errorf("error should name the path, got: %v", err)
	}
}

func TestLoaderBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.joe")
	if err := os.WriteFile(path, buildTriangleJOE(t, 2), 0644); err != nil {
		t.Fatal(err)
	}

	source := assets.NewManager()
	defer source.Close()
	loader := NewLoader(source, formats.DefaultJOEOptions())

	_, err := loader.Load(path, PrecomputeInterleaved)
	if !errors.Is(err, formats.ErrUnsupportedJOEVersion) {
		t.Errorf("expected ErrUnsupportedJOEVersion, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path, got: %v", err)
	}
}

func TestLoaderNoFrames(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, [4]int32{0, formats.JOEVersion, 1, 0})

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.joe")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	source := assets.NewManager()
	defer source.Close()
	loader := NewLoader(source, formats.DefaultJOEOptions())

	if _, err := loader.Load(path, PrecomputeInterleaved); err == nil {
		t.Error("expected error for object with no frames")
	}
}

func TestLoaderConfiguredScale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.joe")
	if err := os.WriteFile(path, buildTriangleJOE(t, formats.JOEVersion), 0644); err != nil {
		t.Fatal(err)
	}

	source := assets.NewManager()
	defer source.Close()
	opts := formats.DefaultJOEOptions()
	opts.Scale = 10
	loader := NewLoader(source, opts)

	mesh, err := loader.Load(path, PrecomputeInterleaved)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mesh.GenerateMetrics()
	if mesh.Bounds().Max.X != 10 {
		t.Errorf("scaled bounds max X = %v, want 10", mesh.Bounds().Max.X)
	}
}
