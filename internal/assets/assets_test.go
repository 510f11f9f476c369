package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/openrally/joekit/pkg/pack"
)

func writePack(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	w, err := pack.NewWriter(path)
	if err != nil {
		t.Fatalf("creating pack: %v", err)
	}
	for name, data := range entries {
		if err := w.Add(name, data); err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing pack: %v", err)
	}
}

func TestManagerLoadFromPack(t *testing.T) {
	dir := t.TempDir()
	packPath := filepath.Join(dir, "assets.jpk")
	writePack(t, packPath, map[string][]byte{"models/car.joe": []byte("payload")})

	m := NewManager()
	defer m.Close()
	if err := m.AddPack(packPath); err != nil {
		t.Fatalf("AddPack: %v", err)
	}

	data, err := m.Load("models/car.joe")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, []byte("payload")) {
		t.Errorf("Load returned %q", data)
	}
}

func TestManagerPackPriority(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.jpk")
	patch := filepath.Join(dir, "patch.jpk")
	writePack(t, base, map[string][]byte{"a.txt": []byte("old")})
	writePack(t, patch, map[string][]byte{"a.txt": []byte("new")})

	m := NewManager()
	defer m.Close()
	if err := m.AddPack(base); err != nil {
		t.Fatal(err)
	}
	if err := m.AddPack(patch); err != nil {
		t.Fatal(err)
	}

	data, err := m.Load("a.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("last added pack must win, got %q", data)
	}
}

func TestManagerFilesystemFallback(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "loose.joe")
	if err := os.WriteFile(filePath, []byte("loose data"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	defer m.Close()

	data, err := m.Load(filePath)
	if err != nil {
		t.Fatalf("Load from filesystem: %v", err)
	}
	if string(data) != "loose data" {
		t.Errorf("Load returned %q", data)
	}
}

func TestManagerMiss(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if _, err := m.Load("does/not/exist.joe"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestManagerCaching(t *testing.T) {
	dir := t.TempDir()
	packPath := filepath.Join(dir, "assets.jpk")
	writePack(t, packPath, map[string][]byte{"x.bin": {1, 2, 3}})

	m := NewManager()
	defer m.Close()
	if err := m.AddPack(packPath); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Load("x.bin"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load("x.bin"); err != nil {
		t.Fatal(err)
	}

	hits, misses := m.cache.Stats()
	if hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("cache misses = %d, want 1", misses)
	}
}
