// Package model loads JOE models into renderable meshes.
package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/openrally/joekit/internal/assets"
	"github.com/openrally/joekit/internal/logger"
	"github.com/openrally/joekit/pkg/formats"
)

// Loader turns JOE files into welded, render-ready meshes.
type Loader struct {
	source *assets.Manager
	opts   formats.JOEOptions
}

// NewLoader creates a loader reading through the given source manager.
func NewLoader(source *assets.Manager, opts formats.JOEOptions) *Loader {
	return &Loader{source: source, opts: opts}
}

// Load reads, parses and welds the model at path, which may live on
// the filesystem or inside any pack registered with the source
// manager. Only frame 0 is welded; later animation frames are decoded
// and scanned for the normal defect but not retained.
//
// On failure no partial mesh is returned and the error names the path.
func (l *Loader) Load(path string, mode PrecomputeMode) (*Mesh, error) {
	data, err := l.source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}

	joe, err := formats.ParseJOEWithOptions(data, l.opts)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	if len(joe.Frames) == 0 {
		return nil, fmt.Errorf("loading model %s: object has no frames", path)
	}

	welded := Weld(&joe.Frames[0])

	mesh := NewMesh()
	mesh.SetFaces(welded.Indices)
	mesh.SetVertices(welded.Positions)
	mesh.SetNormals(welded.Normals)
	mesh.SetTexCoordSetCount(1)
	if err := mesh.SetTexCoords(0, welded.TexCoords); err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}

	mesh.GenerateMetrics()
	mesh.Precompute(mode)

	logger.Debug("model loaded",
		zap.String("path", path),
		zap.Int32("faces", joe.Header.FaceCount),
		zap.Int32("frames", joe.Header.FrameCount),
		zap.Int("source_vertices", len(joe.Frames[0].Vertices)),
		zap.Int("welded_vertices", welded.VertexCount()),
		zap.Bool("normals_corrected", joe.NormalsCorrected),
	)

	return mesh, nil
}
