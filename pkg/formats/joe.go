// Package formats provides parsers for openrally asset file formats.
// JOE format parser for vertex-animated triangle meshes.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// JOE format errors.
var (
	ErrUnsupportedJOEVersion = errors.New("unsupported JOE version")
	ErrJOEFaceCountExceeded  = errors.New("JOE face count exceeds limit")
	ErrTruncatedJOEData      = errors.New("truncated JOE data")
	ErrInvalidJOECount       = errors.New("invalid JOE element count")
	ErrJOEIndexOutOfRange    = errors.New("JOE face index out of range")
)

// JOE format constants.
const (
	JOEVersion  = 3     // The only supported format version
	JOEMaxFaces = 32000 // Default hard cap on faces per object
)

// JOEHeader is the fixed header at the start of every JOE file.
type JOEHeader struct {
	Magic      int32 // File identifier, not validated (historical files vary)
	Version    int32 // Format version, must equal JOEVersion
	FaceCount  int32 // Number of triangles, shared by all frames
	FrameCount int32 // Number of animation frames
}

// JOEFace is one triangle, indexing the three attribute arrays
// independently per corner.
type JOEFace struct {
	VertexIndex   [3]int16
	NormalIndex   [3]int16
	TexCoordIndex [3]int16
}

// JOEFrame is one static pose of the mesh. All frames share the
// object's face topology but carry their own attribute arrays.
type JOEFrame struct {
	Faces     []JOEFace
	Vertices  [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
}

// JOE represents a parsed JOE model file.
type JOE struct {
	Header JOEHeader
	Frames []JOEFrame

	// NormalsCorrected is true when the flipped-normal-basis repair
	// was applied to all frames during parsing.
	NormalsCorrected bool
}

// JOEOptions controls parse-time limits and scaling.
type JOEOptions struct {
	Scale    float32 // Uniform multiplier applied to vertex positions
	MaxFaces int32   // Upper bound on the header face count
}

// DefaultJOEOptions returns the format's standard limits.
func DefaultJOEOptions() JOEOptions {
	return JOEOptions{
		Scale:    1.0,
		MaxFaces: JOEMaxFaces,
	}
}

// ParseJOE parses JOE data from a byte slice with default options.
func ParseJOE(data []byte) (*JOE, error) {
	return ParseJOEWithOptions(data, DefaultJOEOptions())
}

// ParseJOEWithOptions parses JOE data from a byte slice.
//
// The on-disk format is little-endian; every multi-byte field is
// byte-order-corrected to host order as it is read. Truncated input
// surfaces as ErrTruncatedJOEData naming the section being read.
func ParseJOEWithOptions(data []byte, opts JOEOptions) (*JOE, error) {
	r := bytes.NewReader(data)

	joe := &JOE{}
	if err := readJOE(r, &joe.Header, "header"); err != nil {
		return nil, err
	}

	if joe.Header.Version != JOEVersion {
		return nil, fmt.Errorf("%w: version is %d not %d",
			ErrUnsupportedJOEVersion, joe.Header.Version, JOEVersion)
	}
	if joe.Header.FaceCount > opts.MaxFaces {
		return nil, fmt.Errorf("%w: %d faces (max %d)",
			ErrJOEFaceCountExceeded, joe.Header.FaceCount, opts.MaxFaces)
	}
	if joe.Header.FaceCount < 0 || joe.Header.FrameCount < 0 {
		return nil, fmt.Errorf("%w: %d faces, %d frames",
			ErrInvalidJOECount, joe.Header.FaceCount, joe.Header.FrameCount)
	}

	joe.Frames = make([]JOEFrame, joe.Header.FrameCount)
	for i := range joe.Frames {
		if err := parseJOEFrame(r, &joe.Frames[i], joe.Header.FaceCount, i); err != nil {
			return nil, err
		}
	}

	for i := range joe.Frames {
		scaleJOEVertices(joe.Frames[i].Vertices, opts.Scale)
	}

	if needsNormalSwap(joe) {
		swapNormalAxes(joe)
		joe.NormalsCorrected = true
	}

	return joe, nil
}

// ParseJOEFile parses a JOE file from disk with default options.
func ParseJOEFile(path string) (*JOE, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JOE file: %w", err)
	}
	return ParseJOE(data)
}

// parseJOEFrame decodes one frame: the face array, the three attribute
// counts, and the three attribute arrays, in wire order.
func parseJOEFrame(r *bytes.Reader, frame *JOEFrame, faceCount int32, index int) error {
	var err error
	if frame.Faces, err = readJOESlice[JOEFace](r, faceCount, 18, fmt.Sprintf("frame %d faces", index)); err != nil {
		return err
	}

	var vertexCount, texCoordCount, normalCount int32
	if err := readJOE(r, &vertexCount, fmt.Sprintf("frame %d vertex count", index)); err != nil {
		return err
	}
	if err := readJOE(r, &texCoordCount, fmt.Sprintf("frame %d texcoord count", index)); err != nil {
		return err
	}
	if err := readJOE(r, &normalCount, fmt.Sprintf("frame %d normal count", index)); err != nil {
		return err
	}

	if frame.Vertices, err = readJOESlice[[3]float32](r, vertexCount, 12, fmt.Sprintf("frame %d vertices", index)); err != nil {
		return err
	}
	if frame.Normals, err = readJOESlice[[3]float32](r, normalCount, 12, fmt.Sprintf("frame %d normals", index)); err != nil {
		return err
	}
	if frame.TexCoords, err = readJOESlice[[2]float32](r, texCoordCount, 8, fmt.Sprintf("frame %d texcoords", index)); err != nil {
		return err
	}

	return validateJOEFrame(frame, index)
}

// validateJOEFrame checks that every face corner references attributes
// that exist in this frame. Texcoord indices may legitimately exceed
// the texcoord count (the welder substitutes (0,0) for those), but
// negative texcoord indices are corrupt.
func validateJOEFrame(frame *JOEFrame, index int) error {
	for i := range frame.Faces {
		face := &frame.Faces[i]
		for v := 0; v < 3; v++ {
			if face.VertexIndex[v] < 0 || int(face.VertexIndex[v]) >= len(frame.Vertices) {
				return fmt.Errorf("%w: frame %d face %d vertex index %d (have %d vertices)",
					ErrJOEIndexOutOfRange, index, i, face.VertexIndex[v], len(frame.Vertices))
			}
			if face.NormalIndex[v] < 0 || int(face.NormalIndex[v]) >= len(frame.Normals) {
				return fmt.Errorf("%w: frame %d face %d normal index %d (have %d normals)",
					ErrJOEIndexOutOfRange, index, i, face.NormalIndex[v], len(frame.Normals))
			}
			if face.TexCoordIndex[v] < 0 {
				return fmt.Errorf("%w: frame %d face %d texcoord index %d",
					ErrJOEIndexOutOfRange, index, i, face.TexCoordIndex[v])
			}
		}
	}
	return nil
}

func scaleJOEVertices(vertices [][3]float32, scale float32) {
	for i := range vertices {
		for d := 0; d < 3; d++ {
			vertices[i][d] *= scale
		}
	}
}

// readJOE decodes one fixed-size value, mapping a short read to
// ErrTruncatedJOEData with the section name.
func readJOE(r *bytes.Reader, v any, section string) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: reading %s", ErrTruncatedJOEData, section)
	}
	return nil
}

// readJOESlice decodes count fixed-size records of the given wire
// stride. The remaining input is checked against the requested size
// before allocating, so a corrupt count cannot force a huge allocation.
func readJOESlice[T any](r *bytes.Reader, count int32, stride int64, section string) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %s count %d", ErrInvalidJOECount, section, count)
	}
	if int64(count)*stride > int64(r.Len()) {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedJOEData, section)
	}
	out := make([]T, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedJOEData, section)
	}
	return out, nil
}

// VertexCount returns the number of vertices across all frames.
func (j *JOE) VertexCount() int {
	total := 0
	for i := range j.Frames {
		total += len(j.Frames[i].Vertices)
	}
	return total
}
