package formats

import "github.com/openrally/joekit/pkg/math"

// A historical exporter sometimes wrote normals with the Y and Z axes
// swapped. The defect is detected by comparing each face's geometric
// normal against the sum of its three vertex normals: on a healthy
// mesh the two roughly agree, on a swapped mesh most faces land near
// perpendicular. The constants below are empirically tuned against the
// affected assets and must not be changed.
const (
	// degenerateEpsilon rejects triangles or normal sums too small
	// to orient reliably.
	degenerateEpsilon = 0.0001

	// swapVoteBandLow / High bound the dot-product band (exclusive)
	// that counts as a flip vote.
	swapVoteBandLow  = -0.5
	swapVoteBandHigh = 0.5
)

// needsNormalSwap scans every frame and reports whether the object's
// normals were authored with swapped Y/Z axes. Any single frame whose
// flip votes exceed a quarter of the face count flags the whole object.
func needsNormalSwap(joe *JOE) bool {
	swap := false
	for f := range joe.Frames {
		frame := &joe.Frames[f]
		votes := 0
		for i := range frame.Faces {
			face := &frame.Faces[i]

			var tri [3]math.Vec3
			var sum math.Vec3
			for v := 0; v < 3; v++ {
				tri[v] = math.Vec3FromArray(frame.Vertices[face.VertexIndex[v]])
				sum = sum.Add(math.Vec3FromArray(frame.Normals[face.NormalIndex[v]]))
			}

			faceNormal := tri[2].Sub(tri[0]).Cross(tri[1].Sub(tri[0]))
			if faceNormal.Length() <= degenerateEpsilon || sum.Length() <= degenerateEpsilon {
				continue
			}

			dot := sum.Normalize().Dot(faceNormal.Normalize())
			if dot > swapVoteBandLow && dot < swapVoteBandHigh {
				votes++
			}
		}

		if votes > int(joe.Header.FaceCount)/4 {
			swap = true
		}
	}
	return swap
}

// swapNormalAxes applies the fixed basis correction to every normal of
// every frame: Y and Z are exchanged and the new Y is negated.
func swapNormalAxes(joe *JOE) {
	for f := range joe.Frames {
		normals := joe.Frames[f].Normals
		for i := range normals {
			y, z := normals[i][1], normals[i][2]
			normals[i][1] = -z
			normals[i][2] = y
		}
	}
}
