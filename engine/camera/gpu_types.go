package camera

import (
	"encoding/binary"
	"math"
)

// CameraUniformSize is the byte size of the WGSL Camera struct bound at group 0, binding 0.
const CameraUniformSize = 16 * 4

// GPUCameraUniform mirrors the WGSL Camera struct shared by every pipeline variant: a single
// column-major view-projection mat4x4<f32>.
type GPUCameraUniform struct {
	ViewProj [16]float32
}

// Marshal encodes the uniform as little-endian floats in WGSL layout.
func (g GPUCameraUniform) Marshal() []byte {
	out := make([]byte, 0, CameraUniformSize)
	for _, f := range g.ViewProj {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}
