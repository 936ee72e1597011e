package material

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// GPUMaterialParams is the GPU-aligned uniform at group 1 binding 2. It matches the WGSL
// MaterialParams struct of both pipeline variants.
// Size: 32 bytes.
type GPUMaterialParams struct {
	BaseColor   [4]float32 // offset  0: base color factor
	Presence    uint32     // offset 16: the primitive's presence mask
	AlphaMode   uint32     // offset 20: 0 opaque, 1 mask, 2 blend
	AlphaCutoff float32    // offset 24: mask threshold
	_pad        uint32     // offset 28
}

// NewGPUMaterialParams builds the uniform for a material as drawn by a primitive with the given mask.
//
// Parameters:
//   - m: the source material
//   - mask: the primitive's presence mask
//
// Returns:
//   - GPUMaterialParams: the uniform value
func NewGPUMaterialParams(m *model.Material, mask model.PresenceMask) GPUMaterialParams {
	return GPUMaterialParams{
		BaseColor:   m.BaseColor,
		Presence:    uint32(mask),
		AlphaMode:   uint32(m.AlphaMode),
		AlphaCutoff: m.AlphaCutoff,
	}
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:], g.Presence)
	binary.LittleEndian.PutUint32(buf[20:], g.AlphaMode)
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(g.AlphaCutoff))
	binary.LittleEndian.PutUint32(buf[28:], 0)
	return buf
}
