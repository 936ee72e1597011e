package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	errSparseAccessor = errors.New("sparse accessors are not supported")
	errAccessorBounds = errors.New("accessor reads past the end of its buffer")
	errAccessorType   = errors.New("accessor has an unexpected type")
)

// accessorView is an accessor whose every element has been bounds-checked against its buffer.
type accessorView struct {
	*gltfAccessor
	data     []byte
	start    int
	stride   int
	compSize int
}

// at returns the bytes of component c of element i.
func (v accessorView) at(i, c int) []byte {
	return v.data[v.start+i*v.stride+c*v.compSize:]
}

func (v accessorView) floatAt(i, c int) float32 {
	return gltfReadComponent(v.at(i, c), v.ComponentType, v.Normalized)
}

func (v accessorView) uintAt(i, c int) (uint32, error) {
	return gltfReadUint(v.at(i, c), v.ComponentType)
}

// view resolves accessor index to its buffer bytes and checks it has type want.
func (p *gltfParserImpl) view(index int, want string) (accessorView, error) {
	doc := p.document
	if doc == nil {
		return accessorView{}, errNoDocument
	}
	if index < 0 || index >= len(doc.Accessors) {
		return accessorView{}, fmt.Errorf("accessor %d out of range", index)
	}
	acc := &doc.Accessors[index]

	fail := func(format string, args ...any) (accessorView, error) {
		return accessorView{}, fmt.Errorf("accessor %d: "+format, append([]any{index}, args...)...)
	}
	switch {
	case acc.Type != want:
		return fail("is %s, want %s: %w", acc.Type, want, errAccessorType)
	case acc.Sparse != nil:
		return fail("%w", errSparseAccessor)
	case acc.BufferView == nil:
		return fail("no bufferView")
	case *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews):
		return fail("bufferView %d out of range", *acc.BufferView)
	}
	bv := doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return fail("buffer %d out of range", bv.Buffer)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 || bv.ByteOffset < 0 || bv.ByteLength < 0 {
		return fail("negative count, offset or length: %w", errAccessorBounds)
	}

	compSize := gltfComponentTypeSize(acc.ComponentType)
	elemSize := compSize * gltfAccessorTypeComponentCount(acc.Type)
	if elemSize == 0 {
		return fail("component type %d: %w", acc.ComponentType, errAccessorType)
	}
	v := accessorView{
		gltfAccessor: acc,
		data:         doc.Buffers[bv.Buffer].Data,
		start:        bv.ByteOffset + acc.ByteOffset,
		stride:       elemSize,
		compSize:     compSize,
	}
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		v.stride = *bv.ByteStride
	}
	if acc.Count == 0 {
		return v, nil
	}
	// The last element must end inside both the view and the buffer. Dividing first keeps a
	// huge count from overflowing.
	end := min(bv.ByteOffset+bv.ByteLength, len(v.data))
	if v.start+elemSize > end || acc.Count-1 > (end-v.start-elemSize)/v.stride {
		return fail("%w", errAccessorBounds)
	}
	return v, nil
}

func (p *gltfParserImpl) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	v, err := p.view(accessorIndex, gltfAccessorTypeVec2)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, v.Count)
	for i := range out {
		for c := range out[i] {
			out[i][c] = v.floatAt(i, c)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	v, err := p.view(accessorIndex, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, v.Count)
	for i := range out {
		for c := range out[i] {
			out[i][c] = v.floatAt(i, c)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec4Accessor(accessorIndex int) ([][4]float32, error) {
	v, err := p.view(accessorIndex, gltfAccessorTypeVec4)
	if err != nil {
		return nil, err
	}
	out := make([][4]float32, v.Count)
	for i := range out {
		for c := range out[i] {
			out[i][c] = v.floatAt(i, c)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadColorAccessor(accessorIndex int) ([][4]float32, error) {
	rgb, err := p.ReadVec3Accessor(accessorIndex)
	if errors.Is(err, errAccessorType) {
		return p.ReadVec4Accessor(accessorIndex)
	}
	if err != nil {
		return nil, err
	}
	out := make([][4]float32, len(rgb))
	for i, c := range rgb {
		out[i] = [4]float32{c[0], c[1], c[2], 1}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	v, err := p.view(accessorIndex, gltfAccessorTypeScalar)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, v.Count)
	for i := range out {
		if out[i], err = v.uintAt(i, 0); err != nil {
			return nil, fmt.Errorf("index accessor %d: %w", accessorIndex, err)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadJointsAccessor(accessorIndex int) ([][4]uint32, error) {
	v, err := p.view(accessorIndex, gltfAccessorTypeVec4)
	if err != nil {
		return nil, err
	}
	if v.ComponentType == gltfComponentTypeUnsignedInt {
		return nil, fmt.Errorf("joints accessor %d: 32-bit joint indices: %w", accessorIndex, errAccessorType)
	}
	out := make([][4]uint32, v.Count)
	for i := range out {
		for c := range out[i] {
			if out[i][c], err = v.uintAt(i, c); err != nil {
				return nil, fmt.Errorf("joints accessor %d: %w", accessorIndex, err)
			}
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadBufferView(bufferViewIndex int) ([]byte, error) {
	doc := p.document
	if doc == nil {
		return nil, errNoDocument
	}
	if bufferViewIndex < 0 || bufferViewIndex >= len(doc.BufferViews) {
		return nil, fmt.Errorf("bufferView %d out of range", bufferViewIndex)
	}
	bv := doc.BufferViews[bufferViewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView %d: buffer %d out of range", bufferViewIndex, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteOffset+bv.ByteLength > len(data) {
		return nil, fmt.Errorf("bufferView %d: [%d, +%d) outside a %d byte buffer", bufferViewIndex, bv.ByteOffset, bv.ByteLength, len(data))
	}
	return append([]byte(nil), data[bv.ByteOffset:bv.ByteOffset+bv.ByteLength]...), nil
}

// gltfReadComponent decodes the component at the start of b. Normalized integers map to
// [0, 1] when unsigned and [-1, 1] when signed.
func gltfReadComponent(b []byte, componentType int, normalized bool) float32 {
	var v, scale float32
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeUnsignedByte:
		v, scale = float32(b[0]), math.MaxUint8
	case gltfComponentTypeByte:
		v, scale = float32(int8(b[0])), math.MaxInt8
	case gltfComponentTypeUnsignedShort:
		v, scale = float32(binary.LittleEndian.Uint16(b)), math.MaxUint16
	case gltfComponentTypeShort:
		v, scale = float32(int16(binary.LittleEndian.Uint16(b))), math.MaxInt16
	default:
		return 0
	}
	if !normalized {
		return v
	}
	return max(v/scale, -1)
}

func gltfReadUint(b []byte, componentType int) (uint32, error) {
	switch componentType {
	case gltfComponentTypeUnsignedByte:
		return uint32(b[0]), nil
	case gltfComponentTypeUnsignedShort:
		return uint32(binary.LittleEndian.Uint16(b)), nil
	case gltfComponentTypeUnsignedInt:
		return binary.LittleEndian.Uint32(b), nil
	}
	return 0, fmt.Errorf("component type %d is not an unsigned integer: %w", componentType, errAccessorType)
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	}
	return 0
}

var gltfAccessorComponents = map[string]int{
	gltfAccessorTypeScalar: 1,
	gltfAccessorTypeVec2:   2,
	gltfAccessorTypeVec3:   3,
	gltfAccessorTypeVec4:   4,
	gltfAccessorTypeMat2:   4,
	gltfAccessorTypeMat3:   9,
	gltfAccessorTypeMat4:   16,
}

// gltfAccessorTypeComponentCount is 0 for unknown types.
func gltfAccessorTypeComponentCount(accessorType string) int {
	return gltfAccessorComponents[accessorType]
}
