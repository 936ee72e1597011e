package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
)

// testDocument assembles small glTF documents in memory. Every accessor gets its own
// 4-byte-aligned buffer view in a single buffer.
type testDocument struct {
	bin       bytes.Buffer
	views     []map[string]any
	accessors []map[string]any
	meshes    []map[string]any
	nodes     []map[string]any
	scenes    []map[string]any
	materials []map[string]any
	textures  []map[string]any
	images    []map[string]any
	scene     *int
}

func (d *testDocument) addView(data []byte, stride int) int {
	for d.bin.Len()%4 != 0 {
		d.bin.WriteByte(0)
	}
	view := map[string]any{"buffer": 0, "byteOffset": d.bin.Len(), "byteLength": len(data)}
	if stride > 0 {
		view["byteStride"] = stride
	}
	d.bin.Write(data)
	d.views = append(d.views, view)
	return len(d.views) - 1
}

func (d *testDocument) addAccessor(view, componentType, count int, typ string, normalized bool) int {
	acc := map[string]any{"bufferView": view, "componentType": componentType, "count": count, "type": typ}
	if normalized {
		acc["normalized"] = true
	}
	d.accessors = append(d.accessors, acc)
	return len(d.accessors) - 1
}

func (d *testDocument) floats(typ string, vals ...float32) int {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	n := gltfAccessorTypeComponentCount(typ)
	return d.addAccessor(d.addView(buf, 0), gltfComponentTypeFloat, len(vals)/n, typ, false)
}

func (d *testDocument) uint16s(typ string, vals ...uint16) int {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	n := gltfAccessorTypeComponentCount(typ)
	return d.addAccessor(d.addView(buf, 0), gltfComponentTypeUnsignedShort, len(vals)/n, typ, false)
}

func (d *testDocument) uint8s(typ string, normalized bool, vals ...uint8) int {
	n := gltfAccessorTypeComponentCount(typ)
	return d.addAccessor(d.addView(vals, 0), gltfComponentTypeUnsignedByte, len(vals)/n, typ, normalized)
}

func (d *testDocument) mesh(name string, prims ...map[string]any) int {
	d.meshes = append(d.meshes, map[string]any{"name": name, "primitives": prims})
	return len(d.meshes) - 1
}

func (d *testDocument) root() map[string]any {
	root := map[string]any{
		"asset":       map[string]any{"version": "2.0"},
		"bufferViews": d.views,
		"accessors":   d.accessors,
		"meshes":      d.meshes,
	}
	if len(d.nodes) > 0 {
		root["nodes"] = d.nodes
	}
	if len(d.scenes) > 0 {
		root["scenes"] = d.scenes
	}
	if len(d.materials) > 0 {
		root["materials"] = d.materials
	}
	if len(d.textures) > 0 {
		root["textures"] = d.textures
		root["images"] = d.images
	}
	if d.scene != nil {
		root["scene"] = *d.scene
	}
	return root
}

// JSON renders a .gltf document with the binary data inlined as a data URI.
func (d *testDocument) JSON() []byte {
	root := d.root()
	root["buffers"] = []map[string]any{{
		"byteLength": d.bin.Len(),
		"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(d.bin.Bytes()),
	}}
	out, err := json.Marshal(root)
	if err != nil {
		panic(err)
	}
	return out
}

// GLB renders a binary container with JSON and BIN chunks.
func (d *testDocument) GLB() []byte {
	root := d.root()
	root["buffers"] = []map[string]any{{"byteLength": d.bin.Len()}}
	js, err := json.Marshal(root)
	if err != nil {
		panic(err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	bin := append([]byte(nil), d.bin.Bytes()...)
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
	out.Write(js)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

// triangle adds position, normal and color streams for one triangle and returns its attribute map.
func (d *testDocument) triangle() map[string]any {
	return map[string]any{
		gltfAttrPosition: d.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0),
		gltfAttrNormal:   d.floats(gltfAccessorTypeVec3, 0, 0, 1, 0, 0, 1, 0, 0, 1),
		gltfAttrColor0:   d.floats(gltfAccessorTypeVec4, 1, 0, 0, 1, 0, 1, 0, 1, 0, 0, 1, 1),
	}
}

// quad adds a textured unit quad and returns its primitive definition.
func (d *testDocument) quad() map[string]any {
	return map[string]any{
		"attributes": map[string]any{
			gltfAttrPosition:  d.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0),
			gltfAttrNormal:    d.floats(gltfAccessorTypeVec3, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1),
			gltfAttrTexCoord0: d.floats(gltfAccessorTypeVec2, 0, 0, 1, 0, 0, 1, 1, 1),
		},
		"indices": d.uint16s(gltfAccessorTypeScalar, 0, 1, 2, 1, 3, 2),
	}
}

func f32Bytes(f float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
	return b[:]
}
