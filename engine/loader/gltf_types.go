package loader

// The subset of the glTF 2.0 schema the loader reads. Skins, animations, cameras and morph targets
// are left undecoded.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#properties-reference

type gltfDocument struct {
	Asset       struct{ Version string } `json:"asset"`
	Scene       *int                     `json:"scene"`
	Scenes      []gltfScene              `json:"scenes"`
	Nodes       []gltfNode               `json:"nodes"`
	Meshes      []gltfMesh               `json:"meshes"`
	Accessors   []gltfAccessor           `json:"accessors"`
	BufferViews []gltfBufferView         `json:"bufferViews"`
	Buffers     []gltfBuffer             `json:"buffers"`
	Materials   []gltfMaterial           `json:"materials"`
	Textures    []gltfTexture            `json:"textures"`
	Images      []gltfImage              `json:"images"`
	Samplers    []gltfSampler            `json:"samplers"`
}

type gltfScene struct {
	Name  string `json:"name"`
	Nodes []int  `json:"nodes"`
}

// gltfNode carries either Matrix or any of Translation/Rotation/Scale. Rotation is a unit
// quaternion (x, y, z, w).
type gltfNode struct {
	Name        string       `json:"name"`
	Children    []int        `json:"children"`
	Mesh        *int         `json:"mesh"`
	Matrix      *[16]float32 `json:"matrix"`
	Translation *[3]float32  `json:"translation"`
	Rotation    *[4]float32  `json:"rotation"`
	Scale       *[3]float32  `json:"scale"`
}

type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive maps attribute semantics (POSITION, NORMAL, ...) to accessor indices.
// A nil Mode means TRIANGLES.
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
	Material   *int           `json:"material"`
	Mode       *int           `json:"mode"`
}

const gltfPrimitiveModeTriangles = 4

var gltfPrimitiveModeNames = [...]string{"POINTS", "LINES", "LINE_LOOP", "LINE_STRIP", "TRIANGLES", "TRIANGLE_STRIP", "TRIANGLE_FAN"}

func gltfPrimitiveModeName(mode int) string {
	if mode < 0 || mode >= len(gltfPrimitiveModeNames) {
		return "UNKNOWN"
	}
	return gltfPrimitiveModeNames[mode]
}

const (
	gltfAttrPosition  = "POSITION"
	gltfAttrNormal    = "NORMAL"
	gltfAttrTangent   = "TANGENT"
	gltfAttrTexCoord0 = "TEXCOORD_0"
	gltfAttrTexCoord1 = "TEXCOORD_1"
	gltfAttrColor0    = "COLOR_0"
	gltfAttrJoints0   = "JOINTS_0"
	gltfAttrWeights0  = "WEIGHTS_0"
)

// gltfAccessor describes a typed view into a buffer view. A nil BufferView means all zeros.
// Sparse accessors are detected only so the parser can reject them.
type gltfAccessor struct {
	BufferView    *int      `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Normalized    bool      `json:"normalized"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Sparse        *struct{} `json:"sparse"`
}

const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat2   = "MAT2"
	gltfAccessorTypeMat3   = "MAT3"
	gltfAccessorTypeMat4   = "MAT4"
)

// gltfBufferView is a byte range of a buffer. A nil ByteStride means tightly packed.
type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride"`
}

// gltfBuffer is filled in by the parser: Data comes from a data URI or, for the first buffer of
// a GLB without a URI, from the BIN chunk.
type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
	Data       []byte `json:"-"`
}

type gltfMaterial struct {
	Name                 string `json:"name"`
	PbrMetallicRoughness *struct {
		BaseColorFactor  *[4]float32      `json:"baseColorFactor"`
		BaseColorTexture *gltfTextureInfo `json:"baseColorTexture"`
	} `json:"pbrMetallicRoughness"`
	EmissiveFactor *[3]float32 `json:"emissiveFactor"`
	AlphaMode      string      `json:"alphaMode"`
	AlphaCutoff    *float32    `json:"alphaCutoff"`
	DoubleSided    bool        `json:"doubleSided"`
}

const (
	gltfAlphaModeOpaque = "OPAQUE"
	gltfAlphaModeMask   = "MASK"
	gltfAlphaModeBlend  = "BLEND"
)

type gltfTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord"`
}

type gltfTexture struct {
	Sampler *int `json:"sampler"`
	Source  *int `json:"source"`
}

// gltfImage is either a URI or a buffer view plus MIME type.
type gltfImage struct {
	Name       string `json:"name"`
	URI        string `json:"uri"`
	MimeType   string `json:"mimeType"`
	BufferView *int   `json:"bufferView"`
}

// gltfSampler leaves unset filters and wraps to the glTF defaults (linear, repeat).
type gltfSampler struct {
	MagFilter *int `json:"magFilter"`
	MinFilter *int `json:"minFilter"`
	WrapS     *int `json:"wrapS"`
	WrapT     *int `json:"wrapT"`
}

const (
	gltfFilterNearest              = 9728
	gltfFilterLinear               = 9729
	gltfFilterNearestMipmapNearest = 9984
	gltfFilterLinearMipmapNearest  = 9985
	gltfFilterNearestMipmapLinear  = 9986
	gltfFilterLinearMipmapLinear   = 9987

	gltfWrapClampToEdge    = 33071
	gltfWrapMirroredRepeat = 33648
	gltfWrapRepeat         = 10497
)

// GLB framing: a 12-byte header followed by length-prefixed chunks, JSON first.
type gltfGLBHeader struct {
	Magic, Version, Length uint32
}

type gltfGLBChunkHeader struct {
	ChunkLength, ChunkType uint32
}

const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\x00"
)
