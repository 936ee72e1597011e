package loader

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestLoadBytesTriangle(t *testing.T) {
	var d testDocument
	d.mesh("tri", map[string]any{
		"attributes": d.triangle(),
		"indices":    d.uint16s(gltfAccessorTypeScalar, 0, 1, 2),
	})

	asset, err := NewLoader().LoadBytes("tri", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	assert.Empty(t, asset.Warnings)

	p := asset.Primitives[0]
	assert.Equal(t, model.PresenceMask(0x83), p.Mask())
	assert.Equal(t, model.VariantReduced, p.Mask().Variant())
	assert.Equal(t, "tri/0", p.Name())
	assert.Equal(t, []uint32{0, 1, 2}, p.Indices())
	assert.Equal(t, [4]float32{0, 1, 0, 1}, p.Vertices()[1].Color)
	assert.Equal(t, []int{0}, asset.MeshPrimitives[0])
	assert.NotEqual(t, uuid.Nil, asset.ID)
}

func TestMissingPositionSkipsOnlyThatPrimitive(t *testing.T) {
	var d testDocument
	good := d.triangle()
	d.mesh("broken", map[string]any{
		"attributes": map[string]any{gltfAttrNormal: d.floats(gltfAccessorTypeVec3, 0, 0, 1)},
	})
	d.mesh("fine", map[string]any{"attributes": good})

	asset, err := NewLoader().LoadBytes("scene", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	assert.Equal(t, 1, asset.Primitives[0].Mesh())

	require.Len(t, asset.Warnings, 1)
	var aerr *AssetError
	require.True(t, errors.As(asset.Warnings[0], &aerr))
	assert.Equal(t, MissingRequiredAttribute, aerr.Kind)
	assert.Equal(t, 0, aerr.Mesh)
	assert.ErrorIs(t, aerr, model.ErrMissingRequiredAttribute)
	assert.Nil(t, asset.MeshPrimitives[0])
}

func TestIndexOutOfRangeIsSkipped(t *testing.T) {
	var d testDocument
	d.mesh("bad", map[string]any{
		"attributes": d.triangle(),
		"indices":    d.uint16s(gltfAccessorTypeScalar, 0, 1, 5),
	})
	d.mesh("good", d.quad())

	asset, err := NewLoader().LoadBytes("scene", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	require.Len(t, asset.Warnings, 1)

	var aerr *AssetError
	require.True(t, errors.As(asset.Warnings[0], &aerr))
	assert.Equal(t, IndexOutOfRange, aerr.Kind)
	assert.ErrorIs(t, aerr, model.ErrIndexOutOfRange)
}

func TestEmptyIndexAccessorIsSkipped(t *testing.T) {
	var d testDocument
	d.mesh("empty", map[string]any{
		"attributes": d.triangle(),
		"indices":    d.uint16s(gltfAccessorTypeScalar),
	})
	d.mesh("good", d.quad())

	asset, err := NewLoader().LoadBytes("scene", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	assert.Equal(t, 6, asset.Primitives[0].IndexCount())

	require.Len(t, asset.Warnings, 1)
	var aerr *AssetError
	require.True(t, errors.As(asset.Warnings[0], &aerr))
	assert.Equal(t, MalformedPrimitive, aerr.Kind)
	assert.ErrorIs(t, aerr, model.ErrEmptyPrimitive)
}

func TestNonTriangleTopologyIsMalformed(t *testing.T) {
	var d testDocument
	d.mesh("lines", map[string]any{"attributes": d.triangle(), "mode": 1})

	asset, err := NewLoader().LoadBytes("lines", d.JSON())
	require.NoError(t, err)
	assert.Empty(t, asset.Primitives)
	require.Len(t, asset.Warnings, 1)

	var aerr *AssetError
	require.True(t, errors.As(asset.Warnings[0], &aerr))
	assert.Equal(t, MalformedPrimitive, aerr.Kind)
	assert.ErrorIs(t, aerr, ErrMalformedPrimitive)
	assert.Contains(t, aerr.Error(), "LINES")
}

func TestStreamLengthMismatchIsMalformed(t *testing.T) {
	var d testDocument
	d.mesh("short", map[string]any{"attributes": map[string]any{
		gltfAttrPosition: d.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0),
		gltfAttrNormal:   d.floats(gltfAccessorTypeVec3, 0, 0, 1),
	}})

	asset, err := NewLoader().LoadBytes("short", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Warnings, 1)
	var aerr *AssetError
	require.True(t, errors.As(asset.Warnings[0], &aerr))
	assert.Equal(t, MalformedPrimitive, aerr.Kind)
	assert.ErrorIs(t, aerr, model.ErrAttributeLength)
}

func TestLoadSynthesizesTangents(t *testing.T) {
	var d testDocument
	d.mesh("quad", d.quad())

	l := NewLoader(WithWorkers(2), WithTangentSynthesizer(model.NewTangentSynthesizer(model.WithWorkers(2))))
	asset, err := l.LoadBytes("quad", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)

	p := asset.Primitives[0]
	assert.True(t, p.Mask().Has(model.PresenceTangent))
	assert.Equal(t, model.VariantFull, p.Mask().Variant())
	for _, v := range p.Vertices() {
		assert.InDelta(t, 1, v.Tangent[0], 1e-5)
		assert.Equal(t, float32(1), v.Tangent[3])
	}
	assert.Zero(t, asset.TangentWarnings)
}

func TestNormalizedColorsAndInterleavedStreams(t *testing.T) {
	var d testDocument
	// Two VEC3 float streams interleaved with a 24-byte stride.
	interleaved := []float32{
		0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 1,
		0, 1, 0, 0, 0, 1,
	}
	raw := make([]byte, 0, len(interleaved)*4)
	for _, f := range interleaved {
		raw = append(raw, f32Bytes(f)...)
	}
	view := d.addView(raw, 24)
	pos := d.addAccessor(view, gltfComponentTypeFloat, 3, gltfAccessorTypeVec3, false)
	nrm := d.addAccessor(view, gltfComponentTypeFloat, 3, gltfAccessorTypeVec3, false)
	d.accessors[nrm]["byteOffset"] = 12
	colors := d.uint8s(gltfAccessorTypeVec3, true, 255, 0, 0, 0, 255, 0, 0, 0, 255)

	d.mesh("strided", map[string]any{"attributes": map[string]any{
		gltfAttrPosition: pos,
		gltfAttrNormal:   nrm,
		gltfAttrColor0:   colors,
	}})

	asset, err := NewLoader().LoadBytes("strided", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	vs := asset.Primitives[0].Vertices()
	assert.Equal(t, [3]float32{1, 0, 0}, vs[1].Position)
	assert.Equal(t, [3]float32{0, 0, 1}, vs[2].Normal)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, vs[2].Color)
}

func TestLoadGLB(t *testing.T) {
	var d testDocument
	d.mesh("tri", map[string]any{"attributes": d.triangle()})

	asset, err := NewLoader().LoadBytes("glb", d.GLB())
	require.NoError(t, err)
	require.Len(t, asset.Primitives, 1)
	assert.Equal(t, 3, asset.Primitives[0].VertexCount())
}

func TestFatalDocumentErrors(t *testing.T) {
	l := NewLoader()

	_, err := l.LoadBytes("json", []byte("{not json"))
	assert.Error(t, err)

	_, err = l.LoadBytes("version", []byte(`{"asset":{"version":"1.0"}}`))
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	glb := []byte{0x67, 0x6C, 0x54, 0x46, 1, 0, 0, 0, 12, 0, 0, 0}
	_, err = l.LoadBytes("glb-version", glb)
	assert.ErrorIs(t, err, errInvalidGLBVersion)

	_, err = l.Load("scene.obj")
	assert.Error(t, err)
}

func TestAccessorBoundsAreChecked(t *testing.T) {
	var d testDocument
	pos := d.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	d.accessors[pos]["count"] = 30
	d.mesh("overrun", map[string]any{"attributes": map[string]any{gltfAttrPosition: pos}})

	asset, err := NewLoader().LoadBytes("overrun", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Warnings, 1)
	assert.ErrorIs(t, asset.Warnings[0], errAccessorBounds)
}

func TestNegativeAccessorFieldsDropThePrimitive(t *testing.T) {
	cases := []struct {
		name  string
		apply func(d *testDocument, normal int)
	}{
		{"count", func(d *testDocument, normal int) { d.accessors[normal]["count"] = -1 }},
		{"accessor offset", func(d *testDocument, normal int) { d.accessors[normal]["byteOffset"] = -400 }},
		{"view offset", func(d *testDocument, normal int) {
			d.views[d.accessors[normal]["bufferView"].(int)]["byteOffset"] = -8
		}},
		{"view length", func(d *testDocument, normal int) {
			d.views[d.accessors[normal]["bufferView"].(int)]["byteLength"] = -1
		}},
		{"huge count", func(d *testDocument, normal int) { d.accessors[normal]["count"] = math.MaxInt64 / 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d testDocument
			bad := d.triangle()
			normal := d.floats(gltfAccessorTypeVec3, 0, 0, 1, 0, 0, 1, 0, 0, 1)
			bad[gltfAttrNormal] = normal
			tc.apply(&d, normal)
			d.mesh("mixed",
				map[string]any{"attributes": bad},
				map[string]any{"attributes": d.triangle()},
			)

			var asset *Asset
			require.NotPanics(t, func() {
				var err error
				asset, err = NewLoader().LoadBytes("negative-"+tc.name, d.JSON())
				require.NoError(t, err)
			})
			require.Len(t, asset.Warnings, 1)
			assert.ErrorIs(t, asset.Warnings[0], ErrMalformedPrimitive)
			assert.ErrorIs(t, asset.Warnings[0], errAccessorBounds)
			assert.Len(t, asset.Primitives, 1)
		})
	}
}

func TestNodesAndScenes(t *testing.T) {
	var d testDocument
	m := d.mesh("tri", map[string]any{"attributes": d.triangle()})
	d.nodes = []map[string]any{
		{"name": "root", "children": []int{1}, "translation": []float32{1, 2, 3}},
		{"name": "child", "mesh": m, "scale": []float32{2, 2, 2}},
	}
	d.scenes = []map[string]any{{"name": "main", "nodes": []int{0}}}
	zero := 0
	d.scene = &zero

	asset, err := NewLoader().LoadBytes("nodes", d.JSON())
	require.NoError(t, err)
	assert.Equal(t, "main", asset.Name)
	require.Len(t, asset.Nodes, 2)
	assert.Equal(t, NoIndex, asset.Nodes[0].Parent)
	assert.Equal(t, 0, asset.Nodes[1].Parent)
	assert.Equal(t, NoIndex, asset.Nodes[0].Mesh)
	assert.Equal(t, m, asset.Nodes[1].Mesh)
	assert.Equal(t, float32(3), asset.Nodes[0].Local[14])
	assert.Equal(t, float32(2), asset.Nodes[1].Local[0])
	assert.Equal(t, []int{0}, asset.RootNodes())
}

func TestNodeCycleIsFatal(t *testing.T) {
	var d testDocument
	d.mesh("tri", map[string]any{"attributes": d.triangle()})
	d.nodes = []map[string]any{
		{"children": []int{1}},
		{"children": []int{0}},
	}
	_, err := NewLoader().LoadBytes("cycle", d.JSON())
	assert.ErrorIs(t, err, errNodeHierarchy)
}

func TestMaterials(t *testing.T) {
	var d testDocument
	tri := d.triangle()
	delete(tri, gltfAttrColor0)
	d.materials = []map[string]any{{
		"name":                 "glass",
		"alphaMode":            "BLEND",
		"doubleSided":          true,
		"pbrMetallicRoughness": map[string]any{"baseColorFactor": []float32{0, 0, 1, 0.5}},
	}}
	d.mesh("tri", map[string]any{"attributes": tri, "material": 0})

	asset, err := NewLoader().LoadBytes("mat", d.JSON())
	require.NoError(t, err)
	require.Len(t, asset.Materials, 1)
	mat := asset.Materials[0]
	assert.Equal(t, model.AlphaModeBlend, mat.AlphaMode)
	assert.True(t, mat.DoubleSided)
	assert.Equal(t, model.DefaultAlphaCutoff, mat.AlphaCutoff)

	p := asset.Primitives[0]
	assert.Same(t, mat, p.Material())
	assert.True(t, p.Transparent())
	assert.True(t, p.Mask().Has(model.PresenceColor))
	assert.Equal(t, [4]float32{0, 0, 1, 0.5}, p.Vertices()[0].Color)
}

func TestExternalTexturesKeepTheirPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.png"), []byte("png bytes"), 0o644))

	var d testDocument
	d.images = []map[string]any{{"uri": "present.png"}, {"uri": "missing.png"}}
	d.textures = []map[string]any{{"source": 0}, {"source": 1}}
	d.materials = []map[string]any{
		{"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 0}}},
		{"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 1}}},
	}

	p := newGLTFParser()
	require.NoError(t, p.ParseBytes(d.JSON(), dir))
	mats, err := newGLTFMaterialExtractor(p).ExtractAllMaterials()
	require.NoError(t, err)
	require.Len(t, mats, 2)

	present := mats[0].DiffuseTexture
	require.NotNil(t, present)
	assert.Equal(t, filepath.Join(dir, "present.png"), present.Path)
	assert.Equal(t, []byte("png bytes"), present.Data)

	missing := mats[1].DiffuseTexture
	require.NotNil(t, missing, "an unreadable image still yields a texture that decodes to white")
	assert.Equal(t, filepath.Join(dir, "missing.png"), missing.Path)
	assert.Nil(t, missing.Data)
	assert.Equal(t, "material1", mats[1].Name)
}

func TestCacheEvictAndAsync(t *testing.T) {
	var d testDocument
	d.mesh("tri", map[string]any{"attributes": d.triangle()})
	path := filepath.Join(t.TempDir(), "tri.gltf")
	require.NoError(t, os.WriteFile(path, d.JSON(), 0o644))

	l := NewLoader()
	first, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path)
	assert.Equal(t, "tri", first.Name)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, again)

	assert.Same(t, first, l.Evict(path))
	assert.Nil(t, l.Get(path))

	res := <-l.LoadAsync(path)
	require.NoError(t, res.Err)
	assert.NotEqual(t, first.ID, res.Asset.ID)
	assert.Len(t, l.Assets(), 1)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	var d testDocument
	d.mesh("tri", map[string]any{"attributes": d.triangle()})
	path := filepath.Join(t.TempDir(), "watched.gltf")
	require.NoError(t, os.WriteFile(path, d.JSON(), 0o644))

	l := NewLoader()
	_, err := l.Load(path)
	require.NoError(t, err)

	reloaded := make(chan *Asset, 1)
	w := NewWatcher(l, func(a *Asset, err error) {
		if err == nil {
			select {
			case reloaded <- a:
			default:
			}
		}
	})
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, path) }()

	var asset *Asset
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, d.JSON(), 0o644)
		select {
		case asset = <-reloaded:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
	assert.Len(t, asset.Primitives, 1)

	cancel()
	assert.NoError(t, <-done)
}
