package engine

import (
	"testing"

	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleAsset(t *testing.T, name string) *loader.Asset {
	t.Helper()
	p, _, err := model.BuildPrimitive(model.PrimitiveSource{
		Name: name,
		Attributes: model.RawAttributes{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		},
		Material: model.DefaultMaterial(),
	}, nil)
	require.NoError(t, err)
	return &loader.Asset{
		ID:             uuid.New(),
		Name:           name,
		Primitives:     []*model.Primitive{p},
		MeshPrimitives: map[int][]int{0: {0}},
		Nodes:          []loader.Node{{Name: "root", Parent: loader.NoIndex, Mesh: 0, Local: identity()}},
		DefaultScene:   loader.NoIndex,
	}
}

type evictions struct{ ids []model.PrimitiveID }

func (e *evictions) evict(ids []model.PrimitiveID) { e.ids = append(e.ids, ids...) }

func drawn(s scene.Scene) []model.PrimitiveID {
	s.Update()
	var out []model.PrimitiveID
	s.Each(func(_ scene.EntityID, prim model.PrimitiveID, _ *[16]float32) {
		out = append(out, prim)
	})
	return out
}

func TestAssetSetAddSpawnsIntoScene(t *testing.T) {
	store := model.NewStore()
	s := scene.NewScene("test")
	set := newAssetSet(store, s, nil)

	_, err := set.add("a.glb", triangleAsset(t, "a"), identity())
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.Len(t, drawn(s), 1)
	assert.Equal(t, []string{"a.glb"}, set.keys())
}

func TestAssetSetReplaceSwapsPrimitivesAndEvicts(t *testing.T) {
	store := model.NewStore()
	s := scene.NewScene("test")
	ev := &evictions{}
	set := newAssetSet(store, s, ev.evict)

	root := identity()
	root[12] = 4
	_, err := set.add("a.glb", triangleAsset(t, "v1"), root)
	require.NoError(t, err)
	before := drawn(s)
	require.Len(t, before, 1)

	_, err = set.replace("a.glb", triangleAsset(t, "v2"))
	require.NoError(t, err)

	after := drawn(s)
	require.Len(t, after, 1)
	assert.NotEqual(t, before[0], after[0], "reloaded primitives get fresh IDs")
	assert.Equal(t, before, ev.ids)
	assert.Nil(t, store.Primitive(before[0]))
	assert.Equal(t, 1, store.Len())

	var world [16]float32
	s.Each(func(_ scene.EntityID, _ model.PrimitiveID, w *[16]float32) { world = *w })
	assert.Equal(t, float32(4), world[12], "replacement keeps the instance transform")
}

func TestAssetSetAddSameAssetIsNoop(t *testing.T) {
	store := model.NewStore()
	s := scene.NewScene("test")
	set := newAssetSet(store, s, nil)

	asset := triangleAsset(t, "a")
	first, err := set.add("a.glb", asset, identity())
	require.NoError(t, err)
	second, err := set.add("a.glb", asset, identity())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestAssetSetRemove(t *testing.T) {
	store := model.NewStore()
	s := scene.NewScene("test")
	ev := &evictions{}
	set := newAssetSet(store, s, ev.evict)

	_, err := set.add("a.glb", triangleAsset(t, "a"), identity())
	require.NoError(t, err)

	assert.True(t, set.remove("a.glb"))
	assert.False(t, set.remove("a.glb"))
	assert.Zero(t, store.Len())
	assert.Zero(t, s.Len())
	assert.Len(t, ev.ids, 1)
}

func TestAssetSetRejectsAssetUnderSecondKey(t *testing.T) {
	store := model.NewStore()
	set := newAssetSet(store, scene.NewScene("test"), nil)

	asset := triangleAsset(t, "a")
	_, err := set.add("a.glb", asset, identity())
	require.NoError(t, err)

	_, err = set.add("copy.glb", asset, identity())
	assert.ErrorIs(t, err, errAssetInUse)
	assert.Equal(t, 1, store.Len())
}
