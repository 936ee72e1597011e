package batcher

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(t *testing.T, alpha model.AlphaMode) *model.Primitive {
	t.Helper()
	mat := model.DefaultMaterial()
	mat.AlphaMode = alpha
	p, _, err := model.BuildPrimitive(model.PrimitiveSource{
		Name: "tri",
		Attributes: model.RawAttributes{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		},
		Material: mat,
	}, nil)
	require.NoError(t, err)
	return p
}

func translation(x, y, z float32) [16]float32 {
	var m [16]float32
	common.Identity(m[:])
	m[12], m[13], m[14] = x, y, z
	return m
}

// fixture stores n opaque primitives plus the given transparent ones, in that ID order.
func fixture(t *testing.T, opaque, transparent int) (model.Store, []model.PrimitiveID) {
	t.Helper()
	var prims []*model.Primitive
	for range opaque {
		prims = append(prims, triangle(t, model.AlphaModeOpaque))
	}
	for range transparent {
		prims = append(prims, triangle(t, model.AlphaModeBlend))
	}
	store := model.NewStore()
	return store, store.Add(uuid.New(), prims)
}

func TestBuildKeepsEntityOrderWithinBatch(t *testing.T) {
	store, ids := fixture(t, 1, 0)
	s := scene.NewScene("test")
	a, err := s.Spawn(ids[0], translation(1, 0, 0), scene.NoParent)
	require.NoError(t, err)
	b, err := s.Spawn(ids[0], translation(2, 0, 0), scene.NoParent)
	require.NoError(t, err)
	s.Update()

	batches, err := NewBatcher(store).Build(s)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, []scene.EntityID{a, b}, batches[0].Entities)
	require.Len(t, batches[0].Instances, 2)
	assert.Equal(t, float32(1), batches[0].Instances[0][3][0], "A's transform precedes B's")
	assert.Equal(t, float32(2), batches[0].Instances[1][3][0])
}

func TestBuildOrdersBatchesByPrimitive(t *testing.T) {
	store, ids := fixture(t, 3, 0)
	s := scene.NewScene("test")
	for _, i := range []int{2, 0, 1, 0} {
		_, err := s.Spawn(ids[i], translation(0, 0, 0), scene.NoParent)
		require.NoError(t, err)
	}
	s.Update()

	bt := NewBatcher(store)
	batches, err := bt.Build(s)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	for i, b := range batches {
		assert.Equal(t, ids[i], b.PrimitiveID)
	}
	assert.Len(t, batches[0].Instances, 2)
	assert.Equal(t, Stats{Frame: 1, Batches: 3, Instances: 4}, bt.Stats())
}

func TestBuildPlacesTransparentBatchesLast(t *testing.T) {
	store, ids := fixture(t, 2, 1)
	s := scene.NewScene("test")
	_, _ = s.Spawn(ids[2], translation(0, 0, 0), scene.NoParent)
	_, _ = s.Spawn(ids[1], translation(0, 0, 0), scene.NoParent)
	_, _ = s.Spawn(ids[0], translation(0, 0, 0), scene.NoParent)
	s.Update()

	batches, err := NewBatcher(store).Build(s)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []model.PrimitiveID{ids[0], ids[1], ids[2]},
		[]model.PrimitiveID{batches[0].PrimitiveID, batches[1].PrimitiveID, batches[2].PrimitiveID})
	assert.False(t, batches[1].Transparent)
	assert.True(t, batches[2].Transparent)
}

func TestBuildRejectsUnsettledScene(t *testing.T) {
	store, ids := fixture(t, 1, 0)
	s := scene.NewScene("test")
	_, _ = s.Spawn(ids[0], translation(0, 0, 0), scene.NoParent)

	_, err := NewBatcher(store).Build(s)
	assert.ErrorIs(t, err, ErrSceneNotSettled)
}

func TestBuildReusesStorage(t *testing.T) {
	store, ids := fixture(t, 2, 0)
	s := scene.NewScene("test")
	for range 8 {
		_, _ = s.Spawn(ids[0], translation(0, 0, 0), scene.NoParent)
	}
	e, _ := s.Spawn(ids[1], translation(0, 0, 0), scene.NoParent)
	s.Update()

	bt := NewBatcher(store, WithCapacity(4))
	first, err := bt.Build(s)
	require.NoError(t, err)
	backing := unsafe.SliceData(first[0].Instances)

	_, err = s.Remove(e)
	require.NoError(t, err)
	s.Update()
	second, err := bt.Build(s)
	require.NoError(t, err)
	require.Len(t, second, 1, "emptied batches are dropped")
	assert.Len(t, second[0].Instances, 8)
	assert.Equal(t, backing, unsafe.SliceData(second[0].Instances))
}

func TestBuildSkipsRemovedPrimitives(t *testing.T) {
	store := model.NewStore()
	keep := store.Add(uuid.New(), []*model.Primitive{triangle(t, model.AlphaModeOpaque)})
	gone := uuid.New()
	dropped := store.Add(gone, []*model.Primitive{triangle(t, model.AlphaModeOpaque)})

	s := scene.NewScene("test")
	_, _ = s.Spawn(keep[0], translation(0, 0, 0), scene.NoParent)
	_, _ = s.Spawn(dropped[0], translation(0, 0, 0), scene.NoParent)
	s.Update()
	store.Remove(gone)

	batches, err := NewBatcher(store).Build(s)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, keep[0], batches[0].PrimitiveID)
}

// spawnBeforeWalk spawns a child into the wrapped scene after Settled has been answered but
// before the walk starts.
type spawnBeforeWalk struct {
	scene.Scene
	prim   model.PrimitiveID
	parent scene.EntityID
}

func (q spawnBeforeWalk) Each(fn func(id scene.EntityID, prim model.PrimitiveID, world *[16]float32)) (uint64, bool) {
	_, _ = q.Spawn(q.prim, translation(0, 5, 0), q.parent)
	return q.Scene.Each(fn)
}

func TestBuildRejectsMutationBetweenCheckAndWalk(t *testing.T) {
	store, ids := fixture(t, 1, 0)
	s := scene.NewScene("test")
	parent, err := s.Spawn(ids[0], translation(10, 0, 0), scene.NoParent)
	require.NoError(t, err)
	s.Update()
	require.True(t, s.Settled())

	b := NewBatcher(store)
	batches, err := b.Build(spawnBeforeWalk{Scene: s, prim: ids[0], parent: parent})
	assert.ErrorIs(t, err, ErrSceneNotSettled)
	assert.Empty(t, batches)

	s.Update()
	batches, err = b.Build(s)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Instances, 2)
	assert.Equal(t, [4]float32{10, 5, 0, 1}, batches[0].Instances[1][3], "the child is batched with its parent's transform applied")
}
