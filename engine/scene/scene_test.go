package scene

import (
	"testing"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity() [16]float32 {
	var m [16]float32
	common.Identity(m[:])
	return m
}

func translation(x, y, z float32) [16]float32 {
	m := identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

type visit struct {
	id    EntityID
	prim  model.PrimitiveID
	world [16]float32
}

func collect(q Query) []visit {
	var out []visit
	q.Each(func(id EntityID, prim model.PrimitiveID, world *[16]float32) {
		out = append(out, visit{id, prim, *world})
	})
	return out
}

func TestSpawnAssignsAscendingIDs(t *testing.T) {
	s := NewScene("test", WithCapacity(4))
	a, err := s.Spawn(0, identity(), NoParent)
	require.NoError(t, err)
	b, err := s.Spawn(0, identity(), NoParent)
	require.NoError(t, err)

	assert.Less(t, a, b)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "test", s.Name())
}

func TestSpawnRejectsUnknownParent(t *testing.T) {
	s := NewScene("test")
	_, err := s.Spawn(0, identity(), 7)
	assert.ErrorIs(t, err, errUnknownEntity)
}

func TestUpdateSettlesAndAdvancesFrame(t *testing.T) {
	s := NewScene("test")
	assert.True(t, s.Settled(), "an empty scene is settled")

	id, err := s.Spawn(0, identity(), NoParent)
	require.NoError(t, err)
	assert.False(t, s.Settled())

	assert.Equal(t, uint64(1), s.Update())
	assert.True(t, s.Settled())
	assert.Equal(t, uint64(1), s.Frame())

	require.NoError(t, s.SetTransform(id, translation(1, 0, 0)))
	assert.False(t, s.Settled())
	assert.Equal(t, uint64(2), s.Update())
}

func TestEachSkipsUnsettledScene(t *testing.T) {
	s := NewScene("test")
	_, err := s.Spawn(0, identity(), NoParent)
	require.NoError(t, err)
	s.Update()

	_, err = s.Spawn(0, translation(1, 0, 0), NoParent)
	require.NoError(t, err)
	visited := 0
	frame, ok := s.Each(func(EntityID, model.PrimitiveID, *[16]float32) { visited++ })
	assert.False(t, ok)
	assert.Zero(t, visited, "no entity is visited before Update")
	assert.Equal(t, uint64(1), frame)

	s.Update()
	frame, ok = s.Each(func(EntityID, model.PrimitiveID, *[16]float32) { visited++ })
	assert.True(t, ok)
	assert.Equal(t, 2, visited)
	assert.Equal(t, uint64(2), frame)
}

func TestUpdateComposesParentTransforms(t *testing.T) {
	s := NewScene("test")
	root, err := s.Spawn(model.InvalidPrimitiveID, translation(1, 0, 0), NoParent)
	require.NoError(t, err)
	mid, err := s.Spawn(model.InvalidPrimitiveID, translation(0, 2, 0), root)
	require.NoError(t, err)
	_, err = s.Spawn(3, translation(0, 0, 3), mid)
	require.NoError(t, err)

	s.Update()
	got := collect(s)
	require.Len(t, got, 1, "transform-only entities are not visited")
	assert.Equal(t, model.PrimitiveID(3), got[0].prim)
	assert.Equal(t, float32(1), got[0].world[12])
	assert.Equal(t, float32(2), got[0].world[13])
	assert.Equal(t, float32(3), got[0].world[14])

	require.NoError(t, s.SetTransform(root, translation(5, 0, 0)))
	s.Update()
	assert.Equal(t, float32(5), collect(s)[0].world[12])
}

func TestEachVisitsInCreationOrder(t *testing.T) {
	s := NewScene("test")
	for i := range 5 {
		_, err := s.Spawn(model.PrimitiveID(4-i), identity(), NoParent)
		require.NoError(t, err)
	}
	s.Update()

	got := collect(s)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].id, got[i].id)
	}
}

func TestRemoveCascadesToDescendants(t *testing.T) {
	s := NewScene("test")
	root, _ := s.Spawn(model.InvalidPrimitiveID, identity(), NoParent)
	child, _ := s.Spawn(1, identity(), root)
	_, _ = s.Spawn(2, identity(), child)
	other, _ := s.Spawn(3, identity(), NoParent)

	n, err := s.Remove(root)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, s.Len())

	s.Update()
	got := collect(s)
	require.Len(t, got, 1)
	assert.Equal(t, other, got[0].id)

	_, err = s.Remove(root)
	assert.ErrorIs(t, err, errUnknownEntity, "removed IDs are not reused")
	assert.ErrorIs(t, s.SetTransform(child, identity()), errUnknownEntity)

	next, _ := s.Spawn(4, identity(), NoParent)
	assert.Greater(t, next, other)
}

func TestRemovePrimitives(t *testing.T) {
	s := NewScene("test")
	a, _ := s.Spawn(1, identity(), NoParent)
	_, _ = s.Spawn(2, identity(), a)
	_, _ = s.Spawn(2, identity(), NoParent)
	_, _ = s.Spawn(3, identity(), NoParent)
	s.Update()

	assert.Equal(t, 2, s.RemovePrimitives([]model.PrimitiveID{1}), "entity and its child")
	assert.False(t, s.Settled())
	assert.Equal(t, 0, s.RemovePrimitives([]model.PrimitiveID{9}))
	assert.Equal(t, 2, s.Len())
}

func TestSpawnAssetWalksHierarchy(t *testing.T) {
	asset := &loader.Asset{
		Name:       "crate",
		Primitives: make([]*model.Primitive, 3),
		MeshPrimitives: map[int][]int{
			0: {0, 1},
			1: {2},
		},
		Nodes: []loader.Node{
			{Name: "root", Parent: loader.NoIndex, Children: []int{1}, Mesh: 0, Local: translation(0, 1, 0)},
			{Name: "lid", Parent: 0, Mesh: 1, Local: translation(0, 0, 2)},
			{Name: "unused", Parent: loader.NoIndex, Mesh: loader.NoIndex, Local: identity()},
		},
		Scenes:       []loader.Scene{{Name: "main", Roots: []int{0}}},
		DefaultScene: 0,
	}

	s := NewScene("test")
	anchor, err := s.SpawnAsset(asset, []model.PrimitiveID{10, 11, 12}, translation(100, 0, 0))
	require.NoError(t, err)
	s.Update()

	got := collect(s)
	require.Len(t, got, 3)
	assert.Equal(t, []model.PrimitiveID{10, 11, 12}, []model.PrimitiveID{got[0].prim, got[1].prim, got[2].prim})
	assert.Equal(t, float32(100), got[0].world[12])
	assert.Equal(t, float32(1), got[0].world[13])
	assert.Equal(t, float32(2), got[2].world[14], "lid inherits the root node transform")
	assert.Equal(t, float32(1), got[2].world[13])

	n, err := s.Remove(anchor)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "anchor, two nodes and three primitives")
	assert.Zero(t, s.Len())
}

func TestSpawnAssetRejectsMismatchedIDs(t *testing.T) {
	asset := &loader.Asset{Name: "a", Primitives: make([]*model.Primitive, 2), DefaultScene: loader.NoIndex}
	_, err := NewScene("test").SpawnAsset(asset, []model.PrimitiveID{1}, identity())
	assert.ErrorIs(t, err, errAssetIDs)
}
