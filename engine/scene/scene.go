package scene

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/model"
)

// EntityID identifies an entity. IDs are assigned in ascending creation order and never reused.
type EntityID uint32

// NoParent marks a root entity.
const NoParent EntityID = math.MaxUint32

var (
	errUnknownEntity = errors.New("unknown entity")
	errAssetIDs      = errors.New("primitive id count does not match asset")
)

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name string

	// Component arenas, all indexed by EntityID.
	alive  []bool
	prims  []model.PrimitiveID
	parent []EntityID
	local  [][16]float32
	world  [][16]float32

	live    int
	settled bool
	frame   uint64
}

// Query is the read side of a Scene that the batcher consumes.
type Query interface {
	// Settled reports whether world transforms are current, i.e. Update has run since the last mutation.
	//
	// Returns:
	//   - bool: true if settled
	Settled() bool

	// Frame returns the token of the last completed Update.
	//
	// Returns:
	//   - uint64: the frame token, 0 before the first Update
	Frame() uint64

	// Each calls fn for every live entity that draws a primitive, in ascending EntityID order.
	// The world matrix is the one resolved by the last Update. fn must not mutate the scene.
	// The settled check and the walk share one read lock, so a mutation can never land between
	// them: an unsettled scene visits nothing.
	//
	// Parameters:
	//   - fn: the visitor
	//
	// Returns:
	//   - uint64: the frame token the visited transforms belong to
	//   - bool: false, with no entity visited, when the scene is not settled
	Each(fn func(id EntityID, prim model.PrimitiveID, world *[16]float32)) (uint64, bool)
}

// Scene stores entities as indices into flat component slices. Each entity carries an optional
// primitive, a local transform and an optional parent; Update resolves world transforms.
type Scene interface {
	Query

	// Name returns the name of the scene.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Spawn creates an entity. The parent must already exist, so parents always precede their children.
	//
	// Parameters:
	//   - prim: the primitive to draw, or model.InvalidPrimitiveID for a transform-only entity
	//   - local: the column-major local transform
	//   - parent: the parent entity, or NoParent
	//
	// Returns:
	//   - EntityID: the new entity
	//   - error: error if the parent does not exist
	Spawn(prim model.PrimitiveID, local [16]float32, parent EntityID) (EntityID, error)

	// SpawnAsset instantiates an asset's default scene. Each node becomes a transform entity and
	// each primitive of the node's mesh becomes a child entity, all under one anchor entity.
	//
	// Parameters:
	//   - asset: the loaded asset
	//   - ids: the store IDs of asset.Primitives, as returned by model.Store.Add
	//   - root: the anchor's local transform
	//
	// Returns:
	//   - EntityID: the anchor entity; removing it removes the whole instance
	//   - error: error if ids does not match the asset
	SpawnAsset(asset *loader.Asset, ids []model.PrimitiveID, root [16]float32) (EntityID, error)

	// SetTransform replaces an entity's local transform.
	//
	// Parameters:
	//   - id: the entity
	//   - local: the column-major local transform
	//
	// Returns:
	//   - error: error if the entity does not exist
	SetTransform(id EntityID, local [16]float32) error

	// Remove deletes an entity and all of its descendants.
	//
	// Parameters:
	//   - id: the entity
	//
	// Returns:
	//   - int: the number of entities removed
	//   - error: error if the entity does not exist
	Remove(id EntityID) (int, error)

	// RemovePrimitives deletes every entity that draws one of the given primitives, with descendants.
	//
	// Parameters:
	//   - ids: the primitives being released
	//
	// Returns:
	//   - int: the number of entities removed
	RemovePrimitives(ids []model.PrimitiveID) int

	// Update resolves world transforms, parents first, and marks the scene settled.
	//
	// Returns:
	//   - uint64: the new frame token
	Update() uint64

	// Len returns the number of live entities.
	Len() int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.RWMutex{},
		name:    name,
		settled: true,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Settled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settled
}

func (s *scene) Frame() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

func (s *scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *scene) Each(fn func(id EntityID, prim model.PrimitiveID, world *[16]float32)) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.settled {
		return s.frame, false
	}
	for i, ok := range s.alive {
		if !ok || s.prims[i] == model.InvalidPrimitiveID {
			continue
		}
		fn(EntityID(i), s.prims[i], &s.world[i])
	}
	return s.frame, true
}

func (s *scene) Spawn(prim model.PrimitiveID, local [16]float32, parent EntityID) (EntityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawn(prim, local, parent)
}

func (s *scene) spawn(prim model.PrimitiveID, local [16]float32, parent EntityID) (EntityID, error) {
	if parent != NoParent && !s.exists(parent) {
		return NoParent, fmt.Errorf("parent %d: %w", parent, errUnknownEntity)
	}
	id := EntityID(len(s.alive))
	s.alive = append(s.alive, true)
	s.prims = append(s.prims, prim)
	s.parent = append(s.parent, parent)
	s.local = append(s.local, local)
	s.world = append(s.world, local)
	s.live++
	s.settled = false
	return id, nil
}

func (s *scene) SpawnAsset(asset *loader.Asset, ids []model.PrimitiveID, root [16]float32) (EntityID, error) {
	if len(ids) != len(asset.Primitives) {
		return NoParent, fmt.Errorf("asset %s: %d ids for %d primitives: %w", asset.Name, len(ids), len(asset.Primitives), errAssetIDs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	anchor, err := s.spawn(model.InvalidPrimitiveID, root, NoParent)
	if err != nil {
		return NoParent, err
	}

	var identity [16]float32
	common.Identity(identity[:])

	var walk func(node int, parent EntityID) error
	walk = func(node int, parent EntityID) error {
		n := &asset.Nodes[node]
		e, err := s.spawn(model.InvalidPrimitiveID, n.Local, parent)
		if err != nil {
			return err
		}
		if n.Mesh != loader.NoIndex {
			for _, pos := range asset.MeshPrimitives[n.Mesh] {
				if _, err := s.spawn(ids[pos], identity, e); err != nil {
					return err
				}
			}
		}
		for _, child := range n.Children {
			if err := walk(child, e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range asset.RootNodes() {
		if err := walk(r, anchor); err != nil {
			return NoParent, err
		}
	}
	return anchor, nil
}

func (s *scene) SetTransform(id EntityID, local [16]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists(id) {
		return fmt.Errorf("entity %d: %w", id, errUnknownEntity)
	}
	s.local[id] = local
	s.settled = false
	return nil
}

func (s *scene) Remove(id EntityID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists(id) {
		return 0, fmt.Errorf("entity %d: %w", id, errUnknownEntity)
	}
	s.alive[id] = false
	removed := 1 + s.cascade(int(id)+1)
	s.live -= removed
	s.settled = false
	return removed, nil
}

func (s *scene) RemovePrimitives(ids []model.PrimitiveID) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[model.PrimitiveID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	first := -1
	for i, ok := range s.alive {
		if !ok {
			continue
		}
		if _, hit := drop[s.prims[i]]; hit {
			s.alive[i] = false
			removed++
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return 0
	}
	removed += s.cascade(first + 1)
	s.live -= removed
	s.settled = false
	return removed
}

// cascade kills every live entity from index start whose parent is dead. Children always have
// higher IDs than their parents, so a single forward scan reaches every descendant.
func (s *scene) cascade(start int) int {
	removed := 0
	for i := start; i < len(s.alive); i++ {
		if s.alive[i] && s.parent[i] != NoParent && !s.alive[s.parent[i]] {
			s.alive[i] = false
			removed++
		}
	}
	return removed
}

func (s *scene) Update() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ok := range s.alive {
		if !ok {
			continue
		}
		p := s.parent[i]
		if p == NoParent {
			s.world[i] = s.local[i]
			continue
		}
		common.Mul4(s.world[i][:], s.world[p][:], s.local[i][:])
	}
	s.settled = true
	s.frame++
	return s.frame
}

func (s *scene) exists(id EntityID) bool {
	return int(id) < len(s.alive) && s.alive[id]
}
