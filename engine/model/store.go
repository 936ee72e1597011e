package model

import (
	"sync"

	"github.com/google/uuid"
)

// storeImpl is the implementation of the Store interface.
type storeImpl struct {
	mu *sync.RWMutex

	// primitives is indexed by PrimitiveID; removed slots stay nil and are never reused.
	primitives []*Primitive
	byAsset    map[uuid.UUID][]PrimitiveID
	live       int
}

// Store exclusively owns loaded geometry. Primitives enter once, frozen, and leave only when
// their whole asset is removed. Everything else refers to geometry by PrimitiveID.
type Store interface {
	// Add takes ownership of the primitives of one asset and assigns them ascending IDs in slice order.
	// It panics if a primitive was already stored.
	//
	// Parameters:
	//   - asset: the owning asset's identifier
	//   - primitives: the primitives to store
	//
	// Returns:
	//   - []PrimitiveID: the assigned IDs, parallel to primitives
	Add(asset uuid.UUID, primitives []*Primitive) []PrimitiveID

	// Primitive returns the primitive with the given ID, or nil if it does not exist.
	//
	// Parameters:
	//   - id: the primitive ID
	//
	// Returns:
	//   - *Primitive: the primitive or nil
	Primitive(id PrimitiveID) *Primitive

	// AssetPrimitives returns the IDs owned by an asset, in ascending order.
	//
	// Parameters:
	//   - asset: the asset identifier
	//
	// Returns:
	//   - []PrimitiveID: the asset's primitive IDs, or nil for an unknown asset
	AssetPrimitives(asset uuid.UUID) []PrimitiveID

	// Remove drops an asset and all of its primitives.
	//
	// Parameters:
	//   - asset: the asset identifier
	//
	// Returns:
	//   - []PrimitiveID: the IDs that were released
	Remove(asset uuid.UUID) []PrimitiveID

	// Len returns the number of live primitives.
	Len() int

	// Span returns one past the highest ID ever assigned. Slices indexed by PrimitiveID need this length.
	Span() int
}

var _ Store = &storeImpl{}

// NewStore creates an empty Store.
//
// Returns:
//   - Store: the new store
func NewStore() Store {
	return &storeImpl{
		mu:      &sync.RWMutex{},
		byAsset: make(map[uuid.UUID][]PrimitiveID),
	}
}

func (s *storeImpl) Add(asset uuid.UUID, primitives []*Primitive) []PrimitiveID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]PrimitiveID, len(primitives))
	for i, p := range primitives {
		if p.id != InvalidPrimitiveID {
			panic("model: primitive added to a store twice")
		}
		p.id = PrimitiveID(len(s.primitives))
		s.primitives = append(s.primitives, p)
		ids[i] = p.id
	}
	s.byAsset[asset] = append(s.byAsset[asset], ids...)
	s.live += len(primitives)
	return ids
}

func (s *storeImpl) Primitive(id PrimitiveID) *Primitive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.primitives) {
		return nil
	}
	return s.primitives[id]
}

func (s *storeImpl) AssetPrimitives(asset uuid.UUID) []PrimitiveID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byAsset[asset]
	if ids == nil {
		return nil
	}
	out := make([]PrimitiveID, len(ids))
	copy(out, ids)
	return out
}

func (s *storeImpl) Remove(asset uuid.UUID) []PrimitiveID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byAsset[asset]
	for _, id := range ids {
		s.primitives[id] = nil
	}
	delete(s.byAsset, asset)
	s.live -= len(ids)
	return ids
}

func (s *storeImpl) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *storeImpl) Span() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.primitives)
}
