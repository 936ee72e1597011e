package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/google/uuid"
)

var errAssetInUse = errors.New("asset is already instanced under another key")

// instance is one spawned copy of a loaded asset.
type instance struct {
	asset  uuid.UUID
	key    string
	anchor scene.EntityID
	root   [16]float32
}

// assetSet moves loaded assets into the primitive store and scene, and swaps them out again on reload.
// evict releases the GPU resources of primitives that left the store.
type assetSet struct {
	mu *sync.Mutex

	store model.Store
	scene scene.Scene
	evict func(ids []model.PrimitiveID)

	byKey map[string]*instance
}

func newAssetSet(store model.Store, s scene.Scene, evict func(ids []model.PrimitiveID)) *assetSet {
	return &assetSet{
		mu:    &sync.Mutex{},
		store: store,
		scene: s,
		evict: evict,
		byKey: make(map[string]*instance),
	}
}

// add stores the asset's primitives and spawns its default scene under root.
// An asset already present under the same key is replaced.
func (a *assetSet) add(key string, asset *loader.Asset, root [16]float32) (scene.EntityID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.byKey[key]; ok {
		if old.asset == asset.ID {
			return old.anchor, nil
		}
		a.drop(old)
	}
	if a.store.AssetPrimitives(asset.ID) != nil {
		return scene.NoParent, fmt.Errorf("%s: %w", asset.Name, errAssetInUse)
	}

	ids := a.store.Add(asset.ID, asset.Primitives)
	anchor, err := a.scene.SpawnAsset(asset, ids, root)
	if err != nil {
		a.store.Remove(asset.ID)
		return scene.NoParent, fmt.Errorf("failed to spawn %s: %w", asset.Name, err)
	}
	a.byKey[key] = &instance{asset: asset.ID, key: key, anchor: anchor, root: root}
	return anchor, nil
}

// replace swaps the instance under key for asset, keeping its root transform.
func (a *assetSet) replace(key string, asset *loader.Asset) (scene.EntityID, error) {
	root := identity()
	a.mu.Lock()
	if old, ok := a.byKey[key]; ok {
		root = old.root
	}
	a.mu.Unlock()
	return a.add(key, asset, root)
}

// remove drops the instance under key. It reports whether one existed.
func (a *assetSet) remove(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.byKey[key]
	if ok {
		a.drop(old)
	}
	return ok
}

func (a *assetSet) drop(old *instance) {
	ids := a.store.Remove(old.asset)
	if _, err := a.scene.Remove(old.anchor); err != nil {
		// The anchor is gone but stray entities may still reference the primitives.
		a.scene.RemovePrimitives(ids)
	}
	if a.evict != nil && len(ids) > 0 {
		a.evict(ids)
	}
	delete(a.byKey, old.key)
}

func (a *assetSet) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.byKey))
	for k := range a.byKey {
		out = append(out, k)
	}
	return out
}
