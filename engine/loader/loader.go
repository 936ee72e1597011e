package loader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/google/uuid"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	cache map[string]*Asset

	backend loaderBackend
	synth   model.TangentSynthesizer

	workers int
	pool    worker.DynamicWorkerPool
}

// Result is the single value delivered by LoadAsync.
type Result struct {
	Asset *Asset
	Err   error
}

// Loader turns glTF/GLB documents into Assets of built, normalized primitives.
//
// Defective primitives never fail a load: each is skipped and reported as an *AssetError in
// Asset.Warnings while the rest of the document loads. Only document-level failures (unreadable
// file, bad GLB header, malformed JSON, broken node hierarchy) are returned as errors.
//
// Loaded assets are cached by path (Load) or name (LoadBytes). A cached Asset is returned as-is,
// so callers that move its primitives into a model.Store must do so once.
type Loader interface {
	// Load imports a file, or returns the cached asset for that path.
	//
	// Parameters:
	//   - path: the file path to a .gltf or .glb file
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if the document cannot be loaded
	Load(path string) (*Asset, error)

	// LoadBytes imports an in-memory document and caches it under name.
	// GLB is detected from the magic number; external URIs are rejected.
	//
	// Parameters:
	//   - name: the cache key and fallback asset name
	//   - data: the document bytes
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if the document cannot be loaded
	LoadBytes(name string, data []byte) (*Asset, error)

	// LoadAsync runs Load on its own goroutine. The returned channel delivers exactly one Result and is then closed.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - <-chan Result: the result channel
	LoadAsync(path string) <-chan Result

	// Get retrieves a cached asset. Returns nil if not found.
	//
	// Parameters:
	//   - key: the path or name the asset was loaded under
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(key string) *Asset

	// Evict removes a cached asset so the next Load reads the file again.
	//
	// Parameters:
	//   - key: the path or name the asset was loaded under
	//
	// Returns:
	//   - *Asset: the evicted asset or nil
	Evict(key string) *Asset

	// Assets returns a copy of the cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by path or name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a glTF Loader. Without options primitives are built serially with a serial
// TangentSynthesizer.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:      &sync.RWMutex{},
		cache:   make(map[string]*Asset),
		backend: newGLTFLoaderBackend(),
		workers: 1,
	}
	for _, option := range options {
		option(l)
	}
	if l.synth == nil {
		l.synth = model.NewTangentSynthesizer()
	}
	if l.workers > 1 {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 4*l.workers, 1*time.Second)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(l.backend.Extensions(), ext) {
		return nil, fmt.Errorf("unsupported asset format: %q", ext)
	}

	doc, err := l.backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	asset := l.build(doc)
	asset.Path = path
	l.store(path, asset)
	return asset, nil
}

func (l *loader) LoadBytes(name string, data []byte) (*Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	doc, err := l.backend.LoadBytes(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	asset := l.build(doc)
	l.store(name, asset)
	return asset, nil
}

func (l *loader) LoadAsync(path string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		asset, err := l.Load(path)
		ch <- Result{Asset: asset, Err: err}
	}()
	return ch
}

func (l *loader) Get(key string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[key]
}

func (l *loader) Evict(key string) *Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.cache[key]
	delete(l.cache, key)
	return a
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.cache))
	for k, v := range l.cache {
		result[k] = v
	}
	return result
}

func (l *loader) store(key string, asset *Asset) {
	l.mu.Lock()
	l.cache[key] = asset
	l.mu.Unlock()
}

// builtPrimitive is the outcome of building one extracted slot.
type builtPrimitive struct {
	prim     *model.Primitive
	tangents []model.TangentWarning
	err      error
}

// build runs model.BuildPrimitive over every extracted slot, on the worker pool when one is
// configured, and assembles the asset in slot order.
func (l *loader) build(doc *importedDocument) *Asset {
	results := make([]builtPrimitive, len(doc.Primitives))
	l.parallel(len(doc.Primitives), func(i int) {
		slot := &doc.Primitives[i]
		if slot.Err != nil {
			results[i].err = slot.Err
			return
		}
		results[i].prim, results[i].tangents, results[i].err = model.BuildPrimitive(slot.Source, l.synth)
	})

	asset := &Asset{
		ID:             uuid.New(),
		Name:           doc.Name,
		MeshPrimitives: make(map[int][]int),
		Nodes:          doc.Nodes,
		Scenes:         doc.Scenes,
		DefaultScene:   doc.DefaultScene,
		Materials:      doc.Materials,
	}
	log := logger.With("asset", asset.Name)

	for i, r := range results {
		slot := &doc.Primitives[i]
		if r.err != nil {
			aerr := newAssetError(slot.Mesh, slot.Index, r.err)
			asset.Warnings = append(asset.Warnings, aerr)
			log.Warn("skipped primitive", "mesh", slot.Mesh, "primitive", slot.Index, "kind", aerr.Kind, "err", r.err)
			continue
		}
		if len(r.tangents) > 0 {
			asset.TangentWarnings += len(r.tangents)
			log.Warn("fallback tangents", "primitive", r.prim.Name(), "vertices", len(r.tangents))
		}
		asset.MeshPrimitives[slot.Mesh] = append(asset.MeshPrimitives[slot.Mesh], len(asset.Primitives))
		asset.Primitives = append(asset.Primitives, r.prim)
	}

	log.Debug("loaded", "id", asset.ID, "primitives", len(asset.Primitives), "skipped", len(asset.Warnings),
		"nodes", len(asset.Nodes), "materials", len(asset.Materials))
	return asset
}

// parallel runs fn for every index in [0, n), fanning out to the pool when one is configured.
// It returns after every call has finished.
func (l *loader) parallel(n int, fn func(i int)) {
	if l.pool == nil || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		idx := i
		l.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				fn(idx)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
