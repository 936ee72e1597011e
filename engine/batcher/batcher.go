package batcher

import (
	"errors"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/scene"
)

// ErrSceneNotSettled is returned by Build when the scene has been mutated since its last Update.
var ErrSceneNotSettled = errors.New("scene has not completed its update")

// Batch groups every instance of one primitive for a single instanced draw.
// Entities and Instances are parallel and ordered by ascending EntityID.
type Batch struct {
	PrimitiveID model.PrimitiveID
	Entities    []scene.EntityID
	Instances   []model.InstanceRecord
	// Transparent batches follow every opaque batch in Build's output.
	Transparent bool
}

// Stats summarizes the last Build.
type Stats struct {
	Frame     uint64
	Batches   int
	Instances int
}

// batcher is the implementation of the Batcher interface.
type batcher struct {
	mu *sync.RWMutex

	store model.Store

	// slots is indexed by PrimitiveID. Slot slices are truncated, never freed, so steady-state
	// frames reuse their backing arrays.
	slots []Batch
	// touched lists the slots filled this frame.
	touched []model.PrimitiveID
	out     []Batch

	stats Stats
}

// Batcher groups scene entities by primitive once per frame.
type Batcher interface {
	// Build groups the entities visited by q into batches: opaque batches ascending by PrimitiveID,
	// then transparent batches ascending by PrimitiveID. The returned slice and its batches are
	// reused by the next Build.
	//
	// Parameters:
	//   - q: a settled scene
	//
	// Returns:
	//   - []Batch: the batches for this frame
	//   - error: ErrSceneNotSettled if q has pending mutations
	Build(q scene.Query) ([]Batch, error)

	// Stats returns the counts from the last successful Build.
	//
	// Returns:
	//   - Stats: batch and instance counts
	Stats() Stats
}

var _ Batcher = &batcher{}

// NewBatcher creates a Batcher that resolves primitives through store.
//
// Parameters:
//   - store: the geometry store the scene's primitive IDs refer to
//   - options: functional options to configure the batcher
//
// Returns:
//   - Batcher: the new batcher
func NewBatcher(store model.Store, options ...BatcherBuilderOption) Batcher {
	if store == nil {
		panic("batcher: NewBatcher requires a non-nil Store")
	}
	b := &batcher{
		mu:    &sync.RWMutex{},
		store: store,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *batcher) Build(q scene.Query) ([]Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range b.touched {
		s := &b.slots[id]
		s.Entities = s.Entities[:0]
		s.Instances = s.Instances[:0]
	}
	b.touched = b.touched[:0]

	span := b.store.Span()
	if len(b.slots) < span {
		b.slots = common.GrowSlice(b.slots, span)
	}

	frame, settled := q.Each(func(id scene.EntityID, prim model.PrimitiveID, world *[16]float32) {
		if int(prim) >= len(b.slots) {
			return
		}
		s := &b.slots[prim]
		if len(s.Entities) == 0 {
			b.touched = append(b.touched, prim)
		}
		s.Entities = append(s.Entities, id)
		s.Instances = append(s.Instances, model.NewInstanceRecord(*world))
	})
	if !settled {
		b.out = b.out[:0]
		return nil, ErrSceneNotSettled
	}

	b.out = b.out[:0]
	instances := 0
	slices.Sort(b.touched)
	for pass := range 2 {
		transparent := pass == 1
		for _, id := range b.touched {
			p := b.store.Primitive(id)
			if p == nil || p.Transparent() != transparent {
				continue
			}
			s := &b.slots[id]
			s.PrimitiveID = id
			s.Transparent = transparent
			b.out = append(b.out, *s)
			instances += len(s.Instances)
		}
	}

	b.stats = Stats{Frame: frame, Batches: len(b.out), Instances: instances}
	return b.out, nil
}

func (b *batcher) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}
