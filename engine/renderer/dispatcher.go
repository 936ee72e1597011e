package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/batcher"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
)

// DeviceError reports a GPU operation that failed during dispatch. The frame it occurred in
// was aborted and nothing was presented.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error during %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// DispatchStats summarizes one dispatched frame.
type DispatchStats struct {
	DrawCalls int
	Instances int
	// Uploads counts primitives made resident during the frame.
	Uploads int
}

// resident holds the GPU resources of one primitive.
type resident struct {
	mesh     bind_group_provider.BindGroupProvider
	material material.Material
}

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	mu *sync.Mutex

	target DrawTarget
	store  model.Store

	// Pipeline keys indexed by variant, one table per pass.
	opaque [model.VariantCount]string
	blend  [model.VariantCount]string

	resident map[model.PrimitiveID]*resident

	// scratch is the marshalled instance data, reused across batches and frames.
	scratch    []byte
	bindGroups []bind_group_provider.BindGroupProvider
}

// Dispatcher turns instance batches into one instanced draw call each.
type Dispatcher interface {
	// Dispatch draws one frame. For each batch it makes the primitive's mesh and material
	// resident on first use, uploads the batch's instance records and issues a draw with the
	// pipeline selected by the primitive's presence mask.
	//
	// Parameters:
	//   - batches: the batches of a settled scene, in draw order
	//   - camera: the provider holding the camera bind group (group 0)
	//
	// Returns:
	//   - DispatchStats: counts for the frame
	//   - error: a *DeviceError if any GPU operation failed; the frame is aborted
	Dispatch(batches []batcher.Batch, camera bind_group_provider.BindGroupProvider) (DispatchStats, error)

	// PipelineKey returns the key of the pipeline drawing a variant in the given pass.
	//
	// Parameters:
	//   - v: the pipeline variant
	//   - transparent: true for the blend pass
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey(v model.Variant, transparent bool) string

	// Evict releases the GPU resources of the given primitives. Primitives that were never
	// drawn are ignored.
	//
	// Parameters:
	//   - ids: the primitives to release
	Evict(ids []model.PrimitiveID)

	// Resident returns the number of primitives with GPU resources.
	Resident() int

	// Release releases every resident primitive.
	Release()
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher drawing primitives from store onto target.
// Pipeline keys default to pipeline.VariantKey for every variant and pass.
//
// Parameters:
//   - target: the draw target, normally the Renderer
//   - store: the primitive store batches refer to
//   - options: variadic list of DispatcherBuilderOption functions to configure the dispatcher
//
// Returns:
//   - Dispatcher: the dispatcher
func NewDispatcher(target DrawTarget, store model.Store, options ...DispatcherBuilderOption) Dispatcher {
	if target == nil {
		panic("dispatcher requires a draw target")
	}
	if store == nil {
		panic("dispatcher requires a primitive store")
	}
	d := &dispatcher{
		mu:         &sync.Mutex{},
		target:     target,
		store:      store,
		resident:   make(map[model.PrimitiveID]*resident),
		bindGroups: make([]bind_group_provider.BindGroupProvider, shader.MaterialGroup+1),
	}
	for v := range model.VariantCount {
		d.opaque[v] = pipeline.VariantKey(v, false)
		d.blend[v] = pipeline.VariantKey(v, true)
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *dispatcher) PipelineKey(v model.Variant, transparent bool) string {
	if transparent {
		return d.blend[v]
	}
	return d.opaque[v]
}

func (d *dispatcher) Dispatch(batches []batcher.Batch, camera bind_group_provider.BindGroupProvider) (DispatchStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var stats DispatchStats
	if err := d.target.BeginFrame(); err != nil {
		return stats, &DeviceError{Op: "begin frame", Err: err}
	}

	for i := range batches {
		b := &batches[i]
		if len(b.Entities) != len(b.Instances) {
			d.target.AbortFrame()
			panic(fmt.Sprintf("batch for primitive %d has %d entities and %d instances", b.PrimitiveID, len(b.Entities), len(b.Instances)))
		}
		if len(b.Instances) == 0 {
			continue
		}

		prim := d.store.Primitive(b.PrimitiveID)
		if prim == nil {
			// Removed between Build and Dispatch; the next Build drops it.
			continue
		}
		mask := prim.Mask()
		if !mask.Has(model.PresencePosition) {
			d.target.AbortFrame()
			panic(fmt.Sprintf("primitive %d (%s) has mask %s without POSITION", prim.ID(), prim.Name(), mask))
		}

		r, uploaded, err := d.residentFor(prim)
		if err != nil {
			d.target.AbortFrame()
			return stats, err
		}
		if uploaded {
			stats.Uploads++
		}

		d.scratch = model.MarshalInstances(d.scratch, b.Instances)
		if err := d.target.WriteInstances(r.mesh, d.scratch); err != nil {
			d.target.AbortFrame()
			return stats, &DeviceError{Op: "write instances", Err: err}
		}

		d.bindGroups[shader.CameraGroup] = camera
		d.bindGroups[shader.MaterialGroup] = r.material.BindGroupProvider()
		key := d.PipelineKey(mask.Variant(), b.Transparent)
		if err := d.target.DrawCall(key, r.mesh, uint32(len(b.Instances)), d.bindGroups); err != nil {
			d.target.AbortFrame()
			return stats, &DeviceError{Op: "draw " + key, Err: err}
		}
		stats.DrawCalls++
		stats.Instances += len(b.Instances)
	}

	if err := d.target.EndFrame(); err != nil {
		d.target.AbortFrame()
		return stats, &DeviceError{Op: "end frame", Err: err}
	}
	return stats, nil
}

// residentFor returns the GPU resources of prim, uploading them on first use.
func (d *dispatcher) residentFor(prim *model.Primitive) (*resident, bool, error) {
	if r, ok := d.resident[prim.ID()]; ok {
		return r, false, nil
	}

	label := fmt.Sprintf("%s#%d", prim.Name(), prim.ID())
	mesh := bind_group_provider.NewBindGroupProvider(label)
	if err := d.target.InitMeshBuffers(mesh, prim.VertexBytes(), prim.IndexBytes(), prim.IndexCount(), prim.IndexFormat()); err != nil {
		mesh.Release()
		return nil, false, &DeviceError{Op: "upload mesh " + label, Err: err}
	}

	mat := material.NewMaterial(prim.Material(), prim.Mask(), material.WithLabel(label+" material"))
	if err := d.initMaterial(mat); err != nil {
		mesh.Release()
		mat.BindGroupProvider().Release()
		return nil, false, &DeviceError{Op: "upload material " + label, Err: err}
	}

	r := &resident{mesh: mesh, material: mat}
	d.resident[prim.ID()] = r
	logger.Debug("primitive resident", "primitive", prim.ID(), "name", prim.Name(), "mask", prim.Mask(), "variant", prim.Mask().Variant())
	return r, true, nil
}

func (d *dispatcher) initMaterial(mat material.Material) error {
	provider := mat.BindGroupProvider()
	if err := d.target.InitTextureView(provider, shader.DiffuseTextureBinding, mat.TextureStagingData()); err != nil {
		return err
	}
	if err := d.target.InitSampler(provider, shader.DiffuseSamplerBinding, mat.SamplerStagingData()); err != nil {
		return err
	}
	if err := d.target.InitBindGroup(provider, shader.MaterialLayout()); err != nil {
		return err
	}
	params := mat.Params()
	return d.target.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: provider,
		Binding:  shader.MaterialParamsBinding,
		Data:     params.Marshal(),
	}})
}

func (d *dispatcher) Evict(ids []model.PrimitiveID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		r, ok := d.resident[id]
		if !ok {
			continue
		}
		r.mesh.Release()
		r.material.BindGroupProvider().Release()
		delete(d.resident, id)
	}
}

func (d *dispatcher) Resident() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.resident)
}

func (d *dispatcher) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, r := range d.resident {
		r.mesh.Release()
		r.material.BindGroupProvider().Release()
		delete(d.resident, id)
	}
}
