package renderer

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/batcher"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedDraw struct {
	key        string
	mesh       bind_group_provider.BindGroupProvider
	instances  uint32
	bindGroups []bind_group_provider.BindGroupProvider
}

// fakeTarget records every call the dispatcher makes instead of touching a GPU.
type fakeTarget struct {
	meshUploads   int
	indexFormats  []wgpu.IndexFormat
	textures      int
	samplers      int
	bindGroupInit int
	writes        []bind_group_provider.BufferWrite
	instanceData  [][]byte
	draws         []recordedDraw

	begun, ended, aborted int

	failBegin error
	failDraw  error
}

func (f *fakeTarget) InitMeshBuffers(_ bind_group_provider.BindGroupProvider, _, _ []byte, _ int, format wgpu.IndexFormat) error {
	f.meshUploads++
	f.indexFormats = append(f.indexFormats, format)
	return nil
}

func (f *fakeTarget) WriteInstances(_ bind_group_provider.BindGroupProvider, data []byte) error {
	f.instanceData = append(f.instanceData, append([]byte(nil), data...))
	return nil
}

func (f *fakeTarget) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor) error {
	f.bindGroupInit++
	return nil
}

func (f *fakeTarget) InitTextureView(bind_group_provider.BindGroupProvider, int, common.TextureStagingData) error {
	f.textures++
	return nil
}

func (f *fakeTarget) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	f.samplers++
	return nil
}

func (f *fakeTarget) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	f.writes = append(f.writes, writes...)
	return nil
}

func (f *fakeTarget) BeginFrame() error {
	if f.failBegin != nil {
		return f.failBegin
	}
	f.begun++
	return nil
}

func (f *fakeTarget) DrawCall(key string, mesh bind_group_provider.BindGroupProvider, instances uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	if f.failDraw != nil {
		return f.failDraw
	}
	f.draws = append(f.draws, recordedDraw{key, mesh, instances, append([]bind_group_provider.BindGroupProvider(nil), bindGroups...)})
	return nil
}

func (f *fakeTarget) EndFrame() error {
	f.ended++
	return nil
}

func (f *fakeTarget) AbortFrame() {
	f.aborted++
}

var triangle = [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

func store(t *testing.T, attrs ...model.RawAttributes) (model.Store, []model.PrimitiveID) {
	t.Helper()
	prims := make([]*model.Primitive, len(attrs))
	for i, a := range attrs {
		p, _, err := model.BuildPrimitive(model.PrimitiveSource{Name: "prim", Attributes: a}, nil)
		require.NoError(t, err)
		prims[i] = p
	}
	s := model.NewStore()
	return s, s.Add(uuid.New(), prims)
}

func colored() model.RawAttributes {
	return model.RawAttributes{
		Positions: triangle,
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Colors:    [][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}},
	}
}

func textured() model.RawAttributes {
	return model.RawAttributes{
		Positions:  triangle,
		TexCoords0: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
	}
}

func batch(id model.PrimitiveID, n int, transparent bool) batcher.Batch {
	b := batcher.Batch{PrimitiveID: id, Transparent: transparent}
	for i := range n {
		var m [16]float32
		common.Identity(m[:])
		m[12] = float32(i)
		b.Entities = append(b.Entities, scene.EntityID(i))
		b.Instances = append(b.Instances, model.NewInstanceRecord(m))
	}
	return b
}

func TestDispatchSelectsReducedPipelineForColoredGeometry(t *testing.T) {
	s, ids := store(t, colored())
	require.Equal(t, model.PresenceMask(0x83), s.Primitive(ids[0]).Mask())

	target := &fakeTarget{}
	camera := bind_group_provider.NewBindGroupProvider("camera")
	stats, err := NewDispatcher(target, s).Dispatch([]batcher.Batch{batch(ids[0], 1, false)}, camera)
	require.NoError(t, err)

	require.Len(t, target.draws, 1)
	assert.Equal(t, "reduced_opaque", target.draws[0].key)
	require.Len(t, target.draws[0].bindGroups, 2)
	assert.Same(t, camera, target.draws[0].bindGroups[shader.CameraGroup])
	assert.Equal(t, DispatchStats{DrawCalls: 1, Instances: 1, Uploads: 1}, stats)
	assert.Equal(t, 1, target.begun)
	assert.Equal(t, 1, target.ended)
	assert.Zero(t, target.aborted)
}

func TestDispatchSelectsFullPipelinePerPass(t *testing.T) {
	s, ids := store(t, textured(), textured())
	target := &fakeTarget{}
	d := NewDispatcher(target, s)

	_, err := d.Dispatch([]batcher.Batch{batch(ids[0], 1, false), batch(ids[1], 1, true)}, bind_group_provider.NewBindGroupProvider("camera"))
	require.NoError(t, err)

	require.Len(t, target.draws, 2)
	assert.Equal(t, "full_opaque", target.draws[0].key)
	assert.Equal(t, "full_blend", target.draws[1].key)
	assert.Equal(t, d.PipelineKey(model.VariantFull, true), target.draws[1].key)
}

func TestDispatchPipelineKeyOverride(t *testing.T) {
	s, ids := store(t, colored())
	target := &fakeTarget{}
	d := NewDispatcher(target, s, WithPipelineKey(model.VariantReduced, false, "wireframe"))

	_, err := d.Dispatch([]batcher.Batch{batch(ids[0], 1, false)}, bind_group_provider.NewBindGroupProvider("camera"))
	require.NoError(t, err)
	assert.Equal(t, "wireframe", target.draws[0].key)
}

func TestDispatchUploadsPrimitiveOnce(t *testing.T) {
	s, ids := store(t, colored())
	target := &fakeTarget{}
	d := NewDispatcher(target, s)
	camera := bind_group_provider.NewBindGroupProvider("camera")
	batches := []batcher.Batch{batch(ids[0], 2, false)}

	first, err := d.Dispatch(batches, camera)
	require.NoError(t, err)
	second, err := d.Dispatch(batches, camera)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Uploads)
	assert.Zero(t, second.Uploads)
	assert.Equal(t, 1, target.meshUploads)
	assert.Equal(t, []wgpu.IndexFormat{wgpu.IndexFormatUint16}, target.indexFormats)
	assert.Equal(t, 1, target.textures)
	assert.Equal(t, 1, target.samplers)
	assert.Equal(t, 1, target.bindGroupInit)
	assert.Equal(t, 1, d.Resident())
	assert.Same(t, target.draws[0].mesh, target.draws[1].mesh)

	require.Len(t, target.writes, 1)
	w := target.writes[0]
	assert.Equal(t, shader.MaterialParamsBinding, w.Binding)
	require.Len(t, w.Data, 32)
	assert.Equal(t, uint32(0x83), binary.LittleEndian.Uint32(w.Data[16:]), "material uniform carries the presence mask")
}

func TestDispatchDrawsEveryInstance(t *testing.T) {
	s, ids := store(t, colored())
	target := &fakeTarget{}

	stats, err := NewDispatcher(target, s).Dispatch([]batcher.Batch{batch(ids[0], 3, false)}, bind_group_provider.NewBindGroupProvider("camera"))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), target.draws[0].instances)
	require.Len(t, target.instanceData, 1)
	assert.Len(t, target.instanceData[0], 3*model.InstanceStride)
	assert.Equal(t, 3, stats.Instances)
}

func TestDispatchSkipsMissingAndEmptyBatches(t *testing.T) {
	s, ids := store(t, colored())
	target := &fakeTarget{}

	stats, err := NewDispatcher(target, s).Dispatch([]batcher.Batch{
		batch(ids[0]+100, 2, false),
		{PrimitiveID: ids[0]},
	}, bind_group_provider.NewBindGroupProvider("camera"))
	require.NoError(t, err)
	assert.Empty(t, target.draws)
	assert.Zero(t, stats.DrawCalls)
	assert.Equal(t, 1, target.ended)
}

func TestDispatchAbortsFrameOnDeviceError(t *testing.T) {
	s, ids := store(t, colored())
	lost := errors.New("device lost")
	target := &fakeTarget{failDraw: lost}

	_, err := NewDispatcher(target, s).Dispatch([]batcher.Batch{batch(ids[0], 1, false)}, bind_group_provider.NewBindGroupProvider("camera"))
	require.Error(t, err)

	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, 1, target.aborted)
	assert.Zero(t, target.ended)
}

func TestDispatchBeginFrameFailure(t *testing.T) {
	s, _ := store(t, colored())
	target := &fakeTarget{failBegin: errors.New("surface outdated")}

	_, err := NewDispatcher(target, s).Dispatch(nil, bind_group_provider.NewBindGroupProvider("camera"))
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, "begin frame", devErr.Op)
	assert.Zero(t, target.aborted)
}

func TestDispatchPanicsOnMismatchedBatch(t *testing.T) {
	s, ids := store(t, colored())
	target := &fakeTarget{}
	b := batch(ids[0], 2, false)
	b.Entities = b.Entities[:1]

	assert.Panics(t, func() {
		_, _ = NewDispatcher(target, s).Dispatch([]batcher.Batch{b}, bind_group_provider.NewBindGroupProvider("camera"))
	})
	assert.Equal(t, 1, target.aborted)
}

func TestEvictReleasesResidency(t *testing.T) {
	s, ids := store(t, colored(), textured())
	target := &fakeTarget{}
	d := NewDispatcher(target, s)
	camera := bind_group_provider.NewBindGroupProvider("camera")
	batches := []batcher.Batch{batch(ids[0], 1, false), batch(ids[1], 1, false)}

	_, err := d.Dispatch(batches, camera)
	require.NoError(t, err)
	require.Equal(t, 2, d.Resident())

	d.Evict([]model.PrimitiveID{ids[0], 999})
	assert.Equal(t, 1, d.Resident())

	stats, err := d.Dispatch(batches, camera)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Uploads, "evicted primitive is uploaded again")

	d.Release()
	assert.Zero(t, d.Resident())
}

func TestNewDispatcherPanicsWithoutCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil, model.NewStore()) })
	assert.Panics(t, func() { NewDispatcher(&fakeTarget{}, nil) })
}
