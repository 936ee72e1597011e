package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProvider is a container for GPU objects the Renderer creates on someone else's
// behalf. A provider backs either a bind group (camera, material) or a drawable mesh
// (vertex, index and instance buffers); the owner only ever holds the provider and passes it
// back to the Renderer for writes and draws.
type BindGroupProvider interface {
	// Label is the debug label given to every GPU object created for this provider.
	Label() string

	// Release frees every GPU object the provider holds. The provider can be refilled afterwards.
	Release()

	// Bind group resources, keyed by binding index. Getters return nil until the Renderer
	// has created the object.

	BindGroup() *wgpu.BindGroup
	BindGroupLayout() *wgpu.BindGroupLayout
	Buffer(binding int) *wgpu.Buffer
	TextureView(binding int) *wgpu.TextureView
	Sampler(binding int) *wgpu.Sampler

	SetBindGroup(bg *wgpu.BindGroup)
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)
	SetBuffer(binding int, buf *wgpu.Buffer)
	SetTextureView(binding int, tv *wgpu.TextureView)
	SetSampler(binding int, s *wgpu.Sampler)

	// Mesh resources.

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int
	// IndexFormat defaults to Uint32 until SetMesh says otherwise.
	IndexFormat() wgpu.IndexFormat
	// InstanceBuffer is nil until the first instance write.
	InstanceBuffer() *wgpu.Buffer
	// InstanceCapacity is the instance buffer size in bytes.
	InstanceCapacity() uint64

	// SetMesh records the buffers for an indexed draw of indexCount indices.
	//
	// Parameters:
	//   - vertexBuffer: interleaved vertices, bound at slot 0
	//   - indexBuffer: indices in indexFormat
	//   - indexCount: indices per instance
	//   - indexFormat: Uint16 or Uint32
	SetMesh(vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int, indexFormat wgpu.IndexFormat)

	// SetInstanceBuffer swaps in a new instance buffer of capacity bytes and releases the old one.
	SetInstanceBuffer(buf *wgpu.Buffer, capacity uint64)
}

type mesh struct {
	vertices, indices *wgpu.Buffer
	indexCount        int
	indexFormat       wgpu.IndexFormat

	instances        *wgpu.Buffer
	instanceCapacity uint64
}

type bindGroupProvider struct {
	label string

	bindGroup    *wgpu.BindGroup
	layout       *wgpu.BindGroupLayout
	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler

	mesh mesh
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider returns an empty provider whose GPU objects will carry label.
func NewBindGroupProvider(label string) BindGroupProvider {
	return &bindGroupProvider{
		label:        label,
		buffers:      map[int]*wgpu.Buffer{},
		textureViews: map[int]*wgpu.TextureView{},
		samplers:     map[int]*wgpu.Sampler{},
		mesh:         mesh{indexFormat: wgpu.IndexFormatUint32},
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.layout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.layout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.mesh.vertices
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.mesh.indices
}

func (p *bindGroupProvider) IndexCount() int {
	return p.mesh.indexCount
}

func (p *bindGroupProvider) IndexFormat() wgpu.IndexFormat {
	return p.mesh.indexFormat
}

func (p *bindGroupProvider) InstanceBuffer() *wgpu.Buffer {
	return p.mesh.instances
}

func (p *bindGroupProvider) InstanceCapacity() uint64 {
	return p.mesh.instanceCapacity
}

func (p *bindGroupProvider) SetMesh(vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int, indexFormat wgpu.IndexFormat) {
	p.mesh.vertices, p.mesh.indices = vertexBuffer, indexBuffer
	p.mesh.indexCount, p.mesh.indexFormat = indexCount, indexFormat
}

func (p *bindGroupProvider) SetInstanceBuffer(buf *wgpu.Buffer, capacity uint64) {
	if old := p.mesh.instances; old != nil && old != buf {
		old.Release()
	}
	p.mesh.instances, p.mesh.instanceCapacity = buf, capacity
}

type releaser interface {
	comparable
	Release()
}

func release[T releaser](obj *T) {
	var none T
	if *obj != none {
		(*obj).Release()
	}
	*obj = none
}

func releaseAll[T releaser](objs map[int]T) {
	for binding, obj := range objs {
		release(&obj)
		delete(objs, binding)
	}
}

func (p *bindGroupProvider) Release() {
	releaseAll(p.textureViews)
	releaseAll(p.samplers)
	releaseAll(p.buffers)
	release(&p.bindGroup)
	release(&p.layout)

	release(&p.mesh.vertices)
	release(&p.mesh.indices)
	release(&p.mesh.instances)
	p.mesh.instanceCapacity = 0
}
