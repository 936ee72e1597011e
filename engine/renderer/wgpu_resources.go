package renderer

import (
	"fmt"
	"math/bits"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// minInstanceBufferSize is the smallest instance buffer allocated, in bytes.
const minInstanceBufferSize = 16 * model.InstanceStride

// instanceBufferSize rounds n bytes up to a power of two, so growth is amortized.
func instanceBufferSize(n int) uint64 {
	if n <= minInstanceBufferSize {
		return minInstanceBufferSize
	}
	return 1 << bits.Len64(uint64(n-1))
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int, indexFormat wgpu.IndexFormat) error {
	if len(vertexData) == 0 || len(indexData) == 0 {
		return fmt.Errorf("mesh %s: empty vertex or index data", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertices, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    provider.Label() + " vertices",
		Contents: vertexData,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}
	indices, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    provider.Label() + " indices",
		Contents: indexData,
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertices.Release()
		return err
	}

	provider.SetMesh(vertices, indices, indexCount, indexFormat)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteInstances(provider bind_group_provider.BindGroupProvider, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if provider.InstanceBuffer() == nil || provider.InstanceCapacity() < uint64(len(data)) {
		size := instanceBufferSize(len(data))
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " instances",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		provider.SetInstanceBuffer(buf, size)
	}
	return b.queue.WriteBuffer(provider.InstanceBuffer(), 0, data)
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if provider.BindGroupLayout() == nil {
		layout, err := b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, le := range descriptor.Entries {
		entry, err := b.bindGroupEntry(provider, le)
		if err != nil {
			return fmt.Errorf("%s: %w", provider.Label(), err)
		}
		entries = append(entries, entry)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  provider.BindGroupLayout(),
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

// bindGroupEntry resolves one layout entry against provider. Textures and samplers must
// already be set; buffers are created on demand. Caller holds mu.
func (b *wgpuRendererBackendImpl) bindGroupEntry(provider bind_group_provider.BindGroupProvider, le wgpu.BindGroupLayoutEntry) (wgpu.BindGroupEntry, error) {
	binding := int(le.Binding)
	entry := wgpu.BindGroupEntry{Binding: le.Binding}

	switch {
	case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		entry.TextureView = provider.TextureView(binding)
		if entry.TextureView == nil {
			return entry, fmt.Errorf("binding %d: texture view not initialized", binding)
		}
	case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		entry.Sampler = provider.Sampler(binding)
		if entry.Sampler == nil {
			return entry, fmt.Errorf("binding %d: sampler not initialized", binding)
		}
	default:
		buf := provider.Buffer(binding)
		if buf == nil {
			usage := wgpu.BufferUsageStorage
			if le.Buffer.Type == wgpu.BufferBindingTypeUniform {
				usage = wgpu.BufferUsageUniform
			}
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  le.Buffer.MinBindingSize,
				Usage: usage | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return entry, err
			}
			provider.SetBuffer(binding, buf)
		}
		entry.Buffer, entry.Size = buf, wgpu.WholeSize
	}
	return entry, nil
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := wgpu.Extent3D{Width: stagingData.Width, Height: stagingData.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: 4 * stagingData.Width, RowsPerImage: stagingData.Height},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTextureView(bindingKey, view)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	def := common.DefaultSamplerStagingData()
	s := samplerStagingData

	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, def.AddressModeU),
		AddressModeV:  common.Coalesce(s.AddressModeV, def.AddressModeV),
		AddressModeW:  common.Coalesce(s.AddressModeW, def.AddressModeW),
		MagFilter:     common.Coalesce(s.MagFilter, def.MagFilter),
		MinFilter:     common.Coalesce(s.MinFilter, def.MinFilter),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, def.MipmapFilter),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, def.LodMaxClamp),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, def.MaxAnisotropy),
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		err := errMissingBuffer
		if buf != nil {
			err = b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
		if err != nil {
			return fmt.Errorf("%s binding %d: %w", w.Provider.Label(), w.Binding, err)
		}
	}
	return nil
}
