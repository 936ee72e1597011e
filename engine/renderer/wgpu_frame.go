package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Still holding a surface texture means the last frame was neither presented nor aborted.
	if b.frame.surface != nil {
		return errFrameHeld
	}

	surfaceTex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	b.frame.surface = surfaceTex

	if b.frame.view, err = surfaceTex.CreateView(nil); err != nil {
		b.dropFrame()
		return err
	}
	if b.frame.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		b.dropFrame()
		return err
	}

	color := &b.targets.passDescriptor.ColorAttachments[0]
	if b.targets.resolveIntoFrame {
		color.ResolveTarget = b.frame.view
	} else {
		color.View = b.frame.view
	}
	b.frame.pass = b.frame.encoder.BeginRenderPass(b.targets.passDescriptor)
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pass := b.frame.pass
	if pass == nil {
		return errNoFrame
	}
	rp := p.RenderPipeline()
	if rp == nil {
		return fmt.Errorf("pipeline %q was never registered", p.PipelineKey())
	}

	pass.SetPipeline(rp)
	for group, bg := range bindGroups {
		pass.SetBindGroup(uint32(group), bg.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, meshProvider.InstanceBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(meshProvider.IndexBuffer(), meshProvider.IndexFormat(), 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.pass == nil {
		return errNoFrame
	}
	b.frame.pass.End()
	// The pass is released before Finish.
	b.frame.pass.Release()
	b.frame.pass = nil

	cmd, err := b.frame.encoder.Finish(nil)
	if err != nil {
		b.dropFrame()
		return err
	}
	defer cmd.Release()
	b.queue.Submit(cmd)

	b.frame.encoder.Release()
	b.frame.encoder = nil
	return nil
}

func (b *wgpuRendererBackendImpl) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.pass != nil {
		b.frame.pass.End()
	}
	b.dropFrame()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.surface == nil {
		return
	}
	b.surface.Present()
	b.dropFrame()
}

// dropFrame releases whatever per-frame objects exist. Caller holds mu.
func (b *wgpuRendererBackendImpl) dropFrame() {
	f := b.frame
	b.frame = frame{}

	if f.pass != nil {
		f.pass.Release()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.surface != nil {
		f.surface.Release()
	}
}
