package renderer

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vert, frag := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	if vert == nil || frag == nil {
		return errMissingShaders
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.compile(vert)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.compile(frag)
	if err != nil {
		return err
	}
	defer fs.Release()

	layout, err := b.pipelineLayout(p.PipelineKey(), mergeBindGroupLayouts(vert.BindGroupLayoutDescriptors(), frag.BindGroupLayoutDescriptors()))
	if err != nil {
		return err
	}
	defer layout.Release()

	color := wgpu.ColorTargetState{Format: b.surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll}
	if p.BlendEnabled() {
		color.Blend = p.BlendState()
	}
	keep := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vert.EntryPoint(),
			Buffers:    vert.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: frag.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{color},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{Count: uint32(b.sampleCount), Mask: ^uint32(0)},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

// compile creates the WGSL module for s. Caller holds mu.
func (b *wgpuRendererBackendImpl) compile(s shader.Shader) (*wgpu.ShaderModule, error) {
	mod, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.Source()},
	})
	if err != nil {
		return nil, fmt.Errorf("compile shader %q: %w", s.Key(), err)
	}
	return mod, nil
}

// pipelineLayout creates one bind group layout per group index, leaving holes for groups no
// stage declares. Caller holds mu.
func (b *wgpuRendererBackendImpl) pipelineLayout(label string, groups map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	n := 0
	for g := range groups {
		n = max(n, g+1)
	}
	layouts := make([]*wgpu.BindGroupLayout, n)
	defer func() {
		for _, l := range layouts {
			if l != nil {
				l.Release()
			}
		}
	}()

	for g, desc := range groups {
		l, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("bind group layout %d: %w", g, err)
		}
		layouts[g] = l
	}

	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
}

// mergeBindGroupLayouts combines the vertex and fragment stage layouts into one descriptor per group.
// A binding declared by both stages keeps the vertex entry with the visibilities ORed; entries are
// sorted by binding.
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := maps.Clone(vertexLayouts)
	if merged == nil {
		merged = make(map[int]wgpu.BindGroupLayoutDescriptor, len(fragmentLayouts))
	}
	for g, frag := range fragmentLayouts {
		vert, ok := merged[g]
		if !ok {
			merged[g] = frag
			continue
		}
		entries := slices.Clone(vert.Entries)
		for _, fe := range frag.Entries {
			at := slices.IndexFunc(entries, func(e wgpu.BindGroupLayoutEntry) bool { return e.Binding == fe.Binding })
			if at < 0 {
				entries = append(entries, fe)
				continue
			}
			entries[at].Visibility |= fe.Visibility
		}
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int { return cmp.Compare(a.Binding, b.Binding) })
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: vert.Label, Entries: entries}
	}
	return merged
}
