package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
)

// gltfMaterialExtractor turns the document's materials into model.Material values. Base color
// textures are loaded as encoded bytes; decoding waits until the material reaches the GPU.
type gltfMaterialExtractor interface {
	// ExtractAllMaterials returns one material per document material, index for index.
	//
	// Returns:
	//   - []*model.Material: the materials
	//   - error: the first material with an invalid alpha mode or texture reference
	ExtractAllMaterials() ([]*model.Material, error)
}

type gltfMaterialExtractorImpl struct {
	parser gltfParser
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser}
}

var gltfAlphaModes = map[string]model.AlphaMode{
	"":                  model.AlphaModeOpaque,
	gltfAlphaModeOpaque: model.AlphaModeOpaque,
	gltfAlphaModeMask:   model.AlphaModeMask,
	gltfAlphaModeBlend:  model.AlphaModeBlend,
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() ([]*model.Material, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	out := make([]*model.Material, 0, len(doc.Materials))
	for i, src := range doc.Materials {
		mat, err := e.material(i, &src)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		out = append(out, mat)
	}
	return out, nil
}

func (e *gltfMaterialExtractorImpl) material(index int, src *gltfMaterial) (*model.Material, error) {
	mat := model.DefaultMaterial()
	mat.Name = common.Coalesce(src.Name, fmt.Sprintf("material%d", index))
	mat.DoubleSided = src.DoubleSided

	mode, ok := gltfAlphaModes[src.AlphaMode]
	if !ok {
		return nil, fmt.Errorf("%q: unknown alpha mode %q", mat.Name, src.AlphaMode)
	}
	mat.AlphaMode = mode
	if src.AlphaCutoff != nil {
		mat.AlphaCutoff = *src.AlphaCutoff
	}
	if src.EmissiveFactor != nil {
		mat.Emissive = *src.EmissiveFactor
	}

	pbr := src.PbrMetallicRoughness
	if pbr == nil {
		return mat, nil
	}
	if pbr.BaseColorFactor != nil {
		mat.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.BaseColorTexture != nil {
		tex, err := e.texture(pbr.BaseColorTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("%q base color texture: %w", mat.Name, err)
		}
		mat.DiffuseTexture = tex
	}
	return mat, nil
}

// texture resolves a texture index to its image. A texture without a source image yields
// nil. External images keep their resolved path and, when readable, their bytes.
func (e *gltfMaterialExtractorImpl) texture(index int) (*common.ImportedTexture, error) {
	doc := e.parser.Document()
	if index < 0 || index >= len(doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", index)
	}
	tex := doc.Textures[index]
	if tex.Source == nil {
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return nil, fmt.Errorf("texture %d: image %d out of range", index, *tex.Source)
	}
	img := doc.Images[*tex.Source]

	out := &common.ImportedTexture{Name: img.Name, MimeType: img.MimeType}
	if s := tex.Sampler; s != nil && *s >= 0 && *s < len(doc.Samplers) {
		out.SamplerData = gltfSamplerToStagingData(doc.Samplers[*s])
	}

	var err error
	switch {
	case img.BufferView != nil:
		out.Data, err = e.parser.ReadBufferView(*img.BufferView)
	case strings.HasPrefix(img.URI, "data:"):
		var mimeType string
		out.Data, mimeType, err = gltfDecodeDataURI(img.URI)
		out.MimeType = common.Coalesce(out.MimeType, mimeType)
	case img.URI != "" && e.parser.BaseDir() == "":
		err = fmt.Errorf("external image %q without a base directory", img.URI)
	case img.URI != "":
		out.Path = filepath.Join(e.parser.BaseDir(), img.URI)
		if out.Data, err = os.ReadFile(out.Path); err != nil {
			// Decode retries the path later and falls back to white, so the material still loads.
			logger.Warn("texture image unreadable", "path", out.Path, "err", err)
			out.Data, err = nil, nil
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", img.Name, err)
	}
	return out, nil
}

var (
	gltfMinFilters = map[int]struct {
		min wgpu.FilterMode
		mip wgpu.MipmapFilterMode
	}{
		gltfFilterNearest:              {wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest},
		gltfFilterLinear:               {wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest},
		gltfFilterNearestMipmapNearest: {wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest},
		gltfFilterLinearMipmapNearest:  {wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest},
		gltfFilterNearestMipmapLinear:  {wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear},
		gltfFilterLinearMipmapLinear:   {wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear},
	}
	gltfMagFilters = map[int]wgpu.FilterMode{
		gltfFilterNearest: wgpu.FilterModeNearest,
		gltfFilterLinear:  wgpu.FilterModeLinear,
	}
	gltfWrapModes = map[int]wgpu.AddressMode{
		gltfWrapClampToEdge:    wgpu.AddressModeClampToEdge,
		gltfWrapMirroredRepeat: wgpu.AddressModeMirrorRepeat,
		gltfWrapRepeat:         wgpu.AddressModeRepeat,
	}
)

// gltfSamplerToStagingData maps a glTF sampler onto the default sampler, overriding only the
// fields the sampler sets to a known value.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
func gltfSamplerToStagingData(s gltfSampler) *common.SamplerStagingData {
	out := common.DefaultSamplerStagingData()

	if s.MagFilter != nil {
		if f, ok := gltfMagFilters[*s.MagFilter]; ok {
			out.MagFilter = f
		}
	}
	if s.MinFilter != nil {
		if f, ok := gltfMinFilters[*s.MinFilter]; ok {
			out.MinFilter, out.MipmapFilter = f.min, f.mip
		}
	}
	if s.WrapS != nil {
		if m, ok := gltfWrapModes[*s.WrapS]; ok {
			out.AddressModeU = m
		}
	}
	if s.WrapT != nil {
		if m, ok := gltfWrapModes[*s.WrapT]; ok {
			out.AddressModeV = m
		}
	}
	return &out
}
