package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// gltfPrimitiveExtractorImpl is the implementation of the gltfPrimitiveExtractor interface.
type gltfPrimitiveExtractorImpl struct {
	parser gltfParser
}

// gltfPrimitiveExtractor reads the attribute streams and index buffer of glTF mesh primitives
// into model.PrimitiveSource values. It performs no normalization; that is model.BuildPrimitive's job.
type gltfPrimitiveExtractor interface {
	// ExtractPrimitive reads one primitive.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//   - primIndex: the index of the primitive within the mesh
	//   - materials: the asset's extracted materials, indexed like the document's
	//
	// Returns:
	//   - model.PrimitiveSource: the authored streams, indices and resolved material
	//   - error: model.ErrMissingRequiredAttribute or ErrMalformedPrimitive, wrapped with detail
	ExtractPrimitive(meshIndex, primIndex int, materials []*model.Material) (model.PrimitiveSource, error)
}

var _ gltfPrimitiveExtractor = &gltfPrimitiveExtractorImpl{}

// newGLTFPrimitiveExtractor creates a new primitive extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfPrimitiveExtractor: the primitive extractor
func newGLTFPrimitiveExtractor(parser gltfParser) gltfPrimitiveExtractor {
	return &gltfPrimitiveExtractorImpl{parser: parser}
}

func (e *gltfPrimitiveExtractorImpl) ExtractPrimitive(meshIndex, primIndex int, materials []*model.Material) (model.PrimitiveSource, error) {
	doc := e.parser.Document()
	if doc == nil {
		return model.PrimitiveSource{}, errNoDocument
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return model.PrimitiveSource{}, fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	mesh := &doc.Meshes[meshIndex]
	if primIndex < 0 || primIndex >= len(mesh.Primitives) {
		return model.PrimitiveSource{}, fmt.Errorf("primitive index %d out of range", primIndex)
	}
	prim := &mesh.Primitives[primIndex]

	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return model.PrimitiveSource{}, fmt.Errorf("topology %s: %w", gltfPrimitiveModeName(*prim.Mode), ErrMalformedPrimitive)
	}

	src := model.PrimitiveSource{
		Name:  gltfPrimitiveName(mesh.Name, meshIndex, primIndex),
		Mesh:  meshIndex,
		Index: primIndex,
	}

	posAccessor, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return model.PrimitiveSource{}, model.ErrMissingRequiredAttribute
	}

	var err error
	attrs := &src.Attributes
	if attrs.Positions, err = e.parser.ReadVec3Accessor(posAccessor); err != nil {
		return model.PrimitiveSource{}, attributeError(gltfAttrPosition, err)
	}
	if len(attrs.Positions) == 0 {
		return model.PrimitiveSource{}, model.ErrMissingRequiredAttribute
	}

	if idx, ok := prim.Attributes[gltfAttrNormal]; ok {
		if attrs.Normals, err = e.parser.ReadVec3Accessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrNormal, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrTexCoord0]; ok {
		if attrs.TexCoords0, err = e.parser.ReadVec2Accessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrTexCoord0, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrTexCoord1]; ok {
		if attrs.TexCoords1, err = e.parser.ReadVec2Accessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrTexCoord1, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrTangent]; ok {
		if attrs.Tangents, err = e.parser.ReadVec4Accessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrTangent, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrWeights0]; ok {
		if attrs.Weights, err = e.parser.ReadVec4Accessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrWeights0, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrJoints0]; ok {
		if attrs.Joints, err = e.parser.ReadJointsAccessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrJoints0, err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttrColor0]; ok {
		if attrs.Colors, err = e.parser.ReadColorAccessor(idx); err != nil {
			return model.PrimitiveSource{}, attributeError(gltfAttrColor0, err)
		}
	}

	if prim.Indices != nil {
		if src.Indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return model.PrimitiveSource{}, attributeError("indices", err)
		}
	}

	if prim.Material != nil {
		m := *prim.Material
		if m < 0 || m >= len(materials) || materials[m] == nil {
			return model.PrimitiveSource{}, fmt.Errorf("material index %d out of range: %w", m, ErrMalformedPrimitive)
		}
		src.Material = materials[m]
	}

	return src, nil
}

func attributeError(attr string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformedPrimitive, attr, err)
}

// gltfPrimitiveName builds the "<mesh>/<primitive>" label, falling back to the mesh index for unnamed meshes.
func gltfPrimitiveName(meshName string, meshIndex, primIndex int) string {
	if meshName == "" {
		meshName = fmt.Sprintf("mesh%d", meshIndex)
	}
	return fmt.Sprintf("%s/%d", meshName, primIndex)
}
