package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// importedDocument is the format-independent result of a backend import: extracted but not yet built.
type importedDocument struct {
	Name         string
	Primitives   []extractedPrimitive
	Nodes        []Node
	Scenes       []Scene
	DefaultScene int
	Materials    []*model.Material
}

// extractedPrimitive is one primitive slot. Exactly one of Source and Err is meaningful.
type extractedPrimitive struct {
	Mesh   int
	Index  int
	Source model.PrimitiveSource
	Err    error
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter runs the parser and every extractor over one document.
type gltfImporter interface {
	// Import loads a glTF/GLB file.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *importedDocument: the extracted document
	//   - error: a fatal parse or hierarchy error
	Import(path string) (*importedDocument, error)

	// ImportBytes imports an in-memory glTF JSON or GLB document.
	//
	// Parameters:
	//   - name: a fallback name when the document's default scene is unnamed
	//   - data: the document bytes
	//
	// Returns:
	//   - *importedDocument: the extracted document
	//   - error: a fatal parse or hierarchy error
	ImportBytes(name string, data []byte) (*importedDocument, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*importedDocument, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportBytes(name string, data []byte) (*importedDocument, error) {
	parser := newGLTFParser()
	if err := parser.ParseBytes(data, ""); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return imp.importFromParser(parser, name)
}

// importFromParser extracts materials, hierarchy and every primitive's streams. Per-primitive
// failures are recorded in their slot; only document-level defects abort the import.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*importedDocument, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	materials, err := newGLTFMaterialExtractor(parser).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}

	nodes, err := gltfExtractNodes(doc)
	if err != nil {
		return nil, err
	}
	scenes, defaultScene, err := gltfExtractScenes(doc, nodes)
	if err != nil {
		return nil, err
	}

	extractor := newGLTFPrimitiveExtractor(parser)
	var prims []extractedPrimitive
	for m := range doc.Meshes {
		for p := range doc.Meshes[m].Primitives {
			src, err := extractor.ExtractPrimitive(m, p, materials)
			prims = append(prims, extractedPrimitive{Mesh: m, Index: p, Source: src, Err: err})
		}
	}

	out := &importedDocument{
		Name:         fallbackName,
		Primitives:   prims,
		Nodes:        nodes,
		Scenes:       scenes,
		DefaultScene: defaultScene,
		Materials:    materials,
	}
	if defaultScene != NoIndex && scenes[defaultScene].Name != "" {
		out.Name = scenes[defaultScene].Name
	}
	if out.Name == "" {
		out.Name = "unnamed_asset"
	}
	return out, nil
}
