package loader

import (
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/google/uuid"
)

// NoIndex marks an absent parent or mesh reference in Node.
const NoIndex = -1

// Node is one element of an asset's transform hierarchy. The loader keeps local transforms only;
// world transforms are resolved by the scene that instantiates the asset.
type Node struct {
	Name string
	// Parent is the parent node index, or NoIndex for a root.
	Parent   int
	Children []int
	// Mesh is the index of the mesh drawn at this node, or NoIndex.
	Mesh int
	// Local is the column-major local transform, composed from TRS when the node has no matrix.
	Local [16]float32
}

// Scene is a named set of root nodes.
type Scene struct {
	Name  string
	Roots []int
}

// Asset is the result of loading one glTF document. Ownership passes to the caller, who
// normally moves Primitives into a model.Store and spawns the default scene.
type Asset struct {
	ID   uuid.UUID
	Name string
	// Path is the file the asset was read from; empty for LoadBytes.
	Path string

	// Primitives holds every primitive that survived ingestion, in mesh order then primitive order.
	Primitives []*model.Primitive
	// MeshPrimitives maps a mesh index to positions in Primitives. Skipped primitives are absent.
	MeshPrimitives map[int][]int

	Nodes  []Node
	Scenes []Scene
	// DefaultScene indexes Scenes, or is NoIndex when the document has no scenes.
	DefaultScene int

	Materials []*model.Material

	// Warnings holds one *AssetError per skipped primitive.
	Warnings []error
	// TangentWarnings counts vertices that received a fallback tangent.
	TangentWarnings int
}

// RootNodes returns the roots to instantiate: the default scene's roots, or every parentless
// node when the document declares no scene.
//
// Returns:
//   - []int: node indices
func (a *Asset) RootNodes() []int {
	if a.DefaultScene != NoIndex && a.DefaultScene < len(a.Scenes) {
		return a.Scenes[a.DefaultScene].Roots
	}
	var roots []int
	for i, n := range a.Nodes {
		if n.Parent == NoIndex {
			roots = append(roots, i)
		}
	}
	return roots
}
