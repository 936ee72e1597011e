package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/prism/common"
)

var errNodeHierarchy = errors.New("node hierarchy is not a tree")

// gltfExtractNodes converts the document's nodes into the asset hierarchy, composing local
// matrices and linking parents. A node claimed by two parents, a cycle or a dangling
// reference is a fatal error.
func gltfExtractNodes(doc *gltfDocument) ([]Node, error) {
	nodes := make([]Node, len(doc.Nodes))
	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		n := &nodes[i]
		n.Name = src.Name
		n.Parent = NoIndex
		n.Mesh = NoIndex
		n.Children = append([]int(nil), src.Children...)
		if src.Mesh != nil {
			if *src.Mesh < 0 || *src.Mesh >= len(doc.Meshes) {
				return nil, fmt.Errorf("node %d: mesh %d out of range", i, *src.Mesh)
			}
			n.Mesh = *src.Mesh
		}
		n.Local = gltfNodeLocal(src)
	}

	for i := range nodes {
		for _, c := range nodes[i].Children {
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("node %d: child %d out of range: %w", i, c, errNodeHierarchy)
			}
			if nodes[c].Parent != NoIndex || c == i {
				return nil, fmt.Errorf("node %d has more than one parent: %w", c, errNodeHierarchy)
			}
			nodes[c].Parent = i
		}
	}

	// With single parents, a cycle is a parent chain longer than the node count.
	for i := range nodes {
		steps := 0
		for p := nodes[i].Parent; p != NoIndex; p = nodes[p].Parent {
			if steps++; steps > len(nodes) {
				return nil, fmt.Errorf("node %d: %w", i, errNodeHierarchy)
			}
		}
	}
	return nodes, nil
}

// gltfNodeLocal returns the node's matrix, or composes T*R*S with glTF defaults for absent parts.
func gltfNodeLocal(n *gltfNode) [16]float32 {
	var out [16]float32
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := [3]float32{0, 0, 0}
	r := [4]float32{0, 0, 0, 1}
	s := [3]float32{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		r = *n.Rotation
	}
	if n.Scale != nil {
		s = *n.Scale
	}
	common.ComposeTRS(out[:], t, r, s)
	return out
}

// gltfExtractScenes copies the scene list, validating root indices.
func gltfExtractScenes(doc *gltfDocument, nodes []Node) ([]Scene, int, error) {
	scenes := make([]Scene, len(doc.Scenes))
	for i, sc := range doc.Scenes {
		for _, r := range sc.Nodes {
			if r < 0 || r >= len(nodes) {
				return nil, NoIndex, fmt.Errorf("scene %d: node %d out of range", i, r)
			}
		}
		scenes[i] = Scene{Name: sc.Name, Roots: append([]int(nil), sc.Nodes...)}
	}

	def := NoIndex
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(scenes):
		def = *doc.Scene
	case len(scenes) > 0:
		def = 0
	}
	return scenes, def, nil
}
