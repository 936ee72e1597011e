package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
)

// DefaultTangentEpsilon is the relative tolerance below which a triangle, its UV mapping or an
// accumulated tangent counts as degenerate. Every test compares against the magnitudes of its own
// inputs, so geometry and UV atlases of any scale are handled alike.
const DefaultTangentEpsilon float32 = 1e-8

// defaultTrianglesPerChunk is the smallest amount of triangle work worth handing to a separate worker.
const defaultTrianglesPerChunk = 2048

// tangentSynthesizerImpl is the implementation of the TangentSynthesizer interface.
type tangentSynthesizerImpl struct {
	pool              worker.DynamicWorkerPool
	workers           int
	epsilon           float32
	trianglesPerChunk int
}

// TangentSynthesizer computes per-vertex tangent frames for geometry that has normals and
// texture coordinates but no authored tangents.
//
// Synthesis runs in two strictly ordered passes. The accumulate pass sums each triangle's
// unnormalized tangent and bitangent into every vertex it touches; triangles are split into
// contiguous chunks with private accumulators that are merged in chunk order. The normalize
// pass then orthonormalizes each vertex's tangent against its normal and derives handedness.
// Because nothing is normalized until every contribution has been summed, the output does
// not depend on triangle order.
type TangentSynthesizer interface {
	// Synthesize writes a tangent (xyz direction, w = ±1 handedness) into every vertex.
	// Triangles with zero UV area or zero geometric area contribute nothing. Vertices that
	// end up with no contribution get an arbitrary axis orthogonal to their normal and are
	// reported as warnings; they never fail the call.
	//
	// Parameters:
	//   - vertices: the vertices to update in place; Normal must already be populated
	//   - indices: a triangle list indexing vertices
	//   - uvSet: the UV set (0 or 1) defining the tangent direction
	//
	// Returns:
	//   - []TangentWarning: one warning per vertex that received a fallback tangent, in vertex order
	//   - error: ErrIncompleteTriangle or ErrIndexOutOfRange when the index buffer is malformed
	Synthesize(vertices []Vertex, indices []uint32, uvSet int) ([]TangentWarning, error)

	// Workers returns the number of goroutines the passes are split across.
	//
	// Returns:
	//   - int: the configured worker count (1 means serial)
	Workers() int
}

var _ TangentSynthesizer = &tangentSynthesizerImpl{}

// NewTangentSynthesizer creates a TangentSynthesizer. Without options it runs serially
// with DefaultTangentEpsilon.
//
// Parameters:
//   - options: functional options to configure the synthesizer
//
// Returns:
//   - TangentSynthesizer: the configured synthesizer
func NewTangentSynthesizer(options ...TangentSynthesizerBuilderOption) TangentSynthesizer {
	s := &tangentSynthesizerImpl{
		workers:           1,
		epsilon:           DefaultTangentEpsilon,
		trianglesPerChunk: defaultTrianglesPerChunk,
	}
	for _, option := range options {
		option(s)
	}
	if s.workers > 1 {
		s.pool = worker.NewDynamicWorkerPool(s.workers, 4*s.workers, 1*time.Second)
	}
	return s
}

func (s *tangentSynthesizerImpl) Workers() int {
	return s.workers
}

func (s *tangentSynthesizerImpl) Synthesize(vertices []Vertex, indices []uint32, uvSet int) ([]TangentWarning, error) {
	if len(indices)%3 != 0 {
		return nil, ErrIncompleteTriangle
	}
	if err := ValidateIndices(indices, len(vertices)); err != nil {
		return nil, err
	}
	if len(vertices) == 0 {
		return nil, nil
	}

	triCount := len(indices) / 3
	chunks := 1
	if s.pool != nil && triCount > s.trianglesPerChunk {
		chunks = min(s.workers, (triCount+s.trianglesPerChunk-1)/s.trianglesPerChunk)
	}

	// Pass 1: per-chunk accumulation.
	accs := make([]tangentAccumulator, chunks)
	perChunk := (triCount + chunks - 1) / chunks
	s.parallel(chunks, func(c int) {
		acc := newTangentAccumulator(len(vertices))
		first := c * perChunk
		last := min(first+perChunk, triCount)
		for t := first; t < last; t++ {
			acc.addTriangle(vertices, indices[t*3:t*3+3], uvSet, s.epsilon)
		}
		accs[c] = acc
	})

	// Pass 2: merge in chunk order, then orthonormalize per vertex.
	vertexChunks := chunks
	perVertexChunk := (len(vertices) + vertexChunks - 1) / vertexChunks
	warnings := make([][]TangentWarning, vertexChunks)
	s.parallel(vertexChunks, func(c int) {
		first := c * perVertexChunk
		last := min(first+perVertexChunk, len(vertices))
		for v := first; v < last; v++ {
			t, b := accs[0].tangents[v], accs[0].bitangents[v]
			for k := 1; k < len(accs); k++ {
				t = add3(t, accs[k].tangents[v])
				b = add3(b, accs[k].bitangents[v])
			}
			tangent, ok := orthonormalize(vertices[v].Normal, t, b, s.epsilon)
			if !ok {
				warnings[c] = append(warnings[c], TangentWarning{Vertex: v, Normal: vertices[v].Normal})
			}
			vertices[v].Tangent = tangent
		}
	})

	var out []TangentWarning
	for _, w := range warnings {
		out = append(out, w...)
	}
	return out, nil
}

// parallel runs fn for every chunk in [0, n). Chunks run on the worker pool when one is
// configured and there is more than one chunk; the call returns after all chunks finish.
func (s *tangentSynthesizerImpl) parallel(n int, fn func(chunk int)) {
	if s.pool == nil || n <= 1 {
		for c := 0; c < n; c++ {
			fn(c)
		}
		return
	}

	var wg sync.WaitGroup
	for c := 0; c < n; c++ {
		wg.Add(1)
		chunk := c
		s.pool.SubmitTask(worker.Task{
			ID: chunk,
			Do: func() (any, error) {
				defer wg.Done()
				fn(chunk)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// tangentAccumulator holds one chunk's running sums of unnormalized tangents and bitangents.
type tangentAccumulator struct {
	tangents   [][3]float32
	bitangents [][3]float32
}

func newTangentAccumulator(n int) tangentAccumulator {
	return tangentAccumulator{
		tangents:   make([][3]float32, n),
		bitangents: make([][3]float32, n),
	}
}

// addTriangle solves the 2x2 system relating the triangle's edges to its UV deltas and adds
// the resulting tangent and bitangent to all three corners. Triangles with zero area in space
// or in UV are skipped; both tests are relative to the edge lengths.
func (a *tangentAccumulator) addTriangle(vertices []Vertex, tri []uint32, uvSet int, eps float32) {
	i0, i1, i2 := tri[0], tri[1], tri[2]
	p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
	uv0, uv1, uv2 := uvOf(&vertices[i0], uvSet), uvOf(&vertices[i1], uvSet), uvOf(&vertices[i2], uvSet)

	e1 := sub3(p1, p0)
	e2 := sub3(p2, p0)
	if length3(cross3(e1, e2)) <= eps*length3(e1)*length3(e2) {
		return
	}

	du1, dv1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
	du2, dv2 := uv2[0]-uv0[0], uv2[1]-uv0[1]
	det := du1*dv2 - du2*dv1
	if det == 0 || math32.Abs(det) <= eps*math32.Hypot(du1, dv1)*math32.Hypot(du2, dv2) {
		return
	}
	r := 1 / det

	t := scale3(sub3(scale3(e1, dv2), scale3(e2, dv1)), r)
	b := scale3(sub3(scale3(e2, du1), scale3(e1, du2)), r)
	if !finite3(t) || !finite3(b) {
		return
	}

	for _, i := range tri {
		a.tangents[i] = add3(a.tangents[i], t)
		a.bitangents[i] = add3(a.bitangents[i], b)
	}
}

// orthonormalize applies Gram-Schmidt to the accumulated tangent against the normal and
// derives handedness from the sign of dot(cross(N, T), B). It reports false and returns a
// fallback axis orthogonal to the normal when the accumulator carries no usable direction.
func orthonormalize(normal, t, b [3]float32, eps float32) ([4]float32, bool) {
	n := normal
	if l := length3(n); l > eps {
		n = scale3(n, 1/l)
	}

	if lt := length3(t); lt > 0 && finite3(t) {
		t = scale3(t, 1/lt)
		proj := sub3(t, scale3(n, dot3(n, t)))
		if l := length3(proj); l > eps && finite3(proj) {
			proj = scale3(proj, 1/l)
			w := float32(1)
			if dot3(cross3(n, proj), b) < 0 {
				w = -1
			}
			return [4]float32{proj[0], proj[1], proj[2], w}, true
		}
	}

	f := orthogonalAxis(n, eps)
	return [4]float32{f[0], f[1], f[2], 1}, false
}

// orthogonalAxis returns a unit vector perpendicular to n, built from the world axis least aligned with it.
// A zero normal yields +X.
func orthogonalAxis(n [3]float32, eps float32) [3]float32 {
	if length3(n) <= eps {
		return [3]float32{1, 0, 0}
	}
	axis := [3]float32{1, 0, 0}
	ax, ay, az := math32.Abs(n[0]), math32.Abs(n[1]), math32.Abs(n[2])
	switch {
	case ay <= ax && ay <= az:
		axis = [3]float32{0, 1, 0}
	case az <= ax && az <= ay:
		axis = [3]float32{0, 0, 1}
	}
	v := sub3(axis, scale3(n, dot3(n, axis)))
	return scale3(v, 1/length3(v))
}

func uvOf(v *Vertex, set int) [2]float32 {
	if set == 1 {
		return v.TexCoord1
	}
	return v.TexCoord0
}

func add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale3(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func length3(a [3]float32) float32 {
	return math32.Sqrt(dot3(a, a))
}

func finite3(a [3]float32) bool {
	for _, f := range a {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// ValidateIndices checks that every index refers to an existing vertex.
//
// Parameters:
//   - indices: the index buffer
//   - vertexCount: the number of vertices the indices address
//
// Returns:
//   - error: an error wrapping ErrIndexOutOfRange naming the first offending index, or nil
func ValidateIndices(indices []uint32, vertexCount int) error {
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("index %d at position %d exceeds vertex count %d: %w", idx, i, vertexCount, ErrIndexOutOfRange)
		}
	}
	return nil
}
