package common

import "github.com/chewxy/math32"

// Matrices in this package are flat column-major [16]float32 layouts, matching WGSL mat4x4f.
// Element (row r, column c) lives at index c*4+r.

type vec3 [3]float32

func (a vec3) sub(b vec3) vec3 { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func (a vec3) dot(b vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec3) normalize() vec3 {
	l := math32.Sqrt(a.dot(a))
	if l == 0 {
		return a
	}
	return vec3{a[0] / l, a[1] / l, a[2] / l}
}

// Identity writes the identity matrix into m, which must hold at least 16 elements.
func Identity(m []float32) {
	clear(m[:16])
	for d := 0; d < 16; d += 5 {
		m[d] = 1
	}
}

// Mul4 stores the product a*b in out. out may alias either operand.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - a: left operand
//   - b: right operand
func Mul4(out, a, b []float32) {
	var r [16]float32
	for c := range 4 {
		col := b[c*4 : c*4+4]
		for row := range 4 {
			r[c*4+row] = a[row]*col[0] + a[4+row]*col[1] + a[8+row]*col[2] + a[12+row]*col[3]
		}
	}
	copy(out, r[:])
}

// Perspective writes a right-handed projection that maps view depth [-near, -far] onto the
// WebGPU clip range [0, 1].
//
// Parameters:
//   - out: destination, at least 16 elements
//   - fovY: vertical field of view in radians
//   - aspect: width over height
//   - near: near plane distance, > 0
//   - far: far plane distance, > near
func Perspective(out []float32, fovY, aspect, near, far float32) {
	f := 1 / math32.Tan(fovY/2)
	depth := 1 / (near - far)

	clear(out[:16])
	out[0] = f / aspect
	out[5] = f
	out[10] = far * depth
	out[11] = -1
	out[14] = near * far * depth
}

// ComposeTRS writes translation * rotation * scale into out. q is a unit quaternion
// ordered (x, y, z, w).
//
// Parameters:
//   - out: destination, at least 16 elements
//   - t: translation
//   - q: rotation
//   - s: per-axis scale
func ComposeTRS(out []float32, t [3]float32, q [4]float32, s [3]float32) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	cols := [3]vec3{
		{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy)},
		{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx)},
		{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy)},
	}
	for c, col := range cols {
		out[c*4+0] = col[0] * s[c]
		out[c*4+1] = col[1] * s[c]
		out[c*4+2] = col[2] * s[c]
		out[c*4+3] = 0
	}
	out[12], out[13], out[14], out[15] = t[0], t[1], t[2], 1
}

// LookAt writes a right-handed view matrix for an eye at (eyeX, eyeY, eyeZ) facing
// (centerX, centerY, centerZ). The up vector need not be normalized but must not be
// parallel to the view direction.
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	eye := vec3{eyeX, eyeY, eyeZ}
	back := eye.sub(vec3{centerX, centerY, centerZ}).normalize()
	right := vec3{upX, upY, upZ}.cross(back).normalize()
	up := back.cross(right)

	for i, axis := range [3]vec3{right, up, back} {
		out[0*4+i] = axis[0]
		out[1*4+i] = axis[1]
		out[2*4+i] = axis[2]
		out[3*4+i] = -axis.dot(eye)
	}
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}
