package camera

import (
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/chewxy/math32"
)

// maxElevation keeps orbiting short of the poles, where the view basis degenerates.
const maxElevation = math32.Pi/2 - 0.01

// pose places the camera in the world.
type pose struct {
	eye, target, up [3]float32
}

// lens describes the perspective projection. fov is vertical, in radians.
type lens struct {
	fov, aspect, near, far float32
}

type cameraImpl struct {
	mu sync.Mutex

	pose pose
	lens lens

	view, proj, viewProj [16]float32
}

// Camera is a right-handed perspective camera looking from an eye point at a target. All
// matrices are column-major and recomputed on every change, so reads never see a stale
// combination.
type Camera interface {
	Eye() [3]float32
	Target() [3]float32
	Up() [3]float32

	// Fov is the vertical field of view in radians.
	Fov() float32
	// Aspect is width / height.
	Aspect() float32
	Near() float32
	Far() float32

	ViewMatrix() [16]float32
	// ProjectionMatrix maps view depth onto [0, 1].
	ProjectionMatrix() [16]float32
	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() [16]float32

	SetEye(eye [3]float32)
	SetTarget(target [3]float32)
	SetUp(up [3]float32)
	SetFov(fov float32)
	SetAspect(aspect float32)

	// SetClip sets the clipping planes.
	//
	// Parameters:
	//   - near: near plane distance, > 0
	//   - far: far plane distance, > near
	SetClip(near, far float32)

	// Orbit swings the eye around the target at a fixed distance. Azimuth turns about world +Y;
	// elevation tilts toward the poles and is clamped just short of them.
	//
	// Parameters:
	//   - dAzimuth: radians around the Y axis
	//   - dElevation: radians above the horizontal plane
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye toward the target by delta world units (negative backs away). The eye
	// stops at the near plane distance.
	Zoom(delta float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera at (0, 0, 5) looking at the origin with a 45 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		pose: pose{eye: [3]float32{0, 0, 5}, up: [3]float32{0, 1, 0}},
		lens: lens{fov: math32.Pi / 4, aspect: 1, near: 0.1, far: 100},
	}
	for _, option := range options {
		option(c)
	}
	c.rebuild()
	return c
}

// read copies one value out under the lock.
func read[T any](c *cameraImpl, get func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return get()
}

// change applies fn under the lock and then rebuilds the matrices.
func (c *cameraImpl) change(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
	c.rebuild()
}

func (c *cameraImpl) Eye() [3]float32    { return read(c, func() [3]float32 { return c.pose.eye }) }
func (c *cameraImpl) Target() [3]float32 { return read(c, func() [3]float32 { return c.pose.target }) }
func (c *cameraImpl) Up() [3]float32     { return read(c, func() [3]float32 { return c.pose.up }) }
func (c *cameraImpl) Fov() float32       { return read(c, func() float32 { return c.lens.fov }) }
func (c *cameraImpl) Aspect() float32    { return read(c, func() float32 { return c.lens.aspect }) }
func (c *cameraImpl) Near() float32      { return read(c, func() float32 { return c.lens.near }) }
func (c *cameraImpl) Far() float32       { return read(c, func() float32 { return c.lens.far }) }

func (c *cameraImpl) ViewMatrix() [16]float32 {
	return read(c, func() [16]float32 { return c.view })
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	return read(c, func() [16]float32 { return c.proj })
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	return read(c, func() [16]float32 { return c.viewProj })
}

func (c *cameraImpl) SetEye(eye [3]float32)       { c.change(func() { c.pose.eye = eye }) }
func (c *cameraImpl) SetTarget(target [3]float32) { c.change(func() { c.pose.target = target }) }
func (c *cameraImpl) SetUp(up [3]float32)         { c.change(func() { c.pose.up = up }) }
func (c *cameraImpl) SetFov(fov float32)          { c.change(func() { c.lens.fov = fov }) }
func (c *cameraImpl) SetAspect(aspect float32)    { c.change(func() { c.lens.aspect = aspect }) }

func (c *cameraImpl) SetClip(near, far float32) {
	c.change(func() { c.lens.near, c.lens.far = near, far })
}

func (c *cameraImpl) Orbit(dAzimuth, dElevation float32) {
	c.change(func() {
		r, az, el := c.pose.spherical()
		if r == 0 {
			return
		}
		el = math32.Max(-maxElevation, math32.Min(maxElevation, el+dElevation))
		c.pose.setSpherical(r, az+dAzimuth, el)
	})
}

func (c *cameraImpl) Zoom(delta float32) {
	c.change(func() {
		r, az, el := c.pose.spherical()
		if r == 0 {
			return
		}
		c.pose.setSpherical(math32.Max(r-delta, c.lens.near), az, el)
	})
}

// spherical returns the eye's offset from the target as a radius, an azimuth about +Y measured
// from +Z, and an elevation above the XZ plane. A zero radius reports all zeros.
func (p *pose) spherical() (radius, azimuth, elevation float32) {
	d := [3]float32{p.eye[0] - p.target[0], p.eye[1] - p.target[1], p.eye[2] - p.target[2]}
	radius = math32.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	if radius == 0 {
		return 0, 0, 0
	}
	return radius, math32.Atan2(d[0], d[2]), math32.Asin(d[1] / radius)
}

func (p *pose) setSpherical(radius, azimuth, elevation float32) {
	sinAz, cosAz := math32.Sincos(azimuth)
	sinEl, cosEl := math32.Sincos(elevation)
	p.eye = [3]float32{
		p.target[0] + radius*cosEl*sinAz,
		p.target[1] + radius*sinEl,
		p.target[2] + radius*cosEl*cosAz,
	}
}

// rebuild recomputes all three matrices. Caller holds mu.
func (c *cameraImpl) rebuild() {
	e, t, u := c.pose.eye, c.pose.target, c.pose.up
	common.LookAt(c.view[:], e[0], e[1], e[2], t[0], t[1], t[2], u[0], u[1], u[2])
	common.Perspective(c.proj[:], c.lens.fov, c.lens.aspect, c.lens.near, c.lens.far)
	common.Mul4(c.viewProj[:], c.proj[:], c.view[:])
}
