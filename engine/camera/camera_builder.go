package camera

import "github.com/chewxy/math32"

// CameraBuilderOption configures a camera before its first matrices are built.
type CameraBuilderOption func(*cameraImpl)

// WithEye places the camera.
func WithEye(eye [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.pose.eye = eye }
}

// WithTarget sets the look-at point.
func WithTarget(target [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.pose.target = target }
}

func WithUp(up [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.pose.up = up }
}

// WithFovDegrees sets the vertical field of view. Config files carry degrees; the camera
// stores radians.
//
// Parameters:
//   - degrees: vertical field of view in degrees
//
// Returns:
//   - CameraBuilderOption: the option
func WithFovDegrees(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.lens.fov = degrees * math32.Pi / 180 }
}

// WithAspect sets width / height.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.lens.aspect = aspect }
}

// WithClip sets the near and far clipping planes.
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) { c.lens.near, c.lens.far = near, far }
}
