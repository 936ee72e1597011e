package engine

import (
	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/window"
)

const (
	// keyOrbitStep is the orbit angle, in radians, applied per arrow key event.
	keyOrbitStep = 0.05
	// dragOrbitScale converts pixels of mouse drag into radians.
	dragOrbitScale = 0.01
	// zoomStep is the distance moved per key press or scroll notch.
	zoomStep = 0.5
)

// applyKey moves the camera for navigation keys. It reports whether the key was consumed.
func applyKey(cam camera.Camera, key window.Key) bool {
	switch key {
	case window.KeyLeft:
		cam.Orbit(-keyOrbitStep, 0)
	case window.KeyRight:
		cam.Orbit(keyOrbitStep, 0)
	case window.KeyUp:
		cam.Orbit(0, keyOrbitStep)
	case window.KeyDown:
		cam.Orbit(0, -keyOrbitStep)
	case window.KeyZoomIn:
		cam.Zoom(zoomStep)
	case window.KeyZoomOut:
		cam.Zoom(-zoomStep)
	default:
		return false
	}
	return true
}

func applyDrag(cam camera.Camera, dx, dy float32) {
	cam.Orbit(-dx*dragOrbitScale, dy*dragOrbitScale)
}

func applyScroll(cam camera.Camera, delta float32) {
	cam.Zoom(delta * zoomStep)
}

func identity() [16]float32 {
	var m [16]float32
	common.Identity(m[:])
	return m
}
