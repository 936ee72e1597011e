package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
)

// ErrUniformFrozen is returned by Upload when the camera uniform was already uploaded this frame.
var ErrUniformFrozen = errors.New("camera uniform already uploaded this frame")

// BufferWriter writes staged data into GPU buffers. The Renderer satisfies it.
type BufferWriter interface {
	WriteBuffers(writes []bind_group_provider.BufferWrite) error
}

type uniformManager struct {
	mu *sync.Mutex

	writer   BufferWriter
	provider bind_group_provider.BindGroupProvider

	current GPUCameraUniform
	frozen  bool
	uploads uint64
}

// UniformManager owns the camera uniform buffer. It uploads the view-projection matrix once per
// frame, before any draw, and freezes it so every draw of the frame sees the same value.
type UniformManager interface {
	// BeginFrame unfreezes the uniform so the next Upload is accepted.
	BeginFrame()

	// Upload computes the camera's view-projection matrix, writes it to group 0 binding 0 and
	// freezes it for the rest of the frame. A failed write leaves the uniform unfrozen.
	//
	// Parameters:
	//   - cam: the camera to upload
	//
	// Returns:
	//   - error: ErrUniformFrozen on a second upload in one frame, or the writer's error
	Upload(cam Camera) error

	// Current returns the last uploaded view-projection matrix.
	//
	// Returns:
	//   - [16]float32: the matrix the current frame draws with
	Current() [16]float32

	// Frozen reports whether the uniform has been uploaded this frame.
	Frozen() bool

	// Uploads returns the number of successful uploads.
	Uploads() uint64

	// Provider returns the bind group provider holding the camera uniform buffer.
	// It must be initialized by the Renderer with shader.CameraLayout before the first Upload.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the camera provider
	Provider() bind_group_provider.BindGroupProvider
}

var _ UniformManager = &uniformManager{}

// NewUniformManager creates a UniformManager writing through writer.
//
// Parameters:
//   - writer: the buffer writer, normally the Renderer
//   - options: functional options to configure the manager
//
// Returns:
//   - UniformManager: the manager
func NewUniformManager(writer BufferWriter, options ...UniformManagerBuilderOption) UniformManager {
	if writer == nil {
		panic("uniform manager requires a buffer writer")
	}
	m := &uniformManager{
		mu:     &sync.Mutex{},
		writer: writer,
	}
	for _, option := range options {
		option(m)
	}
	if m.provider == nil {
		m.provider = bind_group_provider.NewBindGroupProvider("camera")
	}
	return m
}

func (m *uniformManager) BeginFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen = false
}

func (m *uniformManager) Upload(cam Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return ErrUniformFrozen
	}

	next := GPUCameraUniform{ViewProj: cam.ViewProjectionMatrix()}
	err := m.writer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: m.provider,
		Binding:  shader.CameraUniformBinding,
		Data:     next.Marshal(),
	}})
	if err != nil {
		return fmt.Errorf("failed to upload camera uniform: %w", err)
	}

	m.current = next
	m.frozen = true
	m.uploads++
	return nil
}

func (m *uniformManager) Current() [16]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.ViewProj
}

func (m *uniformManager) Frozen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frozen
}

func (m *uniformManager) Uploads() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *uniformManager) Provider() bind_group_provider.BindGroupProvider {
	return m.provider
}
