// Package common contains plain data types and math helpers shared across the engine packages.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
)

var errNoTextureSource = errors.New("texture has neither embedded data nor a path")

// TextureStagingData is tightly packed RGBA8 pixel data waiting to be uploaded as a texture.
type TextureStagingData struct {
	Pixels        []byte
	Width, Height uint32
}

// SamplerStagingData describes a sampler before it is created on the device. Zero fields are
// replaced by the backend with the defaults from DefaultSamplerStagingData.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	MaxAnisotropy                            uint16
}

// DefaultSamplerStagingData returns the sampler glTF implies when a texture names none:
// linear filtering with repeat wrapping on every axis.
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// WhiteTexture is the 1x1 opaque white stand-in bound when a material has no usable diffuse
// texture, so the material bind group layout stays the same for every material.
func WhiteTexture() TextureStagingData {
	return TextureStagingData{Pixels: []byte{0xff, 0xff, 0xff, 0xff}, Width: 1, Height: 1}
}

// ImportedTexture is an image referenced by an asset. Embedded images (GLB buffer views and
// data URIs) carry their encoded bytes in Data; external images carry Path and, once read,
// Data as well.
type ImportedTexture struct {
	Name     string
	Path     string
	Data     []byte
	MimeType string

	// SamplerData overrides DefaultSamplerStagingData when the asset names a sampler.
	SamplerData *SamplerStagingData
}

// Decode decodes the PNG or JPEG image into RGBA8 pixels. Data takes precedence over Path.
//
// Returns:
//   - []byte: row-major RGBA pixels
//   - uint32: width in pixels
//   - uint32: height in pixels
//   - error: the read or decode failure
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, errNoTextureSource
	}

	var src io.Reader
	switch {
	case len(t.Data) > 0:
		src = bytes.NewReader(t.Data)
	case t.Path != "":
		f, err := os.Open(t.Path)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("open texture %q: %w", t.Path, err)
		}
		defer f.Close()
		src = f
	default:
		return nil, 0, 0, errNoTextureSource
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode texture %q: %w", t.Name, err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*rgba.Rect.Dx() || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}

	size := rgba.Rect.Size()
	return rgba.Pix, uint32(size.X), uint32(size.Y), nil
}
