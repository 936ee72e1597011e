package material

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUMaterialParamsMarshal(t *testing.T) {
	src := model.DefaultMaterial()
	src.BaseColor = [4]float32{0.5, 0.25, 1, 0.75}
	src.AlphaMode = model.AlphaModeMask
	src.AlphaCutoff = 0.3

	p := NewGPUMaterialParams(src, model.PresencePosition|model.PresenceNormal|model.PresenceColor)
	buf := p.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, uint32(0x83), binary.LittleEndian.Uint32(buf[16:]))
	assert.Equal(t, uint32(model.AlphaModeMask), binary.LittleEndian.Uint32(buf[20:]))
	assert.Equal(t, float32(0.3), math.Float32frombits(binary.LittleEndian.Uint32(buf[24:])))
}

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(nil, model.PresencePosition)
	assert.Equal(t, "default", m.Name())
	assert.Equal(t, "default", m.BindGroupProvider().Label())
	assert.Equal(t, common.WhiteTexture(), m.TextureStagingData())
	assert.Equal(t, common.DefaultSamplerStagingData(), m.SamplerStagingData())
	assert.Equal(t, uint32(model.PresencePosition), m.Params().Presence)

	labeled := NewMaterial(nil, 0, WithLabel("prim_4_material"))
	assert.Equal(t, "prim_4_material", labeled.BindGroupProvider().Label())
}

func TestTextureStagingDataDecodesDiffuse(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	sampler := common.DefaultSamplerStagingData()
	sampler.MagFilter = wgpu.FilterModeNearest
	src := model.DefaultMaterial()
	src.DiffuseTexture = &common.ImportedTexture{Name: "checker", Data: encoded.Bytes(), MimeType: "image/png", SamplerData: &sampler}

	m := NewMaterial(src, model.PresencePosition|model.PresenceTexCoord0)
	staged := m.TextureStagingData()
	assert.Equal(t, uint32(2), staged.Width)
	assert.Equal(t, uint32(1), staged.Height)
	assert.Equal(t, []byte{10, 20, 30, 255}, staged.Pixels[4:8])
	assert.Equal(t, wgpu.FilterModeNearest, m.SamplerStagingData().MagFilter)
}

func TestTextureStagingDataFallsBackToWhite(t *testing.T) {
	src := model.DefaultMaterial()
	src.DiffuseTexture = &common.ImportedTexture{Name: "broken", Data: []byte("not an image")}
	assert.Equal(t, common.WhiteTexture(), NewMaterial(src, 0).TextureStagingData())
}
