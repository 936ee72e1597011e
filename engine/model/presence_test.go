package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceMaskValues(t *testing.T) {
	assert.Equal(t, PresenceMask(0x83), PresencePosition|PresenceNormal|PresenceColor)
	assert.Equal(t, PresenceMask(0xFF), PresencePosition|PresenceNormal|PresenceTexCoord0|PresenceTexCoord1|
		PresenceTangent|PresenceWeight|PresenceJoint|PresenceColor)
}

func TestPresenceMaskVariant(t *testing.T) {
	cases := []struct {
		mask PresenceMask
		want Variant
	}{
		{PresencePosition | PresenceNormal | PresenceColor, VariantReduced},
		{PresencePosition, VariantReduced},
		{PresencePosition | PresenceTexCoord1, VariantReduced},
		{PresencePosition | PresenceTexCoord0, VariantFull},
		{PresencePosition | PresenceJoint, VariantFull},
		{PresencePosition | PresenceNormal | PresenceTexCoord0 | PresenceTangent, VariantFull},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.mask.Variant(), c.mask.String())
	}
}

func TestPresenceMaskHelpers(t *testing.T) {
	m := PresencePosition | PresenceTexCoord1
	assert.True(t, m.HasTexCoord())
	assert.True(t, m.Has(PresencePosition))
	assert.False(t, m.Has(PresencePosition|PresenceNormal))
	assert.False(t, PresencePosition.HasTexCoord())
}

func TestPresenceMaskString(t *testing.T) {
	assert.Equal(t, "NONE", PresenceMask(0).String())
	assert.Equal(t, "POSITION | NORMAL | COLOR", (PresencePosition | PresenceNormal | PresenceColor).String())
	assert.Equal(t, "reduced", VariantReduced.String())
	assert.Equal(t, "full", VariantFull.String())
}
