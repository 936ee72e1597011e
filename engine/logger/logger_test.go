package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelHelpersWriteToSharedLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		_ = SetLevel("info")
	})
	require.NoError(t, SetLevel("info"))

	Debug("hidden detail")
	Info("asset loaded", "primitives", 3)
	Warn("fallback tangents")
	Error("dispatch failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden detail")
	assert.Contains(t, out, "asset loaded")
	assert.Contains(t, out, "primitives=3")
	assert.Contains(t, out, "fallback tangents")
	assert.Contains(t, out, "dispatch failed")

	buf.Reset()
	require.NoError(t, SetLevel("debug"))
	Debug("shown detail")
	assert.Contains(t, buf.String(), "shown detail")

	assert.Error(t, SetLevel("loud"))
}
