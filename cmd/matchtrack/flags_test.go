package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchvision/pitchtrack/internal/pitch/analysis"
)

func TestParseClipArg(t *testing.T) {
	t.Run("empty means full video", func(t *testing.T) {
		clips, err := parseClipArg("  ")
		require.NoError(t, err)
		assert.Nil(t, clips)
	})

	t.Run("single range", func(t *testing.T) {
		clips, err := parseClipArg("0-30")
		require.NoError(t, err)
		assert.Equal(t, []analysis.ClipRange{{Start: 0, End: 30}}, clips)
	})

	t.Run("multiple ranges with spaces", func(t *testing.T) {
		clips, err := parseClipArg("0-30, 120.5-150")
		require.NoError(t, err)
		assert.Equal(t, []analysis.ClipRange{
			{Start: 0, End: 30},
			{Start: 120.5, End: 150},
		}, clips)
	})

	t.Run("malformed range", func(t *testing.T) {
		_, err := parseClipArg("0:30")
		require.Error(t, err)
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		_, err := parseClipArg("0-abc")
		require.Error(t, err)
	})
}

func TestBuildHomography(t *testing.T) {
	t.Run("no flags gives disabled transform", func(t *testing.T) {
		h, err := buildHomography("", "", 105, 68)
		require.NoError(t, err)
		assert.False(t, h.Enabled())
	})

	t.Run("matrix string", func(t *testing.T) {
		h, err := buildHomography("2,0,0,0,2,0,0,0,1", "", 105, 68)
		require.NoError(t, err)
		require.True(t, h.Enabled())
		x, y := h.Transform(5, 5)
		assert.InDelta(t, 10.0, x, 1e-9)
		assert.InDelta(t, 10.0, y, 1e-9)
	})

	t.Run("corners", func(t *testing.T) {
		h, err := buildHomography("", "0,0, 1920,0, 1920,1080, 0,1080", 105, 68)
		require.NoError(t, err)
		require.True(t, h.Enabled())
		x, y := h.Transform(1920, 1080)
		assert.InDelta(t, 105.0, x, 1e-6)
		assert.InDelta(t, 68.0, y, 1e-6)
	})

	t.Run("corners with wrong count", func(t *testing.T) {
		_, err := buildHomography("", "0,0,1,1", 105, 68)
		require.Error(t, err)
	})
}
