package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPassthrough(t *testing.T) {
	t.Parallel()

	h := Disabled()
	assert.False(t, h.Enabled())

	x, y := h.Transform(123.4, 567.8)
	assert.Equal(t, 123.4, x)
	assert.Equal(t, 567.8, y)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects all-zero matrix", func(t *testing.T) {
		_, err := New([9]float64{})
		assert.Error(t, err)
	})

	t.Run("rejects singular matrix", func(t *testing.T) {
		_, err := New([9]float64{1, 2, 3, 2, 4, 6, 1, 1, 1})
		assert.Error(t, err)
	})

	t.Run("accepts identity", func(t *testing.T) {
		h, err := New([9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
		require.NoError(t, err)
		assert.True(t, h.Enabled())
		x, y := h.Transform(5, 7)
		assert.InDelta(t, 5.0, x, 1e-12)
		assert.InDelta(t, 7.0, y, 1e-12)
	})
}

func TestFromString(t *testing.T) {
	t.Parallel()

	t.Run("valid scale matrix", func(t *testing.T) {
		h := FromString("0.1, 0, 0, 0, 0.1, 0, 0, 0, 1")
		require.True(t, h.Enabled())
		x, y := h.Transform(100, 50)
		assert.InDelta(t, 10.0, x, 1e-9)
		assert.InDelta(t, 5.0, y, 1e-9)
	})

	t.Run("wrong value count disables", func(t *testing.T) {
		assert.False(t, FromString("1,2,3").Enabled())
	})

	t.Run("non-numeric value disables", func(t *testing.T) {
		assert.False(t, FromString("1,0,0,0,x,0,0,0,1").Enabled())
	})

	t.Run("all zeros disables", func(t *testing.T) {
		assert.False(t, FromString("0,0,0,0,0,0,0,0,0").Enabled())
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	// A well-conditioned projective matrix with a mild perspective term.
	h, err := New([9]float64{
		0.09, 0.01, -3.0,
		-0.005, 0.12, 1.5,
		0.0001, 0.0002, 1.0,
	})
	require.NoError(t, err)

	inv, err := h.Inverse()
	require.NoError(t, err)

	points := [][2]float64{{0, 0}, {640, 360}, {1279, 719}, {17.5, 912.25}}
	for _, p := range points {
		xm, ym := h.Transform(p[0], p[1])
		xp, yp := inv.Transform(xm, ym)
		assert.InDelta(t, p[0], xp, 1e-6)
		assert.InDelta(t, p[1], yp, 1e-6)
	}
}

func TestFromCorners(t *testing.T) {
	t.Parallel()

	t.Run("axis-aligned corners map to field rectangle", func(t *testing.T) {
		// Pitch fills the image exactly: 1050×680 pixels onto 105×68 m.
		corners := [4][2]float64{{0, 0}, {1050, 0}, {1050, 680}, {0, 680}}
		h, err := FromCorners(corners, 105, 68)
		require.NoError(t, err)

		x, y := h.Transform(525, 340)
		assert.InDelta(t, 52.5, x, 1e-6)
		assert.InDelta(t, 34.0, y, 1e-6)

		x, y = h.Transform(1050, 680)
		assert.InDelta(t, 105.0, x, 1e-6)
		assert.InDelta(t, 68.0, y, 1e-6)
	})

	t.Run("perspective corners map corner points exactly", func(t *testing.T) {
		// A trapezoid as seen by a broadcast camera.
		corners := [4][2]float64{{300, 100}, {980, 100}, {1250, 700}, {30, 700}}
		h, err := FromCorners(corners, 105, 68)
		require.NoError(t, err)

		expect := [4][2]float64{{0, 0}, {105, 0}, {105, 68}, {0, 68}}
		for i, c := range corners {
			x, y := h.Transform(c[0], c[1])
			assert.InDelta(t, expect[i][0], x, 1e-6)
			assert.InDelta(t, expect[i][1], y, 1e-6)
		}
	})

	t.Run("collinear corners rejected", func(t *testing.T) {
		corners := [4][2]float64{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
		_, err := FromCorners(corners, 105, 68)
		assert.Error(t, err)
	})

	t.Run("invalid field dimensions rejected", func(t *testing.T) {
		corners := [4][2]float64{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
		_, err := FromCorners(corners, 0, 68)
		assert.Error(t, err)
	})
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	h, err := New([9]float64{0.1, 0, -3, 0, 0.2, 1.5, 0, 0, 1})
	require.NoError(t, err)

	h2 := FromString(h.String())
	require.True(t, h2.Enabled())

	x1, y1 := h.Transform(100, 200)
	x2, y2 := h2.Transform(100, 200)
	assert.InDelta(t, x1, x2, 1e-9)
	assert.InDelta(t, y1, y2, 1e-9)
}
