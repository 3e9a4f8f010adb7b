package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("mps"))
	assert.True(t, IsValid("kph"))
	assert.True(t, IsValid("mph"))
	assert.False(t, IsValid("knots"))
	assert.False(t, IsValid(""))
}

func TestConvertSpeed(t *testing.T) {
	t.Run("mps passthrough", func(t *testing.T) {
		assert.InDelta(t, 7.0, ConvertSpeed(7.0, MPS), 1e-9)
	})
	t.Run("kph", func(t *testing.T) {
		assert.InDelta(t, 25.2, ConvertSpeed(7.0, KPH), 1e-9)
	})
	t.Run("mph", func(t *testing.T) {
		assert.InDelta(t, 15.66, ConvertSpeed(7.0, MPH), 0.01)
	})
	t.Run("unknown unit passthrough", func(t *testing.T) {
		assert.InDelta(t, 7.0, ConvertSpeed(7.0, "furlongs"), 1e-9)
	})
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "km/h", Suffix(KPH))
	assert.Equal(t, "mph", Suffix(MPH))
	assert.Equal(t, "m/s", Suffix(MPS))
	assert.Equal(t, "m/s", Suffix("bogus"))
}
