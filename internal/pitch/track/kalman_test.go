package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchvision/pitchtrack/internal/pitch/geom"
)

func TestBoxMeasurementRoundTrip(t *testing.T) {
	b := geom.Box{X1: 10, Y1: 10, X2: 20, Y2: 30}
	cx, cy, s, r := boxToMeasurement(b)
	assert.InDelta(t, 15.0, cx, 1e-9)
	assert.InDelta(t, 20.0, cy, 1e-9)
	assert.InDelta(t, 200.0, s, 1e-9)
	assert.InDelta(t, 0.5, r, 1e-9)

	back := stateToBox(cx, cy, s, r)
	assert.InDelta(t, b.X1, back.X1, 1e-9)
	assert.InDelta(t, b.Y1, back.Y1, 1e-9)
	assert.InDelta(t, b.X2, back.X2, 1e-9)
	assert.InDelta(t, b.Y2, back.Y2, 1e-9)
}

func TestBoxMeasurementDegenerate(t *testing.T) {
	// Zero-height box falls back to aspect ratio 1.
	_, _, _, r := boxToMeasurement(geom.Box{X1: 5, Y1: 5, X2: 15, Y2: 5})
	assert.Equal(t, 1.0, r)

	// Non-positive area collapses to a point box at the centre.
	b := stateToBox(3, 4, -1, 0.5)
	assert.Equal(t, geom.Box{X1: 3, Y1: 4, X2: 3, Y2: 4}, b)
}

func TestKalmanPredictStationary(t *testing.T) {
	k := newBoxKalman(geom.Box{X1: 0, Y1: 0, X2: 10, Y2: 20})

	// Velocities start at zero, so prediction alone holds position.
	b := k.Predict()
	assert.InDelta(t, 5.0, (b.X1+b.X2)/2, 1e-9)
	assert.InDelta(t, 10.0, (b.Y1+b.Y2)/2, 1e-9)
}

func TestKalmanLearnsVelocity(t *testing.T) {
	k := newBoxKalman(geom.Box{X1: 0, Y1: 0, X2: 10, Y2: 20})

	// Constant motion of +2 px/frame in x.
	for i := 1; i <= 5; i++ {
		k.Predict()
		dx := float64(2 * i)
		k.Update(geom.Box{X1: dx, Y1: 0, X2: dx + 10, Y2: 20})
	}

	// A prediction with no correction should continue the motion.
	b := k.Predict()
	cx := (b.X1 + b.X2) / 2
	assert.InDelta(t, 17.0, cx, 0.25, "expected centre to advance by learned velocity")
}

func TestKalmanScaleVelocityClamp(t *testing.T) {
	k := newBoxKalman(geom.Box{X1: 0, Y1: 0, X2: 4, Y2: 4})
	// Force an area velocity that would drive the area negative.
	k.x[6] = -100

	b := k.Predict()
	assert.Equal(t, 0.0, k.x[6], "area velocity should be clamped")
	assert.True(t, k.x[2] > 0, "area must stay positive")
	assert.True(t, b.Width() >= 0 && b.Height() >= 0)
}

func TestInvert4(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		m := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
		inv, ok := invert4(m)
		require.True(t, ok)
		assert.Equal(t, m, inv)
	})

	t.Run("diagonal", func(t *testing.T) {
		m := [16]float64{2, 0, 0, 0, 0, 4, 0, 0, 0, 0, 5, 0, 0, 0, 0, 10}
		inv, ok := invert4(m)
		require.True(t, ok)
		assert.InDelta(t, 0.5, inv[0], 1e-12)
		assert.InDelta(t, 0.25, inv[5], 1e-12)
		assert.InDelta(t, 0.2, inv[10], 1e-12)
		assert.InDelta(t, 0.1, inv[15], 1e-12)
	})

	t.Run("product is identity", func(t *testing.T) {
		m := [16]float64{
			4, 1, 0, 2,
			1, 5, 1, 0,
			0, 1, 6, 1,
			2, 0, 1, 7,
		}
		inv, ok := invert4(m)
		require.True(t, ok)
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				var sum float64
				for l := 0; l < 4; l++ {
					sum += m[i*4+l] * inv[l*4+j]
				}
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, sum, 1e-9)
			}
		}
	})

	t.Run("singular", func(t *testing.T) {
		// Row 2 is twice row 1.
		m := [16]float64{
			1, 2, 3, 4,
			2, 4, 6, 8,
			0, 1, 0, 0,
			0, 0, 1, 0,
		}
		_, ok := invert4(m)
		assert.False(t, ok)
	})
}

func TestKalmanUpdateSkipsSingular(t *testing.T) {
	k := newBoxKalman(geom.Box{X1: 0, Y1: 0, X2: 10, Y2: 20})
	before := k.x

	// Zero out covariance and measurement noise influence by making the
	// innovation covariance singular is not reachable through the public
	// path (R keeps S positive definite), so exercise the guard directly.
	var s [16]float64
	_, ok := invert4(s)
	assert.False(t, ok)

	// A normal update must leave the state finite.
	k.Predict()
	k.Update(geom.Box{X1: 1, Y1: 1, X2: 11, Y2: 21})
	for i, v := range k.x {
		assert.False(t, math.IsNaN(v), "state component %d is NaN (was %v)", i, before[i])
	}
}
