package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineConfig() Config {
	return Config{
		MinTrackLengthSeconds: 1.0,
		SmoothingWindow:       15,
		MaxSpeedMPS:           12.5,
		SprintThresholdMPS:    7.0,
		MaxDistanceJumpM:      10.0,
		MaxFrameGapSeconds:    0.5,
		FieldLength:           105,
		FieldWidth:            68,
	}
}

// walkTrack builds a track moving at the given speed along x, one point
// per frame at the given fps.
func walkTrack(n int, fps, speed float64) []TrackPoint {
	pts := make([]TrackPoint, n)
	for i := range pts {
		t := float64(i) / fps
		pts[i] = TrackPoint{
			Frame:     i,
			Timestamp: t,
			Xm:        speed * t,
			Ym:        30,
			HasMeters: true,
		}
	}
	return pts
}

func TestSmoothSeries(t *testing.T) {
	t.Run("short series passes through", func(t *testing.T) {
		in := []float64{1, 2}
		assert.Equal(t, in, smoothSeries(in, 15))
	})

	t.Run("linear data is preserved", func(t *testing.T) {
		// A quadratic fit reproduces linear data exactly, including at
		// the window edges.
		in := make([]float64, 30)
		for i := range in {
			in[i] = 2.5 * float64(i)
		}
		out := smoothSeries(in, 15)
		require.Len(t, out, 30)
		for i := range out {
			assert.InDelta(t, in[i], out[i], 1e-9, "index %d", i)
		}
	})

	t.Run("noise is attenuated", func(t *testing.T) {
		in := make([]float64, 41)
		for i := range in {
			in[i] = float64(i)
			if i%2 == 0 {
				in[i] += 0.5
			} else {
				in[i] -= 0.5
			}
		}
		out := smoothSeries(in, 15)
		var residual float64
		for i := 10; i < 31; i++ {
			residual += math.Abs(out[i] - float64(i))
		}
		assert.Less(t, residual/21, 0.2, "smoothed interior should track the trend")
	})

	t.Run("even window is reduced to odd", func(t *testing.T) {
		in := []float64{1, 1, 1, 1, 1, 1}
		out := smoothSeries(in, 4)
		for _, v := range out {
			assert.InDelta(t, 1.0, v, 1e-9)
		}
	})

	t.Run("weights sum to one", func(t *testing.T) {
		for m := 1; m <= 10; m++ {
			var sum float64
			for _, w := range savgolWeights(m) {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "half-width %d", m)
		}
	})
}

func TestEngineVelocity(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	tracks := map[int][]TrackPoint{
		1: walkTrack(50, fps, 3.0),
	}
	eng.Compute(tracks, fps)

	track := tracks[1]
	require.Len(t, track, 50)
	assert.Equal(t, 0.0, track[0].Velocity, "first point has no predecessor")
	for i := 1; i < len(track); i++ {
		assert.InDelta(t, 3.0, track[i].Velocity, 0.1, "index %d", i)
		assert.False(t, track[i].Sprinting)
	}
}

func TestEngineRejectsTeleport(t *testing.T) {
	fps := 25.0
	cfg := testEngineConfig()
	cfg.SmoothingWindow = 3 // keep the jump sharp through smoothing
	eng := NewEngine(cfg)

	track := walkTrack(50, fps, 1.0)
	// An identity switch mid-track: a 50 m jump in one frame.
	for i := 25; i < 50; i++ {
		track[i].Xm += 50
	}
	tracks := map[int][]TrackPoint{1: track}
	eng.Compute(tracks, fps)

	// The jump frame reads zero velocity instead of a 1250 m/s spike.
	assert.Equal(t, 0.0, tracks[1][25].Velocity)
	assert.InDelta(t, 1.0, tracks[1][30].Velocity, 0.2)
}

func TestEngineClampsSpeed(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	// 20 m/s is 0.8 m per frame: under the jump limit, over the speed cap.
	tracks := map[int][]TrackPoint{1: walkTrack(50, fps, 20.0)}
	eng.Compute(tracks, fps)

	for i := 5; i < 45; i++ {
		assert.LessOrEqual(t, tracks[1][i].Velocity, 12.5, "index %d", i)
	}
}

func TestEngineSprintFlag(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	tracks := map[int][]TrackPoint{1: walkTrack(60, fps, 8.0)}
	eng.Compute(tracks, fps)

	sprinting := 0
	for _, p := range tracks[1][5:55] {
		if p.Sprinting {
			sprinting++
		}
	}
	assert.Greater(t, sprinting, 40, "8 m/s should read as sprinting")
}

func TestEngineDropsShortTracks(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	tracks := map[int][]TrackPoint{
		1: walkTrack(50, fps, 2.0), // 2 s, kept
		2: walkTrack(10, fps, 2.0), // 0.4 s, dropped
	}
	eng.Compute(tracks, fps)

	assert.Contains(t, tracks, 1)
	assert.NotContains(t, tracks, 2)
}

func TestEngineSkipsPixelOnlyTracks(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	track := walkTrack(50, fps, 2.0)
	for i := range track {
		track[i].HasMeters = false
	}
	tracks := map[int][]TrackPoint{1: track}
	eng.Compute(tracks, fps)

	require.Contains(t, tracks, 1)
	for _, p := range tracks[1] {
		assert.Equal(t, 0.0, p.Velocity)
		assert.Equal(t, 0.0, p.XmSmooth)
	}
}

func TestXThreatGrid(t *testing.T) {
	g := NewXThreatGrid(105, 68, nil)

	t.Run("rises toward goal", func(t *testing.T) {
		left := g.Value(5, 34)
		right := g.Value(100, 34)
		assert.Greater(t, right, left)
	})

	t.Run("central channel beats wings", func(t *testing.T) {
		centre := g.Value(90, 34)
		wing := g.Value(90, 2)
		assert.Greater(t, centre, wing)
	})

	t.Run("out of bounds clamps", func(t *testing.T) {
		assert.Equal(t, g.Value(0, 0), g.Value(-10, -10))
		assert.Equal(t, g.Value(104.9, 67.9), g.Value(500, 500))
	})

	t.Run("override", func(t *testing.T) {
		og := NewXThreatGrid(105, 68, [][]float64{{0.42}})
		assert.Equal(t, 0.42, og.Value(50, 30))
	})

	t.Run("ragged override falls back", func(t *testing.T) {
		og := NewXThreatGrid(105, 68, [][]float64{{1, 2}, {3}})
		assert.Equal(t, g.Value(50, 30), og.Value(50, 30))
	})
}

func TestComputeStats(t *testing.T) {
	fps := 25.0
	eng := NewEngine(testEngineConfig())

	track := walkTrack(100, fps, 3.0)
	for i := range track {
		track[i].Team = TeamA
	}
	tracks := map[int][]TrackPoint{7: track}
	eng.Compute(tracks, fps)

	stats := ComputeStats(tracks, 10.0)
	require.Contains(t, stats, 7)
	s := stats[7]

	assert.Equal(t, 7, s.PlayerID)
	assert.Equal(t, TeamA, s.Team)
	assert.Equal(t, 100, s.FramesTracked)
	// 99 steps of 0.12 m.
	assert.InDelta(t, 11.88, s.TotalDistance, 0.1)
	assert.InDelta(t, 3.0, s.MaxSpeed, 0.1)
	assert.InDelta(t, 3.0, s.AvgSpeed, 0.1)
	assert.Equal(t, 0, s.Sprints)
	assert.InDelta(t, 99.0/25.0, s.TrackDuration, 1e-9)
}

func TestComputeStatsSprintEdges(t *testing.T) {
	track := []TrackPoint{
		{HasMeters: true, Sprinting: false},
		{HasMeters: true, Sprinting: true},
		{HasMeters: true, Sprinting: true},
		{HasMeters: true, Sprinting: false},
		{HasMeters: true, Sprinting: true},
		{HasMeters: true, Sprinting: false, Timestamp: 0.2},
	}
	stats := ComputeStats(map[int][]TrackPoint{1: track}, 10.0)
	require.Contains(t, stats, 1)
	assert.Equal(t, 2, stats[1].Sprints, "two separate sprint bursts")
}
