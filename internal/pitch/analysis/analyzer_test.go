package analysis

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchvision/pitchtrack/internal/config"
	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/transform"
	"github.com/matchvision/pitchtrack/internal/timeutil"
)

// memFrame is an in-memory stand-in for a decoded frame.
type memFrame struct {
	index         int
	width, height int
}

func (f memFrame) Index() int                  { return f.index }
func (f memFrame) Bounds() (width, height int) { return f.width, f.height }

// memSource serves synthetic frames with scripted per-frame detections.
type memSource struct {
	meta       detect.VideoMetadata
	detections map[int][]detect.Detection
	next       int
}

func (s *memSource) Metadata() (detect.VideoMetadata, error) { return s.meta, nil }

func (s *memSource) Seek(frame int) error {
	s.next = frame
	return nil
}

func (s *memSource) Next() (detect.Frame, error) {
	if s.next >= s.meta.TotalFrames {
		return nil, io.EOF
	}
	f := memFrame{index: s.next, width: s.meta.Width, height: s.meta.Height}
	s.next++
	return f, nil
}

func (s *memSource) Close() error { return nil }

func (s *memSource) Detect(frame detect.Frame) ([]detect.Detection, error) {
	return s.detections[frame.Index()], nil
}

// walkSource scripts a single player walking along x at the given speed
// in pixel units, with an identity calibration making pixels metres.
func walkSource(frames int, fps, speed float64) *memSource {
	src := &memSource{
		meta: detect.VideoMetadata{
			Path:            "walk.mp4",
			Width:           1920,
			Height:          1080,
			FPS:             fps,
			TotalFrames:     frames,
			DurationSeconds: float64(frames) / fps,
		},
		detections: make(map[int][]detect.Detection),
	}
	for f := 0; f < frames; f++ {
		x := 10 + speed*float64(f)/fps
		src.detections[f] = []detect.Detection{{
			Box:     geom.Box{X1: x - 1, Y1: 30, X2: x + 1, Y2: 34},
			Score:   0.9,
			ClassID: detect.ClassPerson,
		}}
	}
	return src
}

func identityHomography(t *testing.T) *transform.Homography {
	t.Helper()
	h, err := transform.New([9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	require.NoError(t, err)
	return h
}

func TestAnalyzeLinearWalk(t *testing.T) {
	src := walkSource(60, 25, 1.0)
	a, err := New(Options{
		Source:     src,
		Detector:   src,
		Homography: identityHomography(t),
	})
	require.NoError(t, err)

	var lastMessage string
	a.progress = func(current, total int, message string) { lastMessage = message }

	result := a.Analyze(context.Background(), nil)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Empty(t, result.ErrorType)

	require.Len(t, result.Tracks, 1, "one walking player, one track")
	require.Len(t, result.Stats, 1)

	for _, s := range result.Stats {
		assert.InDelta(t, 1.0, s.MaxSpeed, 0.1)
		assert.InDelta(t, 1.0, s.AvgSpeed, 0.1)
		assert.Equal(t, 0, s.Sprints)
	}
	assert.Empty(t, result.Passes)
	assert.Empty(t, result.PressingEvents)

	assert.Equal(t, "1920x1080", result.Metadata.Resolution)
	assert.Equal(t, 25.0, result.Metadata.FPS)
	assert.InDelta(t, 2.4, result.Metadata.Duration, 0.01)
	assert.Equal(t, "Analysis complete", lastMessage)
}

func TestAnalyzeWithoutCalibration(t *testing.T) {
	src := walkSource(60, 25, 1.0)
	a, err := New(Options{Source: src, Detector: src})
	require.NoError(t, err)

	result := a.Analyze(context.Background(), nil)
	require.True(t, result.Success)

	// Pixel-only tracks survive but carry no derived metrics.
	require.Len(t, result.Tracks, 1)
	for _, pts := range result.Tracks {
		for _, p := range pts {
			assert.False(t, p.HasMeters)
			assert.Equal(t, 0.0, p.Velocity)
		}
	}
	assert.Empty(t, result.Stats)
}

func TestAnalyzeNoPlayers(t *testing.T) {
	src := walkSource(30, 25, 1.0)
	src.detections = map[int][]detect.Detection{}

	a, err := New(Options{Source: src, Detector: src})
	require.NoError(t, err)

	result := a.Analyze(context.Background(), nil)
	assert.False(t, result.Success)
	assert.Equal(t, ErrorTypeProcessing, result.ErrorType)
	assert.Contains(t, result.Error, "no players")
}

func TestAnalyzeInvalidMetadata(t *testing.T) {
	src := walkSource(30, 25, 1.0)
	src.meta.FPS = 0

	a, err := New(Options{Source: src, Detector: src})
	require.NoError(t, err)

	result := a.Analyze(context.Background(), nil)
	assert.False(t, result.Success)
	assert.Equal(t, ErrorTypeVideo, result.ErrorType)
}

func TestAnalyzeCanceled(t *testing.T) {
	src := walkSource(60, 25, 1.0)
	a, err := New(Options{Source: src, Detector: src, Homography: identityHomography(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := a.Analyze(ctx, nil)
	assert.False(t, result.Success)
	assert.Equal(t, ErrorTypeCanceled, result.ErrorType)
}

func TestAnalyzeClipSelection(t *testing.T) {
	src := walkSource(100, 25, 1.0)
	a, err := New(Options{Source: src, Detector: src, Homography: identityHomography(t)})
	require.NoError(t, err)

	// Only the first 1.6 s; track points must stay inside the clip.
	result := a.Analyze(context.Background(), []ClipRange{{Start: 0, End: 1.6}})
	require.True(t, result.Success)
	require.Len(t, result.Tracks, 1)
	for _, pts := range result.Tracks {
		for _, p := range pts {
			assert.Less(t, p.Frame, 40)
		}
	}
}

func TestNewValidation(t *testing.T) {
	src := walkSource(10, 25, 1.0)

	_, err := New(Options{Detector: src})
	assert.Error(t, err)

	_, err = New(Options{Source: src})
	assert.Error(t, err)

	bad := config.EmptyAnalysisConfig()
	bad.ConfidenceThreshold = new(float64)
	*bad.ConfidenceThreshold = -1
	_, err = New(Options{Source: src, Detector: src, Config: bad})
	assert.Error(t, err)
}

func TestParseClips(t *testing.T) {
	t.Run("empty selects full video", func(t *testing.T) {
		got := parseClips(nil, 25, 100)
		assert.Equal(t, []frameRange{{Start: 0, End: 100}}, got)
	})

	t.Run("valid ranges convert to frames", func(t *testing.T) {
		got := parseClips([]ClipRange{{Start: 1, End: 2}}, 25, 100)
		assert.Equal(t, []frameRange{{Start: 25, End: 50}}, got)
	})

	t.Run("out of bounds clamps", func(t *testing.T) {
		got := parseClips([]ClipRange{{Start: -1, End: 999}}, 25, 100)
		assert.Equal(t, []frameRange{{Start: 0, End: 100}}, got)
	})

	t.Run("inverted range is skipped", func(t *testing.T) {
		got := parseClips([]ClipRange{{Start: 3, End: 1}}, 25, 100)
		assert.Equal(t, []frameRange{{Start: 0, End: 100}}, got)
	})

	t.Run("mixed keeps the valid ones", func(t *testing.T) {
		got := parseClips([]ClipRange{{Start: 3, End: 1}, {Start: 0, End: 1}}, 25, 100)
		assert.Equal(t, []frameRange{{Start: 0, End: 25}}, got)
	})
}

func TestRegistry(t *testing.T) {
	src := walkSource(60, 25, 1.0)
	a, err := New(Options{Source: src, Detector: src, Homography: identityHomography(t)})
	require.NoError(t, err)

	reg := NewRegistry()
	id := reg.Start(a, nil)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		job, err := reg.Get(id)
		return err == nil && job.Status == JobCompleted
	}, 5*time.Second, 10*time.Millisecond)

	job, err := reg.Get(id)
	require.NoError(t, err)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Success)

	require.NoError(t, reg.Evict(id))
	_, err = reg.Get(id)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryUnknownJob(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, reg.Cancel("missing"), ErrJobNotFound)
	assert.ErrorIs(t, reg.Evict("missing"), ErrJobNotFound)
}

func TestAnalyzeProcessingTime(t *testing.T) {
	src := walkSource(60, 25, 1.0)
	clk := timeutil.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	var advanced sync.Once
	a, err := New(Options{
		Source:     src,
		Detector:   src,
		Homography: identityHomography(t),
		Clock:      clk,
		Progress: func(current, total int, message string) {
			advanced.Do(func() { clk.Advance(1500 * time.Millisecond) })
		},
	})
	require.NoError(t, err)

	result := a.Analyze(context.Background(), nil)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.InDelta(t, 1.5, result.Metadata.ProcessingTime, 1e-9)
}
