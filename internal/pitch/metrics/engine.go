package metrics

import (
	"log"
	"math"
)

const maxAcceleration = 10.0 // m/s², clamp for frame-to-frame jitter

// Config holds the trajectory metric parameters.
type Config struct {
	// MinTrackLengthSeconds drops tracks shorter than this before any
	// metric is computed.
	MinTrackLengthSeconds float64
	// SmoothingWindow is the polynomial smoother window in frames.
	SmoothingWindow int
	// MaxSpeedMPS caps computed velocity at a plausible human speed.
	MaxSpeedMPS float64
	// SprintThresholdMPS marks a point as sprinting.
	SprintThresholdMPS float64
	// MaxDistanceJumpM rejects frame-to-frame moves larger than this as
	// identity switches or projection glitches.
	MaxDistanceJumpM float64
	// MaxFrameGapSeconds rejects velocity across gaps longer than this.
	MaxFrameGapSeconds float64
	// FieldLength/FieldWidth are pitch dimensions in metres.
	FieldLength float64
	FieldWidth  float64
	// XThreatGrid overrides the built-in threat surface when set.
	XThreatGrid [][]float64
}

// Engine computes per-point trajectory metrics and mutates the tracks it
// is given.
type Engine struct {
	cfg     Config
	xthreat *XThreatGrid
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		xthreat: NewXThreatGrid(cfg.FieldLength, cfg.FieldWidth, cfg.XThreatGrid),
	}
}

// Compute filters out short tracks, then fills smoothed coordinates,
// velocity, acceleration, sprint flags and xThreat for every remaining
// point. Tracks without pitch coordinates are kept but skipped.
func (e *Engine) Compute(tracks map[int][]TrackPoint, fps float64) {
	minLen := int(e.cfg.MinTrackLengthSeconds * fps)

	for id, track := range tracks {
		if len(track) < minLen {
			delete(tracks, id)
			continue
		}
		if len(track) == 0 || !track[0].HasMeters {
			log.Printf("[Metrics] player %d: no pitch coordinates, skipping", id)
			continue
		}

		xs := make([]float64, len(track))
		ys := make([]float64, len(track))
		ts := make([]float64, len(track))
		for i, p := range track {
			xs[i] = p.Xm
			ys[i] = p.Ym
			ts[i] = p.Timestamp
		}

		xsSmooth := smoothSeries(xs, e.cfg.SmoothingWindow)
		ysSmooth := smoothSeries(ys, e.cfg.SmoothingWindow)

		velocity := e.computeVelocity(xsSmooth, ysSmooth, ts, fps)
		accel := computeAcceleration(velocity, ts)

		for i := range track {
			p := &track[i]
			p.XmSmooth = xsSmooth[i]
			p.YmSmooth = ysSmooth[i]
			p.Velocity = velocity[i]
			p.Acceleration = accel[i]
			p.Sprinting = velocity[i] > e.cfg.SprintThresholdMPS
			p.XThreat = e.xthreat.Value(p.XmSmooth, p.YmSmooth)
		}
	}
}

// XThreatAt exposes the engine's threat surface lookup.
func (e *Engine) XThreatAt(x, y float64) float64 { return e.xthreat.Value(x, y) }

// computeVelocity differentiates the smoothed positions. Moves larger
// than the jump limit or across gaps longer than the gap limit produce
// zero velocity instead of a spike; the result is clamped to MaxSpeedMPS.
// The first point always gets zero.
func (e *Engine) computeVelocity(xs, ys, ts []float64, fps float64) []float64 {
	v := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		dt := ts[i] - ts[i-1]
		if dt == 0 {
			dt = 1.0 / fps
		}
		dist := math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])

		if dist >= e.cfg.MaxDistanceJumpM || dt >= e.cfg.MaxFrameGapSeconds {
			v[i] = 0
			continue
		}
		speed := dist / dt
		if speed > e.cfg.MaxSpeedMPS {
			speed = e.cfg.MaxSpeedMPS
		}
		v[i] = speed
	}
	return v
}

// computeAcceleration differentiates velocity, clamped to ±10 m/s².
func computeAcceleration(v, ts []float64) []float64 {
	a := make([]float64, len(v))
	for i := 1; i < len(v); i++ {
		dt := ts[i] - ts[i-1]
		if dt == 0 {
			dt = 0.033
		}
		acc := (v[i] - v[i-1]) / dt
		if acc > maxAcceleration {
			acc = maxAcceleration
		} else if acc < -maxAcceleration {
			acc = -maxAcceleration
		}
		a[i] = acc
	}
	return a
}
