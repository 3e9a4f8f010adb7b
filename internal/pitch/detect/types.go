package detect

import (
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
)

// Object class identifiers. Person and ball follow the COCO numbering used
// by the YOLO-family backends; referee is only produced by pitch-specific
// models and mapped into the extended range by their adapters.
const (
	ClassPerson  = 0
	ClassBall    = 32
	ClassReferee = 100
)

// Detection is the canonical per-frame detector output. Every backend
// adapter normalises its native result into this shape.
type Detection struct {
	Box       geom.Box  `json:"box"`
	Score     float64   `json:"score"`
	ClassID   int       `json:"class_id"`
	Embedding []float64 `json:"-"` // filled in by the embedder, not the detector
}

// Frame is a single decoded video frame. The concrete pixel representation
// is owned by the backend adapter; the core only needs the index and
// dimensions, and passes the frame through opaquely to detector and
// embedder collaborators.
type Frame interface {
	Index() int
	Bounds() (width, height int)
}

// VideoMetadata describes a validated video source.
type VideoMetadata struct {
	Path            string  `json:"path"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	TotalFrames     int     `json:"total_frames"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Detector produces detections for one frame. Implementations must be safe
// for concurrent invocation from independent job goroutines when a single
// instance is shared between jobs.
type Detector interface {
	Detect(frame Frame) ([]Detection, error)
}

// Embedder produces one fixed-length appearance vector per input box, in
// input order. Implementations must be safe for concurrent invocation when
// shared between jobs.
type Embedder interface {
	Extract(frame Frame, boxes []geom.Box) ([][]float64, error)
	// Dim returns the embedding dimensionality, used for zero placeholders.
	Dim() int
}

// FrameSource yields frames of one video in strictly increasing order.
// Implementations are not required to be concurrency-safe; each analysis
// job owns its source exclusively.
type FrameSource interface {
	Metadata() (VideoMetadata, error)
	// Seek positions the source so the next Next call returns the given
	// frame index.
	Seek(frame int) error
	// Next returns the next frame, or io.EOF when the source is exhausted.
	Next() (Frame, error)
	Close() error
}

// FilterByScore returns the detections whose confidence is at or above the
// threshold, preserving input order.
func FilterByScore(dets []Detection, threshold float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// SplitBall separates ball detections from the rest. The ball is not fed
// through the person tracker; it is matched per frame by proximity instead.
func SplitBall(dets []Detection) (players, balls []Detection) {
	for _, d := range dets {
		if d.ClassID == ClassBall {
			balls = append(balls, d)
		} else {
			players = append(players, d)
		}
	}
	return players, balls
}
