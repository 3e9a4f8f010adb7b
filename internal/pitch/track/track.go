package track

import (
	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/reid"
)

// TrackState is the lifecycle state of a track.
type TrackState int

const (
	// StateActive means the track was updated by a detection this frame.
	StateActive TrackState = iota
	// StateLost means the track is coasting on prediction alone.
	StateLost
	// StateRemoved means the track exceeded the miss budget and will be
	// dropped from the tracker.
	StateRemoved
)

func (s TrackState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateLost:
		return "lost"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Track is one tracked object: the Kalman motion state plus identity
// bookkeeping and a bounded buffer of appearance embeddings.
type Track struct {
	ID    int
	State TrackState

	// Hits counts detections associated over the track lifetime; Age the
	// frames since creation; TimeSinceUpdate the frames since the last
	// associated detection.
	Hits            int
	Age             int
	TimeSinceUpdate int

	Score   float64
	ClassID int

	kf *boxKalman

	// embeddings is a ring buffer of the most recent appearance vectors.
	// meanDirty marks the cached mean stale.
	embeddings [][]float64
	embedNext  int
	embedCap   int
	meanCache  []float64
	meanDirty  bool
}

func newTrack(id int, d detect.Detection, maxEmbeddings int) *Track {
	t := &Track{
		ID:       id,
		State:    StateActive,
		Hits:     1,
		Score:    d.Score,
		ClassID:  d.ClassID,
		kf:       newBoxKalman(d.Box),
		embedCap: maxEmbeddings,
	}
	t.pushEmbedding(d.Embedding)
	return t
}

// Box returns the current box estimate from the motion filter.
func (t *Track) Box() geom.Box { return t.kf.Box() }

// predict advances the motion model one frame and ages the track.
func (t *Track) predict() geom.Box {
	b := t.kf.Predict()
	t.Age++
	t.TimeSinceUpdate++
	if t.TimeSinceUpdate > 0 {
		t.State = StateLost
	}
	return b
}

// update corrects the track with an associated detection.
func (t *Track) update(d detect.Detection) {
	t.kf.Update(d.Box)
	t.Hits++
	t.TimeSinceUpdate = 0
	t.State = StateActive
	t.Score = d.Score
	t.ClassID = d.ClassID
	t.pushEmbedding(d.Embedding)
}

func (t *Track) pushEmbedding(e []float64) {
	if len(e) == 0 || t.embedCap <= 0 {
		return
	}
	if len(t.embeddings) < t.embedCap {
		t.embeddings = append(t.embeddings, e)
	} else {
		t.embeddings[t.embedNext] = e
		t.embedNext = (t.embedNext + 1) % t.embedCap
	}
	t.meanDirty = true
}

// MeanEmbedding returns the mean of the buffered appearance vectors, or
// nil when the track has none. The result is cached between pushes.
func (t *Track) MeanEmbedding() []float64 {
	if len(t.embeddings) == 0 {
		return nil
	}
	if t.meanDirty || t.meanCache == nil {
		t.meanCache = reid.Mean(t.embeddings)
		t.meanDirty = false
	}
	return t.meanCache
}
