package track

import (
	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/reid"
)

// Config holds the tracker association and lifecycle parameters. All
// fields are required; Tracker does no defaulting of its own.
type Config struct {
	// AppearanceThreshold is the maximum cosine distance between a
	// detection embedding and a track's mean embedding for an appearance
	// match.
	AppearanceThreshold float64
	// IoUThreshold is the minimum overlap for the second-stage spatial
	// match.
	IoUThreshold float64
	// MinHits is the detection count a track needs before it is emitted.
	MinHits int
	// MaxAge is the number of consecutive missed frames before a track
	// is removed.
	MaxAge int
	// MaxEmbeddings bounds each track's appearance buffer.
	MaxEmbeddings int
}

// Result is one emitted track observation for the current frame.
type Result struct {
	TrackID int
	Box     geom.Box
	Score   float64
	ClassID int
}

// Tracker associates per-frame detections into identity-stable tracks.
// Association runs in two stages: appearance first (cosine distance
// against each track's mean embedding), then IoU over whatever both sides
// left unmatched. Appearance survives occlusion and re-entry; the IoU
// stage catches detections without usable embeddings.
//
// Update must be called once per frame in order; the Tracker is not safe
// for concurrent use.
type Tracker struct {
	cfg    Config
	tracks []*Track
	nextID int
	frame  int
}

func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, nextID: 1}
}

// Tracks returns the live track set, for inspection.
func (tr *Tracker) Tracks() []*Track { return tr.tracks }

// Update advances every track's motion prediction, associates the frame's
// detections, spawns tracks for the leftovers, retires stale tracks, and
// returns the confirmed matches for this frame.
func (tr *Tracker) Update(detections []detect.Detection) []Result {
	tr.frame++

	predicted := make([]geom.Box, len(tr.tracks))
	for i, t := range tr.tracks {
		predicted[i] = t.predict()
	}

	matchedDet := make([]bool, len(detections))
	matchedTrack := make([]bool, len(tr.tracks))

	// Stage 1: appearance. Rows are tracks, columns detections; tracks
	// without embeddings (or detections without one) get the neutral
	// distance 1.0, which sits above any usable threshold.
	if len(tr.tracks) > 0 && len(detections) > 0 {
		cost := make([][]float64, len(tr.tracks))
		for i, t := range tr.tracks {
			cost[i] = make([]float64, len(detections))
			mean := t.MeanEmbedding()
			for j, d := range detections {
				dist := reid.CosineDistance(mean, d.Embedding)
				if dist >= tr.cfg.AppearanceThreshold {
					cost[i][j] = forbiddenCost
				} else {
					cost[i][j] = dist
				}
			}
		}
		for i, j := range hungarianAssign(cost) {
			if j < 0 {
				continue
			}
			tr.tracks[i].update(detections[j])
			matchedTrack[i] = true
			matchedDet[j] = true
		}
	}

	// Stage 2: IoU over the remainder.
	remTracks := indicesWhere(matchedTrack, false)
	remDets := indicesWhere(matchedDet, false)
	if len(remTracks) > 0 && len(remDets) > 0 {
		cost := make([][]float64, len(remTracks))
		for ri, ti := range remTracks {
			cost[ri] = make([]float64, len(remDets))
			for rj, dj := range remDets {
				iou := geom.IoU(predicted[ti], detections[dj].Box)
				if iou <= tr.cfg.IoUThreshold {
					cost[ri][rj] = forbiddenCost
				} else {
					cost[ri][rj] = 1 - iou
				}
			}
		}
		for ri, rj := range hungarianAssign(cost) {
			if rj < 0 {
				continue
			}
			ti := remTracks[ri]
			dj := remDets[rj]
			tr.tracks[ti].update(detections[dj])
			matchedTrack[ti] = true
			matchedDet[dj] = true
		}
	}

	// Spawn tracks for unmatched detections.
	for j, matched := range matchedDet {
		if matched {
			continue
		}
		tr.tracks = append(tr.tracks, newTrack(tr.nextID, detections[j], tr.cfg.MaxEmbeddings))
		tr.nextID++
	}

	// Retire tracks past the miss budget and collect results.
	var results []Result
	live := tr.tracks[:0]
	for _, t := range tr.tracks {
		if t.TimeSinceUpdate > tr.cfg.MaxAge {
			t.State = StateRemoved
			continue
		}
		live = append(live, t)
		if t.TimeSinceUpdate == 0 && t.Hits >= tr.cfg.MinHits {
			results = append(results, Result{
				TrackID: t.ID,
				Box:     t.Box(),
				Score:   t.Score,
				ClassID: t.ClassID,
			})
		}
	}
	tr.tracks = live

	return results
}

func indicesWhere(flags []bool, want bool) []int {
	var out []int
	for i, f := range flags {
		if f == want {
			out = append(out, i)
		}
	}
	return out
}
