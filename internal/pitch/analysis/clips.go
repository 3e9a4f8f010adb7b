package analysis

import "log"

// ClipRange selects a time span of the video, in seconds.
type ClipRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// frameRange is a half-open frame interval [Start, End).
type frameRange struct {
	Start, End int
}

// parseClips converts clip time ranges to frame ranges. Invalid entries
// are skipped with a log; no usable entries (or none at all) selects the
// full video.
func parseClips(clips []ClipRange, fps float64, totalFrames int) []frameRange {
	if len(clips) == 0 {
		return []frameRange{{Start: 0, End: totalFrames}}
	}

	var ranges []frameRange
	for _, c := range clips {
		start := int(c.Start * fps)
		if start < 0 {
			start = 0
		}
		end := int(c.End * fps)
		if end > totalFrames {
			end = totalFrames
		}
		if start >= end {
			log.Printf("[Analysis] invalid clip range %d-%d, skipping", start, end)
			continue
		}
		ranges = append(ranges, frameRange{Start: start, End: end})
		log.Printf("[Analysis] added clip: frames %d-%d (%.1fs)", start, end, float64(end-start)/fps)
	}

	if len(ranges) == 0 {
		return []frameRange{{Start: 0, End: totalFrames}}
	}
	return ranges
}
