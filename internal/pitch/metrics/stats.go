package metrics

import "math"

// ComputeStats aggregates every track into per-player statistics. Tracks
// without pitch coordinates are skipped. Distances use the smoothed
// coordinates with the same jump filter as the velocity pass; sprints are
// counted as rising edges of the sprint flag.
func ComputeStats(tracks map[int][]TrackPoint, maxDistanceJumpM float64) map[int]PlayerStats {
	stats := make(map[int]PlayerStats, len(tracks))

	for id, track := range tracks {
		if len(track) == 0 || !track[0].HasMeters {
			continue
		}

		var totalDist float64
		for i := 1; i < len(track); i++ {
			d := math.Hypot(
				track[i].XmSmooth-track[i-1].XmSmooth,
				track[i].YmSmooth-track[i-1].YmSmooth,
			)
			if d < maxDistanceJumpM {
				totalDist += d
			}
		}

		var maxSpeed, speedSum float64
		var moving int
		for _, p := range track {
			if p.Velocity > maxSpeed {
				maxSpeed = p.Velocity
			}
			if p.Velocity > 0 {
				speedSum += p.Velocity
				moving++
			}
		}
		var avgSpeed float64
		if moving > 0 {
			avgSpeed = speedSum / float64(moving)
		}

		sprints := 0
		inSprint := false
		for _, p := range track {
			if p.Sprinting && !inSprint {
				sprints++
				inSprint = true
			} else if !p.Sprinting {
				inSprint = false
			}
		}

		stats[id] = PlayerStats{
			PlayerID:      id,
			TotalDistance: round2(totalDist),
			MaxSpeed:      round2(maxSpeed),
			AvgSpeed:      round2(avgSpeed),
			Sprints:       sprints,
			Team:          track[0].Team,
			TrackDuration: round2(track[len(track)-1].Timestamp - track[0].Timestamp),
			FramesTracked: len(track),
		}
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
