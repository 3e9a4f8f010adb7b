package events

import (
	"log"
	"sort"

	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

// PressingConfig holds the pressing detection thresholds.
type PressingConfig struct {
	// DistanceM is the maximum defender-attacker distance.
	DistanceM float64
	// SpeedThresholdMPS is the minimum defender speed.
	SpeedThresholdMPS float64
	// DedupWindowS collapses repeat events for the same pair closer
	// together than this.
	DedupWindowS float64
}

// DetectPressing finds frames where a player closes down an opponent at
// speed. Raw per-frame hits for the same defender-attacker pair are
// deduplicated within the configured window.
func DetectPressing(tracks map[int][]metrics.TrackPoint, cfg PressingConfig) []PressingEvent {
	idx := IndexByFrame(tracks)
	var events []PressingEvent

	for _, frame := range idx.Frames() {
		players := idx[frame]

		var teamA, teamB []PlayerPoint
		for _, pp := range players {
			switch pp.Point.Team {
			case metrics.TeamA:
				teamA = append(teamA, pp)
			case metrics.TeamB:
				teamB = append(teamB, pp)
			}
		}

		events = append(events, pressingPairs(frame, teamA, teamB, cfg)...)
		events = append(events, pressingPairs(frame, teamB, teamA, cfg)...)
	}

	events = dedupPressing(events, cfg.DedupWindowS)
	log.Printf("[Pressing] detected %d events", len(events))
	return events
}

func pressingPairs(frame int, defenders, attackers []PlayerPoint, cfg PressingConfig) []PressingEvent {
	var out []PressingEvent
	for _, def := range defenders {
		if def.Point.Velocity <= cfg.SpeedThresholdMPS {
			continue
		}
		for _, att := range attackers {
			dist := geom.Dist(
				def.Point.XmSmooth, def.Point.YmSmooth,
				att.Point.XmSmooth, att.Point.YmSmooth,
			)
			if dist >= cfg.DistanceM {
				continue
			}
			out = append(out, PressingEvent{
				Frame:         frame,
				Timestamp:     round3(def.Point.Timestamp),
				DefenderID:    def.ID,
				AttackerID:    att.ID,
				Distance:      round2(dist),
				DefenderSpeed: round2(def.Point.Velocity),
			})
		}
	}
	return out
}

// dedupPressing keeps the first event per pair within each window,
// scanning in timestamp order.
func dedupPressing(events []PressingEvent, window float64) []PressingEvent {
	if len(events) == 0 {
		return events
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	unique := events[:1:1]
	for _, ev := range events[1:] {
		last := unique[len(unique)-1]
		if ev.DefenderID == last.DefenderID &&
			ev.AttackerID == last.AttackerID &&
			ev.Timestamp-last.Timestamp < window {
			continue
		}
		unique = append(unique, ev)
	}
	return unique
}
