// Package events derives match events from computed player trajectories:
// passes between teammates, pressing actions by defenders, passing-network
// structure per team, and forward-looking pass predictions and tactical
// alerts.
package events

import (
	"sort"

	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

// PassType classifies a pass by distance.
type PassType string

const (
	PassShort  PassType = "short"
	PassMedium PassType = "medium"
	PassLong   PassType = "long"
)

// PassEvent is a completed, validated pass.
type PassEvent struct {
	Frame     int          `json:"frame"`
	Timestamp float64      `json:"timestamp"`
	PasserID  int          `json:"passer_id"`
	ReceiverID int         `json:"receiver_id"`
	Team      metrics.Team `json:"team"`
	Distance  float64      `json:"distance"`
	Duration  float64      `json:"duration"`
	Type      PassType     `json:"pass_type"`
	Success   bool         `json:"success"`

	StartX float64 `json:"start_x"`
	StartY float64 `json:"start_y"`
	EndX   float64 `json:"end_x"`
	EndY   float64 `json:"end_y"`

	XThreatDelta float64 `json:"xthreat_delta"`
}

// PressingEvent is one defender closing down an opponent at speed.
type PressingEvent struct {
	Frame         int     `json:"frame"`
	Timestamp     float64 `json:"timestamp"`
	DefenderID    int     `json:"defender_id"`
	AttackerID    int     `json:"attacker_id"`
	Distance      float64 `json:"distance"`
	DefenderSpeed float64 `json:"defender_speed"`
}

// PlayerCount pairs a player with an event count, for rankings.
type PlayerCount struct {
	PlayerID int `json:"player_id"`
	Count    int `json:"count"`
}

// Triangle is a directed passing cycle between three players.
type Triangle [3]int

// NetworkMetrics summarises one team's passing network.
type NetworkMetrics struct {
	Team            metrics.Team    `json:"team"`
	TotalPasses     int             `json:"total_passes"`
	SuccessfulPasses int            `json:"successful_passes"`
	CompletionRate  float64         `json:"pass_completion_rate"`
	AvgPassDistance float64         `json:"avg_pass_distance"`
	KeyPassers      []PlayerCount   `json:"key_passers"`
	KeyReceivers    []PlayerCount   `json:"key_receivers"`
	Triangles       []Triangle      `json:"passing_triangles"`
	Centrality      map[int]float64 `json:"network_centrality"`
}

// PassingPrediction is a likely pass option for the current ball carrier.
type PassingPrediction struct {
	Frame         int     `json:"frame"`
	Timestamp     float64 `json:"timestamp"`
	BallCarrierID int     `json:"ball_carrier_id"`
	ReceiverID    int     `json:"receiver_id"`
	Probability   float64 `json:"probability"`
	Distance      float64 `json:"distance"`
	ReceiverX     float64 `json:"receiver_x"`
	ReceiverY     float64 `json:"receiver_y"`
}

// AlertSeverity grades a tactical alert.
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// TacticalAlert flags a recognised in-game pattern.
type TacticalAlert struct {
	Frame           int           `json:"frame"`
	Timestamp       float64       `json:"timestamp"`
	EventType       string        `json:"event_type"`
	Team            metrics.Team  `json:"team"`
	Severity        AlertSeverity `json:"severity"`
	Description     string        `json:"description"`
	PlayersInvolved []int         `json:"players_involved"`
}

// PlayerPoint pairs a player id with their trajectory point in a frame.
type PlayerPoint struct {
	ID    int
	Point metrics.TrackPoint
}

// FrameIndex groups trajectory points by frame for the per-frame
// detectors. Only points with pitch coordinates are indexed.
type FrameIndex map[int][]PlayerPoint

// IndexByFrame builds a FrameIndex from per-player tracks. Players are
// indexed in ascending id order so downstream pair scans are
// deterministic.
func IndexByFrame(tracks map[int][]metrics.TrackPoint) FrameIndex {
	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	idx := make(FrameIndex)
	for _, id := range ids {
		for _, p := range tracks[id] {
			if !p.HasMeters {
				continue
			}
			idx[p.Frame] = append(idx[p.Frame], PlayerPoint{ID: id, Point: p})
		}
	}
	return idx
}

// Frames returns the indexed frame numbers in ascending order.
func (idx FrameIndex) Frames() []int {
	frames := make([]int, 0, len(idx))
	for f := range idx {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}
