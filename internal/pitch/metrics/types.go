// Package metrics derives physical trajectory metrics from tracked player
// positions in pitch coordinates: polynomial window smoothing, velocity
// and acceleration with outlier rejection, sprint flags, expected-threat
// values, and per-player aggregate statistics.
package metrics

import "github.com/matchvision/pitchtrack/internal/pitch/geom"

// Team labels a tracked player's side.
type Team string

const (
	TeamA       Team = "A"
	TeamB       Team = "B"
	TeamUnknown Team = "Unknown"
)

// TrackPoint is one frame of a player's trajectory. X/Y are pixel
// coordinates of the foot point; Xm/Ym the projected pitch coordinates in
// metres. The smoothed coordinates and derived metrics are filled in by
// the Engine.
type TrackPoint struct {
	Frame     int     `json:"frame"`
	Timestamp float64 `json:"timestamp"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	Xm       float64 `json:"xm"`
	Ym       float64 `json:"ym"`
	XmSmooth float64 `json:"xm_smooth"`
	YmSmooth float64 `json:"ym_smooth"`

	// HasMeters is false when no calibration was available and Xm/Ym
	// carry raw pixel values.
	HasMeters bool `json:"-"`

	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
	Sprinting    bool    `json:"is_sprinting"`
	XThreat      float64 `json:"xthreat"`

	Team       Team     `json:"team"`
	Confidence float64  `json:"confidence"`
	Box        geom.Box `json:"bbox"`
	HasBall    bool     `json:"has_ball"`
}

// PlayerStats aggregates one player's trajectory.
type PlayerStats struct {
	PlayerID      int     `json:"player_id"`
	TotalDistance float64 `json:"total_distance"`
	MaxSpeed      float64 `json:"max_speed"`
	AvgSpeed      float64 `json:"avg_speed"`
	Sprints       int     `json:"sprints"`
	Team          Team    `json:"team"`
	TrackDuration float64 `json:"track_duration"`
	FramesTracked int     `json:"frames_tracked"`
}
