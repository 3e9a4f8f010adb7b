package analysis

import (
	"fmt"

	"github.com/matchvision/pitchtrack/internal/pitch/events"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

// ResultMetadata describes the analysed source and run.
type ResultMetadata struct {
	VideoPath      string  `json:"video_path"`
	Duration       float64 `json:"duration"`
	FPS            float64 `json:"fps"`
	Resolution     string  `json:"resolution"`
	ProcessingTime float64 `json:"processing_time"`
}

// Result is the complete outcome of one analysis run. On failure only
// Success, Error and ErrorType are guaranteed; a canceled run carries
// whatever partial data had been accumulated.
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`

	Metadata ResultMetadata `json:"metadata"`

	Tracks         map[int][]metrics.TrackPoint          `json:"tracks,omitempty"`
	Stats          map[int]metrics.PlayerStats           `json:"stats,omitempty"`
	PressingEvents []events.PressingEvent                `json:"events,omitempty"`
	Passes         []events.PassEvent                    `json:"passes,omitempty"`
	Network        map[metrics.Team]events.NetworkMetrics `json:"network_metrics,omitempty"`
	Predictions    []events.PassingPrediction            `json:"passing_predictions,omitempty"`
	Alerts         []events.TacticalAlert                `json:"tactical_alerts,omitempty"`
}

func failedResult(err error) *Result {
	return &Result{
		Success:   false,
		Error:     err.Error(),
		ErrorType: classify(err),
	}
}

func resolutionString(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}
