package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for non-compiled default tuning values.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds all tuning parameters for a match analysis run.
// All fields are pointers so that partial JSON configs merge cleanly with
// the compiled-in defaults supplied by the Get* accessors.
type AnalysisConfig struct {
	// Detection / tracking params
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	AppearanceThreshold *float64 `json:"appearance_threshold,omitempty"` // cosine distance acceptance
	IoUThreshold        *float64 `json:"iou_threshold,omitempty"`        // minimum IoU for geometry matching
	MinHits             *int     `json:"min_hits,omitempty"`             // hits before a track is emitted
	MaxAgeSeconds       *float64 `json:"max_age_seconds,omitempty"`      // lost-track retention before removal
	MaxEmbeddings       *int     `json:"max_embeddings,omitempty"`       // appearance buffer length per track
	FrameSkip           *int     `json:"frame_skip,omitempty"`           // process every Nth frame

	// Trajectory metrics params
	MinTrackLengthSeconds *float64 `json:"min_track_length_seconds,omitempty"`
	MaxSpeedMps           *float64 `json:"max_speed_mps,omitempty"`   // cap at maximum human running speed
	SprintThresholdMps    *float64 `json:"sprint_threshold_mps,omitempty"`
	SmoothingWindow       *int     `json:"smoothing_window,omitempty"`
	MaxFrameGapSeconds    *float64 `json:"max_frame_gap_seconds,omitempty"`
	MaxDistanceJumpM      *float64 `json:"max_distance_jump_m,omitempty"`

	// Pitch dimensions
	FieldLengthM *float64 `json:"field_length_m,omitempty"`
	FieldWidthM  *float64 `json:"field_width_m,omitempty"`

	// Pressing detection
	PressingDistanceM         *float64 `json:"pressing_distance_m,omitempty"`
	PressingSpeedThresholdMps *float64 `json:"pressing_speed_threshold_mps,omitempty"`

	// Pass detection
	EnablePassDetection      *bool    `json:"enable_pass_detection,omitempty"`
	PassProximityThresholdM  *float64 `json:"pass_proximity_threshold_m,omitempty"`
	PassMinDistanceM         *float64 `json:"pass_min_distance_m,omitempty"`
	PassMaxDistanceM         *float64 `json:"pass_max_distance_m,omitempty"`
	PassMaxDurationS         *float64 `json:"pass_max_duration_s,omitempty"`
	PassVelocityThresholdMps *float64 `json:"pass_velocity_threshold_mps,omitempty"`

	// Expected-threat surface override. When nil the built-in grid is used.
	XThreatGrid [][]float64 `json:"xthreat_grid,omitempty"`

	// Model loading. When true, locally supplied model artifacts are loaded
	// without signature verification (explicit trust of a local file).
	TrustLocalModel *bool `json:"trust_local_model,omitempty"`

	// Progress reporting interval in processed frames.
	ProgressIntervalFrames *int `json:"progress_interval_frames,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns a config with every field unset, so all
// accessors fall back to the compiled-in defaults.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field explicitly set to
// its default value. Used to regenerate the defaults file and in tests that
// need pointer fields populated.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ConfidenceThreshold:       ptrFloat64(0.3),
		AppearanceThreshold:       ptrFloat64(0.4),
		IoUThreshold:              ptrFloat64(0.3),
		MinHits:                   ptrInt(3),
		MaxAgeSeconds:             ptrFloat64(2.0),
		MaxEmbeddings:             ptrInt(100),
		FrameSkip:                 ptrInt(1),
		MinTrackLengthSeconds:     ptrFloat64(1.0),
		MaxSpeedMps:               ptrFloat64(12.5),
		SprintThresholdMps:        ptrFloat64(7.0),
		SmoothingWindow:           ptrInt(15),
		MaxFrameGapSeconds:        ptrFloat64(0.5),
		MaxDistanceJumpM:          ptrFloat64(10.0),
		FieldLengthM:              ptrFloat64(105.0),
		FieldWidthM:               ptrFloat64(68.0),
		PressingDistanceM:         ptrFloat64(3.5),
		PressingSpeedThresholdMps: ptrFloat64(2.5),
		EnablePassDetection:       ptrBool(true),
		PassProximityThresholdM:   ptrFloat64(3.0),
		PassMinDistanceM:          ptrFloat64(2.0),
		PassMaxDistanceM:          ptrFloat64(40.0),
		PassMaxDurationS:          ptrFloat64(3.0),
		PassVelocityThresholdMps:  ptrFloat64(1.5),
		TrustLocalModel:           ptrBool(false),
		ProgressIntervalFrames:    ptrInt(30),
	}
}

// Accessors with compiled-in fallback defaults.

func (c *AnalysisConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold != nil {
		return *c.ConfidenceThreshold
	}
	return 0.3
}

func (c *AnalysisConfig) GetAppearanceThreshold() float64 {
	if c.AppearanceThreshold != nil {
		return *c.AppearanceThreshold
	}
	return 0.4
}

func (c *AnalysisConfig) GetIoUThreshold() float64 {
	if c.IoUThreshold != nil {
		return *c.IoUThreshold
	}
	return 0.3
}

func (c *AnalysisConfig) GetMinHits() int {
	if c.MinHits != nil {
		return *c.MinHits
	}
	return 3
}

func (c *AnalysisConfig) GetMaxAgeSeconds() float64 {
	if c.MaxAgeSeconds != nil {
		return *c.MaxAgeSeconds
	}
	return 2.0
}

func (c *AnalysisConfig) GetMaxEmbeddings() int {
	if c.MaxEmbeddings != nil {
		return *c.MaxEmbeddings
	}
	return 100
}

func (c *AnalysisConfig) GetFrameSkip() int {
	if c.FrameSkip != nil && *c.FrameSkip > 0 {
		return *c.FrameSkip
	}
	return 1
}

func (c *AnalysisConfig) GetMinTrackLengthSeconds() float64 {
	if c.MinTrackLengthSeconds != nil {
		return *c.MinTrackLengthSeconds
	}
	return 1.0
}

func (c *AnalysisConfig) GetMaxSpeedMps() float64 {
	if c.MaxSpeedMps != nil {
		return *c.MaxSpeedMps
	}
	return 12.5
}

func (c *AnalysisConfig) GetSprintThresholdMps() float64 {
	if c.SprintThresholdMps != nil {
		return *c.SprintThresholdMps
	}
	return 7.0
}

func (c *AnalysisConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow != nil {
		return *c.SmoothingWindow
	}
	return 15
}

func (c *AnalysisConfig) GetMaxFrameGapSeconds() float64 {
	if c.MaxFrameGapSeconds != nil {
		return *c.MaxFrameGapSeconds
	}
	return 0.5
}

func (c *AnalysisConfig) GetMaxDistanceJumpM() float64 {
	if c.MaxDistanceJumpM != nil {
		return *c.MaxDistanceJumpM
	}
	return 10.0
}

func (c *AnalysisConfig) GetFieldLengthM() float64 {
	if c.FieldLengthM != nil {
		return *c.FieldLengthM
	}
	return 105.0
}

func (c *AnalysisConfig) GetFieldWidthM() float64 {
	if c.FieldWidthM != nil {
		return *c.FieldWidthM
	}
	return 68.0
}

func (c *AnalysisConfig) GetPressingDistanceM() float64 {
	if c.PressingDistanceM != nil {
		return *c.PressingDistanceM
	}
	return 3.5
}

func (c *AnalysisConfig) GetPressingSpeedThresholdMps() float64 {
	if c.PressingSpeedThresholdMps != nil {
		return *c.PressingSpeedThresholdMps
	}
	return 2.5
}

func (c *AnalysisConfig) GetEnablePassDetection() bool {
	if c.EnablePassDetection != nil {
		return *c.EnablePassDetection
	}
	return true
}

func (c *AnalysisConfig) GetPassProximityThresholdM() float64 {
	if c.PassProximityThresholdM != nil {
		return *c.PassProximityThresholdM
	}
	return 3.0
}

func (c *AnalysisConfig) GetPassMinDistanceM() float64 {
	if c.PassMinDistanceM != nil {
		return *c.PassMinDistanceM
	}
	return 2.0
}

func (c *AnalysisConfig) GetPassMaxDistanceM() float64 {
	if c.PassMaxDistanceM != nil {
		return *c.PassMaxDistanceM
	}
	return 40.0
}

func (c *AnalysisConfig) GetPassMaxDurationS() float64 {
	if c.PassMaxDurationS != nil {
		return *c.PassMaxDurationS
	}
	return 3.0
}

func (c *AnalysisConfig) GetPassVelocityThresholdMps() float64 {
	if c.PassVelocityThresholdMps != nil {
		return *c.PassVelocityThresholdMps
	}
	return 1.5
}

func (c *AnalysisConfig) GetTrustLocalModel() bool {
	if c.TrustLocalModel != nil {
		return *c.TrustLocalModel
	}
	return false
}

func (c *AnalysisConfig) GetProgressIntervalFrames() int {
	if c.ProgressIntervalFrames != nil && *c.ProgressIntervalFrames > 0 {
		return *c.ProgressIntervalFrames
	}
	return 30
}

// Validate checks parameter ranges. Only set fields are checked; unset
// fields fall back to known-good defaults.
func (c *AnalysisConfig) Validate() error {
	if c.ConfidenceThreshold != nil && (*c.ConfidenceThreshold <= 0 || *c.ConfidenceThreshold > 1) {
		return fmt.Errorf("confidence_threshold must be in (0, 1], got %f", *c.ConfidenceThreshold)
	}
	if c.AppearanceThreshold != nil && (*c.AppearanceThreshold <= 0 || *c.AppearanceThreshold > 2) {
		return fmt.Errorf("appearance_threshold must be in (0, 2], got %f", *c.AppearanceThreshold)
	}
	if c.IoUThreshold != nil && (*c.IoUThreshold < 0 || *c.IoUThreshold >= 1) {
		return fmt.Errorf("iou_threshold must be in [0, 1), got %f", *c.IoUThreshold)
	}
	if c.MinHits != nil && *c.MinHits < 1 {
		return fmt.Errorf("min_hits must be >= 1, got %d", *c.MinHits)
	}
	if c.MaxAgeSeconds != nil && *c.MaxAgeSeconds <= 0 {
		return fmt.Errorf("max_age_seconds must be positive, got %f", *c.MaxAgeSeconds)
	}
	if c.MaxSpeedMps != nil && *c.MaxSpeedMps <= 0 {
		return fmt.Errorf("max_speed_mps must be positive, got %f", *c.MaxSpeedMps)
	}
	if c.MinTrackLengthSeconds != nil && *c.MinTrackLengthSeconds <= 0 {
		return fmt.Errorf("min_track_length_seconds must be positive, got %f", *c.MinTrackLengthSeconds)
	}
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 3 {
		return fmt.Errorf("smoothing_window must be >= 3, got %d", *c.SmoothingWindow)
	}
	if c.FieldLengthM != nil && *c.FieldLengthM <= 0 {
		return fmt.Errorf("field_length_m must be positive, got %f", *c.FieldLengthM)
	}
	if c.FieldWidthM != nil && *c.FieldWidthM <= 0 {
		return fmt.Errorf("field_width_m must be positive, got %f", *c.FieldWidthM)
	}
	if c.PassMinDistanceM != nil && c.PassMaxDistanceM != nil && *c.PassMinDistanceM >= *c.PassMaxDistanceM {
		return fmt.Errorf("pass_min_distance_m (%f) must be below pass_max_distance_m (%f)",
			*c.PassMinDistanceM, *c.PassMaxDistanceM)
	}
	if c.XThreatGrid != nil {
		if len(c.XThreatGrid) == 0 {
			return fmt.Errorf("xthreat_grid must have at least one row")
		}
		cols := len(c.XThreatGrid[0])
		if cols == 0 {
			return fmt.Errorf("xthreat_grid rows must not be empty")
		}
		for i, row := range c.XThreatGrid {
			if len(row) != cols {
				return fmt.Errorf("xthreat_grid row %d has %d columns, want %d", i, len(row), cols)
			}
		}
	}
	return nil
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. Fields
// omitted from the file keep their compiled-in defaults, so partial
// configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the working directory. Panics if the file cannot be
// found; intended for binaries that have already validated availability.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}
