package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matchvision/pitchtrack/internal/pitch/analysis"
	"github.com/matchvision/pitchtrack/internal/pitch/transform"
)

// buildHomography resolves the calibration flags. -homography wins when
// both are given; neither given yields a disabled transform and the
// pipeline runs in pixel space.
func buildHomography(matrixArg, cornersArg string, fieldLength, fieldWidth float64) (*transform.Homography, error) {
	if matrixArg != "" {
		return transform.FromString(matrixArg), nil
	}
	if cornersArg == "" {
		return transform.Disabled(), nil
	}

	values, err := parseFloats(cornersArg)
	if err != nil {
		return nil, fmt.Errorf("invalid -corners: %w", err)
	}
	if len(values) != 8 {
		return nil, fmt.Errorf("invalid -corners: expected 8 values, got %d", len(values))
	}
	var corners [4][2]float64
	for i := 0; i < 4; i++ {
		corners[i][0] = values[2*i]
		corners[i][1] = values[2*i+1]
	}
	return transform.FromCorners(corners, fieldLength, fieldWidth)
}

// parseClipArg parses "start-end,start-end" second ranges. An empty
// argument means the full video.
func parseClipArg(arg string) ([]analysis.ClipRange, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, nil
	}
	var clips []analysis.ClipRange
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid clip range %q: want start-end", part)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid clip start in %q: %w", part, err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid clip end in %q: %w", part, err)
		}
		clips = append(clips, analysis.ClipRange{Start: start, End: end})
	}
	return clips, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): %w", i, p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
