// Package transform maps pixel coordinates onto pitch-plane metre
// coordinates through a validated 3×3 homography. A disabled transform is
// a valid state: every lookup degrades to an identity passthrough so the
// rest of the pipeline keeps working in pixel space.
package transform

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matchvision/pitchtrack/internal/monitoring"
)

// wEpsilon is the minimum |w| for the perspective divide. Below it the
// original pixel coordinates are returned instead of producing Inf/NaN.
const wEpsilon = 1e-10

// Homography maps image-plane points onto the pitch plane. The zero value
// is a disabled transform.
type Homography struct {
	m       *mat.Dense // 3×3, nil when disabled
	enabled bool
}

// Disabled returns a transform that passes pixel coordinates through
// unchanged.
func Disabled() *Homography {
	return &Homography{}
}

// New builds a transform from a row-major 9-element matrix. The matrix
// must be non-zero and invertible.
func New(values [9]float64) (*Homography, error) {
	allZero := true
	for _, v := range values {
		if v != 0 {
			allZero = false
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("homography matrix contains non-finite value %f", v)
		}
	}
	if allZero {
		return nil, fmt.Errorf("homography matrix is all zeros")
	}

	m := mat.NewDense(3, 3, values[:])
	if det := mat.Det(m); math.Abs(det) < wEpsilon {
		return nil, fmt.Errorf("homography matrix is singular (det=%g)", det)
	}
	return &Homography{m: m, enabled: true}, nil
}

// FromString parses a homography from 9 comma-separated values. Any parse
// or validation failure yields a disabled transform rather than an error:
// the caller continues in pixel space, matching the degraded-calibration
// behaviour of the rest of the pipeline.
func FromString(s string) *Homography {
	parts := strings.Split(s, ",")
	if len(parts) != 9 {
		log.Printf("[Homography] expected 9 comma-separated values, got %d; transform disabled", len(parts))
		return Disabled()
	}
	var values [9]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Printf("[Homography] failed to parse value %d (%q): %v; transform disabled", i, p, err)
			return Disabled()
		}
		values[i] = v
	}
	h, err := New(values)
	if err != nil {
		log.Printf("[Homography] invalid matrix: %v; transform disabled", err)
		return Disabled()
	}
	return h
}

// FromCorners solves the 4-point perspective problem: the four supplied
// pixel points are the pitch corners in image space, ordered top-left,
// top-right, bottom-right, bottom-left, mapped onto the metre-space
// rectangle (0,0)–(fieldLength, fieldWidth).
func FromCorners(corners [4][2]float64, fieldLength, fieldWidth float64) (*Homography, error) {
	if fieldLength <= 0 || fieldWidth <= 0 {
		return nil, fmt.Errorf("field dimensions must be positive, got %f×%f", fieldLength, fieldWidth)
	}

	dst := [4][2]float64{
		{0, 0},
		{fieldLength, 0},
		{fieldLength, fieldWidth},
		{0, fieldWidth},
	}

	// Direct linear transform with h9 fixed to 1: each correspondence
	// (x,y) → (X,Y) contributes two rows of an 8×8 system.
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := corners[i][0], corners[i][1]
		X, Y := dst[i][0], dst[i][1]
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -X * x, -X * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -Y * x, -Y * y})
		b.SetVec(2*i, X)
		b.SetVec(2*i+1, Y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("degenerate corner configuration: %w", err)
	}

	var values [9]float64
	for i := 0; i < 8; i++ {
		values[i] = h.AtVec(i)
	}
	values[8] = 1
	return New(values)
}

// Enabled reports whether the transform holds a validated matrix.
func (h *Homography) Enabled() bool { return h.enabled }

// Transform maps a pixel point to metre coordinates. When the transform
// is disabled the input passes through unchanged. A near-zero perspective
// denominator is logged and falls back to the input rather than producing
// Inf/NaN.
func (h *Homography) Transform(x, y float64) (xm, ym float64) {
	if !h.enabled {
		return x, y
	}

	px := h.m.At(0, 0)*x + h.m.At(0, 1)*y + h.m.At(0, 2)
	py := h.m.At(1, 0)*x + h.m.At(1, 1)*y + h.m.At(1, 2)
	w := h.m.At(2, 0)*x + h.m.At(2, 1)*y + h.m.At(2, 2)

	if math.Abs(w) < wEpsilon {
		monitoring.Logf("[Homography] near-zero denominator transforming (%f, %f); returning pixel coordinates", x, y)
		return x, y
	}
	return px / w, py / w
}

// Inverse returns the metre-to-pixel transform. Fails for a disabled
// transform.
func (h *Homography) Inverse() (*Homography, error) {
	if !h.enabled {
		return nil, fmt.Errorf("cannot invert a disabled homography")
	}
	var inv mat.Dense
	if err := inv.Inverse(h.m); err != nil {
		return nil, fmt.Errorf("homography inversion failed: %w", err)
	}
	var values [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			values[3*r+c] = inv.At(r, c)
		}
	}
	return New(values)
}

// Matrix returns a row-major copy of the matrix values, or the identity
// for a disabled transform.
func (h *Homography) Matrix() [9]float64 {
	if !h.enabled {
		return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	var values [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			values[3*r+c] = h.m.At(r, c)
		}
	}
	return values
}

// String renders the matrix as 9 comma-separated values, the same format
// FromString accepts.
func (h *Homography) String() string {
	values := h.Matrix()
	parts := make([]string, 9)
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
