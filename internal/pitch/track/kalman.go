package track

import (
	"math"

	"github.com/matchvision/pitchtrack/internal/pitch/geom"
)

// The motion model is a fixed linear state-space formulation: a 7-element
// state [cx, cy, s, r, vcx, vcy, vs] where s is box area and r the aspect
// ratio. Position and area follow a constant-velocity model; the aspect
// ratio carries no velocity term. Only this one structure is needed, so
// the matrices are explicit flat arrays rather than a general-purpose
// filtering dependency.

// singularPivotThreshold is the minimum pivot magnitude for the innovation
// covariance inversion. Updates are skipped when the matrix is singular.
const singularPivotThreshold = 1e-12

// boxKalman holds the per-track Kalman state.
//
// x is the state vector; P the 7×7 covariance, row-major.
type boxKalman struct {
	x [7]float64
	P [49]float64
}

// Process noise Q and measurement noise R diagonals. Velocity process
// noise is small: box motion between frames is dominated by the velocity
// estimate itself, and area velocity is the least observable component.
var (
	kalmanQ = [7]float64{1, 1, 1, 1, 0.01, 0.01, 0.0001}
	kalmanR = [4]float64{1, 1, 10, 10}
)

// boxToMeasurement converts an [x1,y1,x2,y2] box to the [cx, cy, s, r]
// measurement space. A non-positive height degrades to aspect ratio 1
// instead of dividing by zero.
func boxToMeasurement(b geom.Box) (cx, cy, s, r float64) {
	w := b.Width()
	h := b.Height()
	cx = b.X1 + w/2
	cy = b.Y1 + h/2
	s = w * h
	if h > 0 {
		r = w / h
	} else {
		r = 1
	}
	return
}

// stateToBox converts the positional state back to corner form. Degenerate
// area or ratio collapse to a point box at the estimated centre.
func stateToBox(cx, cy, s, r float64) geom.Box {
	if s <= 0 || r <= 0 {
		return geom.Box{X1: cx, Y1: cy, X2: cx, Y2: cy}
	}
	w := math.Sqrt(s * r)
	h := s / w
	return geom.Box{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// newBoxKalman initialises the filter from a first detection. Position
// uncertainty starts moderate; the unobserved velocities start with high
// uncertainty so the first few updates pull them in quickly.
func newBoxKalman(b geom.Box) *boxKalman {
	k := &boxKalman{}
	k.x[0], k.x[1], k.x[2], k.x[3] = boxToMeasurement(b)

	for i := 0; i < 4; i++ {
		k.P[i*7+i] = 10
	}
	for i := 4; i < 7; i++ {
		k.P[i*7+i] = 10000
	}
	return k
}

// Predict advances the state one frame under the constant-velocity model
// and returns the predicted box. If the projected area would go
// non-positive the area velocity is clamped to zero first, preventing
// degenerate negative-area boxes.
func (k *boxKalman) Predict() geom.Box {
	if k.x[2]+k.x[6] <= 0 {
		k.x[6] = 0
	}

	// State: x' = F x with F = I plus the dt=1 velocity couplings
	// (0←4, 1←5, 2←6).
	k.x[0] += k.x[4]
	k.x[1] += k.x[5]
	k.x[2] += k.x[6]

	// Covariance: P' = F P Fᵀ + Q.
	// F P: rows 0..2 gain the matching velocity rows.
	var FP [49]float64
	copy(FP[:], k.P[:])
	for j := 0; j < 7; j++ {
		FP[0*7+j] += k.P[4*7+j]
		FP[1*7+j] += k.P[5*7+j]
		FP[2*7+j] += k.P[6*7+j]
	}
	// (F P) Fᵀ: columns 0..2 gain the matching velocity columns.
	for i := 0; i < 7; i++ {
		k.P[i*7+0] = FP[i*7+0] + FP[i*7+4]
		k.P[i*7+1] = FP[i*7+1] + FP[i*7+5]
		k.P[i*7+2] = FP[i*7+2] + FP[i*7+6]
		k.P[i*7+3] = FP[i*7+3]
		k.P[i*7+4] = FP[i*7+4]
		k.P[i*7+5] = FP[i*7+5]
		k.P[i*7+6] = FP[i*7+6]
	}
	for i := 0; i < 7; i++ {
		k.P[i*7+i] += kalmanQ[i]
	}

	return k.Box()
}

// Update corrects the state with a matched detection box.
func (k *boxKalman) Update(b geom.Box) {
	var z [4]float64
	z[0], z[1], z[2], z[3] = boxToMeasurement(b)

	// Innovation y = z − H x (H selects the first four states).
	var y [4]float64
	for i := 0; i < 4; i++ {
		y[i] = z[i] - k.x[i]
	}

	// Innovation covariance S = H P Hᵀ + R: the top-left 4×4 of P plus R.
	var S [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			S[i*4+j] = k.P[i*7+j]
		}
		S[i*4+i] += kalmanR[i]
	}

	invS, ok := invert4(S)
	if !ok {
		// Singular innovation covariance: skip the correction rather
		// than propagate NaN into the state.
		return
	}

	// Kalman gain K = P Hᵀ S⁻¹ (7×4).
	var K [28]float64
	for i := 0; i < 7; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for m := 0; m < 4; m++ {
				sum += k.P[i*7+m] * invS[m*4+j]
			}
			K[i*4+j] = sum
		}
	}

	// State correction x' = x + K y.
	for i := 0; i < 7; i++ {
		for j := 0; j < 4; j++ {
			k.x[i] += K[i*4+j] * y[j]
		}
	}

	// Covariance correction P' = (I − K H) P.
	// (K H)[i][j] = K[i][j] for j < 4, 0 otherwise.
	var newP [49]float64
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			sum := k.P[i*7+j]
			for m := 0; m < 4; m++ {
				sum -= K[i*4+m] * k.P[m*7+j]
			}
			newP[i*7+j] = sum
		}
	}
	k.P = newP

	// Guard: reinitialise from the measurement if the correction produced
	// a non-finite state.
	if !k.finite() {
		*k = *newBoxKalman(b)
	}
}

// Box returns the current box estimate derived from the filter state.
func (k *boxKalman) Box() geom.Box {
	return stateToBox(k.x[0], k.x[1], k.x[2], k.x[3])
}

func (k *boxKalman) finite() bool {
	for _, v := range k.x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for i := 0; i < 7; i++ {
		d := k.P[i*7+i]
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}

// invert4 inverts a 4×4 row-major matrix by Gauss-Jordan elimination with
// partial pivoting. Returns ok=false for a singular matrix.
func invert4(m [16]float64) ([16]float64, bool) {
	var aug [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			aug[i][j] = m[i*4+j]
		}
		aug[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		// Partial pivot.
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < singularPivotThreshold {
			return [16]float64{}, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv := 1 / aug[col][col]
		for j := 0; j < 8; j++ {
			aug[col][j] *= inv
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			for j := 0; j < 8; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	var out [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = aug[i][4+j]
		}
	}
	return out, true
}
