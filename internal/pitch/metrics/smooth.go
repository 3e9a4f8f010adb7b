package metrics

// Savitzky-Golay style smoothing: a quadratic least-squares fit over a
// sliding odd-length window. Interior points use the closed-form
// convolution weights for a degree-2 fit; the first and last half-window
// points are taken from quadratics fitted to the edge windows, so the
// series keeps its original length without zero-padding artefacts.

// smoothSeries smooths one coordinate series. The window is reduced to
// the series length and to the next odd number below it; windows shorter
// than 3 return the input unchanged.
func smoothSeries(values []float64, window int) []float64 {
	n := len(values)
	if window > n {
		window = n
	}
	if window%2 == 0 {
		window--
	}
	if window < 3 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	m := window / 2
	weights := savgolWeights(m)

	out := make([]float64, n)
	for i := m; i < n-m; i++ {
		var sum float64
		for k := -m; k <= m; k++ {
			sum += weights[k+m] * values[i+k]
		}
		out[i] = sum
	}

	// Edge handling: fit one quadratic to each end window and evaluate
	// it at the positions the sliding window cannot reach.
	a0, a1, a2 := fitQuadratic(values[:window])
	for i := 0; i < m; i++ {
		t := float64(i)
		out[i] = a0 + a1*t + a2*t*t
	}
	b0, b1, b2 := fitQuadratic(values[n-window:])
	for i := n - m; i < n; i++ {
		t := float64(i - (n - window))
		out[i] = b0 + b1*t + b2*t*t
	}

	return out
}

// savgolWeights returns the degree-2 smoothing weights for a window of
// half-width m, indexed 0..2m for offsets -m..+m.
func savgolWeights(m int) []float64 {
	fm := float64(m)
	norm := (2*fm - 1) * (2*fm + 1) * (2*fm + 3)
	w := make([]float64, 2*m+1)
	for k := -m; k <= m; k++ {
		fk := float64(k)
		w[k+m] = 3 * (3*fm*fm + 3*fm - 1 - 5*fk*fk) / norm
	}
	return w
}

// fitQuadratic least-squares fits y = a0 + a1·t + a2·t² over t = 0..n-1
// and returns the coefficients. Solved through the 3×3 normal equations.
func fitQuadratic(y []float64) (a0, a1, a2 float64) {
	n := float64(len(y))
	var s1, s2, s3, s4 float64 // power sums of t
	var b0, b1, b2 float64     // moment sums of y
	for i, v := range y {
		t := float64(i)
		s1 += t
		s2 += t * t
		s3 += t * t * t
		s4 += t * t * t * t
		b0 += v
		b1 += v * t
		b2 += v * t * t
	}

	// Normal matrix [[n,s1,s2],[s1,s2,s3],[s2,s3,s4]], solved by Cramer.
	det := n*(s2*s4-s3*s3) - s1*(s1*s4-s3*s2) + s2*(s1*s3-s2*s2)
	if det == 0 {
		if len(y) > 0 {
			return b0 / n, 0, 0
		}
		return 0, 0, 0
	}
	a0 = (b0*(s2*s4-s3*s3) - s1*(b1*s4-s3*b2) + s2*(b1*s3-s2*b2)) / det
	a1 = (n*(b1*s4-s3*b2) - b0*(s1*s4-s3*s2) + s2*(s1*b2-b1*s2)) / det
	a2 = (n*(s2*b2-b1*s3) - s1*(s1*b2-b1*s2) + b0*(s1*s3-s2*s2)) / det
	return a0, a1, a2
}
