package reid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ClusterTeams partitions player embeddings into two clusters via k-means
// with restarts, returning one label (0 or 1) per embedding. Labels are
// stable for a given input; which cluster is "team A" is decided by the
// caller. Returns nil when fewer than two embeddings are supplied.
func ClusterTeams(embeddings [][]float64, restarts int, seed int64) []int {
	if len(embeddings) < 2 {
		return nil
	}
	if restarts < 1 {
		restarts = 1
	}

	rng := rand.New(rand.NewSource(seed))

	bestInertia := math.Inf(1)
	var bestLabels []int

	for r := 0; r < restarts; r++ {
		labels, inertia := kmeans2(embeddings, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels
}

// kmeans2 runs a single Lloyd iteration loop with k=2 and random distinct
// initial centroids.
func kmeans2(points [][]float64, rng *rand.Rand) ([]int, float64) {
	n := len(points)
	dim := len(points[0])

	// Pick two distinct points as initial centroids.
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	centroids := [2][]float64{
		append([]float64(nil), points[i]...),
		append([]float64(nil), points[j]...),
	}

	labels := make([]int, n)
	const maxIter = 50

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for p, pt := range points {
			l := 0
			if sqDist(pt, centroids[1]) < sqDist(pt, centroids[0]) {
				l = 1
			}
			if labels[p] != l {
				labels[p] = l
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute centroids.
		for c := 0; c < 2; c++ {
			sum := make([]float64, dim)
			count := 0
			for p, pt := range points {
				if labels[p] == c {
					floats.Add(sum, pt)
					count++
				}
			}
			if count > 0 {
				floats.Scale(1.0/float64(count), sum)
				centroids[c] = sum
			}
		}
	}

	inertia := 0.0
	for p, pt := range points {
		inertia += sqDist(pt, centroids[labels[p]])
	}
	return labels, inertia
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
