package track

import "math"

// hungarianAssign solves the rectangular assignment problem with the
// Kuhn-Munkres algorithm (Jonker-Volgenant potentials variant) in O(n³).
// A globally optimal matching avoids the track-swapping a greedy
// nearest-cost pass produces when two detections compete for one track.
//
// The n×m cost matrix holds association distances; entries at or above
// forbiddenCost are never selected. Returns assign[i] = column matched to
// row i, or -1 when row i stays unassigned.

const forbiddenCost = 1e18

// padCost is the internal stand-in for padded and forbidden cells. It must
// dominate every real association cost (cosine distance ≤ 2, 1−IoU ≤ 1)
// while staying small enough that subtracting real costs from it keeps full
// float64 precision; at 1e18 the ulp is ≈128 and the potentials updates
// would erase every real cost difference.
const padCost = 1e6

func hungarianAssign(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	if m == 0 {
		result := make([]int, n)
		for i := range result {
			result[i] = -1
		}
		return result
	}

	// Pad to a square matrix. Padded and forbidden cells are clamped to
	// padCost so the potentials arithmetic stays precise; the final pass
	// rejects them against the caller's matrix.
	dim := n
	if m > dim {
		dim = m
	}
	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m && cost[i][j] < forbiddenCost {
				c[i][j] = cost[i][j]
			} else {
				c[i][j] = padCost
			}
		}
	}

	// 1-indexed internally for cleaner index arithmetic.
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1) // row potentials
	v := make([]float64, dim+1) // column potentials
	p := make([]int, dim+1)     // p[j] = row assigned to column j
	way := make([]int, dim+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0 // virtual column

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// Augment along the path.
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := make([]int, dim)
	for i := range rowAssign {
		rowAssign[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if p[j] > 0 && p[j] <= dim {
			rowAssign[p[j]-1] = j - 1
		}
	}

	// Trim to original dimensions and reject forbidden assignments.
	result := make([]int, n)
	for i := 0; i < n; i++ {
		col := rowAssign[i]
		if col < 0 || col >= m || cost[i][col] >= forbiddenCost {
			result[i] = -1
		} else {
			result[i] = col
		}
	}
	return result
}
