package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHungarianAssign(t *testing.T) {
	t.Run("diagonal optimum", func(t *testing.T) {
		cost := [][]float64{
			{1, 10},
			{10, 1},
		}
		assert.Equal(t, []int{0, 1}, hungarianAssign(cost))
	})

	t.Run("global optimum beats greedy", func(t *testing.T) {
		// Greedy row order would take (0,1)=1 then force (1,0)... the
		// optimal total is (0,1)+(1,0) = 2 versus (0,0)+(1,1) = 12.
		cost := [][]float64{
			{2, 1},
			{1, 10},
		}
		assert.Equal(t, []int{1, 0}, hungarianAssign(cost))
	})

	t.Run("forbidden entries stay unassigned", func(t *testing.T) {
		cost := [][]float64{
			{forbiddenCost, forbiddenCost},
			{forbiddenCost, 0.5},
		}
		assert.Equal(t, []int{-1, 1}, hungarianAssign(cost))
	})

	t.Run("more rows than columns", func(t *testing.T) {
		cost := [][]float64{
			{3},
			{1},
			{2},
		}
		got := hungarianAssign(cost)
		assert.Equal(t, []int{-1, 0, -1}, got)
	})

	t.Run("more columns than rows", func(t *testing.T) {
		cost := [][]float64{
			{5, 1, 3},
		}
		assert.Equal(t, []int{1}, hungarianAssign(cost))
	})

	t.Run("padding keeps small cost differences", func(t *testing.T) {
		// With two rows competing for one column the pad entries must not
		// swamp the 0.7 difference between the real costs.
		cost := [][]float64{
			{0.9},
			{0.2},
		}
		assert.Equal(t, []int{-1, 0}, hungarianAssign(cost))
	})

	t.Run("padded rectangular optimum", func(t *testing.T) {
		// Optimal is (1,0)+(2,1) = 0.3; a solver that flattens padded
		// costs drifts to (0,1)+(1,0) = 1.1.
		cost := [][]float64{
			{0.7, 0.9},
			{0.2, 0.95},
			{0.6, 0.1},
		}
		assert.Equal(t, []int{-1, 0, 1}, hungarianAssign(cost))
	})

	t.Run("forbidden mixed with near costs", func(t *testing.T) {
		cost := [][]float64{
			{forbiddenCost, 0.31},
			{0.3, 0.32},
		}
		assert.Equal(t, []int{1, 0}, hungarianAssign(cost))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, hungarianAssign(nil))
		assert.Equal(t, []int{-1}, hungarianAssign([][]float64{{}}))
	})
}
