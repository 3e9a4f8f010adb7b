package reid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
)

// stubFrame satisfies detect.Frame for tests.
type stubFrame struct {
	index  int
	width  int
	height int
}

func (f stubFrame) Index() int                  { return f.index }
func (f stubFrame) Bounds() (width, height int) { return f.width, f.height }

// stubEmbedder derives a raw (unnormalised) vector from each box centre so
// spatially distinct boxes get distinct embeddings.
type stubEmbedder struct {
	dim int
}

func (s stubEmbedder) Dim() int { return s.dim }

func (s stubEmbedder) Extract(_ detect.Frame, boxes []geom.Box) ([][]float64, error) {
	out := make([][]float64, len(boxes))
	for i, b := range boxes {
		cx, cy := b.Center()
		v := make([]float64, s.dim)
		v[0] = cx
		v[1] = cy
		out[i] = v
	}
	return out, nil
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	e := NewExtractor(stubEmbedder{dim: 4})
	frame := stubFrame{index: 7, width: 100, height: 100}

	boxes := []geom.Box{
		{X1: 10, Y1: 10, X2: 30, Y2: 50},     // valid
		{X1: 200, Y1: 200, X2: 220, Y2: 240}, // fully outside the frame
		{X1: 40, Y1: 20, X2: 60, Y2: 70},     // valid
	}

	vecs, err := e.Extract(frame, boxes)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Valid crops yield unit vectors.
	for _, i := range []int{0, 2} {
		norm := 0.0
		for _, x := range vecs[i] {
			norm += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-3, "box %d should be unit length", i)
	}

	// The degenerate crop keeps its slot as a zero placeholder.
	assert.Equal(t, make([]float64, 4), vecs[1])

	// Order preserved: box 0 is left of box 2, so its x-component is smaller.
	assert.Less(t, vecs[0][0], vecs[2][0])
}

func TestExtractorEmptyInput(t *testing.T) {
	t.Parallel()

	e := NewExtractor(stubEmbedder{dim: 4})
	vecs, err := e.Extract(stubFrame{width: 100, height: 100}, nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-4)
	assert.InDelta(t, 0.8, v[1], 1e-4)

	norm := math.Hypot(v[0], v[1])
	assert.InDelta(t, 1.0, norm, 1e-4)

	// Zero vector stays finite.
	z := Normalize([]float64{0, 0, 0})
	for _, x := range z {
		assert.False(t, math.IsNaN(x))
		assert.Equal(t, 0.0, x)
	}
}

func TestCosineDistance(t *testing.T) {
	t.Parallel()

	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}
	assert.InDelta(t, 1.0, CosineDistance(a, b), 1e-9)

	assert.InDelta(t, 0.0, CosineDistance(a, a), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance(a, []float64{-1, 0, 0}), 1e-9)

	// Degenerate inputs are maximally distant, never NaN.
	assert.Equal(t, 1.0, CosineDistance(nil, nil))
	assert.Equal(t, 1.0, CosineDistance(a, []float64{1, 0}))
	assert.Equal(t, 1.0, CosineDistance(a, []float64{0, 0, 0}))
}

func TestMean(t *testing.T) {
	t.Parallel()

	m := Mean([][]float64{{1, 2}, {3, 4}})
	assert.Equal(t, []float64{2, 3}, m)

	assert.Nil(t, Mean(nil))
}

func TestClusterTeamsSeparable(t *testing.T) {
	t.Parallel()

	// Two tight clusters around opposite unit vectors.
	var embeddings [][]float64
	for i := 0; i < 5; i++ {
		embeddings = append(embeddings, []float64{1.0 + 0.01*float64(i), 0.0})
	}
	for i := 0; i < 5; i++ {
		embeddings = append(embeddings, []float64{-1.0 - 0.01*float64(i), 0.0})
	}

	labels := ClusterTeams(embeddings, 10, 1)
	require.Len(t, labels, 10)

	// All of the first five share a label; all of the last five share the
	// other label.
	for i := 1; i < 5; i++ {
		assert.Equal(t, labels[0], labels[i])
	}
	for i := 6; i < 10; i++ {
		assert.Equal(t, labels[5], labels[i])
	}
	assert.NotEqual(t, labels[0], labels[5])
}

func TestClusterTeamsDegenerate(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ClusterTeams(nil, 10, 1))
	assert.Nil(t, ClusterTeams([][]float64{{1, 2}}, 10, 1))
}
