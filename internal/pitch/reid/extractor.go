package reid

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"

	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
)

// normEpsilon guards the L2 normalisation denominator against zero-length
// raw vectors (e.g. all-black placeholder crops).
const normEpsilon = 1e-6

// ModelOptions configures loading of an embedding model artifact.
type ModelOptions struct {
	// Path of the local model artifact.
	Path string
	// TrustLocal loads a locally supplied artifact without signature
	// verification. Must be set explicitly by the operator.
	TrustLocal bool
}

// Extractor produces one normalised fixed-length appearance vector per
// bounding box. It is a thin layer over the external embedding model:
// boxes are clipped to the frame, degenerate crops are replaced by a zero
// placeholder rather than reported as errors, and the model output is
// L2-normalised.
type Extractor struct {
	model detect.Embedder
}

// NewExtractor wraps an embedding model.
func NewExtractor(model detect.Embedder) *Extractor {
	return &Extractor{model: model}
}

// Dim returns the embedding dimensionality of the wrapped model.
func (e *Extractor) Dim() int { return e.model.Dim() }

// Extract returns one vector per input box, in input order. Boxes that
// clip to nothing yield a zero vector of the model dimensionality.
func (e *Extractor) Extract(frame detect.Frame, boxes []geom.Box) ([][]float64, error) {
	if len(boxes) == 0 {
		return nil, nil
	}

	width, height := frame.Bounds()

	// Clip boxes and note which ones survive. Degenerate crops keep their
	// slot so output order matches input order.
	clipped := make([]geom.Box, 0, len(boxes))
	valid := make([]bool, len(boxes))
	for i, b := range boxes {
		c := b.Clip(width, height)
		if c.Valid() {
			valid[i] = true
			clipped = append(clipped, c)
		}
	}

	var raw [][]float64
	if len(clipped) > 0 {
		var err error
		raw, err = e.model.Extract(frame, clipped)
		if err != nil {
			return nil, fmt.Errorf("embedding extraction failed: %w", err)
		}
		if len(raw) != len(clipped) {
			return nil, fmt.Errorf("embedding model returned %d vectors for %d boxes", len(raw), len(clipped))
		}
	}

	out := make([][]float64, len(boxes))
	ri := 0
	for i := range boxes {
		if !valid[i] {
			log.Printf("[ReID] degenerate crop at frame %d box %d, substituting zero vector", frame.Index(), i)
			out[i] = make([]float64, e.model.Dim())
			continue
		}
		out[i] = Normalize(raw[ri])
		ri++
	}
	return out, nil
}

// Normalize returns v scaled to unit L2 norm. A zero vector is returned
// unchanged (the epsilon keeps the division finite).
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := floats.Norm(v, 2)
	for i, x := range v {
		out[i] = x / (norm + normEpsilon)
	}
	return out
}

// CosineDistance returns 1 − cos(a, b), in [0, 2]. Vectors of mismatched
// or zero length are maximally distant.
func CosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1.0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na < normEpsilon || nb < normEpsilon {
		return 1.0
	}
	return 1.0 - floats.Dot(a, b)/(na*nb)
}

// Mean returns the elementwise mean of the vectors. Returns nil for an
// empty input.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		floats.Add(out, v)
	}
	floats.Scale(1.0/float64(len(vectors)), out)
	return out
}
