// Package reid wraps the appearance embedding collaborator for
// re-identification matching and unsupervised team clustering.
//
// Responsibilities: crop clipping with degenerate-crop placeholders,
// L2 normalisation of raw model output, cosine distance between
// embeddings, and 2-cluster k-means over player embeddings for team
// assignment.
package reid
