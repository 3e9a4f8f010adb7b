// Package geom provides the small geometric primitives shared by the
// detection, tracking and metrics layers: axis-aligned pixel boxes,
// intersection-over-union, and frame-bound clipping.
package geom
