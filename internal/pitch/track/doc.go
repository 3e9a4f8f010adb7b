// Package track implements hybrid multi-object tracking over per-frame
// detections.
//
// Responsibilities: a constant-velocity Kalman motion model on box
// centre/area/aspect state, Hungarian assignment, two-stage association
// (appearance cosine distance first, IoU on the remainder), and track
// lifecycle (creation, confirmation gating, loss, removal).
//
// The package is frame-sequential by design: one Tracker instance must
// only ever be driven by a single goroutine, and frames must arrive in
// order. Independent videos get independent Tracker instances.
package track
