// Package detect defines the boundary between the analysis core and its
// external collaborators: the object detector, the appearance embedding
// model, and the video frame source. Backends of any kind (GPU inference
// servers, recorded detection dumps, synthetic test sources) are adapted
// to the one canonical Detection shape here so the tracking and metrics
// layers never see backend-specific types.
package detect
