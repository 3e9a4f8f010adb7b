// Package analysis wires the tracking pipeline end to end: frames come in
// through a FrameSource, run through detection, appearance embedding,
// tracking and coordinate projection, and the accumulated trajectories
// feed the metric and event stages. One Analyzer handles one video; a run
// is frame-sequential by design, with concurrency between independent
// jobs managed by the Registry.
package analysis

import (
	"context"
	"errors"
	"io"
	"log"
	"math"

	"github.com/matchvision/pitchtrack/internal/config"
	"github.com/matchvision/pitchtrack/internal/monitoring"
	"github.com/matchvision/pitchtrack/internal/pitch/detect"
	"github.com/matchvision/pitchtrack/internal/pitch/events"
	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
	"github.com/matchvision/pitchtrack/internal/pitch/reid"
	"github.com/matchvision/pitchtrack/internal/pitch/track"
	"github.com/matchvision/pitchtrack/internal/pitch/transform"
	"github.com/matchvision/pitchtrack/internal/timeutil"
)

// maxBallDistancePx is the furthest a player box can be from the ball,
// in pixels, to be credited with possession.
const maxBallDistancePx = 70.0

// ProgressFunc receives coarse progress updates during a run.
type ProgressFunc func(current, total int, message string)

// Options configures an Analyzer. Source and Detector are required;
// Embedder and Homography are optional (no embedder disables appearance
// association and team clustering, no homography leaves trajectories in
// pixel space).
type Options struct {
	Config     *config.AnalysisConfig
	Source     detect.FrameSource
	Detector   detect.Detector
	Embedder   detect.Embedder
	Homography *transform.Homography
	Progress   ProgressFunc
	Clock      timeutil.Clock
}

// Analyzer runs the full pipeline over one video.
type Analyzer struct {
	cfg        *config.AnalysisConfig
	source     detect.FrameSource
	detector   detect.Detector
	extractor  *reid.Extractor
	homography *transform.Homography
	progress   ProgressFunc
	clock      timeutil.Clock
}

// New validates the options and builds an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Source == nil {
		return nil, errors.New("analysis: frame source is required")
	}
	if opts.Detector == nil {
		return nil, errors.New("analysis: detector is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        cfg,
		source:     opts.Source,
		detector:   opts.Detector,
		homography: opts.Homography,
		progress:   opts.Progress,
		clock:      opts.Clock,
	}
	if a.homography == nil {
		a.homography = transform.Disabled()
	}
	if a.clock == nil {
		a.clock = timeutil.Real{}
	}
	if opts.Embedder != nil {
		a.extractor = reid.NewExtractor(opts.Embedder)
	}
	return a, nil
}

func (a *Analyzer) reportProgress(current, total int, message string) {
	if a.progress != nil {
		a.progress(current, total, message)
	}
}

// Analyze runs the pipeline over the selected clips and assembles the
// result. Cancellation is checked per frame; a canceled run returns the
// partial trajectories and metrics accumulated so far with Success false.
func (a *Analyzer) Analyze(ctx context.Context, clips []ClipRange) *Result {
	start := a.clock.Now()

	meta, err := a.source.Metadata()
	if err != nil {
		return failedResult(videoErrorf("reading video metadata: %w", err))
	}
	if meta.FPS <= 0 || meta.TotalFrames <= 0 {
		return failedResult(videoErrorf("invalid video metadata: fps=%.2f frames=%d", meta.FPS, meta.TotalFrames))
	}
	log.Printf("[Analysis] video validated: %dx%d, %.1ffps, %.1fs",
		meta.Width, meta.Height, meta.FPS, meta.DurationSeconds)

	ranges := parseClips(clips, meta.FPS, meta.TotalFrames)

	a.reportProgress(0, 100, "Starting player tracking...")
	acc, trackErr := a.trackPlayers(ctx, meta, ranges)
	if trackErr != nil && !errors.Is(trackErr, errCanceled) {
		return failedResult(trackErr)
	}
	if len(acc.tracks) == 0 {
		if trackErr != nil {
			return failedResult(trackErr)
		}
		return failedResult(processingErrorf("no players detected in video"))
	}

	a.assignTeams(acc)

	a.reportProgress(50, 100, "Computing metrics...")
	engine := metrics.NewEngine(metrics.Config{
		MinTrackLengthSeconds: a.cfg.GetMinTrackLengthSeconds(),
		SmoothingWindow:       a.cfg.GetSmoothingWindow(),
		MaxSpeedMPS:           a.cfg.GetMaxSpeedMps(),
		SprintThresholdMPS:    a.cfg.GetSprintThresholdMps(),
		MaxDistanceJumpM:      a.cfg.GetMaxDistanceJumpM(),
		MaxFrameGapSeconds:    a.cfg.GetMaxFrameGapSeconds(),
		FieldLength:           a.cfg.GetFieldLengthM(),
		FieldWidth:            a.cfg.GetFieldWidthM(),
		XThreatGrid:           a.cfg.XThreatGrid,
	})
	engine.Compute(acc.tracks, meta.FPS)

	stats := metrics.ComputeStats(acc.tracks, a.cfg.GetMaxDistanceJumpM())

	a.reportProgress(80, 100, "Detecting events...")
	pressing := events.DetectPressing(acc.tracks, events.PressingConfig{
		DistanceM:         a.cfg.GetPressingDistanceM(),
		SpeedThresholdMPS: a.cfg.GetPressingSpeedThresholdMps(),
		DedupWindowS:      1.0,
	})

	a.assignBallPossession(acc)

	var passes []events.PassEvent
	network := make(map[metrics.Team]events.NetworkMetrics)
	if a.cfg.GetEnablePassDetection() {
		a.reportProgress(85, 100, "Detecting passes...")
		detector := events.NewPassDetector(events.PassConfig{
			ProximityM:      a.cfg.GetPassProximityThresholdM(),
			MinDistanceM:    a.cfg.GetPassMinDistanceM(),
			MaxDistanceM:    a.cfg.GetPassMaxDistanceM(),
			MaxDurationS:    a.cfg.GetPassMaxDurationS(),
			SuccessSpeedMPS: a.cfg.GetPassVelocityThresholdMps(),
		})
		passes = detector.Detect(acc.tracks, meta.FPS)

		a.reportProgress(90, 100, "Analyzing passing networks...")
		network[metrics.TeamA] = events.AnalyzeNetwork(passes, metrics.TeamA)
		network[metrics.TeamB] = events.AnalyzeNetwork(passes, metrics.TeamB)
	}

	a.reportProgress(92, 100, "Computing passing predictions...")
	idx := events.IndexByFrame(acc.tracks)
	predictions := events.PredictPasses(idx, acc.ball)

	a.reportProgress(94, 100, "Detecting tactical events...")
	tactical := events.NewTacticalEngine(events.TacticalConfig{
		FieldLength:      a.cfg.GetFieldLengthM(),
		CounterDebounceS: 3.0,
		PressDebounceS:   5.0,
	})
	alerts := tactical.Detect(idx)

	result := &Result{
		Success: trackErr == nil,
		Metadata: ResultMetadata{
			VideoPath:      meta.Path,
			Duration:       math.Round(meta.DurationSeconds*100) / 100,
			FPS:            meta.FPS,
			Resolution:     resolutionString(meta.Width, meta.Height),
			ProcessingTime: math.Round(a.clock.Since(start).Seconds()*100) / 100,
		},
		Tracks:         acc.tracks,
		Stats:          stats,
		PressingEvents: pressing,
		Passes:         passes,
		Network:        network,
		Predictions:    predictions,
		Alerts:         alerts,
	}
	if trackErr != nil {
		result.Error = trackErr.Error()
		result.ErrorType = ErrorTypeCanceled
	} else {
		a.reportProgress(100, 100, "Analysis complete")
		log.Printf("[Analysis] completed in %.1fs", result.Metadata.ProcessingTime)
	}
	return result
}

// accumulator collects the tracking loop output.
type accumulator struct {
	tracks     map[int][]metrics.TrackPoint
	ball       []metrics.TrackPoint
	embeddings map[int][]float64 // per-track mean appearance
}

// trackPlayers runs the frame loop: detect, embed, associate, project,
// and accumulate one TrackPoint per confirmed track per frame.
func (a *Analyzer) trackPlayers(ctx context.Context, meta detect.VideoMetadata, ranges []frameRange) (*accumulator, error) {
	acc := &accumulator{
		tracks:     make(map[int][]metrics.TrackPoint),
		embeddings: make(map[int][]float64),
	}

	maxAge := int(a.cfg.GetMaxAgeSeconds() * meta.FPS)
	if maxAge < 1 {
		maxAge = 1
	}
	tracker := track.NewTracker(track.Config{
		AppearanceThreshold: a.cfg.GetAppearanceThreshold(),
		IoUThreshold:        a.cfg.GetIoUThreshold(),
		MinHits:             a.cfg.GetMinHits(),
		MaxAge:              maxAge,
		MaxEmbeddings:       a.cfg.GetMaxEmbeddings(),
	})

	frameSkip := a.cfg.GetFrameSkip()
	progressEvery := a.cfg.GetProgressIntervalFrames()

	totalToProcess := 0
	for _, r := range ranges {
		totalToProcess += r.End - r.Start
	}

	processed := 0
	for _, r := range ranges {
		if err := a.source.Seek(r.Start); err != nil {
			return acc, videoErrorf("seeking to frame %d: %w", r.Start, err)
		}

		for frameIdx := r.Start; frameIdx < r.End; frameIdx++ {
			if err := ctx.Err(); err != nil {
				log.Printf("[Analysis] canceled at frame %d", frameIdx)
				return acc, errCanceled
			}

			frame, err := a.source.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return acc, videoErrorf("reading frame %d: %w", frameIdx, err)
			}

			processed++
			if frameSkip > 1 && frameIdx%frameSkip != 0 {
				continue
			}

			detections, err := a.detector.Detect(frame)
			if err != nil {
				monitoring.Logf("[Analysis] detection failed at frame %d: %v", frameIdx, err)
				continue
			}
			detections = detect.FilterByScore(detections, a.cfg.GetConfidenceThreshold())
			players, balls := detect.SplitBall(detections)

			if a.extractor != nil && len(players) > 0 {
				boxes := make([]geom.Box, len(players))
				for i, d := range players {
					boxes[i] = d.Box
				}
				embs, err := a.extractor.Extract(frame, boxes)
				if err != nil {
					monitoring.Logf("[Analysis] embedding failed at frame %d: %v", frameIdx, err)
				} else {
					for i := range players {
						players[i].Embedding = embs[i]
					}
				}
			}

			timestamp := float64(frameIdx) / meta.FPS
			for _, res := range tracker.Update(players) {
				acc.tracks[res.TrackID] = append(acc.tracks[res.TrackID], a.makePoint(frameIdx, timestamp, res))
			}
			for _, t := range tracker.Tracks() {
				if mean := t.MeanEmbedding(); mean != nil {
					acc.embeddings[t.ID] = mean
				}
			}

			if bp, ok := a.bestBall(frameIdx, timestamp, balls); ok {
				acc.ball = append(acc.ball, bp)
			}

			if progressEvery > 0 && processed%progressEvery == 0 {
				a.reportProgress(processed, totalToProcess, "Tracking frames...")
			}
		}
	}

	log.Printf("[Analysis] tracking complete: %d players", len(acc.tracks))
	return acc, nil
}

// makePoint projects one tracker result into a TrackPoint. The ground
// contact is the box foot point; without a calibration the pitch
// coordinates stay in pixels and are flagged accordingly.
func (a *Analyzer) makePoint(frameIdx int, timestamp float64, res track.Result) metrics.TrackPoint {
	footX, footY := res.Box.FootPoint()
	xm, ym := a.homography.Transform(footX, footY)
	cx, cy := res.Box.Center()

	return metrics.TrackPoint{
		Frame:      frameIdx,
		Timestamp:  math.Round(timestamp*1000) / 1000,
		X:          cx,
		Y:          cy,
		Xm:         xm,
		Ym:         ym,
		HasMeters:  a.homography.Enabled(),
		Team:       metrics.TeamUnknown,
		Confidence: res.Score,
		Box:        res.Box,
	}
}

// bestBall keeps the highest-confidence ball detection of the frame.
func (a *Analyzer) bestBall(frameIdx int, timestamp float64, balls []detect.Detection) (metrics.TrackPoint, bool) {
	if len(balls) == 0 {
		return metrics.TrackPoint{}, false
	}
	best := balls[0]
	for _, b := range balls[1:] {
		if b.Score > best.Score {
			best = b
		}
	}
	cx, cy := best.Box.Center()
	xm, ym := a.homography.Transform(cx, cy)
	return metrics.TrackPoint{
		Frame:      frameIdx,
		Timestamp:  math.Round(timestamp*1000) / 1000,
		X:          cx,
		Y:          cy,
		Xm:         xm,
		Ym:         ym,
		XmSmooth:   xm,
		YmSmooth:   ym,
		HasMeters:  a.homography.Enabled(),
		Confidence: best.Score,
		Box:        best.Box,
	}, true
}

// assignTeams clusters the per-track mean embeddings into two teams.
// Tracks without an appearance vector stay unknown.
func (a *Analyzer) assignTeams(acc *accumulator) {
	if len(acc.embeddings) < 2 {
		return
	}

	ids := make([]int, 0, len(acc.embeddings))
	for id := range acc.tracks {
		if _, ok := acc.embeddings[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return
	}

	vectors := make([][]float64, len(ids))
	for i, id := range ids {
		vectors[i] = acc.embeddings[id]
	}
	labels := reid.ClusterTeams(vectors, 10, 1)
	if labels == nil {
		return
	}

	for i, id := range ids {
		team := metrics.TeamA
		if labels[i] == 1 {
			team = metrics.TeamB
		}
		pts := acc.tracks[id]
		for j := range pts {
			pts[j].Team = team
		}
	}
	log.Printf("[Analysis] team assignment complete for %d players", len(ids))
}

// assignBallPossession marks, per frame with a located ball, the nearest
// player within the pixel radius as holding the ball.
func (a *Analyzer) assignBallPossession(acc *accumulator) {
	if len(acc.ball) == 0 {
		return
	}
	ballByFrame := make(map[int]metrics.TrackPoint, len(acc.ball))
	for _, b := range acc.ball {
		ballByFrame[b.Frame] = b
	}

	// Locate each frame's candidate player points.
	type candidate struct {
		id  int
		idx int
	}
	byFrame := make(map[int][]candidate)
	for id, pts := range acc.tracks {
		for i, p := range pts {
			if _, ok := ballByFrame[p.Frame]; ok {
				byFrame[p.Frame] = append(byFrame[p.Frame], candidate{id: id, idx: i})
			}
		}
	}

	assigned := 0
	for frame, cands := range byFrame {
		ball := ballByFrame[frame]
		bestDist := maxBallDistancePx
		best := candidate{id: -1}
		for _, c := range cands {
			p := acc.tracks[c.id][c.idx]
			fx, fy := p.Box.FootPoint()
			d := geom.Dist(fx, fy, ball.X, ball.Y)
			if d < bestDist {
				bestDist = d
				best = c
			}
		}
		if best.id >= 0 {
			acc.tracks[best.id][best.idx].HasBall = true
			assigned++
		}
	}
	if assigned > 0 {
		log.Printf("[Analysis] ball possession assigned on %d frames", assigned)
	}
}
