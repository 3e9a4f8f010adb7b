package events

import (
	"log"
	"math"

	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

// minReceiverSpeed is the floor for the receiver to count as having
// played on at all; below it the separation is treated as drift, not a
// pass.
const minReceiverSpeed = 0.5

// PassConfig holds the pass detection thresholds.
type PassConfig struct {
	// ProximityM starts a candidate when two teammates come within this
	// distance; the candidate completes when they separate past it again.
	ProximityM float64
	// MinDistanceM / MaxDistanceM bound the receiver's displacement from
	// the candidate start for a valid pass.
	MinDistanceM float64
	MaxDistanceM float64
	// MaxDurationS times out candidates and bounds valid pass duration.
	MaxDurationS float64
	// SuccessSpeedMPS is the receiver speed above which the pass counts
	// as controlled.
	SuccessSpeedMPS float64
}

// candidate is an in-flight pass attempt between a proximate pair.
type candidate struct {
	passer, receiver int
	team             metrics.Team
	startFrame       int
	startTime        float64
	startX, startY   float64
	startXThreat     float64
	minDistance      float64
	active           bool
}

// PassDetector finds passes with a proximity state machine: teammates
// coming close opens a candidate, separating past the threshold closes
// it, and the closure is validated on displacement, duration and
// receiver movement.
type PassDetector struct {
	cfg        PassConfig
	candidates []candidate
}

func NewPassDetector(cfg PassConfig) *PassDetector {
	return &PassDetector{cfg: cfg}
}

// Detect runs the state machine over all frames in order and returns the
// validated passes.
func (d *PassDetector) Detect(tracks map[int][]metrics.TrackPoint, fps float64) []PassEvent {
	if len(tracks) == 0 {
		return nil
	}

	idx := IndexByFrame(tracks)
	var passes []PassEvent

	for _, frame := range idx.Frames() {
		players := idx[frame]
		d.openCandidates(players, frame)
		passes = append(passes, d.advanceCandidates(players, frame)...)
	}

	d.candidates = d.candidates[:0]
	log.Printf("[Pass] detection complete: %d passes found", len(passes))
	return passes
}

// openCandidates starts a candidate for every same-team pair within the
// proximity threshold that does not already have one in flight.
func (d *PassDetector) openCandidates(players []PlayerPoint, frame int) {
	for i, a := range players {
		for _, b := range players[i+1:] {
			if a.Point.Team != b.Point.Team || a.Point.Team == metrics.TeamUnknown {
				continue
			}
			dist := geom.Dist(a.Point.XmSmooth, a.Point.YmSmooth, b.Point.XmSmooth, b.Point.YmSmooth)
			if dist >= d.cfg.ProximityM {
				continue
			}
			if d.hasActive(a.ID, b.ID) {
				continue
			}
			d.candidates = append(d.candidates, candidate{
				passer:       a.ID,
				receiver:     b.ID,
				team:         a.Point.Team,
				startFrame:   frame,
				startTime:    a.Point.Timestamp,
				startX:       a.Point.XmSmooth,
				startY:       a.Point.YmSmooth,
				startXThreat: a.Point.XThreat,
				minDistance:  dist,
				active:       true,
			})
		}
	}
}

func (d *PassDetector) hasActive(passer, receiver int) bool {
	for _, c := range d.candidates {
		if c.active && c.passer == passer && c.receiver == receiver {
			return true
		}
	}
	return false
}

// advanceCandidates updates every active candidate against the current
// frame, emitting validated passes on separation and dropping candidates
// whose pair left the frame or timed out.
func (d *PassDetector) advanceCandidates(players []PlayerPoint, frame int) []PassEvent {
	byID := make(map[int]metrics.TrackPoint, len(players))
	for _, pp := range players {
		byID[pp.ID] = pp.Point
	}

	var completed []PassEvent
	for ci := range d.candidates {
		c := &d.candidates[ci]
		if !c.active {
			continue
		}

		passer, okP := byID[c.passer]
		receiver, okR := byID[c.receiver]
		if !okP || !okR {
			c.active = false
			continue
		}

		dist := geom.Dist(passer.XmSmooth, passer.YmSmooth, receiver.XmSmooth, receiver.YmSmooth)
		if dist < c.minDistance {
			c.minDistance = dist
		}

		switch {
		case dist > d.cfg.ProximityM:
			duration := passer.Timestamp - c.startTime
			if d.validate(c, receiver, duration) {
				passDist := geom.Dist(receiver.XmSmooth, receiver.YmSmooth, c.startX, c.startY)
				completed = append(completed, PassEvent{
					Frame:        frame,
					Timestamp:    round3(receiver.Timestamp),
					PasserID:     c.passer,
					ReceiverID:   c.receiver,
					Team:         c.team,
					Distance:     round2(passDist),
					Duration:     round2(duration),
					Type:         ClassifyPass(passDist),
					Success:      receiver.Velocity > d.cfg.SuccessSpeedMPS,
					StartX:       c.startX,
					StartY:       c.startY,
					EndX:         receiver.XmSmooth,
					EndY:         receiver.YmSmooth,
					XThreatDelta: round3(receiver.XThreat - c.startXThreat),
				})
			}
			c.active = false

		case passer.Timestamp-c.startTime > d.cfg.MaxDurationS:
			c.active = false
		}
	}
	return completed
}

func (d *PassDetector) validate(c *candidate, receiver metrics.TrackPoint, duration float64) bool {
	passDist := geom.Dist(receiver.XmSmooth, receiver.YmSmooth, c.startX, c.startY)
	if passDist < d.cfg.MinDistanceM || passDist > d.cfg.MaxDistanceM {
		return false
	}
	if duration <= 0 || duration > d.cfg.MaxDurationS {
		return false
	}
	if receiver.Velocity < minReceiverSpeed {
		return false
	}
	return true
}

// ClassifyPass labels a pass by its distance in metres.
func ClassifyPass(distance float64) PassType {
	switch {
	case distance < 10:
		return PassShort
	case distance < 25:
		return PassMedium
	default:
		return PassLong
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
