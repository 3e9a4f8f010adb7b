package events

import (
	"fmt"

	"github.com/matchvision/pitchtrack/internal/pitch/geom"
	"github.com/matchvision/pitchtrack/internal/pitch/metrics"
)

// Pass prediction scores every teammate of the current ball carrier as a
// pass option. The probability blends distance to an ideal passing range,
// a forward-pass bonus, receiver movement, and defensive pressure around
// the receiver.

const (
	carrierRadiusM     = 2.0  // max player-ball distance to hold possession
	predictionFloor    = 0.3  // minimum probability worth reporting
	idealPassDistanceM = 12.0
)

// PredictPasses scores pass options frame by frame. ballTrack carries the
// ball's trajectory; frames without a located ball or carrier are skipped.
func PredictPasses(idx FrameIndex, ballTrack []metrics.TrackPoint) []PassingPrediction {
	if len(ballTrack) == 0 {
		return nil
	}
	ballByFrame := make(map[int]metrics.TrackPoint, len(ballTrack))
	for _, b := range ballTrack {
		if b.HasMeters {
			ballByFrame[b.Frame] = b
		}
	}

	var predictions []PassingPrediction
	for _, frame := range idx.Frames() {
		ball, ok := ballByFrame[frame]
		if !ok {
			continue
		}
		players := idx[frame]

		carrierID, carrier, ok := findBallCarrier(players, ball)
		if !ok {
			continue
		}

		for _, pp := range players {
			if pp.ID == carrierID || pp.Point.Team != carrier.Team {
				continue
			}
			prob := passProbability(carrier, pp.Point, players, ball)
			if prob <= predictionFloor {
				continue
			}
			predictions = append(predictions, PassingPrediction{
				Frame:         frame,
				Timestamp:     ball.Timestamp,
				BallCarrierID: carrierID,
				ReceiverID:    pp.ID,
				Probability:   round3(prob),
				Distance:      round2(geom.Dist(pp.Point.XmSmooth, pp.Point.YmSmooth, ball.XmSmooth, ball.YmSmooth)),
				ReceiverX:     pp.Point.XmSmooth,
				ReceiverY:     pp.Point.YmSmooth,
			})
		}
	}
	return predictions
}

// findBallCarrier returns the player nearest the ball within the
// possession radius.
func findBallCarrier(players []PlayerPoint, ball metrics.TrackPoint) (int, metrics.TrackPoint, bool) {
	minDist := carrierRadiusM
	var carrierID int
	var carrier metrics.TrackPoint
	found := false

	for _, pp := range players {
		dist := geom.Dist(pp.Point.XmSmooth, pp.Point.YmSmooth, ball.XmSmooth, ball.YmSmooth)
		if dist < minDist {
			minDist = dist
			carrierID = pp.ID
			carrier = pp.Point
			found = true
		}
	}
	return carrierID, carrier, found
}

func passProbability(carrier, receiver metrics.TrackPoint, players []PlayerPoint, ball metrics.TrackPoint) float64 {
	distance := geom.Dist(receiver.XmSmooth, receiver.YmSmooth, ball.XmSmooth, ball.YmSmooth)
	if distance < 3 || distance > 40 {
		return 0
	}

	deviation := distance - idealPassDistanceM
	if deviation < 0 {
		deviation = -deviation
	}
	distanceScore := 1.0 - minFloat(deviation/30, 1.0)

	forwardScore := 1.0
	if receiver.XmSmooth > carrier.XmSmooth {
		forwardScore = 1.3
	}

	movementScore := 0.5
	if receiver.Velocity > 0 {
		movementScore = minFloat(receiver.Velocity/5.0, 1.0)
	}

	pressure := 0
	for _, pp := range players {
		if pp.Point.Team == carrier.Team {
			continue
		}
		if geom.Dist(pp.Point.XmSmooth, pp.Point.YmSmooth, receiver.XmSmooth, receiver.YmSmooth) < 5.0 {
			pressure++
		}
	}
	pressureScore := maxFloat(0.3, 1.0-float64(pressure)*0.2)

	prob := distanceScore*0.4 + forwardScore*0.2 + movementScore*0.2 + pressureScore*0.2
	return minFloat(prob, 1.0)
}

// Tactical alerts recognise two patterns: counter attacks (sprinting
// attackers outnumbering retreating defenders in the attacking half) and
// high presses (several players hunting in the opponent's defensive
// third). Alerts for the same pattern are debounced.

// TacticalConfig holds the alert thresholds.
type TacticalConfig struct {
	// FieldLength in metres, for the halfway and third lines.
	FieldLength float64
	// CounterDebounceS / PressDebounceS suppress repeat alerts.
	CounterDebounceS float64
	PressDebounceS   float64
}

// DefaultTacticalConfig covers a full-size pitch.
func DefaultTacticalConfig() TacticalConfig {
	return TacticalConfig{
		FieldLength:      105,
		CounterDebounceS: 3.0,
		PressDebounceS:   5.0,
	}
}

// TacticalEngine scans frames for tactical patterns.
type TacticalEngine struct {
	cfg        TacticalConfig
	lastAlerts map[string]float64
}

func NewTacticalEngine(cfg TacticalConfig) *TacticalEngine {
	return &TacticalEngine{cfg: cfg, lastAlerts: make(map[string]float64)}
}

// Detect returns alerts for all frames in the index.
func (e *TacticalEngine) Detect(idx FrameIndex) []TacticalAlert {
	var alerts []TacticalAlert
	for _, frame := range idx.Frames() {
		players := idx[frame]

		var teamA, teamB []PlayerPoint
		for _, pp := range players {
			switch pp.Point.Team {
			case metrics.TeamA:
				teamA = append(teamA, pp)
			case metrics.TeamB:
				teamB = append(teamB, pp)
			}
		}
		if len(teamA) == 0 || len(teamB) == 0 {
			continue
		}
		ts := players[0].Point.Timestamp

		alerts = append(alerts, e.counterAttack(frame, ts, metrics.TeamA, teamA, teamB)...)
		alerts = append(alerts, e.counterAttack(frame, ts, metrics.TeamB, teamB, teamA)...)
		alerts = append(alerts, e.highPress(frame, ts, metrics.TeamA, teamA)...)
		alerts = append(alerts, e.highPress(frame, ts, metrics.TeamB, teamB)...)
	}
	return alerts
}

func (e *TacticalEngine) counterAttack(frame int, ts float64, team metrics.Team, attacking, defending []PlayerPoint) []TacticalAlert {
	var sprinters []PlayerPoint
	for _, pp := range attacking {
		if pp.Point.Sprinting {
			sprinters = append(sprinters, pp)
		}
	}
	if len(sprinters) < 2 {
		return nil
	}

	var avgX float64
	for _, pp := range sprinters {
		avgX += pp.Point.XmSmooth
	}
	avgX /= float64(len(sprinters))
	if avgX < e.cfg.FieldLength/2 {
		return nil
	}

	defendersBack := 0
	for _, pp := range defending {
		if pp.Point.XmSmooth > avgX-20 {
			defendersBack++
		}
	}
	if len(sprinters) <= defendersBack {
		return nil
	}

	key := fmt.Sprintf("counter_%s_%d", team, frame/90)
	if ts-e.lastAlerts[key] <= e.cfg.CounterDebounceS && e.lastAlerts[key] != 0 {
		return nil
	}
	e.lastAlerts[key] = ts

	involved := make([]int, len(sprinters))
	for i, pp := range sprinters {
		involved[i] = pp.ID
	}
	return []TacticalAlert{{
		Frame:           frame,
		Timestamp:       ts,
		EventType:       "counter_attack",
		Team:            team,
		Severity:        SeverityHigh,
		Description:     fmt.Sprintf("Counter attack! %d vs %d", len(sprinters), defendersBack),
		PlayersInvolved: involved,
	}}
}

func (e *TacticalEngine) highPress(frame int, ts float64, team metrics.Team, pressing []PlayerPoint) []TacticalAlert {
	third := e.cfg.FieldLength / 3
	var pressers []PlayerPoint
	for _, pp := range pressing {
		if pp.Point.XmSmooth < third && pp.Point.Velocity > 2.0 {
			pressers = append(pressers, pp)
		}
	}
	if len(pressers) < 3 {
		return nil
	}

	key := fmt.Sprintf("press_%s_%d", team, frame/90)
	if ts-e.lastAlerts[key] <= e.cfg.PressDebounceS && e.lastAlerts[key] != 0 {
		return nil
	}
	e.lastAlerts[key] = ts

	involved := make([]int, len(pressers))
	for i, pp := range pressers {
		involved[i] = pp.ID
	}
	return []TacticalAlert{{
		Frame:           frame,
		Timestamp:       ts,
		EventType:       "high_press",
		Team:            team,
		Severity:        SeverityMedium,
		Description:     fmt.Sprintf("High press with %d players", len(pressers)),
		PlayersInvolved: involved,
	}}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
