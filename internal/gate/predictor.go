// Package gate predicts lock-gate operation times for the Conwy tidal gate
// from a forecasted tide-height series. The gate is lowered as the tide
// rises through the configured open height (letting the basin fill) and
// raised again once the tide falls back below it.
package gate

import (
	"time"

	"github.com/morlais/tidegate/internal/models"
)

// DefaultThreshold is the gate open height in metres above chart datum.
const DefaultThreshold = 4.0

// Predict walks the ordered tide-height series and returns one GateEvent per
// crossing of threshold, in chronological order. It is pure and safe for
// concurrent use.
//
// Samples need not be evenly spaced; crossings inside an interval are
// located by linear interpolation. A sample landing exactly on the threshold
// pins the crossing to that sample's timestamp, and contributes at most one
// event: a touch that does not continue through to the other side (including
// a series that starts or ends exactly on the threshold) produces no event.
func Predict(samples []models.TideSample, threshold float64) ([]models.GateEvent, error) {
	if len(samples) == 0 {
		return nil, NewEmptySeriesError()
	}

	var events []models.GateEvent
	for i := 0; i+1 < len(samples); i++ {
		prev, next := samples[i], samples[i+1]

		// Intervals starting on the threshold were already settled when
		// the series first reached it.
		if prev.Height == threshold {
			continue
		}

		switch {
		case prev.Height < threshold && next.Height > threshold:
			events = append(events, crossingEvent(prev, next, threshold, models.GateActionLower))
		case prev.Height > threshold && next.Height < threshold:
			events = append(events, crossingEvent(prev, next, threshold, models.GateActionRaise))
		case next.Height == threshold:
			// The series lands exactly on the threshold. Look past any
			// flat run to decide whether it continues through.
			j := i + 1
			for j < len(samples) && samples[j].Height == threshold {
				j++
			}
			if j == len(samples) {
				// Series ends on the threshold: unresolved touch.
				continue
			}
			if (prev.Height < threshold) == (samples[j].Height < threshold) {
				// Touched and returned to the same side: no crossing.
				continue
			}
			action := models.GateActionRaise
			if prev.Height < threshold {
				action = models.GateActionLower
			}
			events = append(events, models.GateEvent{
				Timestamp: next.Timestamp,
				Action:    action,
				Height:    threshold,
			})
		}
	}

	return events, nil
}

// crossingEvent interpolates the instant the tide passes threshold strictly
// inside the interval (prev, next).
func crossingEvent(prev, next models.TideSample, threshold float64, action models.GateAction) models.GateEvent {
	ratio := (threshold - prev.Height) / (next.Height - prev.Height)
	offset := time.Duration(ratio * float64(next.Timestamp.Sub(prev.Timestamp)))
	return models.GateEvent{
		Timestamp: prev.Timestamp.Add(offset),
		Action:    action,
		Height:    threshold,
	}
}
