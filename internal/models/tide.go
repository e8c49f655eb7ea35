package models

import (
	"fmt"
	"time"
)

type TideType string

const (
	TideTypeHigh TideType = "HIGH"
	TideTypeLow  TideType = "LOW"
)

func (t TideType) Validate() error {
	switch t {
	case TideTypeHigh, TideTypeLow:
		return nil
	}
	return fmt.Errorf("invalid tide type: %q", string(t))
}

// TideSample is one point of the half-hour tide height series. Heights are
// measured against chart datum. Timestamps are absolute instants; local-time
// rendering happens at the HTTP boundary.
type TideSample struct {
	Timestamp time.Time `json:"timestamp"`
	Height    float64   `json:"height"`
}

// TideExtreme is a predicted high or low water.
type TideExtreme struct {
	Type      TideType  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Height    float64   `json:"height"`
}

func (e TideExtreme) Validate() error {
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("tide extreme has zero timestamp")
	}
	return nil
}

type GateAction string

const (
	// GateActionLower marks the tide rising through the gate height: the
	// gate is lowered to let the basin fill.
	GateActionLower GateAction = "LOWER"
	// GateActionRaise marks the tide falling back through the gate height.
	GateActionRaise GateAction = "RAISE"
)

func (a GateAction) Validate() error {
	switch a {
	case GateActionLower, GateActionRaise:
		return nil
	}
	return fmt.Errorf("invalid gate action: %q", string(a))
}

// GateEvent marks the tide crossing the configured gate height. Timestamp and
// Height are the interpolated crossing point, not a sample's own values,
// unless the crossing lands exactly on a sample.
type GateEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    GateAction `json:"action"`
	Height    float64    `json:"height"`
}

func (e GateEvent) Validate() error {
	if err := e.Action.Validate(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("gate event has zero timestamp")
	}
	return nil
}
