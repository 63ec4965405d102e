package models

import "fmt"

// MPosition is the canonical grid coordinate used everywhere inside the engine.
type MPosition struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (p MPosition) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// -----------------------------------------------------------------------------

type SegmentKind string

const (
	SegmentProductCollection SegmentKind = "product_collection"
	SegmentCashierTravel     SegmentKind = "cashier_travel"
)

// MRouteSegment is one planner-supplied leg of movement.
type MRouteSegment struct {
	Label     string      `json:"label"`
	Kind      SegmentKind `json:"kind"`
	Waypoints []MPosition `json:"waypoints"`
}

// -----------------------------------------------------------------------------

type MAnimationProgress struct {
	CurrentStep int `json:"current_step"`
	TotalSteps  int `json:"total_steps"`
}

// MAnimationFrame is a single emission of a route replay.
type MAnimationFrame struct {
	Position     MPosition          `json:"position"`
	Remaining    []MPosition        `json:"remaining"`
	Progress     MAnimationProgress `json:"progress"`
	SegmentLabel string             `json:"segment_label"`
	SegmentIndex int                `json:"segment_index"`
	Arrived      bool               `json:"arrived"`
	Final        bool               `json:"final"`
}
