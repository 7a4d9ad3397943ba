package models

import (
	"github.com/paulmach/orb"
)

// Raw attribute names used by metro_config r_node elements.
const (
	AttrName       = "name"
	AttrType       = "n_type"
	AttrLabel      = "label"
	AttrLat        = "lat"
	AttrLon        = "lon"
	AttrLanes      = "lanes"
	AttrShift      = "shift"
	AttrStationID  = "station_id"
	AttrSpeedLimit = "s_limit"
	AttrAttachSide = "attach_side"
	AttrTransition = "transition"
	AttrAbove      = "above"
	AttrPickable   = "pickable"
	AttrForks      = "forks"
	AttrActive     = "active"
)

// NodeTypeStation is the n_type of nodes that carry a station_id.
const NodeTypeStation = "Station"

// Corridor identifies a directional road segment.
type Corridor struct {
	Route     string
	Direction string
}

func (c Corridor) String() string {
	return c.Route + " " + c.Direction
}

// Node is a point along a corridor. Optional fields are nil when the
// attribute is absent (or, for numeric fields, not a number).
type Node struct {
	Name       string
	Type       string
	Label      *string
	Latitude   *float64
	Longitude  *float64
	Lanes      *string
	Shift      *string
	StationID  *string
	SpeedLimit *int
	AttachSide *string
	Transition *string
	Above      *string
	Pickable   *string
	Forks      *string
	Active     *string
	Detectors  []Detector
}

// Point returns the node location when both coordinates are present.
func (n Node) Point() (orb.Point, bool) {
	if n.Latitude == nil || n.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*n.Longitude, *n.Latitude}, true
}

// IsStation reports whether the node is a Station.
func (n Node) IsStation() bool {
	return n.Type == NodeTypeStation
}

// Detector is a sensor attached to an r_node.
type Detector struct {
	Name      string
	Label     *string
	Category  *string
	Lane      *string
	Field     *string
	Abandoned *string
}
