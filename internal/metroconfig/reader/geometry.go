package reader

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/mnmetro-config/pkg/metro/models"
)

// CorridorPath returns the locations of the corridor's r_nodes in document
// order. Nodes without both coordinates are skipped.
func (r *Reader) CorridorPath(c models.Corridor) (orb.LineString, error) {
	nodes, err := r.ListNodes(c)
	if err != nil {
		return nil, err
	}

	path := make(orb.LineString, 0, len(nodes))
	for _, n := range nodes {
		if p, ok := n.Point(); ok {
			path = append(path, p)
		}
	}
	return path, nil
}

// CorridorLength returns the geodesic length of CorridorPath in metres.
func (r *Reader) CorridorLength(c models.Corridor) (float64, error) {
	path, err := r.CorridorPath(c)
	if err != nil {
		return 0, err
	}
	return geo.Length(path), nil
}
