// Package reader loads a metro_config XML document and answers corridor and
// r_node queries against it.
//
// A Reader is not synchronized. Once Load has returned it may be queried from
// several goroutines, provided no further Load runs concurrently.
package reader

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mnmetro-config/internal/common/logger"
	"github.com/mnmetro-config/pkg/metro/models"
)

type Reader struct {
	logger logger.Logger
	source string
	doc    *document
}

func New(log logger.Logger) *Reader {
	if log == nil {
		log = logger.Nop()
	}
	return &Reader{logger: log}
}

// Open creates a Reader and loads path into it.
func Open(path string, log logger.Logger) (*Reader, error) {
	r := New(log)
	if err := r.LoadFile(path); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFile opens path and loads it. See Load.
func (r *Reader) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ReadError{Source: path, Err: err}
	}
	defer f.Close()

	return r.load(path, f)
}

// Load reads the whole source and replaces the current document. On failure
// the previously loaded document, if any, stays in place.
func (r *Reader) Load(src io.Reader) error {
	name := "stream"
	if n, ok := src.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return r.load(name, src)
}

func (r *Reader) load(name string, src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return &ReadError{Source: name, Err: err}
	}

	doc, err := decodeDocument(data)
	if err != nil {
		r.logger.Warn("Rejected metro config", "source", name, "error", err)
		return &ParseError{Source: name, Err: err}
	}

	r.doc = doc
	r.source = name

	r.logger.Info("Metro config loaded",
		"source", name,
		"time_stamp", doc.TimeStamp,
		"corridors", len(doc.Corridors),
		"r_nodes", doc.nodeCount())

	return nil
}

// Loaded reports whether a document has been loaded successfully.
func (r *Reader) Loaded() bool {
	return r.doc != nil
}

// Source names the currently loaded source.
func (r *Reader) Source() string {
	return r.source
}

// TimeStamp returns the root element's time_stamp attribute.
func (r *Reader) TimeStamp() (string, error) {
	if r.doc == nil {
		return "", ErrNotLoaded
	}
	return r.doc.TimeStamp, nil
}

// ListCorridors returns every corridor in document order. Duplicate keys are
// reported as they appear.
func (r *Reader) ListCorridors() ([]models.Corridor, error) {
	if r.doc == nil {
		return nil, ErrNotLoaded
	}

	corridors := make([]models.Corridor, 0, len(r.doc.Corridors))
	for _, c := range r.doc.Corridors {
		corridors = append(corridors, models.Corridor{Route: c.Route, Direction: c.Dir})
	}
	return corridors, nil
}

// ListNodes returns the r_nodes of the first corridor matching c, in
// document order.
func (r *Reader) ListNodes(c models.Corridor) ([]models.Node, error) {
	return r.FindNodes(c)
}

// FindNodes returns the r_nodes of corridor c whose raw attributes satisfy
// every constraint. No constraints selects all nodes.
func (r *Reader) FindNodes(c models.Corridor, constraints ...models.Constraint) ([]models.Node, error) {
	corridor, err := r.corridor(c)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.Node, 0, len(corridor.Nodes))
	for i := range corridor.Nodes {
		if !matchAll(corridor.Nodes[i].attrs, constraints) {
			continue
		}
		nodes = append(nodes, buildNode(&corridor.Nodes[i]))
	}

	r.logger.Debug("Queried r_nodes",
		"corridor", c.String(),
		"constraints", len(constraints),
		"matched", len(nodes))

	return nodes, nil
}

// FindNode looks up an r_node by name across all corridors.
func (r *Reader) FindNode(name string) (models.Node, models.Corridor, error) {
	if r.doc == nil {
		return models.Node{}, models.Corridor{}, ErrNotLoaded
	}

	for _, c := range r.doc.Corridors {
		for i := range c.Nodes {
			if v, ok := c.Nodes[i].attrs[models.AttrName]; ok && v == name {
				return buildNode(&c.Nodes[i]), models.Corridor{Route: c.Route, Direction: c.Dir}, nil
			}
		}
	}
	return models.Node{}, models.Corridor{}, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
}

// Stats summarizes the loaded document.
type Stats struct {
	Corridors int
	Nodes     int
	Stations  int
	Detectors int
}

func (r *Reader) Stats() (Stats, error) {
	if r.doc == nil {
		return Stats{}, ErrNotLoaded
	}

	s := Stats{Corridors: len(r.doc.Corridors)}
	for _, c := range r.doc.Corridors {
		s.Nodes += len(c.Nodes)
		for i := range c.Nodes {
			if c.Nodes[i].attrs[models.AttrType] == models.NodeTypeStation {
				s.Stations++
			}
			s.Detectors += len(c.Nodes[i].Detectors)
		}
	}
	return s, nil
}

func (r *Reader) corridor(c models.Corridor) (*corridorElement, error) {
	if r.doc == nil {
		return nil, ErrNotLoaded
	}
	for i := range r.doc.Corridors {
		el := &r.doc.Corridors[i]
		if el.Route == c.Route && el.Dir == c.Direction {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: route=%q dir=%q", ErrCorridorNotFound, c.Route, c.Direction)
}

func matchAll(attrs map[string]string, constraints []models.Constraint) bool {
	for _, c := range constraints {
		if !c.Matches(attrs) {
			return false
		}
	}
	return true
}

func buildNode(el *nodeElement) models.Node {
	a := el.attrs
	n := models.Node{
		Name:       a[models.AttrName],
		Type:       a[models.AttrType],
		Label:      optString(a, models.AttrLabel),
		Latitude:   optFloat(a, models.AttrLat),
		Longitude:  optFloat(a, models.AttrLon),
		Lanes:      optString(a, models.AttrLanes),
		Shift:      optString(a, models.AttrShift),
		SpeedLimit: optInt(a, models.AttrSpeedLimit),
		AttachSide: optString(a, models.AttrAttachSide),
		Transition: optString(a, models.AttrTransition),
		Above:      optString(a, models.AttrAbove),
		Pickable:   optString(a, models.AttrPickable),
		Forks:      optString(a, models.AttrForks),
		Active:     optString(a, models.AttrActive),
	}
	if n.IsStation() {
		n.StationID = optString(a, models.AttrStationID)
	}

	if len(el.Detectors) > 0 {
		n.Detectors = make([]models.Detector, 0, len(el.Detectors))
		for _, d := range el.Detectors {
			da := attrMap(d.Attrs)
			n.Detectors = append(n.Detectors, models.Detector{
				Name:      da["name"],
				Label:     optString(da, "label"),
				Category:  optString(da, "category"),
				Lane:      optString(da, "lane"),
				Field:     optString(da, "field"),
				Abandoned: optString(da, "abandoned"),
			})
		}
	}
	return n
}

func optString(attrs map[string]string, key string) *string {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	return &v
}

func optFloat(attrs map[string]string, key string) *float64 {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func optInt(attrs map[string]string, key string) *int {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &i
}
