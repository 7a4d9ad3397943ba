package reader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// document is the parsed tree. It is never mutated after decode.
type document struct {
	TimeStamp string            `xml:"time_stamp,attr"`
	Corridors []corridorElement `xml:"corridor"`
}

type corridorElement struct {
	Route string        `xml:"route,attr"`
	Dir   string        `xml:"dir,attr"`
	Nodes []nodeElement `xml:"r_node"`
}

type nodeElement struct {
	Attrs     []xml.Attr        `xml:",any,attr"`
	Detectors []detectorElement `xml:"detector"`

	attrs map[string]string
}

type detectorElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func decodeDocument(data []byte) (*document, error) {
	if err := checkNames(data); err != nil {
		return nil, err
	}

	dec := newDecoder(data)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no root element")
		}
		return nil, err
	}

	// Only comments, processing instructions and whitespace may follow the root.
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, errors.New("unexpected text after root element")
			}
		}
	}

	for i := range doc.Corridors {
		nodes := doc.Corridors[i].Nodes
		for j := range nodes {
			nodes[j].attrs = attrMap(nodes[j].Attrs)
		}
	}

	return &doc, nil
}

// checkNames rejects repeated attributes and unbound namespace prefixes,
// neither of which encoding/xml reports on its own.
func checkNames(data []byte) error {
	dec := newDecoder(data)
	scopes := []map[string]bool{{"xml": true, "xmlns": true}}

	bound := func(prefix string) bool {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i][prefix] {
				return true
			}
		}
		return false
	}

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope := make(map[string]bool)
			seen := make(map[xml.Name]bool, len(t.Attr))
			for _, a := range t.Attr {
				if seen[a.Name] {
					return fmt.Errorf("duplicate attribute %s on <%s>", qualified(a.Name), qualified(t.Name))
				}
				seen[a.Name] = true
				if a.Name.Space == "xmlns" {
					scope[a.Name.Local] = true
				}
			}
			scopes = append(scopes, scope)

			if t.Name.Space != "" && !bound(t.Name.Space) {
				return fmt.Errorf("unbound prefix %q on <%s>", t.Name.Space, qualified(t.Name))
			}
			for _, a := range t.Attr {
				if a.Name.Space != "" && !bound(a.Name.Space) {
					return fmt.Errorf("unbound prefix %q on attribute %s", a.Name.Space, qualified(a.Name))
				}
			}
		case xml.EndElement:
			if len(scopes) > 1 {
				scopes = scopes[:len(scopes)-1]
			}
		}
	}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// attrMap indexes un-namespaced attributes by local name.
func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Name.Space != "" {
			continue
		}
		m[a.Name.Local] = a.Value
	}
	return m
}

func (d *document) nodeCount() int {
	n := 0
	for _, c := range d.Corridors {
		n += len(c.Nodes)
	}
	return n
}
