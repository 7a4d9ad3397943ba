package models

import "testing"

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		in      string
		want    Constraint
		wantErr bool
	}{
		{in: "n_type=Station", want: Constraint{Field: "n_type", Value: "Station"}},
		{in: "label=", want: Constraint{Field: "label", Value: ""}},
		{in: "label=a=b", want: Constraint{Field: "label", Value: "a=b"}},
		{in: " s_limit=70", want: Constraint{Field: "s_limit", Value: "70"}},
		{in: "n_type", wantErr: true},
		{in: "=Station", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseConstraint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseConstraint(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseConstraint(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseConstraint(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseConstraintsStopsOnError(t *testing.T) {
	if _, err := ParseConstraints([]string{"n_type=Station", "bad"}); err == nil {
		t.Error("Expected error for malformed constraint")
	}

	got, err := ParseConstraints(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no constraints, got %d", len(got))
	}
}

func TestConstraintMatches(t *testing.T) {
	attrs := map[string]string{"n_type": "Station", "label": ""}

	if !(Constraint{Field: "n_type", Value: "Station"}).Matches(attrs) {
		t.Error("Expected exact match")
	}
	if (Constraint{Field: "n_type", Value: "station"}).Matches(attrs) {
		t.Error("Match must be case-sensitive")
	}
	if !(Constraint{Field: "label", Value: ""}).Matches(attrs) {
		t.Error("Empty value should match an empty attribute")
	}
	if (Constraint{Field: "s_limit", Value: ""}).Matches(attrs) {
		t.Error("Absent attribute must not match")
	}
}

func TestNodePoint(t *testing.T) {
	lat, lon := 44.97, -93.26
	n := Node{Latitude: &lat}
	if _, ok := n.Point(); ok {
		t.Error("Point should be absent without longitude")
	}

	n.Longitude = &lon
	p, ok := n.Point()
	if !ok {
		t.Fatal("Point should be present")
	}
	if p.Lon() != lon || p.Lat() != lat {
		t.Errorf("Expected (%v, %v), got %v", lon, lat, p)
	}
}

func TestCorridorString(t *testing.T) {
	c := Corridor{Route: "I-35W", Direction: "SB"}
	if c.String() != "I-35W SB" {
		t.Errorf("Expected 'I-35W SB', got %q", c.String())
	}
}
