package models

import (
	"fmt"
	"strings"
)

// Constraint is an exact, case-sensitive match on a raw r_node attribute.
type Constraint struct {
	Field string
	Value string
}

func (c Constraint) String() string {
	return c.Field + "=" + c.Value
}

// Matches reports whether attrs holds Field with exactly Value.
// An absent attribute never matches.
func (c Constraint) Matches(attrs map[string]string) bool {
	v, ok := attrs[c.Field]
	return ok && v == c.Value
}

// ParseConstraint parses "field=value". The value may be empty or contain '='.
func ParseConstraint(s string) (Constraint, error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok {
		return Constraint{}, fmt.Errorf("invalid constraint %q: expected field=value", s)
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return Constraint{}, fmt.Errorf("invalid constraint %q: empty field name", s)
	}
	return Constraint{Field: field, Value: value}, nil
}

// ParseConstraints parses each entry with ParseConstraint, keeping order.
func ParseConstraints(in []string) ([]Constraint, error) {
	out := make([]Constraint, 0, len(in))
	for _, s := range in {
		c, err := ParseConstraint(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
