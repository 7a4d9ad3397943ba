package reader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by queries issued before a successful load.
	ErrNotLoaded = errors.New("metro config not loaded")

	// ErrCorridorNotFound is returned when no corridor matches a (route, dir) key.
	ErrCorridorNotFound = errors.New("corridor not found")

	// ErrNodeNotFound is returned when no r_node carries the requested name.
	ErrNodeNotFound = errors.New("r_node not found")
)

// ParseError reports a source that is not well-formed XML.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing metro config %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadError reports a source that could not be opened or read. Missing
// files unwrap to fs.ErrNotExist.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading metro config %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
