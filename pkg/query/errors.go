package query

import (
	"errors"
	"fmt"

	"github.com/ritzau/map-api/pkg/sssp"
)

// Kind names a failure of a route or distance query.
type Kind string

const (
	KindMissingParameter Kind = "MissingParameter"
	KindUnknownNode      Kind = "UnknownNode"
	KindEmptyGraph       Kind = "EmptyGraph"
	KindNoPath           Kind = "NoPath"
)

var (
	ErrMissingParameter = errors.New("both 'from' and 'to' parameters are required")
	ErrUnknownNode      = errors.New("unknown node")
	ErrEmptyGraph       = errors.New("map has not been set")
	ErrNoPath           = sssp.ErrNoPath
)

// Error is returned by every failed query.
type Error struct {
	Kind Kind
	From string
	To   string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownNode:
		return fmt.Sprintf("unknown node names: '%s' or '%s' do not exist in the graph", e.From, e.To)
	case KindNoPath:
		return fmt.Sprintf("no valid path found from '%s' to '%s'", e.From, e.To)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a query error, or "" if err is not one.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}
