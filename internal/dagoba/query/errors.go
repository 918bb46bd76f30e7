package query

import (
	"errors"
	"fmt"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

var (
	// ErrUnknownOperator is returned when a step names no registered pipe.
	ErrUnknownOperator = errors.New("query: unknown operator")

	// ErrInvalidArgument is returned when a step argument has the wrong shape.
	ErrInvalidArgument = errors.New("query: invalid argument")

	// ErrUnboundBookmark is returned by back/except on a label that was
	// never recorded with as.
	ErrUnboundBookmark = errors.New("query: bookmark not set")

	// ErrInvalidFilterArgument is the store's filter error.
	ErrInvalidFilterArgument = graph.ErrInvalidFilterArgument
)

// StepError records a query-time failure of one step.
type StepError struct {
	Step int
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
