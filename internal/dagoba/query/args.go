package query

import (
	"encoding/json"
	"fmt"
	"math"
)

// Args is the argument list of one step. Values are stored as given by
// the builder and interpreted by the pipe at run time.
type Args []any

// At returns argument i, or nil past the end.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String returns argument i as a non-empty string.
func (a Args) String(i int) (string, error) {
	s, ok := a.At(i).(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: argument %d must be a non-empty string, got %T", ErrInvalidArgument, i, a.At(i))
	}
	return s, nil
}

// Int returns argument i as an integer. Integral floats are accepted since
// decoded JSON and DSL numbers arrive as float64.
func (a Args) Int(i int) (int, error) {
	switch x := a.At(i).(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint:
		return int(x), nil
	case uint32:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: argument %d must be an integer, got %v", ErrInvalidArgument, i, a.At(i))
}
