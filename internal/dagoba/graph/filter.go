package graph

import "fmt"

type filterKind uint8

const (
	filterAll filterKind = iota
	filterLabel
	filterLabels
	filterProps
)

// EdgeFilter decides which edges a traversal step follows.
type EdgeFilter struct {
	kind   filterKind
	label  string
	labels map[string]struct{}
	props  map[string]any
}

// ParseEdgeFilter interprets a traversal step's filter argument: absent or
// empty matches every edge, a string matches that label, a list of strings
// matches any of those labels, and a property object requires every pair
// to match (with "_label" addressing the label).
func ParseEdgeFilter(arg any) (EdgeFilter, error) {
	switch a := arg.(type) {
	case nil:
		return EdgeFilter{kind: filterAll}, nil
	case string:
		if a == "" {
			return EdgeFilter{kind: filterAll}, nil
		}
		return EdgeFilter{kind: filterLabel, label: a}, nil
	case EdgeFilter:
		return a, nil
	}

	if list, ok := asList(arg); ok {
		labels := make(map[string]struct{}, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return EdgeFilter{}, fmt.Errorf("%w: label list holds %T", ErrInvalidFilterArgument, item)
			}
			labels[s] = struct{}{}
		}
		return EdgeFilter{kind: filterLabels, labels: labels}, nil
	}

	if obj, ok := AsObject(arg); ok {
		return EdgeFilter{kind: filterProps, props: obj}, nil
	}

	return EdgeFilter{}, fmt.Errorf("%w: %T", ErrInvalidFilterArgument, arg)
}

// Match reports whether e passes the filter.
func (f EdgeFilter) Match(e *Edge) bool {
	switch f.kind {
	case filterLabel:
		return e.Label == f.label
	case filterLabels:
		_, ok := f.labels[e.Label]
		return ok
	case filterProps:
		return MatchProps(e, f.props)
	default:
		return true
	}
}
