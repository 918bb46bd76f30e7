// Package dsl parses the textual query language used by the CLI and the
// HTTP API:
//
//	v(1).out("knows").as("me").outAllN(["friend", "colleague"], 2).take(10)
//	g.v({type: 'banana'}).property('name')
//
// A query is a chain of calls joined by dots. The first call picks the
// starting vertices and must be v, V or vertex; every later call names a
// registered operator or alias. Arguments are JSON-like literals: strings
// in single or double quotes, numbers, true, false, null, lists and
// objects (keys may be bare identifiers).
package dsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

// ErrSyntax is returned for text that is not a well-formed query.
var ErrSyntax = errors.New("dsl: syntax error")

// Parse turns query text into its program of steps without binding it to
// a graph. The first step is always "vertex".
func Parse(src string) ([]query.Step, error) {
	chain, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	steps := make([]query.Step, 0, len(chain.Calls))
	for i, call := range chain.Calls {
		name := call.Name
		if i == 0 {
			switch name {
			case "v", "V", "vertex":
				name = "vertex"
			default:
				return nil, fmt.Errorf("%w: %s: query must start with v(...), not %s(...)", ErrSyntax, call.Pos, name)
			}
		}

		args := make(query.Args, 0, len(call.Args))
		for _, v := range call.Args {
			arg, err := v.value()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, call.Pos, err)
			}
			args = append(args, arg)
		}
		steps = append(steps, query.Step{Name: name, Args: args})
	}
	return steps, nil
}

// Compile parses src and builds a query on g with engine. Aliases are
// expanded as the steps are added.
func Compile(engine *query.Engine, g *graph.Graph, src string) (*query.Query, error) {
	steps, err := Parse(src)
	if err != nil {
		return nil, err
	}

	q := engine.V(g, steps[0].Args...)
	for _, step := range steps[1:] {
		q.Add(step.Name, step.Args...)
	}
	return q, nil
}

func (v *Value) value() (any, error) {
	switch {
	case v.String != nil:
		return unquote(*v.String)
	case v.Number != nil:
		return *v.Number, nil
	case v.True:
		return true, nil
	case v.False:
		return false, nil
	case v.Null:
		return nil, nil
	case v.List != nil:
		items := make([]any, 0, len(v.List.Items))
		for _, item := range v.List.Items {
			val, err := item.value()
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil
	case v.Object != nil:
		obj := make(map[string]any, len(v.Object.Entries))
		for _, entry := range v.Object.Entries {
			key := entry.Key
			if strings.HasPrefix(key, `"`) || strings.HasPrefix(key, `'`) {
				k, err := unquote(key)
				if err != nil {
					return nil, err
				}
				key = k
			}
			val, err := entry.Value.value()
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		return obj, nil
	}
	return nil, nil
}

// unquote decodes a single or double quoted string literal. Single
// quoted literals are rewritten to double quoted form first.
func unquote(raw string) (string, error) {
	if strings.HasPrefix(raw, "'") {
		var b strings.Builder
		b.WriteByte('"')
		body := raw[1 : len(raw)-1]
		for i := 0; i < len(body); i++ {
			c := body[i]
			switch {
			case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
				b.WriteByte('\'')
				i++
			case c == '\\' && i+1 < len(body):
				b.WriteByte(c)
				b.WriteByte(body[i+1])
				i++
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
		raw = b.String()
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return "", fmt.Errorf("bad string literal %s", raw)
	}
	return s, nil
}
