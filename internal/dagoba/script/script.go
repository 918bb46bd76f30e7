// Package script evaluates Lua predicates against vertices and provides
// the "where" operator built on them.
//
// A predicate is either a bare expression ("vertex.age > 30") or a chunk
// that returns a value ("local a = vertex.age; return a and a > 30"). Two
// globals are set before each evaluation: vertex, a table of the vertex's
// properties plus _id, and id, the vertex identifier. The interpreter is
// sandboxed to the base, string, table and math libraries with file and
// module loading removed.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

var (
	// ErrScript is returned for Lua code that fails to compile or run.
	ErrScript = errors.New("script: lua error")

	// ErrInstructionLimit is returned, wrapped with ErrScript, when one
	// evaluation runs more instructions than its limit allows.
	ErrInstructionLimit = errors.New("script: instruction limit exceeded")
)

// DefaultInstructionLimit bounds the Lua instructions of one evaluation.
const DefaultInstructionLimit = 1_000_000

const (
	chunkGlobal = "__predicate"
	hookEvery   = 1000
)

// Script is a compiled predicate. It is safe for concurrent use; calls are
// serialised on one interpreter.
type Script struct {
	src   string
	limit int

	mu       sync.Mutex
	l        *lua.State
	executed int
	exceeded bool
}

// Option configures a Script.
type Option func(*Script)

// WithInstructionLimit sets the instruction budget of each evaluation.
// Zero or less disables the limit.
func WithInstructionLimit(n int) Option {
	return func(s *Script) {
		s.limit = n
	}
}

// Compile prepares src for evaluation.
func Compile(src string, opts ...Option) (*Script, error) {
	s := &Script{src: src, limit: DefaultInstructionLimit}
	for _, opt := range opts {
		opt(s)
	}

	l := lua.NewState()
	setupSandbox(l)

	// Try the expression form first so "vertex.x == 1" needs no return.
	if err := lua.LoadString(l, "return "+src); err != nil {
		l.Pop(1)
		if err := lua.LoadString(l, src); err != nil {
			msg, _ := l.ToString(-1)
			return nil, fmt.Errorf("%w: compile %q: %s", ErrScript, src, msg)
		}
	}
	l.SetGlobal(chunkGlobal)

	s.l = l
	return s, nil
}

// Source returns the Lua text the script was compiled from.
func (s *Script) Source() string { return s.src }

// Eval runs the script against v and reports whether the result is truthy.
func (s *Script) Eval(v *graph.Vertex) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.l
	pushValue(l, map[string]any(v.Record()))
	l.SetGlobal("vertex")
	l.PushString(string(v.ID))
	l.SetGlobal("id")

	s.arm()
	l.Global(chunkGlobal)
	err := l.ProtectedCall(0, 1, 0)
	lua.SetDebugHook(l, nil, 0, 0)
	if err != nil {
		l.SetTop(0)
		if s.exceeded {
			return false, fmt.Errorf("%w: %q on vertex %s: %w", ErrScript, s.src, v.ID, ErrInstructionLimit)
		}
		return false, fmt.Errorf("%w: %q on vertex %s: %v", ErrScript, s.src, v.ID, err)
	}
	ok := l.ToBoolean(-1)
	l.Pop(1)
	return ok, nil
}

// arm installs the instruction budget for one evaluation.
func (s *Script) arm() {
	s.executed, s.exceeded = 0, false
	if s.limit <= 0 {
		return
	}
	step := min(hookEvery, s.limit)
	lua.SetDebugHook(s.l, func(l *lua.State, _ lua.Debug) {
		s.executed += step
		if s.executed >= s.limit {
			s.exceeded = true
			l.PushString(ErrInstructionLimit.Error())
			l.Error()
		}
	}, lua.MaskCount, step)
}

// Predicate adapts the script to a filter step. Evaluation errors count as
// a failed test.
func (s *Script) Predicate() query.Predicate {
	return func(v *graph.Vertex, _ *query.Gremlin) bool {
		ok, err := s.Eval(v)
		return err == nil && ok
	}
}

func setupSandbox(l *lua.State) {
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "string", lua.StringOpen, true)
	l.Pop(1)
	lua.Require(l, "table", lua.TableOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		l.PushNil()
		l.SetGlobal(name)
	}
}

func pushValue(l *lua.State, v any) {
	switch val := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(val)
	case int:
		l.PushInteger(val)
	case int64:
		l.PushInteger(int(val))
	case int32:
		l.PushInteger(int(val))
	case float64:
		l.PushNumber(val)
	case float32:
		l.PushNumber(float64(val))
	case json.Number:
		f, _ := val.Float64()
		l.PushNumber(f)
	case string:
		l.PushString(val)
	case []any:
		l.NewTable()
		for i, item := range val {
			l.PushInteger(i + 1)
			pushValue(l, item)
			l.SetTable(-3)
		}
	case []string:
		l.NewTable()
		for i, item := range val {
			l.PushInteger(i + 1)
			l.PushString(item)
			l.SetTable(-3)
		}
	case graph.Props:
		pushValue(l, map[string]any(val))
	case map[string]any:
		l.NewTable()
		for k, item := range val {
			l.PushString(k)
			pushValue(l, item)
			l.SetTable(-3)
		}
	default:
		if data, err := json.Marshal(val); err == nil {
			l.PushString(string(data))
		} else {
			l.PushNil()
		}
	}
}
