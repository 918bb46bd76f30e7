// Package query builds and runs dagoba traversals.
//
// A Query is a program of (operator, arguments) steps bound to one graph.
// Running it drives the steps with a small backward-walking VM: the last
// step is asked for output first and each step pulls from the one before
// it only when it needs input. Every step keeps its state in a slot owned
// by the Query, so running the same Query again resumes where the previous
// run stopped.
//
// Operators are looked up by name in the Engine's Registry at run time.
// Result order is an artifact of the VM and is not part of the contract.
package query

import (
	"log/slog"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Engine carries the operator registry, alias table, hook table and logger
// shared by the queries it creates.
type Engine struct {
	registry *Registry
	hooks    *Hooks
	aliases  *Aliases
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the operator registry.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithHooks sets the hook table.
func WithHooks(h *Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithAliases sets the alias table.
func WithAliases(a *Aliases) EngineOption {
	return func(e *Engine) {
		e.aliases = a
	}
}

// WithLogger sets the logger used for query-time errors.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine. Anything not supplied by an option gets a
// fresh default: the built-in registry, empty hook and alias tables, and
// slog.Default().
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.hooks == nil {
		e.hooks = NewHooks()
	}
	if e.aliases == nil {
		e.aliases = NewAliases()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Registry returns the engine's operator registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Hooks returns the engine's hook table.
func (e *Engine) Hooks() *Hooks { return e.hooks }

// Aliases returns the engine's alias table.
func (e *Engine) Aliases() *Aliases { return e.aliases }

// V starts a query on g at the vertices picked by selector (see
// graph.FindVertices).
func (e *Engine) V(g *graph.Graph, selector ...any) *Query {
	q := &Query{engine: e, graph: g}
	q.program = append(q.program, Step{Name: "vertex", Args: Args(selector)})
	return q
}
