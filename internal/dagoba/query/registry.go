package query

import (
	"sort"
	"sync"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Pipe is one traversal operator. It is activated with the step's
// arguments, the incoming gremlin (nil when the VM asks the step to work
// from its own state) and the step's persistent slot.
//
// A returned error is a query-time failure: the VM records it and treats
// the activation as Pull regardless of the returned signal.
type Pipe func(g *graph.Graph, args Args, in *Gremlin, slot *Slot) (Signal, error)

// Registry maps operator names to pipes. Names are resolved each time a
// step runs, so registering a pipe affects queries that are already built.
type Registry struct {
	pipes map[string]Pipe
	mu    sync.RWMutex
}

// NewRegistry creates a registry holding the built-in pipes.
func NewRegistry() *Registry {
	r := &Registry{
		pipes: make(map[string]Pipe),
	}
	registerBuiltins(r)
	return r
}

// Register adds a pipe, replacing any pipe already registered under name.
func (r *Registry) Register(name string, pipe Pipe) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pipes[name] = pipe
}

// Lookup returns the pipe registered under name.
func (r *Registry) Lookup(name string) (Pipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pipe, ok := r.pipes[name]
	return pipe, ok
}

// Names lists the registered operator names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pipes))
	for name := range r.pipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registerBuiltins(r *Registry) {
	r.Register("vertex", vertexPipe)
	r.Register("out", traversal(outward))
	r.Register("in", traversal(inward))
	r.Register("outAllN", traversalN(outward))
	r.Register("inAllN", traversalN(inward))
	r.Register("property", propertyPipe)
	r.Register("unique", uniquePipe)
	r.Register("filter", filterPipe)
	r.Register("take", takePipe)
	r.Register("as", asPipe)
	r.Register("back", backPipe)
	r.Register("except", exceptPipe)
	r.Register("path", pathPipe)
}
