package query

import "sync"

// Step is one (operator, arguments) entry of a query program.
type Step struct {
	Name string
	Args Args
}

// Aliases maps a name to a fixed list of steps. Using an alias appends
// its steps to the query; nothing new happens at run time.
type Aliases struct {
	mu      sync.RWMutex
	aliases map[string][]Step
}

// NewAliases creates an empty alias table.
func NewAliases() *Aliases {
	return &Aliases{aliases: make(map[string][]Step)}
}

// Define registers name as shorthand for steps, replacing any earlier
// definition.
func (a *Aliases) Define(name string, steps ...Step) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.aliases[name] = append([]Step(nil), steps...)
}

// Expand returns the steps behind name. Arguments given at the call site
// replace the first step's default arguments position by position.
func (a *Aliases) Expand(name string, args Args) ([]Step, bool) {
	a.mu.RLock()
	defs, ok := a.aliases[name]
	a.mu.RUnlock()
	if !ok {
		return nil, false
	}

	steps := make([]Step, len(defs))
	for i, def := range defs {
		steps[i] = Step{Name: def.Name, Args: append(Args(nil), def.Args...)}
	}
	if len(steps) > 0 {
		first := steps[0].Args
		for i, arg := range args {
			if i < len(first) {
				first[i] = arg
			} else {
				first = append(first, arg)
			}
		}
		steps[0].Args = first
	}
	return steps, true
}
