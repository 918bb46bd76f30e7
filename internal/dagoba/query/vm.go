package query

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type runStats struct {
	activations int
	results     int
	errors      int
}

// Run executes the query and returns its results: the result override of
// each finished gremlin if a step set one, otherwise its *graph.Vertex.
// The results then pass through the engine's PostQuery hooks.
//
// Running the same query again continues from the state the previous run
// left behind; with take(n) in the program, successive runs return
// successive pages and an exhausted query returns an empty slice.
// Query-time errors never abort a run; see Errors.
func (q *Query) Run() []any {
	return q.RunContext(context.Background())
}

// RunContext is Run with tracing. The context is not consulted for
// cancellation: a run always drains to completion.
func (q *Query) RunContext(ctx context.Context) []any {
	_, span := startRunSpan(ctx, q)
	defer span.End()

	start := time.Now()
	results, stats := q.run()
	recordRun(span, stats, time.Since(start))
	return results
}

func (q *Query) run() ([]any, runStats) {
	var stats runStats
	errsBefore := len(q.errs)

	last := len(q.program) - 1
	for len(q.slots) < len(q.program) {
		q.slots = append(q.slots, Slot{})
	}

	var finished []*Gremlin
	var in *Gremlin
	done := -1
	pc := last

	for done < last {
		out := q.activate(pc, in)
		stats.activations++
		in = nil

		switch out.Kind {
		case KindPull:
			if pc-1 > done {
				pc--
				continue
			}
			done = pc
		case KindDone:
			done = pc
		case KindEmit:
			in = out.Gremlin
		}

		pc++
		if pc > last {
			if in != nil {
				finished = append(finished, in)
			}
			in = nil
			pc--
		}
	}

	results := make([]any, 0, len(finished))
	for _, gr := range finished {
		if r, ok := gr.Result(); ok {
			results = append(results, r)
			continue
		}
		results = append(results, q.graph.Vertex(gr.Vertex()))
	}

	results = q.engine.hooks.Fire(PostQuery, q, results)
	if results == nil {
		results = []any{}
	}

	stats.results = len(results)
	stats.errors = len(q.errs) - errsBefore
	return results, stats
}

// activate runs step pc once. Failures are recorded and turned into Pull.
func (q *Query) activate(pc int, in *Gremlin) Signal {
	step := q.program[pc]
	pipe, ok := q.engine.registry.Lookup(step.Name)
	if !ok {
		q.fail(pc, step.Name, ErrUnknownOperator)
		return Pull
	}

	out, err := pipe(q.graph, step.Args, in, &q.slots[pc])
	if err != nil {
		q.fail(pc, step.Name, err)
		return Pull
	}
	return out
}

func (q *Query) fail(pc int, name string, err error) {
	stepErr := &StepError{Step: pc, Name: name, Err: err}
	q.errs = append(q.errs, stepErr)
	label := name
	if errors.Is(err, ErrUnknownOperator) {
		label = "unknown"
	}
	stepErrors.WithLabelValues(label).Inc()
	q.engine.logger.Warn("query step failed",
		slog.Int("step", pc),
		slog.String("operator", name),
		slog.String("error", err.Error()),
	)
}
