package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dxnn/dagoba/internal/dagoba/dsl"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

func newReplCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Query a graph interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.loadGraph()
			if err != nil {
				return err
			}
			r := &repl{
				graph:  g,
				engine: opts.engine(),
				output: opts.output,
				in:     cmd.InOrStdin(),
				out:    cmd.OutOrStdout(),
			}
			return r.run()
		},
	}
}

type repl struct {
	graph  *graph.Graph
	engine *query.Engine
	output string
	in     io.Reader
	out    io.Writer

	// last is the previous query, kept so "more" can resume it
	last *query.Query
}

func (r *repl) run() error {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, paint(titleStyle, "DAGOBA"))
	fmt.Fprintln(r.out, paint(dimStyle, fmt.Sprintf("%d vertices, %d edges", r.graph.Len(), r.graph.EdgeLen())))
	fmt.Fprintln(r.out, paint(dimStyle, "Type 'help' for commands, 'exit' or Ctrl+D to quit"))
	fmt.Fprintln(r.out)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, paint(promptStyle, "> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Fprintln(r.out, paint(dimStyle, "Goodbye!"))
			return nil
		case "help":
			r.printHelp()
			continue
		case "more":
			if r.last == nil {
				fmt.Fprintln(r.out, paint(errorStyle, "no query to resume"))
				continue
			}
			r.runQuery(r.last)
			continue
		}

		q, err := dsl.Compile(r.engine, r.graph, input)
		if err != nil {
			fmt.Fprintln(r.out, paint(errorStyle, err.Error()))
			continue
		}
		r.last = q
		r.runQuery(q)
	}
}

func (r *repl) runQuery(q *query.Query) {
	before := len(q.Errors())
	results := q.Run()
	if err := printResults(r.out, r.output, results); err != nil {
		fmt.Fprintln(r.out, paint(errorStyle, err.Error()))
	}
	fmt.Fprintln(r.out, paint(dimStyle, fmt.Sprintf("(%d results)", len(results))))
	for _, err := range q.Errors()[before:] {
		fmt.Fprintln(r.out, paint(errorStyle, "warning: "+err.Error()))
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, paint(titleStyle, "Commands:"))
	fmt.Fprintln(r.out, "  exit, quit, q  - Exit the program")
	fmt.Fprintln(r.out, "  more           - Run the previous query again (next page after take)")
	fmt.Fprintln(r.out, "  help           - Show this help")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, paint(titleStyle, "Operators:"))
	fmt.Fprintln(r.out, "  "+strings.Join(r.engine.Registry().Names(), ", "))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, paint(titleStyle, "Example queries:"))
	fmt.Fprintln(r.out, `  v(1).out().property("name")`)
	fmt.Fprintln(r.out, `  v({type: "person"}).outAllN("knows", 2).unique().take(5)`)
	fmt.Fprintln(r.out, `  v().where("vertex.age > 30").property("name")`)
	fmt.Fprintln(r.out)
}
