package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/dxnn/dagoba/internal/dagoba/dsl"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

func newQueryCmd(opts *options) *cobra.Command {
	var pageSize, page int

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query against a graph document",
		Example: `  # Grandchildren of vertex 1
  dagoba query -g family.json 'v(1).out().out().property("name")'

  # Second page of ten
  dagoba query -g family.json 'v().property("name")' --page-size 10 --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.loadGraph()
			if err != nil {
				return err
			}
			q, err := dsl.Compile(opts.engine(), g, args[0])
			if err != nil {
				return err
			}

			results, err := runPage(cmd, q, pageSize, page)
			if err != nil {
				return err
			}
			if err := printResults(cmd.OutOrStdout(), opts.output, results); err != nil {
				return err
			}
			for _, qerr := range q.Errors() {
				fmt.Fprintln(cmd.ErrOrStderr(), paint(dimStyle, "warning: "+qerr.Error()))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "append take(N) and page through the results")
	cmd.Flags().IntVar(&page, "page", 1, "page to print when --page-size is set")
	return cmd
}

// runPage runs q once, or page times behind a take(size) step and
// returns the last run's results
func runPage(cmd *cobra.Command, q *query.Query, size, page int) ([]any, error) {
	if size <= 0 {
		return q.RunContext(cmd.Context()), nil
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be at least 1")
	}

	q.Take(size)
	var results []any
	for range page {
		results = q.RunContext(cmd.Context())
	}
	return results, nil
}

// printResults writes results in the --output format. Vertices are printed
// as their records.
func printResults(w io.Writer, format string, results []any) error {
	results = records(results)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		data, err := yaml.Marshal(results)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		for _, r := range results {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
		}
		return nil
	}
	return fmt.Errorf("unknown output format: %s", format)
}

func records(results []any) []any {
	out := make([]any, len(results))
	for i, r := range results {
		if v, ok := r.(*graph.Vertex); ok {
			out[i] = map[string]any(v.Record())
		} else {
			out[i] = r
		}
	}
	return out
}
