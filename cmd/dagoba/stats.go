package main

import (
	"cmp"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// graphStats summarises a loaded graph
type graphStats struct {
	File     string         `json:"file" yaml:"file"`
	Size     uint64         `json:"size" yaml:"size"`
	Vertices int            `json:"vertices" yaml:"vertices"`
	Edges    int            `json:"edges" yaml:"edges"`
	Labels   map[string]int `json:"labels" yaml:"labels"`
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vertex, edge and label counts for a graph document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.loadGraph()
			if err != nil {
				return err
			}

			stats := graphStats{
				File:     opts.graphPath,
				Vertices: g.Len(),
				Edges:    g.EdgeLen(),
				Labels:   make(map[string]int),
			}
			if info, err := os.Stat(opts.graphPath); err == nil {
				stats.Size = uint64(info.Size())
			}
			for _, e := range g.Edges() {
				stats.Labels[e.Label]++
			}

			if opts.output != "text" && opts.output != "" {
				return printResults(cmd.OutOrStdout(), opts.output, []any{stats})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, paint(titleStyle, stats.File))
			fmt.Fprintf(w, "  size:     %s\n", humanize.Bytes(stats.Size))
			fmt.Fprintf(w, "  vertices: %s\n", humanize.Comma(int64(stats.Vertices)))
			fmt.Fprintf(w, "  edges:    %s\n", humanize.Comma(int64(stats.Edges)))
			if len(stats.Labels) == 0 {
				return nil
			}

			fmt.Fprintln(w, paint(titleStyle, "labels"))
			labels := slices.SortedFunc(maps.Keys(stats.Labels), func(a, b string) int {
				if c := cmp.Compare(stats.Labels[b], stats.Labels[a]); c != 0 {
					return c
				}
				return cmp.Compare(a, b)
			})
			for _, label := range labels {
				name := label
				if name == "" {
					name = paint(dimStyle, "(none)")
				}
				fmt.Fprintf(w, "  %-20s %s\n", name, humanize.Comma(int64(stats.Labels[label])))
			}
			return nil
		},
	}
}
