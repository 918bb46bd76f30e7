package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/logger"
	"github.com/dxnn/dagoba/internal/dagoba/migration"
	"github.com/dxnn/dagoba/internal/dagoba/query"
	"github.com/dxnn/dagoba/internal/dagoba/script"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// colorEnabled is set when stdout is a terminal and --no-color is off
var colorEnabled bool

// paint renders s with style when color is enabled
func paint(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// options holds the global flags
type options struct {
	graphPath string
	output    string
	verbose   bool
	noColor   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dagoba",
		Short: "An in-memory graph database with a lazy traversal query language",
		Long: `dagoba loads a graph document (JSON, YAML or a tar archive) and runs
queries against it:

  v(1).out("knows").as("me").outAllN(["friend", "colleague"], 2).take(10)
  v({type: 'banana'}).where('vertex.ripe').property('name')`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			colorEnabled = !opts.noColor && term.IsTerminal(int(os.Stdout.Fd()))
		},
	}

	root.PersistentFlags().StringVarP(&opts.graphPath, "graph", "g", "", "graph document to load (.json, .yaml, .tar)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json, yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log rejected records and query errors")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newQueryCmd(opts),
		newReplCmd(opts),
		newConvertCmd(opts),
		newStatsCmd(opts),
		newSnapshotCmd(opts),
	)
	return root
}

func (o *options) logger() *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}
	l, err := logger.NewWithWriter(os.Stderr, "text", slog.LevelDebug)
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// loadGraph reads the --graph document. Rejected records are logged and
// do not stop the load.
func (o *options) loadGraph() (*graph.Graph, error) {
	if o.graphPath == "" {
		return nil, fmt.Errorf("no graph given, use --graph")
	}
	log := o.logger()
	g, err := migration.ReadFile(o.graphPath, graph.WithLogger(log))
	if g == nil {
		return nil, err
	}
	if err != nil {
		log.Warn("some records were rejected", slog.Any("error", err))
	}
	return g, nil
}

func (o *options) engine() *query.Engine {
	reg := query.NewRegistry()
	script.Register(reg)

	hooks := query.NewHooks()
	hooks.Add(query.PostQuery, query.CleanClone)

	return query.NewEngine(
		query.WithRegistry(reg),
		query.WithHooks(hooks),
		query.WithLogger(o.logger()),
	)
}
