package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/migration"
)

func newConvertCmd(opts *options) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a graph document between JSON, YAML and tar archives",
		Example: `  dagoba convert family.json family.yaml
  dagoba convert family.yaml family.tar --verify`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			g, err := migration.ReadFile(in, graph.WithLogger(opts.logger()))
			if g == nil {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), paint(dimStyle, "warning: "+err.Error()))
			}

			if err := migration.WriteFile(out, g); err != nil {
				return err
			}
			if verify && migration.FormatFromPath(out) == migration.Archive {
				if err := migration.VerifyArchive(out); err != nil {
					return fmt.Errorf("verifying %s: %w", out, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d vertices and %d edges to %s\n", g.Len(), g.EdgeLen(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "re-read a written archive and validate it")
	return cmd
}
