package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dxnn/dagoba/internal/dagoba/config"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/migration"
	"github.com/dxnn/dagoba/internal/server/snapshot"
)

func newSnapshotCmd(opts *options) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or restore a graph through the configured storage backend",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file selecting the storage backend")

	open := func(ctx context.Context) (snapshot.Repository, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		repo, err := snapshot.Open(ctx, cfg, opts.logger())
		if err != nil {
			return nil, err
		}
		if repo == nil {
			return nil, fmt.Errorf("snapshots are disabled, set storage.backend")
		}
		return repo, nil
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Store the --graph document as the latest snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.loadGraph()
			if err != nil {
				return err
			}
			repo, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close(context.Background())

			start := time.Now()
			if err := repo.Save(cmd.Context(), g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d vertices and %d edges in %s\n",
				g.Len(), g.EdgeLen(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	load := &cobra.Command{
		Use:   "load",
		Short: "Write the latest snapshot to the --graph document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.graphPath == "" {
				return fmt.Errorf("no graph given, use --graph")
			}
			repo, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close(context.Background())

			g, err := repo.Load(cmd.Context(), graph.WithLogger(opts.logger()))
			if err != nil {
				return err
			}
			if err := migration.WriteFile(opts.graphPath, g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d vertices and %d edges to %s\n",
				g.Len(), g.EdgeLen(), opts.graphPath)
			return nil
		},
	}

	cmd.AddCommand(save, load)
	return cmd
}
