package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dxnn/dagoba/internal/dagoba/config"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/logger"
	"github.com/dxnn/dagoba/internal/dagoba/migration"
	"github.com/dxnn/dagoba/internal/dagoba/query"
	"github.com/dxnn/dagoba/internal/dagoba/script"
	"github.com/dxnn/dagoba/internal/server/api"
	"github.com/dxnn/dagoba/internal/server/snapshot"
	"github.com/dxnn/dagoba/internal/server/subscriptions"
)

func main() {
	configPath := flag.String("config", os.Getenv("DAGOBA_CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "dagoba-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.SetLogger(log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := snapshot.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening snapshot storage: %w", err)
	}
	if repo != nil {
		defer repo.Close(context.Background())
	}

	g, err := initialGraph(ctx, cfg, repo, log)
	if err != nil {
		return err
	}
	log.Info("graph ready", slog.Int("vertices", g.Len()), slog.Int("edges", g.EdgeLen()))

	reg := query.NewRegistry()
	script.Register(reg)
	engine := query.NewEngine(query.WithRegistry(reg), query.WithLogger(log))

	subMgr := subscriptions.NewManager(log)
	subMgr.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), config.Timeout(cfg.Server.ShutdownTimeout))
		defer cancel()
		subMgr.Stop(stopCtx)
	}()

	opts := []api.Option{
		api.WithLogger(log),
		api.WithSubscriptions(subMgr),
		api.WithPageSize(cfg.Query.PageSize),
		api.WithMaxCursors(cfg.Query.MaxCursors),
	}
	if repo != nil {
		opts = append(opts, api.WithRepository(repo))
	}
	apiServer := api.New(g, engine, opts...)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer.Routes(),
		ReadTimeout:  config.Timeout(cfg.Server.ReadTimeout),
		WriteTimeout: config.Timeout(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Timeout(cfg.Server.IdleTimeout),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("starting dagoba server", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Timeout(cfg.Server.ShutdownTimeout))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

// initialGraph loads the configured graph document, falling back to the
// latest snapshot and then to an empty graph
func initialGraph(ctx context.Context, cfg *config.Config, repo snapshot.Repository, log *slog.Logger) (*graph.Graph, error) {
	if cfg.Query.Graph != "" {
		g, err := migration.ReadFile(cfg.Query.Graph, graph.WithLogger(log))
		if g == nil {
			return nil, fmt.Errorf("loading graph: %w", err)
		}
		if err != nil {
			log.Warn("some records were rejected", slog.Any("error", err))
		}
		return g, nil
	}

	if repo != nil {
		g, err := repo.Load(ctx, graph.WithLogger(log))
		switch {
		case errors.Is(err, snapshot.ErrNoSnapshot):
		case g == nil:
			return nil, fmt.Errorf("loading snapshot: %w", err)
		default:
			if err != nil {
				log.Warn("some snapshot records were rejected", slog.Any("error", err))
			}
			return g, nil
		}
	}

	return graph.New(graph.WithLogger(log)), nil
}
