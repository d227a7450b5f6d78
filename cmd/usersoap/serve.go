package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/logging"
	"github.com/standardbeagle/usersoap/internal/server"
	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/store"
)

// serveCommand runs the HTTP server until interrupted
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.NewUserServer(cfg.Server, newService(cfg, st, logger), logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "SOAP server listening on %s/soap\n", server.BaseURL(srv.Addr()))

	g, gctx := errgroup.WithContext(ctx)

	if fs, ok := st.(*store.FileStore); ok && cfg.Store.Watch {
		stopWatch, err := fs.Watch(gctx, func(ev store.WatchEvent) {
			if !ev.External {
				return
			}
			logger.Warn("data file modified outside the server",
				slog.String("path", ev.Path),
				slog.String("op", ev.Op),
				slog.Bool("removed", ev.Removed),
			)
		})
		if err != nil {
			logger.Warn("file watcher disabled", slog.String("error", err.Error()))
		} else {
			g.Go(func() error {
				<-gctx.Done()
				stopWatch()
				return nil
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore opens the configured store and initializes it with one load,
// so a missing data file is created before the first request
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	if _, err := st.Load(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Backend, err)
	}
	return st, nil
}

func newService(cfg *config.Config, st store.Store, logger *slog.Logger) *service.Service {
	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Telemetry.Enabled {
		opts = append(opts, service.WithDefaultTelemetry())
	}
	return service.New(st, opts...)
}
