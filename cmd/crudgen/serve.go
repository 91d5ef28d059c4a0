package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/crudgen"
	"github.com/aretw0/crudgen/internal/cli"
	"github.com/aretw0/crudgen/internal/presentation/tui"
	httpAdapter "github.com/aretw0/crudgen/pkg/adapters/http"
	"github.com/aretw0/crudgen/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP record API",
		Long:  `Serves the record API (validate, CRUD, schema, OpenAPI) over HTTP using the configured store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			var (
				genOpts  []crudgen.Option
				httpOpts = []httpAdapter.Option{
					httpAdapter.WithLogger(logger),
					httpAdapter.WithStrict(cfg.Strict),
					httpAdapter.WithOrigins(cfg.HTTP.Origins...),
				}
			)
			if cfg.Metrics {
				metrics, err := observability.NewMetrics()
				if err != nil {
					return err
				}
				genOpts = append(genOpts, crudgen.WithLifecycleHooks(metrics.Hooks()))
				httpOpts = append(httpOpts, httpAdapter.WithMetrics(metrics.Handler()))
			}

			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()

			gen, backend, err := cli.NewGenerator(sc, cfg, logger, genOpts...)
			if err != nil {
				return err
			}
			defer backend.Close()

			handler, err := httpAdapter.NewHandler(gen, httpOpts...)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("Starting crudgen server", "addr", srv.Addr, "store", cfg.Store.Driver, "metrics", cfg.Metrics)
				serverErrors <- srv.ListenAndServe()
			}()

			if f := outFile(cmd); f != nil {
				tui.PrintBanner(f, trimVersion())
			}

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case <-sc.Done():
				logger.Info("Start shutdown", "signal", sc.Signal())

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				logger.Info("crudgen server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides http.addr)")
	return cmd
}
