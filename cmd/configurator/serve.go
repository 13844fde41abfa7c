package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reliant/configurator/internal/cli"
	"github.com/reliant/configurator/internal/config"
	httpAdapter "github.com/reliant/configurator/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves products, configuration sessions, carts, quotations and AI insights as a JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := buildApp(cmd,
			config.WithFlag("http.addr", cmd.Flags().Lookup("addr")),
			config.WithFlag("metrics.enabled", cmd.Flags().Lookup("metrics")),
		)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if !cli.WatchCatalog(ctx, app.Catalog, app.Logger) {
				app.Logger.Warn("catalog source does not support watching", "source", cfg.Catalog.Source)
			}
		}

		opts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
		if app.Metrics != nil {
			opts = append(opts,
				httpAdapter.WithMiddleware(app.Metrics.Middleware),
				httpAdapter.WithMetricsHandler(app.Metrics.Handler()),
			)
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(app, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			app.Logger.Info("configurator server listening", "addr", srv.Addr, "catalog", cfg.Catalog.Source)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			app.Logger.Info("configurator server stopped")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().BoolP("watch", "w", false, "Revalidate the catalog when its documents change (loam source)")
}
