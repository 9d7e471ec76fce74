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

	"github.com/Brownie44l1/croprec-api/internal/handlers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve POST /predict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.v.Set("server.addr", addr)
			}
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// The listener is only bound once the store has loaded.
	store, err := loadStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize model store: %w", err)
	}
	defer store.Close()

	router := handlers.NewRouter(handlers.NewHandler(store), handlers.RouterOptions{CORS: cfg.Server.CORS})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Logf("", "server starting on %s", cfg.Server.Addr)
	logger.Logf("", "classes: %v", store.Info().Classes)
	logger.Logf("", "endpoints:")
	logger.Logf("", "  GET  /health  - health check")
	logger.Logf("", "  GET  /model   - model information")
	logger.Logf("", "  POST /predict - top-%d crop recommendations", handlers.TopK)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Logf("", "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
