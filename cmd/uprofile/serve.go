// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/config"
	"github.com/Imfractical/uprofile/internal/observability"
	"github.com/Imfractical/uprofile/internal/web"
	"github.com/Imfractical/uprofile/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the account JSON API, plus metrics and health probes when
metrics.addr is set. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, logger, deps)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, deps *Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting uprofile", "http_addr", cfg.HTTP.Addr, "metrics_addr", cfg.Metrics.Addr)

	backend, err := deps.BackendFactory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	logger.Info("connected to storage")

	var (
		obsServer ObservabilityServer
		recorder  account.Recorder
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, backend.Ready)
		metrics = obsServer.Metrics()
		recorder = metrics
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		defer stopServer(logger, "observability", obsServer.Stop)
		go monitorServerErrors(ctx, cancel, logger, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	svcs, err := newServices(backend, cfg, deps.Hasher, logger, recorder)
	if err != nil {
		return err
	}
	router, err := web.NewRouter(web.Dependencies{
		Accounts: svcs.accounts,
		Resets:   svcs.resets,
		Profiles: svcs.profiles,
	}, web.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		SecureCookies:  cfg.HTTP.SecureCookies,
		Logger:         logger,
		Metrics:        metrics,
		ResetDelivery:  resetDelivery(cfg, logger),
	})
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	httpErrChan := make(chan error, 1)
	go func() {
		defer close(httpErrChan)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrChan <- oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}()
	defer stopServer(logger, "http", httpServer.Shutdown)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("uprofile started")
	logger.Info("http server listening", "addr", listener.Addr().String())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-httpErrChan:
		return err
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}
	return nil
}

// stopServer shuts a server down within shutdownTimeout.
func stopServer(logger *slog.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		errutil.LogError(logger.With("server", name), "error stopping server", err)
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(logger.With("server", serverName), "server error, triggering shutdown", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
