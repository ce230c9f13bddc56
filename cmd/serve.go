package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/api"
	"github.com/sells-group/tradeflow/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve derived operations over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Server.Port = resolvePort(servePort, cfg.Server.Port)
		svc, err := initService(cfg, "serve")
		if err != nil {
			return err
		}

		if cfg.Source.Watch {
			if err := svc.Watch(ctx); err != nil {
				return err
			}
		}
		if interval := cfg.Source.RefreshInterval(); interval > 0 {
			go svc.RunRefresher(ctx, interval)
		}
		if cfg.Alerts.WebhookURL != "" {
			checker := monitoring.NewChecker(monitoring.NewCollector(svc), monitoring.NewAlerter(cfg.Alerts), cfg.Alerts)
			go checker.Run(ctx)
		}

		// Warm the cache so the first request does not pay for the parse.
		if _, err := svc.Snapshots(ctx); err != nil {
			zap.L().Warn("initial load failed", zap.Error(err))
		}

		return startServer(ctx, api.NewRouter(svc, cfg.Server), cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured one.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer listens on port until ctx is cancelled, then shuts down.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}
