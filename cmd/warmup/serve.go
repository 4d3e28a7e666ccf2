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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/slycke/go-warmup/internal/config"
	"github.com/slycke/go-warmup/internal/httpapi"
	"github.com/slycke/go-warmup/internal/metrics"
	"github.com/slycke/go-warmup/internal/mqttpub"
	"github.com/slycke/go-warmup/pkg/warmup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics endpoint and MQTT publisher",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	_ = v.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		collector *metrics.Collector
		publisher *mqttpub.Publisher
	)

	// hooks only run after Start, by which time collector is set
	opts := append(cfg.ClientOptions(logger),
		warmup.WithRefreshHook(func(rooms []warmup.Room) { collector.ObserveRefresh(rooms) }))

	if cfg.MQTT.Enabled {
		p, err := mqttpub.Connect(cfg.MQTT, logger.With("component", "mqtt"))
		if err != nil {
			logger.Error("mqtt disabled", "error", err)
		} else {
			publisher = p
			defer publisher.Close()
			opts = append(opts, warmup.WithRefreshHook(publisher.ObserveRefresh))
		}
	}

	client, err := warmup.NewClient(cfg.Username, cfg.Password, opts...)
	if err != nil {
		return err
	}
	defer client.Close()
	collector = metrics.NewCollector(client)

	rooms, err := client.Start(ctx)
	if err != nil {
		logger.Error("warmup bootstrap failed, serving without rooms", "error", err)
	} else {
		logger.Info("warmup ready", "rooms", len(rooms))
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(client, logger.With("component", "http"), metrics.Handler(metrics.NewRegistry(collector)))
	srv := httpapi.NewServer(cfg.HTTP.Addr, handler.InitRoutes())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(errCh, srv, logger)
}

// waitForShutdown blocks until a termination signal or a server failure and
// then stops the HTTP server gracefully.
func waitForShutdown(errCh <-chan error, srv *httpapi.Server, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
			return err
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}
	return nil
}
