package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"accident-monitor/internal/auth"
	"accident-monitor/internal/config"
	"accident-monitor/internal/eventlog"
	"accident-monitor/internal/hub"
	"accident-monitor/internal/pipeline"
	"accident-monitor/internal/registry"
	"accident-monitor/internal/store"
	transport "accident-monitor/internal/transport/http"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ingestion and streaming server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func runServe() error {
	cfg := config.Load()
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	rds, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rds.Close()

	reg := registry.New(pg)
	events := eventlog.New(pg, cfg.EventPageLimit)
	h := hub.New(cfg.HubBufferSize)
	ingestor := pipeline.NewIngestor(pg, reg, h, rds, log)
	authMW := transport.NewAuthMiddleware(auth.NewAuthenticator(cfg, rds))

	server := transport.NewServer(cfg, reg, events, ingestor, h, authMW, log)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("accident monitor listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
