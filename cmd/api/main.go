package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"argus-backend/internal/config"
	"argus-backend/internal/dashboard"
	"argus-backend/internal/di"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The static source stands in for the detection analytics service.
	// Production builds swap in a Source backed by the results store.
	source := dashboard.NewStaticSource(42)

	container, err := di.NewContainer(ctx, cfg, source)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	container.Start()

	// Hot reload applies TTL overrides without a restart.
	var watcher *config.Watcher
	if cfg.IsDevelopment() {
		watcher, err = config.NewWatcher(configPath, cfg, container.Logger)
		if err != nil {
			container.Logger.Warn("config hot reload unavailable", zap.Error(err))
		} else {
			watcher.OnChange(container.ApplyConfig)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      container.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		container.Logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			container.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	container.Logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("server shutdown error", zap.Error(err))
	}
	if watcher != nil {
		watcher.Stop()
	}
	container.Shutdown(shutdownCtx)
}
