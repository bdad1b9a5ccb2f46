package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myexpenses/internal/backend"
	"myexpenses/internal/cli"
	apphttp "myexpenses/internal/http"
	"myexpenses/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            be.Service,
		Categories:         be.Categories,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		MaxImportBytes:     cfg.MaxImportBytes,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		_ = be.Close()
		os.Exit(1)
	}

	root, stop := context.WithCancel(context.Background())
	defer stop()

	// Shutdown runs on a signal, or once the listener has failed
	_, done := cli.GracefulShutdown(root, logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("Starting myexpenses server",
			"port", cfg.Port, log.FieldBackend, cfg.DataBackend, log.FieldKey, be.Store.Key())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		exitCode = 1
	}
	stop()
	<-done

	if err := be.Close(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
