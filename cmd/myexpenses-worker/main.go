package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myexpenses/internal/amqp"
	"myexpenses/internal/backend"
	"myexpenses/internal/cli"
	"myexpenses/internal/log"
	"myexpenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	logger.Info("Starting myexpenses-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend is private to this process, the mirror will only ever see an empty list")
	}

	// The worker only reads the list; it must not publish its own events
	readCfg := bcfg
	readCfg.AMQPURL = ""

	factory := backend.NewFactory(logger)
	be, err := factory.CreateBackend(context.Background(), readCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err)
		os.Exit(1)
	}
	defer be.Close()

	mirror, err := factory.CreateMirror(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to create mirror", log.FieldError, err)
		os.Exit(1)
	}

	var consumer *amqp.Client
	if cfg.HasAMQP() {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()
	} else {
		logger.Info("AMQP_URL not set, relying on periodic resync only",
			"interval", cfg.MirrorInterval.String())
	}

	mw := worker.NewMirrorWorker(be.Store, mirror, logger)

	root, stop := context.WithCancel(context.Background())
	defer stop()
	ctx, done := cli.GracefulShutdown(root, logger, 30*time.Second, nil)

	// Catch up with anything that changed while the worker was down
	if err := mw.Sync(ctx, "startup"); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeListChanged(gctx, mw.HandleListChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		return mw.RunPeriodic(gctx, cfg.MirrorInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}
	stop()
	<-done

	synced, count := mw.Status()
	logger.Info("Worker shutdown complete", "last_synced", synced, log.FieldCount, count)
}
