package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paydash/internal/aggregator"
	"paydash/internal/cli"
	"paydash/internal/config"
	"paydash/internal/events"
	apphttp "paydash/internal/http"
	"paydash/internal/log"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, cleanup, err := cli.InitReader(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	agg := aggregator.New(result.Reader, aggregator.Config{
		Interval:     cfg.RefreshInterval,
		FetchTimeout: cfg.FetchTimeout,
	}, logger)

	pub, err := events.New(ctx, events.Config{
		Backend:      cfg.EventsBackend,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		Kafka: events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		},
	})
	if err != nil {
		// The dashboard works without events; keep serving.
		logger.Warn("Refresh events disabled", log.FieldError, err, "backend", cfg.EventsBackend)
		pub = events.Nop{}
	}
	defer pub.Close()

	// Subscribe before Start so the first run is seen by every consumer.
	runs, unsubscribe := agg.SubscribeRuns()
	defer unsubscribe()

	srv, err := apphttp.NewServer(":"+cfg.Port, agg, apphttp.Options{
		TopClients: cfg.TopClients,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	if err := agg.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting paydash server",
			"port", cfg.Port,
			"backend", cfg.SourceBackend,
			log.FieldSource, agg.Source(),
			"refresh_interval", cfg.RefreshInterval,
			"events", pub.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		events.Forward(gctx, runs, pub, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := agg.Stop(shutdownCtx); err != nil {
			logger.Error("Aggregator shutdown error", log.FieldError, err)
		}
		return nil
	})

	return g.Wait()
}
