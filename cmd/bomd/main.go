package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/application/services/bom"
	"github.com/vsinha/sinkbom/pkg/infrastructure/catalogstore"
	"github.com/vsinha/sinkbom/pkg/infrastructure/config"
	"github.com/vsinha/sinkbom/pkg/infrastructure/events"
	"github.com/vsinha/sinkbom/pkg/infrastructure/logging"
	"github.com/vsinha/sinkbom/pkg/infrastructure/metrics"
	"github.com/vsinha/sinkbom/pkg/interfaces/httpapi"
)

func main() {
	envFile := flag.String("env", "", "Environment file with BOMGEN_* settings (default: .env)")
	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(settings, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(settings *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	store, err := catalogstore.Open(settings.CatalogDir, logger)
	if err != nil {
		return err
	}
	report := store.Snapshot().IntegrityReport()
	recorder.SetCatalogIssues(len(report.Warnings), len(report.Errors))

	eventStore := events.NewInMemoryEventStore(logger, events.WithRetention(settings.EventRetention))
	generator := bom.NewGenerator(bom.Options{
		MaxDepth:         settings.MaxDepth,
		CollectAllErrors: settings.CollectAllErrors,
		PartialSuccess:   settings.PartialSuccess,
		Workers:          settings.Workers,
	}, bom.WithLogger(logger), bom.WithMetrics(recorder), bom.WithEventStore(eventStore))

	srv := &http.Server{
		Addr: settings.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Store:      store,
			Generator:  generator,
			Events:     eventStore,
			Metrics:    recorder,
			Gatherer:   reg,
			CatalogDir: settings.CatalogDir,
			Logger:     logger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", settings.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
