package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finassist/qa-engine/internal/bootstrap"
	"github.com/finassist/qa-engine/internal/config"
	"github.com/finassist/qa-engine/internal/observability/logging"
	"github.com/finassist/qa-engine/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	interval := time.Duration(cfg.ReplayIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("worker replaying offline queue every %s", interval)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsServer.Shutdown(shutdownCtx)
			cancel()
			return
		case <-ticker.C:
			// The API process persists items too; pick those up before
			// each pass instead of trusting the in-memory view.
			app.Queue.Load(ctx)
			workerMetrics.SetQueueDepth(app.Queue.Len())
			if !app.Sink.Online() || app.Queue.Len() == 0 {
				continue
			}
			started := time.Now()
			processed, dropped := app.Replay(ctx)
			workerMetrics.ObserveDrain(serviceName, processed, dropped, time.Since(started))
			workerMetrics.SetQueueDepth(app.Queue.Len())
			if processed > 0 || dropped > 0 {
				logger.Info("offline queue drained", "processed", processed, "dropped", dropped)
			}
		}
	}
}
