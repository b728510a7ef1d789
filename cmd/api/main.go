package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/finassist/qa-engine/internal/adapters/http"
	"github.com/finassist/qa-engine/internal/bootstrap"
	"github.com/finassist/qa-engine/internal/config"
	"github.com/finassist/qa-engine/internal/observability/logging"
	"github.com/finassist/qa-engine/internal/observability/metrics"
)

const serviceName = "api"

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

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName, metrics.GaugeProbes{
		CacheEntries:         func() float64 { return float64(app.Cache.Len()) },
		QueueDepth:           func() float64 { return float64(app.Queue.Len()) },
		EscalationsRemaining: func() float64 { return float64(app.Governor.Remaining()) },
		AccruedCostUSD:       func() float64 { return app.Governor.Snapshot().AccruedCost },
		AvoidedCostUSD:       func() float64 { return app.Governor.Snapshot().TotalCostSavings },
	})

	router := httpadapter.NewRouter(
		serviceName,
		app.ResolveUC,
		app.BrowseUC,
		app.BrowseUC,
		app.FeedbackUC,
		app.Governor,
		httpadapter.Probes{
			CacheEntries: app.Cache.Len,
			QueueDepth:   app.Queue.Len,
			QueueDropped: app.Queue.Dropped,
			Online:       app.Sink.Online,
			RecentErrors: app.ErrorLog.Recent,
		},
		serverMetrics,
		logger,
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
