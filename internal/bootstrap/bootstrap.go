package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/finassist/qa-engine/internal/config"
	"github.com/finassist/qa-engine/internal/core/cost"
	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/index"
	"github.com/finassist/qa-engine/internal/core/ports"
	"github.com/finassist/qa-engine/internal/core/usecase"
	"github.com/finassist/qa-engine/internal/infrastructure/cache"
	"github.com/finassist/qa-engine/internal/infrastructure/corpus"
	feedbacknats "github.com/finassist/qa-engine/internal/infrastructure/feedback/nats"
	kvpostgres "github.com/finassist/qa-engine/internal/infrastructure/kv/postgres"
	"github.com/finassist/qa-engine/internal/infrastructure/llm/openai"
	"github.com/finassist/qa-engine/internal/infrastructure/offline"
	"github.com/finassist/qa-engine/internal/infrastructure/resilience"
)

const reconnectDrainTimeout = 30 * time.Second

type App struct {
	Config config.Config
	Logger *slog.Logger

	Index    *index.Index
	Cache    *cache.ResultCache
	Governor *cost.Governor
	Queue    *offline.Queue
	Sink     *feedbacknats.Sink
	ErrorLog *resilience.ErrorLog

	ResolveUC  ports.QuestionResolver
	BrowseUC   *usecase.BrowseUseCase
	FeedbackUC ports.FeedbackRecorder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := kvpostgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := kvpostgres.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	corpusData, err := corpus.NewFileSource(cfg.CorpusPath).Load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	idx := index.New(corpusData)

	governor := cost.NewGovernor(cost.Config{
		EscalationThreshold: cfg.EscalationThreshold,
		AllowancePerPeriod:  cfg.EscalationAllowance,
		Period:              budgetPeriod(cfg.BudgetPeriod),
		FAQAvoidedCost:      cfg.FAQAvoidedCostUSD,
		InputTokenRate:      cfg.InputTokenRateUSD,
		OutputTokenRate:     cfg.OutputTokenRateUSD,
	}, store, logger)
	governor.Load(ctx)

	resultCache := cache.New(cache.Config{
		TTL:        time.Duration(cfg.CacheTTLHours) * time.Hour,
		MaxEntries: cfg.CacheMaxEntries,
	}, store, governor, logger)
	resultCache.Load(ctx)

	queue := offline.New(offline.Config{RetryCap: cfg.OfflineRetryCap}, store, logger)
	queue.Load(ctx)

	errorLog := resilience.NewErrorLog(cfg.ErrorLogCapacity)
	executor := resilience.NewExecutor(resilience.DefaultConfig(), errorLog, logger)
	fallbacks := resilience.NewFallbacks(errorLog, idx.CategoryTitles)

	llmClient := openai.New(cfg.OpenAIAPIKey, openai.Options{
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		RequestTimeout: time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
		RatePerMinute:  cfg.OpenAIRatePerMinute,
	})

	sink, err := feedbacknats.New(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init feedback sink: %w", err)
	}

	resolveUC := usecase.NewResolveUseCase(idx, resultCache, governor, llmClient, executor, fallbacks, sink, queue, sink, logger)
	browseUC := usecase.NewBrowseUseCase(idx)
	feedbackUC := usecase.NewFeedbackUseCase(sink, queue, sink, logger)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Index:      idx,
		Cache:      resultCache,
		Governor:   governor,
		Queue:      queue,
		Sink:       sink,
		ErrorLog:   errorLog,
		ResolveUC:  resolveUC,
		BrowseUC:   browseUC,
		FeedbackUC: feedbackUC,
		closeFn: func() {
			sink.Close()
			_ = db.Close()
		},
	}

	sink.OnReconnect(func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), reconnectDrainTimeout)
		defer cancel()
		processed, dropped := app.Replay(drainCtx)
		if processed > 0 || dropped > 0 {
			logger.Info("offline queue drained after reconnect", "processed", processed, "dropped", dropped)
		}
	})

	return app, nil
}

// Replay drains the offline queue once, re-running deferred actions against
// the live backends.
func (a *App) Replay(ctx context.Context) (processed, dropped int) {
	return a.Queue.Drain(ctx, a.replayItem)
}

func (a *App) replayItem(ctx context.Context, item domain.OfflineQueueItem) error {
	switch item.Kind {
	case domain.ActionQuery:
		// Resolving again warms the cache so the answer is ready when the
		// user retries.
		_, err := a.ResolveUC.Resolve(ctx, string(item.Payload))
		return err
	case domain.ActionFeedback:
		var fb domain.Feedback
		if err := json.Unmarshal(item.Payload, &fb); err != nil {
			return domain.WrapError(domain.ErrParsing, "replay feedback", err)
		}
		return a.Sink.PublishFeedback(ctx, fb)
	case domain.ActionAnalytics:
		return a.Sink.PublishAnalytics(ctx, "resolved", item.Payload)
	default:
		return domain.WrapError(domain.ErrParsing, "replay", fmt.Errorf("unknown action kind %q", item.Kind))
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func budgetPeriod(raw string) cost.Period {
	if raw == string(cost.PeriodMonthly) {
		return cost.PeriodMonthly
	}
	return cost.PeriodDaily
}
