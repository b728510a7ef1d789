package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/finassist/qa-engine/internal/core/cost"
	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/index"
	"github.com/finassist/qa-engine/internal/core/match"
	"github.com/finassist/qa-engine/internal/core/ports"
)

// ResolveUseCase runs the per-query resolution state machine:
// normalize -> cache lookup -> local search -> escalate or refuse ->
// degraded fallback. Identical in-flight queries are deduplicated so the
// escalation budget cannot be double-spent by near-simultaneous questions.
type ResolveUseCase struct {
	index        *index.Index
	cache        ports.ResultCache
	governor     *cost.Governor
	completion   ports.CompletionClient
	executor     ports.RetryExecutor
	fallbacks    ports.FallbackFactory
	sink         ports.FeedbackSink
	queue        ports.OfflineQueue
	connectivity ports.ConnectivitySource
	logger       *slog.Logger

	group singleflight.Group
}

func NewResolveUseCase(
	idx *index.Index,
	resultCache ports.ResultCache,
	governor *cost.Governor,
	completion ports.CompletionClient,
	executor ports.RetryExecutor,
	fallbacks ports.FallbackFactory,
	sink ports.FeedbackSink,
	queue ports.OfflineQueue,
	connectivity ports.ConnectivitySource,
	logger *slog.Logger,
) *ResolveUseCase {
	return &ResolveUseCase{
		index:        idx,
		cache:        resultCache,
		governor:     governor,
		completion:   completion,
		executor:     executor,
		fallbacks:    fallbacks,
		sink:         sink,
		queue:        queue,
		connectivity: connectivity,
		logger:       logger,
	}
}

func (uc *ResolveUseCase) Resolve(ctx context.Context, query string) (*domain.Resolution, error) {
	key := match.NormalizeQuery(query)
	if key == "" {
		return nil, domain.ErrInvalidInput
	}

	started := time.Now()
	shared, err, _ := uc.group.Do(key, func() (any, error) {
		return uc.resolveKey(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	uc.governor.ObserveResponseTime(ctx, time.Since(started))
	resolution := *shared.(*domain.Resolution)
	uc.recordAnalytics(ctx, key, resolution.Source)
	return &resolution, nil
}

func (uc *ResolveUseCase) resolveKey(ctx context.Context, key string) (*domain.Resolution, error) {
	if entry, ok := uc.cache.Get(ctx, key); ok {
		hit := entry.Payload
		hit.Source = domain.SourceCache
		return &hit, nil
	}

	results := uc.index.Search(key, "")
	topScore := 0.0
	if len(results) > 0 {
		topScore = results[0].RelevanceScore
	}

	// An escalation-worthy query asked while offline must not burn an
	// allowance unit; the generative call cannot happen anyway.
	if uc.governor.WouldEscalate(topScore) && uc.connectivity != nil && !uc.connectivity.Online() {
		if _, err := uc.queue.Enqueue(ctx, domain.ActionQuery, []byte(key)); err != nil {
			uc.logger.Warn("offline query enqueue failed", "error", err)
		}
		return uc.fallbacks.Recover("escalate", domain.ErrOffline, 0), nil
	}

	decision := uc.governor.Decide(ctx, topScore)
	switch {
	case !decision.Escalate && !decision.Refused:
		return uc.answerLocally(ctx, key, results)
	case decision.Refused:
		return uc.fallbacks.Recover("escalate", domain.ErrQuotaExceeded, 0), nil
	}

	return uc.escalate(ctx, key, results)
}

func (uc *ResolveUseCase) answerLocally(ctx context.Context, key string, results []domain.SearchResult) (*domain.Resolution, error) {
	if len(results) == 0 {
		// Decide only clears local answering when the top score beats
		// the threshold, so an empty result set cannot land here.
		return uc.fallbacks.Recover("local search", domain.WrapError(domain.ErrSearch, "local search", fmt.Errorf("no results above threshold")), 0), nil
	}

	top := results[0]
	resolution := domain.Resolution{
		Text:        top.Entry.Answer,
		Source:      domain.SourceFAQ,
		Suggestions: uc.relatedSuggestions(top.Entry),
	}
	uc.cache.Put(ctx, key, resolution, domain.CacheEntryFAQ, uc.governor.AvoidedCost())
	return &resolution, nil
}

func (uc *ResolveUseCase) escalate(ctx context.Context, key string, results []domain.SearchResult) (*domain.Resolution, error) {
	if uc.connectivity != nil && !uc.connectivity.Online() {
		if _, err := uc.queue.Enqueue(ctx, domain.ActionQuery, []byte(key)); err != nil {
			uc.logger.Warn("offline query enqueue failed", "error", err)
		}
		return uc.fallbacks.Recover("escalate", domain.ErrOffline, 0), nil
	}

	prompt := buildEscalationPrompt(key, results)

	var completion *ports.Completion
	attempts, err := uc.executor.Execute(ctx, "llm.complete", func(callCtx context.Context) error {
		result, callErr := uc.completion.Complete(callCtx, prompt)
		if callErr != nil {
			return callErr
		}
		completion = result
		return nil
	})
	if err != nil {
		return uc.fallbacks.Recover("llm.complete", err, attempts-1), nil
	}

	charge := uc.governor.RecordCompletion(ctx, completion.InputTokens, completion.OutputTokens)
	resolution := domain.Resolution{
		Text:   completion.Text,
		Source: domain.SourceLLM,
	}
	uc.cache.Put(ctx, key, resolution, domain.CacheEntryLLM, charge)
	return &resolution, nil
}

func (uc *ResolveUseCase) relatedSuggestions(entry domain.FAQEntry) []string {
	related, err := uc.index.Related(entry.ID, 3)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(related))
	for _, r := range related {
		out = append(out, r.Question)
	}
	return out
}

// recordAnalytics is best-effort bookkeeping; it can never block or fail the
// resolution that triggered it.
func (uc *ResolveUseCase) recordAnalytics(ctx context.Context, key string, source domain.AnswerSource) {
	if uc.sink == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"query": key, "source": string(source)})
	if err != nil {
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := uc.sink.PublishAnalytics(sendCtx, "resolved", payload); err != nil {
			if domain.IsKind(err, domain.ErrOffline) || domain.IsKind(err, domain.ErrNetwork) {
				if _, qErr := uc.queue.Enqueue(sendCtx, domain.ActionAnalytics, payload); qErr != nil {
					uc.logger.Warn("analytics enqueue failed", "error", qErr)
				}
				return
			}
			uc.logger.Warn("analytics publish failed", "error", err)
		}
	}()
}

func buildEscalationPrompt(query string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)

	if len(results) > 0 {
		b.WriteString("\n\nPossibly related help articles (low confidence):\n")
		limit := len(results)
		if limit > 3 {
			limit = 3
		}
		for _, r := range results[:limit] {
			b.WriteString("- ")
			b.WriteString(r.Entry.Question)
			b.WriteString("\n")
		}
	}
	return b.String()
}
