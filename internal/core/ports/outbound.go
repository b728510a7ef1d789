package ports

import (
	"context"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// KeyValueStore is the best-effort persistence contract backing the cache,
// the cost ledger, and the offline queue. Failures are caught and logged by
// callers, never propagated as fatal.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Completion is one generative fallback result with its token usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// CompletionClient is the paid generative fallback. Calls must be bounded by
// the caller-supplied context deadline.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// FeedbackSink records clicks and corrections fire-and-forget.
type FeedbackSink interface {
	PublishFeedback(ctx context.Context, fb domain.Feedback) error
	PublishAnalytics(ctx context.Context, event string, payload []byte) error
}

// ConnectivitySource reports the online/offline flag and notifies observers
// on transitions.
type ConnectivitySource interface {
	Online() bool
	OnReconnect(fn func())
}

// CorpusSource loads the versioned read-only FAQ document once at startup.
type CorpusSource interface {
	Load(ctx context.Context) (*domain.Corpus, error)
}

// ResultCache is the tiered answer store keyed by normalized query.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.CacheEntry, bool)
	Put(ctx context.Context, key string, payload domain.Resolution, entryType domain.CacheEntryType, costSaving float64)
}

// OfflineQueue defers actions attempted while disconnected.
type OfflineQueue interface {
	Enqueue(ctx context.Context, kind domain.ActionKind, payload []byte) (domain.OfflineQueueItem, error)
}

// RetryExecutor runs an external operation under the recovery table and
// reports how many attempts it made.
type RetryExecutor interface {
	Execute(ctx context.Context, operation string, fn func(context.Context) error) (int, error)
}

// FallbackFactory converts an exhausted failure into a degraded-but-usable
// resolution.
type FallbackFactory interface {
	Recover(operation string, err error, retryCount int) *domain.Resolution
}
