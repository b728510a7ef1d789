package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/ports"
)

const itemKeyPrefix = "offline/item/"

type Config struct {
	RetryCap int
}

func DefaultConfig() Config {
	return Config{RetryCap: 3}
}

type queued struct {
	key  string
	item domain.OfflineQueueItem
}

// Queue is the persisted FIFO of actions deferred until connectivity
// returns. Items past the retry cap are dropped and counted, never retried
// forever.
type Queue struct {
	cfg    Config
	store  ports.KeyValueStore
	logger *slog.Logger

	mu      sync.Mutex
	items   []queued
	dropped int64
}

func New(cfg Config, store ports.KeyValueStore, logger *slog.Logger) *Queue {
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = DefaultConfig().RetryCap
	}
	return &Queue{cfg: cfg, store: store, logger: logger}
}

// Load restores persisted items in enqueue order. Corrupted values are
// removed and treated as absent.
func (q *Queue) Load(ctx context.Context) {
	keys, err := q.store.ListKeys(ctx, itemKeyPrefix)
	if err != nil {
		q.logger.Warn("offline queue restore failed", "error", err)
		return
	}
	sort.Strings(keys)

	restored := make([]queued, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := q.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var item domain.OfflineQueueItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			q.logger.Warn("offline queue item corrupted, dropping", "key", key, "error", err)
			_ = q.store.Remove(ctx, key)
			continue
		}
		restored = append(restored, queued{key: key, item: item})
	}

	q.mu.Lock()
	q.items = restored
	q.mu.Unlock()
}

// Enqueue appends one deferred action.
func (q *Queue) Enqueue(ctx context.Context, kind domain.ActionKind, payload []byte) (domain.OfflineQueueItem, error) {
	now := time.Now().UTC()
	item := domain.OfflineQueueItem{
		ID:         uuid.NewString(),
		EnqueuedAt: now,
		Kind:       kind,
		Payload:    payload,
	}
	key := fmt.Sprintf("%s%020d-%s", itemKeyPrefix, now.UnixNano(), item.ID)

	if err := q.persist(ctx, key, item); err != nil {
		return item, domain.WrapError(domain.ErrCache, "offline enqueue", err)
	}

	q.mu.Lock()
	q.items = append(q.items, queued{key: key, item: item})
	q.mu.Unlock()
	return item, nil
}

// Drain attempts every queued item once, in order. Successful items are
// removed; failed items have their retry count bumped and are dropped once
// it exceeds the cap.
func (q *Queue) Drain(ctx context.Context, handler func(context.Context, domain.OfflineQueueItem) error) (processed, dropped int) {
	q.mu.Lock()
	pending := make([]queued, len(q.items))
	copy(pending, q.items)
	q.mu.Unlock()

	removed := make(map[string]struct{}, len(pending))
	retried := make(map[string]domain.OfflineQueueItem, len(pending))
	for _, entry := range pending {
		if ctx.Err() != nil {
			continue
		}

		err := handler(ctx, entry.item)
		if err == nil {
			processed++
			q.removePersisted(ctx, entry.key)
			removed[entry.key] = struct{}{}
			continue
		}

		entry.item.RetryCount++
		if entry.item.RetryCount > q.cfg.RetryCap {
			dropped++
			q.logger.Warn("offline item dropped after retry cap",
				"id", entry.item.ID,
				"kind", string(entry.item.Kind),
				"retries", entry.item.RetryCount,
			)
			q.removePersisted(ctx, entry.key)
			removed[entry.key] = struct{}{}
			continue
		}
		if err := q.persist(ctx, entry.key, entry.item); err != nil {
			q.logger.Warn("offline item update failed", "id", entry.item.ID, "error", err)
		}
		retried[entry.key] = entry.item
	}

	// Merge by key so items enqueued while the handlers ran survive the
	// pass. Rebuilding from the current slice keeps FIFO order intact.
	q.mu.Lock()
	next := make([]queued, 0, len(q.items))
	for _, entry := range q.items {
		if _, ok := removed[entry.key]; ok {
			continue
		}
		if item, ok := retried[entry.key]; ok {
			entry.item = item
		}
		next = append(next, entry)
	}
	q.items = next
	q.dropped += int64(dropped)
	q.mu.Unlock()
	return processed, dropped
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped reports the total items lost to the retry cap since startup.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) persist(ctx context.Context, key string, item domain.OfflineQueueItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal offline item: %w", err)
	}
	return q.store.Set(ctx, key, string(raw))
}

func (q *Queue) removePersisted(ctx context.Context, key string) {
	if err := q.store.Remove(ctx, key); err != nil {
		q.logger.Warn("offline item remove failed", "key", key, "error", err)
	}
}
