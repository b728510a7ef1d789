package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/finassist/qa-engine/internal/core/cost"
	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/ports"
)

const entryKeyPrefix = "cache/entry/"

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultConfig() Config {
	return Config{
		TTL:        30 * 24 * time.Hour,
		MaxEntries: 500,
	}
}

// ResultCache is the tiered result store: an in-memory LRU bounded by
// MaxEntries, mirrored into the key-value store on each mutation. Size is
// derived from the list itself, never tracked separately. Ledger counters
// update within the same get/put operation.
type ResultCache struct {
	cfg      Config
	store    ports.KeyValueStore
	governor *cost.Governor
	logger   *slog.Logger

	mu    sync.Mutex
	order *list.List // front = most recently used
	items map[string]*list.Element
}

func New(cfg Config, store ports.KeyValueStore, governor *cost.Governor, logger *slog.Logger) *ResultCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	return &ResultCache{
		cfg:      cfg,
		store:    store,
		governor: governor,
		logger:   logger,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Load restores persisted entries, dropping expired ones and trimming to
// capacity by least-recently-used. Corrupted values count as absent.
func (c *ResultCache) Load(ctx context.Context) {
	keys, err := c.store.ListKeys(ctx, entryKeyPrefix)
	if err != nil {
		c.logger.Warn("cache restore failed", "error", err)
		return
	}

	now := time.Now().UTC()
	restored := make([]domain.CacheEntry, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.logger.Warn("cache entry corrupted, dropping", "key", key, "error", err)
			_ = c.store.Remove(ctx, key)
			continue
		}
		if entry.Expired(now, c.cfg.TTL) {
			_ = c.store.Remove(ctx, key)
			continue
		}
		restored = append(restored, entry)
	}

	sort.Slice(restored, func(i, j int) bool {
		return restored[i].AccessedAt.After(restored[j].AccessedAt)
	})
	if len(restored) > c.cfg.MaxEntries {
		restored = restored[:c.cfg.MaxEntries]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(restored) - 1; i >= 0; i-- {
		entry := restored[i]
		c.items[entry.Key] = c.order.PushFront(&entry)
	}
}

// Get returns the live entry for a normalized key. An expired entry is
// purged and treated as a miss. Hits bump the hit count and recency.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	now := time.Now().UTC()

	c.mu.Lock()
	element, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.governor.RecordCacheMiss(ctx)
		return nil, false
	}
	entry := element.Value.(*domain.CacheEntry)
	if entry.Expired(now, c.cfg.TTL) {
		c.order.Remove(element)
		delete(c.items, key)
		c.mu.Unlock()
		c.removePersisted(ctx, key)
		c.governor.RecordCacheMiss(ctx)
		return nil, false
	}
	entry.HitCount++
	entry.AccessedAt = now
	c.order.MoveToFront(element)
	snapshot := *entry
	c.mu.Unlock()

	c.governor.RecordCacheHit(ctx)
	c.persist(ctx, snapshot)
	return &snapshot, true
}

// Put inserts or overwrites the entry for a key, resetting its age, and
// evicts least-recently-used entries past capacity. The avoided-cost
// estimate is credited once, here.
func (c *ResultCache) Put(ctx context.Context, key string, payload domain.Resolution, entryType domain.CacheEntryType, costSaving float64) {
	now := time.Now().UTC()
	entry := &domain.CacheEntry{
		Key:        key,
		Type:       entryType,
		Payload:    payload,
		CreatedAt:  now,
		AccessedAt: now,
		CostSaving: costSaving,
	}

	c.mu.Lock()
	if element, ok := c.items[key]; ok {
		c.order.Remove(element)
		delete(c.items, key)
	}
	c.items[key] = c.order.PushFront(entry)

	evicted := make([]string, 0, 1)
	for c.order.Len() > c.cfg.MaxEntries {
		oldest := c.order.Back()
		old := oldest.Value.(*domain.CacheEntry)
		c.order.Remove(oldest)
		delete(c.items, old.Key)
		evicted = append(evicted, old.Key)
	}
	snapshot := *entry
	c.mu.Unlock()

	for _, evictedKey := range evicted {
		c.removePersisted(ctx, evictedKey)
	}
	c.persist(ctx, snapshot)

	// FAQ writes credit the avoided generative call once, here. A cached
	// LLM answer cost real money, so its write credits nothing; its
	// CostSaving field only estimates what future hits avoid.
	if entryType == domain.CacheEntryFAQ {
		c.governor.RecordSaving(ctx, costSaving)
	}
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *ResultCache) persist(ctx context.Context, entry domain.CacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache entry marshal failed", "key", entry.Key, "error", err)
		return
	}
	if err := c.store.Set(ctx, entryKeyPrefix+entry.Key, string(raw)); err != nil {
		c.logger.Warn("cache entry persist failed", "key", entry.Key, "error", err)
	}
}

func (c *ResultCache) removePersisted(ctx context.Context, key string) {
	if err := c.store.Remove(ctx, entryKeyPrefix+key); err != nil {
		c.logger.Warn("cache entry remove failed", "key", key, "error", err)
	}
}
