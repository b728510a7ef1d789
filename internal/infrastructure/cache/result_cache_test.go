package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/finassist/qa-engine/internal/core/cost"
	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/infrastructure/kv/memory"
)

func newTestCache(t *testing.T, cfg Config) (*ResultCache, *cost.Governor, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.DiscardHandler)
	governor := cost.NewGovernor(cost.DefaultConfig(), store, logger)
	return New(cfg, store, governor, logger), governor, store
}

func faqResolution(text string) domain.Resolution {
	return domain.Resolution{Text: text, Source: domain.SourceFAQ}
}

func TestGetMissThenHit(t *testing.T) {
	c, governor, _ := newTestCache(t, DefaultConfig())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "what is a tfsa"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Put(ctx, "what is a tfsa", faqResolution("answer"), domain.CacheEntryFAQ, 0.002)

	entry, ok := c.Get(ctx, "what is a tfsa")
	if !ok {
		t.Fatalf("expected hit after put")
	}
	if entry.Payload.Text != "answer" {
		t.Fatalf("unexpected payload %q", entry.Payload.Text)
	}
	if entry.HitCount != 1 {
		t.Fatalf("expected hit count 1, got %d", entry.HitCount)
	}

	ledger := governor.Snapshot()
	if ledger.CacheMisses != 1 || ledger.CacheHits != 1 {
		t.Fatalf("expected 1 miss and 1 hit, got %+v", ledger)
	}
}

func TestHitCountAccumulates(t *testing.T) {
	c, _, _ := newTestCache(t, DefaultConfig())
	ctx := context.Background()

	c.Put(ctx, "k", faqResolution("a"), domain.CacheEntryFAQ, 0.002)
	c.Get(ctx, "k")
	c.Get(ctx, "k")
	entry, _ := c.Get(ctx, "k")

	if entry.HitCount != 3 {
		t.Fatalf("expected hit count 3, got %d", entry.HitCount)
	}
}

func TestSavingsCreditedOnceAtFirstWrite(t *testing.T) {
	c, governor, _ := newTestCache(t, DefaultConfig())
	ctx := context.Background()

	c.Put(ctx, "k", faqResolution("a"), domain.CacheEntryFAQ, 0.002)
	before := governor.Snapshot().TotalCostSavings
	if before != 0.002 {
		t.Fatalf("expected savings credited at write, got %v", before)
	}

	c.Get(ctx, "k")
	c.Get(ctx, "k")

	if got := governor.Snapshot().TotalCostSavings; got != before {
		t.Fatalf("hits must not credit additional savings, got %v", got)
	}
}

func TestLLMWriteCreditsNoSavings(t *testing.T) {
	c, governor, _ := newTestCache(t, DefaultConfig())
	ctx := context.Background()

	c.Put(ctx, "k", domain.Resolution{Text: "a", Source: domain.SourceLLM}, domain.CacheEntryLLM, 0.01)

	if got := governor.Snapshot().TotalCostSavings; got != 0 {
		t.Fatalf("llm write must not credit savings, got %v", got)
	}
}

func TestExpiredEntryIsPurgedAsMiss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 10 * time.Millisecond
	c, _, store := newTestCache(t, cfg)
	ctx := context.Background()

	c.Put(ctx, "k", faqResolution("a"), domain.CacheEntryFAQ, 0.002)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry purged, len %d", c.Len())
	}
	if keys, _ := store.ListKeys(ctx, entryKeyPrefix); len(keys) != 0 {
		t.Fatalf("expected persisted entry removed, got %v", keys)
	}
}

func TestEvictionKeepsMostRecentlyUsed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c, _, _ := newTestCache(t, cfg)
	ctx := context.Background()

	c.Put(ctx, "a", faqResolution("a"), domain.CacheEntryFAQ, 0)
	c.Put(ctx, "b", faqResolution("b"), domain.CacheEntryFAQ, 0)
	c.Get(ctx, "a") // "a" is now more recent than "b"
	c.Put(ctx, "c", faqResolution("c"), domain.CacheEntryFAQ, 0)

	if c.Len() != 2 {
		t.Fatalf("expected capacity 2, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("expected least-recently-used entry b evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected entry a kept")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatalf("expected entry c kept")
	}
}

func TestPutOverwriteResetsAge(t *testing.T) {
	c, _, _ := newTestCache(t, DefaultConfig())
	ctx := context.Background()

	c.Put(ctx, "k", faqResolution("old"), domain.CacheEntryFAQ, 0)
	c.Get(ctx, "k")
	c.Put(ctx, "k", faqResolution("new"), domain.CacheEntryFAQ, 0)

	entry, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatalf("expected entry after overwrite")
	}
	if entry.Payload.Text != "new" {
		t.Fatalf("expected overwritten payload, got %q", entry.Payload.Text)
	}
	if entry.HitCount != 1 {
		t.Fatalf("overwrite should reset hit count, got %d", entry.HitCount)
	}
	if c.Len() != 1 {
		t.Fatalf("overwrite must not grow the cache, len %d", c.Len())
	}
}

func TestLoadRestoresPersistedEntries(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.DiscardHandler)
	governor := cost.NewGovernor(cost.DefaultConfig(), store, logger)
	ctx := context.Background()

	first := New(DefaultConfig(), store, governor, logger)
	first.Put(ctx, "k", faqResolution("persisted"), domain.CacheEntryFAQ, 0)

	second := New(DefaultConfig(), store, governor, logger)
	second.Load(ctx)

	entry, ok := second.Get(ctx, "k")
	if !ok {
		t.Fatalf("expected restored entry")
	}
	if entry.Payload.Text != "persisted" {
		t.Fatalf("unexpected payload %q", entry.Payload.Text)
	}
}

func TestLoadDropsCorruptedAndExpiredEntries(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.DiscardHandler)
	governor := cost.NewGovernor(cost.DefaultConfig(), store, logger)
	ctx := context.Background()

	_ = store.Set(ctx, entryKeyPrefix+"bad", "{not json")
	stale, _ := json.Marshal(domain.CacheEntry{
		Key:        "stale",
		Type:       domain.CacheEntryFAQ,
		CreatedAt:  time.Now().UTC().Add(-48 * time.Hour),
		AccessedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	_ = store.Set(ctx, entryKeyPrefix+"stale", string(stale))

	cfg := DefaultConfig()
	cfg.TTL = 24 * time.Hour
	c := New(cfg, store, governor, logger)
	c.Load(ctx)

	if c.Len() != 0 {
		t.Fatalf("expected no restored entries, got %d", c.Len())
	}
	if keys, _ := store.ListKeys(ctx, entryKeyPrefix); len(keys) != 0 {
		t.Fatalf("expected corrupted and stale keys removed, got %v", keys)
	}
}

func TestLoadTrimsToCapacityByRecency(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.DiscardHandler)
	governor := cost.NewGovernor(cost.DefaultConfig(), store, logger)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, key := range []string{"old", "mid", "new"} {
		raw, _ := json.Marshal(domain.CacheEntry{
			Key:        key,
			Type:       domain.CacheEntryFAQ,
			Payload:    faqResolution(key),
			CreatedAt:  now,
			AccessedAt: now.Add(time.Duration(i) * time.Minute),
		})
		_ = store.Set(ctx, entryKeyPrefix+key, string(raw))
	}

	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := New(cfg, store, governor, logger)
	c.Load(ctx)

	if c.Len() != 2 {
		t.Fatalf("expected trim to 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "old"); ok {
		t.Fatalf("expected oldest entry dropped on load")
	}
	if _, ok := c.Get(ctx, "new"); !ok {
		t.Fatalf("expected newest entry kept")
	}
}
