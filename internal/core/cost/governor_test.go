package cost

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/infrastructure/kv/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDecideLocalAnswerAboveThreshold(t *testing.T) {
	g := NewGovernor(DefaultConfig(), memory.New(), testLogger())

	decision := g.Decide(context.Background(), 0.85)
	if decision.Escalate || decision.Refused {
		t.Fatalf("expected local answer, got %+v", decision)
	}
	if got := g.Snapshot().EscalationsUsed; got != 0 {
		t.Fatalf("local answer must not consume allowance, got %d", got)
	}
}

func TestDecideEscalatesUntilAllowanceExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowancePerPeriod = 2
	g := NewGovernor(cfg, memory.New(), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision := g.Decide(ctx, 0.1)
		if !decision.Escalate {
			t.Fatalf("escalation %d should be allowed, got %+v", i, decision)
		}
	}
	if got := g.Remaining(); got != 0 {
		t.Fatalf("expected no allowance left, got %d", got)
	}

	decision := g.Decide(ctx, 0.1)
	if !decision.Refused || decision.Escalate {
		t.Fatalf("expected refusal past the allowance, got %+v", decision)
	}
}

func TestDecidePersistsLedger(t *testing.T) {
	store := memory.New()
	g := NewGovernor(DefaultConfig(), store, testLogger())
	ctx := context.Background()

	g.Decide(ctx, 0.1)

	raw, ok, err := store.Get(ctx, ledgerKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted ledger, ok=%v err=%v", ok, err)
	}
	var ledger domain.CostLedger
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		t.Fatalf("unmarshal ledger: %v", err)
	}
	if ledger.EscalationsUsed != 1 {
		t.Fatalf("expected 1 escalation persisted, got %d", ledger.EscalationsUsed)
	}
}

func TestLoadRestoresPersistedLedger(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	persisted := domain.CostLedger{
		TotalQueries:    7,
		CacheHits:       4,
		CacheMisses:     3,
		EscalationsUsed: 2,
		PeriodStart:     time.Now().UTC().Truncate(24 * time.Hour),
	}
	raw, _ := json.Marshal(persisted)
	_ = store.Set(ctx, ledgerKey, string(raw))

	g := NewGovernor(DefaultConfig(), store, testLogger())
	g.Load(ctx)

	ledger := g.Snapshot()
	if ledger.TotalQueries != 7 || ledger.EscalationsUsed != 2 {
		t.Fatalf("expected restored ledger, got %+v", ledger)
	}
}

func TestLoadIgnoresCorruptedLedger(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	_ = store.Set(ctx, ledgerKey, "{not json")

	g := NewGovernor(DefaultConfig(), store, testLogger())
	g.Load(ctx)

	if got := g.Snapshot().TotalQueries; got != 0 {
		t.Fatalf("corrupted ledger should start fresh, got %d queries", got)
	}
}

func TestPeriodRollResetsAllowance(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	stale := domain.CostLedger{
		EscalationsUsed: 25,
		PeriodStart:     time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -3),
	}
	raw, _ := json.Marshal(stale)
	_ = store.Set(ctx, ledgerKey, string(raw))

	g := NewGovernor(DefaultConfig(), store, testLogger())
	g.Load(ctx)

	decision := g.Decide(ctx, 0.1)
	if !decision.Escalate {
		t.Fatalf("expected escalation after period roll, got %+v", decision)
	}
	if got := g.Snapshot().EscalationsUsed; got != 1 {
		t.Fatalf("expected reset allowance with 1 used, got %d", got)
	}
}

func TestCacheCountersKeepInvariant(t *testing.T) {
	g := NewGovernor(DefaultConfig(), memory.New(), testLogger())
	ctx := context.Background()

	g.RecordCacheHit(ctx)
	g.RecordCacheHit(ctx)
	g.RecordCacheMiss(ctx)

	ledger := g.Snapshot()
	if ledger.CacheHits+ledger.CacheMisses != ledger.TotalQueries {
		t.Fatalf("hits+misses must equal total queries, got %+v", ledger)
	}
	if ledger.CacheHits != 2 || ledger.CacheMisses != 1 {
		t.Fatalf("unexpected counters: %+v", ledger)
	}
}

func TestRecordCompletionAccruesTokenCost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputTokenRate = 0.001
	cfg.OutputTokenRate = 0.002
	g := NewGovernor(cfg, memory.New(), testLogger())

	charge := g.RecordCompletion(context.Background(), 100, 50)
	want := 100*0.001 + 50*0.002
	if charge != want {
		t.Fatalf("expected charge %v, got %v", want, charge)
	}
	if got := g.Snapshot().AccruedCost; got != want {
		t.Fatalf("expected accrued cost %v, got %v", want, got)
	}
}

func TestRecordSavingIgnoresNonPositive(t *testing.T) {
	g := NewGovernor(DefaultConfig(), memory.New(), testLogger())
	ctx := context.Background()

	g.RecordSaving(ctx, 0)
	g.RecordSaving(ctx, -1)
	g.RecordSaving(ctx, 0.002)

	if got := g.Snapshot().TotalCostSavings; got != 0.002 {
		t.Fatalf("expected savings 0.002, got %v", got)
	}
}

func TestObserveResponseTimeRollingAverage(t *testing.T) {
	g := NewGovernor(DefaultConfig(), memory.New(), testLogger())
	ctx := context.Background()

	g.RecordCacheMiss(ctx)
	g.ObserveResponseTime(ctx, 100*time.Millisecond)
	g.RecordCacheMiss(ctx)
	g.ObserveResponseTime(ctx, 200*time.Millisecond)

	avg := g.Snapshot().AvgResponseMillis
	if avg <= 100 || avg >= 200 {
		t.Fatalf("expected rolling average between samples, got %v", avg)
	}
}
