package cost

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/ports"
)

const ledgerKey = "cost/ledger"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

type Config struct {
	EscalationThreshold float64
	AllowancePerPeriod  int
	Period              Period
	FAQAvoidedCost      float64
	InputTokenRate      float64
	OutputTokenRate     float64
}

func DefaultConfig() Config {
	return Config{
		EscalationThreshold: 0.3,
		AllowancePerPeriod:  25,
		Period:              PeriodDaily,
		FAQAvoidedCost:      0.002,
		InputTokenRate:      0.000003,
		OutputTokenRate:     0.000015,
	}
}

// Decision is the outcome of the escalate-or-refuse check.
type Decision struct {
	Escalate bool
	Refused  bool
}

// Governor enforces the per-period escalation allowance and keeps the cost
// ledger. Ledger mutations are persisted best-effort; a persistence failure
// never fails the query that triggered it.
type Governor struct {
	cfg    Config
	store  ports.KeyValueStore
	logger *slog.Logger

	mu     sync.Mutex
	ledger domain.CostLedger
}

func NewGovernor(cfg Config, store ports.KeyValueStore, logger *slog.Logger) *Governor {
	if cfg.AllowancePerPeriod <= 0 {
		cfg.AllowancePerPeriod = DefaultConfig().AllowancePerPeriod
	}
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = DefaultConfig().EscalationThreshold
	}
	if cfg.Period == "" {
		cfg.Period = PeriodDaily
	}
	return &Governor{
		cfg:    cfg,
		store:  store,
		logger: logger,
		ledger: domain.CostLedger{PeriodStart: periodStart(time.Now().UTC(), cfg.Period)},
	}
}

// Load restores the persisted ledger. Corrupted state is treated as absent.
func (g *Governor) Load(ctx context.Context) {
	raw, ok, err := g.store.Get(ctx, ledgerKey)
	if err != nil || !ok {
		if err != nil {
			g.logger.Warn("cost ledger load failed", "error", err)
		}
		return
	}
	var ledger domain.CostLedger
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		g.logger.Warn("cost ledger corrupted, starting fresh", "error", err)
		return
	}
	g.mu.Lock()
	g.ledger = ledger
	g.mu.Unlock()
}

// WouldEscalate reports whether a local score is weak enough to need the
// generative tier. It never consumes allowance.
func (g *Governor) WouldEscalate(localTopScore float64) bool {
	return localTopScore < g.cfg.EscalationThreshold
}

// Decide applies the escalation policy for one local search outcome.
func (g *Governor) Decide(ctx context.Context, localTopScore float64) Decision {
	if localTopScore >= g.cfg.EscalationThreshold {
		return Decision{}
	}

	g.mu.Lock()
	g.rollPeriodLocked(time.Now().UTC())
	if g.ledger.EscalationsUsed >= g.cfg.AllowancePerPeriod {
		g.mu.Unlock()
		return Decision{Refused: true}
	}
	g.ledger.EscalationsUsed++
	snapshot := g.ledger
	g.mu.Unlock()

	g.persist(ctx, snapshot)
	return Decision{Escalate: true}
}

// Remaining reports the allowance left in the current period.
func (g *Governor) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollPeriodLocked(time.Now().UTC())
	remaining := g.cfg.AllowancePerPeriod - g.ledger.EscalationsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordCacheHit accounts one cache hit. Savings are recorded at the first
// cache write, not on subsequent hits.
func (g *Governor) RecordCacheHit(ctx context.Context) {
	g.record(ctx, func(l *domain.CostLedger) {
		l.TotalQueries++
		l.CacheHits++
	})
}

func (g *Governor) RecordCacheMiss(ctx context.Context) {
	g.record(ctx, func(l *domain.CostLedger) {
		l.TotalQueries++
		l.CacheMisses++
	})
}

// RecordSaving adds the avoided-cost estimate of one fresh cache write.
func (g *Governor) RecordSaving(ctx context.Context, amount float64) {
	if amount <= 0 {
		return
	}
	g.record(ctx, func(l *domain.CostLedger) {
		l.TotalCostSavings += amount
	})
}

// ObserveResponseTime folds one completed resolution into the rolling
// average response time.
func (g *Governor) ObserveResponseTime(ctx context.Context, elapsed time.Duration) {
	g.record(ctx, func(l *domain.CostLedger) {
		observeResponseTime(l, elapsed)
	})
}

// RecordCompletion accrues the token cost of one generative call and returns
// the computed amount.
func (g *Governor) RecordCompletion(ctx context.Context, inputTokens, outputTokens int) float64 {
	charge := float64(inputTokens)*g.cfg.InputTokenRate + float64(outputTokens)*g.cfg.OutputTokenRate
	g.record(ctx, func(l *domain.CostLedger) {
		l.AccruedCost += charge
	})
	return charge
}

// AvoidedCost is the fixed estimate recorded when an FAQ answer is cached.
func (g *Governor) AvoidedCost() float64 { return g.cfg.FAQAvoidedCost }

func (g *Governor) Snapshot() domain.CostLedger {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger
}

func (g *Governor) record(ctx context.Context, mutate func(*domain.CostLedger)) {
	g.mu.Lock()
	g.rollPeriodLocked(time.Now().UTC())
	mutate(&g.ledger)
	snapshot := g.ledger
	g.mu.Unlock()
	g.persist(ctx, snapshot)
}

func (g *Governor) persist(ctx context.Context, ledger domain.CostLedger) {
	raw, err := json.Marshal(ledger)
	if err != nil {
		g.logger.Warn("cost ledger marshal failed", "error", err)
		return
	}
	if err := g.store.Set(ctx, ledgerKey, string(raw)); err != nil {
		g.logger.Warn("cost ledger persist failed", "error", err)
	}
}

func (g *Governor) rollPeriodLocked(now time.Time) {
	start := periodStart(now, g.cfg.Period)
	if !start.After(g.ledger.PeriodStart) {
		return
	}
	g.ledger = domain.CostLedger{PeriodStart: start}
}

func observeResponseTime(l *domain.CostLedger, elapsed time.Duration) {
	if elapsed <= 0 || l.TotalQueries <= 0 {
		return
	}
	ms := float64(elapsed.Microseconds()) / 1000.0
	l.AvgResponseMillis += (ms - l.AvgResponseMillis) / float64(l.TotalQueries)
}

func periodStart(now time.Time, period Period) time.Time {
	if period == PeriodMonthly {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return now.Truncate(24 * time.Hour)
}
