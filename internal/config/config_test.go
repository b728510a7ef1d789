package config

import "testing"

func TestLoadIncludesBudgetDefaults(t *testing.T) {
	t.Setenv("ESCALATION_THRESHOLD", "")
	t.Setenv("ESCALATION_ALLOWANCE", "")
	t.Setenv("BUDGET_PERIOD", "")
	t.Setenv("FAQ_AVOIDED_COST_USD", "")
	t.Setenv("CACHE_TTL_HOURS", "")

	cfg := Load()
	if cfg.EscalationThreshold != 0.3 {
		t.Fatalf("expected default escalation threshold 0.3, got %v", cfg.EscalationThreshold)
	}
	if cfg.EscalationAllowance != 25 {
		t.Fatalf("expected default escalation allowance 25, got %d", cfg.EscalationAllowance)
	}
	if cfg.BudgetPeriod != "daily" {
		t.Fatalf("expected default budget period daily, got %q", cfg.BudgetPeriod)
	}
	if cfg.FAQAvoidedCostUSD != 0.002 {
		t.Fatalf("expected default avoided cost 0.002, got %v", cfg.FAQAvoidedCostUSD)
	}
	if cfg.CacheTTLHours != 720 {
		t.Fatalf("expected default cache ttl 720h, got %d", cfg.CacheTTLHours)
	}
}

func TestLoadParsesBudgetOverrides(t *testing.T) {
	t.Setenv("ESCALATION_THRESHOLD", "0.45")
	t.Setenv("ESCALATION_ALLOWANCE", "10")
	t.Setenv("BUDGET_PERIOD", "monthly")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("OFFLINE_RETRY_CAP", "5")

	cfg := Load()
	if cfg.EscalationThreshold != 0.45 {
		t.Fatalf("expected escalation threshold override, got %v", cfg.EscalationThreshold)
	}
	if cfg.EscalationAllowance != 10 {
		t.Fatalf("expected escalation allowance 10, got %d", cfg.EscalationAllowance)
	}
	if cfg.BudgetPeriod != "monthly" {
		t.Fatalf("expected budget period monthly, got %q", cfg.BudgetPeriod)
	}
	if cfg.CacheMaxEntries != 50 {
		t.Fatalf("expected cache max entries 50, got %d", cfg.CacheMaxEntries)
	}
	if cfg.OfflineRetryCap != 5 {
		t.Fatalf("expected offline retry cap 5, got %d", cfg.OfflineRetryCap)
	}
}

func TestMustEnvFloatIgnoresGarbage(t *testing.T) {
	t.Setenv("INPUT_TOKEN_RATE_USD", "not-a-number")

	cfg := Load()
	if cfg.InputTokenRateUSD != 0.000003 {
		t.Fatalf("expected fallback input token rate, got %v", cfg.InputTokenRateUSD)
	}
}
