package domain

import "time"

// CostLedger tracks process-wide query accounting for one budget period.
// Invariant: CacheHits + CacheMisses == TotalQueries.
type CostLedger struct {
	TotalQueries      int64     `json:"total_queries"`
	CacheHits         int64     `json:"cache_hits"`
	CacheMisses       int64     `json:"cache_misses"`
	TotalCostSavings  float64   `json:"total_cost_savings"`
	AccruedCost       float64   `json:"accrued_cost"`
	EscalationsUsed   int       `json:"escalations_used"`
	AvgResponseMillis float64   `json:"avg_response_millis"`
	PeriodStart       time.Time `json:"period_start"`
}
