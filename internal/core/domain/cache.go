package domain

import "time"

type CacheEntryType string

const (
	CacheEntryFAQ CacheEntryType = "faq"
	CacheEntryLLM CacheEntryType = "llm"
)

// CacheEntry maps a normalized query key to a previously computed answer.
// At most one live entry exists per key.
type CacheEntry struct {
	Key        string         `json:"key"`
	Type       CacheEntryType `json:"type"`
	Payload    Resolution     `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
	AccessedAt time.Time      `json:"accessed_at"`
	HitCount   int            `json:"hit_count"`
	CostSaving float64        `json:"cost_saving"`
}

func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) >= ttl
}
