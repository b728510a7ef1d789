package domain

import "time"

type ActionKind string

const (
	ActionQuery     ActionKind = "query"
	ActionFeedback  ActionKind = "feedback"
	ActionAnalytics ActionKind = "analytics"
)

// OfflineQueueItem is one deferred action, created when an action is
// attempted while offline. Removed on success or once RetryCount exceeds the
// cap (explicit, counted data loss).
type OfflineQueueItem struct {
	ID         string     `json:"id"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	Kind       ActionKind `json:"kind"`
	Payload    []byte     `json:"payload"`
	RetryCount int        `json:"retry_count"`
}
