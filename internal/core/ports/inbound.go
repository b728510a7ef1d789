package ports

import (
	"context"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// QuestionResolver is the inbound contract for turning a free-text question
// into an answer. Every failure path still yields a usable Resolution.
type QuestionResolver interface {
	Resolve(ctx context.Context, query string) (*domain.Resolution, error)
}

// Suggester serves type-ahead completions for a partial query.
type Suggester interface {
	Suggest(ctx context.Context, partial string, limit int) ([]string, error)
}

// RelatedReader lists questions related to a known FAQ entry.
type RelatedReader interface {
	Related(ctx context.Context, entryID string, limit int) ([]domain.FAQEntry, error)
}

// FeedbackRecorder accepts user feedback without ever blocking resolution.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, fb domain.Feedback) error
}
