package resilience

import (
	"github.com/finassist/qa-engine/internal/core/domain"
)

// Fallbacks turns exhausted failures into canned, still-useful responses.
// Suggested categories come from the live index so the user always has a
// next step.
type Fallbacks struct {
	log        *ErrorLog
	categories func() []string
}

func NewFallbacks(log *ErrorLog, categories func() []string) *Fallbacks {
	return &Fallbacks{log: log, categories: categories}
}

var fallbackMessages = map[domain.ErrorKind]string{
	domain.ErrorKindNetwork: "I couldn't reach the answer service. Your question has been saved and will be retried when you're back online. Meanwhile, these topics may help:",
	domain.ErrorKindAPI:     "The answer service is busy right now. Please try again in a moment, or browse these topics:",
	domain.ErrorKindCache:   "I couldn't load saved answers, but you can still browse these topics:",
	domain.ErrorKindSearch:  "I couldn't search the help articles just now. These topics may cover what you need:",
	domain.ErrorKindParsing: "I received an answer I couldn't read. Please try rephrasing, or browse these topics:",
	domain.ErrorKindSystem:  "Something went wrong on our side. These topics may help while we recover:",
}

const quotaMessage = "You've reached today's limit for assistant answers. Here are help topics that may cover your question:"

// Recover logs the failure as handled and returns the degraded response for
// its kind. It never returns a bare error to the user.
func (f *Fallbacks) Recover(operation string, err error, retryCount int) *domain.Resolution {
	kind, severity := Classify(err)
	f.log.Append(kind, severity, operation, err, retryCount, true)

	message, ok := fallbackMessages[kind]
	if !ok {
		message = fallbackMessages[domain.ErrorKindSystem]
	}
	if domain.IsKind(err, domain.ErrQuotaExceeded) {
		message = quotaMessage
	}

	return &domain.Resolution{
		Text:        message,
		Source:      domain.SourceFallback,
		Suggestions: f.categories(),
	}
}
