package resilience

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finassist/qa-engine/internal/core/domain"
)

const defaultErrorLogCap = 100

// ErrorLog is the bounded ring buffer of handled failures. Appending past
// capacity drops the oldest record.
type ErrorLog struct {
	mu      sync.Mutex
	records []domain.QAError
	next    int
	full    bool
}

func NewErrorLog(capacity int) *ErrorLog {
	if capacity <= 0 {
		capacity = defaultErrorLogCap
	}
	return &ErrorLog{records: make([]domain.QAError, capacity)}
}

func (l *ErrorLog) Append(kind domain.ErrorKind, severity domain.Severity, context string, err error, retryCount int, recovered bool) domain.QAError {
	record := domain.QAError{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Kind:       kind,
		Severity:   severity,
		Context:    context,
		Message:    err.Error(),
		Recovered:  recovered,
		RetryCount: retryCount,
	}

	l.mu.Lock()
	l.records[l.next] = record
	l.next = (l.next + 1) % len(l.records)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()
	return record
}

// MarkRecovered flags the most recent record for a context as recovered.
func (l *ErrorLog) MarkRecovered(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ID == id {
			l.records[i].Recovered = true
			return
		}
	}
}

// Recent returns up to n records, newest first.
func (l *ErrorLog) Recent(n int) []domain.QAError {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.records)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]domain.QAError, 0, n)
	for i := 1; i <= n; i++ {
		pos := (l.next - i + len(l.records)) % len(l.records)
		out = append(out, l.records[pos])
	}
	return out
}
