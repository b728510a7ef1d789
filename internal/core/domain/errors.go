package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the closed failure taxonomy. Every handled failure inside the
// engine is classified into exactly one kind.
type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindAPI     ErrorKind = "api"
	ErrorKindCache   ErrorKind = "cache"
	ErrorKindSearch  ErrorKind = "search"
	ErrorKindParsing ErrorKind = "parsing"
	ErrorKindSystem  ErrorKind = "system"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEntryNotFound = errors.New("faq entry not found")
	ErrQuotaExceeded = errors.New("escalation quota exceeded")
	ErrOffline       = errors.New("device offline")

	ErrNetwork = errors.New("network failure")
	ErrCache   = errors.New("cache failure")
	ErrSearch  = errors.New("search failure")
	ErrParsing = errors.New("parsing failure")
	ErrSystem  = errors.New("system failure")
)

// APIError carries the remote status of a failed generative call so that
// classification stays a total function over a known type instead of
// substring matching on messages.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: api status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s: api status %d: %s", e.Operation, e.Status, e.Message)
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// QAError is one handled failure record, appended to the bounded error log.
type QAError struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       ErrorKind `json:"kind"`
	Severity   Severity  `json:"severity"`
	Context    string    `json:"context"`
	Message    string    `json:"message"`
	Recovered  bool      `json:"recovered"`
	RetryCount int       `json:"retry_count"`
}
