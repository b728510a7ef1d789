package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// Classify maps any handled failure onto the closed taxonomy. It is a total
// function over the typed errors produced at each external call boundary;
// nothing here inspects message text.
func Classify(err error) (domain.ErrorKind, domain.Severity) {
	switch {
	case err == nil:
		return domain.ErrorKindSystem, domain.SeverityLow
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrNetwork):
		return domain.ErrorKindNetwork, domain.SeverityLow
	case errors.Is(err, domain.ErrOffline):
		return domain.ErrorKindNetwork, domain.SeverityMedium
	case errors.Is(err, domain.ErrQuotaExceeded):
		return domain.ErrorKindAPI, domain.SeverityHigh
	case errors.Is(err, domain.ErrCache):
		return domain.ErrorKindCache, domain.SeverityLow
	case errors.Is(err, domain.ErrSearch):
		return domain.ErrorKindSearch, domain.SeverityLow
	case errors.Is(err, domain.ErrParsing):
		return domain.ErrorKindParsing, domain.SeverityLow
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return domain.ErrorKindAPI, apiSeverity(apiErr.Status)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ErrorKindNetwork, domain.SeverityLow
	}

	return domain.ErrorKindSystem, domain.SeverityLow
}

func apiSeverity(status int) domain.Severity {
	switch {
	case status >= http.StatusInternalServerError:
		return domain.SeverityCritical
	case status == http.StatusTooManyRequests:
		return domain.SeverityHigh
	case status >= http.StatusBadRequest:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
