package openai

import (
	"context"
	"errors"
	"net"

	openai "github.com/sashabaranov/go-openai"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// translateError converts transport failures into the engine's typed
// taxonomy at the call boundary, so downstream classification never has to
// inspect provider internals.
func translateError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.APIError{
			Operation: operation,
			Status:    apiErr.HTTPStatusCode,
			Message:   apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.APIError{
			Operation: operation,
			Status:    reqErr.HTTPStatusCode,
			Message:   reqErr.Error(),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrNetwork, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrNetwork, operation, err)
	}

	return domain.WrapError(domain.ErrSystem, operation, err)
}

func emptyCompletionError(operation string) error {
	return domain.WrapError(domain.ErrParsing, operation, errors.New("empty completion response"))
}
