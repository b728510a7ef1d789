package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/ports"
)

// FeedbackUseCase records user feedback fire-and-forget. While offline the
// submission is queued for replay instead of failing.
type FeedbackUseCase struct {
	sink         ports.FeedbackSink
	queue        ports.OfflineQueue
	connectivity ports.ConnectivitySource
	logger       *slog.Logger
}

func NewFeedbackUseCase(sink ports.FeedbackSink, queue ports.OfflineQueue, connectivity ports.ConnectivitySource, logger *slog.Logger) *FeedbackUseCase {
	return &FeedbackUseCase{
		sink:         sink,
		queue:        queue,
		connectivity: connectivity,
		logger:       logger,
	}
}

func (uc *FeedbackUseCase) RecordFeedback(ctx context.Context, fb domain.Feedback) error {
	if fb.Query == "" || fb.Kind == "" {
		return domain.ErrInvalidInput
	}

	if uc.connectivity != nil && !uc.connectivity.Online() {
		return uc.deferSubmission(ctx, fb)
	}

	if err := uc.sink.PublishFeedback(ctx, fb); err != nil {
		if domain.IsKind(err, domain.ErrOffline) || domain.IsKind(err, domain.ErrNetwork) {
			return uc.deferSubmission(ctx, fb)
		}
		// Feedback is best-effort bookkeeping: log and swallow.
		uc.logger.Warn("feedback publish failed", "error", err)
	}
	return nil
}

func (uc *FeedbackUseCase) deferSubmission(ctx context.Context, fb domain.Feedback) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return domain.WrapError(domain.ErrParsing, "marshal feedback", err)
	}
	if _, err := uc.queue.Enqueue(ctx, domain.ActionFeedback, payload); err != nil {
		uc.logger.Warn("feedback enqueue failed", "error", err)
	}
	return nil
}
