package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/finassist/qa-engine/internal/core/domain"
)

type fakeSink struct {
	feedback []domain.Feedback
	err      error
}

func (s *fakeSink) PublishFeedback(_ context.Context, fb domain.Feedback) error {
	if s.err != nil {
		return s.err
	}
	s.feedback = append(s.feedback, fb)
	return nil
}

func (s *fakeSink) PublishAnalytics(context.Context, string, []byte) error {
	return s.err
}

func TestRecordFeedbackValidation(t *testing.T) {
	uc := NewFeedbackUseCase(&fakeSink{}, &fakeQueue{}, &fakeConnectivity{online: true}, testLogger())

	err := uc.RecordFeedback(context.Background(), domain.Feedback{Kind: domain.FeedbackHelpful})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing query, got %v", err)
	}
	err = uc.RecordFeedback(context.Background(), domain.Feedback{Query: "q"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing kind, got %v", err)
	}
}

func TestRecordFeedbackPublishesWhenOnline(t *testing.T) {
	sink := &fakeSink{}
	queue := &fakeQueue{}
	uc := NewFeedbackUseCase(sink, queue, &fakeConnectivity{online: true}, testLogger())

	fb := domain.Feedback{Query: "what is a tfsa", EntryID: "acc-tfsa", Kind: domain.FeedbackHelpful}
	if err := uc.RecordFeedback(context.Background(), fb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.feedback) != 1 || sink.feedback[0].EntryID != "acc-tfsa" {
		t.Fatalf("expected published feedback, got %+v", sink.feedback)
	}
	if len(queue.snapshot()) != 0 {
		t.Fatalf("online feedback must not be queued")
	}
}

func TestRecordFeedbackDefersWhileOffline(t *testing.T) {
	sink := &fakeSink{}
	queue := &fakeQueue{}
	uc := NewFeedbackUseCase(sink, queue, &fakeConnectivity{online: false}, testLogger())

	fb := domain.Feedback{Query: "what is a tfsa", Kind: domain.FeedbackUnhelpful, Comment: "too terse"}
	if err := uc.RecordFeedback(context.Background(), fb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.feedback) != 0 {
		t.Fatalf("offline feedback must not publish directly")
	}

	items := queue.snapshot()
	if len(items) != 1 || items[0].kind != domain.ActionFeedback {
		t.Fatalf("expected queued feedback action, got %+v", items)
	}
	var queued domain.Feedback
	if err := json.Unmarshal(items[0].payload, &queued); err != nil {
		t.Fatalf("queued payload must round-trip: %v", err)
	}
	if queued.Comment != "too terse" {
		t.Fatalf("unexpected queued payload %+v", queued)
	}
}

func TestRecordFeedbackDefersOnNetworkFailure(t *testing.T) {
	sink := &fakeSink{err: domain.WrapError(domain.ErrNetwork, "publish", fmt.Errorf("reset"))}
	queue := &fakeQueue{}
	uc := NewFeedbackUseCase(sink, queue, &fakeConnectivity{online: true}, testLogger())

	fb := domain.Feedback{Query: "q", Kind: domain.FeedbackCorrection}
	if err := uc.RecordFeedback(context.Background(), fb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items := queue.snapshot(); len(items) != 1 {
		t.Fatalf("expected deferred submission, got %+v", items)
	}
}

func TestRecordFeedbackSwallowsOtherPublishFailures(t *testing.T) {
	sink := &fakeSink{err: domain.WrapError(domain.ErrSystem, "publish", fmt.Errorf("broker bug"))}
	queue := &fakeQueue{}
	uc := NewFeedbackUseCase(sink, queue, &fakeConnectivity{online: true}, testLogger())

	fb := domain.Feedback{Query: "q", Kind: domain.FeedbackHelpful}
	if err := uc.RecordFeedback(context.Background(), fb); err != nil {
		t.Fatalf("feedback is best-effort, got %v", err)
	}
	if items := queue.snapshot(); len(items) != 0 {
		t.Fatalf("non-network failures must not queue, got %+v", items)
	}
}
