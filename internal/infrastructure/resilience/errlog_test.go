package resilience

import (
	"fmt"
	"testing"

	"github.com/finassist/qa-engine/internal/core/domain"
)

func TestErrorLogRecentNewestFirst(t *testing.T) {
	log := NewErrorLog(10)
	for i := 0; i < 3; i++ {
		log.Append(domain.ErrorKindNetwork, domain.SeverityLow, fmt.Sprintf("op-%d", i), fmt.Errorf("e"), 0, false)
	}

	records := log.Recent(0)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Context != "op-2" || records[2].Context != "op-0" {
		t.Fatalf("expected newest first, got %v", []string{records[0].Context, records[1].Context, records[2].Context})
	}
}

func TestErrorLogDropsOldestPastCapacity(t *testing.T) {
	log := NewErrorLog(3)
	for i := 0; i < 5; i++ {
		log.Append(domain.ErrorKindSystem, domain.SeverityLow, fmt.Sprintf("op-%d", i), fmt.Errorf("e"), 0, false)
	}

	records := log.Recent(0)
	if len(records) != 3 {
		t.Fatalf("expected capped size 3, got %d", len(records))
	}
	if records[0].Context != "op-4" || records[2].Context != "op-2" {
		t.Fatalf("expected the newest three records, got %v",
			[]string{records[0].Context, records[1].Context, records[2].Context})
	}
}

func TestErrorLogRecentLimit(t *testing.T) {
	log := NewErrorLog(10)
	for i := 0; i < 5; i++ {
		log.Append(domain.ErrorKindSystem, domain.SeverityLow, "op", fmt.Errorf("e"), 0, false)
	}

	if got := log.Recent(2); len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestErrorLogMarkRecovered(t *testing.T) {
	log := NewErrorLog(10)
	record := log.Append(domain.ErrorKindNetwork, domain.SeverityLow, "op", fmt.Errorf("e"), 1, false)

	log.MarkRecovered(record.ID)

	records := log.Recent(1)
	if !records[0].Recovered {
		t.Fatalf("expected record marked recovered")
	}
}
