package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/finassist/qa-engine/internal/core/domain"
)

const validCorpusYAML = `
version: "2026-08-01"
categories:
  - id: accounts
    title: Accounts & Savings
    order: 1
    entries:
      - id: acc-tfsa
        question: What is a TFSA?
        answer: A TFSA is a tax-free savings account.
        keywords: [tfsa, savings]
        tags: [accounts]
  - id: credit
    title: Credit & Loans
    order: 2
    entries:
      - id: cred-improve
        question: How can I improve my credit score?
        answer: Pay every bill on time and keep utilization low.
        related_questions: [acc-tfsa]
`

func TestParseValidCorpus(t *testing.T) {
	corpus, err := Parse([]byte(validCorpusYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Version != "2026-08-01" {
		t.Fatalf("expected version, got %q", corpus.Version)
	}
	if len(corpus.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(corpus.Categories))
	}
	entry := corpus.Categories[0].Entries[0]
	if entry.ID != "acc-tfsa" || len(entry.Keywords) != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("version: [unclosed"))
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected ErrParsing, got %v", err)
	}
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - id: a
    title: A
    entries:
      - {id: x, question: q, answer: a}
`))
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected ErrParsing for missing version, got %v", err)
	}
}

func TestParseRejectsEmptyCategories(t *testing.T) {
	_, err := Parse([]byte(`version: "1"`))
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected ErrParsing for empty corpus, got %v", err)
	}
}

func TestParseRejectsIncompleteEntry(t *testing.T) {
	_, err := Parse([]byte(`
version: "1"
categories:
  - id: a
    title: A
    entries:
      - {id: x, question: q}
`))
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected ErrParsing for entry without answer, got %v", err)
	}
}

func TestParseRejectsDuplicateEntryIDs(t *testing.T) {
	_, err := Parse([]byte(`
version: "1"
categories:
  - id: a
    title: A
    entries:
      - {id: x, question: q, answer: a}
      - {id: x, question: q2, answer: a2}
`))
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected ErrParsing for duplicate ids, got %v", err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	if err := os.WriteFile(path, []byte(validCorpusYAML), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	corpus, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Categories[1].Entries[0].RelatedQuestions[0] != "acc-tfsa" {
		t.Fatalf("expected related questions parsed, got %+v", corpus.Categories[1].Entries[0])
	}
}

func TestFileSourceLoadMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing corpus file")
	}
}
