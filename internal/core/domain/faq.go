package domain

import "time"

type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPartial  MatchType = "partial"
	MatchFuzzy    MatchType = "fuzzy"
	MatchSemantic MatchType = "semantic"
	MatchNGram    MatchType = "ngram"
)

// FAQEntry is one question/answer unit of the corpus. Entries are immutable
// after startup.
type FAQEntry struct {
	ID               string    `json:"id" yaml:"id"`
	Question         string    `json:"question" yaml:"question"`
	Answer           string    `json:"answer" yaml:"answer"`
	Keywords         []string  `json:"keywords,omitempty" yaml:"keywords"`
	Tags             []string  `json:"tags,omitempty" yaml:"tags"`
	CategoryID       string    `json:"category_id" yaml:"category_id"`
	RelatedQuestions []string  `json:"related_questions,omitempty" yaml:"related_questions"`
	LastUpdated      time.Time `json:"last_updated,omitempty" yaml:"last_updated"`
}

type FAQCategory struct {
	ID      string     `json:"id" yaml:"id"`
	Title   string     `json:"title" yaml:"title"`
	Order   int        `json:"order" yaml:"order"`
	Entries []FAQEntry `json:"entries" yaml:"entries"`
}

// Corpus is the versioned read-only FAQ document loaded once at startup.
type Corpus struct {
	Version    string        `json:"version" yaml:"version"`
	Categories []FAQCategory `json:"categories" yaml:"categories"`
}

// SearchResult is produced per query and never persisted.
type SearchResult struct {
	Entry          FAQEntry  `json:"entry"`
	Category       string    `json:"category"`
	RelevanceScore float64   `json:"relevance_score"`
	Confidence     float64   `json:"confidence"`
	MatchType      MatchType `json:"match_type"`
	MatchedTerms   []string  `json:"matched_terms,omitempty"`
}
