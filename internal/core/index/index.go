package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/match"
)

const (
	maxResults      = 20
	minScoreFloor   = 0.02
	maxSuggestions  = 8
	recentQueryKeep = 50
)

// Index holds the immutable FAQ corpus and orchestrates search, suggestions,
// and related-question lookups. The corpus is loaded once at startup; only
// the recent-query history mutates afterwards.
type Index struct {
	version    string
	entries    []domain.FAQEntry
	categories map[string]domain.FAQCategory
	byID       map[string]int

	mu     sync.Mutex
	recent []string
}

func New(corpus *domain.Corpus) *Index {
	idx := &Index{
		version:    corpus.Version,
		categories: make(map[string]domain.FAQCategory, len(corpus.Categories)),
		byID:       make(map[string]int),
	}

	ordered := make([]domain.FAQCategory, len(corpus.Categories))
	copy(ordered, corpus.Categories)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, category := range ordered {
		idx.categories[category.ID] = category
		for _, entry := range category.Entries {
			if entry.CategoryID == "" {
				entry.CategoryID = category.ID
			}
			idx.byID[entry.ID] = len(idx.entries)
			idx.entries = append(idx.entries, entry)
		}
	}
	return idx
}

func (idx *Index) Version() string { return idx.version }

func (idx *Index) Len() int { return len(idx.entries) }

func (idx *Index) Entry(id string) (domain.FAQEntry, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return domain.FAQEntry{}, false
	}
	return idx.entries[pos], true
}

// Search scores every entry in scope and returns the floor-filtered top
// results sorted descending by score x confidence. Ties keep corpus
// insertion order.
func (idx *Index) Search(query, categoryFilter string) []domain.SearchResult {
	idx.rememberQuery(query)

	results := make([]domain.SearchResult, 0, maxResults)
	for _, entry := range idx.entries {
		if categoryFilter != "" && entry.CategoryID != categoryFilter {
			continue
		}
		score, confidence, matchType, terms := match.Score(query, entry)
		if score < minScoreFloor {
			continue
		}
		results = append(results, domain.SearchResult{
			Entry:          entry,
			Category:       idx.categoryTitle(entry.CategoryID),
			RelevanceScore: score,
			Confidence:     confidence,
			MatchType:      matchType,
			MatchedTerms:   terms,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore*results[i].Confidence >
			results[j].RelevanceScore*results[j].Confidence
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Related returns explicit relations first, then same-category entries,
// deduplicated and truncated.
func (idx *Index) Related(entryID string, limit int) ([]domain.FAQEntry, error) {
	pos, ok := idx.byID[entryID]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	if limit <= 0 {
		limit = 5
	}
	source := idx.entries[pos]

	out := make([]domain.FAQEntry, 0, limit)
	seen := map[string]struct{}{entryID: {}}
	appendEntry := func(entry domain.FAQEntry) bool {
		if _, dup := seen[entry.ID]; dup {
			return len(out) < limit
		}
		seen[entry.ID] = struct{}{}
		out = append(out, entry)
		return len(out) < limit
	}

	for _, relatedID := range source.RelatedQuestions {
		related, ok := idx.Entry(relatedID)
		if !ok {
			continue
		}
		if !appendEntry(related) {
			return out, nil
		}
	}
	for _, entry := range idx.entries {
		if entry.CategoryID != source.CategoryID {
			continue
		}
		if !appendEntry(entry) {
			return out, nil
		}
	}
	return out, nil
}

// Suggest completes a partial query from question text, keywords, and the
// recent query history.
func (idx *Index) Suggest(partial string, limit int) []string {
	p := match.NormalizeQuery(partial)
	if p == "" {
		return nil
	}
	if limit <= 0 || limit > maxSuggestions {
		limit = maxSuggestions
	}

	out := make([]string, 0, limit)
	seen := map[string]struct{}{}
	appendSuggestion := func(s string) bool {
		key := match.NormalizeQuery(s)
		if _, dup := seen[key]; dup {
			return len(out) < limit
		}
		seen[key] = struct{}{}
		out = append(out, s)
		return len(out) < limit
	}

	for _, entry := range idx.entries {
		if strings.Contains(match.NormalizeQuery(entry.Question), p) {
			if !appendSuggestion(entry.Question) {
				return out
			}
		}
	}
	for _, entry := range idx.entries {
		for _, keyword := range entry.Keywords {
			if strings.HasPrefix(match.NormalizeQuery(keyword), p) {
				if !appendSuggestion(entry.Question) {
					return out
				}
				break
			}
		}
	}

	idx.mu.Lock()
	history := make([]string, len(idx.recent))
	copy(history, idx.recent)
	idx.mu.Unlock()
	for i := len(history) - 1; i >= 0; i-- {
		if strings.Contains(history[i], p) {
			if !appendSuggestion(history[i]) {
				return out
			}
		}
	}
	return out
}

// CategoryTitles lists category titles in display order, used by degraded
// fallback responses.
func (idx *Index) CategoryTitles() []string {
	ordered := make([]domain.FAQCategory, 0, len(idx.categories))
	for _, category := range idx.categories {
		ordered = append(ordered, category)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	titles := make([]string, 0, len(ordered))
	for _, category := range ordered {
		titles = append(titles, category.Title)
	}
	return titles
}

func (idx *Index) categoryTitle(id string) string {
	if category, ok := idx.categories[id]; ok {
		return category.Title
	}
	return ""
}

func (idx *Index) rememberQuery(query string) {
	normalized := match.NormalizeQuery(query)
	if normalized == "" {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.recent = append(idx.recent, normalized)
	if len(idx.recent) > recentQueryKeep {
		idx.recent = idx.recent[len(idx.recent)-recentQueryKeep:]
	}
}
