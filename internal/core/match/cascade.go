package match

import (
	"strings"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// Result is the outcome of one query/target comparison.
type Result struct {
	Score        float64
	Confidence   float64
	Type         domain.MatchType
	MatchedTerms []string
}

const (
	partialOverlapFloor  = 0.6
	editSimilarityFloor  = 0.7
	ngramSimilarityFloor = 0.4
	ngramSize            = 3
)

// ComprehensiveMatch runs the tiered matching cascade. Tiers are tried in
// order and the first satisfied tier wins; a later tier can never outrank an
// earlier one on the same pair.
func ComprehensiveMatch(query, target string) Result {
	q := NormalizeQuery(query)
	t := NormalizeQuery(target)
	if q == "" || t == "" {
		return Result{Type: domain.MatchSemantic}
	}

	// Tier 1: exact substring containment.
	if strings.Contains(t, q) || strings.Contains(q, t) {
		_, matched := tokenOverlap(toTokenSet(q), toTokenSet(t))
		return Result{
			Score:        1.0,
			Confidence:   0.95,
			Type:         domain.MatchExact,
			MatchedTerms: matched,
		}
	}

	// Tier 2: partial word overlap.
	overlap, matched := tokenOverlap(toTokenSet(q), toTokenSet(t))
	if overlap > partialOverlapFloor {
		return Result{
			Score:        overlap * 0.8,
			Confidence:   0.8,
			Type:         domain.MatchPartial,
			MatchedTerms: matched,
		}
	}

	// Tier 3: edit-distance similarity.
	if similarity := FuzzyScore(q, t); similarity > editSimilarityFloor {
		return Result{
			Score:        similarity * 0.6,
			Confidence:   0.7,
			Type:         domain.MatchFuzzy,
			MatchedTerms: matched,
		}
	}

	// Tier 4: n-gram similarity.
	if similarity := NGramSimilarity(q, t, ngramSize); similarity > ngramSimilarityFloor {
		return Result{
			Score:        similarity * 0.5,
			Confidence:   0.6,
			Type:         domain.MatchNGram,
			MatchedTerms: matched,
		}
	}

	// Tier 5: shared domain terms.
	queryTerms := ExtractDomainTerms(q)
	if len(queryTerms) > 0 {
		targetTerms := map[string]struct{}{}
		for _, term := range ExtractDomainTerms(t) {
			targetTerms[term] = struct{}{}
		}
		shared := make([]string, 0, len(queryTerms))
		for _, term := range queryTerms {
			if _, ok := targetTerms[term]; ok {
				shared = append(shared, term)
			}
		}
		if len(shared) > 0 {
			sharedRatio := float64(len(shared)) / float64(len(queryTerms))
			return Result{
				Score:        sharedRatio * 0.4,
				Confidence:   0.5,
				Type:         domain.MatchSemantic,
				MatchedTerms: shared,
			}
		}
	}

	return Result{Type: domain.MatchSemantic}
}
