package match

import (
	"strings"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// Relevance weights. The raw weighted sum is scaled by confidence and mapped
// onto a 0-based scale where a clean exact match lands at or above 1.0.
const (
	questionWeight   = 15.0
	fullTextWeight   = 8.0
	synonymWeight    = 6.0
	keywordExact     = 5.0
	keywordFuzzyMax  = 3.0
	tagExact         = 2.0
	tagFuzzyMax      = 1.5
	localeBoostStep  = 0.10
	localeBoostCap   = 0.30
	productBoostStep = 0.15
	productBoostCap  = 0.50
	questionBonus    = 2.0
	answerBonus      = 1.0
	fullScale        = 30.0

	keywordFuzzyFloor = 0.72
)

var interrogativePrefixes = []string{
	"what", "how", "why", "when", "where", "which", "who",
	"can i", "can you", "should i", "do i", "does", "is it", "are there",
}

type contribution struct {
	score      float64
	confidence float64
	matchType  domain.MatchType
	terms      []string
}

// Score runs the full multi-factor relevance computation of one query
// against one FAQ entry.
func Score(query string, entry domain.FAQEntry) (float64, float64, domain.MatchType, []string) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return 0, 0, domain.MatchSemantic, nil
	}

	contributions := make([]contribution, 0, 8)
	add := func(c contribution) {
		if c.score > 0 {
			contributions = append(contributions, c)
		}
	}

	question := ComprehensiveMatch(normalized, entry.Question)
	add(contribution{question.Score * questionWeight, question.Confidence, question.Type, question.MatchedTerms})

	fullText := ComprehensiveMatch(normalized, entry.Question+" "+entry.Answer)
	add(contribution{fullText.Score * fullTextWeight, fullText.Confidence, fullText.Type, fullText.MatchedTerms})

	if best, ok := bestSynonymMatch(normalized, entry.Question); ok {
		add(contribution{best.Score * synonymWeight, best.Confidence, best.Type, best.MatchedTerms})
	}

	queryTokens := toTokenSet(normalized)
	for _, keyword := range entry.Keywords {
		score, conf, matchType, term := termMatch(normalized, queryTokens, keyword, keywordExact, keywordFuzzyMax)
		add(contribution{score, conf, matchType, term})
	}
	for _, tag := range entry.Tags {
		score, conf, matchType, term := termMatch(normalized, queryTokens, tag, tagExact, tagFuzzyMax)
		add(contribution{score, conf, matchType, term})
	}

	if len(contributions) == 0 {
		return 0, 0, domain.MatchSemantic, nil
	}

	raw := 0.0
	confidenceSum := 0.0
	shares := map[domain.MatchType]float64{}
	matchedTerms := make([]string, 0, 8)
	seenTerms := map[string]struct{}{}
	for _, c := range contributions {
		raw += c.score
		confidenceSum += c.confidence
		shares[c.matchType] += c.score
		for _, term := range c.terms {
			if _, ok := seenTerms[term]; ok {
				continue
			}
			seenTerms[term] = struct{}{}
			matchedTerms = append(matchedTerms, term)
		}
	}

	raw *= 1 + boost(normalized, entry, localeTerms, localeBoostStep, localeBoostCap)
	raw *= 1 + boost(normalized, entry, productTerms, productBoostStep, productBoostCap)

	if startsInterrogative(normalized) && startsInterrogative(NormalizeQuery(entry.Question)) {
		raw += questionBonus
	}
	if answerLen := len(entry.Answer); answerLen >= 40 && answerLen <= 2000 {
		raw += answerBonus
	}

	// Low-trust tiers are discounted even when their raw sum is large.
	avgConfidence := confidenceSum / float64(len(contributions))
	scaled := raw * (0.7 + 0.3*avgConfidence)

	return scaled / fullScale, avgConfidence, determineMatchType(shares), matchedTerms
}

func bestSynonymMatch(normalized, target string) (Result, bool) {
	variants := ExpandQueryWithSynonyms(normalized)
	if len(variants) <= 1 {
		return Result{}, false
	}
	best := Result{}
	for _, variant := range variants[1:] {
		if r := ComprehensiveMatch(variant, target); r.Score > best.Score {
			best = r
		}
	}
	return best, best.Score > 0
}

func termMatch(normalized string, queryTokens map[string]struct{}, term string, exactWeight, fuzzyMax float64) (float64, float64, domain.MatchType, []string) {
	t := NormalizeQuery(term)
	if t == "" {
		return 0, 0, domain.MatchSemantic, nil
	}
	if strings.Contains(normalized, t) {
		return exactWeight, 0.95, domain.MatchExact, []string{t}
	}

	best := 0.0
	for token := range queryTokens {
		if s := FuzzyScore(token, t); s > best {
			best = s
		}
	}
	if best > keywordFuzzyFloor {
		return best * fuzzyMax, 0.7, domain.MatchFuzzy, []string{t}
	}
	return 0, 0, domain.MatchSemantic, nil
}

func boost(normalized string, entry domain.FAQEntry, vocabulary map[string]struct{}, step, limit float64) float64 {
	entryTokens := toTokenSet(entry.Question + " " + entry.Answer + " " + strings.Join(entry.Keywords, " "))
	hits := 0
	for _, token := range tokenize(normalized) {
		if _, ok := vocabulary[token]; !ok {
			continue
		}
		if _, ok := entryTokens[token]; ok {
			hits++
		}
	}
	b := float64(hits) * step
	if b > limit {
		return limit
	}
	return b
}

func startsInterrogative(s string) bool {
	for _, prefix := range interrogativePrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// determineMatchType labels the result. Any exact contribution wins the
// label outright, even when looser tiers carry more of the raw score;
// otherwise the dominant share decides, ties to the stricter tier.
func determineMatchType(shares map[domain.MatchType]float64) domain.MatchType {
	if shares[domain.MatchExact] > 0 {
		return domain.MatchExact
	}
	priority := []domain.MatchType{
		domain.MatchPartial,
		domain.MatchFuzzy,
		domain.MatchNGram,
		domain.MatchSemantic,
	}
	best := domain.MatchSemantic
	bestShare := 0.0
	for _, t := range priority {
		if shares[t] > bestShare {
			best = t
			bestShare = shares[t]
		}
	}
	return best
}
