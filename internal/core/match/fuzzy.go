package match

import "strings"

// LevenshteinDistance is the standard dynamic-programming edit distance.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// FuzzyScore maps edit distance into [0,1]; 1 means identical strings.
func FuzzyScore(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(longest)
}

// GenerateNGrams builds the deduplicated set of character n-grams per
// normalized word (typo tolerance) plus word n-grams (phrase tolerance).
func GenerateNGrams(text string, n int) map[string]struct{} {
	if n <= 0 {
		n = 3
	}
	out := make(map[string]struct{}, 32)
	words := tokenize(text)

	for _, word := range words {
		runes := []rune(word)
		if len(runes) <= n {
			out[word] = struct{}{}
			continue
		}
		for i := 0; i+n <= len(runes); i++ {
			out[string(runes[i:i+n])] = struct{}{}
		}
	}

	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}

// NGramSimilarity is the Jaccard index over the two n-gram sets.
func NGramSimilarity(a, b string, n int) float64 {
	setA := GenerateNGrams(a, n)
	setB := GenerateNGrams(b, n)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for gram := range setA {
		if _, ok := setB[gram]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
