package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeQuery lowercases, trims, collapses whitespace, and bounds the
// length of a raw query. The result doubles as the cache key, so the cut
// must land on a rune boundary to keep the key valid UTF-8.
func NormalizeQuery(s string) string {
	const maxKeyLen = 256

	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.Fields(s)
	s = strings.Join(fields, " ")
	if len(s) > maxKeyLen {
		cut := maxKeyLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenize(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func tokenOverlap(query, target map[string]struct{}) (float64, []string) {
	if len(query) == 0 || len(target) == 0 {
		return 0, nil
	}
	matched := make([]string, 0, len(query))
	for token := range query {
		if _, ok := target[token]; ok {
			matched = append(matched, token)
		}
	}
	return float64(len(matched)) / float64(len(query)), matched
}
