package match

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"budget", "budget", 0},
		{"kitten", "sitting", 3},
		{"tfsa", "", 4},
		{"", "rrsp", 4},
		{"credit", "cedit", 1},
	}
	for _, tc := range cases {
		if got := LevenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("LevenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFuzzyScoreIdenticalIsOne(t *testing.T) {
	if got := FuzzyScore("budget", "budget"); got != 1 {
		t.Fatalf("expected score 1 for identical strings, got %v", got)
	}
	if got := FuzzyScore("", ""); got != 1 {
		t.Fatalf("expected score 1 for empty strings, got %v", got)
	}
}

func TestFuzzyScoreSingleEdit(t *testing.T) {
	got := FuzzyScore("budget", "budge")
	want := 1 - 1.0/6.0
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGenerateNGramsKeepsShortWordsWhole(t *testing.T) {
	grams := GenerateNGrams("tax fee", 3)
	for _, want := range []string{"tax", "fee"} {
		if _, ok := grams[want]; !ok {
			t.Fatalf("expected gram %q in %v", want, grams)
		}
	}
}

func TestGenerateNGramsSlidesOverLongWords(t *testing.T) {
	grams := GenerateNGrams("budget", 3)
	for _, want := range []string{"bud", "udg", "dge", "get"} {
		if _, ok := grams[want]; !ok {
			t.Fatalf("expected gram %q in %v", want, grams)
		}
	}
	if _, ok := grams["budget"]; ok {
		t.Fatalf("did not expect whole word gram for a long word")
	}
}

func TestGenerateNGramsIncludesWordNGrams(t *testing.T) {
	grams := GenerateNGrams("how to set budget", 3)
	if _, ok := grams["how to set"]; !ok {
		t.Fatalf("expected word trigram, got %v", grams)
	}
	if _, ok := grams["to set budget"]; !ok {
		t.Fatalf("expected word trigram, got %v", grams)
	}
}

func TestNGramSimilarityBounds(t *testing.T) {
	if got := NGramSimilarity("budget", "budget", 3); got != 1 {
		t.Fatalf("expected similarity 1 for identical text, got %v", got)
	}
	if got := NGramSimilarity("budget", "xyzzyplugh", 3); got != 0 {
		t.Fatalf("expected similarity 0 for disjoint text, got %v", got)
	}
	if got := NGramSimilarity("", "budget", 3); got != 0 {
		t.Fatalf("expected similarity 0 for empty text, got %v", got)
	}
}

func TestNGramSimilarityTypoTolerance(t *testing.T) {
	clean := NGramSimilarity("credit score", "credit score", 3)
	typo := NGramSimilarity("cedit score", "credit score", 3)
	unrelated := NGramSimilarity("vacation photos", "credit score", 3)

	if typo <= unrelated {
		t.Fatalf("typo similarity %v should beat unrelated %v", typo, unrelated)
	}
	if typo >= clean {
		t.Fatalf("typo similarity %v should stay below clean %v", typo, clean)
	}
}
