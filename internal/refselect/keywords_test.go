package refselect

import (
	"slices"
	"testing"
)

func TestDeriveKeywords_RoleFirst(t *testing.T) {
	t.Parallel()

	got := deriveKeywords(
		"Senior Backend Engineer",
		"Acme Corp",
		"Built REST services in Go and operated PostgreSQL clusters",
	)

	// Role tokens survive stopword filtering and come before resume tokens.
	if len(got) == 0 {
		t.Fatal("deriveKeywords returned nothing")
	}
	if got[0] != "backend" || got[1] != "engineer" {
		t.Errorf("leading keywords = %v, want [backend engineer ...]", got[:2])
	}
	if !slices.Contains(got, "acme") {
		t.Errorf("keywords = %v, want to contain acme", got)
	}
	if len(got) > maxKeywords {
		t.Errorf("len = %d, want at most %d", len(got), maxKeywords)
	}
}

func TestDeriveKeywords_DropsNoise(t *testing.T) {
	t.Parallel()

	got := deriveKeywords("the a of", "", "is was to in at")
	if len(got) != 0 {
		t.Errorf("keywords = %v, want none from pure stopwords", got)
	}
}

func TestDeriveKeywords_Dedupes(t *testing.T) {
	t.Parallel()

	got := deriveKeywords("java developer", "java shop", "java java java")

	count := 0
	for _, k := range got {
		if k == "java" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("java appears %d times, want 1", count)
	}
}

func TestDeriveKeywords_CapsLength(t *testing.T) {
	t.Parallel()

	got := deriveKeywords(
		"alpha beta gamma delta",
		"epsilon zeta",
		"theta iota kappa lambda omicron sigma",
	)
	if len(got) != maxKeywords {
		t.Errorf("len = %d, want %d", len(got), maxKeywords)
	}
}

func TestTokenize_ShortAndMixed(t *testing.T) {
	t.Parallel()

	got := tokenize("Go, C++, and SQL-tuning!")
	// "go" is two runes, dropped; "and" is a stopword; hyphens split.
	want := []string{"sql", "tuning"}
	if !slices.Equal(got, want) {
		t.Errorf("tokenize = %v, want %v", got, want)
	}
}
