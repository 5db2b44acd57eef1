package refselect

import (
	"strings"
	"unicode"
)

const maxKeywords = 8

// stopwords are tokens too generic to narrow a corpus search. The list
// covers filler common in role titles and resume prose.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "but": {}, "by": {}, "for": {}, "from": {},
	"has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
	"junior": {}, "senior": {}, "lead": {}, "intern": {}, "trainee": {},
	"experience": {}, "experienced": {}, "skills": {}, "worked": {},
	"working": {}, "years": {}, "year": {}, "company": {}, "team": {},
	"project": {}, "projects": {}, "responsible": {}, "various": {},
}

// deriveKeywords extracts topical search keywords from the role, the
// company, and the resume. Role and company tokens come first so the
// most scenario-specific terms survive the cap; duplicates keep their
// first position.
func deriveKeywords(jobRole, company, resumeText string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	add := func(text string) {
		for _, tok := range tokenize(text) {
			if len(keywords) >= maxKeywords {
				return
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			keywords = append(keywords, tok)
		}
	}

	add(jobRole)
	add(company)
	add(resumeText)
	return keywords
}

// tokenize lowercases text and splits it into candidate keywords,
// dropping stopwords and tokens shorter than three runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
