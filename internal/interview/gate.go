package interview

import (
	"strings"
	"unicode"
)

// gateVerdict is the quality gate's judgment of a substantive answer.
type gateVerdict int

const (
	// gateMeaningful passes the answer to the generator for lenient
	// correctness evaluation.
	gateMeaningful gateVerdict = iota

	// gateNoise rejects the answer outright: empty, repeated characters,
	// or keyboard mash. Marked incorrect with no hint and no retry.
	gateNoise

	// gateAdmitted covers explicit "I don't know" answers: honest,
	// intelligible, and incorrect.
	gateAdmitted
)

// meaningfulSymbols always mark an answer as substantive. A reply like
// "₹500" or "12%" is a real answer no matter how short it is.
var meaningfulSymbols = []rune{'₹', '$', '€', '£', '¥', '%', '°'}

var admissionPhrases = []string{
	"i don't know",
	"i dont know",
	"i do not know",
	"don't know",
	"dont know",
	"no idea",
	"not sure",
	"i am not sure",
	"i'm not sure",
	"dunno",
	"idk",
}

// evaluateAnswer applies the quality gate to a substantive answer. The
// symbol check runs first: currency, percentage, and degree marks make an
// answer meaningful before any length or noise heuristic can reject it.
func evaluateAnswer(answer string) gateVerdict {
	trimmed := strings.TrimSpace(answer)

	for _, r := range trimmed {
		for _, sym := range meaningfulSymbols {
			if r == sym {
				return gateMeaningful
			}
		}
	}

	runes := []rune(trimmed)
	if len(runes) < 3 {
		return gateNoise
	}

	if repeatedRun(runes) {
		return gateNoise
	}

	if keyboardMash(runes) {
		return gateNoise
	}

	if containsPhrase(normalize(trimmed), admissionPhrases) {
		return gateAdmitted
	}

	return gateMeaningful
}

// repeatedRun reports whether the answer is a single character repeated,
// spaces aside.
func repeatedRun(runes []rune) bool {
	var first rune
	seen := false
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if !seen {
			first, seen = r, true
			continue
		}
		if r != first {
			return false
		}
	}
	return seen
}

// keyboardMash flags longer answers with too little character variety to
// be language: eight-plus letters drawn from very few distinct runes, or
// a vowelless run of letters.
func keyboardMash(runes []rune) bool {
	var letters []rune
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToLower(r))
		}
	}
	if len(letters) < 8 {
		return false
	}

	distinct := make(map[rune]struct{}, len(letters))
	vowels := 0
	for _, r := range letters {
		distinct[r] = struct{}{}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
		}
	}

	if float64(len(distinct))/float64(len(letters)) < 0.25 {
		return true
	}
	return vowels == 0
}
