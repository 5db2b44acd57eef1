package interview

import "strings"

// metaKind classifies conversational asides that are handled without
// scoring and without advancing the question count.
type metaKind int

const (
	metaNone   metaKind = iota
	metaRepeat          // candidate wants the question again
	metaSkip            // candidate wants to move on without answering
	metaAside           // small talk or a question back to the interviewer
)

// endPhrases express a wish to stop the interview. Matching is on
// normalized whole words, so "quit" in "quite common" does not trigger.
var endPhrases = []string{
	"end the interview",
	"end this interview",
	"end interview",
	"stop the interview",
	"stop this interview",
	"stop interview",
	"finish the interview",
	"quit the interview",
	"i want to stop",
	"i want to end",
	"i want to quit",
	"i would like to stop",
	"i would like to end",
	"let us stop",
	"let's stop",
	"can we stop",
	"i give up",
}

// endWords end the interview when they are essentially the whole answer.
var endWords = map[string]bool{
	"stop": true,
	"quit": true,
	"exit": true,
	"end":  true,
	"bye":  true,
}

var affirmativePhrases = []string{
	"yes",
	"yeah",
	"yep",
	"sure",
	"ok",
	"okay",
	"of course",
	"ready",
	"i am ready",
	"i'm ready",
	"let us start",
	"let's start",
	"let us begin",
	"let's begin",
	"go ahead",
}

// repeatWords and skipWords only trigger when they are essentially the
// whole answer; "repeat" or "pass" inside a substantive sentence must not
// be mistaken for a request.
var repeatWords = map[string]bool{
	"repeat": true,
	"pardon": true,
}

var repeatPhrases = []string{
	"say that again",
	"come again",
	"once more",
	"one more time",
	"didn't hear",
	"did not hear",
	"didn't catch",
	"did not catch",
	"can you repeat",
	"please repeat",
	"repeat the question",
}

var skipWords = map[string]bool{
	"skip": true,
	"pass": true,
}

var skipPhrases = []string{
	"skip this",
	"skip it",
	"skip that",
	"can we skip",
	"i want to skip",
	"next question",
	"let us move on",
	"let's move on",
	"another question please",
	"different question please",
}

var asidePhrases = []string{
	"how am i doing",
	"am i doing well",
	"how is it going",
	"how was that",
	"can we take a break",
	"give me a moment",
	"give me a minute",
	"one minute please",
	"one second please",
}

// normalize lowercases text and collapses everything that is not a letter
// or digit into single spaces, so phrase matching survives punctuation.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == '\'':
			// keep apostrophes so "let's" and "don't" match
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// containsPhrase reports whether any phrase occurs in the normalized text
// on word boundaries.
func containsPhrase(normalized string, phrases []string) bool {
	padded := " " + normalized + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// isEndCommand reports whether the answer expresses a wish to stop.
func isEndCommand(text string) bool {
	n := normalize(text)
	if n == "" {
		return false
	}

	words := strings.Fields(n)
	if len(words) <= 2 {
		for _, w := range words {
			if endWords[w] {
				return true
			}
		}
	}
	return containsPhrase(n, endPhrases)
}

// isAffirmative reports whether the answer accepts an invitation, used
// for the greeting transition. Leading "no" wins over a trailing "yes".
func isAffirmative(text string) bool {
	n := normalize(text)
	if n == "" {
		return false
	}
	if strings.HasPrefix(n, "no ") || n == "no" || strings.HasPrefix(n, "not ") {
		return false
	}
	return containsPhrase(n, affirmativePhrases)
}

// classifyMeta detects conversational asides. Substantive answers return
// metaNone and flow into the quality gate.
func classifyMeta(text string) metaKind {
	n := normalize(text)
	if n == "" {
		return metaNone
	}

	words := strings.Fields(n)
	if len(words) <= 2 {
		for _, w := range words {
			if repeatWords[w] {
				return metaRepeat
			}
			if skipWords[w] {
				return metaSkip
			}
		}
	}

	switch {
	case containsPhrase(n, repeatPhrases):
		return metaRepeat
	case containsPhrase(n, skipPhrases):
		return metaSkip
	case containsPhrase(n, asidePhrases):
		return metaAside
	default:
		return metaNone
	}
}
