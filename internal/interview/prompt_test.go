package interview

import (
	"strings"
	"testing"
)

func TestFocusArea(t *testing.T) {
	t.Parallel()

	history := []ConversationTurn{
		{Question: "hello", QuestionType: QuestionGreeting, Answer: "yes"},
		{Question: "focus?", QuestionType: QuestionAreaSelection, Answer: "  operating systems "},
		{Question: "q1", QuestionType: QuestionGeneral, Answer: "a"},
	}
	if got := focusArea(history); got != "operating systems" {
		t.Errorf("focusArea = %q, want %q", got, "operating systems")
	}

	if got := focusArea(nil); got != "" {
		t.Errorf("focusArea(nil) = %q, want empty", got)
	}

	anything := []ConversationTurn{
		{Question: "focus?", QuestionType: QuestionAreaSelection, Answer: "Anything"},
	}
	if got := focusArea(anything); got != "" {
		t.Errorf("focusArea(anything) = %q, want empty", got)
	}
}

func TestBuildTurnPrompt_Sections(t *testing.T) {
	t.Parallel()

	pc := promptContext{
		in: Input{
			JobRole:    "Site Reliability Engineer",
			Company:    "Acme",
			Language:   "English",
			ResumeText: "Ran the on-call rotation for three years.",
			History: []ConversationTurn{
				{Question: "q1", Answer: "a1"},
			},
		},
		focusArea: "incident response",
		refs:      []string{"How do you define an SLO?"},
		question:  "Walk me through a postmortem.",
		answer:    "Start with a timeline, then contributing factors.",
		evaluate:  true,
		nextType:  QuestionGeneral,
	}

	prompt := buildTurnPrompt(pc)

	for _, want := range []string{
		"Site Reliability Engineer",
		"Acme",
		"incident response",
		"on-call rotation",
		"How do you define an SLO?",
		"q1",
		"Walk me through a postmortem.",
		"contributing factors",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildTurnPrompt_SkipDirection(t *testing.T) {
	t.Parallel()

	pc := promptContext{
		in:       Input{JobRole: "Analyst"},
		skipped:  "Describe a pivot table.",
		nextType: QuestionGeneral,
	}
	prompt := buildTurnPrompt(pc)

	if !strings.Contains(prompt, "Describe a pivot table.") {
		t.Errorf("prompt does not mention the skipped question:\n%s", prompt)
	}
	if strings.Contains(prompt, "Candidate's answer") {
		t.Errorf("question-only prompt carries an evaluation section:\n%s", prompt)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("abcdef", 4); got != "abcd" {
		t.Errorf("truncateRunes = %q, want %q", got, "abcd")
	}
	if got := truncateRunes("abc", 4); got != "abc" {
		t.Errorf("truncateRunes = %q, want unchanged", got)
	}
	// Multibyte runes are not split.
	if got := truncateRunes("₹₹₹₹₹", 2); got != "₹₹" {
		t.Errorf("truncateRunes = %q, want %q", got, "₹₹")
	}
}

func TestRecentExchanges(t *testing.T) {
	t.Parallel()

	history := []ConversationTurn{
		{Question: "q1"}, {Question: "q2"}, {Question: "q3"}, {Question: "q4"},
	}
	got := recentExchanges(history, 3)
	if len(got) != 3 || got[0].Question != "q2" {
		t.Errorf("recentExchanges = %+v, want the last three", got)
	}

	short := recentExchanges(history[:2], 3)
	if len(short) != 2 {
		t.Errorf("recentExchanges(short) = %+v, want both turns", short)
	}
}
