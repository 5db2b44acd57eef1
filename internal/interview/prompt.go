package interview

import (
	"fmt"
	"strings"
)

const (
	// historyWindow is how many recent exchanges the prompt includes.
	historyWindow = 3

	// resumeExcerptLimit caps the resume text carried into the prompt.
	resumeExcerptLimit = 2000
)

const standardSystem = `You are a professional interviewer conducting a spoken mock interview. Evaluate answers leniently: any answer demonstrating topical understanding is correct; only clearly wrong or empty answers are incorrect. Give short spoken feedback, never hints or model answers, and never re-ask a failed question. Keep every question answerable out loud in a minute or two. Respond only with the structured result.`

const hrSystem = `You are an HR interviewer conducting a spoken mock interview. Evaluate how the candidate communicates as much as what they say, and score each answer on communication, confidence, professionalism, role knowledge, and self-awareness. Judge leniently; give short spoken feedback, never hints. Keep every question answerable out loud in a minute or two. Respond only with the structured result.`

// greetingText opens a standard interview. The candidate's affirmative
// reply moves the conversation to area selection.
func greetingText(role string) string {
	return fmt.Sprintf("Hello! I'll be your interviewer today for the %s position. We'll go through a series of questions, and I'll share feedback as we go. Ready to begin?", role)
}

const areaSelectionQuestion = "Great. Before we start: is there a particular area or topic you'd like this interview to focus on? Name one, or say \"anything\" and I'll choose."

// emailOpeningQuestion starts an email-mode interview directly in the
// questioning phase.
const emailOpeningQuestion = "Let's begin. Walk me through your background and what draws you to this role."

const (
	noiseFeedback    = "I couldn't make out an answer there, so I have to mark this one incorrect. Let's keep going."
	admittedFeedback = "That's alright, saying so is better than guessing. Let's move on to the next one."
	retryFeedback    = "I ran into a problem processing that answer. Please send it again."
)

// hrContinueNote precedes the re-asked question when an HR candidate
// tries to stop before the floor.
const hrContinueNote = "An HR round needs a few more questions before we can wrap up, so let's keep going."

// closingStatement ends the interview without a generation call.
func closingStatement(v verdict, answered int) string {
	if v == verdictDisqualify {
		return fmt.Sprintf("We're ending the interview here. Only %d question(s) were completed, which is below the minimum this interview requires, so it is marked as not completed. Thank you for your time.", answered)
	}
	return fmt.Sprintf("That brings us to the end of the interview. You worked through %d questions. Thank you for your time, and all the best.", answered)
}

// promptContext carries everything buildTurnPrompt needs to render the
// generation instructions for one turn.
type promptContext struct {
	in        Input
	focusArea string
	refs      []string

	// question and answer are the exchange under evaluation.
	// evaluate is false for calls that only need the next question.
	question string
	answer   string
	evaluate bool

	// skipped names a question the candidate declined, so the next one
	// changes direction.
	skipped string

	nextType QuestionType
}

// buildTurnPrompt renders the generation instructions for one turn.
func buildTurnPrompt(pc promptContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate profile: applying for %q", pc.in.JobRole)
	if pc.in.Company != "" {
		fmt.Fprintf(&b, " at %q", pc.in.Company)
	}
	if pc.in.College != "" {
		fmt.Fprintf(&b, ", targeting %q", pc.in.College)
	}
	b.WriteString(".\n")

	if pc.in.Language != "" {
		fmt.Fprintf(&b, "Conduct the interview in %s.\n", pc.in.Language)
	}

	if pc.focusArea != "" {
		fmt.Fprintf(&b, "The candidate asked to focus on: %s.\n", pc.focusArea)
	}

	if resume := strings.TrimSpace(pc.in.ResumeText); resume != "" {
		fmt.Fprintf(&b, "\nResume excerpt:\n%s\n", truncateRunes(resume, resumeExcerptLimit))
	}

	if len(pc.refs) > 0 {
		b.WriteString("\nExample questions for style and difficulty, do not repeat them verbatim:\n")
		for _, q := range pc.refs {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}

	if recent := recentExchanges(pc.in.History, historyWindow); len(recent) > 0 {
		b.WriteString("\nRecent exchanges:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", t.Question, t.Answer)
		}
	}

	if pc.evaluate {
		fmt.Fprintf(&b, "\nCurrent question: %s\n", pc.question)
		fmt.Fprintf(&b, "Candidate's answer: %s\n", pc.answer)
		b.WriteString("Evaluate the answer, then pose the next question.\n")
	} else if pc.skipped != "" {
		fmt.Fprintf(&b, "\nThe candidate skipped: %s\nDo not revisit it.\n", pc.skipped)
	}

	b.WriteString("\n")
	b.WriteString(typeDirective(pc.nextType))
	b.WriteString(" Do not repeat a question already asked.\n")

	return b.String()
}

// typeDirective instructs the generator on the next question's kind.
func typeDirective(t QuestionType) string {
	switch t {
	case QuestionResumeHR:
		return "Ask one question about a specific project, role, or experience from the candidate's resume."
	case QuestionTechnicalHR:
		return "Ask one technical question grounded in a skill or technology named on the candidate's resume."
	case QuestionGeneralHR:
		return "Ask one behavioral or situational HR question appropriate for the role."
	default:
		return "Ask one interview question appropriate for the role and focus area."
	}
}

// focusArea returns the candidate's chosen focus, taken from the most
// recent area-selection exchange.
func focusArea(history []ConversationTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].QuestionType == QuestionAreaSelection {
			area := strings.TrimSpace(history[i].Answer)
			if strings.EqualFold(area, "anything") {
				return ""
			}
			return area
		}
	}
	return ""
}

// recentExchanges returns the last n completed turns, oldest first.
func recentExchanges(history []ConversationTurn, n int) []ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// truncateRunes shortens s to at most max runes.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
