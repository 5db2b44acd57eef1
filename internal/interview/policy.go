package interview

// verdict is the outcome of a continuation decision.
type verdict int

const (
	verdictContinue verdict = iota
	verdictConclude
	verdictDisqualify
)

// poorPerformanceFloor is the number of substantive questions every
// candidate gets before weak scores alone can end the interview, even
// when the configured minimum is higher.
const poorPerformanceFloor = 5

// policy holds the thresholds that govern when an interview may end.
// Decisions are pure functions of the counted history; the state machine
// in the controller acts on the verdicts, never the other way around.
type policy struct {
	// minQuestions is the substantive-question count at which a non-HR
	// interview normally concludes, and the threshold for honoring an
	// end request.
	minQuestions int

	// hrMinimum is the HR-mode floor. An HR interview never ends below
	// it, whatever the candidate's performance or wishes.
	hrMinimum int

	// softCap closes the interview early for strong candidates: a
	// recent average at or above highAverage concludes once this many
	// have been answered, even below minQuestions.
	softCap int

	lowAverage  float64
	highAverage float64
}

// onEndRequest decides what to do when the candidate asks to stop.
// Ending an HR interview below the floor is a quota breach, corrected by
// continuing rather than raised as an error; a non-HR candidate stopping
// below the minimum is disqualified.
func (p policy) onEndRequest(hr bool, answered int) verdict {
	if hr {
		if answered >= p.hrMinimum {
			return verdictConclude
		}
		return verdictContinue
	}
	if answered >= p.minQuestions {
		return verdictConclude
	}
	return verdictDisqualify
}

// afterAnswer decides whether the interview continues once a substantive
// answer has been scored. answered includes the turn just completed;
// recent holds the windowed scores, the new one last.
func (p policy) afterAnswer(hr bool, answered int, recent []int) verdict {
	if hr {
		if answered >= p.hrMinimum {
			return verdictConclude
		}
		return verdictContinue
	}

	if len(recent) > 0 {
		switch avg := average(recent); {
		case avg >= p.highAverage:
			if answered >= p.softCap {
				return verdictConclude
			}
			return verdictContinue
		case avg <= p.lowAverage:
			floor := p.minQuestions
			if floor > poorPerformanceFloor {
				floor = poorPerformanceFloor
			}
			if answered >= floor {
				return verdictConclude
			}
			return verdictContinue
		}
	}

	if answered >= p.minQuestions {
		return verdictConclude
	}
	return verdictContinue
}

// hrQuestionType picks the next HR-mode question type from the counted
// tally. Resume-grounded types are used exactly once each, resume-based
// first; everything after falls to general HR. Without resume data the
// resume-grounded types are skipped entirely.
func hrQuestionType(tally QuestionTypeTally, hasResume bool) QuestionType {
	if !hasResume {
		return QuestionGeneralHR
	}
	if tally.ResumeBasedHR == 0 {
		return QuestionResumeHR
	}
	if tally.TechnicalResume == 0 {
		return QuestionTechnicalHR
	}
	return QuestionGeneralHR
}
