package interview

// FlowCounters are the per-call tallies the controller derives from
// history. They are never persisted; a cached counter could drift from
// the turns it summarizes, so the history is the single source of truth.
type FlowCounters struct {
	// RealQuestionCount is the number of substantive questions answered
	// and scored. Greeting, area-selection, meta, and skipped exchanges
	// do not count.
	RealQuestionCount int

	// RecentScores holds the scores of the most recent scored turns,
	// oldest first, capped at the configured window.
	RecentScores []int

	// CurrentQuestionAttempts and CurrentQuestionHints describe the
	// exchange in flight. The default policy never retries a question
	// with a hint, so attempts stays at one and hints stay empty.
	CurrentQuestionAttempts int
	CurrentQuestionHints    []string
}

// QuestionTypeTally counts scored HR-mode questions by type. The caps
// are enforced at selection time: at most one resume-based and one
// technical-resume question per interview.
type QuestionTypeTally struct {
	ResumeBasedHR   int
	TechnicalResume int
	GeneralHR       int
}

// Total is the number of scored HR questions of any type.
func (t QuestionTypeTally) Total() int {
	return t.ResumeBasedHR + t.TechnicalResume + t.GeneralHR
}

// scored reports whether a turn holds an evaluated substantive answer.
func scored(turn ConversationTurn) bool {
	return turn.IsCorrect != nil
}

// deriveCounters recomputes the flow counters from history.
func deriveCounters(history []ConversationTurn, scoreWindow int) FlowCounters {
	c := FlowCounters{}

	for _, turn := range history {
		if !scored(turn) {
			continue
		}
		c.RealQuestionCount++
		c.RecentScores = append(c.RecentScores, turn.Score)
	}

	if scoreWindow > 0 && len(c.RecentScores) > scoreWindow {
		c.RecentScores = c.RecentScores[len(c.RecentScores)-scoreWindow:]
	}

	if n := len(history); n > 0 {
		c.CurrentQuestionAttempts = history[n-1].Attempts
		c.CurrentQuestionHints = history[n-1].Hints
	}

	return c
}

// deriveTally recomputes the HR question-type tally from history.
// Substantive turns that are neither resume-based nor technical-resume
// count as general HR, current-affairs turns included.
func deriveTally(history []ConversationTurn) QuestionTypeTally {
	t := QuestionTypeTally{}

	for _, turn := range history {
		if !scored(turn) {
			continue
		}
		switch turn.QuestionType {
		case QuestionResumeHR:
			t.ResumeBasedHR++
		case QuestionTechnicalHR:
			t.TechnicalResume++
		default:
			t.GeneralHR++
		}
	}
	return t
}

// average returns the mean of scores, or zero for an empty slice.
func average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}
