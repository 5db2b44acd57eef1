// Package interview implements the turn-by-turn interview flow: a pure
// controller that consumes conversation history plus the candidate's
// latest utterance, enforces quotas and termination rules, and assembles
// the prompt context for the generation service. The controller keeps no
// per-session state; everything it needs arrives in the Input and
// everything it decides leaves in the Output.
package interview

// State names the controller's position in the interview lifecycle.
// It is derived per call, never stored.
type State string

const (
	StateGreeting      State = "greeting"
	StateAreaSelection State = "area_selection"
	StateQuestioning   State = "questioning"
	StateConcluding    State = "concluding"
	StateDisqualified  State = "disqualified"
)

// QuestionType classifies what kind of question a turn poses. Greeting,
// area-selection, and meta exchanges never count toward quotas.
type QuestionType string

const (
	QuestionGreeting       QuestionType = "greeting"
	QuestionAreaSelection  QuestionType = "area_selection"
	QuestionGeneral        QuestionType = "general"
	QuestionCurrentAffairs QuestionType = "current_affairs"
	QuestionResumeHR       QuestionType = "resume_hr"
	QuestionTechnicalHR    QuestionType = "technical_resume"
	QuestionGeneralHR      QuestionType = "general_hr"
)

// ConversationTurn is one completed question/answer exchange. Turns are
// immutable once appended; the conversation is an ordered, append-only
// sequence passed in and out of the controller.
type ConversationTurn struct {
	Question               string       `json:"question"`
	Answer                 string       `json:"answer"`
	QuestionType           QuestionType `json:"questionType,omitempty"`
	Attempts               int          `json:"attempts,omitempty"`
	Hints                  []string     `json:"hints,omitempty"`
	IsCorrect              *bool        `json:"isCorrect,omitempty"`
	Score                  int          `json:"score,omitempty"`
	IsCurrentAffairs       bool         `json:"isCurrentAffairs,omitempty"`
	CurrentAffairsTopic    string       `json:"currentAffairsTopic,omitempty"`
	CurrentAffairsCategory string       `json:"currentAffairsCategory,omitempty"`
}

// PendingQuestion is the question the candidate is currently answering.
// The session layer carries it between controller invocations; it joins
// the history only once completed.
type PendingQuestion struct {
	Text                   string       `json:"text"`
	Type                   QuestionType `json:"type"`
	IsCurrentAffairs       bool         `json:"isCurrentAffairs,omitempty"`
	CurrentAffairsTopic    string       `json:"currentAffairsTopic,omitempty"`
	CurrentAffairsCategory string       `json:"currentAffairsCategory,omitempty"`
}

// Input is everything one controller invocation consumes.
type Input struct {
	JobRole    string
	Company    string
	College    string
	ResumeText string
	Language   string

	// History holds completed turns only. Counters and quotas are always
	// recomputed from it, never trusted from a cached value.
	History []ConversationTurn

	// Pending is the question Transcript answers. Nil marks the opening
	// call of a session.
	Pending *PendingQuestion

	// Transcript is the candidate's latest utterance.
	Transcript string

	// MinQuestions is the substantive-question floor before a graceful
	// close. Zero applies the configured default; HR mode enforces its
	// own higher floor.
	MinQuestions int

	ExamID        string
	SubcategoryID string

	HasResume bool
	EmailMode bool
}

// HRScores is the per-criterion score set attached to HR-mode turns.
type HRScores struct {
	Communication   int `json:"communication"`
	Confidence      int `json:"confidence"`
	Professionalism int `json:"professionalism"`
	RoleKnowledge   int `json:"role_knowledge"`
	SelfAwareness   int `json:"self_awareness"`
}

// Output is everything one controller invocation decides.
type Output struct {
	// Turn is the completed exchange to append to history. Nil on the
	// opening call, and whenever the invocation produced no durable
	// exchange.
	Turn *ConversationTurn

	// Feedback, Score, and IsCorrectAnswer evaluate the transcript.
	// Unscored exchanges leave Score zero; meta turns may carry a short
	// conversational note in Feedback.
	Feedback        string
	Score           int
	IsCorrectAnswer bool

	// NextQuestion is what the interviewer says next: a question while
	// the interview runs, a closing statement when it ends.
	NextQuestion     string
	NextQuestionType QuestionType

	IsCurrentAffairs       bool
	CurrentAffairsTopic    string
	CurrentAffairsCategory string

	// ReferenceQuestionIDs trace which corpus questions steered the
	// generation, when the selector sourced from a durable corpus.
	ReferenceQuestionIDs []string

	// RealQuestionCount is the substantive-question total once this
	// output's turn joins the history. Derived, never cached.
	RealQuestionCount int

	IsInterviewOver bool
	IsDisqualified  bool

	IsHRInterview bool
	HRScores      *HRScores

	State State
}

// PendingQuestion derives the next pending question from the output, or
// nil when the interview is over.
func (o *Output) PendingQuestion() *PendingQuestion {
	if o.IsInterviewOver || o.NextQuestion == "" {
		return nil
	}
	return &PendingQuestion{
		Text:                   o.NextQuestion,
		Type:                   o.NextQuestionType,
		IsCurrentAffairs:       o.IsCurrentAffairs,
		CurrentAffairsTopic:    o.CurrentAffairsTopic,
		CurrentAffairsCategory: o.CurrentAffairsCategory,
	}
}
