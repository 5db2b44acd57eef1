package interview

import "encoding/json"

// turnResult is the structured result the generation service returns for
// an interview turn. Calls that only need a question leave the evaluation
// fields at their zero values.
type turnResult struct {
	Feedback     string    `json:"feedback"`
	Score        int       `json:"score"`
	IsCorrect    bool      `json:"is_correct"`
	NextQuestion string    `json:"next_question"`
	HRScores     *HRScores `json:"hr_scores,omitempty"`
}

// turnSchema is the contract for a standard evaluated turn: judge the
// answer, then pose the next question.
var turnSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"feedback": {
			"type": "string",
			"description": "Two or three sentences of spoken feedback on the candidate's answer."
		},
		"score": {
			"type": "integer",
			"minimum": 0,
			"maximum": 10,
			"description": "Score for the answer, 0 to 10."
		},
		"is_correct": {
			"type": "boolean",
			"description": "Whether the answer demonstrates topical understanding. Judge leniently; only clearly wrong or empty answers are incorrect."
		},
		"next_question": {
			"type": "string",
			"description": "The next interview question, asked in the interviewer's voice."
		}
	},
	"required": ["feedback", "score", "is_correct", "next_question"]
}`)

// hrTurnSchema extends the evaluated turn with per-criterion HR scores.
var hrTurnSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"feedback": {
			"type": "string",
			"description": "Two or three sentences of spoken feedback on the candidate's answer."
		},
		"score": {
			"type": "integer",
			"minimum": 0,
			"maximum": 10,
			"description": "Overall score for the answer, 0 to 10."
		},
		"is_correct": {
			"type": "boolean",
			"description": "Whether the answer is a genuine, relevant response. Judge leniently."
		},
		"next_question": {
			"type": "string",
			"description": "The next interview question, asked in the interviewer's voice."
		},
		"hr_scores": {
			"type": "object",
			"properties": {
				"communication":   {"type": "integer", "minimum": 0, "maximum": 10},
				"confidence":      {"type": "integer", "minimum": 0, "maximum": 10},
				"professionalism": {"type": "integer", "minimum": 0, "maximum": 10},
				"role_knowledge":  {"type": "integer", "minimum": 0, "maximum": 10},
				"self_awareness":  {"type": "integer", "minimum": 0, "maximum": 10}
			},
			"required": ["communication", "confidence", "professionalism", "role_knowledge", "self_awareness"]
		}
	},
	"required": ["feedback", "score", "is_correct", "next_question", "hr_scores"]
}`)

// questionSchema is the contract for calls that only need a question:
// the opening of the questioning phase, skips, and turns whose evaluation
// was decided by the quality gate.
var questionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"next_question": {
			"type": "string",
			"description": "The next interview question, asked in the interviewer's voice."
		}
	},
	"required": ["next_question"]
}`)
