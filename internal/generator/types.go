package generator

import "encoding/json"

// Task identifies the kind of generation being requested. Backends may use
// it to pick per-task parameters; it also names the tracing span.
type Task string

// Task constants for generation requests.
const (
	// TaskInterviewTurn evaluates the candidate's answer and produces the
	// next question in one call.
	TaskInterviewTurn Task = "interview_turn"

	// TaskCurrentAffairs produces a recent-events question with topic and
	// category metadata.
	TaskCurrentAffairs Task = "current_affairs"

	// TaskCandidateInsight extracts a short profile insight (academic or
	// professional background) from resume text.
	TaskCandidateInsight Task = "candidate_insight"
)

// Request is the input to a Generator.Generate call.
type Request struct {
	Task        Task            `json:"task"`
	System      string          `json:"system,omitempty"`
	Prompt      string          `json:"prompt"`
	Schema      json.RawMessage `json:"schema"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// Response is the output of a successful generation.
// Raw conforms to the Request's Schema.
type Response struct {
	Raw   json.RawMessage `json:"raw"`
	Model string          `json:"model,omitempty"`
	Usage TokenUsage      `json:"usage"`
}

// TokenUsage tracks token consumption for a generation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
