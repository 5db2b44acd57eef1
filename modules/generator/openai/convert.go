package openai

import (
	"encoding/json"
	"fmt"

	"github.com/parley-dev/parley/internal/generator"
)

// --- Chat Completions API request/response types (unexported, serialization only) ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

// jsonSchema names the expected output shape. Strict mode stays off
// because the schemas carry open objects, which strict validation
// rejects; conformance is checked on extraction instead.
type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// buildChatRequest assembles the chat completions call: an optional
// system message, the user prompt, and a response format named after
// the task carrying the request's output schema.
func buildChatRequest(cfg Config, req generator.Request) chatRequest {
	name := string(req.Task)
	if name == "" {
		name = "structured_result"
	}

	cr := chatRequest{
		Model: cfg.Model,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: name, Schema: req.Schema},
		},
	}

	if req.System != "" {
		cr.Messages = append(cr.Messages, chatMessage{Role: "system", Content: req.System})
	}
	cr.Messages = append(cr.Messages, chatMessage{Role: "user", Content: req.Prompt})

	cr.MaxTokens = cfg.MaxTokens
	if req.MaxTokens > 0 {
		cr.MaxTokens = req.MaxTokens
	}
	cr.Temperature = req.Temperature

	return cr
}

// extractResult pulls the structured reply out of the first choice. A
// refusal or truncated reply means the model did not produce schema
// output.
func extractResult(resp *chatResponse, req generator.Request) (*generator.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in reply for task %q", generator.ErrInvalidOutput, req.Task)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", generator.ErrInvalidOutput, choice.Message.Refusal)
	}
	if choice.FinishReason == "length" {
		return nil, fmt.Errorf("%w: reply truncated for task %q", generator.ErrInvalidOutput, req.Task)
	}

	raw := json.RawMessage(choice.Message.Content)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: reply is not valid JSON for task %q", generator.ErrInvalidOutput, req.Task)
	}

	return &generator.Response{
		Raw:   raw,
		Model: resp.Model,
		Usage: generator.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
