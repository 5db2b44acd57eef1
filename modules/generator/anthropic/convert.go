package anthropic

import (
	"encoding/json"
	"fmt"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/parley-dev/parley/internal/generator"
)

// buildParams assembles the Messages API call: a single user message and
// one forced tool whose input schema is the request's output schema.
func buildParams(cfg Config, req generator.Request) (sdkanthropic.MessageNewParams, error) {
	toolName := string(req.Task)
	if toolName == "" {
		toolName = "structured_result"
	}

	schema, err := convertInputSchema(req.Schema)
	if err != nil {
		return sdkanthropic.MessageNewParams{}, err
	}

	params := sdkanthropic.MessageNewParams{
		Model: sdkanthropic.Model(cfg.Model),
		Messages: []sdkanthropic.MessageParam{
			sdkanthropic.NewUserMessage(sdkanthropic.NewTextBlock(req.Prompt)),
		},
		Tools: []sdkanthropic.ToolUnionParam{{
			OfTool: &sdkanthropic.ToolParam{
				Name:        toolName,
				Description: sdkanthropic.String("Record the structured result of this task."),
				InputSchema: schema,
			},
		}},
		ToolChoice: sdkanthropic.ToolChoiceUnionParam{
			OfTool: &sdkanthropic.ToolChoiceToolParam{Name: toolName},
		},
	}

	if req.System != "" {
		params.System = []sdkanthropic.TextBlockParam{{Text: req.System}}
	}

	params.MaxTokens = int64(cfg.MaxTokens)
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = sdkanthropic.Float(*req.Temperature)
	}

	return params, nil
}

// convertInputSchema maps a raw JSON Schema onto the SDK's tool input
// schema. Fields beyond "properties" and "required" (enum, $defs,
// additionalProperties) are preserved via ExtraFields.
func convertInputSchema(raw json.RawMessage) (sdkanthropic.ToolInputSchemaParam, error) {
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return sdkanthropic.ToolInputSchemaParam{}, fmt.Errorf("anthropic: parsing output schema: %w", err)
	}

	param := sdkanthropic.ToolInputSchemaParam{}

	if props, ok := full["properties"]; ok {
		param.Properties = props
		delete(full, "properties")
	}
	if req, ok := full["required"]; ok {
		if arr, ok := req.([]any); ok {
			strs := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					strs = append(strs, s)
				}
			}
			param.Required = strs
		}
		delete(full, "required")
	}
	// "type" is auto-set to "object" by the SDK.
	delete(full, "type")

	if len(full) > 0 {
		param.ExtraFields = full
	}

	return param, nil
}

// extractResult pulls the forced tool call out of the reply. A reply
// without one means the model did not produce schema output.
func extractResult(msg *sdkanthropic.Message, req generator.Request) (*generator.Response, error) {
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(sdkanthropic.ToolUseBlock); ok {
			return &generator.Response{
				Raw:   json.RawMessage(v.Input),
				Model: string(msg.Model),
				Usage: generator.TokenUsage{
					PromptTokens:     int(msg.Usage.InputTokens),
					CompletionTokens: int(msg.Usage.OutputTokens),
					TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
				},
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: no tool call in reply for task %q", generator.ErrInvalidOutput, req.Task)
}
