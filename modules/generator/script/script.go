// Package script provides a deterministic offline generation backend.
// It fabricates schema-conforming results from a fixed phrase book, so
// interviews can run with no network or credentials: practice sessions,
// demos, and tests.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/parley-dev/parley/internal/generator"
)

// modelName is reported in responses so callers can tell scripted
// output from real generations.
const modelName = "script"

var stockQuestions = []string{
	"Walk me through a project where you owned the outcome end to end.",
	"What part of your field do you think is most misunderstood, and why?",
	"Describe a time you had to change your approach under pressure.",
	"Which recent development in your area should every practitioner know about?",
	"What would your last teammate name as your biggest strength?",
	"Tell me about a failure that taught you something you still use.",
}

var stockFeedback = []string{
	"Clear and to the point, though an example would have made it stronger.",
	"Good structure; the middle section wandered a little.",
	"Solid answer. You tied it back to the role well.",
	"That covered the basics, but I was hoping you would go one level deeper.",
}

var stockTopics = []string{
	"central bank rate decision",
	"semiconductor supply chains",
	"renewable capacity additions",
	"digital payments growth",
}

var stockCategories = []string{
	"economy",
	"technology",
	"environment",
	"science",
}

// Backend implements generator.Invoker without calling any service. It
// parses the request's output schema and fills every declared property
// with a deterministic, type-correct value, rotating through the phrase
// book so consecutive turns differ.
type Backend struct {
	mu   sync.Mutex
	turn int
}

// Interface guard.
var _ generator.Invoker = (*Backend)(nil)

// New creates a scripted backend.
func New() *Backend {
	return &Backend{}
}

// propertySchema is the slice of JSON Schema the backend interprets.
type propertySchema struct {
	Type       string                    `json:"type"`
	Properties map[string]propertySchema `json:"properties"`
	Minimum    *float64                  `json:"minimum"`
	Maximum    *float64                  `json:"maximum"`
}

// GenerateWithKey fabricates a schema-conforming result. The key is
// ignored.
func (b *Backend) GenerateWithKey(ctx context.Context, _ string, req generator.Request) (*generator.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var schema propertySchema
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return nil, fmt.Errorf("script: parsing output schema: %w", err)
	}

	b.mu.Lock()
	b.turn++
	n := b.turn
	b.mu.Unlock()

	raw, err := json.Marshal(fillObject(schema, n))
	if err != nil {
		return nil, fmt.Errorf("script: encoding result: %w", err)
	}

	return &generator.Response{
		Raw:   raw,
		Model: modelName,
	}, nil
}

// fillObject produces a value for every property the schema declares.
func fillObject(schema propertySchema, n int) map[string]any {
	result := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		result[name] = valueFor(name, prop, n)
	}
	return result
}

// valueFor picks a value by property name first, then by declared type.
func valueFor(name string, prop propertySchema, n int) any {
	switch name {
	case "next_question", "question":
		return stockQuestions[n%len(stockQuestions)]
	case "feedback":
		return stockFeedback[n%len(stockFeedback)]
	case "topic":
		return stockTopics[n%len(stockTopics)]
	case "category":
		return stockCategories[n%len(stockCategories)]
	case "context":
		return "Covered widely in the business press over the past month."
	}

	switch prop.Type {
	case "string":
		return "Noted."
	case "integer", "number":
		return numberFor(prop)
	case "boolean":
		return true
	case "object":
		return fillObject(prop, n)
	case "array":
		return []any{}
	default:
		return nil
	}
}

// numberFor returns a passing-grade score inside the schema's bounds.
func numberFor(prop propertySchema) float64 {
	v := 7.0
	if prop.Maximum != nil && v > *prop.Maximum {
		v = *prop.Maximum
	}
	if prop.Minimum != nil && v < *prop.Minimum {
		v = *prop.Minimum
	}
	return v
}
