package affairs

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are preparing one interview question about recent real-world events for a mock interview. The question must concern a genuine, recent development relevant to the candidate's field, be answerable in a spoken interview, and name its topic and category. Respond only with the structured result.`

// outputSchema is the typed contract the Generator must satisfy.
var outputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"question": {
			"type": "string",
			"description": "The interview question about a recent event."
		},
		"topic": {
			"type": "string",
			"description": "Short name of the specific event or development the question is about."
		},
		"category": {
			"type": "string",
			"description": "Broad category of the topic, e.g. economy or technology."
		},
		"context": {
			"type": "string",
			"description": "One or two sentences of background an interviewer could use."
		}
	},
	"required": ["question", "topic", "category"]
}`)

// buildPrompt renders the generation instructions for one attempt.
func buildPrompt(req Request, category string, avoidTopics []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a current-affairs interview question for a candidate applying as %q.\n", req.JobRole)

	if req.Language != "" {
		fmt.Fprintf(&b, "Write the question in %s.\n", req.Language)
	}

	if category != "" {
		fmt.Fprintf(&b, "Pick the topic from the %q category.\n", category)
	}

	if len(avoidTopics) > 0 {
		b.WriteString("Topics already covered in this interview, do not repeat or overlap with any of them:\n")
		for _, topic := range avoidTopics {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
	}

	if len(req.History.Categories) > 0 {
		fmt.Fprintf(&b, "Categories already used: %s.\n", strings.Join(req.History.Categories, ", "))
	}

	return b.String()
}
