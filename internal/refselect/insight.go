package refselect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parley-dev/parley/internal/generator"
)

const insightSystem = `You classify candidate resumes. Identify the candidate's primary academic or professional background and respond only with the structured result. The background is one or two lowercase words, for example: engineering, medical, commerce, science, arts, defence.`

// insightSchema is the typed contract for the classification call.
var insightSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"background": {
			"type": "string",
			"description": "The candidate's primary background, one or two lowercase words."
		}
	},
	"required": ["background"]
}`)

// disciplineMarkers maps resume tokens to the background they signal.
// First match in resume order wins, so the heuristic favors whatever the
// candidate leads with.
var disciplineMarkers = map[string]string{
	"engineer":     "engineering",
	"engineering":  "engineering",
	"software":     "engineering",
	"developer":    "engineering",
	"mechanical":   "engineering",
	"electrical":   "engineering",
	"civil":        "engineering",
	"btech":        "engineering",
	"mtech":        "engineering",
	"doctor":       "medical",
	"mbbs":         "medical",
	"nursing":      "medical",
	"pharmacy":     "medical",
	"medicine":     "medical",
	"accountant":   "commerce",
	"accounting":   "commerce",
	"finance":      "commerce",
	"banking":      "commerce",
	"bcom":         "commerce",
	"mcom":         "commerce",
	"physics":      "science",
	"chemistry":    "science",
	"biology":      "science",
	"mathematics":  "science",
	"bsc":          "science",
	"msc":          "science",
	"history":      "arts",
	"literature":   "arts",
	"journalism":   "arts",
	"sociology":    "arts",
	"psychology":   "arts",
	"ncc":          "defence",
	"military":     "defence",
	"soldier":      "defence",
}

// InsightDetector classifies a candidate's background from resume text
// for curated corpus lookups. Classification is one small generation;
// when that fails or returns nothing usable, a resume-token heuristic
// answers instead, so the curated step degrades rather than stalls on a
// generator outage.
type InsightDetector struct {
	gen    generator.Generator
	logger *slog.Logger
}

// Interface guard.
var _ BackgroundDetector = (*InsightDetector)(nil)

// NewInsightDetector creates a detector over the generator. A nil
// logger discards log output.
func NewInsightDetector(gen generator.Generator, logger *slog.Logger) *InsightDetector {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	return &InsightDetector{gen: gen, logger: logger}
}

// DetectBackground implements BackgroundDetector.
func (d *InsightDetector) DetectBackground(ctx context.Context, resumeText string) (string, error) {
	resp, err := d.gen.Generate(ctx, generator.Request{
		Task:      generator.TaskCandidateInsight,
		System:    insightSystem,
		Prompt:    insightPrompt(resumeText),
		Schema:    insightSchema,
		MaxTokens: 128,
	})
	if err == nil {
		var parsed struct {
			Background string `json:"background"`
		}
		if jerr := json.Unmarshal(resp.Raw, &parsed); jerr == nil {
			if bg := normalizeBackground(parsed.Background); bg != "" {
				return bg, nil
			}
		}
		d.logger.Debug("insight result unusable, trying heuristic")
	} else {
		d.logger.Debug("insight generation failed, trying heuristic", "error", err)
	}

	if bg := heuristicBackground(resumeText); bg != "" {
		return bg, nil
	}
	return "", fmt.Errorf("refselect: no background signal in resume")
}

// heuristicBackground scans resume tokens for discipline markers.
func heuristicBackground(resumeText string) string {
	for _, tok := range tokenize(resumeText) {
		if bg, ok := disciplineMarkers[tok]; ok {
			return bg
		}
	}
	return ""
}

// normalizeBackground lowercases and trims a generated label, rejecting
// answers too long to be a background name.
func normalizeBackground(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > 40 {
		return ""
	}
	return s
}

func insightPrompt(resumeText string) string {
	var b strings.Builder
	b.WriteString("Resume:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nClassify the candidate's primary background.")
	return b.String()
}
