package pipeline

import (
	"fmt"
	"strings"

	"rascaffold/internal/chunker"
	"rascaffold/internal/reading"
)

// Record is the flat rendering of a PipelineResult handed to the transport
// layer. Each field is a newline-delimited text block; questions and
// prompts use numbered lines whose order is the canonical dimension order,
// so line index maps to dimension downstream.
type Record struct {
	ExtractedInfo   string `json:"extracted_info"`
	RelevantContext string `json:"relevant_context"`
	Questions       string `json:"questions"`
	Prompts         string `json:"prompts"`
	Evaluation      string `json:"evaluation"`
}

const maxContextExcerptTokens = 700

// Render flattens a result into the boundary record.
func Render(res *reading.PipelineResult) Record {
	return Record{
		ExtractedInfo:   renderExtractedInfo(res.Summary),
		RelevantContext: renderContext(res.Context),
		Questions:       renderNumbered(res.Questions, func(q reading.DimensionQuestion) string { return q.Question }),
		Prompts:         renderNumbered(res.Questions, func(q reading.DimensionQuestion) string { return q.Prompt }),
		Evaluation:      renderEvaluation(res),
	}
}

func renderExtractedInfo(s reading.ConceptSummary) string {
	var sb strings.Builder
	if len(s.Keywords) > 0 {
		sb.WriteString("Keywords: ")
		sb.WriteString(strings.Join(s.Keywords, ", "))
		sb.WriteString("\n")
	}
	for _, th := range s.Themes {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", th.Name, th.Evidence))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderContext(chunks []reading.Chunk) string {
	if len(chunks) == 0 {
		return "No relevant context selected."
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		tag := fmt.Sprintf("[chunk %d]", c.Index)
		if c.Source != "" {
			tag = fmt.Sprintf("[chunk %d: %s]", c.Index, c.Source)
		}
		parts[i] = tag + "\n" + chunker.TruncateTokens(c.Text, maxContextExcerptTokens)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func renderNumbered(questions [4]reading.DimensionQuestion, field func(reading.DimensionQuestion) string) string {
	lines := make([]string, 0, len(questions))
	for i, q := range questions {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, field(q)))
	}
	return strings.Join(lines, "\n")
}

func renderEvaluation(res *reading.PipelineResult) string {
	var sb strings.Builder
	for i, s := range res.Evaluation.Scores {
		sb.WriteString(fmt.Sprintf("%d. %s (%d/5): %s\n", i+1, s.Dimension, s.Score, s.Rationale))
	}
	if res.Evaluation.Summary != "" {
		sb.WriteString(res.Evaluation.Summary)
		sb.WriteString("\n")
	}
	if res.Evaluation.Pass {
		sb.WriteString("Overall: PASS")
	} else {
		sb.WriteString("Overall: FAIL")
	}
	if res.Degraded {
		sb.WriteString(fmt.Sprintf("\nCaveat: quality gate not met after %d attempts; best-scoring attempt returned.", res.Attempts))
	}
	return sb.String()
}
