// Package quality implements the third agent stage: scoring the generated
// question set against the rubric and deciding the quality gate.
package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"rascaffold/internal/chunker"
	"rascaffold/internal/llm"
	"rascaffold/internal/reading"
)

const rubricPrompt = `Evaluate the following Reading Apprenticeship questions and teacher prompts.

For each question assess:
1. Groundedness: is the question traceable to the SOURCE CONTEXT below, rather than general knowledge?
2. Dimension alignment: does the question fit the intent of its claimed RA dimension (Social / Personal / Cognitive / Knowledge-Building)?
3. Clarity: is the question clear, specific, and grade-appropriate, and does its teacher prompt give actionable facilitation guidance?

Score each question from 1 (poor) to 5 (excellent) across these criteria combined.

Return a single JSON object:
{"scores": [{"dimension": "...", "score": N, "rationale": "1-2 sentences"}], "summary": "overall assessment in 2-3 sentences"}

Include exactly one scores entry per dimension. Respond with ONLY the JSON object, no other text.`

const maxContextTokens = 500

// Evaluator scores a scaffold attempt. The pass decision is computed here
// from the numeric scores, not taken from the model's prose.
type Evaluator struct {
	gen       llm.Generator
	threshold int // pass requires every score strictly above this
	log       zerolog.Logger
}

func NewEvaluator(gen llm.Generator, threshold int, log zerolog.Logger) *Evaluator {
	return &Evaluator{gen: gen, threshold: threshold, log: log}
}

type response struct {
	Scores []struct {
		Dimension string `json:"dimension"`
		Score     int    `json:"score"`
		Rationale string `json:"rationale"`
	} `json:"scores"`
	Summary string `json:"summary"`
}

// Run produces the evaluation report for one question set.
func (e *Evaluator) Run(ctx context.Context, questions [4]reading.DimensionQuestion, summary reading.ConceptSummary, contextChunks []reading.Chunk) (reading.EvaluationReport, error) {
	prompt := buildPrompt(questions, summary, contextChunks)

	var resp response
	if err := llm.GenerateJSON(ctx, e.gen, prompt, &resp, e.log); err != nil {
		return reading.EvaluationReport{}, err
	}

	var report reading.EvaluationReport
	have := map[reading.Dimension]bool{}
	for _, s := range resp.Scores {
		dim, ok := reading.ParseDimension(s.Dimension)
		if !ok || have[dim] {
			continue
		}
		have[dim] = true
		report.Scores[int(dim)] = reading.DimensionScore{
			Dimension: dim,
			Score:     clamp(s.Score, 1, 5),
			Rationale: strings.TrimSpace(s.Rationale),
		}
	}
	if len(have) < len(reading.Dimensions) {
		return reading.EvaluationReport{}, &llm.ParseError{
			Raw: fmt.Sprintf("%+v", resp.Scores),
			Err: fmt.Errorf("evaluation covered %d of %d dimensions", len(have), len(reading.Dimensions)),
		}
	}

	// Overall pass requires every dimension above the threshold; a single
	// failing dimension flips the gate.
	report.Pass = true
	for _, s := range report.Scores {
		if s.Score <= e.threshold {
			report.Pass = false
		}
	}
	report.Summary = strings.TrimSpace(resp.Summary)
	return report, nil
}

func buildPrompt(questions [4]reading.DimensionQuestion, summary reading.ConceptSummary, contextChunks []reading.Chunk) string {
	var sb strings.Builder
	sb.WriteString(rubricPrompt)

	sb.WriteString("\n\nQUESTIONS:\n")
	for i, q := range questions {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n   Teacher prompt: %s\n", i+1, q.Dimension, q.Question, q.Prompt))
	}

	if len(summary.Themes) > 0 {
		sb.WriteString("\nKEY THEMES:\n")
		for _, th := range summary.Themes {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", th.Name, th.Evidence))
		}
	}

	sb.WriteString("\nSOURCE CONTEXT:\n")
	for _, c := range contextChunks {
		sb.WriteString("\n---\n")
		sb.WriteString(chunker.TruncateTokens(c.Text, maxContextTokens))
		sb.WriteString("\n")
	}
	return sb.String()
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
