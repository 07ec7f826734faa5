// Package scaffold implements the second agent stage: generating one
// comprehension question per Reading Apprenticeship dimension, each paired
// with a teacher facilitation prompt.
package scaffold

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"rascaffold/internal/chunker"
	"rascaffold/internal/llm"
	"rascaffold/internal/reading"
)

// ErrIncomplete reports that the model returned fewer than four
// distinguishable dimension-tagged items. The controller treats this as a
// stage failure eligible for regeneration — never padded with placeholders.
type ErrIncomplete struct {
	Found []reading.Dimension
}

func (e *ErrIncomplete) Error() string {
	labels := make([]string, len(e.Found))
	for i, d := range e.Found {
		labels[i] = d.String()
	}
	return fmt.Sprintf("scaffold output incomplete: got dimensions [%s], need all four", strings.Join(labels, ", "))
}

const scaffoldPrompt = `Create Reading Apprenticeship (RA) comprehension questions from the material below.

Generate exactly 4 questions, one per RA dimension:
- Social: promotes discussion, collaboration, or peer interaction
- Personal: invites self-reflection, personal connection, or prior experience
- Cognitive: encourages metacognition, reading strategies, or thinking about thinking
- Knowledge-Building: deepens understanding of concepts, content knowledge, or subject matter

For each question also write a concise teacher prompt (1-2 sentences) guiding the teacher to facilitate discussion or thinking about the question with students.

Rules:
- Each question must be answerable primarily from the RELEVANT CONTEXT below, not from general knowledge
- Align questions to the learning objectives when given
- Return a JSON array of exactly 4 objects, each with fields "dimension", "question", "prompt"
- "dimension" must be one of "Social", "Personal", "Cognitive", "Knowledge-Building"
- Respond with ONLY the JSON array, no other text.`

// maxContextTokens caps the quoted context per chunk.
const maxContextTokens = 700

// Scaffolder runs question generation.
type Scaffolder struct {
	gen llm.Generator
	log zerolog.Logger
}

func NewScaffolder(gen llm.Generator, log zerolog.Logger) *Scaffolder {
	return &Scaffolder{gen: gen, log: log}
}

type item struct {
	Dimension string `json:"dimension"`
	Question  string `json:"question"`
	Prompt    string `json:"prompt"`
}

// Run generates the four questions. contextChunks are the chunks selected by
// the concept stage; feedback carries the evaluator's remediation notes on
// regeneration passes (empty on the first attempt).
func (s *Scaffolder) Run(ctx context.Context, summary reading.ConceptSummary, contextChunks []reading.Chunk, objectives, feedback string) ([4]reading.DimensionQuestion, error) {
	prompt := s.buildPrompt(summary, contextChunks, objectives, feedback)

	var items []item
	if err := llm.GenerateJSON(ctx, s.gen, prompt, &items, s.log); err != nil {
		return [4]reading.DimensionQuestion{}, err
	}
	return collate(items)
}

func (s *Scaffolder) buildPrompt(summary reading.ConceptSummary, contextChunks []reading.Chunk, objectives, feedback string) string {
	var sb strings.Builder
	sb.WriteString(scaffoldPrompt)

	sb.WriteString("\n\nLearning objectives:\n")
	if strings.TrimSpace(objectives) != "" {
		sb.WriteString(objectives)
	} else {
		sb.WriteString("(none provided)")
	}

	sb.WriteString("\n\nKey concepts:\n")
	if len(summary.Keywords) > 0 {
		sb.WriteString("Keywords: " + strings.Join(summary.Keywords, ", ") + "\n")
	}
	for _, th := range summary.Themes {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", th.Name, th.Evidence))
	}

	sb.WriteString("\nRELEVANT CONTEXT:\n")
	for _, c := range contextChunks {
		sb.WriteString("\n---\n")
		sb.WriteString(chunker.TruncateTokens(c.Text, maxContextTokens))
		sb.WriteString("\n")
	}

	if strings.TrimSpace(feedback) != "" {
		sb.WriteString("\nA previous attempt was rejected by a quality review. Address this feedback:\n")
		sb.WriteString(feedback)
		sb.WriteString("\n")
	}
	return sb.String()
}

// collate maps model items onto the closed dimension set by parsing labels
// — never by position — and emits the canonical order. Duplicate labels keep
// the first occurrence.
func collate(items []item) ([4]reading.DimensionQuestion, error) {
	var out [4]reading.DimensionQuestion
	have := map[reading.Dimension]bool{}

	for _, it := range items {
		dim, ok := reading.ParseDimension(it.Dimension)
		if !ok || have[dim] {
			continue
		}
		q := strings.TrimSpace(it.Question)
		p := strings.TrimSpace(it.Prompt)
		if q == "" || p == "" {
			continue
		}
		have[dim] = true
		out[int(dim)] = reading.DimensionQuestion{Dimension: dim, Question: q, Prompt: p}
	}

	if len(have) < len(reading.Dimensions) {
		var found []reading.Dimension
		for _, d := range reading.Dimensions {
			if have[d] {
				found = append(found, d)
			}
		}
		return out, &ErrIncomplete{Found: found}
	}
	return out, nil
}
