// Package reading holds the value objects passed between pipeline stages.
// Everything here is created once per run and treated as immutable by
// downstream consumers.
package reading

import "strings"

// Document is the normalized text of one source file.
type Document struct {
	Text   string // Normalized plain text
	Format string // Source format tag: "pdf", "docx", "txt", ...
	Bytes  int    // Size of the raw input in bytes
	Name   string // Source name (filename or label), may be empty
}

// Chunk is a bounded contiguous span of document text.
// Start/End are rune offsets into the source document's text. Consecutive
// chunks from the same source overlap by the configured overlap size, so
// Chunk texts with overlap prefixes removed reconstruct the source exactly.
type Chunk struct {
	Index  int    // Position in the combined chunk sequence
	Text   string // Span text
	Start  int    // Rune offset of the first rune
	End    int    // Rune offset one past the last rune
	Source string // Source document tag; empty for the main document
}

// Dimension is one of the four fixed Reading Apprenticeship categories.
// The set is closed: downstream completeness and ordering checks iterate
// Dimensions and rely on there being exactly four cases.
type Dimension int

const (
	Social Dimension = iota
	Personal
	Cognitive
	KnowledgeBuilding
)

// Dimensions lists all dimensions in canonical output order.
var Dimensions = [4]Dimension{Social, Personal, Cognitive, KnowledgeBuilding}

func (d Dimension) String() string {
	switch d {
	case Social:
		return "Social"
	case Personal:
		return "Personal"
	case Cognitive:
		return "Cognitive"
	case KnowledgeBuilding:
		return "Knowledge-Building"
	}
	return "Unknown"
}

// ParseDimension maps a model-emitted label to a Dimension. Labels are
// matched case-insensitively with separators ignored, so "knowledge
// building", "Knowledge-Building" and "knowledgebuilding" all parse.
func ParseDimension(label string) (Dimension, bool) {
	s := strings.ToLower(label)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, s)
	switch s {
	case "social":
		return Social, true
	case "personal":
		return Personal, true
	case "cognitive":
		return Cognitive, true
	case "knowledgebuilding":
		return KnowledgeBuilding, true
	}
	return 0, false
}

// Theme is one salient theme with its supporting evidence text.
type Theme struct {
	Name     string
	Evidence string
}

// ConceptSummary is Agent 1's output: the document's key concepts plus the
// chunk indices judged most relevant to the supplied objectives.
type ConceptSummary struct {
	Keywords []string
	Themes   []Theme
	Selected []int // Chunk indices, ascending, no duplicates
}

// DimensionQuestion pairs one generated question with its teacher
// facilitation prompt. Exactly one exists per dimension per run.
type DimensionQuestion struct {
	Dimension Dimension
	Question  string
	Prompt    string
}

// DimensionScore is the evaluator's verdict for a single question.
type DimensionScore struct {
	Dimension Dimension
	Score     int // 1..5
	Rationale string
}

// EvaluationReport is Agent 3's output. Pass is computed deterministically
// from the per-dimension scores, never taken from model prose.
type EvaluationReport struct {
	Scores  [4]DimensionScore // Canonical dimension order
	Pass    bool
	Summary string
}

// PipelineResult is the single object crossing the boundary to the caller.
type PipelineResult struct {
	Summary    ConceptSummary
	Context    []Chunk              // The selected chunks, ascending by index
	Questions  [4]DimensionQuestion // Canonical dimension order
	Evaluation EvaluationReport
	Degraded   bool // Set when the quality gate was never met within budget
	Attempts   int  // Scaffold attempts consumed (1 = no regeneration)
}
