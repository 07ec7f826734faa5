package scaffold

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rascaffold/internal/llm"
	"rascaffold/internal/reading"
)

var testSummary = reading.ConceptSummary{
	Keywords: []string{"photosynthesis"},
	Themes:   []reading.Theme{{Name: "Energy", Evidence: "Light becomes glucose."}},
	Selected: []int{0},
}

var testContext = []reading.Chunk{{Index: 0, Text: "Photosynthesis converts light into chemical energy."}}

func TestRun_ReordersToCanonicalOrder(t *testing.T) {
	// Model emits dimensions shuffled and with label variants; output must
	// still be Social, Personal, Cognitive, Knowledge-Building.
	fake := &llm.Fake{Responses: []string{`[
		{"dimension": "knowledge building", "question": "KQ", "prompt": "KP"},
		{"dimension": "Social", "question": "SQ", "prompt": "SP"},
		{"dimension": "COGNITIVE", "question": "CQ", "prompt": "CP"},
		{"dimension": "personal", "question": "PQ", "prompt": "PP"}
	]`}}

	s := NewScaffolder(fake, zerolog.Nop())
	questions, err := s.Run(context.Background(), testSummary, testContext, "", "")
	require.NoError(t, err)

	for i, d := range reading.Dimensions {
		assert.Equal(t, d, questions[i].Dimension)
	}
	assert.Equal(t, "SQ", questions[0].Question)
	assert.Equal(t, "PP", questions[1].Prompt)
	assert.Equal(t, "CQ", questions[2].Question)
	assert.Equal(t, "KQ", questions[3].Question)
}

func TestRun_ThreeDimensionsIsIncomplete(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`[
		{"dimension": "Social", "question": "SQ", "prompt": "SP"},
		{"dimension": "Personal", "question": "PQ", "prompt": "PP"},
		{"dimension": "Cognitive", "question": "CQ", "prompt": "CP"}
	]`}}

	s := NewScaffolder(fake, zerolog.Nop())
	_, err := s.Run(context.Background(), testSummary, testContext, "", "")

	var incomplete *ErrIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.Len(t, incomplete.Found, 3)
}

func TestRun_DuplicateDimensionKeepsFirst(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`[
		{"dimension": "Social", "question": "first", "prompt": "p1"},
		{"dimension": "Social", "question": "second", "prompt": "p2"},
		{"dimension": "Personal", "question": "PQ", "prompt": "PP"},
		{"dimension": "Cognitive", "question": "CQ", "prompt": "CP"},
		{"dimension": "Knowledge-Building", "question": "KQ", "prompt": "KP"}
	]`}}

	s := NewScaffolder(fake, zerolog.Nop())
	questions, err := s.Run(context.Background(), testSummary, testContext, "", "")
	require.NoError(t, err)
	assert.Equal(t, "first", questions[0].Question)
}

func TestRun_BlankQuestionDoesNotCount(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`[
		{"dimension": "Social", "question": "  ", "prompt": "SP"},
		{"dimension": "Personal", "question": "PQ", "prompt": "PP"},
		{"dimension": "Cognitive", "question": "CQ", "prompt": "CP"},
		{"dimension": "Knowledge-Building", "question": "KQ", "prompt": "KP"}
	]`}}

	s := NewScaffolder(fake, zerolog.Nop())
	_, err := s.Run(context.Background(), testSummary, testContext, "", "")

	var incomplete *ErrIncomplete
	require.ErrorAs(t, err, &incomplete)
}

func TestRun_FeedbackAppearsInPrompt(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`[
		{"dimension": "Social", "question": "SQ", "prompt": "SP"},
		{"dimension": "Personal", "question": "PQ", "prompt": "PP"},
		{"dimension": "Cognitive", "question": "CQ", "prompt": "CP"},
		{"dimension": "Knowledge-Building", "question": "KQ", "prompt": "KP"}
	]`}}

	s := NewScaffolder(fake, zerolog.Nop())
	_, err := s.Run(context.Background(), testSummary, testContext, "", "questions were too generic")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "questions were too generic")
	assert.Contains(t, calls[0], "RELEVANT CONTEXT")
}
