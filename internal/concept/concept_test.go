package concept

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rascaffold/internal/config"
	"rascaffold/internal/llm"
	"rascaffold/internal/reading"
)

func testCfg() config.ConceptConfig {
	return config.ConceptConfig{BatchSize: 12, MaxConcurrent: 1, MaxSelected: 8}
}

func makeChunks(n int) []reading.Chunk {
	chunks := make([]reading.Chunk, n)
	for i := range chunks {
		chunks[i] = reading.Chunk{Index: i, Text: fmt.Sprintf("chunk %d text about topic %d", i, i)}
	}
	return chunks
}

func TestRun_HolisticPass(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{
		"keywords": ["photosynthesis", "Chlorophyll", "photosynthesis"],
		"themes": [
			{"name": "Energy conversion", "evidence": "Light energy becomes chemical energy."},
			{"name": "energy conversion", "evidence": "duplicate casing is dropped"}
		],
		"selected_chunks": [2, 0, 2, 99]
	}`}}

	ex := NewExtractor(fake, testCfg(), zerolog.Nop())
	summary, err := ex.Run(context.Background(), makeChunks(3), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"photosynthesis", "Chlorophyll"}, summary.Keywords)
	require.Len(t, summary.Themes, 1)
	assert.Equal(t, "Energy conversion", summary.Themes[0].Name)
	// Out-of-range 99 dropped, duplicates dropped, ascending order.
	assert.Equal(t, []int{0, 2}, summary.Selected)
	assert.Len(t, fake.Calls(), 1)
}

func TestRun_EmptyObjectivesDefaultsToCentrality(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"keywords":[],"themes":[],"selected_chunks":[0]}`}}
	ex := NewExtractor(fake, testCfg(), zerolog.Nop())

	_, err := ex.Run(context.Background(), makeChunks(1), "")
	require.NoError(t, err)
	require.Len(t, fake.Calls(), 1)
	assert.Contains(t, fake.Calls()[0], "most central to the document's meaning")
}

func TestRun_ObjectivesIncludedInPrompt(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"keywords":[],"themes":[],"selected_chunks":[0]}`}}
	ex := NewExtractor(fake, testCfg(), zerolog.Nop())

	_, err := ex.Run(context.Background(), makeChunks(1), "Understand cell biology")
	require.NoError(t, err)
	assert.Contains(t, fake.Calls()[0], "Understand cell biology")
}

func TestRun_EmptySelectionFallsBackToLeadingChunks(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"keywords":["k"],"themes":[],"selected_chunks":[]}`}}
	ex := NewExtractor(fake, testCfg(), zerolog.Nop())

	summary, err := ex.Run(context.Background(), makeChunks(5), "")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, summary.Selected)
}

func TestRun_BatchedMergeIsDeterministic(t *testing.T) {
	// 5 chunks with batch size 2 -> 3 batches, processed sequentially
	// (MaxConcurrent=1) so the scripted responses map to batches in order.
	cfg := config.ConceptConfig{BatchSize: 2, MaxConcurrent: 1, MaxSelected: 8}
	fake := &llm.Fake{Responses: []string{
		`{"keywords":["alpha"],"themes":[{"name":"A","evidence":"a"}],"selected_chunks":[1]}`,
		`{"keywords":["beta","alpha"],"themes":[{"name":"B","evidence":"b"}],"selected_chunks":[3]}`,
		`{"keywords":["gamma"],"themes":[{"name":"A","evidence":"dup"}],"selected_chunks":[4]}`,
	}}

	ex := NewExtractor(fake, cfg, zerolog.Nop())
	summary, err := ex.Run(context.Background(), makeChunks(5), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, summary.Keywords)
	require.Len(t, summary.Themes, 2)
	assert.Equal(t, "A", summary.Themes[0].Name)
	assert.Equal(t, "a", summary.Themes[0].Evidence)
	assert.Equal(t, []int{1, 3, 4}, summary.Selected)
	assert.Len(t, fake.Calls(), 3)
}

func TestRun_SelectionCappedAtMaxSelected(t *testing.T) {
	fake := &llm.Fake{Responses: []string{`{"keywords":[],"themes":[],"selected_chunks":[9,8,7,6,5,4,3,2,1,0]}`}}
	cfg := config.ConceptConfig{BatchSize: 12, MaxConcurrent: 1, MaxSelected: 4}

	ex := NewExtractor(fake, cfg, zerolog.Nop())
	summary, err := ex.Run(context.Background(), makeChunks(10), "")
	require.NoError(t, err)
	// Cap keeps the lowest indices after sorting.
	assert.Equal(t, []int{0, 1, 2, 3}, summary.Selected)
}
