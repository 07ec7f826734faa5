package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeBlock("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeBlock("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeBlock(`  {"a":1}  `))
}

func TestGenerateJSON_Success(t *testing.T) {
	fake := &Fake{Responses: []string{"```json\n{\"name\":\"themes\"}\n```"}}

	var out struct {
		Name string `json:"name"`
	}
	err := GenerateJSON(context.Background(), fake, "prompt", &out, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "themes", out.Name)
	assert.Len(t, fake.Calls(), 1)
}

func TestGenerateJSON_RetriesWithStricterInstruction(t *testing.T) {
	fake := &Fake{Responses: []string{
		"Sure! Here are the themes you asked for.",
		`{"name":"ok"}`,
	}}

	var out struct {
		Name string `json:"name"`
	}
	err := GenerateJSON(context.Background(), fake, "prompt", &out, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[0], "could not be parsed")
	assert.Contains(t, calls[1], "could not be parsed")
}

func TestGenerateJSON_ParseErrorAfterExhaustion(t *testing.T) {
	fake := &Fake{Responses: []string{"still not json", "nope", "nada"}}

	var out map[string]any
	err := GenerateJSON(context.Background(), fake, "prompt", &out, zerolog.Nop())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Len(t, fake.Calls(), 1+parseRetries)
}

func TestGenerateJSON_NonRetryableErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	fake := &Fake{Err: boom}

	var out map[string]any
	err := GenerateJSON(context.Background(), fake, "prompt", &out, zerolog.Nop())
	require.ErrorIs(t, err, boom)
	assert.Len(t, fake.Calls(), 1)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&CallError{Err: errors.New("rate limited")}))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 300)
	assert.Len(t, Truncate(long, 200), 203)
	assert.Equal(t, "short", Truncate("short", 200))
}
