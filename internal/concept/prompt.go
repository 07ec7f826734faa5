package concept

import (
	"fmt"
	"strings"

	"rascaffold/internal/chunker"
	"rascaffold/internal/reading"
)

const extractionPrompt = `Analyze the following educational text segments. Return a single JSON object with these fields:

- "keywords": 10-20 keywords or terms that best represent the reading (list of strings)
- "themes": the salient themes, each an object with "name" (short label) and "evidence" (1-2 sentences quoting or closely paraphrasing the supporting text)
- "selected_chunks": the chunk numbers most load-bearing for the stated objectives (list of integers, use the CHUNK numbers shown below)

Rules:
- Every theme's evidence must come from the provided segments, not general knowledge
- Prefer definitional, causal, or summary material when selecting chunks
- Keep theme names short; keep evidence concrete
- Respond with ONLY the JSON object, no other text.`

// maxExcerptTokens caps how much of each chunk is quoted into the prompt.
const maxExcerptTokens = 600

// buildPrompt assembles the extraction prompt for one batch of chunks.
func buildPrompt(chunks []reading.Chunk, objectives string) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	sb.WriteString("\n\nObjectives:\n")
	if strings.TrimSpace(objectives) != "" {
		sb.WriteString(objectives)
	} else {
		sb.WriteString("(none provided — select the chunks most central to the document's meaning)")
	}
	sb.WriteString("\n")
	for _, c := range chunks {
		sb.WriteString(fmt.Sprintf("\n---\nCHUNK %d", c.Index))
		if c.Source != "" {
			sb.WriteString(fmt.Sprintf(" (source: %s)", c.Source))
		}
		sb.WriteString(":\n")
		sb.WriteString(chunker.TruncateTokens(c.Text, maxExcerptTokens))
		sb.WriteString("\n")
	}
	return sb.String()
}
