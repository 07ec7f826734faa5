package chunker

import "strings"

// tokensPerWord is the rough English ratio shared by EstimateTokens and
// TruncateTokens so the two stay inverses of each other.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count for prompt budgeting. Exact
// tokenization is not required anywhere in the pipeline.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TruncateTokens trims text to approximately maxTokens, cutting on a word
// boundary and marking the cut. Used when quoting chunk excerpts in prompts.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / tokensPerWord)
	if keep <= 0 {
		keep = 1
	}
	if keep >= len(words) {
		return text
	}
	return strings.Join(words[:keep], " ") + " ..."
}
