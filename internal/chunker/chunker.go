// Package chunker splits normalized text into bounded, overlap-aware
// segments sized for model context limits.
package chunker

import (
	"fmt"

	"rascaffold/internal/reading"
)

// Config controls chunking behavior. Sizes are in runes.
type Config struct {
	MaxChunkSize int // Window size per chunk.
	OverlapSize  int // Runes each chunk repeats from the end of the previous one.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: 1000,
		OverlapSize:  200,
	}
}

// ConfigError reports an invalid chunking configuration. Deterministic,
// never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "chunker: " + e.Msg }

// Validate enforces the overlap < max invariant before any text is split.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("max chunk size must be positive, got %d", c.MaxChunkSize)}
	}
	if c.OverlapSize < 0 {
		return &ConfigError{Msg: fmt.Sprintf("overlap size must not be negative, got %d", c.OverlapSize)}
	}
	if c.OverlapSize >= c.MaxChunkSize {
		return &ConfigError{Msg: fmt.Sprintf("overlap size %d must be smaller than max chunk size %d", c.OverlapSize, c.MaxChunkSize)}
	}
	return nil
}

// Split cuts text into fixed windows with overlap. Each chunk after the
// first starts OverlapSize runes before the previous chunk's end, so
// concatenating chunks with their overlap prefixes removed reconstructs the
// text exactly. Text shorter than MaxChunkSize yields exactly one chunk.
//
// firstIndex is the sequence number of the first emitted chunk, letting
// reference documents continue the main document's numbering.
func Split(text, source string, cfg Config, firstIndex int) ([]reading.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := cfg.MaxChunkSize - cfg.OverlapSize
	var chunks []reading.Chunk
	index := firstIndex

	for start := 0; ; start += step {
		end := start + cfg.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, reading.Chunk{
			Index:  index,
			Text:   string(runes[start:end]),
			Start:  start,
			End:    end,
			Source: source,
		})
		index++
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// Reconstruct inverts Split for chunks of a single source: it concatenates
// the chunk texts with each chunk's overlap prefix removed. Used by tests to
// assert the no-character-loss invariant.
func Reconstruct(chunks []reading.Chunk, cfg Config) string {
	var out []rune
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i > 0 && len(runes) >= cfg.OverlapSize {
			runes = runes[cfg.OverlapSize:]
		}
		out = append(out, runes...)
	}
	return string(out)
}
